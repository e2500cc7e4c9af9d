// Package store persists items and tags through a storage adapter and
// answers compiled queries. It is the relational counterpart of the
// in-memory evaluator.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tagql/tagql/tagql/catalog"
	"github.com/tagql/tagql/tagql/planner"
	"github.com/tagql/tagql/tagql/storage"
	"github.com/tagql/tagql/tagql/storage/sqlbuilder"
	"github.com/tagql/tagql/tagql/validate"
)

type Store struct {
	adapter storage.Adapter
	db      *sql.DB
}

// Open connects through the adapter and ensures the schema exists.
func Open(ctx context.Context, adapter storage.Adapter) (*Store, error) {
	db, err := adapter.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := adapter.CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{adapter: adapter, db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
		s.db = nil
	}
	return s.adapter.Close()
}

// DB exposes the underlying handle for tests and migrations.
func (s *Store) DB() *sql.DB { return s.db }

// UpsertItem inserts or refreshes an item keyed by path and returns its
// id. An existing row keeps its created_at.
func (s *Store) UpsertItem(ctx context.Context, item catalog.Item) (int64, error) {
	var size any
	if !item.IsDir {
		size = item.Size
	}
	var id int64
	err := s.db.QueryRowContext(ctx, s.adapter.SQL().UpsertItem,
		item.Path, item.Name, item.IsDir, size, item.ModifiedAt, item.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert item %s: %w", item.Path, err)
	}
	return id, nil
}

// UpsertItems upserts a batch inside one transaction and returns ids in
// input order.
func (s *Store) UpsertItems(ctx context.Context, items []catalog.Item) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, len(items))
	for i, item := range items {
		var size any
		if !item.IsDir {
			size = item.Size
		}
		if err := tx.QueryRowContext(ctx, s.adapter.SQL().UpsertItem,
			item.Path, item.Name, item.IsDir, size, item.ModifiedAt, item.CreatedAt).Scan(&ids[i]); err != nil {
			return nil, fmt.Errorf("upsert item %s: %w", item.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) DeleteItem(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, s.adapter.SQL().DeleteItem, path)
	return err
}

// GetItemByPath returns the stored item, or sql.ErrNoRows.
func (s *Store) GetItemByPath(ctx context.Context, path string) (catalog.Item, error) {
	row := s.db.QueryRowContext(ctx, s.adapter.SQL().GetItemByPath, path)
	return scanItem(row)
}

// ListPaths returns every indexed path, ascending.
func (s *Store) ListPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.adapter.SQL().ListItemPaths)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// EnsureGroup creates the tag group if missing and returns its id.
func (s *Store) EnsureGroup(ctx context.Context, name string) (int64, error) {
	sqlt := s.adapter.SQL()
	if _, err := s.db.ExecContext(ctx, sqlt.EnsureGroup, name); err != nil {
		return 0, fmt.Errorf("ensure group %s: %w", name, err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, sqlt.GetGroupID, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup group %s: %w", name, err)
	}
	return id, nil
}

// EnsureTag creates the tag within a group if missing and returns its id.
func (s *Store) EnsureTag(ctx context.Context, groupID int64, value string) (int64, error) {
	sqlt := s.adapter.SQL()
	if _, err := s.db.ExecContext(ctx, sqlt.EnsureTag, groupID, value); err != nil {
		return 0, fmt.Errorf("ensure tag %s: %w", value, err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, sqlt.GetTagID, groupID, value).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup tag %s: %w", value, err)
	}
	return id, nil
}

func (s *Store) TagItem(ctx context.Context, itemID, tagID int64) error {
	_, err := s.db.ExecContext(ctx, s.adapter.SQL().TagItem, itemID, tagID)
	return err
}

func (s *Store) UntagItem(ctx context.Context, itemID, tagID int64) error {
	_, err := s.db.ExecContext(ctx, s.adapter.SQL().UntagItem, itemID, tagID)
	return err
}

func (s *Store) ClearTags(ctx context.Context, itemID int64) error {
	_, err := s.db.ExecContext(ctx, s.adapter.SQL().ClearTags, itemID)
	return err
}

// ItemTagIDs returns the tag ids attached to an item, ascending.
func (s *Store) ItemTagIDs(ctx context.Context, itemID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, s.adapter.SQL().ItemTagIDs, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadCatalog reads the full tag vocabulary into a snapshot for the
// validator.
func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	sqlt := s.adapter.SQL()

	rows, err := s.db.QueryContext(ctx, sqlt.ListGroups)
	if err != nil {
		return nil, err
	}
	var groups []catalog.TagGroup
	for rows.Next() {
		var g catalog.TagGroup
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			rows.Close()
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, sqlt.ListTags)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []catalog.Tag
	for rows.Next() {
		var t catalog.Tag
		if err := rows.Scan(&t.ID, &t.GroupID, &t.Value); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return catalog.New(groups, tags), nil
}

// TagCount is one row of the tag usage summary.
type TagCount struct {
	Group string
	Value string
	Count int64
}

func (s *Store) TagCounts(ctx context.Context) ([]TagCount, error) {
	rows, err := s.db.QueryContext(ctx, s.adapter.SQL().TagCounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []TagCount
	for rows.Next() {
		var c TagCount
		if err := rows.Scan(&c.Group, &c.Value, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// ListItemsMatching compiles the validated expression for this
// adapter's dialect and returns matching items ordered by path.
func (s *Store) ListItemsMatching(ctx context.Context, expr validate.Expr) ([]catalog.Item, error) {
	b := sqlbuilder.New(s.adapter.PlaceholderStyle())
	filter, err := planner.Compile(expr, b, s.adapter.Dialect())
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, planner.BuildSelect(filter), filter.Args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		item, err := scanItemRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Explain compiles the validated expression for this adapter's dialect
// without running it, returning the SQL, its arguments and the
// compilation steps.
func (s *Store) Explain(expr validate.Expr) (string, []any, []string, error) {
	b := sqlbuilder.New(s.adapter.PlaceholderStyle())
	filter, err := planner.Compile(expr, b, s.adapter.Dialect())
	if err != nil {
		return "", nil, nil, err
	}
	return planner.BuildSelect(filter), filter.Args, filter.Steps, nil
}

func scanItem(row *sql.Row) (catalog.Item, error) {
	var (
		item catalog.Item
		size sql.NullInt64
	)
	err := row.Scan(&item.ID, &item.Path, &item.Name, &item.IsDir, &size, &item.ModifiedAt, &item.CreatedAt)
	if err != nil {
		return catalog.Item{}, err
	}
	if size.Valid {
		item.Size = size.Int64
	}
	return item, nil
}

func scanItemRows(rows *sql.Rows) (catalog.Item, error) {
	var (
		item catalog.Item
		size sql.NullInt64
	)
	err := rows.Scan(&item.ID, &item.Path, &item.Name, &item.IsDir, &size, &item.ModifiedAt, &item.CreatedAt)
	if err != nil {
		return catalog.Item{}, err
	}
	if size.Valid {
		item.Size = size.Int64
	}
	return item, nil
}
