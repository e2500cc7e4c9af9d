package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tagql/tagql/tagql/storage"
	"github.com/tagql/tagql/tagql/storage/sqlbuilder"
)

type Adapter struct {
	Path       string
	DriverName string
}

// New uses the pure-Go driver (modernc.org/sqlite).
func New(path string) *Adapter {
	return &Adapter{Path: path, DriverName: "sqlite"}
}

// NewWithDriver selects a specific registered driver, e.g. "sqlite3"
// for mattn/go-sqlite3.
func NewWithDriver(path, driver string) *Adapter {
	return &Adapter{Path: path, DriverName: driver}
}

func (a *Adapter) Backend() storage.Backend {
	return storage.BackendSQLite
}

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle {
	return sqlbuilder.PlaceholderQuestion
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	dsn := a.Path
	if !strings.Contains(dsn, "?") {
		dsn = dsn + "?_busy_timeout=5000&_foreign_keys=on"
	} else {
		dsn = dsn + "&_busy_timeout=5000&_foreign_keys=on"
	}
	db, err := sql.Open(a.DriverName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ddlBase); err != nil {
		return err
	}
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys=ON;")
	return nil
}

func (a *Adapter) SQL() storage.SQL {
	return SQLTemplates
}

func (a *Adapter) Dialect() storage.Dialect {
	return dialect{}
}

type dialect struct{}

// LikePredicate relies on sqlite LIKE being case-insensitive for ASCII.
func (dialect) LikePredicate(col, placeholder string) string {
	return col + " LIKE " + placeholder + ` ESCAPE '\'`
}
