package storage

import (
	"context"
	"database/sql"

	"github.com/tagql/tagql/tagql/storage/sqlbuilder"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Adapter abstracts database-specific operations
type Adapter interface {
	Backend() Backend
	PlaceholderStyle() sqlbuilder.PlaceholderStyle

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error

	CreateSchema(ctx context.Context, db *sql.DB) error

	SQL() SQL
	Dialect() Dialect
}

// Dialect is the small surface the filter compiler needs from an
// adapter. It is an interface of its own so the planner package does
// not depend on concrete adapters.
type Dialect interface {
	// LikePredicate renders a case-insensitive pattern match over col
	// against the given placeholder. The pattern uses `\` as the LIKE
	// escape character.
	LikePredicate(col, placeholder string) string
}

// Builder interface for placeholder management
type Builder interface {
	Arg(v any) string
	Args() []any
	Len() int
}

// SQL holds prepared SQL templates for common operations
type SQL struct {
	UpsertItem    string
	DeleteItem    string
	GetItemByPath string
	ListItemPaths string

	EnsureGroup string
	GetGroupID  string
	EnsureTag   string
	GetTagID    string

	TagItem    string
	UntagItem  string
	ClearTags  string
	ItemTagIDs string

	ListGroups string
	ListTags   string
	TagCounts  string
}
