package validate

import "github.com/tagql/tagql/tagql/query"

// Expr is a validated, annotated expression. Tag text has been resolved
// to tag ids, function calls have been expanded away, and every node is
// known to be type-correct, so the compiler backends never special-case
// or re-check anything.
type Expr interface {
	isExpr()
}

// And represents a boolean AND of two validated expressions
type And struct {
	Left  Expr
	Right Expr
}

func (And) isExpr() {}

// Or represents a boolean OR of two validated expressions
type Or struct {
	Left  Expr
	Right Expr
}

func (Or) isExpr() {}

// Not represents a boolean NOT of a validated expression
type Not struct {
	Inner Expr
}

func (Not) isExpr() {}

// HasTag matches items carrying at least one of the listed tag ids.
// A single textual tag value may resolve to several ids (duplicate tag
// text across groups); those ids are unioned with OR semantics. An empty
// id set matches no items, which is how unresolved tag text stays
// well-defined instead of erroring.
type HasTag struct {
	TagIDs []int64
}

func (HasTag) isExpr() {}

// SizeCmp compares the item size in bytes. Items without a size
// (directories) never match, under any comparator.
type SizeCmp struct {
	Op    query.Comparator
	Bytes int64
}

func (SizeCmp) isExpr() {}

// TimeField selects which timestamp column a TimeCmp reads.
type TimeField int

const (
	TimeModified TimeField = iota
	TimeCreated
)

// TimeCmp compares a timestamp field against an absolute instant in
// epoch milliseconds (relative shorthands were resolved at validation).
type TimeCmp struct {
	Field  TimeField
	Op     query.Comparator
	UnixMS int64
}

func (TimeCmp) isExpr() {}

// TextField selects which text column a text node reads.
type TextField int

const (
	TextName TextField = iota
	TextPath
)

// TextCmp is an exact (case-sensitive) text comparison; Op is CmpEq or
// CmpNeq.
type TextCmp struct {
	Field TextField
	Op    query.Comparator
	Text  string
}

func (TextCmp) isExpr() {}

// TextIn matches when the field equals any of the listed values.
type TextIn struct {
	Field  TextField
	Values []string
}

func (TextIn) isExpr() {}

// TextLike is a case-insensitive pattern match. Pattern is already in
// SQL LIKE syntax: user-level `*`/`?` became `%`/`_`, and literal
// `%`/`_`/`\` in the user text were escaped with `\`.
type TextLike struct {
	Field   TextField
	Pattern string
}

func (TextLike) isExpr() {}
