package query

// Expr is a parsed query expression. The set of implementations is
// closed; every consumer switches exhaustively over it.
type Expr interface {
	isExpr()
}

// And represents a boolean AND of two expressions
type And struct {
	Left  Expr
	Right Expr
}

func (And) isExpr() {}

// Or represents a boolean OR of two expressions
type Or struct {
	Left  Expr
	Right Expr
}

func (Or) isExpr() {}

// Not represents a boolean NOT of an expression
type Not struct {
	Inner Expr
}

func (Not) isExpr() {}

// Comparison relates a field to a value. Field is the lowercased raw
// field name; resolving it against the known field set is the
// validator's job.
type Comparison struct {
	Field  string
	Op     Comparator
	Value  Value
	Offset int
}

func (Comparison) isExpr() {}

// FuncCall is one of the fixed text helpers: contains, startsWith,
// endsWith. The validator expands it into an equivalent Like comparison
// before compilation.
type FuncCall struct {
	Name   string
	Field  string
	Value  Value
	Offset int
}

func (FuncCall) isExpr() {}

// Comparator is an operator relating a field to a value
type Comparator int

const (
	CmpEq Comparator = iota
	CmpNeq
	CmpLike
	CmpGt
	CmpLt
	CmpGte
	CmpLte
	CmpIn
)

func (op Comparator) String() string {
	switch op {
	case CmpEq:
		return "="
	case CmpNeq:
		return "!="
	case CmpLike:
		return "~"
	case CmpGt:
		return ">"
	case CmpLt:
		return "<"
	case CmpGte:
		return ">="
	case CmpLte:
		return "<="
	case CmpIn:
		return "IN"
	default:
		return "?"
	}
}

// Value is a literal operand. No implicit coercion happens between
// variants; mismatches are validation errors.
type Value interface {
	isValue()
}

// Str is a string literal or bare word (unquoted tag/date text).
type Str struct {
	Text string
}

func (Str) isValue() {}

// Num is a numeric literal; unit suffixes were already normalized to
// bytes by the lexer.
type Num struct {
	Val float64
}

func (Num) isValue() {}

// List is the parenthesized value list of an IN comparison.
type List struct {
	Values []Value
}

func (List) isValue() {}
