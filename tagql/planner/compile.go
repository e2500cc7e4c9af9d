// Package planner compiles validated expressions into SQL WHERE
// clauses over the items/tags schema. The same compiler serves both
// database backends; placeholder style and LIKE spelling come from the
// adapter.
package planner

import (
	"fmt"
	"strings"

	"github.com/tagql/tagql/tagql/query"
	"github.com/tagql/tagql/tagql/storage"
	"github.com/tagql/tagql/tagql/validate"
)

// Filter is a compiled WHERE clause plus its positional arguments.
// Steps is a human-readable trace of how each predicate was lowered,
// for explain output.
type Filter struct {
	Where string
	Args  []any
	Steps []string
}

// itemColumns is the projection every item query selects, in the scan
// order store.scanItems expects.
const itemColumns = "i.id, i.path, i.name, i.is_dir, i.size, i.modified_at, i.created_at"

// Compile lowers a validated expression to a WHERE clause. Arguments
// are bound through b in left-to-right order so the clause slots
// directly into a prepared statement.
func Compile(expr validate.Expr, b storage.Builder, d storage.Dialect) (Filter, error) {
	c := &compiler{b: b, d: d}
	where, err := c.compile(expr)
	if err != nil {
		return Filter{}, err
	}
	return Filter{Where: where, Args: b.Args(), Steps: c.steps}, nil
}

// BuildSelect wraps a compiled filter in the full item query. Results
// come back ordered by path bytes so both backends agree on order.
// DISTINCT is required: the database may rewrite the EXISTS tag
// predicate into a join that emits one row per matching tag.
func BuildSelect(f Filter) string {
	return "SELECT DISTINCT " + itemColumns + " FROM items i WHERE " + f.Where + " ORDER BY i.path"
}

type compiler struct {
	b     storage.Builder
	d     storage.Dialect
	steps []string
}

func (c *compiler) step(format string, args ...any) {
	c.steps = append(c.steps, fmt.Sprintf(format, args...))
}

func (c *compiler) compile(expr validate.Expr) (string, error) {
	switch e := expr.(type) {
	case validate.And:
		left, err := c.compile(e.Left)
		if err != nil {
			return "", err
		}
		right, err := c.compile(e.Right)
		if err != nil {
			return "", err
		}
		return "(" + left + " AND " + right + ")", nil

	case validate.Or:
		left, err := c.compile(e.Left)
		if err != nil {
			return "", err
		}
		right, err := c.compile(e.Right)
		if err != nil {
			return "", err
		}
		return "(" + left + " OR " + right + ")", nil

	case validate.Not:
		inner, err := c.compile(e.Inner)
		if err != nil {
			return "", err
		}
		return "NOT " + inner, nil

	case validate.HasTag:
		return c.compileHasTag(e), nil

	case validate.SizeCmp:
		// size is NULL for directories; the explicit NULL guard keeps
		// NOT over size comparisons two-valued, matching the in-memory
		// evaluator.
		ph := c.b.Arg(e.Bytes)
		c.step("size %s %d bytes, NULL-guarded", cmpSQL(e.Op), e.Bytes)
		return fmt.Sprintf("(i.size IS NOT NULL AND i.size %s %s)", cmpSQL(e.Op), ph), nil

	case validate.TimeCmp:
		ph := c.b.Arg(e.UnixMS)
		col := timeColumn(e.Field)
		c.step("%s %s %d (epoch ms)", col, cmpSQL(e.Op), e.UnixMS)
		return fmt.Sprintf("i.%s %s %s", col, cmpSQL(e.Op), ph), nil

	case validate.TextCmp:
		ph := c.b.Arg(e.Text)
		col := textColumn(e.Field)
		c.step("%s %s %q (exact)", col, cmpSQL(e.Op), e.Text)
		return fmt.Sprintf("i.%s %s %s", col, cmpSQL(e.Op), ph), nil

	case validate.TextIn:
		return c.compileTextIn(e), nil

	case validate.TextLike:
		ph := c.b.Arg(e.Pattern)
		col := textColumn(e.Field)
		c.step("%s LIKE %q (case-insensitive)", col, e.Pattern)
		return "(" + c.d.LikePredicate("i."+col, ph) + ")", nil

	default:
		return "", fmt.Errorf("cannot compile expression node %T", expr)
	}
}

// compileHasTag emits an EXISTS subquery over the join table. EXISTS
// composes under arbitrary AND/OR/NOT nesting, which a GROUP BY/HAVING
// formulation would not.
func (c *compiler) compileHasTag(e validate.HasTag) string {
	if len(e.TagIDs) == 0 {
		// Unresolved tag text: matches nothing.
		c.step("unresolved tag: constant false")
		return "1=0"
	}

	phs := make([]string, len(e.TagIDs))
	for i, id := range e.TagIDs {
		phs[i] = c.b.Arg(id)
	}
	c.step("tag membership via EXISTS over %d tag id(s)", len(e.TagIDs))
	return "EXISTS (SELECT 1 FROM item_tags t WHERE t.item_id = i.id AND t.tag_id IN (" +
		strings.Join(phs, ", ") + "))"
}

func (c *compiler) compileTextIn(e validate.TextIn) string {
	col := textColumn(e.Field)
	if len(e.Values) == 0 {
		c.step("%s IN (): constant false", col)
		return "1=0"
	}

	phs := make([]string, len(e.Values))
	for i, v := range e.Values {
		phs[i] = c.b.Arg(v)
	}
	c.step("%s IN over %d value(s)", col, len(e.Values))
	return fmt.Sprintf("i.%s IN (%s)", col, strings.Join(phs, ", "))
}

func cmpSQL(op query.Comparator) string {
	switch op {
	case query.CmpEq:
		return "="
	case query.CmpNeq:
		return "<>"
	case query.CmpGt:
		return ">"
	case query.CmpGte:
		return ">="
	case query.CmpLt:
		return "<"
	case query.CmpLte:
		return "<="
	default:
		return "="
	}
}

func timeColumn(f validate.TimeField) string {
	if f == validate.TimeCreated {
		return "created_at"
	}
	return "modified_at"
}

func textColumn(f validate.TextField) string {
	if f == validate.TextPath {
		return "path"
	}
	return "name"
}
