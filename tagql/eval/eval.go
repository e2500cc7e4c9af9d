// Package eval is the in-memory reference evaluator. It applies a
// validated expression directly to item views and is the semantic
// yardstick the SQL backend is tested against.
package eval

import (
	"github.com/tagql/tagql/tagql/catalog"
	"github.com/tagql/tagql/tagql/query"
	"github.com/tagql/tagql/tagql/validate"
)

// ItemView is an item plus its resolved tag id set, ready for matching.
type ItemView struct {
	IsDir      bool
	Size       int64
	ModifiedAt int64
	CreatedAt  int64
	Name       string
	Path       string
	TagIDs     map[int64]bool
}

// View builds an ItemView from a catalog item and its tag ids.
func View(item catalog.Item, tagIDs []int64) ItemView {
	set := make(map[int64]bool, len(tagIDs))
	for _, id := range tagIDs {
		set[id] = true
	}
	return ItemView{
		IsDir:      item.IsDir,
		Size:       item.Size,
		ModifiedAt: item.ModifiedAt,
		CreatedAt:  item.CreatedAt,
		Name:       item.Name,
		Path:       item.Path,
		TagIDs:     set,
	}
}

// Match reports whether the item satisfies the expression.
func Match(expr validate.Expr, item ItemView) bool {
	switch e := expr.(type) {
	case validate.And:
		return Match(e.Left, item) && Match(e.Right, item)
	case validate.Or:
		return Match(e.Left, item) || Match(e.Right, item)
	case validate.Not:
		return !Match(e.Inner, item)
	case validate.HasTag:
		for _, id := range e.TagIDs {
			if item.TagIDs[id] {
				return true
			}
		}
		return false
	case validate.SizeCmp:
		// Directories have no size and never match, under any
		// comparator. NOT still negates the whole node, so both
		// backends agree.
		if item.IsDir {
			return false
		}
		return cmpInt(item.Size, e.Op, e.Bytes)
	case validate.TimeCmp:
		v := item.ModifiedAt
		if e.Field == validate.TimeCreated {
			v = item.CreatedAt
		}
		return cmpInt(v, e.Op, e.UnixMS)
	case validate.TextCmp:
		v := textField(item, e.Field)
		if e.Op == query.CmpNeq {
			return v != e.Text
		}
		return v == e.Text
	case validate.TextIn:
		v := textField(item, e.Field)
		for _, want := range e.Values {
			if v == want {
				return true
			}
		}
		return false
	case validate.TextLike:
		return likeMatch(e.Pattern, textField(item, e.Field))
	default:
		return false
	}
}

func textField(item ItemView, f validate.TextField) string {
	if f == validate.TextPath {
		return item.Path
	}
	return item.Name
}

func cmpInt(a int64, op query.Comparator, b int64) bool {
	switch op {
	case query.CmpEq:
		return a == b
	case query.CmpNeq:
		return a != b
	case query.CmpGt:
		return a > b
	case query.CmpGte:
		return a >= b
	case query.CmpLt:
		return a < b
	case query.CmpLte:
		return a <= b
	default:
		return false
	}
}
