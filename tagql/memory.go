package tagql

import (
	"context"

	"github.com/tagql/tagql/tagql/catalog"
	"github.com/tagql/tagql/tagql/eval"
	"github.com/tagql/tagql/tagql/validate"
)

// MemorySource holds the whole catalog in memory and answers queries
// with the reference evaluator. It doubles as the oracle the SQL
// backend is checked against in tests.
type MemorySource struct {
	groups []catalog.TagGroup
	tags   []catalog.Tag
	items  []catalog.Item
	refs   map[int64][]int64 // item id -> tag ids
}

func NewMemorySource() *MemorySource {
	return &MemorySource{refs: make(map[int64][]int64)}
}

func (m *MemorySource) AddGroup(g catalog.TagGroup) {
	m.groups = append(m.groups, g)
}

func (m *MemorySource) AddTag(t catalog.Tag) {
	m.tags = append(m.tags, t)
}

func (m *MemorySource) AddItem(item catalog.Item, tagIDs ...int64) {
	m.items = append(m.items, item)
	m.refs[item.ID] = append(m.refs[item.ID], tagIDs...)
}

func (m *MemorySource) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	return catalog.New(m.groups, m.tags), nil
}

func (m *MemorySource) ListItemsMatching(ctx context.Context, expr validate.Expr) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, item := range m.items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if eval.Match(expr, eval.View(item, m.refs[item.ID])) {
			out = append(out, item)
		}
	}
	return out, nil
}
