package tagql

import (
	"sort"

	"github.com/tagql/tagql/tagql/catalog"
)

// Result is the assembled answer to a query.
type Result struct {
	Items []catalog.Item `json:"items"`
	Total int            `json:"total"`
}

// assemble orders items by path bytes so results are deterministic
// regardless of which source produced them. Paths are unique, so the
// order is total.
func assemble(items []catalog.Item) *Result {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Path < items[j].Path
	})
	return &Result{Items: items, Total: len(items)}
}

// Paths returns the matched paths in result order.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Items))
	for i, item := range r.Items {
		paths[i] = item.Path
	}
	return paths
}
