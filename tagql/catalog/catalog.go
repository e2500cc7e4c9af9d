package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Catalog is an immutable snapshot of the tag/tag-group dataset, built
// once per query evaluation. Lookups are case-insensitive using Unicode
// case folding.
type Catalog struct {
	groups    []TagGroup
	tags      []Tag
	byValue   map[string][]Tag // folded tag value -> tags
	groupByID map[int64]string // group id -> folded group name
}

// New builds a snapshot from the given groups and tags.
func New(groups []TagGroup, tags []Tag) *Catalog {
	folder := cases.Fold()
	c := &Catalog{
		groups:    groups,
		tags:      tags,
		byValue:   make(map[string][]Tag, len(tags)),
		groupByID: make(map[int64]string, len(groups)),
	}
	for _, g := range groups {
		c.groupByID[g.ID] = folder.String(g.Name)
	}
	for _, t := range tags {
		key := folder.String(t.Value)
		c.byValue[key] = append(c.byValue[key], t)
	}
	return c
}

// Groups returns the snapshot's tag groups.
func (c *Catalog) Groups() []TagGroup { return c.groups }

// Tags returns the snapshot's tags.
func (c *Catalog) Tags() []Tag { return c.tags }

// Resolve returns every tag whose value matches text case-insensitively
// (exact match, not substring). A non-empty group name restricts the
// lookup to that group. Duplicate tag text across groups yields multiple
// refs; an unknown value yields none.
func (c *Catalog) Resolve(text, group string) []TagRef {
	folder := cases.Fold()
	matched := c.byValue[folder.String(text)]
	return c.filterByGroup(matched, group)
}

// ResolveGlob returns every tag whose value matches the glob pattern
// (`*` and `?` wildcards), case-insensitively, optionally restricted to
// one group.
func (c *Catalog) ResolveGlob(pattern, group string) []TagRef {
	folder := cases.Fold()
	p := folder.String(pattern)
	var matched []Tag
	for _, t := range c.tags {
		if globMatch(p, folder.String(t.Value)) {
			matched = append(matched, t)
		}
	}
	return c.filterByGroup(matched, group)
}

func (c *Catalog) filterByGroup(tags []Tag, group string) []TagRef {
	var groupKey string
	if group != "" {
		groupKey = cases.Fold().String(group)
	}
	var refs []TagRef
	for _, t := range tags {
		if groupKey != "" && c.groupByID[t.GroupID] != groupKey {
			continue
		}
		refs = append(refs, TagRef{TagID: t.ID, GroupID: t.GroupID})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].TagID < refs[j].TagID })
	return refs
}

// HasGroup reports whether a group with the given name exists,
// case-insensitively.
func (c *Catalog) HasGroup(name string) bool {
	key := cases.Fold().String(name)
	for _, folded := range c.groupByID {
		if folded == key {
			return true
		}
	}
	return false
}

// TagName returns the display form "group:value" for a tag id.
func (c *Catalog) TagName(id int64) (string, bool) {
	for _, t := range c.tags {
		if t.ID != id {
			continue
		}
		for _, g := range c.groups {
			if g.ID == t.GroupID {
				return g.Name + ":" + t.Value, true
			}
		}
		return t.Value, true
	}
	return "", false
}

// globMatch matches s against a glob pattern with `*` (any run) and `?`
// (any single rune). Both inputs are already case-folded.
func globMatch(pattern, s string) bool {
	return globMatchRunes([]rune(pattern), []rune(s))
}

func globMatchRunes(p, s []rune) bool {
	for len(p) > 0 {
		switch p[0] {
		case '*':
			// Collapse consecutive stars, then try every split.
			for len(p) > 0 && p[0] == '*' {
				p = p[1:]
			}
			if len(p) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if globMatchRunes(p, s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			p, s = p[1:], s[1:]
		default:
			if len(s) == 0 || s[0] != p[0] {
				return false
			}
			p, s = p[1:], s[1:]
		}
	}
	return len(s) == 0
}

// SplitGroupValue splits "group:value" tag text into its group and value
// parts. Text without a colon is a bare value searched across all groups.
func SplitGroupValue(text string) (group, value string) {
	if i := strings.IndexByte(text, ':'); i >= 0 {
		return text[:i], text[i+1:]
	}
	return "", text
}
