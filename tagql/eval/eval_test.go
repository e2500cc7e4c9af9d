package eval

import (
	"testing"
	"time"

	"github.com/tagql/tagql/tagql/catalog"
	"github.com/tagql/tagql/tagql/query"
	"github.com/tagql/tagql/tagql/validate"
)

func testCatalog() *catalog.Catalog {
	groups := []catalog.TagGroup{{ID: 1, Name: "tag"}}
	tags := []catalog.Tag{
		{ID: 10, GroupID: 1, Value: "vacation"},
		{ID: 11, GroupID: 1, Value: "archived"},
		{ID: 12, GroupID: 1, Value: "urgent"},
	}
	return catalog.New(groups, tags)
}

func compile(t *testing.T, input string) validate.Expr {
	t.Helper()
	expr, err := query.Parse(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	opts := validate.DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	checked, err := validate.Validate(expr, testCatalog(), opts)
	if err != nil {
		t.Fatalf("validate %q: %v", input, err)
	}
	return checked
}

func fileItem(name string, size int64, tagIDs ...int64) ItemView {
	return View(catalog.Item{
		Path:       "dir/" + name,
		Name:       name,
		Size:       size,
		ModifiedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
		CreatedAt:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
	}, tagIDs)
}

func TestMatchTag(t *testing.T) {
	expr := compile(t, "tag = vacation")
	if !Match(expr, fileItem("a.jpg", 100, 10)) {
		t.Error("expected tagged item to match")
	}
	if Match(expr, fileItem("b.jpg", 100, 11)) {
		t.Error("expected differently tagged item not to match")
	}
	if Match(expr, fileItem("c.jpg", 100)) {
		t.Error("expected untagged item not to match")
	}
}

func TestMatchUnresolvedTagMatchesNothing(t *testing.T) {
	expr := compile(t, "tag = nonexistent")
	if Match(expr, fileItem("a.jpg", 100, 10, 11, 12)) {
		t.Error("unresolved tag must match nothing")
	}
}

func TestMatchNotUnresolvedTagMatchesEverything(t *testing.T) {
	expr := compile(t, "NOT tag = nonexistent")
	if !Match(expr, fileItem("a.jpg", 100)) {
		t.Error("negated unresolved tag must match everything")
	}
}

func TestMatchBoolean(t *testing.T) {
	expr := compile(t, "tag = vacation AND size > 1KB")
	if !Match(expr, fileItem("a.jpg", 2048, 10)) {
		t.Error("expected match")
	}
	if Match(expr, fileItem("a.jpg", 512, 10)) {
		t.Error("small file must not match")
	}

	expr = compile(t, "tag = vacation OR tag = urgent")
	if !Match(expr, fileItem("a.jpg", 1, 12)) {
		t.Error("expected OR match on second branch")
	}
}

func TestMatchDirectoryNeverMatchesSize(t *testing.T) {
	dir := View(catalog.Item{Path: "d", Name: "d", IsDir: true}, nil)

	for _, q := range []string{"size > 0", "size = 0", "size < 100", "size <= 0"} {
		if Match(compile(t, q), dir) {
			t.Errorf("directory must not match %q", q)
		}
	}

	// NOT still negates the node: a directory matches the negation.
	if !Match(compile(t, "NOT size > 0"), dir) {
		t.Error("directory must match NOT size > 0")
	}
}

func TestMatchTime(t *testing.T) {
	item := fileItem("a.txt", 1)

	if !Match(compile(t, "modified >= 2024-06-01"), item) {
		t.Error("expected >= match on boundary")
	}
	if Match(compile(t, "modified > 2024-06-01"), item) {
		t.Error("expected strict > not to match on boundary")
	}
	if !Match(compile(t, "created < 2024-06-01"), item) {
		t.Error("expected created < to match")
	}
}

func TestMatchName(t *testing.T) {
	item := fileItem("Report.PDF", 1)

	// = is exact and case-sensitive
	if Match(compile(t, `name = "report.pdf"`), item) {
		t.Error("name = must be case-sensitive")
	}
	if !Match(compile(t, `name = "Report.PDF"`), item) {
		t.Error("expected exact name match")
	}

	// ~ is case-insensitive
	if !Match(compile(t, `name ~ "*.pdf"`), item) {
		t.Error("expected case-insensitive glob match")
	}
	if !Match(compile(t, `contains(name, "port")`), item) {
		t.Error("expected contains match")
	}
	if !Match(compile(t, `startsWith(name, "rep")`), item) {
		t.Error("expected case-insensitive startsWith match")
	}
	if Match(compile(t, `endsWith(name, ".txt")`), item) {
		t.Error("unexpected endsWith match")
	}
}

func TestMatchPath(t *testing.T) {
	item := fileItem("a.txt", 1)
	if !Match(compile(t, `startsWith(path, "dir/")`), item) {
		t.Error("expected path prefix match")
	}
}

func TestLikeMatch(t *testing.T) {
	tests := []struct {
		pattern, text string
		want          bool
	}{
		{"%", "", true},
		{"%", "abc", true},
		{"a%", "abc", true},
		{"%c", "abc", true},
		{"a%c", "ac", true},
		{"a_c", "abc", true},
		{"a_c", "ac", false},
		{"ABC", "abc", true},
		{`100\%`, "100%", true},
		{`100\%`, "1000", false},
		{`a\_b`, "a_b", true},
		{`a\_b`, "axb", false},
		{"%b%b%", "abab", true},
		{"%b%b%", "aa", false},
	}
	for _, tt := range tests {
		if got := likeMatch(tt.pattern, tt.text); got != tt.want {
			t.Errorf("likeMatch(%q, %q) = %v, want %v", tt.pattern, tt.text, got, tt.want)
		}
	}
}

func TestLikeMatchFoldsASCIIOnly(t *testing.T) {
	// sqlite LIKE folds ASCII letters only; non-ASCII runes compare
	// exactly. The evaluator must agree.
	if likeMatch("été%", "ÉTÉ.txt") {
		t.Error("non-ASCII case folding must not apply")
	}
	if !likeMatch("ÉTÉ%", "ÉTÉ.txt") {
		t.Error("exact non-ASCII runes must match")
	}
	if !likeMatch("stra%", "Strasse") {
		t.Error("ASCII folding must still apply")
	}
}

func sampleItems() []ItemView {
	return []ItemView{
		fileItem("a", 100, 10),
		fileItem("b", 5000, 10),
		fileItem("c", 100),
		fileItem("d", 5000),
		fileItem("e", 5000, 11),
		View(catalog.Item{Path: "f", Name: "f", IsDir: true}, []int64{10}),
	}
}

func TestMatchDeMorgan(t *testing.T) {
	// NOT (a OR b) == NOT a AND NOT b over a sample of items
	left := compile(t, "NOT (tag = vacation OR size > 1KB)")
	right := compile(t, "NOT tag = vacation AND NOT size > 1KB")

	for i, item := range sampleItems() {
		if Match(left, item) != Match(right, item) {
			t.Errorf("item %d: De Morgan equivalence violated", i)
		}
	}
}

func TestMatchDistributiveLaw(t *testing.T) {
	// a AND (b OR c) == (a AND b) OR (a AND c) over a sample of items
	left := compile(t, "size > 1KB AND (tag = vacation OR tag = archived)")
	right := compile(t, "(size > 1KB AND tag = vacation) OR (size > 1KB AND tag = archived)")

	for i, item := range sampleItems() {
		if Match(left, item) != Match(right, item) {
			t.Errorf("item %d: distributivity violated", i)
		}
	}
}
