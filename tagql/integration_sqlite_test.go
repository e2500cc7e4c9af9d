package tagql_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/tagql/tagql/tagql"
	"github.com/tagql/tagql/tagql/catalog"
	"github.com/tagql/tagql/tagql/storage/sqlite"
	"github.com/tagql/tagql/tagql/store"
)

type fixtureItem struct {
	path  string
	isDir bool
	size  int64
	mod   time.Time
	tags  []string
}

var fixtureItems = []fixtureItem{
	{path: "docs", isDir: true, mod: date(2024, 1, 10), tags: []string{"work"}},
	{path: "docs/notes.txt", size: 2048, mod: date(2024, 2, 1), tags: []string{"project"}},
	{path: "docs/plan.txt", size: 1024, mod: date(2024, 2, 15), tags: []string{"work", "project"}},
	{path: "photos/beach.jpg", size: 5_000_000, mod: date(2024, 3, 1), tags: []string{"vacation", "2024"}},
	{path: "photos/city.jpg", size: 20_000_000, mod: date(2024, 3, 20), tags: []string{"vacation"}},
	{path: "photos/old.jpeg", size: 1_000_000, mod: date(2023, 6, 1), tags: []string{"work", "archived"}},
	{path: "Straßenkarte.pdf", size: 300_000, mod: date(2024, 4, 1), tags: []string{"MAPS"}},
	{path: "ÉTÉ.txt", size: 700, mod: date(2024, 4, 2), tags: []string{"summer"}},
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// newStores builds the same dataset twice: once in sqlite through the
// store, once in the in-memory source. The two must answer every query
// identically.
func newStores(t *testing.T) (*store.Store, *tagql.MemorySource) {
	t.Helper()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(ctx, sqlite.New(dbPath))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	mem := tagql.NewMemorySource()

	groupID, err := st.EnsureGroup(ctx, "tag")
	require.NoError(t, err)
	mem.AddGroup(catalog.TagGroup{ID: groupID, Name: "tag"})

	tagIDs := make(map[string]int64)
	created := date(2024, 1, 1).UnixMilli()

	for _, fi := range fixtureItems {
		item := catalog.Item{
			Path:       fi.path,
			Name:       filepath.Base(fi.path),
			IsDir:      fi.isDir,
			Size:       fi.size,
			ModifiedAt: fi.mod.UnixMilli(),
			CreatedAt:  created,
		}
		itemID, err := st.UpsertItem(ctx, item)
		require.NoError(t, err)
		item.ID = itemID

		ids := make([]int64, 0, len(fi.tags))
		for _, tg := range fi.tags {
			tagID, ok := tagIDs[tg]
			if !ok {
				tagID, err = st.EnsureTag(ctx, groupID, tg)
				require.NoError(t, err)
				tagIDs[tg] = tagID
				mem.AddTag(catalog.Tag{ID: tagID, GroupID: groupID, Value: tg})
			}
			require.NoError(t, st.TagItem(ctx, itemID, tagID))
			ids = append(ids, tagID)
		}
		mem.AddItem(item, ids...)
	}

	return st, mem
}

func engineOptions() tagql.Options {
	return tagql.Options{
		Now: func() time.Time { return date(2024, 6, 15) },
	}
}

// TestBackendsAgree runs the same queries through the SQL backend and
// the in-memory evaluator and requires identical match sets.
func TestBackendsAgree(t *testing.T) {
	st, mem := newStores(t)
	ctx := context.Background()

	sqlEngine := tagql.NewEngine(st, engineOptions())
	memEngine := tagql.NewEngine(mem, engineOptions())

	queries := []string{
		`tag = "vacation" AND tag = "2024"`,
		"size > 10MB",
		`tag IN ("work", "project") AND NOT tag = "archived"`,
		`name ~ "*.jpg"`,
		`tag = "nonexistent"`,
		`NOT tag = "nonexistent"`,
		"NOT NOT tag = vacation",
		"NOT (tag = vacation OR size > 10MB)",
		"NOT tag = vacation AND NOT size > 10MB",
		"size > 0",
		"NOT size > 0",
		"size <= 5MB OR tag = archived",
		"modified >= 2024-02-01 AND modified < 2024-03-15",
		"modified >= -7d",
		"created >= 2024-01-01",
		`tag = maps`,
		`tag = strassenkarte OR tag = MAPS`,
		`name = "plan.txt"`,
		`name != "plan.txt"`,
		`name IN ("plan.txt", "notes.txt")`,
		`contains(name, "o")`,
		`startsWith(path, "photos/")`,
		`endsWith(name, ".txt") OR endsWith(name, ".pdf")`,
		`contains(name, "ß") OR name ~ "stra*"`,
		`name ~ "été*"`,
		`name ~ "ÉTÉ*"`,
		`contains(name, "É")`,
		"(tag = work OR tag = project) AND size < 10KB",
		"tag != work",
	}

	for _, q := range queries {
		fromSQL, err := sqlEngine.Evaluate(ctx, q)
		require.NoError(t, err, "sql: %q", q)
		fromMem, err := memEngine.Evaluate(ctx, q)
		require.NoError(t, err, "mem: %q", q)

		require.Equal(t, fromMem.Paths(), fromSQL.Paths(), "backends disagree on %q", q)
		require.Equal(t, fromMem.Total, fromSQL.Total, "totals disagree on %q", q)
	}
}

func TestSQLiteScenarios(t *testing.T) {
	st, _ := newStores(t)
	engine := tagql.NewEngine(st, engineOptions())
	ctx := context.Background()

	run := func(q string) []string {
		t.Helper()
		result, err := engine.Evaluate(ctx, q)
		require.NoError(t, err, "query %q", q)
		return result.Paths()
	}

	require.Equal(t, []string{"photos/beach.jpg"}, run(`tag = "vacation" AND tag = "2024"`))
	require.Equal(t, []string{"photos/city.jpg"}, run("size > 10MB"))
	require.Equal(t, []string{"docs", "docs/notes.txt", "docs/plan.txt"},
		run(`tag IN ("work", "project") AND NOT tag = "archived"`))
	require.Equal(t, []string{"photos/beach.jpg", "photos/city.jpg"}, run(`name ~ "*.jpg"`))
	require.Empty(t, run(`tag = "nonexistent"`))
}

// TestSQLiteNoDuplicateRows pins distinct-result semantics: an item
// carrying several tags from the same IN list must come back once even
// when the database rewrites the EXISTS predicate into a join.
func TestSQLiteNoDuplicateRows(t *testing.T) {
	st, _ := newStores(t)
	engine := tagql.NewEngine(st, engineOptions())

	result, err := engine.Evaluate(context.Background(), `tag IN ("work", "project", "vacation")`)
	require.NoError(t, err)
	require.Equal(t, []string{
		"docs", "docs/notes.txt", "docs/plan.txt",
		"photos/beach.jpg", "photos/city.jpg", "photos/old.jpeg",
	}, result.Paths())
	require.Equal(t, 6, result.Total)
}

func TestSQLiteTagLifecycle(t *testing.T) {
	st, _ := newStores(t)
	engine := tagql.NewEngine(st, engineOptions())
	ctx := context.Background()

	item, err := st.GetItemByPath(ctx, "docs/notes.txt")
	require.NoError(t, err)

	groupID, err := st.EnsureGroup(ctx, "tag")
	require.NoError(t, err)
	tagID, err := st.EnsureTag(ctx, groupID, "urgent")
	require.NoError(t, err)

	require.NoError(t, st.TagItem(ctx, item.ID, tagID))
	result, err := engine.Evaluate(ctx, "tag = urgent")
	require.NoError(t, err)
	require.Equal(t, []string{"docs/notes.txt"}, result.Paths())

	// Tagging twice is a no-op.
	require.NoError(t, st.TagItem(ctx, item.ID, tagID))
	ids, err := st.ItemTagIDs(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, ids, 2) // project + urgent

	require.NoError(t, st.UntagItem(ctx, item.ID, tagID))
	result, err = engine.Evaluate(ctx, "tag = urgent")
	require.NoError(t, err)
	require.Empty(t, result.Items)
}

func TestSQLiteUpsertKeepsCreatedAt(t *testing.T) {
	st, _ := newStores(t)
	ctx := context.Background()

	before, err := st.GetItemByPath(ctx, "docs/plan.txt")
	require.NoError(t, err)

	updated := before
	updated.Size = 4096
	updated.ModifiedAt = date(2024, 5, 1).UnixMilli()
	updated.CreatedAt = date(2024, 5, 1).UnixMilli() // must be ignored on conflict

	id, err := st.UpsertItem(ctx, updated)
	require.NoError(t, err)
	require.Equal(t, before.ID, id)

	after, err := st.GetItemByPath(ctx, "docs/plan.txt")
	require.NoError(t, err)
	require.Equal(t, int64(4096), after.Size)
	require.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestSQLiteDeleteCascades(t *testing.T) {
	st, _ := newStores(t)
	ctx := context.Background()

	item, err := st.GetItemByPath(ctx, "photos/old.jpeg")
	require.NoError(t, err)
	require.NoError(t, st.DeleteItem(ctx, "photos/old.jpeg"))

	ids, err := st.ItemTagIDs(ctx, item.ID)
	require.NoError(t, err)
	require.Empty(t, ids)

	engine := tagql.NewEngine(st, engineOptions())
	result, err := engine.Evaluate(ctx, "tag = archived")
	require.NoError(t, err)
	require.Empty(t, result.Items)
}

func TestSQLiteTagCounts(t *testing.T) {
	st, _ := newStores(t)
	ctx := context.Background()

	counts, err := st.TagCounts(ctx)
	require.NoError(t, err)

	byValue := make(map[string]int64)
	for _, c := range counts {
		byValue[c.Value] = c.Count
	}
	require.Equal(t, int64(2), byValue["vacation"])
	require.Equal(t, int64(3), byValue["work"])
	require.Equal(t, int64(1), byValue["archived"])
}
