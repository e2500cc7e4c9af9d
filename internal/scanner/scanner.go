// Package scanner walks a directory tree and indexes what it finds
// into the store, batching writes to keep transactions small.
package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/tagql/tagql/internal/logging"
	"github.com/tagql/tagql/tagql/catalog"
	"github.com/tagql/tagql/tagql/store"
)

// batchSize is the number of items written per transaction.
const batchSize = 500

// Options controls a scan.
type Options struct {
	// SkipHidden skips dot-prefixed files and directories.
	SkipHidden bool
	// Prune removes previously indexed items that the walk no longer
	// sees.
	Prune bool
}

// Stats summarizes one scan.
type Stats struct {
	Files   int
	Dirs    int
	Pruned  int
	Batches int
	Elapsed time.Duration
}

// Scan walks root and upserts every entry as an item keyed by its
// path relative to root (the root itself is not indexed). Re-scanning
// refreshes size and modified time but keeps first-seen created time
// for existing rows.
func Scan(ctx context.Context, st *store.Store, root string, opts Options) (Stats, error) {
	start := time.Now()
	now := start.UnixMilli()

	var stats Stats
	batch := make([]catalog.Item, 0, batchSize)
	seen := make(map[string]bool)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := st.UpsertItems(ctx, batch); err != nil {
			return err
		}
		stats.Batches++
		batch = batch[:0]
		return nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("scan: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		item := catalog.Item{
			Path:      filepath.ToSlash(rel),
			Name:      d.Name(),
			IsDir:     d.IsDir(),
			CreatedAt: now,
		}
		if info, err := d.Info(); err == nil {
			item.ModifiedAt = info.ModTime().UnixMilli()
			if !d.IsDir() {
				item.Size = info.Size()
			}
		} else {
			item.ModifiedAt = now
		}

		if d.IsDir() {
			stats.Dirs++
		} else {
			stats.Files++
		}
		seen[item.Path] = true

		batch = append(batch, item)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	if err := flush(); err != nil {
		return stats, err
	}

	if opts.Prune {
		pruned, err := pruneStale(ctx, st, seen)
		if err != nil {
			return stats, err
		}
		stats.Pruned = pruned
	}

	stats.Elapsed = time.Since(start)
	logging.Info("scan: %d files, %d dirs, %d pruned in %s", stats.Files, stats.Dirs, stats.Pruned, stats.Elapsed)
	return stats, nil
}

// pruneStale deletes indexed items the walk did not visit.
func pruneStale(ctx context.Context, st *store.Store, seen map[string]bool) (int, error) {
	paths, err := st.ListPaths(ctx)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, p := range paths {
		if seen[p] {
			continue
		}
		if err := st.DeleteItem(ctx, p); err != nil {
			return pruned, err
		}
		logging.Debug("scan: pruned %s", p)
		pruned++
	}
	return pruned, nil
}
