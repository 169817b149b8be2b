package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

// maxWalkers bounds concurrent directory walks.
const maxWalkers = 4

// Entry is one cache key on disk.
type Entry struct {
	Name  string // key name, e.g. "17-3.5-alpine"
	Path  string
	Bytes int64
	Files int
}

// Usage walks every key under the namespace and returns its size.
// A missing namespace directory yields no entries.
func Usage(ctx context.Context, ns Namespace) ([]Entry, error) {
	dirs, err := os.ReadDir(ns.Dir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache dir: %w", err)
	}

	var keys []os.DirEntry
	for _, d := range dirs {
		if d.IsDir() {
			keys = append(keys, d)
		}
	}

	entries := make([]Entry, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWalkers)

	for i, d := range keys {
		g.Go(func() error {
			e := Entry{Name: d.Name(), Path: filepath.Join(ns.Dir(), d.Name())}
			walkErr := filepath.WalkDir(e.Path, func(_ string, de fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if de.IsDir() {
					return nil
				}
				info, err := de.Info()
				if err != nil {
					return err
				}
				e.Bytes += info.Size()
				e.Files++
				return nil
			})
			if walkErr != nil {
				return fmt.Errorf("walking %s: %w", e.Path, walkErr)
			}
			entries[i] = e
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Total sums entry sizes.
func Total(entries []Entry) int64 {
	var n int64
	for _, e := range entries {
		n += e.Bytes
	}
	return n
}

// Prune removes every key in the namespace whose name is not in keep.
// Returns the removed key names.
func Prune(ns Namespace, keep map[string]bool) ([]string, error) {
	dirs, err := os.ReadDir(ns.Dir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache dir: %w", err)
	}

	var removed []string
	for _, d := range dirs {
		if !d.IsDir() || keep[d.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(ns.Dir(), d.Name())); err != nil {
			return removed, fmt.Errorf("removing cache key %s: %w", d.Name(), err)
		}
		removed = append(removed, d.Name())
	}
	return removed, nil
}

// HumanBytes formats a size like du -h.
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}
