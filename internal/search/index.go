// Package search maintains a flattened in-memory list of every
// identity-bearing section across the locally cached documents, for
// interactive incremental lookup.
package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sahilm/fuzzy"

	"github.com/pmattila/loom/internal/logging"
	"github.com/pmattila/loom/internal/org"
)

// Entry is one searchable tuple of the index.
type Entry struct {
	// Identity is the section's identity key.
	Identity string

	// Summary is the section's headline text.
	Summary string

	// File is the document path the section lives in.
	File string

	// Properties is a copy of the section's property bag.
	Properties map[string]string
}

// entries adapts a slice of Entry to the fuzzy matcher.
type entries []Entry

func (e entries) Len() int { return len(e) }

func (e entries) String(i int) string {
	return e[i].Identity + " " + e[i].Summary
}

// Index is the rebuildable entity index. Safe for concurrent use:
// rebuilds happen on the watcher goroutine while pickers read
// snapshots.
type Index struct {
	workdir string

	mu   sync.RWMutex
	list entries
}

// New creates an index over the document files in workdir. The index
// is empty until the first Rebuild.
func New(workdir string) *Index {
	return &Index{workdir: workdir}
}

// Rebuild rescans every document file and replaces the entry list.
func (ix *Index) Rebuild() error {
	paths, err := filepath.Glob(filepath.Join(ix.workdir, "*.org"))
	if err != nil {
		return fmt.Errorf("failed to scan workdir: %w", err)
	}

	var list entries
	for _, path := range paths {
		doc, err := org.Load(path)
		if err != nil {
			logging.Warn("skipping unreadable document", "path", path, "error", err)
			continue
		}
		for _, sec := range doc.Sections {
			sec.Walk(func(s *org.Section) bool {
				if id := s.Identity(); id != "" {
					props := make(map[string]string, len(s.Properties))
					for _, p := range s.Properties {
						props[p.Name] = p.Value
					}
					list = append(list, Entry{
						Identity:   id,
						Summary:    s.Title,
						File:       path,
						Properties: props,
					})
				}
				return true
			})
		}
	}

	ix.mu.Lock()
	ix.list = list
	ix.mu.Unlock()

	logging.Debug("search index rebuilt", "entries", len(list))
	return nil
}

// Snapshot returns a copy of the current entry list.
func (ix *Index) Snapshot() []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]Entry(nil), ix.list...)
}

// Match narrows the index by fuzzy-matching pattern against identity
// and summary, best matches first. An empty pattern returns the whole
// index.
func (ix *Index) Match(pattern string) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if strings.TrimSpace(pattern) == "" {
		return append([]Entry(nil), ix.list...)
	}
	matches := fuzzy.FindFrom(pattern, ix.list)
	out := make([]Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, ix.list[m.Index])
	}
	return out
}

// Resolve maps an identity back to its entry, for jump/open actions
// after a picker selection.
func (ix *Index) Resolve(identity string) (Entry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, e := range ix.list {
		if e.Identity == identity {
			return e, true
		}
	}
	return Entry{}, false
}

// Watch keeps the index fresh until ctx is cancelled: it rebuilds on a
// periodic tick and on document file writes. Cancellation stops both
// the ticker and the watcher.
func (ix *Index) Watch(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if _, err := os.Stat(ix.workdir); err == nil {
		if err := watcher.Add(ix.workdir); err != nil {
			logging.Warn("failed to watch workdir", "path", ix.workdir, "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := ix.Rebuild(); err != nil {
				logging.Warn("periodic index rebuild failed", "error", err)
			}
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".org" {
				continue
			}
			if err := ix.Rebuild(); err != nil {
				logging.Warn("index rebuild after file change failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("watcher error", "error", err)
		}
	}
}
