// Package filesystem discovers documents on local disk and tracks their
// content fingerprints between scans.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driven"
	"github.com/custodia-labs/synindex/internal/logger"
)

// Verify interface compliance.
var _ driven.FingerprintTracker = (*Tracker)(nil)

// Tracker reports new, changed and removed documents by comparing
// SHA-256 fingerprints against the previous scan.
type Tracker struct {
	mu            sync.Mutex
	extensions    map[string]bool
	includeHidden bool
	known         map[string]string
}

// Option configures the tracker.
type Option func(*Tracker)

// WithExtensions restricts discovery to files with these extensions.
// Matching is case-insensitive. No extensions accepts every file.
func WithExtensions(exts ...string) Option {
	return func(t *Tracker) {
		t.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			t.extensions[ext] = true
		}
	}
}

// WithHidden includes dot-files and dot-directories.
func WithHidden(include bool) Option {
	return func(t *Tracker) {
		t.includeHidden = include
	}
}

// New creates a tracker with an empty known set.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		known: make(map[string]string),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Scan walks roots and diffs the result against the previous scan.
// A root that cannot be walked fails the whole scan and leaves the known
// set untouched, so a missing mount never reads as mass deletion. A file
// that cannot be read keeps its previous fingerprint.
func (t *Tracker) Scan(ctx context.Context, roots []string) (domain.ScanResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := make(map[string]string, len(t.known))
	var changed []domain.Document

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return domain.ScanResult{}, fmt.Errorf("resolve root %s: %w", root, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return domain.ScanResult{}, fmt.Errorf("stat root %s: %w", abs, err)
		}
		if !info.IsDir() {
			return domain.ScanResult{}, fmt.Errorf("root %s: %w: not a directory", abs, domain.ErrInvalidInput)
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				if path == abs {
					return walkErr
				}
				logger.Warn("skipping %s: %v", path, walkErr)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if path != abs && !t.includeHidden && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() || !t.accepts(path) {
				return nil
			}
			if _, seen := next[path]; seen {
				// overlapping roots
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				if prev, ok := t.known[path]; ok {
					next[path] = prev
				}
				logger.Warn("cannot read %s: %v", path, err)
				return nil
			}

			doc := domain.NewDocument(path, content)
			next[path] = doc.Fingerprint
			if t.known[path] != doc.Fingerprint {
				logger.Debug("changed: %s", path)
				changed = append(changed, doc)
			}
			return nil
		})
		if err != nil {
			return domain.ScanResult{}, fmt.Errorf("walk %s: %w", abs, err)
		}
	}

	var removed []string
	for path := range t.known {
		if _, ok := next[path]; !ok {
			removed = append(removed, path)
		}
	}
	sort.Strings(removed)
	sort.Slice(changed, func(i, j int) bool { return changed[i].Path < changed[j].Path })

	t.known = next
	return domain.ScanResult{Changed: changed, Removed: removed}, nil
}

// Forget drops path so the next Scan reports it as changed.
func (t *Tracker) Forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.known, path)
}

// Known returns a copy of the tracked fingerprints.
func (t *Tracker) Known() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]string, len(t.known))
	for k, v := range t.known {
		out[k] = v
	}
	return out
}

func (t *Tracker) accepts(path string) bool {
	if len(t.extensions) == 0 {
		return true
	}
	return t.extensions[strings.ToLower(filepath.Ext(path))]
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
