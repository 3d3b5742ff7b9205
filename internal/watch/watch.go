// Package watch reruns a check whenever sources or the rule file change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/codewithboateng/archcheck/internal/classifier"
	"github.com/codewithboateng/archcheck/internal/source"
)

const DefaultDebounce = 300 * time.Millisecond

type Options struct {
	// Roots are watched recursively.
	Roots []string
	// Files are watched individually (e.g. the rule file).
	Files []string
	// Base anchors Exclude globs; empty means each root.
	Base     string
	Exclude  []string
	Debounce time.Duration
}

// Run blocks until ctx is done, calling fn once per burst of changes.
// Calls to fn never overlap.
func Run(ctx context.Context, opts Options, fn func(context.Context)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init: %w", err)
	}
	defer w.Close()

	excl, err := classifier.NewMatcher(append(append([]string{}, source.DefaultExclude...), opts.Exclude...))
	if err != nil {
		return fmt.Errorf("watch exclude: %w", err)
	}
	opts.Roots = absAll(opts.Roots)
	opts.Files = absAll(opts.Files)
	if opts.Base != "" {
		opts.Base = absAll([]string{opts.Base})[0]
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ignored := func(p string) bool {
		base := opts.Base
		if base == "" {
			base = rootOf(opts.Roots, p)
		}
		if base == "" {
			return false
		}
		rel, ok := under(base, p)
		if !ok || rel == "." {
			return false
		}
		return excl.Match(filepath.ToSlash(rel))
	}

	for _, r := range opts.Roots {
		if err := addRecursive(w, r, ignored); err != nil {
			return fmt.Errorf("watch %s: %w", r, err)
		}
	}
	for _, f := range opts.Files {
		if err := w.Add(f); err != nil {
			return fmt.Errorf("watch %s: %w", f, err)
		}
	}
	zap.L().Info("watching", zap.Strings("roots", opts.Roots), zap.Strings("files", opts.Files))

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || ignored(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := addRecursive(w, ev.Name, ignored); err != nil {
						zap.L().Warn("watch new directory", zap.String("path", ev.Name), zap.Error(err))
					}
				}
			}
			zap.L().Debug("change", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			zap.L().Warn("watch error", zap.Error(err))
		case <-timer.C:
			fn(ctx)
		}
	}
}

func absAll(ps []string) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out[i] = p
	}
	return out
}

func rootOf(roots []string, p string) string {
	for _, r := range roots {
		if _, ok := under(r, p); ok {
			return r
		}
	}
	return ""
}

func under(base, p string) (string, bool) {
	rel, err := filepath.Rel(base, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func addRecursive(w *fsnotify.Watcher, root string, ignored func(string) bool) error {
	fi, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return w.Add(root)
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && ignored(p) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
