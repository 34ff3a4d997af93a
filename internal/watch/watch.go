// Package watch re-runs checks when files under the repository root change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"policygate/internal/log"
	"policygate/internal/scope"
)

// DefaultPrune skips dependency and build trees plus the report directory,
// which the checks themselves write to.
func DefaultPrune() scope.Rule {
	return scope.Rule{
		PruneDirs:     append([]string(nil), scope.DefaultPruneDirs...),
		PrunePrefixes: []string{"reports"},
	}
}

// Watcher debounces file-system events under Root into trigger calls.
type Watcher struct {
	Root     string
	Debounce time.Duration
	// Prune decides which directories are neither watched nor reported.
	Prune scope.Rule
	// IgnoreFiles are root-relative files whose changes never trigger a run
	// (e.g. the --out destination).
	IgnoreFiles []string
}

func New(root string, debounce time.Duration) *Watcher {
	return &Watcher{Root: root, Debounce: debounce, Prune: DefaultPrune()}
}

// Run invokes trigger once, then again after every quiet period of Debounce
// following a relevant change, until ctx is done. Trigger runs on the
// calling goroutine so runs never overlap.
func (w *Watcher) Run(ctx context.Context, trigger func(ctx context.Context)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init failed: %w", err)
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.Root); err != nil {
		return fmt.Errorf("watch %s: %w", w.Root, err)
	}

	trigger(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
	}
	defer stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(fw, ev) {
				continue
			}
			log.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			stopTimer()
			timer = time.NewTimer(w.Debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			trigger(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) rel(p string) (string, bool) {
	rel, err := filepath.Rel(w.Root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// pruned reports whether rel lies in or is a pruned directory.
func (w *Watcher) pruned(rel string) bool {
	parts := strings.Split(rel, "/")
	for i := range parts {
		if w.Prune.Prunes(strings.Join(parts[:i+1], "/")) {
			return true
		}
	}
	return false
}

func (w *Watcher) relevant(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	rel, ok := w.rel(ev.Name)
	if !ok || rel == "." {
		return false
	}
	if w.pruned(rel) {
		return false
	}
	for _, f := range w.IgnoreFiles {
		if filepath.ToSlash(filepath.Clean(f)) == rel {
			return false
		}
	}
	if ev.Has(fsnotify.Create) {
		if err := w.addRecursive(fw, ev.Name); err != nil {
			log.Debug("cannot watch new path", "path", ev.Name, "error", err)
		}
	}
	return true
}

// addRecursive watches dir and every non-pruned directory below it. Paths
// that are not directories are ignored.
func (w *Watcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(p); ok && rel != "." && w.pruned(rel) {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}
