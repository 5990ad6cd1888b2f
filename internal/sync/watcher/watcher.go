// Package watcher observes a source tree and reports batches of changed
// paths. Changes are debounced with a settling delay so editors that write
// in several steps produce one batch instead of a burst of half-written
// states.
//
// Native change notification through fsnotify is preferred. SMB shares
// frequently do not support it, so a polling scanner is available as a
// fallback and can also be forced.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/wangguanran/Tools/internal/fsys"
	"github.com/wangguanran/Tools/internal/logging"
	"github.com/wangguanran/Tools/internal/sync/scanner"
	"github.com/wangguanran/Tools/internal/sync/synctypes"
)

// Watcher observes one tree for changes.
type Watcher struct {
	filesystem   *fsys.FS
	root         string
	settling     time.Duration
	pollInterval time.Duration
	forcePolling bool
	ignoreDirs   []string
	log          *logrus.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettlingDelay sets how long a batch must stay quiet before delivery.
func WithSettlingDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.settling = d
	}
}

// WithPollInterval sets the rescan interval used in polling mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		w.pollInterval = d
	}
}

// WithPolling forces polling mode instead of native notification.
func WithPolling(force bool) Option {
	return func(w *Watcher) {
		w.forcePolling = force
	}
}

// WithIgnoreDirs overrides the directory names excluded from watching.
func WithIgnoreDirs(dirs ...string) Option {
	return func(w *Watcher) {
		w.ignoreDirs = dirs
	}
}

// WithLogger overrides the shared logger.
func WithLogger(log *logrus.Logger) Option {
	return func(w *Watcher) {
		w.log = log
	}
}

// New creates a watcher over root on the given filesystem.
func New(filesystem *fsys.FS, root string, opts ...Option) *Watcher {
	w := &Watcher{
		filesystem:   filesystem,
		root:         root,
		settling:     100 * time.Millisecond,
		pollInterval: time.Second,
		ignoreDirs:   []string{"build"},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = logging.L()
	}
	return w
}

// Watch delivers batches of changed relative paths on events until the
// context ends. Deleted paths are included in batches; the consumer decides
// whether removals are mirrored.
func (w *Watcher) Watch(ctx context.Context, events chan<- []string) error {
	if w.forcePolling {
		return w.poll(ctx, events)
	}

	err := w.notify(ctx, events)
	if err != nil && ctx.Err() == nil {
		w.log.WithError(err).Warn("native change notification unavailable, falling back to polling")
		return w.poll(ctx, events)
	}
	return err
}

// notify runs the fsnotify-based watch loop.
func (w *Watcher) notify(ctx context.Context, events chan<- []string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	matcher := scanner.NewPatternMatcher()
	pending := make(map[string]struct{})

	var timer *time.Timer
	var timerC <-chan time.Time
	resetTimer := func() {
		if timer == nil {
			timer = time.NewTimer(w.settling)
			timerC = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.settling)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watch event stream closed")
			}
			if ev.Op.Has(fsnotify.Chmod) && ev.Op&^fsnotify.Chmod == 0 {
				continue
			}

			rel, relErr := filepath.Rel(w.root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if matcher.HasComponent(rel, w.ignoreDirs) {
				continue
			}

			// New directories need their own watches; files created
			// inside them afterwards would be invisible otherwise.
			if ev.Op.Has(fsnotify.Create) {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := w.addRecursive(fsw, ev.Name); addErr != nil {
						w.log.WithError(addErr).Warn("failed to watch new directory")
					}
					continue
				}
			}

			pending[rel] = struct{}{}
			resetTimer()

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watch error stream closed")
			}
			w.log.WithError(watchErr).Warn("watch error")

		case <-timerC:
			if batch := drainPending(pending); len(batch) > 0 {
				select {
				case events <- batch:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

// addRecursive registers dir and every subdirectory with the watcher.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, dir string) error {
	matcher := scanner.NewPatternMatcher()

	return w.filesystem.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != w.root {
			rel, relErr := filepath.Rel(w.root, path)
			if relErr == nil && matcher.HasComponent(filepath.ToSlash(rel), w.ignoreDirs) {
				return filepath.SkipDir
			}
		}
		if addErr := fsw.Add(path); addErr != nil {
			return fmt.Errorf("failed to add watch on %s: %w", path, addErr)
		}
		return nil
	})
}

// poll rescans the tree on an interval and reports snapshot differences.
func (w *Watcher) poll(ctx context.Context, events chan<- []string) error {
	var sc *scanner.Scanner
	if w.ignoreDirs != nil {
		sc = scanner.New(w.filesystem, scanner.WithIgnoreDirs(w.ignoreDirs...))
	} else {
		sc = scanner.New(w.filesystem)
	}

	snapshot, err := sc.ScanToMap(ctx, w.root, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to take initial snapshot: %w", err)
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			current, scanErr := sc.ScanToMap(ctx, w.root, nil, nil)
			if scanErr != nil {
				w.log.WithError(scanErr).Warn("poll scan failed")
				continue
			}

			batch := diffSnapshots(snapshot, current)
			snapshot = current
			if len(batch) == 0 {
				continue
			}

			select {
			case events <- batch:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// diffSnapshots returns the relative paths that changed between two scans,
// including paths that disappeared.
func diffSnapshots(prev, current map[string]*synctypes.FileInfo) []string {
	changed := make(map[string]struct{})

	for rel, cur := range current {
		old, existed := prev[rel]
		if !existed || old.Size != cur.Size || !old.ModTime.Equal(cur.ModTime) {
			changed[rel] = struct{}{}
		}
	}
	for rel := range prev {
		if _, still := current[rel]; !still {
			changed[rel] = struct{}{}
		}
	}

	return drainPending(changed)
}

// drainPending empties the set into a sorted slice.
func drainPending(pending map[string]struct{}) []string {
	if len(pending) == 0 {
		return nil
	}
	batch := make([]string, 0, len(pending))
	for rel := range pending {
		batch = append(batch, rel)
		delete(pending, rel)
	}
	sort.Strings(batch)
	return batch
}
