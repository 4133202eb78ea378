// Package watcher observes a skill tree for changes and triggers a
// callback after a quiet period. Editors emit several filesystem events
// per logical save, so bursts are debounced into a single invocation.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillhub/pkg/logger"
)

// DefaultDebounce is the quiet period applied when none is configured.
const DefaultDebounce = 500 * time.Millisecond

// DefaultIgnorePatterns covers common editor droppings and VCS
// metadata that should never trigger a reload. "4913" is vim's probe
// file.
var DefaultIgnorePatterns = []string{".git", "*.swp", "*.swx", "*~", "4913", "#*#"}

// Watcher watches one root directory tree.
type Watcher struct {
	root     string
	onChange func(context.Context)
	debounce time.Duration
	ignore   []glob.Glob

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher) error

// WithDebounce overrides the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) error {
		if d <= 0 {
			return errors.Errorf("debounce must be positive, got %s", d)
		}
		w.debounce = d
		return nil
	}
}

// WithIgnorePatterns replaces the default ignore globs. Patterns match
// individual path segments, so ".git" ignores anything under a .git
// directory.
func WithIgnorePatterns(patterns ...string) Option {
	return func(w *Watcher) error {
		w.ignore = w.ignore[:0]
		for _, p := range patterns {
			g, err := glob.Compile(p)
			if err != nil {
				return errors.Wrapf(err, "bad ignore pattern %q", p)
			}
			w.ignore = append(w.ignore, g)
		}
		return nil
	}
}

// New creates a Watcher. onChange runs on the watch goroutine after
// each debounced burst of events.
func New(root string, onChange func(context.Context), opts ...Option) (*Watcher, error) {
	w := &Watcher{
		root:     root,
		onChange: onChange,
		debounce: DefaultDebounce,
	}
	for _, p := range DefaultIgnorePatterns {
		w.ignore = append(w.ignore, glob.MustCompile(p))
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Start begins watching. It returns an error if the watcher is already
// running or the root cannot be watched.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return errors.New("watcher already started")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}

	if err := w.watchTree(ctx, fsWatcher, w.root); err != nil {
		fsWatcher.Close()
		return errors.Wrapf(err, "failed to watch %s", w.root)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done

	go w.run(runCtx, fsWatcher, done)

	logger.G(ctx).WithField("root", w.root).Debug("Watcher started")
	return nil
}

// Stop terminates the watch goroutine and waits for it to exit. It is
// safe to call before Start and to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Watcher) run(ctx context.Context, fsWatcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	defer fsWatcher.Close()

	// The timer is armed by the first relevant event and re-armed by
	// every subsequent one, so onChange fires once per burst.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if w.ignored(event.Name) {
				continue
			}
			// New directories must be added to the watch before their
			// contents produce events.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchTree(ctx, fsWatcher, event.Name); err != nil {
						logger.G(ctx).WithError(err).WithField("dir", event.Name).Warn("Failed to watch new directory")
					}
				}
			}
			logger.G(ctx).WithFields(map[string]interface{}{
				"file":      event.Name,
				"operation": event.Op.String(),
			}).Debug("Change detected")

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.onChange(ctx)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			logger.G(ctx).WithError(err).Error("Watcher error")

		case <-ctx.Done():
			return
		}
	}
}

// watchTree adds root and every subdirectory to the fsnotify watch.
// Adds are retried briefly: a directory created by an editor rename can
// disappear and reappear within a few milliseconds.
func (w *Watcher) watchTree(ctx context.Context, fsWatcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		addErr := retry.Do(
			func() error { return fsWatcher.Add(path) },
			retry.Attempts(3),
			retry.Delay(20*time.Millisecond),
			retry.LastErrorOnly(true),
			retry.Context(ctx),
		)
		if addErr != nil {
			return errors.Wrapf(addErr, "failed to add watch on %s", path)
		}
		return nil
	})
}

// ignored reports whether any path segment matches an ignore pattern.
func (w *Watcher) ignored(path string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == "" {
			continue
		}
		for _, g := range w.ignore {
			if g.Match(segment) {
				return true
			}
		}
	}
	return false
}
