// Package engine is the query facade over the scanner, registry, and
// resolver, plus the reload orchestration driven by the change watcher.
// It is the single entry point for callers: queries are lock-free reads
// of the current snapshot and never block on a reload in progress.
package engine

import (
	"context"
	"sync"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/skillhub/pkg/descriptor"
	"github.com/jingkaihe/skillhub/pkg/logger"
	"github.com/jingkaihe/skillhub/pkg/registry"
	"github.com/jingkaihe/skillhub/pkg/resolver"
	"github.com/jingkaihe/skillhub/pkg/scanner"
	"github.com/jingkaihe/skillhub/pkg/telemetry"
	"github.com/jingkaihe/skillhub/pkg/watcher"
)

// Engine combines the scanner, registry store, resolver, and watcher.
type Engine struct {
	cfg     Config
	scanner *scanner.Scanner
	store   *registry.Store

	mu      sync.Mutex // guards watcher
	watcher *watcher.Watcher
}

// New creates an engine and performs the initial scan. An unreadable
// root is the one fatal condition: without it no snapshot can exist.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	e := &Engine{
		cfg:     cfg,
		scanner: scanner.New(cfg.Root, scanner.WithParallelism(cfg.Parallelism)),
	}

	var snap *registry.Snapshot
	err := telemetry.WithSpan(ctx, "engine.initial_scan", func(ctx context.Context) error {
		res, err := e.scanner.Scan(ctx)
		if err != nil {
			return err
		}
		snap = registry.Build(nil, res)
		return nil
	}, attribute.String("root", cfg.Root))
	if err != nil {
		return nil, errors.Wrap(err, "initial scan failed")
	}

	e.store = registry.NewStore(snap)
	e.logSnapshot(ctx, snap)
	return e, nil
}

// Query resolves a match request against the current snapshot. The
// snapshot reference is captured once at entry, so the whole call
// observes one consistent registry state even while a reload runs.
func (e *Engine) Query(ctx context.Context, req resolver.Request) resolver.Result {
	snap := e.store.Current()

	var result resolver.Result
	_ = telemetry.WithSpan(ctx, "engine.query", func(context.Context) error {
		result = resolver.Resolve(snap, req)
		return nil
	},
		attribute.String("language", req.Language),
		attribute.StringSlice("categories", req.Categories),
		attribute.Int64("generation", int64(snap.Generation)),
	)

	if len(result.Misses) > 0 {
		logger.G(ctx).WithFields(map[string]interface{}{
			"misses":     result.Misses,
			"generation": snap.Generation,
		}).Debug("No match for requested categories")
	}
	return result
}

// Reload rescans the tree and publishes a fresh snapshot. A scan
// failure keeps the previous snapshot in place; per-file problems do
// not fail the reload, they are aggregated into the returned error's
// log while the snapshot is still published.
func (e *Engine) Reload(ctx context.Context) error {
	return telemetry.WithSpan(ctx, "engine.reload", func(ctx context.Context) error {
		res, err := e.scanner.Scan(ctx)
		if err != nil {
			logger.G(ctx).WithError(err).Error("Reload scan failed, keeping previous snapshot")
			return errors.Wrap(err, "reload scan failed")
		}

		snap := registry.Build(e.store.Current(), res)
		e.store.Replace(snap)
		e.logSnapshot(ctx, snap)
		return nil
	}, attribute.String("root", e.cfg.Root))
}

// Watch starts the change watcher; each debounced change triggers a
// reload. Returns an error if watching is already active. Safe to call
// concurrently with Close.
func (e *Engine) Watch(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.watcher != nil {
		return errors.New("watch already active")
	}

	w, err := watcher.New(e.cfg.Root, func(ctx context.Context) {
		if err := e.Reload(ctx); err != nil {
			logger.G(ctx).WithError(err).Warn("Hot reload failed")
		}
	}, e.watcherOptions()...)
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}

	if err := w.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start watcher")
	}
	e.watcher = w
	return nil
}

func (e *Engine) watcherOptions() []watcher.Option {
	opts := []watcher.Option{watcher.WithDebounce(e.cfg.Watch.Debounce)}
	if len(e.cfg.Watch.Ignore) > 0 {
		opts = append(opts, watcher.WithIgnorePatterns(e.cfg.Watch.Ignore...))
	}
	return opts
}

// Close stops the watcher, if running. Safe to call repeatedly and
// concurrently with Watch.
func (e *Engine) Close() {
	e.mu.Lock()
	w := e.watcher
	e.watcher = nil
	e.mu.Unlock()

	if w != nil {
		w.Stop()
	}
}

// Snapshot returns the current registry snapshot.
func (e *Engine) Snapshot() *registry.Snapshot {
	return e.store.Current()
}

// Skill returns a skill by name from the current snapshot.
func (e *Engine) Skill(name string) (*descriptor.Skill, error) {
	skill, ok := e.store.Current().Skill(name)
	if !ok {
		return nil, errors.Errorf("skill %q not found", name)
	}
	return skill, nil
}

// logSnapshot reports the outcome of a build at the appropriate level.
func (e *Engine) logSnapshot(ctx context.Context, snap *registry.Snapshot) {
	log := logger.G(ctx).WithFields(map[string]interface{}{
		"generation": snap.Generation,
		"skills":     len(snap.Skills),
		"agents":     len(snap.Agents),
		"warnings":   len(snap.Warnings),
		"errors":     len(snap.ScanErrors),
	})

	if len(snap.ScanErrors) > 0 {
		var agg error
		for _, fe := range snap.ScanErrors {
			agg = multierror.Append(agg, errors.Wrap(fe.Err, fe.Path))
		}
		log.WithError(agg).Warn("Snapshot published with per-file errors")
	} else if len(snap.Skills) == 0 {
		// An empty registry is legitimate but worth a warning.
		log.Warn("Snapshot published with zero skills")
	} else {
		log.Info("Snapshot published")
	}

	for _, warning := range snap.Warnings {
		logger.G(ctx).WithFields(map[string]interface{}{
			"name": warning.Name,
			"path": warning.Path,
			"kept": warning.KeptPath,
		}).Warn("Duplicate skill name, keeping first by scan order")
	}
}
