// Package engine implements the Context/Engine component: the
// component that drives an entire build end to end — loading the custody
// cache, discovering files, dispatching them through the rule sequence to
// fixpoint, cleaning up orphans, and saving the cache.
package engine

import (
	"context"
	"fmt"

	"github.com/kilnbuild/kiln/pkg/custody"
	"github.com/kilnbuild/kiln/pkg/kfs"
	"github.com/kilnbuild/kiln/pkg/kiln"
	"github.com/kilnbuild/kiln/pkg/logging"
	"github.com/kilnbuild/kiln/pkg/must"
	"github.com/kilnbuild/kiln/pkg/rule"
	"github.com/kilnbuild/kiln/pkg/settings"
)

// defaultMaxIterations bounds the working-directory fixpoint loop. 64
// passes is generous for any real rule set; more than that almost
// certainly indicates a cycle rather than legitimate multi-stage
// processing.
const defaultMaxIterations = 64

// maxRepeatsPerRule is the number of times the same (file, rule) pair may
// recur across working-directory passes before the engine flags a cycle.
// Two suffices in practice.
const maxRepeatsPerRule = 2

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithPolicy sets the error-propagation policy (default Strict).
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithMaxIterations overrides the working-directory fixpoint iteration cap.
func WithMaxIterations(n int) Option {
	return func(e *Engine) { e.maxIterations = n }
}

// WithStopRequested installs a predicate the engine polls between files. If
// it ever returns true, the run stops taking on new files but still
// proceeds to orphan cleanup and a cache save — "cancel after current
// transform", as opposed to ctx cancellation, which aborts outright and
// skips the save.
func WithStopRequested(stopRequested func() bool) Option {
	return func(e *Engine) { e.stopRequested = stopRequested }
}

// Engine drives a build. It is constructed once per build; its
// rule sequence is immutable for the run's duration.
type Engine struct {
	settings settings.Settings
	rules    []rule.Rule
	logger   *logging.Logger

	policy        Policy
	maxIterations int
	stopRequested func() bool
}

// New constructs an Engine over a resolved Settings and an immutable rule
// sequence, scanned in declaration order for every file.
func New(s settings.Settings, rules []rule.Rule, logger *logging.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.RootLogger
	}
	e := &Engine{
		settings:      s,
		rules:         rules,
		logger:        logger,
		policy:        Strict,
		maxIterations: defaultMaxIterations,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes a full build: optional directory purge, the main
// discover/dispatch/fixpoint loop, orphan cleanup, and a cache save. If ctx
// is cancelled before the run completes, the cache save is skipped so a
// half-completed graph is never persisted. The safe-cancel behavior is
// selected separately, through WithStopRequested: once that predicate
// reports true, no further files are taken on, but orphan cleanup and the
// save still run.
func (e *Engine) Run(ctx context.Context) error {
	dirs := e.settings.Dirs

	if e.settings.PurgeDirs {
		must.RemoveAll(dirs.Output, e.logger)
		must.RemoveAll(dirs.Working, e.logger)
	}

	store := custody.NewStore(dirs, e.settings.Parameters(), dirs.CustodyCache, e.logger)
	if err := store.Load(); err != nil {
		return fmt.Errorf("unable to load custody cache: %w", err)
	}

	errs, procErr := e.process(ctx, dirs, store)
	if procErr != nil {
		// Fatal errors (cycle detection, context cancellation) skip the
		// save entirely.
		return procErr
	}

	if err := store.RemoveOrphans(); err != nil {
		return fmt.Errorf("unable to remove orphaned outputs: %w", err)
	}

	if err := store.Save(); err != nil {
		return fmt.Errorf("unable to save custody cache: %w", err)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// process implements discover(input_dir) followed by the working_dir
// fixpoint loop. It returns the accumulated ErrorList from a Robust-policy
// run (empty under Strict, since Strict returns immediately on the first
// error) and a fatal error, if any.
func (e *Engine) process(ctx context.Context, dirs kiln.ContextDirs, store *custody.Store) (ErrorList, error) {
	var errs ErrorList
	processed := make(map[string]bool)
	repeats := make(map[string]int)

	handleFatal := func(err error) (ErrorList, error) {
		return errs, err
	}
	handleFileError := func(err error) error {
		if e.policy == Strict {
			return err
		}
		errs = append(errs, err)
		return nil
	}

	inputFiles, err := kfs.Discover(dirs.Input)
	if err != nil {
		return handleFatal(fmt.Errorf("unable to discover input directory: %w", err))
	}

	for _, f := range inputFiles {
		if err := ctx.Err(); err != nil {
			return handleFatal(err)
		}
		if e.stopRequested != nil && e.stopRequested() {
			return errs, nil
		}
		if err := e.dispatch(dirs, store, f, processed, repeats); err != nil {
			if ferr := handleFileError(err); ferr != nil {
				return handleFatal(ferr)
			}
		}
	}

	for iter := 0; iter < e.maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return handleFatal(err)
		}
		if e.stopRequested != nil && e.stopRequested() {
			return errs, nil
		}

		workingFiles, err := kfs.Discover(dirs.Working)
		if err != nil {
			return handleFatal(fmt.Errorf("unable to discover working directory: %w", err))
		}

		var fresh []string
		for _, f := range workingFiles {
			key, ok := kfs.CanonicalKey(dirs, f)
			if !ok || processed[key] {
				continue
			}
			fresh = append(fresh, f)
		}
		if len(fresh) == 0 {
			return errs, nil
		}

		for _, f := range fresh {
			if err := ctx.Err(); err != nil {
				return handleFatal(err)
			}
			if e.stopRequested != nil && e.stopRequested() {
				return errs, nil
			}
			if err := e.dispatch(dirs, store, f, processed, repeats); err != nil {
				if ferr := handleFileError(err); ferr != nil {
					return handleFatal(ferr)
				}
			}
		}
	}

	return handleFatal(fmt.Errorf("working directory did not reach a fixpoint after %d passes", e.maxIterations))
}

// dispatch scans the rule sequence for the first match against path and
// evaluates it, marking path as processed and enforcing the
// same-file-same-rule repeat guard.
func (e *Engine) dispatch(dirs kiln.ContextDirs, store *custody.Store, path string, processed map[string]bool, repeats map[string]int) error {
	key, ok := kfs.CanonicalKey(dirs, path)
	if !ok {
		return fmt.Errorf("%q lies outside all known directories", path)
	}
	processed[key] = true

	for _, r := range e.rules {
		outcome, err := rule.Evaluate(r, dirs, store, e.logger, path)
		if err != nil {
			return err
		}
		if !outcome.Matched {
			continue
		}

		repeatKey := key + "|" + r.Name
		repeats[repeatKey]++
		if repeats[repeatKey] > maxRepeatsPerRule {
			return fmt.Errorf("cycle detected: %q reprocessed by rule %q more than %d times", path, r.Name, maxRepeatsPerRule)
		}

		if outcome.Dropped {
			return nil
		}
		if outcome.Halted {
			// Outputs produced under the halt policy must never be
			// re-enqueued, even if they land in working_dir and would
			// otherwise be picked up by the next discover() pass.
			for _, out := range outcome.Outputs {
				if outKey, ok := kfs.CanonicalKey(dirs, out); ok {
					processed[outKey] = true
				}
			}
		}
		return nil
	}

	return nil
}
