// Package rule implements the Rule component: binding a
// matcher, an ordered path-calc sequence, and an optional transform, and
// evaluating that binding against a single file.
package rule

import (
	"fmt"

	"github.com/kilnbuild/kiln/pkg/custody"
	"github.com/kilnbuild/kiln/pkg/kiln"
	"github.com/kilnbuild/kiln/pkg/logging"
	"github.com/kilnbuild/kiln/pkg/match"
	"github.com/kilnbuild/kiln/pkg/pathcalc"
	"github.com/kilnbuild/kiln/pkg/transform"
)

// Rule is `{ matcher, path_calcs, transform, halt_policy }`. The
// halt policy isn't a separate field; it's derived from PathCalcs at
// evaluation time.
type Rule struct {
	// Name identifies the rule in logs and cycle-detection diagnostics; it
	// is not semantically meaningful.
	Name string

	Matcher   match.Matcher
	PathCalcs []pathcalc.Entry
	Transform transform.Transform
}

// Outcome is what evaluating a Rule against one file produced, reported
// back to the engine so it can decide what to re-enqueue.
type Outcome struct {
	// Matched is false if the rule's matcher didn't apply; every other
	// field is meaningless in that case.
	Matched bool
	// Dropped is true if the rule matched but is a drop rule: no outputs, no transform.
	Dropped bool
	// Outputs is the deduplicated, ordered list of output paths produced
	// (or that would have been produced by a drop rule's calculators, if
	// any — always empty for a drop rule).
	Outputs []string
	// Halted is true if the trailing-stop policy suppresses re-enqueuing
	// this rule's outputs even if they land in working_dir.
	Halted bool
	// Skipped is true if the Custody Store determined no refresh was
	// needed; Outputs is still populated in this case.
	Skipped bool
}

// partition splits a path-calc sequence into its live calculators and the
// halt flag: halt is set if the sequence is empty, consists only of stops,
// or ends in a stop.
func partition(entries []pathcalc.Entry) (calcs []pathcalc.Calculator, halt bool) {
	if len(entries) == 0 {
		return nil, true
	}
	for _, e := range entries {
		if c, ok := e.Calculator(); ok {
			calcs = append(calcs, c)
		}
	}
	halt = entries[len(entries)-1].IsStop()
	return calcs, halt
}

// dedupPreserveOrder removes duplicate paths while keeping the position of
// each path's first occurrence.
func dedupPreserveOrder(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Evaluate runs the rule algorithm against a single input path: match,
// partition, drop check, compute outputs, staleness check, invoke the
// transform, record the step, and report what to re-enqueue.
func Evaluate(r Rule, dirs kiln.ContextDirs, store *custody.Store, logger *logging.Logger, inputPath string) (Outcome, error) {
	witness := r.Matcher.Match(dirs, inputPath)
	if !witness.Matched() {
		return Outcome{Matched: false}, nil
	}

	calcs, halt := partition(r.PathCalcs)
	if len(calcs) == 0 {
		return Outcome{Matched: true, Dropped: true, Halted: halt}, nil
	}

	var outputs []string
	for _, c := range calcs {
		out, err := c.Calculate(dirs, inputPath, witness)
		if err != nil {
			return Outcome{}, fmt.Errorf("rule %q: path calculator failed for %q: %w", r.Name, inputPath, err)
		}
		outputs = append(outputs, out)
	}
	outputs = dedupPreserveOrder(outputs)

	// sources starts as just the rule's statically-known input, but is
	// expanded with whatever the previous run recorded for these outputs —
	// including any extra sources a transform declared via transform.Explicit
	// — so staleness is checked against the full historical dependency set,
	// not just the default, on every pass where the transform itself isn't
	// invoked to redeclare them.
	defaultSources := []custody.Source{custody.SourcePath(inputPath)}
	sources := store.ExpandSources(defaultSources, outputs)

	stale, reason := store.RefreshNeeded(sources, outputs)
	if !stale {
		if err := store.SkipStep(sources, outputs); err != nil {
			return Outcome{}, fmt.Errorf("rule %q: recording skip for %q: %w", r.Name, inputPath, err)
		}
		return Outcome{Matched: true, Outputs: outputs, Halted: halt, Skipped: true}, nil
	}
	logger.Debugf("rule %q: refreshing %q (%s)", r.Name, inputPath, reason)

	finalOutputs := outputs
	if r.Transform != nil {
		result, err := r.Transform.Run(inputPath, outputs)
		if err != nil {
			return Outcome{}, fmt.Errorf("rule %q: transform failed for %q: %w", r.Name, inputPath, err)
		}
		if result.IsExplicit() {
			if result.Sources != nil {
				sources = result.Sources
			}
			if result.Outputs != nil {
				finalOutputs = result.Outputs
			}
		}
	}

	if err := store.AddStep(sources, finalOutputs, fmt.Sprintf("%s <- %s", r.Name, inputPath)); err != nil {
		return Outcome{}, fmt.Errorf("rule %q: recording step for %q: %w", r.Name, inputPath, err)
	}

	return Outcome{Matched: true, Outputs: finalOutputs, Halted: halt}, nil
}
