package rule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilnbuild/kiln/pkg/custody"
	"github.com/kilnbuild/kiln/pkg/kiln"
	"github.com/kilnbuild/kiln/pkg/logging"
	"github.com/kilnbuild/kiln/pkg/match"
	"github.com/kilnbuild/kiln/pkg/pathcalc"
	"github.com/kilnbuild/kiln/pkg/transform"
)

func ruleTestDirs(t *testing.T) kiln.ContextDirs {
	t.Helper()
	base := t.TempDir()
	dirs := kiln.ContextDirs{
		Input:   filepath.Join(base, "in"),
		Output:  filepath.Join(base, "out"),
		Working: filepath.Join(base, "work"),
	}
	require.NoError(t, os.MkdirAll(dirs.Input, 0o755))
	require.NoError(t, os.MkdirAll(dirs.Output, 0o755))
	require.NoError(t, os.MkdirAll(dirs.Working, 0o755))
	return dirs
}

func TestEvaluateNoMatch(t *testing.T) {
	dirs := ruleTestDirs(t)
	store := custody.NewStore(dirs, nil, "", logging.RootLogger)

	re, err := match.NewRegex(`\.css$`, kiln.InputDir)
	require.NoError(t, err)
	r := Rule{Name: "css-only", Matcher: re}

	inPath := filepath.Join(dirs.Input, "a.md")
	require.NoError(t, os.WriteFile(inPath, []byte("x"), 0o644))

	outcome, err := Evaluate(r, dirs, store, logging.RootLogger, inPath)
	require.NoError(t, err)
	assert.False(t, outcome.Matched)
}

func TestEvaluateDropRule(t *testing.T) {
	dirs := ruleTestDirs(t)
	store := custody.NewStore(dirs, nil, "", logging.RootLogger)

	re, err := match.NewRegex(`\.draft\.md$`, kiln.InputDir)
	require.NoError(t, err)
	r := Rule{Name: "drop-drafts", Matcher: re}

	inPath := filepath.Join(dirs.Input, "a.draft.md")
	require.NoError(t, os.WriteFile(inPath, []byte("x"), 0o644))

	outcome, err := Evaluate(r, dirs, store, logging.RootLogger, inPath)
	require.NoError(t, err)
	assert.True(t, outcome.Matched)
	assert.True(t, outcome.Dropped)
	assert.Empty(t, outcome.Outputs)
}

func TestEvaluateRunsTransformAndRecordsStep(t *testing.T) {
	dirs := ruleTestDirs(t)
	store := custody.NewStore(dirs, nil, "", logging.RootLogger)

	re, err := match.NewRegex(`\.md$`, kiln.InputDir)
	require.NoError(t, err)
	calc, err := pathcalc.NewDirRelative(kiln.OutputDir, ".html", nil)
	require.NoError(t, err)

	r := Rule{
		Name:      "copy-md",
		Matcher:   re,
		PathCalcs: []pathcalc.Entry{pathcalc.Calc(calc)},
		Transform: transform.Copy{Logger: logging.RootLogger},
	}

	inPath := filepath.Join(dirs.Input, "a.md")
	require.NoError(t, os.WriteFile(inPath, []byte("# hi"), 0o644))

	outcome, err := Evaluate(r, dirs, store, logging.RootLogger, inPath)
	require.NoError(t, err)
	require.True(t, outcome.Matched)
	require.False(t, outcome.Dropped)
	require.False(t, outcome.Skipped)
	require.Len(t, outcome.Outputs, 1)

	content, err := os.ReadFile(outcome.Outputs[0])
	require.NoError(t, err)
	assert.Equal(t, "# hi", string(content))
}

func TestEvaluateSkipsWhenFresh(t *testing.T) {
	dirs := ruleTestDirs(t)
	cachePath := filepath.Join(t.TempDir(), "cache.json")

	re, err := match.NewRegex(`\.md$`, kiln.InputDir)
	require.NoError(t, err)
	calc, err := pathcalc.NewDirRelative(kiln.OutputDir, ".html", nil)
	require.NoError(t, err)
	r := Rule{
		Name:      "copy-md",
		Matcher:   re,
		PathCalcs: []pathcalc.Entry{pathcalc.Calc(calc)},
		Transform: transform.Copy{Logger: logging.RootLogger},
	}

	inPath := filepath.Join(dirs.Input, "a.md")
	require.NoError(t, os.WriteFile(inPath, []byte("# hi"), 0o644))

	store1 := custody.NewStore(dirs, nil, cachePath, logging.RootLogger)
	_, err = Evaluate(r, dirs, store1, logging.RootLogger, inPath)
	require.NoError(t, err)
	require.NoError(t, store1.Save())

	store2 := custody.NewStore(dirs, nil, cachePath, logging.RootLogger)
	require.NoError(t, store2.Load())

	outcome, err := Evaluate(r, dirs, store2, logging.RootLogger, inPath)
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
	assert.Len(t, outcome.Outputs, 1)
}

func TestEvaluateHaltedWhenSequenceEndsInStop(t *testing.T) {
	dirs := ruleTestDirs(t)
	store := custody.NewStore(dirs, nil, "", logging.RootLogger)

	re, err := match.NewRegex(`\.md$`, kiln.InputDir)
	require.NoError(t, err)
	calc, err := pathcalc.NewDirRelative(kiln.WorkingDir, "", nil)
	require.NoError(t, err)
	r := Rule{
		Name:      "stage-then-halt",
		Matcher:   re,
		PathCalcs: []pathcalc.Entry{pathcalc.Calc(calc), pathcalc.Stop},
		Transform: transform.Copy{Logger: logging.RootLogger},
	}

	inPath := filepath.Join(dirs.Input, "a.md")
	require.NoError(t, os.WriteFile(inPath, []byte("# hi"), 0o644))

	outcome, err := Evaluate(r, dirs, store, logging.RootLogger, inPath)
	require.NoError(t, err)
	assert.True(t, outcome.Halted)
	assert.Len(t, outcome.Outputs, 1)
}

func TestEvaluateTracksExplicitExtraSourceAcrossSkips(t *testing.T) {
	dirs := ruleTestDirs(t)
	cachePath := filepath.Join(t.TempDir(), "cache.json")

	templatePath := filepath.Join(dirs.Input, "template.html")
	require.NoError(t, os.WriteFile(templatePath, []byte("<t>v1</t>"), 0o644))
	inPath := filepath.Join(dirs.Input, "a.md")
	require.NoError(t, os.WriteFile(inPath, []byte("# hi"), 0o644))

	re, err := match.NewRegex(`\.md$`, kiln.InputDir)
	require.NoError(t, err)
	calc, err := pathcalc.NewDirRelative(kiln.OutputDir, ".html", nil)
	require.NoError(t, err)

	// templated declares template.html as an extra source every time it
	// actually runs, the way a real template-rendering transform would.
	templated := transform.Func(func(in string, outs []string) (transform.Result, error) {
		for _, out := range outs {
			if err := os.WriteFile(out, []byte("rendered"), 0o644); err != nil {
				return transform.Result{}, err
			}
		}
		return transform.Explicit([]custody.Source{
			custody.SourcePath(in),
			custody.SourcePath(templatePath),
		}, outs), nil
	})

	r := Rule{
		Name:      "render-md",
		Matcher:   re,
		PathCalcs: []pathcalc.Entry{pathcalc.Calc(calc)},
		Transform: templated,
	}

	store1 := custody.NewStore(dirs, nil, cachePath, logging.RootLogger)
	outcome, err := Evaluate(r, dirs, store1, logging.RootLogger, inPath)
	require.NoError(t, err)
	require.False(t, outcome.Skipped)
	require.NoError(t, store1.Save())

	// Second pass: nothing touched, so the rule must be skipped — but the
	// skip must still carry template.html's edge and entry forward.
	store2 := custody.NewStore(dirs, nil, cachePath, logging.RootLogger)
	require.NoError(t, store2.Load())
	outcome, err = Evaluate(r, dirs, store2, logging.RootLogger, inPath)
	require.NoError(t, err)
	require.True(t, outcome.Skipped)
	require.NoError(t, store2.Save())

	// Third pass: only template.html changes. The rule must rerun even
	// though a.md itself is untouched.
	require.NoError(t, os.WriteFile(templatePath, []byte("<t>v2</t>"), 0o644))

	store3 := custody.NewStore(dirs, nil, cachePath, logging.RootLogger)
	require.NoError(t, store3.Load())
	outcome, err = Evaluate(r, dirs, store3, logging.RootLogger, inPath)
	require.NoError(t, err)
	assert.False(t, outcome.Skipped, "editing template.html alone must trigger a rerun")
}

func TestPartitionEmptySequenceHalts(t *testing.T) {
	calcs, halt := partition(nil)
	assert.Nil(t, calcs)
	assert.True(t, halt)
}

func TestPartitionDropsStopSentinelsFromCalcs(t *testing.T) {
	c := pathcalc.Verbatim("/x")
	calcs, halt := partition([]pathcalc.Entry{pathcalc.Calc(c), pathcalc.Stop})
	assert.Len(t, calcs, 1)
	assert.True(t, halt)
}

func TestDedupPreserveOrder(t *testing.T) {
	got := dedupPreserveOrder([]string{"a", "b", "a", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
