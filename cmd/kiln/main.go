// Command kiln is a minimal example kiln binary: a single catch-all rule
// that copies every input file verbatim into output_dir. Projects with
// real rule sequences are expected to vendor pkg/cli the same way this
// file does, swapping in their own matchers, path calculators, and
// transforms.
package main

import (
	"github.com/kilnbuild/kiln/pkg/cli"
	"github.com/kilnbuild/kiln/pkg/kiln"
	"github.com/kilnbuild/kiln/pkg/logging"
	"github.com/kilnbuild/kiln/pkg/match"
	"github.com/kilnbuild/kiln/pkg/pathcalc"
	"github.com/kilnbuild/kiln/pkg/rule"
	"github.com/kilnbuild/kiln/pkg/transform"
)

func main() {
	cli.Execute(defaultRules())
}

func defaultRules() []rule.Rule {
	everything, err := match.NewGlob("**", kiln.InputDir)
	if err != nil {
		panic(err)
	}
	toOutput, err := pathcalc.NewDirRelative(kiln.OutputDir, "", nil)
	if err != nil {
		panic(err)
	}

	return []rule.Rule{
		{
			Name:      "copy-everything",
			Matcher:   everything,
			PathCalcs: []pathcalc.Entry{pathcalc.Calc(toOutput)},
			Transform: transform.Copy{Logger: logging.RootLogger},
		},
	}
}
