// Package cli provides the reusable command-line harness: a user
// configuration supplies a settings record and a rule sequence; this
// package turns those into a full build command, version/legal
// subcommands, an optional kiln.yaml overlay, and the signal-driven
// cancellation modes. A project-specific kiln binary is just a main.go
// that builds its own rule sequence and calls Execute.
package cli

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kilnbuild/kiln/pkg/cmdutil"
	"github.com/kilnbuild/kiln/pkg/engine"
	"github.com/kilnbuild/kiln/pkg/kiln"
	"github.com/kilnbuild/kiln/pkg/logging"
	"github.com/kilnbuild/kiln/pkg/rule"
	"github.com/kilnbuild/kiln/pkg/settings"
)

// overlay is the subset of settings a kiln.yaml file in the current
// directory may override, for the fields reasonable to change without
// recompiling. The rule list itself is never expressible here; it is
// always Go code.
type overlay struct {
	InputDir   string `yaml:"input_dir"`
	OutputDir  string `yaml:"output_dir"`
	WorkingDir string `yaml:"working_dir"`
	CachePath  string `yaml:"cache"`
	Purge      bool   `yaml:"purge"`
}

// loadOverlay reads kiln.yaml from the current directory, if present. A
// missing file is not an error — it simply means there is nothing to
// overlay.
func loadOverlay() (overlay, error) {
	data, err := os.ReadFile("kiln.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			return overlay{}, nil
		}
		return overlay{}, fmt.Errorf("unable to read kiln.yaml: %w", err)
	}
	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return overlay{}, fmt.Errorf("unable to parse kiln.yaml: %w", err)
	}
	return o, nil
}

// applyOverlay fills any buildFlags field still at its zero value from o,
// so flags the user actually passed always win.
func applyOverlay(flags *buildFlags, o overlay) {
	if flags.inputDir == "" {
		flags.inputDir = o.InputDir
	}
	if flags.outputDir == "" {
		flags.outputDir = o.OutputDir
	}
	if flags.workingDir == "" {
		flags.workingDir = o.WorkingDir
	}
	if flags.cachePath == "" {
		flags.cachePath = o.CachePath
	}
	if !flags.purge {
		flags.purge = o.Purge
	}
}

// buildFlags holds the command-line surface for the build subcommand.
type buildFlags struct {
	inputDir   string
	outputDir  string
	workingDir string
	cachePath  string
	purge      bool
	robust     bool
	safeCancel bool
	debug      bool
}

// Execute builds and runs the kiln root command for the given rule
// sequence. It is the entire body of a project's main function:
//
//	func main() {
//	    cli.Execute(myRules)
//	}
func Execute(rules []rule.Rule) {
	root := newRootCommand(rules)
	if err := root.Execute(); err != nil {
		cmdutil.Fatal(err)
	}
}

func newRootCommand(rules []rule.Rule) *cobra.Command {
	root := &cobra.Command{
		Use:   "kiln",
		Short: "Kiln is a rule-driven file processing pipeline engine.",
	}
	root.AddCommand(versionCommand(), legalCommand(), buildCommand(rules))
	return root
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: cmdutil.Mainify(func(*cobra.Command, []string) error {
			fmt.Println(kiln.Version)
			return nil
		}),
	}
}

func legalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "legal",
		Short: "Show legal information",
		Run: cmdutil.Mainify(func(*cobra.Command, []string) error {
			fmt.Print(kiln.LegalNotice)
			return nil
		}),
	}
}

func buildCommand(rules []rule.Rule) *cobra.Command {
	flags := &buildFlags{}
	command := &cobra.Command{
		Use:   "build",
		Short: "Run a build over the configured input tree",
		Run: cmdutil.Mainify(func(*cobra.Command, []string) error {
			return runBuild(flags, rules)
		}),
	}

	fs := command.Flags()
	fs.StringVarP(&flags.inputDir, "input", "i", "", "Input directory (required)")
	fs.StringVarP(&flags.outputDir, "output", "o", "", "Output directory (default: {input}/build)")
	fs.StringVar(&flags.workingDir, "working", "", "Working directory (default: a generated temp directory)")
	fs.StringVar(&flags.cachePath, "cache", "", "Custody cache file path (disables caching if empty)")
	fs.BoolVar(&flags.purge, "purge", false, "Delete the output and working directories before the build")
	fs.BoolVar(&flags.robust, "robust", false, "Continue past file errors instead of aborting on the first one")
	fs.BoolVar(&flags.safeCancel, "safe-cancel", false, "On interrupt, stop taking new files but still save the custody cache")
	fs.BoolVar(&flags.debug, "debug", false, "Enable debug logging and full error stack traces")

	// in/out are accepted as aliases for input/output.
	fs.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "in":
			name = "input"
		case "out":
			name = "output"
		}
		return pflag.NormalizedName(name)
	})

	return command
}

func runBuild(flags *buildFlags, rules []rule.Rule) error {
	logger := logging.RootLogger
	if flags.debug {
		logger = logging.NewRoot(logging.LevelDebug)
	}

	o, err := loadOverlay()
	if err != nil {
		return errors.Wrap(err, "invalid kiln.yaml")
	}
	applyOverlay(flags, o)

	resolved, err := settings.Resolve(settings.Input{
		InputDir:     flags.inputDir,
		OutputDir:    flags.outputDir,
		WorkingDir:   flags.workingDir,
		CustodyCache: flags.cachePath,
		PurgeDirs:    flags.purge,
	})
	if err != nil {
		return errors.Wrap(err, "invalid settings")
	}

	policy := engine.Strict
	if flags.robust {
		policy = engine.Robust
	}

	var stopped int32
	sigCh, stopNotify := cmdutil.NotifyTermination()
	defer stopNotify()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigCh:
			if flags.safeCancel {
				atomic.StoreInt32(&stopped, 1)
				logger.Printf("received interrupt, finishing current file and saving")
				select {
				case <-sigCh:
					logger.Printf("received second interrupt, aborting immediately")
					cancel()
				case <-done:
				}
			} else {
				logger.Printf("received interrupt, aborting")
				cancel()
			}
		case <-done:
		}
	}()

	e := engine.New(resolved, rules, logger,
		engine.WithPolicy(policy),
		engine.WithStopRequested(func() bool { return atomic.LoadInt32(&stopped) != 0 }),
	)

	if err := e.Run(ctx); err != nil {
		wrapped := errors.Wrap(err, "build failed")
		if flags.debug {
			return fmt.Errorf("%+v", wrapped)
		}
		return wrapped
	}
	return nil
}
