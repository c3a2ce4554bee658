// Package cmdutil provides the small set of helpers shared by the kiln
// command-line entry points: colorized error/warning printing, a bridge
// from error-returning command functions to Cobra's signature, and the
// signals that should terminate a build in progress.
package cmdutil

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Warning prints a warning message to standard error.
func Warning(message string) {
	fmt.Fprintln(color.Error, color.YellowString("Warning:"), message)
}

// Error prints an error message to standard error.
func Error(err error) {
	fmt.Fprintln(color.Error, color.RedString("Error:"), err)
}

// Fatal prints an error message to standard error and terminates the
// process with an error exit code.
func Fatal(err error) {
	Error(err)
	os.Exit(1)
}

// Mainify wraps a Cobra entry point that returns an error into the
// standard Cobra Run signature, so the entry point can still rely on
// defer-based cleanup (which os.Exit would otherwise skip).
func Mainify(entry func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(command *cobra.Command, arguments []string) {
		if err := entry(command, arguments); err != nil {
			Fatal(err)
		}
	}
}

// TerminationSignals are the signals that should cancel a build in
// progress: an interrupt from the terminal or a polite termination
// request.
var TerminationSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

// NotifyTermination registers a channel that receives once any of
// TerminationSignals arrives.
func NotifyTermination() (chan os.Signal, func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, TerminationSignals...)
	return c, func() { signal.Stop(c) }
}
