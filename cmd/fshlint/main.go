package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// Exit codes mirror a conventional linter CLI: 0 clean, 1 diagnostics at
// or above error severity, 2 a config or build error that never reached
// the point of producing diagnostics.
const (
	exitSuccess     = 0
	exitDiagnostics = 1
	exitConfigError = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if code, ok := err.(exitCoder); ok {
			return code.ExitCode()
		}
		return exitConfigError
	}
	return exitSuccess
}

// exitCoder lets a command return an error that also carries the exit
// code the CLI should use, instead of every command hard-coding os.Exit.
type exitCoder interface {
	error
	ExitCode() int
}

// withExitCode wraps err so the top-level Execute error handler in run()
// exits with code instead of the default exitConfigError.
type withExitCode struct {
	err  error
	code int
}

func (e withExitCode) Error() string { return e.err.Error() }
func (e withExitCode) ExitCode() int { return e.code }
func (e withExitCode) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fshlint",
		Short: "fshlint - a linter and build toolchain for FHIR Shorthand",
		Long: `fshlint lints and builds FHIR Shorthand (FSH) projects.

It provides:
  - Rule-based linting of FSH source with autofix support
  - An Implementation Guide build pipeline that exports FHIR resources

For more information about FHIR Shorthand, see: https://hl7.org/fhir/uv/shorthand/`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable structured logging to stderr")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newLintCmd())
	rootCmd.AddCommand(newFixCmd())
	rootCmd.AddCommand(newBuildCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("fshlint version %s\n", version)
		},
	}
}
