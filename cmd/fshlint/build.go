package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fshlint/fshlint/pkg/build"
)

func newBuildCmd() *cobra.Command {
	var configPath string
	var clean bool
	var fshOnly bool

	cmd := &cobra.Command{
		Use:   "build [path]",
		Short: "Build an Implementation Guide from FSH source",
		Long:  `Build runs the full pipeline: discovery, parsing, linting, dependency-ordered export, and (unless --fsh-only) ImplementationGuide/package.json generation (§4.J).`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := rootArg(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(root, configPath)
			if err != nil {
				return withExitCode{err, exitConfigError}
			}
			if clean {
				cfg.Build.CleanOutput = true
			}
			if fshOnly {
				cfg.Build.FshOnly = true
			}

			orch := build.NewOrchestrator(cfg, root, nil, newLogger(cmd))
			result, err := orch.Build(context.Background())
			if err != nil {
				return withExitCode{err, exitConfigError}
			}

			printBuildSummary(cmd, result)
			if len(result.Errors) > 0 {
				return withExitCode{fmt.Errorf("%d resource(s) failed to export", len(result.Errors)), exitDiagnostics}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (default: auto-discover)")
	cmd.Flags().BoolVar(&clean, "clean", false, "remove the output directory before building")
	cmd.Flags().BoolVar(&fshOnly, "fsh-only", false, "skip ImplementationGuide/package.json generation")

	return cmd
}

func printBuildSummary(cmd *cobra.Command, result *build.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Build complete in %s\n", result.Summary.Elapsed)
	fmt.Fprintf(out, "  output: %s\n", result.OutputDir)
	fmt.Fprintf(out, "  cache:  %d hit, %d miss\n", result.Summary.CacheHits, result.Summary.CacheMisses)
	for _, kind := range []string{"Profile", "Extension", "ValueSet", "CodeSystem", "Instance"} {
		rc, ok := result.Summary.ByType[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "  %-10s exported=%d errored=%d\n", kind, rc.Exported, rc.Errored)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e)
	}
}
