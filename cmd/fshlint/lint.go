package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fshlint/fshlint/pkg/build"
	"github.com/fshlint/fshlint/pkg/diagnostic"
)

func newLintCmd() *cobra.Command {
	var configPath string
	var format string

	cmd := &cobra.Command{
		Use:   "lint [path]",
		Short: "Lint FSH source for rule violations",
		Long:  `Lint runs every registered rule over the FSH source found under path (default: the current directory) and reports diagnostics.`,
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

			orch := build.NewOrchestrator(cfg, root, nil, newLogger(cmd))
			result, err := orch.Lint(context.Background())
			if err != nil {
				return withExitCode{err, exitConfigError}
			}

			if err := reportDiagnostics(cmd.OutOrStdout(), format, result.Diagnostics); err != nil {
				return withExitCode{err, exitConfigError}
			}
			for _, e := range result.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}

			if hasErrorSeverity(result.Diagnostics) {
				return withExitCode{fmt.Errorf("%d diagnostic(s) found", len(result.Diagnostics)), exitDiagnostics}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (default: auto-discover)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json")

	return cmd
}

func hasErrorSeverity(diags []diagnostic.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diagnostic.SeverityError {
			return true
		}
	}
	return false
}

// reportDiagnostics writes diags to w in the requested format. "text"
// mirrors the file:line:col [severity] rule_id: message shape common to
// line-oriented linters; "json" marshals the diagnostics verbatim.
func reportDiagnostics(w io.Writer, format string, diags []diagnostic.Diagnostic) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(diags)
	default:
		for _, d := range diags {
			fmt.Fprintf(w, "%s:%d:%d [%s] %s: %s\n",
				d.Location.File, d.Location.Line, d.Location.Column, d.Severity, d.RuleID, d.Message)
		}
		if len(diags) == 0 {
			fmt.Fprintln(w, "no issues found")
		}
		return nil
	}
}
