package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fshlint/fshlint/pkg/autofix"
	"github.com/fshlint/fshlint/pkg/build"
)

func newFixCmd() *cobra.Command {
	var configPath string
	var unsafe bool
	var dryRun bool
	var interactive bool
	var backupDir string
	var showStats bool

	cmd := &cobra.Command{
		Use:   "fix [path]",
		Short: "Apply autofixes for lint diagnostics",
		Long:  `Fix runs the linter and applies every diagnostic's suggested fix, safe fixes by default (§4.F).`,
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
			log := newLogger(cmd)

			orch := build.NewOrchestrator(cfg, root, nil, log)
			lintRes, err := orch.Lint(context.Background())
			if err != nil {
				return withExitCode{err, exitConfigError}
			}

			fixes, genErrs := autofix.GenerateFixes(lintRes.Diagnostics)
			for _, e := range genErrs {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}

			enableUnsafe := unsafe || cfg.Autofix.EnableUnsafe
			fixes = autofix.FilterBySafety(fixes, enableUnsafe, interactive)
			fixes = autofix.ResolveConflicts(fixes)

			if len(fixes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no applicable fixes")
				return nil
			}

			var prompter autofix.Prompter
			if interactive {
				prompter = &autofix.TerminalPrompter{In: os.Stdin, Out: cmd.OutOrStdout()}
			}

			engine := autofix.NewEngine(prompter, log)
			results, err := engine.ApplyAll(fixes, autofix.Config{
				ApplyUnsafe:    enableUnsafe,
				DryRun:         dryRun,
				Interactive:    interactive,
				ValidateSyntax: true,
				BackupDir:      backupDir,
			})
			if err != nil {
				return withExitCode{err, exitConfigError}
			}

			stats := autofix.NewStats()
			stats.RecordAll(results)
			for _, res := range results {
				if res.Written {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: applied %d fix(es)\n", res.File, len(res.AppliedFixes))
				}
			}
			if showStats {
				printFixStats(cmd, stats)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (default: auto-discover)")
	cmd.Flags().BoolVar(&unsafe, "unsafe", false, "also apply fixes that may change semantics")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute fixes without writing files")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "confirm each unsafe fix individually")
	cmd.Flags().StringVar(&backupDir, "backup-dir", "", "directory to back up modified files into before writing")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print a per-rule breakdown of applied, skipped, and failed fixes")

	return cmd
}

func printFixStats(cmd *cobra.Command, stats *autofix.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nfiles modified: %d\n", stats.FilesModified)
	fmt.Fprintf(out, "applied: %d safe, %d unsafe  failed: %d  skipped: %d\n",
		stats.AppliedSafe, stats.AppliedUnsafe, stats.Failed, stats.Skipped)
	for ruleID, rs := range stats.ByRule {
		fmt.Fprintf(out, "  %-30s applied=%d failed=%d skipped=%d safe=%v\n",
			ruleID, rs.Applied, rs.Failed, rs.Skipped, rs.Safe)
	}
}
