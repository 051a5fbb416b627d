package main

import (
	"path/filepath"

	"github.com/fshlint/fshlint/internal/xlog"
	"github.com/fshlint/fshlint/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootArg resolves a command's optional trailing path argument to the
// project root every subcommand operates relative to, defaulting to the
// current directory.
func rootArg(args []string) (string, error) {
	if len(args) == 0 {
		return ".", nil
	}
	return filepath.Abs(args[0])
}

// loadConfig reads --config if set, otherwise discovers .fshlintrc*
// upward from root, and merges it over the defaults.
func loadConfig(root, explicitPath string) (*config.Config, error) {
	return config.Load(root, explicitPath, nil)
}

// newLogger builds the logger every subcommand threads through its
// pipeline. Without -v it is a no-op logger that discards every entry;
// -v switches to fshlint's info-level development console output.
func newLogger(cmd *cobra.Command) *zap.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return zap.NewNop()
	}
	return xlog.New(cmd.ErrOrStderr())
}
