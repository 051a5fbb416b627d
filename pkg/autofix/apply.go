package autofix

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fshlint/fshlint/internal/xerrors"
	"github.com/fshlint/fshlint/pkg/diagnostic"
)

// Config mirrors spec.md §4.F's FixConfig: the knobs that govern how a
// batch of fixes is filtered, applied, and written.
type Config struct {
	ApplyUnsafe      bool
	DryRun           bool
	Interactive      bool
	MaxFixesPerFile  int // 0 means unlimited
	ValidateSyntax   bool
	BackupDir        string // empty disables backups
}

// FileResult is the outcome of applying a file's selected fixes.
type FileResult struct {
	File            string
	Original        string
	Modified        string
	AppliedFixes    []diagnostic.Fix
	SkippedFixes    []diagnostic.Fix
	FailedFixes     []diagnostic.Fix
	Errors          []error
	SyntaxValidated bool
	SyntaxError     error
	Written         bool
}

// Prompter is the injectable interface interactive mode uses to confirm
// unsafe fixes one at a time (spec.md §9 "isolate I/O behind a trait").
type Prompter interface {
	Confirm(fix diagnostic.Fix, original string) (apply bool, abort bool)
}

// Engine applies fixes to files, threading a Prompter and logger
// through every file's apply pass.
type Engine struct {
	prompter Prompter
	log      *zap.Logger
}

// NewEngine constructs an Engine. A nil prompter is only safe when cfg
// never sets Interactive; a nil log becomes a no-op logger.
func NewEngine(prompter Prompter, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{prompter: prompter, log: log}
}

// ApplyAll groups fixes by file and applies each file independently,
// stopping the whole run only if a read/write I/O error is hit or an
// interactive prompt is aborted (ErrFixCancelled); a single bad fix only
// fails that fix, not the file.
func (e *Engine) ApplyAll(fixes []diagnostic.Fix, cfg Config) ([]FileResult, error) {
	byFile := make(map[string][]diagnostic.Fix)
	var order []string
	for _, f := range fixes {
		if _, ok := byFile[f.File]; !ok {
			order = append(order, f.File)
		}
		byFile[f.File] = append(byFile[f.File], f)
	}

	if cfg.BackupDir != "" && !cfg.DryRun {
		if err := e.backupFiles(order, cfg.BackupDir); err != nil {
			return nil, err
		}
	}

	var results []FileResult
	for _, file := range order {
		res, err := e.ApplyToFile(file, byFile[file], cfg)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ApplyToFile reads file's current content, applies its selected fixes
// in descending-offset order, optionally validates bracket balance, and
// writes the result unless cfg.DryRun, no fix applied, or validation
// failed (§4.F steps 4-6).
func (e *Engine) ApplyToFile(file string, fixes []diagnostic.Fix, cfg Config) (FileResult, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return FileResult{}, xerrors.WrapPath(xerrors.KindIO, file, err)
	}
	original := string(raw)

	toApply := fixes
	if cfg.MaxFixesPerFile > 0 && len(toApply) > cfg.MaxFixesPerFile {
		toApply = toApply[:cfg.MaxFixesPerFile]
	}

	ordered := append([]diagnostic.Fix(nil), toApply...)
	SortByDescendingOffset(ordered)

	result := FileResult{File: file, Original: original}
	modified := original

	for _, fix := range ordered {
		if cfg.Interactive && !fix.IsSafe() {
			if e.prompter == nil {
				result.SkippedFixes = append(result.SkippedFixes, fix)
				continue
			}
			apply, abort := e.prompter.Confirm(fix, original)
			if abort {
				return result, xerrors.ErrFixCancelled
			}
			if !apply {
				result.SkippedFixes = append(result.SkippedFixes, fix)
				continue
			}
		}

		next, err := applySingle(modified, fix)
		if err != nil {
			result.FailedFixes = append(result.FailedFixes, fix)
			result.Errors = append(result.Errors, err)
			continue
		}
		modified = next
		result.AppliedFixes = append(result.AppliedFixes, fix)
	}

	result.Modified = modified

	if cfg.ValidateSyntax && len(result.AppliedFixes) > 0 {
		result.SyntaxValidated = true
		if err := ValidateFSHSyntax(modified); err != nil {
			result.SyntaxError = err
			e.log.Warn("autofix syntax validation failed", zap.String("file", file), zap.Error(err))
		}
	}

	if !cfg.DryRun && len(result.AppliedFixes) > 0 && result.SyntaxError == nil {
		if err := os.WriteFile(file, []byte(modified), 0o644); err != nil {
			return result, xerrors.WrapPath(xerrors.KindIO, file, err)
		}
		result.Written = true
	}

	return result, nil
}

func applySingle(content string, fix diagnostic.Fix) (string, error) {
	start := int(fix.Location.Offset)
	end := start + int(fix.Location.Length)
	if start < 0 || end < start || end > len(content) {
		return content, fmt.Errorf("%w: fix %s at [%d,%d) in %d-byte source", xerrors.ErrFixOutOfBounds, fix.ID, start, end, len(content))
	}
	return content[:start] + fix.Replacement + content[end:], nil
}

func (e *Engine) backupFiles(files []string, backupDir string) error {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return xerrors.WrapPath(xerrors.KindIO, backupDir, err)
	}
	stamp := currentTimestamp()
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return xerrors.WrapPath(xerrors.KindIO, file, err)
		}
		name := fmt.Sprintf("%s.backup.%s", filepath.Base(file), stamp)
		if err := os.WriteFile(filepath.Join(backupDir, name), raw, 0o644); err != nil {
			return xerrors.WrapPath(xerrors.KindIO, filepath.Join(backupDir, name), err)
		}
	}
	return nil
}

// currentTimestamp is its own function so callers (tests) can see where
// the one non-deterministic call in this package lives.
func currentTimestamp() string {
	return time.Now().UTC().Format("20060102T150405Z")
}
