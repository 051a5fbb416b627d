// Package xerrors provides the error taxonomy shared across fshlint's
// subsystems: config, I/O, lexing, parsing, rule execution, autofix
// application, export, and package installation.
package xerrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to branch on failure
// category (e.g. deciding whether a failure is fatal to the whole build
// or isolated to one file/rule/resource).
type Kind string

const (
	KindConfig           Kind = "config"
	KindIO               Kind = "io"
	KindLexer            Kind = "lexer"
	KindParse            Kind = "parse"
	KindRule             Kind = "rule"
	KindAutofix          Kind = "autofix"
	KindExport           Kind = "export"
	KindPackageInstall   Kind = "package_install_timeout"
)

// PathError wraps an error with file-path context. Modeled on the
// teacher's pkg/common.PathError.
type PathError struct {
	Path string
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("[%s] at %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *PathError) Unwrap() error {
	return e.Err
}

// WrapPath wraps an error with file-path and kind context. Returns nil if
// err is nil.
func WrapPath(kind Kind, path string, err error) error {
	if err == nil {
		return nil
	}
	return &PathError{Path: path, Kind: kind, Err: err}
}

// WrapPathf wraps a formatted error with file-path and kind context.
func WrapPathf(kind Kind, path string, format string, args ...any) error {
	return &PathError{Path: path, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// IsPathError reports whether err is or wraps a PathError.
func IsPathError(err error) bool {
	var pathErr *PathError
	return errors.As(err, &pathErr)
}

// GetPath extracts the path from a PathError, or "" if err does not wrap one.
func GetPath(err error) string {
	var pathErr *PathError
	if errors.As(err, &pathErr) {
		return pathErr.Path
	}
	return ""
}

// GetKind extracts the Kind from a PathError, or "" if err does not wrap one.
func GetKind(err error) Kind {
	var pathErr *PathError
	if errors.As(err, &pathErr) {
		return pathErr.Kind
	}
	return ""
}

// PackageInstallTimeoutError is the structured error §7 requires
// ensure_packages to surface distinctly from a generic failure.
type PackageInstallTimeoutError struct {
	Packages []string
	Elapsed  string
}

func (e *PackageInstallTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s installing packages: %v", e.Elapsed, e.Packages)
}

// Sentinel errors for common conditions across the build pipeline.
var (
	ErrEmptySource        = errors.New("empty source")
	ErrUnterminatedString = errors.New("unterminated string literal")
	ErrUnterminatedBlock  = errors.New("unterminated block comment")
	ErrUnterminatedRegex  = errors.New("unterminated regex literal")
	ErrUnterminatedUnit   = errors.New("unterminated unit literal")
	ErrUnexpectedToken    = errors.New("unexpected token")
	ErrDuplicateRuleID    = errors.New("duplicate rule id")
	ErrDuplicatePackName  = errors.New("duplicate rule pack name")
	ErrInvalidRule        = errors.New("invalid rule definition")
	ErrEmptyRuleID        = errors.New("rule id must not be empty")
	ErrEmptyDescription   = errors.New("rule description must not be empty")
	ErrEmptyPattern       = errors.New("pattern rule must have a non-whitespace pattern")
	ErrInvalidPackMeta    = errors.New("rule pack metadata invalid: name must be non-empty and version must contain a digit")
	ErrUnknownRuleSet     = errors.New("unknown ruleset")
	ErrRuleSetCycle       = errors.New("ruleset expansion cycle detected")
	ErrDangerousFix       = errors.New("fix replacement rejected as dangerous")
	ErrFixOutOfBounds     = errors.New("fix range out of bounds")
	ErrRollbackStale      = errors.New("rollback plan is stale: file modified since plan was created")
	ErrFixCancelled       = errors.New("interactive fix cancelled by user")
	ErrCircularDependency = errors.New("circular profile dependency")
	ErrDuplicateElementPath = errors.New("duplicate element path in differential")
	ErrIncoherentCardinality = errors.New("cardinality min exceeds max")
	ErrBindingMissingValueSet = errors.New("binding has no valueSet")
	ErrEmptyTypeList          = errors.New("only rule produced an empty type list")
	ErrMissingInstanceOf      = errors.New("instance has no InstanceOf:")
	ErrInvalidAssignPath      = errors.New("cannot assign through a non-object path segment")
)
