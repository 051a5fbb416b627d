// Package rules implements the two-flavor rule engine of spec.md §4.E:
// AST rules dispatched by id to a typed checker function, and pattern
// rules executed as regular expressions over source text. Both share one
// Registry.
package rules

import (
	"github.com/fshlint/fshlint/internal/xerrors"
	"github.com/fshlint/fshlint/pkg/diagnostic"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/semantic"
)

// Severity is an alias of diagnostic.Severity, so a Rule's declared
// severity and a Diagnostic's emitted severity are the same type.
type Severity = diagnostic.Severity

// Metadata is a Rule's descriptive, non-executable data (spec.md §3 Rule).
type Metadata struct {
	Name     string
	Tags     []string
	Version  string
	DocsURL  string
	Category string
}

// Template is an autofix template a rule may carry; nil for rules with
// no mechanical fix.
type Template struct {
	Replacement string
}

// Checker is the typed dispatch target for an AST rule (spec.md §4.E
// "dispatched by rule.id to a typed checker function"). It receives the
// semantic model, the fishing context (nil if none was configured), and
// the shared deferred-rule queue.
type Checker func(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic

// Rule is the static, registerable description of a lint rule (spec.md §3).
type Rule struct {
	ID            string
	Severity      Severity
	Description   string
	Metadata      Metadata
	GritQLPattern string // empty for AST rules
	Autofix       *Template
	IsASTRule     bool
}

// Matcher reports whether a CompiledRule is pattern-based.
type Matcher struct {
	Pattern string
}

// HasPattern reports whether m carries a non-empty pattern (spec.md §3
// "matcher.has_pattern() is false for AST rules").
func (m Matcher) HasPattern() bool { return m.Pattern != "" }

// CompiledRule is a Rule plus its resolved execution strategy: either a
// Checker (AST rule) or a compiled Matcher (pattern rule).
type CompiledRule struct {
	Rule
	Check    Checker
	Matcher  Matcher
	Priority int32
	// packName records which RulePack last set this rule, for precedence
	// diagnostics (SPEC_FULL.md §3 "rule pack precedence diagnostics").
	packName string
}

// Validate enforces spec.md §4.E "Validation": non-empty id/description;
// pattern rules need a non-whitespace pattern; AST rules may have an
// empty pattern.
func (c CompiledRule) Validate() error {
	if c.ID == "" {
		return xerrors.ErrEmptyRuleID
	}
	if c.Description == "" {
		return xerrors.ErrEmptyDescription
	}
	if !c.IsASTRule && isBlank(c.Matcher.Pattern) {
		return xerrors.ErrEmptyPattern
	}
	return nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// RulePack groups rules distributed together (spec.md §3 RulePack).
type RulePack struct {
	Metadata     PackMetadata
	Rules        []CompiledRule
	Dependencies []PackDependency
}

// PackMetadata is a RulePack's own descriptive header.
type PackMetadata struct {
	Name    string
	Version string
}

// PackDependency names another pack this one requires.
type PackDependency struct {
	Name     string
	Version  string
	Optional bool
}

// PrecedenceEntry configures how a pack's rules compete with others
// already registered (spec.md §4.E "Precedence map").
type PrecedenceEntry struct {
	PackName    string
	Priority    int32
	CanOverride bool
}

// PrecedenceDecision reports, for one rule id, whether a pack's version
// was applied and why (SPEC_FULL.md §3 "rule pack precedence diagnostics").
type PrecedenceDecision struct {
	RuleID       string
	PackName     string
	Applied      bool
	Reason       string
	PreviousPack string
}
