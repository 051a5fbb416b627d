// Package diagnostic holds the data model rules and the autofix engine
// exchange: Diagnostic, Location, CodeSuggestion, and Fix.
package diagnostic

// Severity classifies how seriously a Diagnostic should be treated.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// Location pinpoints a diagnostic or suggestion within a source file.
type Location struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"end_line"`
	EndColumn int    `json:"end_column"`
	Offset    uint32 `json:"offset"`
	Length    uint32 `json:"length"`
}

// Applicability tells a caller whether a CodeSuggestion can be applied
// mechanically or whether it may change the document's semantics.
type Applicability string

const (
	ApplicabilityAlways         Applicability = "always"
	ApplicabilityMaybeIncorrect Applicability = "maybe_incorrect"
)

// CodeSuggestion is a proposed source edit attached to a Diagnostic.
type CodeSuggestion struct {
	Message       string        `json:"message"`
	Replacement   string        `json:"replacement"`
	Location      Location      `json:"location"`
	Applicability Applicability `json:"applicability"`
}

// Diagnostic is the unit of output from the rule engine.
type Diagnostic struct {
	RuleID      string            `json:"rule_id"`
	Severity    Severity          `json:"severity"`
	Message     string            `json:"message"`
	Location    Location          `json:"location"`
	Suggestions []CodeSuggestion  `json:"suggestions,omitempty"`
	Code        string            `json:"code,omitempty"`
}

// FixPriority is the relative ordering autofix conflict resolution uses
// before applying its score; Safe fixes always outrank unsafe ones by
// default, though an engine may still override per-rule.
type FixPriority uint32

const (
	PrioritySafe   FixPriority = 10
	PriorityUnsafe FixPriority = 5
)

// Fix is a Diagnostic's CodeSuggestion promoted into something the
// autofix engine can schedule, apply, and (on conflict) score.
type Fix struct {
	ID            string
	RuleID        string
	File          string
	Replacement   string
	Location      Location
	Applicability Applicability
	Priority      FixPriority
}

// IsSafe reports whether a Fix can be applied without an explicit
// apply_unsafe/interactive opt-in (spec.md §4.F step 2).
func (f Fix) IsSafe() bool { return f.Applicability == ApplicabilityAlways }
