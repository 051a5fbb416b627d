// Package autofix converts diagnostic suggestions into Fixes, detects
// and resolves conflicts between them, applies them atomically per
// file, and can produce a rollback plan for an applied run. Modeled on
// the three-tier conflict/apply/rollback pipeline the teacher's
// validator module uses for structure-definition patching, generalized
// to spec.md §4.F's contract.
package autofix

import (
	"strconv"
	"strings"

	"github.com/fshlint/fshlint/internal/xerrors"
	"github.com/fshlint/fshlint/pkg/diagnostic"
)

const maxReplacementBytes = 1000

var dangerousSubstrings = []string{
	"eval(", "exec(", "system(", "shell(", "__import__", "file://", "http://", "https://",
}

// IsDangerousReplacement reports whether replacement contains a
// substring that must never be written unattended (§4.F step 1).
func IsDangerousReplacement(replacement string) bool {
	lower := strings.ToLower(replacement)
	for _, pattern := range dangerousSubstrings {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Template supplies a fallback replacement for diagnostics that carry
// no CodeSuggestion of their own, keyed by rule id.
type Template struct {
	RuleID      string
	Description string
	Replacement string
	Safe        bool
}

// GenerateFixes converts each diagnostic's embedded CodeSuggestions
// into Fixes, rejecting oversized or dangerous replacements. Rejected
// suggestions are dropped, not fatal to the run.
func GenerateFixes(diagnostics []diagnostic.Diagnostic) ([]diagnostic.Fix, []error) {
	var fixes []diagnostic.Fix
	var errs []error
	for _, d := range diagnostics {
		for i, s := range d.Suggestions {
			fix, err := fixFromSuggestion(d, s, i)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fixes = append(fixes, fix)
		}
	}
	return fixes, errs
}

// GenerateFromTemplates produces one Fix per diagnostic whose rule id
// has a matching Template, for rules that describe their fix as a
// template rather than an inline CodeSuggestion.
func GenerateFromTemplates(diagnostics []diagnostic.Diagnostic, templates map[string]Template) ([]diagnostic.Fix, []error) {
	var fixes []diagnostic.Fix
	var errs []error
	for _, d := range diagnostics {
		tmpl, ok := templates[d.RuleID]
		if !ok {
			continue
		}
		suggestion := diagnostic.CodeSuggestion{
			Message:       tmpl.Description,
			Replacement:   tmpl.Replacement,
			Location:      d.Location,
			Applicability: applicabilityFor(tmpl.Safe),
		}
		fix, err := fixFromSuggestion(d, suggestion, 0)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fixes = append(fixes, fix)
	}
	return fixes, errs
}

func applicabilityFor(safe bool) diagnostic.Applicability {
	if safe {
		return diagnostic.ApplicabilityAlways
	}
	return diagnostic.ApplicabilityMaybeIncorrect
}

func fixFromSuggestion(d diagnostic.Diagnostic, s diagnostic.CodeSuggestion, index int) (diagnostic.Fix, error) {
	if len(s.Replacement) > maxReplacementBytes {
		return diagnostic.Fix{}, xerrors.WrapPathf(xerrors.KindAutofix, s.Location.File,
			"%w: replacement for %s is %d bytes, limit is %d", xerrors.ErrDangerousFix, d.RuleID, len(s.Replacement), maxReplacementBytes)
	}
	if IsDangerousReplacement(s.Replacement) {
		return diagnostic.Fix{}, xerrors.WrapPathf(xerrors.KindAutofix, s.Location.File,
			"%w: rule %s", xerrors.ErrDangerousFix, d.RuleID)
	}
	priority := diagnostic.PriorityUnsafe
	if s.Applicability == diagnostic.ApplicabilityAlways {
		priority = diagnostic.PrioritySafe
	}
	return diagnostic.Fix{
		ID:            fixID(d.RuleID, s.Location, index),
		RuleID:        d.RuleID,
		File:          s.Location.File,
		Replacement:   s.Replacement,
		Location:      s.Location,
		Applicability: s.Applicability,
		Priority:      priority,
	}, nil
}

func fixID(ruleID string, loc diagnostic.Location, index int) string {
	return ruleID + "@" + loc.File + ":" + strconv.Itoa(loc.Line) + ":" + strconv.Itoa(loc.Column) + "#" + strconv.Itoa(index)
}
