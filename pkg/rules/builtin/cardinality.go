package builtin

import (
	"fmt"
	"strconv"

	"github.com/fshlint/fshlint/pkg/cst"
	"github.com/fshlint/fshlint/pkg/diagnostic"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/rules"
	"github.com/fshlint/fshlint/pkg/semantic"
)

// invalidCardinalityCheck rejects a non-numeric min, a non-numeric
// non-'*' max, and min > max (spec.md §4.E "invalid-cardinality").
func invalidCardinalityCheck(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	for _, d := range model.Document().Declarations() {
		for _, r := range d.Rules() {
			if r.Kind() != cst.KindCardRule {
				continue
			}
			min, max, ok := r.Cardinality()
			loc := declLocation(model, r.Node)
			if !ok {
				diags = append(diags, diagnostic.Diagnostic{
					RuleID:   "correctness/invalid-cardinality",
					Severity: diagnostic.SeverityError,
					Message:  fmt.Sprintf("%s: cardinality on %q could not be parsed", d.Name(), r.Path()),
					Location: loc,
				})
				continue
			}
			if max == "*" {
				continue
			}
			maxVal, err := strconv.Atoi(max)
			if err != nil {
				diags = append(diags, diagnostic.Diagnostic{
					RuleID:   "correctness/invalid-cardinality",
					Severity: diagnostic.SeverityError,
					Message:  fmt.Sprintf("%s: cardinality max %q on %q is not numeric or '*'", d.Name(), max, r.Path()),
					Location: loc,
				})
				continue
			}
			if min > maxVal {
				diags = append(diags, diagnostic.Diagnostic{
					RuleID:   "correctness/invalid-cardinality",
					Severity: diagnostic.SeverityError,
					Message:  fmt.Sprintf("%s: cardinality %d..%d on %q has min greater than max", d.Name(), min, maxVal, r.Path()),
					Location: loc,
				})
			}
		}
	}
	return diags
}

// InvalidCardinalityRule wires invalidCardinalityCheck into a CompiledRule.
func InvalidCardinalityRule() rules.CompiledRule {
	return rules.CompiledRule{
		Rule: rules.Rule{
			ID:          "correctness/invalid-cardinality",
			Severity:    diagnostic.SeverityError,
			Description: "cardinality rules must parse as min..max with min <= max unless max is '*'",
			Metadata:    rules.Metadata{Name: "invalid-cardinality", Category: "correctness"},
			IsASTRule:   true,
		},
		Check: invalidCardinalityCheck,
	}
}
