package builtin

import (
	"fmt"

	"github.com/fshlint/fshlint/pkg/cst"
	"github.com/fshlint/fshlint/pkg/diagnostic"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/rules"
	"github.com/fshlint/fshlint/pkg/semantic"
)

// extensionContextMissingCheck flags Extensions with no `^context`
// caret rule anywhere in their body (spec.md §4.E "extension-context-missing").
func extensionContextMissingCheck(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	for _, d := range model.Document().Declarations() {
		if d.Kind() != cst.KindExtensionDecl {
			continue
		}
		if hasCaretField(d, "context") {
			continue
		}
		loc := declLocation(model, d.Node)
		diags = append(diags, diagnostic.Diagnostic{
			RuleID:   "correctness/extension-context-missing",
			Severity: diagnostic.SeverityError,
			Message:  fmt.Sprintf("Extension %q declares no ^context", d.Name()),
			Location: loc,
			Suggestions: []diagnostic.CodeSuggestion{{
				Message:       "Add a placeholder context (review before committing)",
				Replacement:   "^context[+].type = #element\n^context[=].expression = \"Patient\"\n",
				Location:      loc,
				Applicability: diagnostic.ApplicabilityMaybeIncorrect,
			}},
		})
	}
	return diags
}

// ExtensionContextMissingRule wires extensionContextMissingCheck into a
// CompiledRule.
func ExtensionContextMissingRule() rules.CompiledRule {
	return rules.CompiledRule{
		Rule: rules.Rule{
			ID:          "correctness/extension-context-missing",
			Severity:    diagnostic.SeverityError,
			Description: "Extensions must declare at least one ^context",
			Metadata:    rules.Metadata{Name: "extension-context-missing", Category: "correctness"},
			IsASTRule:   true,
		},
		Check: extensionContextMissingCheck,
	}
}
