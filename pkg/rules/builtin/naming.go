package builtin

import (
	"fmt"

	"github.com/fshlint/fshlint/pkg/diagnostic"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/rules"
	"github.com/fshlint/fshlint/pkg/semantic"
)

// namingConventionCheck is spec.md §4.E's naming-convention rule:
// resource names should be PascalCase, ids should be kebab-case.
func namingConventionCheck(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	for _, d := range fieldDecls(model) {
		loc := declLocation(model, d.Node)
		name := d.Name()
		if name != "" && !isPascalCase(name) {
			diags = append(diags, diagnostic.Diagnostic{
				RuleID:   "style/naming-convention",
				Severity: diagnostic.SeverityWarning,
				Message:  fmt.Sprintf("declaration name %q should be PascalCase", name),
				Location: loc,
				Suggestions: []diagnostic.CodeSuggestion{{
					Message:       "Rewrite to PascalCase (review references before applying)",
					Replacement:   toPascalCase(name),
					Location:      loc,
					Applicability: diagnostic.ApplicabilityMaybeIncorrect,
				}},
			})
		}
		if id, ok := d.ID(); ok && id != "" && !isKebabCase(id) {
			diags = append(diags, diagnostic.Diagnostic{
				RuleID:   "style/naming-convention",
				Severity: diagnostic.SeverityWarning,
				Message:  fmt.Sprintf("id %q should be kebab-case", id),
				Location: loc,
				Suggestions: []diagnostic.CodeSuggestion{{
					Message:       "Rewrite to kebab-case",
					Replacement:   kebabCase(id),
					Location:      loc,
					Applicability: diagnostic.ApplicabilityMaybeIncorrect,
				}},
			})
		}
	}
	return diags
}

func toPascalCase(s string) string {
	var out []rune
	upperNext := true
	for _, r := range s {
		switch {
		case r == '-' || r == '_' || r == ' ':
			upperNext = true
		case upperNext:
			out = append(out, toUpperRune(r))
			upperNext = false
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func toUpperRune(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

// NamingConventionRule wires namingConventionCheck into a CompiledRule.
func NamingConventionRule() rules.CompiledRule {
	return rules.CompiledRule{
		Rule: rules.Rule{
			ID:          "style/naming-convention",
			Severity:    diagnostic.SeverityWarning,
			Description: "resource names should be PascalCase and ids should be kebab-case",
			Metadata:    rules.Metadata{Name: "naming-convention", Category: "style"},
			IsASTRule:   true,
		},
		Check: namingConventionCheck,
	}
}
