package builtin

import (
	"fmt"

	"github.com/fshlint/fshlint/pkg/cst"
	"github.com/fshlint/fshlint/pkg/diagnostic"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/rules"
	"github.com/fshlint/fshlint/pkg/semantic"
)

// requiredIdCheck is spec.md §4.E's required-id rule (§8 S2:
// "blocking/required-id"): every Profile/Extension/ValueSet/CodeSystem
// declares Id. The safe autofix synthesizes it from the declaration's name.
func requiredIdCheck(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	for _, d := range fieldDecls(model) {
		if d.Kind() == cst.KindInstanceDecl {
			continue
		}
		if _, ok := d.ID(); ok {
			continue
		}
		label := declKindLabel[d.Kind()]
		loc := declLocation(model, d.Node)
		diags = append(diags, diagnostic.Diagnostic{
			RuleID:   "blocking/required-id",
			Severity: diagnostic.SeverityError,
			Message:  fmt.Sprintf("%s %q is missing required field Id", label, d.Name()),
			Location: loc,
			Suggestions: []diagnostic.CodeSuggestion{{
				Message:       fmt.Sprintf("Add Id: %s", kebabCase(d.Name())),
				Replacement:   fmt.Sprintf("Id: %s\n", kebabCase(d.Name())),
				Location:      loc,
				Applicability: diagnostic.ApplicabilityAlways,
			}},
		})
	}
	return diags
}

// requiredTitleCheck is spec.md §4.E's required-title rule (§8 S2:
// "blocking/required-title"): every Profile/Extension/ValueSet/CodeSystem
// declares Title. The safe autofix synthesizes it from the declaration's name.
func requiredTitleCheck(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	for _, d := range fieldDecls(model) {
		if d.Kind() == cst.KindInstanceDecl {
			continue
		}
		if _, ok := d.Title(); ok {
			continue
		}
		label := declKindLabel[d.Kind()]
		loc := declLocation(model, d.Node)
		diags = append(diags, diagnostic.Diagnostic{
			RuleID:   "blocking/required-title",
			Severity: diagnostic.SeverityError,
			Message:  fmt.Sprintf("%s %q is missing required field Title", label, d.Name()),
			Location: loc,
			Suggestions: []diagnostic.CodeSuggestion{{
				Message:       fmt.Sprintf("Add Title: %q", spaceSeparate(d.Name())),
				Replacement:   fmt.Sprintf("Title: %q\n", spaceSeparate(d.Name())),
				Location:      loc,
				Applicability: diagnostic.ApplicabilityAlways,
			}},
		})
	}
	return diags
}

// requiredParentCheck is the Profile-only counterpart of the two rules
// above: a Profile must declare Parent. No literal §8 scenario names
// this rule id, so it is kept in the same "blocking" category as
// required-id/required-title rather than invented elsewhere.
func requiredParentCheck(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	for _, d := range fieldDecls(model) {
		if d.Kind() != cst.KindProfileDecl {
			continue
		}
		if _, ok := d.Parent(); ok {
			continue
		}
		loc := declLocation(model, d.Node)
		diags = append(diags, diagnostic.Diagnostic{
			RuleID:   "blocking/required-parent",
			Severity: diagnostic.SeverityError,
			Message:  fmt.Sprintf("Profile %q is missing required field Parent", d.Name()),
			Location: loc,
		})
	}
	return diags
}

// missingDescriptionCheck is the separate Warning spec.md §4.E calls out
// by name (§8 S2: "documentation/missing-description"): a resource
// declaration with no Description clause. The suggested text names the
// declaration itself, matching §8 S2's literal
// `Description: "TODO: Add description for MyProfile"`.
func missingDescriptionCheck(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	for _, d := range fieldDecls(model) {
		if _, ok := d.Description(); ok {
			continue
		}
		label := declKindLabel[d.Kind()]
		loc := declLocation(model, d.Node)
		placeholder := fmt.Sprintf("TODO: Add description for %s", d.Name())
		diags = append(diags, diagnostic.Diagnostic{
			RuleID:   "documentation/missing-description",
			Severity: diagnostic.SeverityWarning,
			Message:  fmt.Sprintf("%s %q has no Description", label, d.Name()),
			Location: loc,
			Suggestions: []diagnostic.CodeSuggestion{{
				Message:       "Add a placeholder Description",
				Replacement:   fmt.Sprintf("Description: %q\n", placeholder),
				Location:      loc,
				Applicability: diagnostic.ApplicabilityAlways,
			}},
		})
	}
	return diags
}

// RequiredIdRule wires requiredIdCheck into a CompiledRule.
func RequiredIdRule() rules.CompiledRule {
	return rules.CompiledRule{
		Rule: rules.Rule{
			ID:          "blocking/required-id",
			Severity:    diagnostic.SeverityError,
			Description: "Profile/Extension/ValueSet/CodeSystem must declare Id",
			Metadata:    rules.Metadata{Name: "required-id", Category: "blocking"},
			IsASTRule:   true,
		},
		Check: requiredIdCheck,
	}
}

// RequiredTitleRule wires requiredTitleCheck into a CompiledRule.
func RequiredTitleRule() rules.CompiledRule {
	return rules.CompiledRule{
		Rule: rules.Rule{
			ID:          "blocking/required-title",
			Severity:    diagnostic.SeverityError,
			Description: "Profile/Extension/ValueSet/CodeSystem must declare Title",
			Metadata:    rules.Metadata{Name: "required-title", Category: "blocking"},
			IsASTRule:   true,
		},
		Check: requiredTitleCheck,
	}
}

// RequiredParentRule wires requiredParentCheck into a CompiledRule.
func RequiredParentRule() rules.CompiledRule {
	return rules.CompiledRule{
		Rule: rules.Rule{
			ID:          "blocking/required-parent",
			Severity:    diagnostic.SeverityError,
			Description: "Profile must declare Parent",
			Metadata:    rules.Metadata{Name: "required-parent", Category: "blocking"},
			IsASTRule:   true,
		},
		Check: requiredParentCheck,
	}
}

// MissingDescriptionRule wires missingDescriptionCheck into a CompiledRule.
func MissingDescriptionRule() rules.CompiledRule {
	return rules.CompiledRule{
		Rule: rules.Rule{
			ID:          "documentation/missing-description",
			Severity:    diagnostic.SeverityWarning,
			Description: "Resource declarations should carry a Description",
			Metadata:    rules.Metadata{Name: "missing-description", Category: "documentation"},
			IsASTRule:   true,
		},
		Check: missingDescriptionCheck,
	}
}
