package builtin

import (
	"fmt"
	"strings"

	"github.com/fshlint/fshlint/pkg/ast"
	"github.com/fshlint/fshlint/pkg/cst"
	"github.com/fshlint/fshlint/pkg/diagnostic"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/rules"
	"github.com/fshlint/fshlint/pkg/semantic"
)

// requiredPaths returns every path (nested ones included) a
// Profile/Extension constrains to a minimum cardinality of at least one.
func requiredPaths(d ast.Decl) []string {
	var out []string
	for _, r := range d.Rules() {
		if r.Kind() != cst.KindCardRule {
			continue
		}
		if min, _, ok := r.Cardinality(); ok && min >= 1 {
			out = append(out, r.Path())
		}
	}
	return out
}

// satisfies reports whether providedPath satisfies requiredPath: either
// an exact match, or providedPath is a strict dotted descendant of it
// (spec.md §4.E "name.family satisfies name").
func satisfies(providedPath, requiredPath string) bool {
	if providedPath == requiredPath {
		return true
	}
	return strings.HasPrefix(providedPath, requiredPath+".")
}

// instanceRequiredFieldsMissingCheck is spec.md §4.E's
// instance-required-fields-missing rule.
func instanceRequiredFieldsMissingCheck(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
	profiles := make(map[string]ast.Decl)
	for _, d := range model.Document().Declarations() {
		if d.Kind() == cst.KindProfileDecl {
			profiles[d.Name()] = d
		}
	}

	var diags []diagnostic.Diagnostic
	for _, d := range model.Document().Declarations() {
		if d.Kind() != cst.KindInstanceDecl {
			continue
		}
		instOf, ok := d.InstanceOf()
		if !ok {
			continue
		}
		profile, ok := profiles[instOf]
		if !ok {
			continue // not a local profile; fishing-based check is out of scope here
		}
		var provided []string
		for _, r := range d.Rules() {
			if p := r.Path(); p != "" {
				provided = append(provided, p)
			}
		}
		loc := declLocation(model, d.Node)
		for _, req := range requiredPaths(profile) {
			covered := false
			for _, p := range provided {
				if satisfies(p, req) {
					covered = true
					break
				}
			}
			if !covered {
				diags = append(diags, diagnostic.Diagnostic{
					RuleID:   "correctness/instance-required-fields-missing",
					Severity: diagnostic.SeverityError,
					Message:  fmt.Sprintf("Instance %q of %q does not provide a value for required path %q", d.Name(), instOf, req),
					Location: loc,
				})
			}
		}
	}
	return diags
}

// profileWithoutExamplesCheck is spec.md §4.E's profile-without-examples
// rule.
func profileWithoutExamplesCheck(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
	instantiated := make(map[string]bool)
	for _, d := range model.Document().Declarations() {
		if d.Kind() != cst.KindInstanceDecl {
			continue
		}
		if instOf, ok := d.InstanceOf(); ok {
			instantiated[instOf] = true
		}
	}

	var diags []diagnostic.Diagnostic
	for _, d := range model.Document().Declarations() {
		if d.Kind() != cst.KindProfileDecl {
			continue
		}
		if instantiated[d.Name()] {
			continue
		}
		diags = append(diags, diagnostic.Diagnostic{
			RuleID:   "style/profile-without-examples",
			Severity: diagnostic.SeverityWarning,
			Message:  fmt.Sprintf("Profile %q has no Instance naming it via InstanceOf", d.Name()),
			Location: declLocation(model, d.Node),
		})
	}
	return diags
}

// InstanceRequiredFieldsMissingRule wires instanceRequiredFieldsMissingCheck.
func InstanceRequiredFieldsMissingRule() rules.CompiledRule {
	return rules.CompiledRule{
		Rule: rules.Rule{
			ID:          "correctness/instance-required-fields-missing",
			Severity:    diagnostic.SeverityError,
			Description: "an Instance of a local Profile must provide values for the profile's required (min >= 1) paths",
			Metadata:    rules.Metadata{Name: "instance-required-fields-missing", Category: "correctness"},
			IsASTRule:   true,
		},
		Check: instanceRequiredFieldsMissingCheck,
	}
}

// ProfileWithoutExamplesRule wires profileWithoutExamplesCheck.
func ProfileWithoutExamplesRule() rules.CompiledRule {
	return rules.CompiledRule{
		Rule: rules.Rule{
			ID:          "style/profile-without-examples",
			Severity:    diagnostic.SeverityWarning,
			Description: "every Profile should have at least one Instance naming it via InstanceOf",
			Metadata:    rules.Metadata{Name: "profile-without-examples", Category: "style"},
			IsASTRule:   true,
		},
		Check: profileWithoutExamplesCheck,
	}
}
