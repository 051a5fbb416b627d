package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fshlint/fshlint/pkg/cst"
	"github.com/fshlint/fshlint/pkg/diagnostic"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/rules"
	"github.com/fshlint/fshlint/pkg/semantic"
)

var validStrengths = map[string]bool{
	"example": true, "preferred": true, "extensible": true, "required": true,
}

// bindingStrengthPresentCheck is spec.md §4.E's binding-strength-present
// rule: a `from` rule must name a valid strength (or be checked for
// weakening against an externally resolvable parent).
func bindingStrengthPresentCheck(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	for _, d := range model.Document().Declarations() {
		parent, hasParent := d.Parent()
		var parentElements map[string]minElement
		for _, r := range d.Rules() {
			if r.Kind() != cst.KindValueSetRule {
				continue
			}
			_, strength := r.ValueSetRef()
			loc := declLocation(model, r.Node)
			if strength != "" && !validStrengths[strength] {
				diags = append(diags, diagnostic.Diagnostic{
					RuleID:   "correctness/binding-strength-present",
					Severity: diagnostic.SeverityError,
					Message:  fmt.Sprintf("%s: invalid binding strength %q on %q", d.Name(), strength, r.Path()),
					Location: loc,
				})
				continue
			}
			if strength != "" || fish == nil || !hasParent {
				continue
			}
			if parentElements == nil {
				parentElements = fetchParentElements(fish, parent)
			}
			if el, ok := parentElements[r.Path()]; ok && el.Strength != "" {
				diags = append(diags, diagnostic.Diagnostic{
					RuleID:   "correctness/binding-strength-present",
					Severity: diagnostic.SeverityError,
					Message:  fmt.Sprintf("%s: %q inherits binding strength %q from parent without restating it", d.Name(), r.Path(), el.Strength),
					Location: loc,
				})
			}
		}
	}
	return diags
}

// requiredFieldOverrideCheck is spec.md §4.E's required-field-override
// rule: a child cardinality of 0..X on a path the external parent
// constrains to min >= 1 is flagged.
func requiredFieldOverrideCheck(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
	if fish == nil {
		return nil
	}
	var diags []diagnostic.Diagnostic
	for _, d := range model.Document().Declarations() {
		parent, ok := d.Parent()
		if !ok {
			continue
		}
		parentElements := fetchParentElements(fish, parent)
		if parentElements == nil {
			continue
		}
		for _, r := range d.Rules() {
			if r.Kind() != cst.KindCardRule {
				continue
			}
			min, _, ok := r.Cardinality()
			if !ok || min > 0 {
				continue
			}
			el, found := parentElements[r.Path()]
			if !found || el.Min < 1 {
				continue
			}
			diags = append(diags, diagnostic.Diagnostic{
				RuleID:   "correctness/required-field-override",
				Severity: diagnostic.SeverityError,
				Message:  fmt.Sprintf("%s: %q weakens parent %s's required min %d to 0", d.Name(), r.Path(), parent, el.Min),
				Location: declLocation(model, r.Node),
			})
		}
	}
	return diags
}

type minElement struct {
	Min      int
	Strength string
}

type structureDefinitionShape struct {
	Differential struct {
		Element []elementShape `json:"element"`
	} `json:"differential"`
	Snapshot struct {
		Element []elementShape `json:"element"`
	} `json:"snapshot"`
}

type elementShape struct {
	Path    string `json:"path"`
	Min     *int   `json:"min"`
	Binding *struct {
		Strength string `json:"strength"`
	} `json:"binding"`
}

// fetchParentElements resolves ref through the fishing context and
// decodes its element list's min/binding-strength by path, trying
// snapshot first (if present) then differential.
func fetchParentElements(fish *fishing.Context, ref string) map[string]minElement {
	res, ok, err := fish.Resolve(context.Background(), ref)
	if err != nil || !ok || res.JSON == nil {
		return nil
	}
	var sd structureDefinitionShape
	if err := json.Unmarshal(res.JSON, &sd); err != nil {
		return nil
	}
	out := make(map[string]minElement)
	apply := func(elements []elementShape) {
		for _, el := range elements {
			me := minElement{}
			if el.Min != nil {
				me.Min = *el.Min
			}
			if el.Binding != nil {
				me.Strength = el.Binding.Strength
			}
			out[el.Path] = me
		}
	}
	apply(sd.Differential.Element)
	apply(sd.Snapshot.Element)
	return out
}

// BindingStrengthPresentRule wires bindingStrengthPresentCheck into a
// CompiledRule.
func BindingStrengthPresentRule() rules.CompiledRule {
	return rules.CompiledRule{
		Rule: rules.Rule{
			ID:          "correctness/binding-strength-present",
			Severity:    diagnostic.SeverityError,
			Description: "from rules must name a valid binding strength or inherit one explicitly",
			Metadata:    rules.Metadata{Name: "binding-strength-present", Category: "correctness"},
			IsASTRule:   true,
		},
		Check: bindingStrengthPresentCheck,
	}
}

// RequiredFieldOverrideRule wires requiredFieldOverrideCheck into a
// CompiledRule.
func RequiredFieldOverrideRule() rules.CompiledRule {
	return rules.CompiledRule{
		Rule: rules.Rule{
			ID:          "correctness/required-field-override",
			Severity:    diagnostic.SeverityError,
			Description: "child cardinality must not weaken a parent's required (min >= 1) element to 0",
			Metadata:    rules.Metadata{Name: "required-field-override", Category: "correctness"},
			IsASTRule:   true,
		},
		Check: requiredFieldOverrideCheck,
	}
}
