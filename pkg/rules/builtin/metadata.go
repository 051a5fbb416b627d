package builtin

import (
	"fmt"

	"github.com/fshlint/fshlint/pkg/diagnostic"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/rules"
	"github.com/fshlint/fshlint/pkg/semantic"
)

// missingMetadataCheck is spec.md §4.E's missing-metadata rule: surfaces
// missing Description/Title/Publisher/Contact. Publisher/Contact have no
// dedicated clause kind in the CST (they are caret rules, e.g.
// `^publisher = "..."`), so they are located by scanning caret rules for
// those field names.
func missingMetadataCheck(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	for _, d := range fieldDecls(model) {
		loc := declLocation(model, d.Node)
		var missing []string
		if _, ok := d.Description(); !ok {
			missing = append(missing, "Description")
		}
		if _, ok := d.Title(); !ok {
			missing = append(missing, "Title")
		}
		if !hasCaretField(d, "publisher") {
			missing = append(missing, "Publisher")
		}
		if !hasCaretField(d, "contact") {
			missing = append(missing, "Contact")
		}
		for _, field := range missing {
			diags = append(diags, diagnostic.Diagnostic{
				RuleID:   "style/missing-metadata",
				Severity: diagnostic.SeverityWarning,
				Message:  fmt.Sprintf("%s %q is missing %s", declKindLabel[d.Kind()], d.Name(), field),
				Location: loc,
			})
		}
	}
	return diags
}

// MissingMetadataRule wires missingMetadataCheck into a CompiledRule.
func MissingMetadataRule() rules.CompiledRule {
	return rules.CompiledRule{
		Rule: rules.Rule{
			ID:          "style/missing-metadata",
			Severity:    diagnostic.SeverityWarning,
			Description: "surfaces missing Description, Title, Publisher, or Contact metadata",
			Metadata:    rules.Metadata{Name: "missing-metadata", Category: "style"},
			IsASTRule:   true,
		},
		Check: missingMetadataCheck,
	}
}
