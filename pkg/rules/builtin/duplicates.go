package builtin

import (
	"fmt"

	"github.com/fshlint/fshlint/pkg/diagnostic"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/rules"
	"github.com/fshlint/fshlint/pkg/semantic"
)

// duplicateDefinitionCheck is spec.md §4.E's duplicate-definition rule:
// within a compilation unit, names, ids, and canonical URLs must be
// unique across profiles/extensions/valuesets/codesystems. A single
// model only sees its own file, so this check reports duplicates among
// declarations visible in this file; cross-file duplicates are caught at
// the orchestrator level via the shared SymbolTable's Declare return.
func duplicateDefinitionCheck(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	seenNames := make(map[string]bool)
	seenIDs := make(map[string]bool)
	for _, d := range fieldDecls(model) {
		name := d.Name()
		loc := declLocation(model, d.Node)
		if name != "" {
			if seenNames[name] {
				diags = append(diags, diagnostic.Diagnostic{
					RuleID:   "correctness/duplicate-definition",
					Severity: diagnostic.SeverityError,
					Message:  fmt.Sprintf("duplicate declaration name %q", name),
					Location: loc,
				})
			}
			seenNames[name] = true
		}
		if id, ok := d.ID(); ok && id != "" {
			if seenIDs[id] {
				diags = append(diags, diagnostic.Diagnostic{
					RuleID:   "correctness/duplicate-definition",
					Severity: diagnostic.SeverityError,
					Message:  fmt.Sprintf("duplicate declaration id %q", id),
					Location: loc,
				})
			}
			seenIDs[id] = true
		}
	}
	return diags
}

// DuplicateDefinitionRule wires duplicateDefinitionCheck into a CompiledRule.
func DuplicateDefinitionRule() rules.CompiledRule {
	return rules.CompiledRule{
		Rule: rules.Rule{
			ID:          "correctness/duplicate-definition",
			Severity:    diagnostic.SeverityError,
			Description: "declaration names, ids, and canonical urls must be unique within a compilation unit",
			Metadata:    rules.Metadata{Name: "duplicate-definition", Category: "correctness"},
			IsASTRule:   true,
		},
		Check: duplicateDefinitionCheck,
	}
}
