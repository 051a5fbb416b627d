// Package builtin ships the core catalog of AST rules spec.md §4.E
// requires every implementation to include: field-presence, cardinality,
// binding-strength, duplicate-definition, instance-coverage, naming, and
// metadata checks. Each rule is a plain function matching rules.Checker,
// grouped into a rules.RulePack by All().
package builtin

import (
	"strings"
	"unicode"

	"github.com/fshlint/fshlint/pkg/ast"
	"github.com/fshlint/fshlint/pkg/cst"
	"github.com/fshlint/fshlint/pkg/diagnostic"
	"github.com/fshlint/fshlint/pkg/semantic"
)

// declLocation computes a Diagnostic's Location from a red node's text
// range via the model's source map (spec.md §4.E "Each diagnostic's
// location is computed from the CST node's text_range via the source map").
func declLocation(model *semantic.Model, node *cst.RedNode) diagnostic.Location {
	rng := node.TextRange()
	return model.SourceMap.Location(model.SourceFile, rng.Start, rng.End)
}

func kebabCase(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		if r == '_' || r == ' ' {
			sb.WriteByte('-')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isKebabCase(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsUpper(r) {
			return false
		}
		if r != '-' && r != '.' && !unicode.IsLower(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isPascalCase(s string) bool {
	if s == "" || !unicode.IsUpper(rune(s[0])) {
		return false
	}
	for _, r := range s {
		if r == '-' || r == ' ' || r == '_' {
			return false
		}
	}
	return true
}

func spaceSeparate(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			prev := rune(name[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// declKindLabel maps a cst.Kind to the human-readable label rule
// messages use.
var declKindLabel = map[cst.Kind]string{
	cst.KindProfileDecl:    "Profile",
	cst.KindExtensionDecl:  "Extension",
	cst.KindValueSetDecl:   "ValueSet",
	cst.KindCodeSystemDecl: "CodeSystem",
	cst.KindInstanceDecl:   "Instance",
}

// fieldDecls returns every top-level declaration whose kind appears in
// declKindLabel, i.e. the resource-like declarations field-presence and
// metadata rules apply to.
func fieldDecls(model *semantic.Model) []ast.Decl {
	var out []ast.Decl
	for _, d := range model.Document().Declarations() {
		if _, ok := declKindLabel[d.Kind()]; ok {
			out = append(out, d)
		}
	}
	return out
}

// hasCaretField reports whether d has a CaretRule whose field name
// matches field (e.g. "context", "publisher", "contact").
func hasCaretField(d ast.Decl, field string) bool {
	for _, r := range d.Rules() {
		if r.Kind() != cst.KindCaretRule {
			continue
		}
		toks := r.Node.ChildTokens()
		for i, t := range toks {
			if t.Kind != cst.KindCaret {
				continue
			}
			for j := i + 1; j < len(toks); j++ {
				if toks[j].Kind.IsTrivia() {
					continue
				}
				if toks[j].Kind == cst.KindIdent && toks[j].Text == field {
					return true
				}
				break
			}
		}
	}
	return false
}
