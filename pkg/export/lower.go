package export

import (
	"strings"

	"github.com/fshlint/fshlint/pkg/ast"
	"github.com/fshlint/fshlint/pkg/cst"
)

// lowerResult is the outcome of lowering one declaration's rule list into
// a differential plus any root-level caret metadata (spec.md §4.I "at
// root path → StructureDefinition-level metadata, noted but applied at a
// higher scope" — carried here as CaretValues for the caller to decide).
type lowerResult struct {
	Elements    []ElementDefinition
	CaretValues map[string]any
	Warnings    []string
}

// lowerRules walks decl's rules in source order, building a differential
// element list keyed by FHIR path. resourceType prefixes every path
// (spec.md §4.I path-joining). isExtensionContainer additionally marks
// "extension"/"modifierExtension" contains-items as extension slices.
func lowerRules(decl ast.Decl, req Request, resourceType string) lowerResult {
	res := lowerResult{CaretValues: map[string]any{}}
	cardSeen := map[string]bool{}

	for _, rule := range decl.Rules() {
		switch rule.Kind() {
		case cst.KindCardRule:
			path := fullPath(resourceType, rule.Path())
			if cardSeen[path] {
				res.Warnings = append(res.Warnings, "duplicate cardinality rule for "+path+", last one wins")
			}
			cardSeen[path] = true
			el := findOrCreate(&res.Elements, path)
			min, max, ok := rule.Cardinality()
			if ok {
				m := min
				el.Min = &m
				el.Max = max
			}
			applyFlags(el, rule.Flags(), &res.Warnings, path)

		case cst.KindFlagRule:
			path := fullPath(resourceType, rule.Path())
			el := findOrCreate(&res.Elements, path)
			applyFlags(el, rule.Flags(), &res.Warnings, path)

		case cst.KindValueSetRule:
			path := fullPath(resourceType, rule.Path())
			el := findOrCreate(&res.Elements, path)
			ref, strength := rule.ValueSetRef()
			if strength == "" {
				strength = "required"
			}
			el.Binding = &Binding{Strength: strength, ValueSet: resolveValueSetURL(req, ref)}

		case cst.KindFixedValueRule:
			path := fullPath(resourceType, rule.Path())
			el := findOrCreate(&res.Elements, path)
			key, val := patternValue(rule.FixedValueText())
			el.PatternKey = key
			el.Pattern = val

		case cst.KindOnlyRule:
			path := fullPath(resourceType, rule.Path())
			el := findOrCreate(&res.Elements, path)
			types := rule.Types()
			if len(types) == 0 {
				res.Warnings = append(res.Warnings, "only rule at "+path+" produced no types")
				continue
			}
			refs := make([]TypeRef, len(types))
			for i, t := range types {
				refs[i] = TypeRef{Code: t}
			}
			el.Type = refs

		case cst.KindContainsRule:
			path := rule.Path()
			full := fullPath(resourceType, path)
			isExtension := path == "extension" || path == "modifierExtension" ||
				strings.HasSuffix(path, ".extension") || strings.HasSuffix(path, ".modifierExtension")
			for _, item := range rule.ContainsItems() {
				itemPath := full + ":" + item.Name
				el := findOrCreate(&res.Elements, itemPath)
				el.SliceName = item.Name
				el.Short = "Slice: " + item.Name
				if item.Max != "" || item.Min != 0 {
					min := item.Min
					el.Min = &min
					el.Max = item.Max
				}
				applyFlags(el, item.Flags, &res.Warnings, itemPath)
				if isExtension {
					el.Type = []TypeRef{{Code: "Extension", Profile: []string{resolveValueSetURL(req, item.Name)}}}
				}
			}

		case cst.KindObeysRule:
			path := fullPath(resourceType, rule.Path())
			el := findOrCreate(&res.Elements, path)
			for _, key := range rule.ObeysKeys() {
				if hasConstraint(el.Constraint, key) {
					continue
				}
				el.Constraint = append(el.Constraint, Constraint{Key: key, Severity: "error"})
			}

		case cst.KindCaretRule:
			path := rule.Path()
			applyCaret(&res, resourceType, path, rule)
		}
	}

	return res
}

func fullPath(resourceType, path string) string {
	if path == "" {
		return resourceType
	}
	path = slicePath(path)
	if strings.HasPrefix(path, resourceType+".") || path == resourceType {
		return path
	}
	return resourceType + "." + path
}

func findOrCreate(elements *[]ElementDefinition, path string) *ElementDefinition {
	for i := range *elements {
		if (*elements)[i].Path == path {
			return &(*elements)[i]
		}
	}
	idx := len(*elements)
	for i, e := range *elements {
		if e.Path > path {
			idx = i
			break
		}
	}
	*elements = append(*elements, ElementDefinition{})
	copy((*elements)[idx+1:], (*elements)[idx:])
	(*elements)[idx] = ElementDefinition{ID: path, Path: path}
	return &(*elements)[idx]
}

func applyFlags(el *ElementDefinition, flags []string, warnings *[]string, path string) {
	for _, f := range flags {
		switch strings.ToUpper(f) {
		case "MS":
			el.MustSupport = true
		case "SU":
			el.IsSummary = true
		case "?!":
			el.IsModifier = true
		default:
			*warnings = append(*warnings, "unknown flag \""+f+"\" at "+path)
		}
	}
}

func hasConstraint(cs []Constraint, key string) bool {
	for _, c := range cs {
		if c.Key == key {
			return true
		}
	}
	return false
}

func resolveValueSetURL(req Request, ref string) string {
	resolved := resolveSystem(req, ref)
	if strings.HasPrefix(resolved, "http://") || strings.HasPrefix(resolved, "https://") {
		return resolved
	}
	return canonicalURL(req.Config.CanonicalBase, "ValueSet", resolved)
}

// applyCaret records a CaretRule. A path-less caret ("* ^field = value")
// targets StructureDefinition-root metadata; a path-led caret targets the
// named element's metadata fields (short/definition/comment).
func applyCaret(res *lowerResult, resourceType, path string, rule ast.Rule) {
	value := rule.FixedValueText()
	field := caretField(rule)
	if path == "" {
		res.CaretValues[field] = value
		return
	}
	el := findOrCreate(&res.Elements, fullPath(resourceType, path))
	switch field {
	case "short":
		el.Short = value
	case "definition":
		el.Definition = value
	case "comment":
		el.Comment = value
	}
}

// caretField extracts the first identifier after a CaretRule's leading
// '^' token, the field name a caret assignment targets.
func caretField(rule ast.Rule) string {
	seenCaret := false
	for _, t := range rule.Node.ChildTokens() {
		if t.Kind == cst.KindCaret {
			seenCaret = true
			continue
		}
		if seenCaret && t.Kind == cst.KindIdent {
			return t.Text
		}
	}
	return ""
}
