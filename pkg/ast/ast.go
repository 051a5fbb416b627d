// Package ast provides zero-owned typed projections over pkg/cst's red
// tree (spec.md §4.C). An overlay never mutates or copies the tree it
// views; every accessor either returns a primitive (derived from token
// text) or another overlay, and iteration order always follows the red
// tree's child order (source order).
package ast

import (
	"strconv"
	"strings"

	"github.com/fshlint/fshlint/pkg/cst"
)

// Document is the root overlay, one per parsed file.
type Document struct{ Node *cst.RedNode }

// NewDocument casts a parsed tree's root into a Document overlay. It
// never fails: every root is a KindDocument node by construction.
func NewDocument(root *cst.RedNode) Document { return Document{Node: root} }

var declKinds = []cst.Kind{
	cst.KindProfileDecl, cst.KindExtensionDecl, cst.KindValueSetDecl,
	cst.KindCodeSystemDecl, cst.KindInstanceDecl, cst.KindInvariantDecl,
	cst.KindMappingDecl, cst.KindLogicalDecl, cst.KindResourceDecl,
	cst.KindAliasDecl, cst.KindRuleSetDecl,
}

// Declarations returns every top-level declaration overlay, in source order.
func (d Document) Declarations() []Decl {
	var out []Decl
	for _, c := range d.Node.ChildrenOfKind(declKinds...) {
		out = append(out, Decl{Node: c})
	}
	return out
}

// Decl is a typed view over any declaration-kind node (Profile,
// Extension, ValueSet, CodeSystem, Instance, Invariant, Mapping,
// Logical, Resource, Alias, RuleSet).
type Decl struct{ Node *cst.RedNode }

// Kind exposes the underlying declaration kind for a caller that needs
// to dispatch without a full type switch.
func (d Decl) Kind() cst.Kind { return d.Node.Kind() }

// Name returns the first significant Ident-like token after the colon —
// by construction the declaration's name token, since the parser always
// consumes exactly one name token right after `Keyword ':'`.
func (d Decl) Name() string {
	toks := d.Node.ChildTokens()
	seenColon := false
	for _, t := range toks {
		if t.Kind.IsTrivia() {
			continue
		}
		if t.Kind.IsDeclKeyword() {
			continue
		}
		if t.Kind == cst.KindColon {
			seenColon = true
			continue
		}
		if seenColon {
			return t.Text
		}
	}
	return ""
}

// clauseText concatenates the non-trivia, non-keyword token text of the
// first child of kind clauseKind, trimming surrounding space.
func (d Decl) clauseText(clauseKind cst.Kind) (string, bool) {
	clause := d.Node.FirstChildOfKind(clauseKind)
	if clause == nil {
		return "", false
	}
	var sb strings.Builder
	first := true
	for _, t := range clause.ChildTokens() {
		if t.Kind.IsTrivia() || t.Kind.IsKeyword() || t.Kind == cst.KindColon {
			continue
		}
		if !first {
			sb.WriteByte(' ')
		}
		sb.WriteString(unquote(t.Text))
		first = false
	}
	return sb.String(), true
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Parent returns the Parent clause's value, if present.
func (d Decl) Parent() (string, bool) { return d.clauseText(cst.KindParentClause) }

// ID returns the Id clause's value, if present.
func (d Decl) ID() (string, bool) { return d.clauseText(cst.KindIDClause) }

// Title returns the Title clause's value, if present.
func (d Decl) Title() (string, bool) { return d.clauseText(cst.KindTitleClause) }

// Description returns the Description clause's value, if present.
func (d Decl) Description() (string, bool) { return d.clauseText(cst.KindDescriptionClause) }

// InstanceOf returns the InstanceOf clause's value, if present.
func (d Decl) InstanceOf() (string, bool) { return d.clauseText(cst.KindInstanceOfClause) }

// Usage returns the Usage clause's value, if present.
func (d Decl) Usage() (string, bool) { return d.clauseText(cst.KindUsageClause) }

// Contexts returns an Extension's Context clause entries (comma-separated
// context expressions such as "Patient" or "Observation.value[x]"), each
// concatenated verbatim from its token run.
func (d Decl) Contexts() []string {
	clause := d.Node.FirstChildOfKind(cst.KindContextClause)
	if clause == nil {
		return nil
	}
	var out []string
	var sb strings.Builder
	for _, t := range clause.ChildTokens() {
		if t.Kind.IsTrivia() || t.Kind.IsKeyword() || t.Kind == cst.KindColon {
			continue
		}
		if t.Kind == cst.KindComma {
			if sb.Len() > 0 {
				out = append(out, sb.String())
				sb.Reset()
			}
			continue
		}
		sb.WriteString(t.Text)
	}
	if sb.Len() > 0 {
		out = append(out, sb.String())
	}
	return out
}

// Severity returns an Invariant's Severity clause value, if present.
func (d Decl) Severity() (string, bool) { return d.clauseText(cst.KindSeverityClause) }

// Expression returns an Invariant's Expression clause value, if present.
func (d Decl) Expression() (string, bool) { return d.clauseText(cst.KindExpressionClause) }

// XPath returns an Invariant's XPath clause value, if present.
func (d Decl) XPath() (string, bool) { return d.clauseText(cst.KindXPathClause) }

var ruleKinds = []cst.Kind{
	cst.KindCardRule, cst.KindFlagRule, cst.KindValueSetRule, cst.KindOnlyRule,
	cst.KindObeysRule, cst.KindFixedValueRule, cst.KindContainsRule,
	cst.KindCaretRule, cst.KindInsertRule, cst.KindCodeCaretRule,
	cst.KindCodeInsertRule, cst.KindMappingRule, cst.KindAddElementRule,
	cst.KindAddCRElementRule, cst.KindConcept, cst.KindConceptComponent,
	cst.KindFilterComponent,
}

// Rules returns every rule-variant child, tagged-union style, in source
// order (spec.md §4.C).
func (d Decl) Rules() []Rule {
	var out []Rule
	for _, c := range d.Node.ChildrenOfKind(ruleKinds...) {
		out = append(out, Rule{Node: c})
	}
	return out
}

// Rule is a tagged-union view over any `*`-introduced rule node. Callers
// switch on Kind() then use the accessor appropriate to that variant;
// accessors for the wrong variant simply return zero values.
type Rule struct{ Node *cst.RedNode }

func (r Rule) Kind() cst.Kind { return r.Node.Kind() }

// Path reconstructs the dotted path a path-led rule applies to, stripping
// a leading caret if present (e.g. "name.given", "component[slice]").
func (r Rule) Path() string {
	pathNode := r.Node.FirstChildOfKind(cst.KindPath)
	if pathNode == nil {
		return ""
	}
	var sb strings.Builder
	for _, t := range pathNode.DescendantTokens() {
		if t.Kind.IsTrivia() || t.Kind == cst.KindCaret {
			continue
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}

// Cardinality returns a CardRule's min/max, reporting ok=false if either
// side failed to parse (e.g. a syntax error already flagged by the
// parser).
func (r Rule) Cardinality() (min int, max string, ok bool) {
	if r.Kind() != cst.KindCardRule {
		return 0, "", false
	}
	var ints []string
	for _, t := range r.Node.ChildTokens() {
		switch t.Kind {
		case cst.KindIntegerLit:
			ints = append(ints, t.Text)
		case cst.KindStar:
			// The rule's leading '*' comes before the bounds; only a '*'
			// after the min is the max.
			if len(ints) > 0 {
				ints = append(ints, "*")
			}
		}
	}
	if len(ints) < 2 {
		return 0, "", false
	}
	minVal, err := strconv.Atoi(ints[0])
	if err != nil {
		return 0, "", false
	}
	return minVal, ints[1], true
}

// Flags returns the set of flag keywords attached to a FlagRule or
// trailing a CardRule/ContainsItem (MS, SU, TU, N, D).
func (r Rule) Flags() []string {
	var out []string
	for _, t := range r.Node.ChildTokens() {
		if t.Kind.IsFlag() {
			out = append(out, t.Text)
		}
	}
	return out
}

// ValueSetRef returns a ValueSetRule's target and optional binding
// strength.
func (r Rule) ValueSetRef() (ref string, strength string) {
	var afterFrom, inParens bool
	for _, t := range r.Node.ChildTokens() {
		switch {
		case t.Kind == cst.KindKwFrom:
			afterFrom = true
		case t.Kind == cst.KindLParen:
			inParens = true
		case inParens && (t.Kind == cst.KindIdent || t.Kind.IsKeyword()):
			strength = t.Text
		case afterFrom && ref == "" && (t.Kind == cst.KindIdent || t.Kind == cst.KindStringLit):
			ref = unquote(t.Text)
		}
	}
	return ref, strength
}

// Types returns an OnlyRule's alternative type list (the names after
// `only`). Types are collected only after an `only` keyword, so an
// AddElementRule yields nil.
func (r Rule) Types() []string {
	var out []string
	skip := map[cst.Kind]bool{
		cst.KindKwOnly: true, cst.KindKwOr: true, cst.KindStar: true,
	}
	seenKeyword := false
	for _, t := range r.Node.ChildTokens() {
		if t.Kind.IsTrivia() {
			continue
		}
		if t.Kind == cst.KindKwOnly {
			seenKeyword = true
			continue
		}
		if !seenKeyword {
			continue
		}
		if skip[t.Kind] {
			continue
		}
		if t.Kind == cst.KindIdent || t.Kind.IsKeyword() || t.Kind == cst.KindTimeWord || t.Kind == cst.KindDateTimeWord {
			out = append(out, t.Text)
		}
	}
	return out
}

// FixedValueText returns the raw (unquoted where applicable) text of a
// FixedValueRule's or CaretRule's value expression.
func (r Rule) FixedValueText() string {
	for _, child := range r.Node.Children() {
		switch child.Kind() {
		case cst.KindStringValue, cst.KindCodeValue, cst.KindBoolValue,
			cst.KindNumberValue, cst.KindQuantityValue, cst.KindRatioValue,
			cst.KindNameValue, cst.KindRegexValue, cst.KindCanonicalValue,
			cst.KindReferenceValue, cst.KindCodeableReferenceValue:
			var sb strings.Builder
			for _, t := range child.ChildTokens() {
				if t.Kind.IsTrivia() {
					continue
				}
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(unquote(t.Text))
			}
			return sb.String()
		}
	}
	return ""
}

// ValueKind returns the rule's value-expression node kind (e.g.
// KindCodeValue, KindNumberValue), or the zero Kind if the rule has no
// value expression child.
func (r Rule) ValueKind() cst.Kind {
	for _, child := range r.Node.Children() {
		switch child.Kind() {
		case cst.KindStringValue, cst.KindCodeValue, cst.KindBoolValue,
			cst.KindNumberValue, cst.KindQuantityValue, cst.KindRatioValue,
			cst.KindNameValue, cst.KindRegexValue, cst.KindCanonicalValue,
			cst.KindReferenceValue, cst.KindCodeableReferenceValue:
			return child.Kind()
		}
	}
	return cst.KindError
}

// ReferenceTarget returns the declaration name addressed by a
// Reference(...), CodeableReference(...), or bare-identifier value
// expression, so exporters can resolve cross-instance references by name
// rather than exporting the raw token text.
func (r Rule) ReferenceTarget() (string, bool) {
	for _, child := range r.Node.Children() {
		switch child.Kind() {
		case cst.KindReferenceValue, cst.KindCodeableReferenceValue, cst.KindNameValue:
			// Inside Reference(...)/CodeableReference(...) the target is the
			// first identifier after '('; the macro name itself is skipped.
			inArgs := child.Kind() == cst.KindNameValue
			for _, t := range child.ChildTokens() {
				if t.Kind == cst.KindLParen {
					inArgs = true
					continue
				}
				if inArgs && t.Kind == cst.KindIdent {
					return t.Text, true
				}
			}
			return "", false
		}
	}
	return "", false
}

// ContainsItems returns a ContainsRule's item list (name, cardinality
// bound if present, flags).
type ContainsItem struct {
	Name  string
	Min   int
	Max   string
	Flags []string
}

func (r Rule) ContainsItems() []ContainsItem {
	if r.Kind() != cst.KindContainsRule {
		return nil
	}
	var out []ContainsItem
	for _, itemNode := range r.Node.ChildrenOfKind(cst.KindContainsItem) {
		item := ContainsItem{}
		var ints []string
		for _, t := range itemNode.ChildTokens() {
			switch {
			case t.Kind == cst.KindIdent && item.Name == "":
				item.Name = t.Text
			case t.Kind == cst.KindIntegerLit:
				ints = append(ints, t.Text)
			case t.Kind == cst.KindStar:
				ints = append(ints, "*")
			case t.Kind.IsFlag():
				item.Flags = append(item.Flags, t.Text)
			}
		}
		if len(ints) >= 2 {
			if v, err := strconv.Atoi(ints[0]); err == nil {
				item.Min = v
				item.Max = ints[1]
			}
		}
		out = append(out, item)
	}
	return out
}

// ObeysKeys returns an ObeysRule's comma-separated invariant keys.
func (r Rule) ObeysKeys() []string {
	var out []string
	for _, t := range r.Node.ChildTokens() {
		if t.Kind == cst.KindIdent {
			out = append(out, t.Text)
		}
	}
	return out
}

// InsertName returns an InsertRule's/CodeInsertRule's referenced RuleSet
// name.
func (r Rule) InsertName() string {
	seenInsert := false
	for _, t := range r.Node.ChildTokens() {
		if t.Kind == cst.KindKwInsert {
			seenInsert = true
			continue
		}
		if seenInsert && t.Kind == cst.KindIdent {
			return t.Text
		}
	}
	return ""
}

// InsertArgs returns the raw, un-split text of an InsertRule's argument
// list (between the parens), preserved verbatim for RuleSet substitution.
func (r Rule) InsertArgs() string {
	args := r.Node.FirstChildOfKind(cst.KindInsertArgs)
	if args == nil {
		return ""
	}
	return args.Text()
}

// Concept describes a CodeSystem's bare code line (spec.md §4.B
// "CodeSystem body"): a code plus optional display and definition
// strings.
type Concept struct {
	Code       string
	Display    string
	Definition string
}

// AsConcept reads a KindConcept rule's code/display/definition fields.
func (r Rule) AsConcept() Concept {
	var c Concept
	var strs []string
	for _, t := range r.Node.ChildTokens() {
		switch t.Kind {
		case cst.KindCodeLit:
			c.Code = unquote(t.Text)
		case cst.KindStringLit, cst.KindTripleStringLit:
			strs = append(strs, unquote(t.Text))
		}
	}
	if len(strs) > 0 {
		c.Display = strs[0]
	}
	if len(strs) > 1 {
		c.Definition = strs[1]
	}
	return c
}

// ConceptComponent describes one ValueSet concept inclusion/exclusion
// line: a bare code, optional display, and the codesystem/valueset(s)
// it draws from.
type ConceptComponent struct {
	Exclude bool
	Code    string
	Display string
	From    []string
}

// AsConceptComponent reads a KindConceptComponent rule's fields.
func (r Rule) AsConceptComponent() ConceptComponent {
	var c ConceptComponent
	afterFrom := false
	for _, t := range r.Node.ChildTokens() {
		switch {
		case t.Kind == cst.KindKwExclude:
			c.Exclude = true
		case t.Kind == cst.KindKwFrom:
			afterFrom = true
		case t.Kind == cst.KindCodeLit && c.Code == "":
			c.Code = unquote(t.Text)
		case !afterFrom && (t.Kind == cst.KindStringLit || t.Kind == cst.KindTripleStringLit):
			c.Display = unquote(t.Text)
		case afterFrom && (t.Kind == cst.KindIdent || t.Kind == cst.KindStringLit):
			c.From = append(c.From, unquote(t.Text))
		}
	}
	return c
}

// FilterComponentClause is one "property operator value" term of a
// FilterComponent's where clause.
type FilterComponentClause struct {
	Property string
	Operator string
	Value    string
}

// FilterComponent describes a ValueSet "codes from system/valueset
// where ..." line.
type FilterComponent struct {
	Exclude bool
	Systems []string
	From    []string
	Filters []FilterComponentClause
}

// AsFilterComponent reads a KindFilterComponent rule's fields.
func (r Rule) AsFilterComponent() FilterComponent {
	var f FilterComponent
	var lastKeyword cst.Kind
	for _, t := range r.Node.ChildTokens() {
		switch t.Kind {
		case cst.KindKwExclude:
			f.Exclude = true
		case cst.KindKwSystem, cst.KindKwValueset:
			lastKeyword = t.Kind
		case cst.KindIdent:
			switch lastKeyword {
			case cst.KindKwSystem:
				f.Systems = append(f.Systems, t.Text)
			case cst.KindKwValueset:
				f.From = append(f.From, t.Text)
			}
			lastKeyword = cst.KindError
		}
	}
	for _, clauseNode := range r.Node.ChildrenOfKind(cst.KindFilterClause) {
		clause := FilterComponentClause{}
		var idents []string
		for _, t := range clauseNode.ChildTokens() {
			if t.Kind == cst.KindIdent {
				idents = append(idents, t.Text)
			}
		}
		if len(idents) > 0 {
			clause.Property = idents[0]
		}
		if len(idents) > 1 {
			clause.Operator = idents[1]
		}
		for _, child := range clauseNode.Children() {
			var sb strings.Builder
			for _, t := range child.ChildTokens() {
				if t.Kind.IsTrivia() {
					continue
				}
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(unquote(t.Text))
			}
			clause.Value = sb.String()
		}
		f.Filters = append(f.Filters, clause)
	}
	return f
}

// AliasView is a typed projection over an AliasDecl.
type AliasView struct{ Node *cst.RedNode }

// AsAlias views d as an AliasDecl.
func (d Decl) AsAlias() AliasView { return AliasView{Node: d.Node} }

// Name returns the alias's bound name (without the leading '$').
func (a AliasView) Name() string {
	toks := a.Node.ChildTokens()
	seenColon := false
	for _, t := range toks {
		if t.Kind.IsTrivia() {
			continue
		}
		if t.Kind == cst.KindKwAlias {
			continue
		}
		if t.Kind == cst.KindColon {
			seenColon = true
			continue
		}
		if seenColon && t.Kind == cst.KindIdent {
			return t.Text
		}
	}
	return ""
}

// URL returns the alias's bound URL: every token after '=' up to the
// trailing newline, concatenated verbatim (it may span Ident/Colon/Slash
// tokens).
func (a AliasView) URL() string {
	var sb strings.Builder
	seenEquals := false
	for _, t := range a.Node.ChildTokens() {
		if t.Kind == cst.KindEquals {
			seenEquals = true
			continue
		}
		if !seenEquals || t.Kind.IsTrivia() {
			continue
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}
