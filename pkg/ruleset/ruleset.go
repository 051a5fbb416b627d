// Package ruleset implements the two-phase RuleSet expander (spec.md
// §4.G): Collect gathers every `RuleSet: Name(params)` declaration
// across a build into a Definition table; Expand substitutes arguments
// textually into a stored body's `{N}` placeholders, and ParseExpanded
// re-lexes the substituted text into rules.
package ruleset

import (
	"strings"

	"go.uber.org/zap"

	"github.com/fshlint/fshlint/pkg/ast"
	"github.com/fshlint/fshlint/pkg/cst"
)

// BodyRule is one rule of a collected RuleSet body. Ordinary rules keep
// their raw source text; insert rules keep their target name and raw
// (unsubstituted) argument texts so a nested insert can itself be
// expanded once its placeholders are resolved against the outer scope.
type BodyRule struct {
	Kind       cst.Kind
	Text       string
	InsertName string
	InsertArgs []string
}

// Definition is a collected RuleSet declaration.
type Definition struct {
	Name   string
	File   string
	Params []string
	Body   []BodyRule
}

// Collect scans every document's declarations for RuleSet definitions.
// A name seen more than once keeps the latest declaration; the
// collision is logged rather than rejected, matching the "log and
// continue" stance spec.md applies to alias collisions.
func Collect(docs map[string]ast.Document, log *zap.Logger) map[string]Definition {
	defs := make(map[string]Definition)
	for file, doc := range docs {
		for _, decl := range doc.Declarations() {
			if decl.Kind() != cst.KindRuleSetDecl {
				continue
			}
			name := decl.Name()
			if name == "" {
				continue
			}
			if _, exists := defs[name]; exists && log != nil {
				log.Warn("ruleset redefined",
					zap.String("name", name), zap.String("file", file))
			}
			defs[name] = Definition{
				Name:   name,
				File:   file,
				Params: paramNames(decl.Node),
				Body:   bodyRules(decl),
			}
		}
	}
	return defs
}

func paramNames(declNode *cst.RedNode) []string {
	list := declNode.FirstChildOfKind(cst.KindRuleSetParamList)
	if list == nil {
		return nil
	}
	var out []string
	for _, p := range list.ChildrenOfKind(cst.KindRuleSetParam) {
		out = append(out, paramToken(p))
	}
	return out
}

func bodyRules(decl ast.Decl) []BodyRule {
	var out []BodyRule
	for _, r := range decl.Rules() {
		if r.Kind() == cst.KindInsertRule || r.Kind() == cst.KindCodeInsertRule {
			out = append(out, BodyRule{
				Kind:       r.Kind(),
				Text:       r.Node.Text(),
				InsertName: r.InsertName(),
				InsertArgs: insertArgTokens(r),
			})
			continue
		}
		out = append(out, BodyRule{Kind: r.Kind(), Text: r.Node.Text()})
	}
	return out
}

// paramToken returns a single RuleSetParam node's name, unwrapping
// `[[...]]` bracketed-parameter delimiters when present.
func paramToken(node *cst.RedNode) string {
	for _, t := range node.ChildTokens() {
		switch t.Kind {
		case cst.KindBracketedParam:
			return unwrapBracketed(t.Text)
		case cst.KindPlainParam:
			return strings.TrimSpace(t.Text)
		}
	}
	return ""
}

// InsertArgs returns an InsertRule's/CodeInsertRule's argument texts in
// source order, with `[[...]]` delimiters stripped from any bracketed
// argument (the lexer's parameter-context mode already splits these into
// individual Plain/Bracketed tokens, so no comma-splitting is needed here).
func InsertArgs(rule ast.Rule) []string {
	args := rule.Node.FirstChildOfKind(cst.KindInsertArgs)
	if args == nil {
		return nil
	}
	return insertArgTokensFromNode(args)
}

func insertArgTokens(r ast.Rule) []string {
	args := r.Node.FirstChildOfKind(cst.KindInsertArgs)
	if args == nil {
		return nil
	}
	return insertArgTokensFromNode(args)
}

func insertArgTokensFromNode(args *cst.RedNode) []string {
	var out []string
	for _, t := range args.ChildTokens() {
		switch t.Kind {
		case cst.KindBracketedParam:
			out = append(out, unwrapBracketed(t.Text))
		case cst.KindPlainParam:
			out = append(out, strings.TrimSpace(t.Text))
		}
	}
	return out
}

func unwrapBracketed(text string) string {
	text = strings.TrimPrefix(text, "[[")
	text = strings.TrimSuffix(text, "]]")
	return text
}
