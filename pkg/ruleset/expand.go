package ruleset

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fshlint/fshlint/internal/xerrors"
	"github.com/fshlint/fshlint/pkg/ast"
	"github.com/fshlint/fshlint/pkg/cst"
)

var placeholderRe = regexp.MustCompile(`\{(\d+)\}`)

// substitute replaces every `{N}` placeholder in text with args[N],
// leaving an out-of-range or malformed placeholder untouched (spec.md
// §4.G "parameters may appear as `{pN}`-like placeholders").
func substitute(text string, args []string) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || n < 0 || n >= len(args) {
			return m
		}
		return args[n]
	})
}

// Result is the outcome of expanding one insert site.
type Result struct {
	Text     string
	Expanded bool
	Err      error
}

// Site identifies a single `* insert Name(args)` occurrence outside any
// RuleSet body, for batch expansion via ExpandAll.
type Site struct {
	File string
	Rule ast.Rule
}

// Expander resolves insert sites against a collected Definition table.
type Expander struct {
	defs map[string]Definition
	log  *zap.Logger
}

// NewExpander builds an Expander over defs, logging non-fatal warnings
// (unknown ruleset, cycle, arity mismatch) to log if non-nil.
func NewExpander(defs map[string]Definition, log *zap.Logger) *Expander {
	return &Expander{defs: defs, log: log}
}

// ExpandRule expands a top-level insert rule. A missing ruleset or a
// cycle is non-fatal: Result.Expanded is false and Err names the reason,
// leaving the caller free to keep the insert's original source text
// (spec.md §4.G "the insert remains unexpanded, and analysis continues").
func (e *Expander) ExpandRule(rule ast.Rule) Result {
	text, err := e.expand(rule.InsertName(), InsertArgs(rule), nil)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Text: text, Expanded: true}
}

// ExpandAll expands every insert site found across docs, skipping
// RuleSet declarations themselves (their own inserts are only reachable
// recursively, from whichever other ruleset inserts them).
func ExpandAll(docs map[string]ast.Document, defs map[string]Definition, log *zap.Logger) map[Site]Result {
	e := NewExpander(defs, log)
	out := make(map[Site]Result)
	for file, doc := range docs {
		for _, decl := range doc.Declarations() {
			if decl.Kind() == cst.KindRuleSetDecl {
				continue
			}
			for _, rule := range decl.Rules() {
				if rule.Kind() != cst.KindInsertRule && rule.Kind() != cst.KindCodeInsertRule {
					continue
				}
				out[Site{File: file, Rule: rule}] = e.ExpandRule(rule)
			}
		}
	}
	return out
}

// ParseExpanded re-lexes a Result's substituted text as a RuleSet body so
// its rules become ordinary ast.Rule nodes a declaration can splice into
// its own rule list for export. This is the one deliberate re-lex point
// in the expander: the substitution step itself stays purely textual
// (spec.md §9), but the final, fully-substituted text must still become
// real CST nodes before anything downstream can walk it.
func ParseExpanded(text string) []ast.Rule {
	tree := cst.Parse("RuleSet: _expanded\n" + text)
	doc := ast.NewDocument(tree.Root())
	for _, decl := range doc.Declarations() {
		if decl.Kind() == cst.KindRuleSetDecl {
			return decl.Rules()
		}
	}
	return nil
}

func (e *Expander) expand(name string, args []string, active []string) (string, error) {
	for _, a := range active {
		if a == name {
			if e.log != nil {
				e.log.Warn("ruleset expansion cycle",
					zap.String("name", name), zap.Strings("stack", active))
			}
			return "", fmt.Errorf("%w: %s", xerrors.ErrRuleSetCycle, name)
		}
	}
	def, ok := e.defs[name]
	if !ok {
		if e.log != nil {
			e.log.Warn("unknown ruleset", zap.String("name", name))
		}
		return "", fmt.Errorf("%w: %s", xerrors.ErrUnknownRuleSet, name)
	}
	if len(args) != len(def.Params) && e.log != nil {
		e.log.Warn("ruleset arity mismatch",
			zap.String("name", name), zap.Int("want", len(def.Params)), zap.Int("got", len(args)))
	}
	nextActive := append(append([]string(nil), active...), name)

	var sb strings.Builder
	for _, rule := range def.Body {
		if rule.Kind != cst.KindInsertRule && rule.Kind != cst.KindCodeInsertRule {
			sb.WriteString(substitute(rule.Text, args))
			continue
		}
		innerArgs := make([]string, len(rule.InsertArgs))
		for i, a := range rule.InsertArgs {
			innerArgs[i] = substitute(a, args)
		}
		expanded, err := e.expand(rule.InsertName, innerArgs, nextActive)
		if errors.Is(err, xerrors.ErrRuleSetCycle) {
			// A cycle anywhere below leaves the whole insert unexpanded.
			return "", err
		}
		if err != nil {
			// Any other nested failure stays non-fatal: fall back to the
			// insert's own unexpanded source line.
			sb.WriteString(rule.Text)
			continue
		}
		sb.WriteString(expanded)
	}
	return sb.String(), nil
}
