package ruleset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/fshlint/internal/xerrors"
	"github.com/fshlint/fshlint/pkg/ast"
	"github.com/fshlint/fshlint/pkg/cst"
	"github.com/fshlint/fshlint/pkg/ruleset"
)

func parse(t *testing.T, src string) ast.Document {
	t.Helper()
	tree := cst.Parse(src)
	return ast.NewDocument(tree.Root())
}

func insertRule(t *testing.T, doc ast.Document) ast.Rule {
	t.Helper()
	for _, decl := range doc.Declarations() {
		for _, r := range decl.Rules() {
			if r.Kind() == cst.KindInsertRule || r.Kind() == cst.KindCodeInsertRule {
				return r
			}
		}
	}
	t.Fatal("no insert rule found")
	return ast.Rule{}
}

func TestCollectGathersRuleSetParamsAndBody(t *testing.T) {
	doc := parse(t, "RuleSet: Vitals(status)\n* code = \"{0}\"\n")
	defs := ruleset.Collect(map[string]ast.Document{"a.fsh": doc}, nil)

	def, ok := defs["Vitals"]
	require.True(t, ok)
	assert.Equal(t, []string{"status"}, def.Params)
	require.Len(t, def.Body, 1)
	assert.Contains(t, def.Body[0].Text, "{0}")
}

func TestExpandRuleSubstitutesPositionalArgs(t *testing.T) {
	doc := parse(t, "RuleSet: Vitals(status)\n* code = \"{0}\"\n")
	defs := ruleset.Collect(map[string]ast.Document{"a.fsh": doc}, nil)

	usage := parse(t, "Profile: P\nParent: Patient\n* insert Vitals(#active)\n")
	rule := insertRule(t, usage)

	expander := ruleset.NewExpander(defs, nil)
	result := expander.ExpandRule(rule)

	require.True(t, result.Expanded)
	require.NoError(t, result.Err)
	assert.Contains(t, result.Text, "#active")
}

func TestExpandRuleUnknownRuleSetIsNonFatal(t *testing.T) {
	defs := ruleset.Collect(map[string]ast.Document{}, nil)
	usage := parse(t, "Profile: P\nParent: Patient\n* insert Missing(#x)\n")
	rule := insertRule(t, usage)

	result := ruleset.NewExpander(defs, nil).ExpandRule(rule)
	assert.False(t, result.Expanded)
	assert.ErrorIs(t, result.Err, xerrors.ErrUnknownRuleSet)
}

func TestExpandRuleDetectsCycle(t *testing.T) {
	a := parse(t, "RuleSet: A\n* insert B()\n")
	b := parse(t, "RuleSet: B\n* insert A()\n")
	defs := ruleset.Collect(map[string]ast.Document{"a.fsh": a, "b.fsh": b}, nil)

	usage := parse(t, "Profile: P\nParent: Patient\n* insert A()\n")
	rule := insertRule(t, usage)

	result := ruleset.NewExpander(defs, nil).ExpandRule(rule)
	assert.False(t, result.Expanded)
	assert.ErrorIs(t, result.Err, xerrors.ErrRuleSetCycle)
}

func TestExpandRuleRecursesIntoNestedInsert(t *testing.T) {
	inner := parse(t, "RuleSet: Inner(v)\n* code = \"{0}\"\n")
	outer := parse(t, "RuleSet: Outer(x)\n* insert Inner({0})\n")
	defs := ruleset.Collect(map[string]ast.Document{"inner.fsh": inner, "outer.fsh": outer}, nil)

	usage := parse(t, "Profile: P\nParent: Patient\n* insert Outer(#final)\n")
	rule := insertRule(t, usage)

	result := ruleset.NewExpander(defs, nil).ExpandRule(rule)
	require.True(t, result.Expanded)
	assert.Contains(t, result.Text, "#final")
}

func TestExpandAllCollectsEverySiteAcrossDocs(t *testing.T) {
	def := parse(t, "RuleSet: Vitals(status)\n* code = \"{0}\"\n")
	usage := parse(t, "Profile: P\nParent: Patient\n* insert Vitals(#active)\n")
	docs := map[string]ast.Document{"def.fsh": def, "usage.fsh": usage}

	defs := ruleset.Collect(docs, nil)
	results := ruleset.ExpandAll(docs, defs, nil)

	require.Len(t, results, 1)
	for _, r := range results {
		assert.True(t, r.Expanded)
		assert.Contains(t, r.Text, "#active")
	}
}

func TestParseExpandedReturnsSpliceableRules(t *testing.T) {
	rules := ruleset.ParseExpanded("* status = #active\n* ^short = \"x\"\n")
	require.Len(t, rules, 2)
	assert.Equal(t, cst.KindFixedValueRule, rules[0].Kind())
	assert.Equal(t, cst.KindCaretRule, rules[1].Kind())
}

func TestInsertArgsUnwrapsBracketedParameter(t *testing.T) {
	usage := parse(t, "Profile: P\nParent: Patient\n* insert Vitals([[a, b]])\n")
	rule := insertRule(t, usage)
	args := ruleset.InsertArgs(rule)
	require.Len(t, args, 1)
	assert.Equal(t, "a, b", args[0])
}
