package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/fshlint/pkg/ast"
	"github.com/fshlint/fshlint/pkg/cst"
)

func TestDocumentDeclarationsAndClauses(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\nId: my-patient\nTitle: \"My Patient\"\n* name 1..1 MS\n* gender 0..1\n"
	tree := cst.Parse(src)
	doc := ast.NewDocument(tree.Root())
	decls := doc.Declarations()
	require.Len(t, decls, 1)

	profile := decls[0]
	assert.Equal(t, "MyPatient", profile.Name())

	parent, ok := profile.Parent()
	require.True(t, ok)
	assert.Equal(t, "Patient", parent)

	id, ok := profile.ID()
	require.True(t, ok)
	assert.Equal(t, "my-patient", id)

	title, ok := profile.Title()
	require.True(t, ok)
	assert.Equal(t, "My Patient", title)

	rules := profile.Rules()
	require.Len(t, rules, 2)
	min, max, ok := rules[0].Cardinality()
	require.True(t, ok)
	assert.Equal(t, 1, min)
	assert.Equal(t, "1", max)
	assert.Contains(t, rules[0].Flags(), "MS")
	assert.Equal(t, "name", rules[0].Path())
}

func TestAliasView(t *testing.T) {
	src := "Alias: sct = http://snomed.info/sct\n"
	tree := cst.Parse(src)
	doc := ast.NewDocument(tree.Root())
	decls := doc.Declarations()
	require.Len(t, decls, 1)
	av := decls[0].AsAlias()
	assert.Equal(t, "sct", av.Name())
	assert.Equal(t, "http://snomed.info/sct", av.URL())
}

func TestOnlyRuleTypes(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n* onset[x] only dateTime or Age\n"
	tree := cst.Parse(src)
	root := tree.Root()
	var rule ast.Rule
	for _, d := range root.Descendants() {
		if d.Kind() == cst.KindOnlyRule {
			rule = ast.Rule{Node: d}
		}
	}
	require.Equal(t, cst.KindOnlyRule, rule.Kind())
	types := rule.Types()
	assert.ElementsMatch(t, []string{"dateTime", "Age"}, types)
}

func TestFixedValueText(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n* status = #final\n"
	tree := cst.Parse(src)
	root := tree.Root()
	var rule ast.Rule
	for _, d := range root.Descendants() {
		if d.Kind() == cst.KindFixedValueRule {
			rule = ast.Rule{Node: d}
		}
	}
	assert.Equal(t, cst.KindCodeValue, rule.ValueKind())
	assert.Equal(t, "#final", rule.FixedValueText())
}
