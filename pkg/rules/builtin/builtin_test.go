package builtin_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/fshlint/pkg/cst"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/rules/builtin"
	"github.com/fshlint/fshlint/pkg/semantic"
)

func buildModel(t *testing.T, src string) *semantic.Model {
	t.Helper()
	tree := cst.Parse(src)
	return semantic.Build("a.fsh", src, tree, semantic.NewAliasTable(nil), semantic.NewSymbolTable(), semantic.NewDeferredRuleQueue())
}

func TestRequiredIdRuleFlagsMissingId(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\nTitle: \"My Patient\"\n* name 1..1 MS\n"
	model := buildModel(t, src)
	diags := builtin.RequiredIdRule().Check(model, nil, model.DeferredRules)
	require.Len(t, diags, 1)
	assert.Equal(t, "blocking/required-id", diags[0].RuleID)
}

func TestRequiredTitleRuleFlagsMissingTitle(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\nId: my-patient\n* name 1..1 MS\n"
	model := buildModel(t, src)
	diags := builtin.RequiredTitleRule().Check(model, nil, model.DeferredRules)
	require.Len(t, diags, 1)
	assert.Equal(t, "blocking/required-title", diags[0].RuleID)
}

func TestRequiredParentRuleFlagsMissingParent(t *testing.T) {
	src := "Profile: MyPatient\nId: my-patient\nTitle: \"My Patient\"\n* name 1..1 MS\n"
	model := buildModel(t, src)
	diags := builtin.RequiredParentRule().Check(model, nil, model.DeferredRules)
	require.Len(t, diags, 1)
	assert.Equal(t, "blocking/required-parent", diags[0].RuleID)
}

func TestRequiredFieldsPassWhenComplete(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\nId: my-patient\nTitle: \"My Patient\"\n* name 1..1 MS\n"
	model := buildModel(t, src)
	assert.Empty(t, builtin.RequiredIdRule().Check(model, nil, model.DeferredRules))
	assert.Empty(t, builtin.RequiredTitleRule().Check(model, nil, model.DeferredRules))
	assert.Empty(t, builtin.RequiredParentRule().Check(model, nil, model.DeferredRules))
}

// TestRequiredFieldAutofixScenario exercises the required-field autofix
// scenario end to end: a bare Profile declaration with no Id, Title, or
// Description should raise exactly the three distinctly-IDed diagnostics
// blocking/required-id, blocking/required-title, and
// documentation/missing-description, with safe suggestions that rebuild
// the literal header text.
func TestRequiredFieldAutofixScenario(t *testing.T) {
	src := "Profile: MyProfile\nParent: Patient\n"
	model := buildModel(t, src)

	idDiags := builtin.RequiredIdRule().Check(model, nil, model.DeferredRules)
	require.Len(t, idDiags, 1)
	assert.Equal(t, "blocking/required-id", idDiags[0].RuleID)
	require.Len(t, idDiags[0].Suggestions, 1)
	assert.Equal(t, "Id: my-profile\n", idDiags[0].Suggestions[0].Replacement)

	titleDiags := builtin.RequiredTitleRule().Check(model, nil, model.DeferredRules)
	require.Len(t, titleDiags, 1)
	assert.Equal(t, "blocking/required-title", titleDiags[0].RuleID)
	require.Len(t, titleDiags[0].Suggestions, 1)
	assert.Equal(t, "Title: \"My Profile\"\n", titleDiags[0].Suggestions[0].Replacement)

	descDiags := builtin.MissingDescriptionRule().Check(model, nil, model.DeferredRules)
	require.Len(t, descDiags, 1)
	assert.Equal(t, "documentation/missing-description", descDiags[0].RuleID)
	require.Len(t, descDiags[0].Suggestions, 1)
	assert.Equal(t, "Description: \"TODO: Add description for MyProfile\"\n", descDiags[0].Suggestions[0].Replacement)

	assert.Empty(t, builtin.RequiredParentRule().Check(model, nil, model.DeferredRules))
}

func TestMissingDescriptionRule(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\nId: my-patient\nTitle: \"My Patient\"\n"
	model := buildModel(t, src)
	diags := builtin.MissingDescriptionRule().Check(model, nil, model.DeferredRules)
	require.Len(t, diags, 1)
	assert.Equal(t, "documentation/missing-description", diags[0].RuleID)
	require.Len(t, diags[0].Suggestions, 1)
	assert.Equal(t, "Description: \"TODO: Add description for MyPatient\"\n", diags[0].Suggestions[0].Replacement)
}

func TestExtensionContextMissing(t *testing.T) {
	src := "Extension: MyExt\nId: my-ext\nTitle: \"My Ext\"\nDescription: \"d\"\n* value[x] only string\n"
	model := buildModel(t, src)
	diags := builtin.ExtensionContextMissingRule().Check(model, nil, model.DeferredRules)
	require.Len(t, diags, 1)
	assert.Equal(t, "correctness/extension-context-missing", diags[0].RuleID)
}

func TestExtensionContextPresent(t *testing.T) {
	src := "Extension: MyExt\nId: my-ext\nTitle: \"My Ext\"\nDescription: \"d\"\n* ^context[+].type = #element\n* value[x] only string\n"
	model := buildModel(t, src)
	diags := builtin.ExtensionContextMissingRule().Check(model, nil, model.DeferredRules)
	assert.Empty(t, diags)
}

func TestInvalidCardinalityMinGreaterThanMax(t *testing.T) {
	src := "Profile: P\nParent: Patient\n* name 2..1\n"
	model := buildModel(t, src)
	diags := builtin.InvalidCardinalityRule().Check(model, nil, model.DeferredRules)
	require.Len(t, diags, 1)
	assert.Equal(t, "correctness/invalid-cardinality", diags[0].RuleID)
}

func TestInvalidCardinalityStarIsAllowed(t *testing.T) {
	src := "Profile: P\nParent: Patient\n* name 0..*\n"
	model := buildModel(t, src)
	diags := builtin.InvalidCardinalityRule().Check(model, nil, model.DeferredRules)
	assert.Empty(t, diags)
}

func TestBindingStrengthPresentInvalidStrength(t *testing.T) {
	src := "Profile: P\nParent: Observation\n* code from MyVS (notastrength)\n"
	model := buildModel(t, src)
	diags := builtin.BindingStrengthPresentRule().Check(model, nil, model.DeferredRules)
	require.Len(t, diags, 1)
	assert.Equal(t, "correctness/binding-strength-present", diags[0].RuleID)
}

func TestBindingStrengthPresentValidStrengthPasses(t *testing.T) {
	src := "Profile: P\nParent: Observation\n* code from MyVS (required)\n"
	model := buildModel(t, src)
	diags := builtin.BindingStrengthPresentRule().Check(model, nil, model.DeferredRules)
	assert.Empty(t, diags)
}

func TestDuplicateDefinitionFlagsRepeatedName(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\nId: a\n" +
		"Profile: MyPatient\nParent: Patient\nId: b\n"
	model := buildModel(t, src)
	diags := builtin.DuplicateDefinitionRule().Check(model, nil, model.DeferredRules)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "MyPatient")
}

func TestInstanceRequiredFieldsMissing(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\n* name 1..1 MS\n" +
		"Instance: Example1\nInstanceOf: MyPatient\n* gender = #male\n"
	model := buildModel(t, src)
	diags := builtin.InstanceRequiredFieldsMissingRule().Check(model, nil, model.DeferredRules)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "name")
}

func TestInstanceRequiredFieldsSatisfiedByChildPath(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\n* name 1..1 MS\n" +
		"Instance: Example1\nInstanceOf: MyPatient\n* name.family = \"Smith\"\n"
	model := buildModel(t, src)
	diags := builtin.InstanceRequiredFieldsMissingRule().Check(model, nil, model.DeferredRules)
	assert.Empty(t, diags)
}

func TestProfileWithoutExamples(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\n"
	model := buildModel(t, src)
	diags := builtin.ProfileWithoutExamplesRule().Check(model, nil, model.DeferredRules)
	require.Len(t, diags, 1)
	assert.Equal(t, "style/profile-without-examples", diags[0].RuleID)
}

func TestProfileWithExampleInstancePasses(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\n" +
		"Instance: Example1\nInstanceOf: MyPatient\n* gender = #male\n"
	model := buildModel(t, src)
	diags := builtin.ProfileWithoutExamplesRule().Check(model, nil, model.DeferredRules)
	assert.Empty(t, diags)
}

func TestNamingConventionFlagsNonPascalName(t *testing.T) {
	src := "Profile: my_patient\nParent: Patient\nId: MyPatient\n"
	model := buildModel(t, src)
	diags := builtin.NamingConventionRule().Check(model, nil, model.DeferredRules)
	require.Len(t, diags, 2) // name not PascalCase, id not kebab-case
}

func TestMissingMetadataRule(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\n"
	model := buildModel(t, src)
	diags := builtin.MissingMetadataRule().Check(model, nil, model.DeferredRules)
	assert.Len(t, diags, 4) // Description, Title, Publisher, Contact
}

type fakeSession struct {
	body json.RawMessage
}

func (f *fakeSession) ResolveStructureDefinition(ctx context.Context, url string) (json.RawMessage, bool, error) {
	return f.body, f.body != nil, nil
}
func (f *fakeSession) EnsurePackages(ctx context.Context, coords []fishing.PackageCoordinate) error {
	return nil
}

func TestRequiredFieldOverrideFlagsWeakenedCardinality(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\n* name 0..1\n"
	model := buildModel(t, src)
	sd := `{"differential":{"element":[{"path":"name","min":1}]}}`
	sess := &fakeSession{body: json.RawMessage(sd)}
	fc := fishing.NewContext(model.Aliases, func(ctx context.Context) (fishing.CanonicalSession, error) { return sess, nil }, nil)
	diags := builtin.RequiredFieldOverrideRule().Check(model, fc, model.DeferredRules)
	require.Len(t, diags, 1)
	assert.Equal(t, "correctness/required-field-override", diags[0].RuleID)
}

func TestRequiredFieldOverrideNoFishingContextIsNoop(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\n* name 0..1\n"
	model := buildModel(t, src)
	diags := builtin.RequiredFieldOverrideRule().Check(model, nil, model.DeferredRules)
	assert.Empty(t, diags)
}

func TestAllReturnsThirteenRules(t *testing.T) {
	assert.Len(t, builtin.All(), 13)
}

func TestPackMetadataIsValid(t *testing.T) {
	pack := builtin.Pack()
	assert.Equal(t, "builtin", pack.Metadata.Name)
	assert.NotEmpty(t, pack.Rules)
}
