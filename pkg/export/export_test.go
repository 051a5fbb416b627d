package export_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/fshlint/pkg/ast"
	"github.com/fshlint/fshlint/pkg/cst"
	"github.com/fshlint/fshlint/pkg/export"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/semantic"
)

func parseDecl(t *testing.T, src string) ast.Decl {
	t.Helper()
	tree := cst.Parse(src)
	doc := ast.NewDocument(tree.Root())
	decls := doc.Declarations()
	require.NotEmpty(t, decls)
	return decls[0]
}

func testConfig() export.Config {
	return export.Config{
		CanonicalBase: "http://example.org/fhir",
		Version:       "1.0.0",
		Status:        "draft",
		Publisher:     "Acme",
		FhirVersion:   "4.0.1",
	}
}

func TestExportProfileBuildsDifferentialElements(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\nId: my-patient\nTitle: \"My Patient\"\nDescription: \"d\"\n" +
		"* name 1..1 MS\n* gender from http://hl7.org/fhir/ValueSet/administrative-gender\n"
	decl := parseDecl(t, src)
	ctx := fishing.NewContext(semantic.NewAliasTable(nil), nil, nil)

	req := export.Request{Decl: decl, File: "a.fsh", Config: testConfig(), Fishing: ctx}
	res, err := export.ExportProfile(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "StructureDefinition", res.ResourceType)
	assert.Equal(t, "my-patient", res.ID)

	var sd map[string]any
	require.NoError(t, json.Unmarshal(res.Body, &sd))
	assert.Equal(t, "http://hl7.org/fhir/StructureDefinition/Patient", sd["baseDefinition"])
	diff := sd["differential"].(map[string]any)
	elements := diff["element"].([]any)
	require.Len(t, elements, 2)
	first := elements[0].(map[string]any)
	assert.Equal(t, "Patient.name", first["path"])
	assert.Equal(t, true, first["mustSupport"])
}

func TestExportProfileWarnsOnUnresolvedParent(t *testing.T) {
	src := "Profile: MyThing\nParent: SomeBase\nId: my-thing\n"
	decl := parseDecl(t, src)
	ctx := fishing.NewContext(semantic.NewAliasTable(nil), nil, nil)

	res, err := export.ExportProfile(context.Background(), export.Request{Decl: decl, Config: testConfig(), Fishing: ctx})
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
}

func TestExportExtensionLowersContextClause(t *testing.T) {
	src := "Extension: FavoriteColor\nId: favorite-color\nTitle: \"Favorite Color\"\nDescription: \"d\"\n" +
		"Context: Patient\n* value[x] only string\n"
	decl := parseDecl(t, src)
	ctx := fishing.NewContext(semantic.NewAliasTable(nil), nil, nil)

	res, err := export.ExportExtension(context.Background(), export.Request{Decl: decl, Config: testConfig(), Fishing: ctx})
	require.NoError(t, err)

	var sd map[string]any
	require.NoError(t, json.Unmarshal(res.Body, &sd))
	assert.Equal(t, "complex-type", sd["kind"])
	assert.Equal(t, "Extension", sd["type"])
	context := sd["context"].([]any)
	require.Len(t, context, 1)
	entry := context[0].(map[string]any)
	assert.Equal(t, "Patient", entry["expression"])
}

func TestExportExtensionWarnsWithoutContext(t *testing.T) {
	src := "Extension: NoContext\nId: no-context\n* value[x] only string\n"
	decl := parseDecl(t, src)
	ctx := fishing.NewContext(semantic.NewAliasTable(nil), nil, nil)

	res, err := export.ExportExtension(context.Background(), export.Request{Decl: decl, Config: testConfig(), Fishing: ctx})
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, "extension has no Context: clause")
}

func TestExportValueSetBuildsComposeIncludeFromConceptsAndFilters(t *testing.T) {
	src := "ValueSet: MyVS\nId: my-vs\n" +
		"* #active \"Active\" from AdminGenderVS\n" +
		"* include codes from system AdministrativeGender\n"
	decl := parseDecl(t, src)

	res, err := export.ExportValueSet(context.Background(), export.Request{Decl: decl, Config: testConfig()})
	require.NoError(t, err)
	assert.Equal(t, "ValueSet", res.ResourceType)

	var vs map[string]any
	require.NoError(t, json.Unmarshal(res.Body, &vs))
	compose := vs["compose"].(map[string]any)
	include := compose["include"].([]any)
	require.Len(t, include, 2)
}

func TestExportCodeSystemBuildsConceptListAndFlagsDuplicates(t *testing.T) {
	src := "CodeSystem: MyCS\nId: my-cs\n" +
		"* #active \"Active\" \"An active state\"\n" +
		"* #active \"Active again\"\n"
	decl := parseDecl(t, src)

	res, err := export.ExportCodeSystem(context.Background(), export.Request{Decl: decl, Config: testConfig()})
	require.NoError(t, err)

	var cs map[string]any
	require.NoError(t, json.Unmarshal(res.Body, &cs))
	assert.Equal(t, "complete", cs["content"])
	concepts := cs["concept"].([]any)
	require.Len(t, concepts, 2)
	require.NotEmpty(t, res.Warnings)
}

func TestExportInstanceAssignsFixedValuesIntoResourceTree(t *testing.T) {
	src := "Instance: Example1\nInstanceOf: Patient\nId: example-1\n" +
		"* gender = #male\n* active = true\n* name[0].family = \"Smith\"\n"
	decl := parseDecl(t, src)

	res, err := export.ExportInstance(context.Background(), export.Request{Decl: decl, Config: testConfig()})
	require.NoError(t, err)
	assert.Equal(t, "Patient", res.ResourceType)
	assert.Equal(t, "example-1", res.ID)

	var instance map[string]any
	require.NoError(t, json.Unmarshal(res.Body, &instance))
	assert.Equal(t, "male", instance["gender"])
	assert.Equal(t, true, instance["active"])
	names := instance["name"].([]any)
	require.Len(t, names, 1)
	assert.Equal(t, "Smith", names[0].(map[string]any)["family"])
}

func TestExportInstanceResolvesReferenceToAnotherInstance(t *testing.T) {
	src := "Instance: Example2\nInstanceOf: Observation\nId: example-2\n" +
		"* subject = Reference(OtherPatient)\n"
	decl := parseDecl(t, src)

	fc := fishing.NewContext(semantic.NewAliasTable(nil), nil, nil)
	fc.RegisterLocal(fishing.FhirResource{
		Kind:         semantic.DeclInstance,
		Name:         "OtherPatient",
		ResourceType: "Patient",
		ID:           "other-patient",
	})

	res, err := export.ExportInstance(context.Background(), export.Request{Decl: decl, Config: testConfig(), Fishing: fc})
	require.NoError(t, err)

	var instance map[string]any
	require.NoError(t, json.Unmarshal(res.Body, &instance))
	subject := instance["subject"].(map[string]any)
	assert.Equal(t, "Patient/other-patient", subject["reference"])
}

func TestExportInstanceReferenceFallsBackToNameWhenUnresolved(t *testing.T) {
	src := "Instance: Example3\nInstanceOf: Observation\nId: example-3\n" +
		"* subject = Reference(UnknownInstance)\n"
	decl := parseDecl(t, src)

	fc := fishing.NewContext(semantic.NewAliasTable(nil), nil, nil)

	res, err := export.ExportInstance(context.Background(), export.Request{Decl: decl, Config: testConfig(), Fishing: fc})
	require.NoError(t, err)

	var instance map[string]any
	require.NoError(t, json.Unmarshal(res.Body, &instance))
	subject := instance["subject"].(map[string]any)
	assert.Equal(t, "UnknownInstance", subject["reference"])
}

func TestExportInstanceRequiresInstanceOf(t *testing.T) {
	src := "Instance: Bare\nId: bare\n* gender = #male\n"
	tree := cst.Parse(src)
	doc := ast.NewDocument(tree.Root())
	decls := doc.Declarations()
	require.NotEmpty(t, decls)

	_, err := export.ExportInstance(context.Background(), export.Request{Decl: decls[0], Config: testConfig()})
	assert.Error(t, err)
}
