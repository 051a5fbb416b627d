package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/fshlint/pkg/cst"
	"github.com/fshlint/fshlint/pkg/diagnostic"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/rules"
	"github.com/fshlint/fshlint/pkg/semantic"
)

func buildModel(t *testing.T, src string) *semantic.Model {
	t.Helper()
	tree := cst.Parse(src)
	return semantic.Build("a.fsh", src, tree, semantic.NewAliasTable(nil), semantic.NewSymbolTable(), semantic.NewDeferredRuleQueue())
}

func TestEngineRunsASTRule(t *testing.T) {
	r := rules.NewRegistry(nil)
	called := false
	check := func(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
		called = true
		return []diagnostic.Diagnostic{{RuleID: "always-fires", Severity: diagnostic.SeverityWarning, Message: "hit"}}
	}
	require.NoError(t, r.Register(rules.CompiledRule{
		Rule:  rules.Rule{ID: "always-fires", Description: "d", IsASTRule: true, Severity: diagnostic.SeverityWarning},
		Check: check,
	}))
	engine := rules.NewEngine(r, rules.EngineConfig{}, nil)
	model := buildModel(t, "Profile: P\nParent: Patient\n")
	diags, err := engine.Run(model, "Profile: P\nParent: Patient\n", nil)
	require.NoError(t, err)
	assert.True(t, called)
	require.Len(t, diags, 1)
	assert.Equal(t, "always-fires", diags[0].RuleID)
}

func TestEngineSkipsDisabledRule(t *testing.T) {
	r := rules.NewRegistry(nil)
	check := func(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
		return []diagnostic.Diagnostic{{RuleID: "disabled-rule"}}
	}
	require.NoError(t, r.Register(rules.CompiledRule{
		Rule:  rules.Rule{ID: "disabled-rule", Description: "d", IsASTRule: true},
		Check: check,
	}))
	engine := rules.NewEngine(r, rules.EngineConfig{DisabledRules: map[string]bool{"disabled-rule": true}}, nil)
	model := buildModel(t, "Profile: P\nParent: Patient\n")
	diags, err := engine.Run(model, "", nil)
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestEngineMaxDiagnosticsPerRuleCutoff(t *testing.T) {
	r := rules.NewRegistry(nil)
	check := func(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
		return []diagnostic.Diagnostic{{RuleID: "noisy"}, {RuleID: "noisy"}, {RuleID: "noisy"}}
	}
	require.NoError(t, r.Register(rules.CompiledRule{Rule: rules.Rule{ID: "noisy", Description: "d", IsASTRule: true}, Check: check}))
	engine := rules.NewEngine(r, rules.EngineConfig{MaxDiagnosticsPerRule: 1}, nil)
	model := buildModel(t, "Profile: P\nParent: Patient\n")
	diags, err := engine.Run(model, "", nil)
	require.NoError(t, err)
	assert.Len(t, diags, 1)
}

func TestEngineIsolatesRulePanicWithoutFailFast(t *testing.T) {
	r := rules.NewRegistry(nil)
	panicking := func(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
		panic("boom")
	}
	require.NoError(t, r.Register(rules.CompiledRule{Rule: rules.Rule{ID: "aaa-panics", Description: "d", IsASTRule: true}, Check: panicking}))
	require.NoError(t, r.Register(astRule("zzz-ok", 1)))
	engine := rules.NewEngine(r, rules.EngineConfig{}, nil)
	model := buildModel(t, "Profile: P\nParent: Patient\n")
	_, err := engine.Run(model, "", nil)
	assert.NoError(t, err)
}

func TestEngineFailFastReturnsError(t *testing.T) {
	r := rules.NewRegistry(nil)
	panicking := func(model *semantic.Model, fish *fishing.Context, deferred *semantic.DeferredRuleQueue) []diagnostic.Diagnostic {
		panic("boom")
	}
	require.NoError(t, r.Register(rules.CompiledRule{Rule: rules.Rule{ID: "panics", Description: "d", IsASTRule: true}, Check: panicking}))
	engine := rules.NewEngine(r, rules.EngineConfig{FailFast: true}, nil)
	model := buildModel(t, "Profile: P\nParent: Patient\n")
	_, err := engine.Run(model, "", nil)
	assert.Error(t, err)
}

func TestEnginePatternRuleMatchesSourceText(t *testing.T) {
	r := rules.NewRegistry(nil)
	require.NoError(t, r.Register(rules.CompiledRule{
		Rule:    rules.Rule{ID: "pattern-todo", Description: "flags TODO markers", Severity: diagnostic.SeverityInfo},
		Matcher: rules.Matcher{Pattern: `TODO:`},
	}))
	engine := rules.NewEngine(r, rules.EngineConfig{}, nil)
	src := "Profile: P\nParent: Patient\nDescription: \"TODO: fill in\"\n"
	model := buildModel(t, src)
	diags, err := engine.Run(model, src, nil)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "pattern-todo", diags[0].RuleID)
	assert.Greater(t, diags[0].Location.Line, 0)
}
