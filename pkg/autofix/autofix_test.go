package autofix_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/fshlint/internal/xerrors"
	"github.com/fshlint/fshlint/pkg/autofix"
	"github.com/fshlint/fshlint/pkg/diagnostic"
)

func loc(file string, offset, length uint32) diagnostic.Location {
	return diagnostic.Location{File: file, Offset: offset, Length: length, Line: 1, Column: 1}
}

func TestGenerateFixesRejectsOversizedReplacement(t *testing.T) {
	big := make([]byte, 1001)
	for i := range big {
		big[i] = 'a'
	}
	diags := []diagnostic.Diagnostic{{
		RuleID: "r1",
		Suggestions: []diagnostic.CodeSuggestion{{
			Replacement:   string(big),
			Location:      loc("a.fsh", 0, 1),
			Applicability: diagnostic.ApplicabilityAlways,
		}},
	}}
	fixes, errs := autofix.GenerateFixes(diags)
	assert.Empty(t, fixes)
	require.Len(t, errs, 1)
}

func TestGenerateFixesRejectsDangerousReplacement(t *testing.T) {
	diags := []diagnostic.Diagnostic{{
		RuleID: "r1",
		Suggestions: []diagnostic.CodeSuggestion{{
			Replacement:   `Title: "x"; eval(danger)`,
			Location:      loc("a.fsh", 0, 1),
			Applicability: diagnostic.ApplicabilityAlways,
		}},
	}}
	fixes, errs := autofix.GenerateFixes(diags)
	assert.Empty(t, fixes)
	require.Len(t, errs, 1)
}

func TestGenerateFixesAcceptsSafeSuggestion(t *testing.T) {
	diags := []diagnostic.Diagnostic{{
		RuleID: "missing-description",
		Suggestions: []diagnostic.CodeSuggestion{{
			Replacement:   "Description: \"d\"\n",
			Location:      loc("a.fsh", 10, 0),
			Applicability: diagnostic.ApplicabilityAlways,
		}},
	}}
	fixes, errs := autofix.GenerateFixes(diags)
	require.Empty(t, errs)
	require.Len(t, fixes, 1)
	assert.True(t, fixes[0].IsSafe())
	assert.Equal(t, diagnostic.PrioritySafe, fixes[0].Priority)
}

func TestGenerateFromTemplates(t *testing.T) {
	diags := []diagnostic.Diagnostic{{RuleID: "naming-convention", Location: loc("a.fsh", 0, 0)}}
	templates := map[string]autofix.Template{
		"naming-convention": {RuleID: "naming-convention", Replacement: "X", Safe: false},
	}
	fixes, errs := autofix.GenerateFromTemplates(diags, templates)
	require.Empty(t, errs)
	require.Len(t, fixes, 1)
	assert.False(t, fixes[0].IsSafe())
}

func TestFilterBySafetyDropsUnsafeByDefault(t *testing.T) {
	fixes := []diagnostic.Fix{
		{Applicability: diagnostic.ApplicabilityAlways},
		{Applicability: diagnostic.ApplicabilityMaybeIncorrect},
	}
	out := autofix.FilterBySafety(fixes, false, false)
	assert.Len(t, out, 1)
}

func TestFilterBySafetyKeepsUnsafeWhenApplyUnsafe(t *testing.T) {
	fixes := []diagnostic.Fix{
		{Applicability: diagnostic.ApplicabilityAlways},
		{Applicability: diagnostic.ApplicabilityMaybeIncorrect},
	}
	out := autofix.FilterBySafety(fixes, true, false)
	assert.Len(t, out, 2)
}

func TestResolveConflictsOverlappingRangesPicksHigherScore(t *testing.T) {
	fixes := []diagnostic.Fix{
		{ID: "a", File: "f.fsh", RuleID: "r1", Location: diagnostic.Location{Offset: 0, Length: 5}, Applicability: diagnostic.ApplicabilityAlways, Priority: diagnostic.PrioritySafe},
		{ID: "b", File: "f.fsh", RuleID: "r2", Location: diagnostic.Location{Offset: 2, Length: 3}, Applicability: diagnostic.ApplicabilityMaybeIncorrect, Priority: diagnostic.PriorityUnsafe},
	}
	resolved := autofix.ResolveConflicts(fixes)
	require.Len(t, resolved, 1)
	assert.Equal(t, "a", resolved[0].ID)
}

func TestResolveConflictsSameRuleWithinTwoLinesCluster(t *testing.T) {
	fixes := []diagnostic.Fix{
		{ID: "a", File: "f.fsh", RuleID: "dup", Location: diagnostic.Location{Offset: 0, Length: 0, Line: 1}, Applicability: diagnostic.ApplicabilityAlways},
		{ID: "b", File: "f.fsh", RuleID: "dup", Location: diagnostic.Location{Offset: 100, Length: 0, Line: 2}, Applicability: diagnostic.ApplicabilityAlways},
	}
	resolved := autofix.ResolveConflicts(fixes)
	assert.Len(t, resolved, 1)
}

func TestResolveConflictsNonOverlappingKeepsBoth(t *testing.T) {
	fixes := []diagnostic.Fix{
		{ID: "a", File: "f.fsh", RuleID: "r1", Location: diagnostic.Location{Offset: 0, Length: 5, Line: 1}, Applicability: diagnostic.ApplicabilityAlways},
		{ID: "b", File: "f.fsh", RuleID: "r2", Location: diagnostic.Location{Offset: 50, Length: 5, Line: 20}, Applicability: diagnostic.ApplicabilityAlways},
	}
	resolved := autofix.ResolveConflicts(fixes)
	assert.Len(t, resolved, 2)
}

func TestApplyToFileWritesSelectedFixes(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.fsh")
	content := "Profile: MyPatient\nParent: Patient\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	fixes := []diagnostic.Fix{{
		ID: "f1", File: file, RuleID: "required-field-present",
		Replacement:   "Id: my-patient\n",
		Location:      diagnostic.Location{Offset: uint32(len(content)), Length: 0},
		Applicability: diagnostic.ApplicabilityAlways,
	}}

	engine := autofix.NewEngine(nil, nil)
	result, err := engine.ApplyToFile(file, fixes, autofix.Config{ValidateSyntax: true})
	require.NoError(t, err)
	assert.True(t, result.Written)
	require.Len(t, result.AppliedFixes, 1)

	written, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(written), "Id: my-patient")
}

func TestApplyToFileDryRunDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.fsh")
	content := "Profile: MyPatient\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	fixes := []diagnostic.Fix{{
		ID: "f1", File: file, RuleID: "r1",
		Replacement:   "X",
		Location:      diagnostic.Location{Offset: 0, Length: 0},
		Applicability: diagnostic.ApplicabilityAlways,
	}}

	engine := autofix.NewEngine(nil, nil)
	result, err := engine.ApplyToFile(file, fixes, autofix.Config{DryRun: true})
	require.NoError(t, err)
	assert.False(t, result.Written)
	assert.Contains(t, result.Modified, "X")

	unchanged, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, content, string(unchanged))
}

func TestApplyToFileRefusesOutOfBoundsFix(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.fsh")
	content := "short"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	fixes := []diagnostic.Fix{{
		ID: "f1", File: file, RuleID: "r1",
		Replacement:   "X",
		Location:      diagnostic.Location{Offset: 100, Length: 1},
		Applicability: diagnostic.ApplicabilityAlways,
	}}

	engine := autofix.NewEngine(nil, nil)
	result, err := engine.ApplyToFile(file, fixes, autofix.Config{})
	require.NoError(t, err)
	require.Len(t, result.FailedFixes, 1)
	assert.ErrorIs(t, result.Errors[0], xerrors.ErrFixOutOfBounds)
}

func TestApplyToFileSkipsUnsafeWithoutPrompterInInteractiveMode(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.fsh")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	fixes := []diagnostic.Fix{{
		ID: "f1", File: file, RuleID: "r1",
		Replacement:   "y",
		Location:      diagnostic.Location{Offset: 0, Length: 1},
		Applicability: diagnostic.ApplicabilityMaybeIncorrect,
	}}

	engine := autofix.NewEngine(nil, nil)
	result, err := engine.ApplyToFile(file, fixes, autofix.Config{Interactive: true})
	require.NoError(t, err)
	assert.Len(t, result.SkippedFixes, 1)
	assert.Empty(t, result.AppliedFixes)
}

func TestValidateFSHSyntaxDetectsUnbalancedBrackets(t *testing.T) {
	err := autofix.ValidateFSHSyntax("Profile: P\n* ^context[+].type = #element\n")
	assert.NoError(t, err)

	err = autofix.ValidateFSHSyntax("Profile: P\n* value[x only string\n")
	assert.Error(t, err)
}

func TestValidateFSHSyntaxIgnoresComments(t *testing.T) {
	err := autofix.ValidateFSHSyntax("Profile: P // unbalanced ( here\n")
	assert.NoError(t, err)
}

func TestRollbackPlanExecuteRestoresContent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.fsh")
	original := "Profile: P\n"
	require.NoError(t, os.WriteFile(file, []byte(original), 0o644))

	// The fix is written first; the plan is built from the completed run.
	require.NoError(t, os.WriteFile(file, []byte("Profile: Changed\n"), 0o644))
	results := []autofix.FileResult{{File: file, Original: original, Written: true}}
	plan := autofix.NewRollbackPlan(results)

	require.NoError(t, plan.Execute())
	restored, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, original, string(restored))
}

func TestRollbackPlanIsValidFalseAfterExternalModification(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.fsh")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0o644))

	results := []autofix.FileResult{{File: file, Original: "v1", Written: true}}
	plan := autofix.NewRollbackPlan(results)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(file, future, future))

	assert.False(t, plan.IsValid())
}

func TestUnifiedDiffRendersHunkHeader(t *testing.T) {
	diff, err := autofix.UnifiedDiff("a.fsh", "line1\nline2\n", "line1\nchanged\n")
	require.NoError(t, err)
	assert.Contains(t, diff, "@@")
	assert.Contains(t, diff, "-line2")
	assert.Contains(t, diff, "+changed")
}

func TestStatsRecordAll(t *testing.T) {
	stats := autofix.NewStats()
	stats.RecordAll([]autofix.FileResult{
		{
			Written:      true,
			AppliedFixes: []diagnostic.Fix{{RuleID: "r1", Applicability: diagnostic.ApplicabilityAlways}},
			FailedFixes:  []diagnostic.Fix{{RuleID: "r2", Applicability: diagnostic.ApplicabilityMaybeIncorrect}},
		},
	})
	assert.Equal(t, 1, stats.FilesModified)
	assert.Equal(t, 1, stats.AppliedSafe)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.ByRule["r1"].Applied)
	assert.Equal(t, 1, stats.ByRule["r2"].Failed)
}
