package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/fshlint/pkg/rules"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestDiscoverRuleFilesRespectsIncludeExcludeAndExcludedDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rule.json", "{}")
	writeFile(t, dir, "sub/b.rule.json", "{}")
	writeFile(t, dir, "node_modules/c.rule.json", "{}")
	writeFile(t, dir, ".hidden.rule.json", "{}")
	writeFile(t, dir, "sub/skip.txt", "nope")

	found, err := rules.DiscoverRuleFiles([]string{dir}, rules.DiscoveryOptions{
		Recursive:    true,
		IncludeGlobs: []string{"**/*.rule.json"},
	})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	for _, f := range found {
		assert.NotContains(t, f, "node_modules")
		assert.NotContains(t, f, ".hidden")
	}
}

func TestDiscoverRuleFilesNonRecursiveSkipsSubdirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rule.json", "{}")
	writeFile(t, dir, "sub/b.rule.json", "{}")

	found, err := rules.DiscoverRuleFiles([]string{dir}, rules.DiscoveryOptions{
		Recursive:    false,
		IncludeGlobs: []string{"*.rule.json"},
	})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestDiscoverPackManifests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "packs/core/pack.json", `{"name":"core","version":"1.0.0"}`)
	writeFile(t, dir, "packs/extra/rulePack.json", `{"name":"extra","version":"2.0.0"}`)
	writeFile(t, dir, "packs/extra/readme.md", "x")

	found, err := rules.DiscoverPackManifests([]string{dir})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestParseManifestJSON(t *testing.T) {
	meta, deps, entry, err := rules.ParseManifestJSON([]byte(`{"name":"core","version":"1.2.0","priority":5,"can_override":true,"dependencies":[{"name":"base","version":"1.0"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "core", meta.Name)
	assert.Equal(t, "1.2.0", meta.Version)
	require.Len(t, deps, 1)
	assert.Equal(t, "base", deps[0].Name)
	assert.EqualValues(t, 5, entry.Priority)
	assert.True(t, entry.CanOverride)
}
