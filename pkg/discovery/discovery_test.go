package discovery_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/fshlint/pkg/config"
	"github.com/fshlint/fshlint/pkg/discovery"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalkerDiscoversIncludedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patient.fsh"), "Profile: X")
	writeFile(t, filepath.Join(root, "nested", "extension.fsh"), "Extension: Y")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignore me")

	files := config.FilesConfig{Include: []string{"**/*.fsh"}}
	results, err := discovery.NewWalker().Discover(root, files)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, results[0]+results[1], "patient.fsh")
}

func TestWalkerHonorsExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patient.fsh"), "Profile: X")
	writeFile(t, filepath.Join(root, "node_modules", "vendor.fsh"), "Profile: V")

	files := config.FilesConfig{
		Include: []string{"**/*.fsh"},
		Exclude: []string{"node_modules/**"},
	}
	results, err := discovery.NewWalker().Discover(root, files)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "patient.fsh")
}

func TestWalkerHonorsIgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patient.fsh"), "Profile: X")
	writeFile(t, filepath.Join(root, "draft.fsh"), "Profile: D")
	writeFile(t, filepath.Join(root, ".fshlintignore"), "# comment\ndraft.fsh\n")

	files := config.FilesConfig{
		Include:     []string{"**/*.fsh"},
		IgnoreFiles: []string{".fshlintignore"},
	}
	results, err := discovery.NewWalker().Discover(root, files)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "patient.fsh")
}

func TestWalkerDeduplicatesOverlappingIncludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patient.fsh"), "Profile: X")

	files := config.FilesConfig{Include: []string{"**/*.fsh", "patient.fsh"}}
	results, err := discovery.NewWalker().Discover(root, files)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
