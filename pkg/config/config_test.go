package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"**/*.fsh"}, cfg.Files.Include)
	assert.Equal(t, []string{"node_modules/**", "target/**"}, cfg.Files.Exclude)
	assert.Equal(t, []string{".fshlintignore"}, cfg.Files.IgnoreFiles)
	assert.Equal(t, "4.0.1", cfg.Env.FhirVersion)
	assert.Equal(t, 2, cfg.Formatter.IndentSize)
	assert.Equal(t, 100, cfg.Formatter.MaxLineWidth)
	assert.True(t, cfg.Formatter.AlignCarets)
	assert.True(t, cfg.Autofix.EnableSafe)
	assert.False(t, cfg.Autofix.EnableUnsafe)
	assert.Equal(t, "input/fsh", cfg.Build.InputDir)
	assert.Equal(t, "fsh-generated", cfg.Build.OutputDir)
	assert.True(t, cfg.Build.UseCache)
	assert.NoError(t, Validate(cfg))
}

func TestDiscoverWalksUpToParent(t *testing.T) {
	tmp := t.TempDir()
	subDir := filepath.Join(tmp, "ig", "input", "fsh")
	require.NoError(t, os.MkdirAll(subDir, 0o755))
	fshFile := filepath.Join(subDir, "patient.fsh")
	require.NoError(t, os.WriteFile(fshFile, []byte("Profile: X"), 0o644))

	t.Run("no config file found", func(t *testing.T) {
		assert.Equal(t, "", Discover(fshFile))
	})

	t.Run("config in parent directory", func(t *testing.T) {
		configPath := filepath.Join(tmp, "ig", ".fshlintrc.toml")
		require.NoError(t, os.WriteFile(configPath, []byte("rules_dir = []"), 0o644))
		defer os.Remove(configPath)

		assert.Equal(t, configPath, Discover(fshFile))
	})

	t.Run("prefers .fshlintrc over .fshlintrc.toml", func(t *testing.T) {
		preferred := filepath.Join(tmp, "ig", ".fshlintrc")
		other := filepath.Join(tmp, "ig", ".fshlintrc.toml")
		require.NoError(t, os.WriteFile(preferred, []byte(""), 0o644))
		require.NoError(t, os.WriteFile(other, []byte(""), 0o644))
		defer os.Remove(preferred)
		defer os.Remove(other)

		assert.Equal(t, preferred, Discover(fshFile))
	})
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "fshlint.toml")
	content := `
rules_dir = ["custom-rules"]

[formatter]
indent_size = 4

[build]
canonical = "http://example.org/fhir"
version = "1.0.0"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(tmp, configPath, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"custom-rules"}, cfg.RulesDir)
	assert.Equal(t, 4, cfg.Formatter.IndentSize)
	assert.Equal(t, 100, cfg.Formatter.MaxLineWidth, "unset keys keep their default")
	assert.Equal(t, "http://example.org/fhir", cfg.Build.Canonical)
	assert.Equal(t, []string{"**/*.fsh"}, cfg.Files.Include, "unset files.include keeps its default")
}

func TestLoadJSONConfig(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "fshlint.json")
	content := `{"build": {"canonical": "http://example.org/fhir", "fsh_only": true}}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(tmp, configPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/fhir", cfg.Build.Canonical)
	assert.True(t, cfg.Build.FshOnly)
}

func TestLoadJSONConfigDetectedByLeadingBrace(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, ".fshlintrc")
	content := `{"build": {"canonical": "http://example.org/fhir"}}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(tmp, configPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/fhir", cfg.Build.Canonical)
}

func TestLoadAppliesCLIOverrides(t *testing.T) {
	cfg, err := Load("", "", map[string]any{
		"build": map[string]any{"strict_mode": true},
	})
	require.NoError(t, err)
	assert.True(t, cfg.Build.StrictMode)
}

func TestLoadRejectsInvalidFormatterBounds(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "fshlint.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[formatter]\nindent_size = 20\n"), 0o644))

	_, err := Load(tmp, configPath, nil)
	assert.Error(t, err)
}

func TestValidateRejectsBadFhirVersion(t *testing.T) {
	cfg := Default()
	cfg.Env.FhirVersion = "not-a-version"
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsEmptyOverrideGlob(t *testing.T) {
	cfg := Default()
	cfg.Overrides = []Override{{Files: "", Config: Default()}}
	assert.Error(t, Validate(cfg))
}

func TestForFileAppliesMatchingOverride(t *testing.T) {
	base := Default()
	base.Formatter.IndentSize = 2
	override := &Config{Formatter: FormatterConfig{IndentSize: 4}}
	base.Overrides = []Override{
		{Files: "vendor/**/*.fsh", Config: override},
	}

	resolved := ForFile(base, "vendor/hl7/extension.fsh")
	assert.Equal(t, 4, resolved.Formatter.IndentSize)

	untouched := ForFile(base, "input/fsh/patient.fsh")
	assert.Equal(t, 2, untouched.Formatter.IndentSize)
}

func TestDependencyVersionHandlesBothShapes(t *testing.T) {
	assert.Equal(t, "6.1.0", DependencyVersion("6.1.0"))
	assert.Equal(t, "6.1.0", DependencyVersion(map[string]any{"version": "6.1.0", "id": "hl7.fhir.us.core"}))
	assert.Equal(t, "", DependencyVersion(nil))
}
