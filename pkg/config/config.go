// Package config implements the layered configuration contract of
// spec.md §6: defaults, an optional JSON or TOML config file, and CLI
// overrides merged through koanf into a single typed Config.
package config

import (
	"github.com/fshlint/fshlint/pkg/diagnostic"
)

// FilesConfig controls which files are discovered and scanned (spec.md
// §6 "files.include"/"files.exclude"/"files.ignore_files").
type FilesConfig struct {
	Include     []string `koanf:"include"`
	Exclude     []string `koanf:"exclude"`
	IgnoreFiles []string `koanf:"ignore_files"`
}

// RuleConfig is one entry of the "rules" map: an optional severity
// override and a bag of rule-specific options.
type RuleConfig struct {
	Severity diagnostic.Severity `koanf:"severity"`
	Options  map[string]any      `koanf:"options"`
}

// Override applies a nested config to files matching a glob (spec.md
// §6 "overrides: List [{files: glob, config: Config}]"). Config is a
// pointer so the type is not infinitely recursive; an override with a
// nil Config applies no changes.
type Override struct {
	Files  string  `koanf:"files"`
	Config *Config `koanf:"config"`
}

// Environment carries the target FHIR version and any extra context
// paths a build should fish resources from.
type Environment struct {
	FhirVersion  string   `koanf:"fhir_version"`
	ContextPaths []string `koanf:"context_paths"`
}

// FormatterConfig controls the formatter's layout decisions.
type FormatterConfig struct {
	IndentSize   int  `koanf:"indent_size"`
	MaxLineWidth int  `koanf:"max_line_width"`
	AlignCarets  bool `koanf:"align_carets"`
}

// AutofixConfig gates which autofix tiers run.
type AutofixConfig struct {
	EnableSafe   bool `koanf:"enable_safe"`
	EnableUnsafe bool `koanf:"enable_unsafe"`
}

// BuildConfig is the Implementation Guide build's metadata and behavior
// toggles (spec.md §6 "build.*"). Dependencies holds each entry as
// decoded from the raw config map, since a value may be either a bare
// version string or an object with a version and extra metadata; use
// DependencyVersion to read the resolved version regardless of shape.
type BuildConfig struct {
	InputDir          string         `koanf:"input_dir"`
	OutputDir         string         `koanf:"output_dir"`
	Canonical         string         `koanf:"canonical"`
	Version           string         `koanf:"version"`
	Status            string         `koanf:"status"`
	ID                string         `koanf:"id"`
	Publisher         string         `koanf:"publisher"`
	Title             string         `koanf:"title"`
	Dependencies      map[string]any `koanf:"dependencies"`
	FhirVersion       []string       `koanf:"fhir_version"`
	FshOnly           bool           `koanf:"fsh_only"`
	GenerateSnapshots bool           `koanf:"generate_snapshots"`
	CleanOutput       bool           `koanf:"clean_output"`
	UseCache          bool           `koanf:"use_cache"`
	RunLinter         bool           `koanf:"run_linter"`
	StrictMode        bool           `koanf:"strict_mode"`
	FormatOnBuild     bool           `koanf:"format_on_build"`
}

// DependencyVersion resolves one "build.dependencies" entry to its
// version string, accepting both the simple ("pkg_id": "1.0.0") and
// complex ("pkg_id": {"version": "1.0.0", ...}) shapes.
func DependencyVersion(entry any) string {
	switch v := entry.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["version"].(string); ok {
			return s
		}
	}
	return ""
}

// Config is the full merged configuration consumed by every stage of the
// build pipeline (spec.md §6 "Configuration (the core consumes, not
// loads)").
type Config struct {
	Files     FilesConfig           `koanf:"files"`
	RulesDir  []string              `koanf:"rules_dir"`
	Rules     map[string]RuleConfig `koanf:"rules"`
	Overrides []Override            `koanf:"overrides"`
	Env       Environment           `koanf:"env"`
	Formatter FormatterConfig       `koanf:"formatter"`
	Autofix   AutofixConfig         `koanf:"autofix"`
	Build     BuildConfig           `koanf:"build"`
}

// Default returns the configuration spec.md §6 documents as each key's
// default, before any file or CLI layer is applied.
func Default() *Config {
	return &Config{
		Files: FilesConfig{
			Include:     []string{"**/*.fsh"},
			Exclude:     []string{"node_modules/**", "target/**"},
			IgnoreFiles: []string{".fshlintignore"},
		},
		Rules: map[string]RuleConfig{},
		Env: Environment{
			FhirVersion: "4.0.1",
		},
		Formatter: FormatterConfig{
			IndentSize:   2,
			MaxLineWidth: 100,
			AlignCarets:  true,
		},
		Autofix: AutofixConfig{
			EnableSafe:   true,
			EnableUnsafe: false,
		},
		Build: BuildConfig{
			InputDir:  "input/fsh",
			OutputDir: "fsh-generated",
			UseCache:  true,
		},
	}
}
