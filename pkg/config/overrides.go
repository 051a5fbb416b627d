package config

import (
	"github.com/bmatcuk/doublestar/v4"
)

// ForFile resolves the effective configuration for one source file,
// applying every override whose glob matches relPath in list order
// (later overrides win on conflicting keys), per the supplemented
// "overrides glob application" behavior: overrides are resolved per
// file at analysis time rather than merely parsed and discarded.
func ForFile(base *Config, relPath string) *Config {
	effective := base
	for _, ov := range base.Overrides {
		if ov.Config == nil {
			continue
		}
		matched, err := doublestar.Match(ov.Files, relPath)
		if err != nil || !matched {
			continue
		}
		effective = mergeOverride(effective, ov.Config)
	}
	return effective
}

// mergeOverride layers override on top of base, field by field, with a
// zero-value override field leaving the base value untouched - mirroring
// the original implementation's "override replaces base only where it
// differs from the type's zero value" merge semantics.
func mergeOverride(base *Config, override *Config) *Config {
	merged := *base

	if len(override.Files.Include) > 0 {
		merged.Files.Include = override.Files.Include
	}
	if len(override.Files.Exclude) > 0 {
		merged.Files.Exclude = override.Files.Exclude
	}
	if len(override.Files.IgnoreFiles) > 0 {
		merged.Files.IgnoreFiles = override.Files.IgnoreFiles
	}
	if len(override.RulesDir) > 0 {
		merged.RulesDir = append(append([]string{}, base.RulesDir...), override.RulesDir...)
	}
	if len(override.Rules) > 0 {
		merged.Rules = make(map[string]RuleConfig, len(base.Rules)+len(override.Rules))
		for id, rc := range base.Rules {
			merged.Rules[id] = rc
		}
		for id, rc := range override.Rules {
			merged.Rules[id] = rc
		}
	}
	if override.Env.FhirVersion != "" {
		merged.Env.FhirVersion = override.Env.FhirVersion
	}
	if len(override.Env.ContextPaths) > 0 {
		merged.Env.ContextPaths = append(append([]string{}, base.Env.ContextPaths...), override.Env.ContextPaths...)
	}
	if override.Formatter.IndentSize != 0 {
		merged.Formatter.IndentSize = override.Formatter.IndentSize
	}
	if override.Formatter.MaxLineWidth != 0 {
		merged.Formatter.MaxLineWidth = override.Formatter.MaxLineWidth
	}
	if override.Formatter.AlignCarets != base.Formatter.AlignCarets {
		merged.Formatter.AlignCarets = override.Formatter.AlignCarets
	}
	if override.Autofix.EnableSafe != base.Autofix.EnableSafe {
		merged.Autofix.EnableSafe = override.Autofix.EnableSafe
	}
	if override.Autofix.EnableUnsafe != base.Autofix.EnableUnsafe {
		merged.Autofix.EnableUnsafe = override.Autofix.EnableUnsafe
	}

	return &merged
}
