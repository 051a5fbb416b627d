package builtin

import "github.com/fshlint/fshlint/pkg/rules"

// All returns the core built-in rule catalog spec.md §4.E requires every
// implementation to ship. duplicate-canonical-url and duplicate-identifier
// are listed as reserved/deferrable in the spec and are not included.
func All() []rules.CompiledRule {
	return []rules.CompiledRule{
		RequiredIdRule(),
		RequiredTitleRule(),
		RequiredParentRule(),
		MissingDescriptionRule(),
		ExtensionContextMissingRule(),
		InvalidCardinalityRule(),
		BindingStrengthPresentRule(),
		DuplicateDefinitionRule(),
		InstanceRequiredFieldsMissingRule(),
		ProfileWithoutExamplesRule(),
		RequiredFieldOverrideRule(),
		NamingConventionRule(),
		MissingMetadataRule(),
	}
}

// Pack wraps All into a RulePack named "builtin" for registration via
// Registry.RegisterPack.
func Pack() rules.RulePack {
	return rules.RulePack{
		Metadata: rules.PackMetadata{Name: "builtin", Version: "1.0.0"},
		Rules:    All(),
	}
}
