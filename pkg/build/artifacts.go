package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/fshlint/fshlint/pkg/config"
)

// implementationGuide is the minimal IG resource a build writes from its
// configuration and index, mirroring
// original_source/crates/maki-core/src/export/build.rs's
// ImplementationGuideGenerator output.
type implementationGuide struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id"`
	URL          string       `json:"url"`
	Version      string       `json:"version,omitempty"`
	Name         string       `json:"name"`
	Title        string       `json:"title,omitempty"`
	Status       string       `json:"status"`
	Publisher    string       `json:"publisher,omitempty"`
	FhirVersion  []string     `json:"fhirVersion,omitempty"`
	PackageID    string       `json:"packageId"`
	Definition   igDefinition `json:"definition"`
}

type igDefinition struct {
	Resource []igResource `json:"resource"`
}

type igResource struct {
	Reference igReference `json:"reference"`
	Name      string      `json:"name,omitempty"`
	IsExample bool        `json:"isExample,omitempty"`
}

type igReference struct {
	Reference string `json:"reference"`
}

// packageJSON is the FHIR NPM package manifest written alongside the IG
// resource (original_source's write_package_json step).
type packageJSON struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Canonical    string            `json:"canonical,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	FhirVersions []string          `json:"fhirVersions,omitempty"`
	Type         string            `json:"type,omitempty"`
}

// writeArtifacts generates the ImplementationGuide resource and
// package.json from the build configuration and the exported index
// (spec.md §4.J phase 12 "Artifacts"), skipped entirely by the caller
// when build.fsh_only is set.
func writeArtifacts(outputDir string, cfg *config.Config, index []FshIndexEntry) error {
	id := firstNonEmpty(cfg.Build.ID, "fsh-generated")

	ig := implementationGuide{
		ResourceType: "ImplementationGuide",
		ID:           id,
		URL:          strings.TrimSuffix(cfg.Build.Canonical, "/") + "/ImplementationGuide/" + id,
		Version:      cfg.Build.Version,
		Name:         pascalName(id),
		Title:        cfg.Build.Title,
		Status:       firstNonEmpty(cfg.Build.Status, "draft"),
		Publisher:    cfg.Build.Publisher,
		FhirVersion:  cfg.Build.FhirVersion,
		PackageID:    id,
	}
	for _, e := range index {
		if e.OutputFile == "" {
			continue
		}
		base := strings.TrimSuffix(filepath.Base(e.OutputFile), ".json")
		parts := strings.SplitN(base, "-", 2)
		if len(parts) != 2 {
			continue
		}
		ig.Definition.Resource = append(ig.Definition.Resource, igResource{
			Reference: igReference{Reference: parts[0] + "/" + parts[1]},
			Name:      e.FshName,
			IsExample: e.FshType == "Instance",
		})
	}

	igBody, err := json.MarshalIndent(ig, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outputDir, "resources", "ImplementationGuide-"+id+".json"), igBody, 0o644); err != nil {
		return err
	}

	deps := make(map[string]string, len(cfg.Build.Dependencies))
	for name, entry := range cfg.Build.Dependencies {
		deps[name] = config.DependencyVersion(entry)
	}
	pkg := packageJSON{
		Name:         id,
		Version:      firstNonEmpty(cfg.Build.Version, "0.1.0"),
		Canonical:    cfg.Build.Canonical,
		Dependencies: deps,
		FhirVersions: cfg.Build.FhirVersion,
		Type:         "fhir.ig",
	}
	pkgBody, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, "package.json"), pkgBody, 0o644)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// pascalName turns a dash/underscore-separated package id into a bare
// PascalCase IG resource name (e.g. "my-ig" -> "MyIg").
func pascalName(id string) string {
	parts := strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' })
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}
