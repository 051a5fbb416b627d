package export

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"
)

// ExportProfile lowers a Profile declaration into a StructureDefinition
// (spec.md §4.I "Profile exporter").
func ExportProfile(ctx context.Context, req Request) (Result, error) {
	name := req.Decl.Name()
	parent, _ := req.Decl.Parent()
	base, baseWarnings := resolveBase(ctx, req, parent)

	id, _ := req.Decl.ID()
	if id == "" {
		id = KebabCase(name)
	}
	url := canonicalURL(req.Config.CanonicalBase, "StructureDefinition", id)

	lowered := lowerRules(req.Decl, req, base.Type)
	warnings := append(append([]string{}, baseWarnings...), lowered.Warnings...)
	warnings = append(warnings, validateDifferential(lowered.Elements)...)

	title, _ := req.Decl.Title()
	desc, _ := req.Decl.Description()

	sd := StructureDefinition{
		ResourceType:   "StructureDefinition",
		ID:             id,
		URL:            url,
		Version:        req.Config.Version,
		Name:           name,
		Title:          title,
		Status:         req.Config.Status,
		Publisher:      req.Config.Publisher,
		Description:    desc,
		Kind:           base.Kind,
		Abstract:       false,
		Type:           base.Type,
		BaseDefinition: base.BaseDefinition,
		Derivation:     "constraint",
		FhirVersion:    req.Config.FhirVersion,
		Differential:   &Differential{Element: lowered.Elements},
		CaretValues:    lowered.CaretValues,
	}
	if req.Config.GenerateSnapshots {
		sd.Snapshot = mergeSnapshot(ctx, req, base, lowered.Elements)
	}

	body, err := json.Marshal(sd)
	if err != nil {
		return Result{}, err
	}
	if req.Fishing != nil {
		req.Fishing.RegisterExported(url, body)
	}
	req.logger().Debug("exported profile", zap.String("name", name), zap.String("url", url))

	return Result{ResourceType: "StructureDefinition", ID: id, URL: url, Body: body, Warnings: warnings}, nil
}

// validateDifferential implements spec.md §4.I Profile "Validation": no
// duplicate element paths, coherent cardinality, bindings carry a
// valueSet, and non-empty type lists. Every finding is a warning — the
// resource is still emitted, matching this codebase's log-and-continue
// stance on soft export failures.
func validateDifferential(elements []ElementDefinition) []string {
	var warnings []string
	seen := map[string]bool{}
	for _, e := range elements {
		if seen[e.Path] {
			warnings = append(warnings, "duplicate element path: "+e.Path)
		}
		seen[e.Path] = true

		if e.Min != nil && e.Max != "" && e.Max != "*" {
			if maxVal, ok := parseMax(e.Max); ok && *e.Min > maxVal {
				warnings = append(warnings, "incoherent cardinality at "+e.Path+": min exceeds max")
			}
		}
		if e.Binding != nil && e.Binding.ValueSet == "" {
			warnings = append(warnings, "binding without a valueSet at "+e.Path)
		}
		if e.Type != nil && len(e.Type) == 0 {
			warnings = append(warnings, "empty type list at "+e.Path)
		}
	}
	return warnings
}

func parseMax(max string) (int, bool) {
	n, err := strconv.Atoi(max)
	if err != nil {
		return 0, false
	}
	return n, true
}
