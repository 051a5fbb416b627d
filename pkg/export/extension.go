package export

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// ExportExtension lowers an Extension declaration into a
// StructureDefinition with kind "complex-type", always derived from
// the core Extension type, plus any Context: clause entries (spec.md
// §4.I "Extension exporter").
func ExportExtension(ctx context.Context, req Request) (Result, error) {
	name := req.Decl.Name()
	parent, ok := req.Decl.Parent()
	if !ok || parent == "" {
		parent = "Extension"
	}
	base, baseWarnings := resolveBase(ctx, req, parent)
	base.Kind = "complex-type"

	id, _ := req.Decl.ID()
	if id == "" {
		id = KebabCase(name)
	}
	url := canonicalURL(req.Config.CanonicalBase, "StructureDefinition", id)

	lowered := lowerRules(req.Decl, req, "Extension")
	warnings := append(append([]string{}, baseWarnings...), lowered.Warnings...)
	warnings = append(warnings, validateDifferential(lowered.Elements)...)

	title, _ := req.Decl.Title()
	desc, _ := req.Decl.Description()

	var contexts []Context
	for _, expr := range req.Decl.Contexts() {
		contexts = append(contexts, Context{Type: "element", Expression: expr})
	}

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
		Context:        contexts,
		Type:           "Extension",
		BaseDefinition: base.BaseDefinition,
		Derivation:     "constraint",
		FhirVersion:    req.Config.FhirVersion,
		Differential:   &Differential{Element: lowered.Elements},
		CaretValues:    lowered.CaretValues,
	}
	if req.Config.GenerateSnapshots {
		sd.Snapshot = mergeSnapshot(ctx, req, base, lowered.Elements)
	}
	if len(contexts) == 0 {
		warnings = append(warnings, "extension has no Context: clause")
	}

	body, err := json.Marshal(sd)
	if err != nil {
		return Result{}, err
	}
	if req.Fishing != nil {
		req.Fishing.RegisterExported(url, body)
	}
	req.logger().Debug("exported extension", zap.String("name", name), zap.String("url", url))

	return Result{ResourceType: "StructureDefinition", ID: id, URL: url, Body: body, Warnings: warnings}, nil
}
