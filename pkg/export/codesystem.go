package export

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/fshlint/fshlint/pkg/cst"
)

// ExportCodeSystem lowers a CodeSystem declaration into a FHIR
// CodeSystem resource. The concept list is flat in FSH (spec.md §4.B
// "CodeSystem body" declares one concept per line with no nesting
// syntax), so content is always "complete" over a flat concept list.
func ExportCodeSystem(ctx context.Context, req Request) (Result, error) {
	name := req.Decl.Name()
	id, _ := req.Decl.ID()
	if id == "" {
		id = KebabCase(name)
	}
	url := canonicalURL(req.Config.CanonicalBase, "CodeSystem", id)
	title, _ := req.Decl.Title()
	desc, _ := req.Decl.Description()

	var concepts []CodeSystemConcept
	var warnings []string
	seen := map[string]bool{}
	for _, rule := range req.Decl.Rules() {
		if rule.Kind() != cst.KindConcept {
			continue
		}
		c := rule.AsConcept()
		if seen[c.Code] {
			warnings = append(warnings, "duplicate concept code \""+c.Code+"\"")
		}
		seen[c.Code] = true
		concepts = append(concepts, CodeSystemConcept{
			Code:       c.Code,
			Display:    c.Display,
			Definition: c.Definition,
		})
	}

	cs := CodeSystem{
		ResourceType: "CodeSystem",
		ID:           id,
		URL:          url,
		Version:      req.Config.Version,
		Name:         name,
		Title:        title,
		Status:       req.Config.Status,
		Publisher:    req.Config.Publisher,
		Description:  desc,
		Content:      "complete",
		Concept:      concepts,
	}

	body, err := json.Marshal(cs)
	if err != nil {
		return Result{}, err
	}
	if req.Fishing != nil {
		req.Fishing.RegisterExported(url, body)
	}
	req.logger().Debug("exported codesystem", zap.String("name", name), zap.String("url", url))

	return Result{ResourceType: "CodeSystem", ID: id, URL: url, Body: body, Warnings: warnings}, nil
}
