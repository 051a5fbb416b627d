package export

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/fshlint/fshlint/pkg/cst"
)

// ExportValueSet lowers a ValueSet declaration into a FHIR ValueSet
// resource built from its concept and filter component lines (spec.md
// §4.I "ValueSet exporter").
func ExportValueSet(ctx context.Context, req Request) (Result, error) {
	name := req.Decl.Name()
	id, _ := req.Decl.ID()
	if id == "" {
		id = KebabCase(name)
	}
	url := canonicalURL(req.Config.CanonicalBase, "ValueSet", id)
	title, _ := req.Decl.Title()
	desc, _ := req.Decl.Description()

	compose := Compose{}
	var warnings []string
	for _, rule := range req.Decl.Rules() {
		switch rule.Kind() {
		case cst.KindConceptComponent:
			c := rule.AsConceptComponent()
			set := ConceptSet{}
			for _, vs := range c.From {
				set.ValueSet = append(set.ValueSet, resolveValueSetURL(req, vs))
			}
			set.Concept = append(set.Concept, ConceptRef{Code: c.Code, Display: c.Display})
			if len(set.ValueSet) == 0 {
				warnings = append(warnings, "concept \""+c.Code+"\" has no \"from\" valueset reference to establish its system")
			}
			if c.Exclude {
				compose.Exclude = append(compose.Exclude, set)
			} else {
				compose.Include = append(compose.Include, set)
			}

		case cst.KindFilterComponent:
			fc := rule.AsFilterComponent()
			set := ConceptSet{}
			if len(fc.Systems) > 0 {
				set.System = resolveSystem(req, fc.Systems[0])
			}
			for _, vs := range fc.From {
				set.ValueSet = append(set.ValueSet, resolveValueSetURL(req, vs))
			}
			for _, f := range fc.Filters {
				set.Filter = append(set.Filter, ConceptFilter{
					Property: f.Property,
					Op:       f.Operator,
					Value:    f.Value,
				})
			}
			if len(set.System) == 0 && len(set.ValueSet) == 0 {
				warnings = append(warnings, "filter component has neither a system nor a valueset source")
			}
			if fc.Exclude {
				compose.Exclude = append(compose.Exclude, set)
			} else {
				compose.Include = append(compose.Include, set)
			}
		}
	}

	vs := ValueSet{
		ResourceType: "ValueSet",
		ID:           id,
		URL:          url,
		Version:      req.Config.Version,
		Name:         name,
		Title:        title,
		Status:       req.Config.Status,
		Publisher:    req.Config.Publisher,
		Description:  desc,
		Compose:      compose,
	}

	body, err := json.Marshal(vs)
	if err != nil {
		return Result{}, err
	}
	if req.Fishing != nil {
		req.Fishing.RegisterExported(url, body)
	}
	req.logger().Debug("exported valueset", zap.String("name", name), zap.String("url", url))

	return Result{ResourceType: "ValueSet", ID: id, URL: url, Body: body, Warnings: warnings}, nil
}
