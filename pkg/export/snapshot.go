package export

import (
	"context"
	"encoding/json"
	"sort"
)

// mergeSnapshot implements the deliberately partial snapshot generation
// documented as an Open Question decision in DESIGN.md: the parent's
// snapshot element list (fetched through the fishing context, if
// available) merged with this declaration's differential, keyed by
// path, with the differential winning on conflict. This is not FHIR's
// full snapshot algorithm (which also merges nested constraint
// structure field-by-field); it is a best-effort opt-in behind
// Config.GenerateSnapshots.
func mergeSnapshot(ctx context.Context, req Request, base baseRef, differential []ElementDefinition) *Snapshot {
	parentElements := parentSnapshotElements(ctx, req, base)

	merged := make(map[string]ElementDefinition, len(parentElements)+len(differential))
	var order []string
	for _, e := range parentElements {
		if _, ok := merged[e.Path]; !ok {
			order = append(order, e.Path)
		}
		merged[e.Path] = e
	}
	for _, e := range differential {
		if _, ok := merged[e.Path]; !ok {
			order = append(order, e.Path)
		}
		merged[e.Path] = e
	}
	sort.Strings(order)

	out := make([]ElementDefinition, 0, len(order))
	for _, p := range order {
		out = append(out, merged[p])
	}
	return &Snapshot{Element: out}
}

func parentSnapshotElements(ctx context.Context, req Request, base baseRef) []ElementDefinition {
	if req.Fishing == nil || base.BaseDefinition == "" {
		return nil
	}
	res, ok, err := req.Fishing.Resolve(ctx, base.BaseDefinition)
	if err != nil || !ok || len(res.JSON) == 0 {
		return nil
	}
	var partial struct {
		Snapshot *Snapshot `json:"snapshot"`
	}
	if err := json.Unmarshal(res.JSON, &partial); err != nil || partial.Snapshot == nil {
		return nil
	}
	return partial.Snapshot.Element
}
