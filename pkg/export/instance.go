package export

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fshlint/fshlint/internal/xerrors"
	"github.com/fshlint/fshlint/pkg/ast"
	"github.com/fshlint/fshlint/pkg/cst"
	"github.com/fshlint/fshlint/pkg/fishing"
)

// ExportInstance lowers an Instance declaration into its typed FHIR
// resource JSON body by walking its FixedValue rules and assigning
// each one into a generic JSON tree keyed by dotted/indexed path
// (spec.md §4.I "Instance exporter": build the resource from
// assignment rules rather than from a differential).
func ExportInstance(ctx context.Context, req Request) (Result, error) {
	name := req.Decl.Name()
	resourceType, _ := req.Decl.InstanceOf()
	if resourceType == "" {
		return Result{}, xerrors.WrapPathf(xerrors.KindExport, req.File, "instance %q: %w", name, xerrors.ErrMissingInstanceOf)
	}

	id, _ := req.Decl.ID()
	if id == "" {
		id = KebabCase(name)
	}

	root := map[string]any{
		"resourceType": resourceType,
		"id":           id,
	}

	var warnings []string
	for _, rule := range req.Decl.Rules() {
		if rule.Kind() != cst.KindFixedValueRule {
			continue
		}
		path := rule.Path()
		if path == "" {
			continue
		}
		val := instanceValue(ctx, req, rule)
		if err := assignPath(root, path, val); err != nil {
			warnings = append(warnings, "instance "+name+": "+err.Error())
		}
	}

	url := resourceType + "/" + id
	if req.Config.CanonicalBase != "" {
		url = strings.TrimSuffix(req.Config.CanonicalBase, "/") + "/" + resourceType + "/" + id
	}

	body, err := json.Marshal(root)
	if err != nil {
		return Result{}, err
	}
	if req.Fishing != nil {
		req.Fishing.RegisterExported(url, body)
	}
	req.logger().Debug("exported instance", zap.String("name", name), zap.String("type", resourceType))

	return Result{ResourceType: resourceType, ID: id, URL: url, Body: body, Warnings: warnings}, nil
}

// instanceValue converts a FixedValueRule's literal into the Go value
// its ValueKind implies, so encoding/json emits it unquoted when the
// FHIR wire format expects a number or boolean.
func instanceValue(ctx context.Context, req Request, rule ast.Rule) any {
	text := rule.FixedValueText()
	switch rule.ValueKind() {
	case cst.KindBoolValue:
		return text == "true"
	case cst.KindNumberValue:
		if n, err := strconv.ParseFloat(text, 64); err == nil {
			return n
		}
		return text
	case cst.KindCodeValue:
		return strings.TrimPrefix(text, "#")
	case cst.KindReferenceValue, cst.KindCodeableReferenceValue:
		if target, ok := rule.ReferenceTarget(); ok {
			if ref, ok := resolveInstanceReference(ctx, req, target); ok {
				return map[string]any{"reference": ref}
			}
			return map[string]any{"reference": target}
		}
		return text
	case cst.KindNameValue:
		if idx := strings.Index(text, "#"); idx >= 0 {
			return strings.TrimPrefix(text[idx:], "#")
		}
		if target, ok := rule.ReferenceTarget(); ok {
			if ref, ok := resolveInstanceReference(ctx, req, target); ok {
				return ref
			}
		}
		return text
	default:
		return text
	}
}

// resolveInstanceReference fishes for a local Instance declaration by
// name and, on a Tank hit, formats it as a local "{type}/{id}" reference
// (spec.md §4.I: other instances referencing them by name resolve to
// local {type}/{id} URLs).
func resolveInstanceReference(ctx context.Context, req Request, name string) (string, bool) {
	if req.Fishing == nil {
		return "", false
	}
	res, ok, err := req.Fishing.Resolve(ctx, name)
	if err != nil || !ok || res.Tier != fishing.TierTank || res.Resource.ResourceType == "" {
		return "", false
	}
	return res.Resource.ResourceType + "/" + res.Resource.ID, true
}

var indexRe = regexp.MustCompile(`^([^\[]+)\[(\d+)\]$`)

// assignPath assigns val into root at the FHIRPath-like dotted path,
// creating intermediate objects/arrays as needed. A segment like
// "telecom[0]" addresses an array element, extending the array with
// empty objects if it is too short.
func assignPath(root map[string]any, path string, val any) error {
	segments := strings.Split(path, ".")
	var cur any = root
	for i, seg := range segments {
		last := i == len(segments)-1
		name := seg
		idx := -1
		if m := indexRe.FindStringSubmatch(seg); m != nil {
			name = m[1]
			idx, _ = strconv.Atoi(m[2])
		}

		obj, ok := cur.(map[string]any)
		if !ok {
			return xerrors.WrapPathf(xerrors.KindExport, path, "%w", xerrors.ErrInvalidAssignPath)
		}

		if idx < 0 {
			if last {
				obj[name] = val
				return nil
			}
			next, ok := obj[name].(map[string]any)
			if !ok {
				next = map[string]any{}
				obj[name] = next
			}
			cur = next
			continue
		}

		arr, _ := obj[name].([]any)
		for len(arr) <= idx {
			arr = append(arr, map[string]any{})
		}
		obj[name] = arr
		if last {
			arr[idx] = val
			return nil
		}
		next, ok := arr[idx].(map[string]any)
		if !ok {
			next = map[string]any{}
			arr[idx] = next
		}
		cur = next
	}
	return nil
}
