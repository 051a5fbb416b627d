package export

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/fshlint/fshlint/internal/xlog"
	"github.com/fshlint/fshlint/pkg/ast"
	"github.com/fshlint/fshlint/pkg/fishing"
)

// Config carries the per-build settings every exporter consumes (spec.md
// §4.I "configuration (canonical base URL, version, status, publisher)").
type Config struct {
	CanonicalBase     string
	Version           string
	Status            string
	Publisher         string
	FhirVersion       string
	GenerateSnapshots bool
}

// AliasResolver is the subset of *semantic.AliasTable an exporter needs;
// kept as an interface so this package never imports pkg/semantic.
type AliasResolver interface {
	Resolve(name string) (string, bool)
}

// Request bundles one declaration's export inputs: the AST node, the
// fishing context, configuration, the alias table, and the package for
// URL registration (spec.md §4.I "Each exporter ... takes").
type Request struct {
	Decl    ast.Decl
	File    string
	Config  Config
	Fishing *fishing.Context
	Aliases AliasResolver
	Log     *zap.Logger
}

func (r Request) logger() *zap.Logger {
	if r.Log == nil {
		return xlog.Noop()
	}
	return r.Log
}

// Result is one exporter's output.
type Result struct {
	ResourceType string
	ID           string
	URL          string
	Body         []byte
	Warnings     []string
}

// baseRef resolves a parent/basis reference (a profile's Parent, an
// extension's implicit Extension base) through the alias table, then
// the fishing context, falling back to the canonical FHIR core URL
// pattern when neither the Tank nor the Package nor the canonical
// session knows about it (an unregistered core resource/datatype name).
type baseRef struct {
	Type           string
	Kind           string
	BaseDefinition string
}

func resolveBase(ctx context.Context, req Request, parent string) (baseRef, []string) {
	var warnings []string
	key := parent
	if req.Aliases != nil {
		if resolved, ok := req.Aliases.Resolve(parent); ok {
			key = resolved
		}
	}

	if req.Fishing != nil {
		if res, ok, err := req.Fishing.Resolve(ctx, key); err == nil && ok && len(res.JSON) > 0 {
			var partial struct {
				URL  string `json:"url"`
				Type string `json:"type"`
				Kind string `json:"kind"`
			}
			if err := json.Unmarshal(res.JSON, &partial); err == nil && partial.Type != "" {
				return baseRef{Type: partial.Type, Kind: partial.Kind, BaseDefinition: partial.URL}, nil
			}
		}
	}

	warnings = append(warnings, "parent \""+parent+"\" not found in package, tank, or canonical session; using it as a bare FHIR core type name")
	base := key
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://hl7.org/fhir/StructureDefinition/" + parent
	}
	return baseRef{Type: parent, Kind: "resource", BaseDefinition: base}, warnings
}

func resolveSystem(req Request, name string) string {
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	if req.Aliases != nil {
		if resolved, ok := req.Aliases.Resolve(name); ok {
			return resolved
		}
	}
	return name
}

func canonicalURL(base, resourceType, id string) string {
	return strings.TrimSuffix(base, "/") + "/" + resourceType + "/" + id
}
