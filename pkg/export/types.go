// Package export implements the per-type exporters of spec.md §4.I: each
// lowers a parsed AST declaration plus a fishing context into a FHIR JSON
// resource (StructureDefinition, ValueSet, CodeSystem, or an Instance's
// typed resource body).
package export

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// StructureDefinition is the JSON shape written for Profile and Extension
// exports. Field tags are unchanged from the FHIR wire format.
type StructureDefinition struct {
	ResourceType   string              `json:"resourceType"`
	ID             string              `json:"id"`
	URL            string              `json:"url"`
	Version        string              `json:"version,omitempty"`
	Name           string              `json:"name"`
	Title          string              `json:"title,omitempty"`
	Status         string              `json:"status"`
	Publisher      string              `json:"publisher,omitempty"`
	Description    string              `json:"description,omitempty"`
	Kind           string              `json:"kind"`
	Abstract       bool                `json:"abstract"`
	Context        []Context           `json:"context,omitempty"`
	Type           string              `json:"type"`
	BaseDefinition string              `json:"baseDefinition,omitempty"`
	Derivation     string              `json:"derivation,omitempty"`
	FhirVersion    string              `json:"fhirVersion,omitempty"`
	Differential   *Differential       `json:"differential,omitempty"`
	Snapshot       *Snapshot           `json:"snapshot,omitempty"`
	CaretValues    map[string]any      `json:"-"`
}

// Context entry for an Extension's applicable-context list.
type Context struct {
	Type       string `json:"type"`
	Expression string `json:"expression"`
}

// Snapshot contains the complete element list for a definition.
type Snapshot struct {
	Element []ElementDefinition `json:"element"`
}

// Differential contains only the differences from the base definition.
type Differential struct {
	Element []ElementDefinition `json:"element"`
}

// ElementDefinition is a single differential/snapshot element.
type ElementDefinition struct {
	ID          string          `json:"id,omitempty"`
	Path        string          `json:"path"`
	SliceName   string          `json:"sliceName,omitempty"`
	Short       string          `json:"short,omitempty"`
	Definition  string          `json:"definition,omitempty"`
	Comment     string          `json:"comment,omitempty"`
	Min         *int            `json:"min,omitempty"`
	Max         string          `json:"max,omitempty"`
	Base        *Base           `json:"base,omitempty"`
	Type        []TypeRef       `json:"type,omitempty"`
	Binding     *Binding        `json:"binding,omitempty"`
	Constraint  []Constraint    `json:"constraint,omitempty"`
	MustSupport bool            `json:"mustSupport,omitempty"`
	IsModifier  bool            `json:"isModifier,omitempty"`
	IsSummary   bool            `json:"isSummary,omitempty"`
	Pattern     json.RawMessage `json:"-"`
	PatternKey  string          `json:"-"`
}

// MarshalJSON flattens the tracked pattern<Type> key/value pair onto the
// element at encode time, since Go can't express FHIR's `pattern[x]`
// polymorphic field name as a static struct tag.
func (e ElementDefinition) MarshalJSON() ([]byte, error) {
	type alias ElementDefinition
	m := map[string]json.RawMessage{}
	raw, err := json.Marshal(alias(e))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if e.PatternKey != "" && len(e.Pattern) > 0 {
		m[e.PatternKey] = e.Pattern
	}
	return json.Marshal(m)
}

// Base describes the base element an element is derived from.
type Base struct {
	Path string `json:"path"`
	Min  int    `json:"min"`
	Max  string `json:"max"`
}

// TypeRef names a type an element may take.
type TypeRef struct {
	Code          string   `json:"code"`
	Profile       []string `json:"profile,omitempty"`
	TargetProfile []string `json:"targetProfile,omitempty"`
}

// Binding describes a terminology binding.
type Binding struct {
	Strength string `json:"strength"`
	ValueSet string `json:"valueSet,omitempty"`
}

// Constraint is a FHIRPath invariant attached to an element.
type Constraint struct {
	Key        string `json:"key"`
	Severity   string `json:"severity"`
	Human      string `json:"human"`
	Expression string `json:"expression,omitempty"`
	XPath      string `json:"xpath,omitempty"`
}

// ValueSet is the JSON shape written for ValueSet exports.
type ValueSet struct {
	ResourceType string  `json:"resourceType"`
	ID           string  `json:"id"`
	URL          string  `json:"url"`
	Version      string  `json:"version,omitempty"`
	Name         string  `json:"name"`
	Title        string  `json:"title,omitempty"`
	Status       string  `json:"status"`
	Publisher    string  `json:"publisher,omitempty"`
	Description  string  `json:"description,omitempty"`
	Compose      Compose `json:"compose"`
}

// Compose holds a ValueSet's include/exclude rules.
type Compose struct {
	Include []ConceptSet `json:"include,omitempty"`
	Exclude []ConceptSet `json:"exclude,omitempty"`
}

// ConceptSet is one compose.include/exclude entry.
type ConceptSet struct {
	System   string          `json:"system,omitempty"`
	ValueSet []string        `json:"valueSet,omitempty"`
	Concept  []ConceptRef    `json:"concept,omitempty"`
	Filter   []ConceptFilter `json:"filter,omitempty"`
}

// ConceptRef is a single enumerated code within a ConceptSet.
type ConceptRef struct {
	Code    string `json:"code"`
	Display string `json:"display,omitempty"`
}

// ConceptFilter is a ValueSet filter component.
type ConceptFilter struct {
	Property string `json:"property"`
	Op       string `json:"op"`
	Value    string `json:"value"`
}

// CodeSystem is the JSON shape written for CodeSystem exports.
type CodeSystem struct {
	ResourceType string              `json:"resourceType"`
	ID           string              `json:"id"`
	URL          string              `json:"url"`
	Version      string              `json:"version,omitempty"`
	Name         string              `json:"name"`
	Title        string              `json:"title,omitempty"`
	Status       string              `json:"status"`
	Publisher    string              `json:"publisher,omitempty"`
	Description  string              `json:"description,omitempty"`
	Content      string              `json:"content"`
	Concept      []CodeSystemConcept `json:"concept,omitempty"`
}

// CodeSystemConcept is one (possibly nested) concept definition.
type CodeSystemConcept struct {
	Code       string              `json:"code"`
	Display    string              `json:"display,omitempty"`
	Definition string              `json:"definition,omitempty"`
	Concept    []CodeSystemConcept `json:"concept,omitempty"`
}

// kebabCase lowercases and hyphenates a PascalCase/camelCase/space-separated
// name into a FHIR-id-safe slug, used whenever an `id` defaults from a
// declaration's `Name` (spec.md §4.I "id defaults to kebab-cased name").
var kebabBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

func KebabCase(name string) string {
	s := kebabBoundary.ReplaceAllString(name, "$1-$2")
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	return strings.ToLower(s)
}

// slicePath translates FSH bracket-slicing notation ("name[slice]") into
// FHIR path colon notation ("name:slice"), preserving any path segments
// that follow the closing bracket (spec.md §4.I cardinality lowering).
var sliceRe = regexp.MustCompile(`^([^\[]+)\[([^\]]+)\](.*)$`)

func slicePath(path string) string {
	m := sliceRe.FindStringSubmatch(path)
	if m == nil {
		return path
	}
	return m[1] + ":" + m[2] + m[3]
}

// patternValue maps a raw FSH fixed-value literal to its `pattern<Type>`
// JSON key and encoded value (spec.md §4.I "Fixed value" lowering table).
func patternValue(raw string) (key string, value json.RawMessage) {
	switch {
	case strings.HasPrefix(raw, "#"):
		return "patternCode", jsonString(strings.TrimPrefix(raw, "#"))
	case strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2:
		return "patternString", jsonString(raw[1 : len(raw)-1])
	case raw == "true" || raw == "false":
		return "patternBoolean", json.RawMessage(raw)
	default:
		if _, err := strconv.Atoi(raw); err == nil {
			return "patternInteger", json.RawMessage(raw)
		}
		if _, err := strconv.ParseFloat(raw, 64); err == nil {
			return "patternDecimal", json.RawMessage(raw)
		}
		return "patternCode", jsonString(raw)
	}
}

func jsonString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
