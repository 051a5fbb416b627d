package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fshlint/fshlint/internal/xerrors"
)

// Validate enforces the validation rules spec.md §6 requires on the
// merged configuration: non-empty include patterns, formatter bounds,
// a well-formed FHIR version, and well-formed overrides.
func Validate(cfg *Config) error {
	if len(cfg.Files.Include) == 0 {
		return fmt.Errorf("files.include must not be empty")
	}

	if err := validateFormatter(cfg.Formatter); err != nil {
		return err
	}
	if cfg.Env.FhirVersion != "" {
		if err := validateFhirVersion(cfg.Env.FhirVersion); err != nil {
			return err
		}
	}
	for i, ov := range cfg.Overrides {
		if ov.Files == "" {
			return fmt.Errorf("overrides[%d].files must not be empty", i)
		}
		if ov.Config != nil {
			if err := Validate(ov.Config); err != nil {
				return fmt.Errorf("overrides[%d]: %w", i, err)
			}
		}
	}
	for id, rc := range cfg.Rules {
		if id == "" {
			return xerrors.WrapPathf(xerrors.KindConfig, "", "%w", xerrors.ErrEmptyRuleID)
		}
		switch rc.Severity {
		case "", "error", "warning", "info", "hint":
		default:
			return fmt.Errorf("rules[%s].severity %q is not one of error|warning|info|hint", id, rc.Severity)
		}
	}
	return nil
}

func validateFormatter(f FormatterConfig) error {
	if f.IndentSize < 1 || f.IndentSize > 8 {
		return fmt.Errorf("formatter.indent_size must be between 1 and 8, got %d", f.IndentSize)
	}
	if f.MaxLineWidth < 40 || f.MaxLineWidth > 200 {
		return fmt.Errorf("formatter.max_line_width must be between 40 and 200, got %d", f.MaxLineWidth)
	}
	return nil
}

func validateFhirVersion(v string) error {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return fmt.Errorf("env.fhir_version must be in format X.Y.Z, got %q", v)
	}
	for _, p := range parts {
		if _, err := strconv.ParseUint(p, 10, 32); err != nil {
			return fmt.Errorf("env.fhir_version must be in format X.Y.Z, got %q", v)
		}
	}
	return nil
}
