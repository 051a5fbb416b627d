package rules

import (
	"fmt"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"github.com/fshlint/fshlint/pkg/diagnostic"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/semantic"
)

// EngineConfig governs one execution pass (spec.md §4.E "Execution
// contract").
type EngineConfig struct {
	MaxDiagnosticsPerRule int // 0 means unlimited
	DisabledRules         map[string]bool
	FailFast              bool
}

// Engine runs every registered rule against a semantic model once,
// compiling pattern rules' regexes once per Engine instance (spec.md
// §4.E "compiled once per engine instance").
type Engine struct {
	registry *Registry
	cfg      EngineConfig
	log      *zap.Logger

	compileOnce sync.Once
	compiled    map[string]*regexp.Regexp
	compileErrs map[string]error
}

// NewEngine constructs an Engine bound to a registry and config.
func NewEngine(registry *Registry, cfg EngineConfig, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{registry: registry, cfg: cfg, log: log}
}

func (e *Engine) ensureCompiled() {
	e.compileOnce.Do(func() {
		e.compiled = make(map[string]*regexp.Regexp)
		e.compileErrs = make(map[string]error)
		for _, rule := range e.registry.List() {
			if rule.IsASTRule || !rule.Matcher.HasPattern() {
				continue
			}
			re, err := regexp.Compile(rule.Matcher.Pattern)
			if err != nil {
				e.compileErrs[rule.ID] = err
				continue
			}
			e.compiled[rule.ID] = re
		}
	})
}

// Run executes every enabled, registered rule against model (AST rules)
// and src (pattern rules), returning the combined diagnostics.
func (e *Engine) Run(model *semantic.Model, src string, fish *fishing.Context) ([]diagnostic.Diagnostic, error) {
	e.ensureCompiled()

	var out []diagnostic.Diagnostic
	for _, rule := range e.registry.List() {
		if e.cfg.DisabledRules[rule.ID] {
			continue
		}
		diags, err := e.runOne(rule, model, src, fish)
		if err != nil {
			e.log.Error("rule execution failed", zap.String("rule", rule.ID), zap.Error(err))
			if e.cfg.FailFast {
				return out, fmt.Errorf("rule %s: %w", rule.ID, err)
			}
			continue
		}
		if e.cfg.MaxDiagnosticsPerRule > 0 && len(diags) > e.cfg.MaxDiagnosticsPerRule {
			diags = diags[:e.cfg.MaxDiagnosticsPerRule]
		}
		out = append(out, diags...)
	}
	return out, nil
}

func (e *Engine) runOne(rule CompiledRule, model *semantic.Model, src string, fish *fishing.Context) (diags []diagnostic.Diagnostic, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if rule.IsASTRule {
		if rule.Check == nil {
			return nil, nil
		}
		return rule.Check(model, fish, model.DeferredRules), nil
	}

	re, ok := e.compiled[rule.ID]
	if !ok {
		if cErr, hasErr := e.compileErrs[rule.ID]; hasErr {
			return nil, cErr
		}
		return nil, nil
	}
	return matchesToDiagnostics(rule, re, src, model), nil
}

// matchesToDiagnostics implements spec.md §4.E "Pattern rule": each match
// becomes a diagnostic with a location derived from the match range.
func matchesToDiagnostics(rule CompiledRule, re *regexp.Regexp, src string, model *semantic.Model) []diagnostic.Diagnostic {
	locs := re.FindAllStringIndex(src, -1)
	diags := make([]diagnostic.Diagnostic, 0, len(locs))
	for _, loc := range locs {
		var location diagnostic.Location
		if model != nil && model.SourceMap != nil {
			location = model.SourceMap.Location(model.SourceFile, uint32(loc[0]), uint32(loc[1]))
		}
		diags = append(diags, diagnostic.Diagnostic{
			RuleID:   rule.ID,
			Severity: rule.Severity,
			Message:  rule.Description,
			Location: location,
		})
	}
	return diags
}
