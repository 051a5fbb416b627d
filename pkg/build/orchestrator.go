// Package build implements the Build Orchestrator of spec.md §4.J: it
// wires discovery, parsing, semantic modeling, RuleSet expansion, the
// rule engine, and the exporters into one end-to-end pass over an input
// directory of FSH source.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/fshlint/fshlint/pkg/ast"
	"github.com/fshlint/fshlint/pkg/config"
	"github.com/fshlint/fshlint/pkg/cst"
	"github.com/fshlint/fshlint/pkg/diagnostic"
	"github.com/fshlint/fshlint/pkg/discovery"
	"github.com/fshlint/fshlint/pkg/export"
	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/rules"
	"github.com/fshlint/fshlint/pkg/rules/builtin"
	"github.com/fshlint/fshlint/pkg/ruleset"
	"github.com/fshlint/fshlint/pkg/semantic"
)

// defaultExportConcurrency bounds how many declarations export at once
// within one dependency level or resource-kind batch (spec.md §4.J phase
// 10 "bounded concurrency").
const defaultExportConcurrency = 8

// Orchestrator drives one build or lint pass end to end.
type Orchestrator struct {
	Config         *config.Config
	RootDir        string
	Discoverer     discovery.Discoverer
	SessionFactory func(context.Context) (fishing.CanonicalSession, error)
	Log            *zap.Logger
}

// NewOrchestrator constructs an Orchestrator using the default
// filesystem Discoverer. sessionFactory may be nil for an offline build
// with no canonical package resolution.
func NewOrchestrator(cfg *config.Config, rootDir string, sessionFactory func(context.Context) (fishing.CanonicalSession, error), log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		Config:         cfg,
		RootDir:        rootDir,
		Discoverer:     discovery.NewWalker(),
		SessionFactory: sessionFactory,
		Log:            log,
	}
}

// parsedFile is one file's output from phases 4 through 7.
type parsedFile struct {
	Path  string
	Src   string
	Tree  *cst.Tree
	Model *semantic.Model
	Doc   ast.Document
}

// profileOwner records where a profile declaration was found, for the
// dependency-level export pass to look it back up by name.
type profileOwner struct {
	File string
	Decl ast.Decl
}

// exportItem is one declaration queued for export.
type exportItem struct {
	File parsedFile
	Decl ast.Decl
}

// exportOutcome is what exporting one declaration produced.
type exportOutcome struct {
	Entry    FshIndexEntry
	Warnings []string
	Err      error
}

var tankKindByDeclKind = map[cst.Kind]semantic.DeclKind{
	cst.KindProfileDecl:    semantic.DeclProfile,
	cst.KindExtensionDecl:  semantic.DeclExtension,
	cst.KindValueSetDecl:   semantic.DeclValueSet,
	cst.KindCodeSystemDecl: semantic.DeclCodeSystem,
	cst.KindInstanceDecl:   semantic.DeclInstance,
	cst.KindInvariantDecl:  semantic.DeclInvariant,
	cst.KindRuleSetDecl:    semantic.DeclRuleSet,
	cst.KindLogicalDecl:    semantic.DeclLogical,
	cst.KindResourceDecl:   semantic.DeclResource,
}

// declKindLabel names a declaration's CST kind for the fsh-index output.
func declKindLabel(k cst.Kind) string {
	switch k {
	case cst.KindProfileDecl:
		return "Profile"
	case cst.KindExtensionDecl:
		return "Extension"
	case cst.KindValueSetDecl:
		return "ValueSet"
	case cst.KindCodeSystemDecl:
		return "CodeSystem"
	case cst.KindInstanceDecl:
		return "Instance"
	case cst.KindInvariantDecl:
		return "Invariant"
	case cst.KindMappingDecl:
		return "Mapping"
	case cst.KindLogicalDecl:
		return "Logical"
	case cst.KindResourceDecl:
		return "Resource"
	case cst.KindRuleSetDecl:
		return "RuleSet"
	case cst.KindAliasDecl:
		return "Alias"
	default:
		return "Unknown"
	}
}

// dependencyCoordinates turns a build's declared dependency map into
// sorted package coordinates, so EnsurePackages installs deterministically.
func dependencyCoordinates(deps map[string]any) []fishing.PackageCoordinate {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	coords := make([]fishing.PackageCoordinate, 0, len(names))
	for _, name := range names {
		coords = append(coords, fishing.PackageCoordinate{Name: name, Version: config.DependencyVersion(deps[name])})
	}
	return coords
}

// parseAll runs phases 4 through 7: parse, build a per-file semantic
// model over the shared aliases/symbols/deferred state, and register
// every named declaration in the Tank tier.
func parseAll(files []string, aliases *semantic.AliasTable, symbols *semantic.SymbolTable, deferred *semantic.DeferredRuleQueue, fish *fishing.Context) ([]parsedFile, []error) {
	var parsed []parsedFile
	var errs []error

	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		src := string(content)
		tree := cst.Parse(src)
		model := semantic.Build(path, src, tree, aliases, symbols, deferred)
		doc := model.Document()
		parsed = append(parsed, parsedFile{Path: path, Src: src, Tree: tree, Model: model, Doc: doc})

		for _, decl := range doc.Declarations() {
			kind, ok := tankKindByDeclKind[decl.Kind()]
			if !ok {
				continue
			}
			name := decl.Name()
			if name == "" {
				continue
			}
			res := fishing.FhirResource{Kind: kind, Name: name, SourceFile: path}
			if decl.Kind() == cst.KindInstanceDecl {
				resourceType, _ := decl.InstanceOf()
				res.ResourceType = resourceType
				if id, ok := decl.ID(); ok {
					res.ID = id
				} else {
					res.ID = export.KebabCase(name)
				}
			}
			fish.RegisterLocal(res)
		}
	}
	return parsed, errs
}

// profileDependencies builds phase 9's level-batching input: a profile
// depends on its Parent only when Parent resolves, through the alias
// table, to another profile declared within this compilation unit.
func profileDependencies(parsed []parsedFile, aliases *semantic.AliasTable, symbols *semantic.SymbolTable) (map[string][]string, map[string]profileOwner) {
	deps := make(map[string][]string)
	owners := make(map[string]profileOwner)

	for _, pf := range parsed {
		for _, decl := range pf.Doc.Declarations() {
			if decl.Kind() != cst.KindProfileDecl {
				continue
			}
			name := decl.Name()
			if name == "" {
				continue
			}
			owners[name] = profileOwner{File: pf.Path, Decl: decl}

			var parentDeps []string
			if parent, ok := decl.Parent(); ok {
				key := parent
				if resolved, ok := aliases.Resolve(parent); ok {
					key = resolved
				}
				if sym, ok := symbols.Lookup(key); ok && sym.Kind == semantic.DeclProfile {
					parentDeps = append(parentDeps, key)
				}
			}
			deps[name] = parentDeps
		}
	}
	return deps, owners
}

// exportConfigFrom maps the build's merged configuration onto the
// exporters' narrower Config (spec.md §4.I).
func exportConfigFrom(cfg *config.Config) export.Config {
	fhirVersion := cfg.Env.FhirVersion
	if len(cfg.Build.FhirVersion) > 0 {
		fhirVersion = cfg.Build.FhirVersion[0]
	}
	return export.Config{
		CanonicalBase:     cfg.Build.Canonical,
		Version:           cfg.Build.Version,
		Status:            cfg.Build.Status,
		Publisher:         cfg.Build.Publisher,
		FhirVersion:       fhirVersion,
		GenerateSnapshots: cfg.Build.GenerateSnapshots,
	}
}

// exportDecl runs the exporter matching decl's kind, writes its output
// under outputDir/resources, and registers it in the Package tier so
// later exports and instances can fish for it.
func (o *Orchestrator) exportDecl(ctx context.Context, pf parsedFile, decl ast.Decl, exportCfg export.Config, fish *fishing.Context, aliases *semantic.AliasTable, outputDir string) exportOutcome {
	req := export.Request{Decl: decl, File: pf.Path, Config: exportCfg, Fishing: fish, Aliases: aliases, Log: o.Log}

	var (
		result export.Result
		err    error
	)
	switch decl.Kind() {
	case cst.KindProfileDecl:
		result, err = export.ExportProfile(ctx, req)
	case cst.KindExtensionDecl:
		result, err = export.ExportExtension(ctx, req)
	case cst.KindValueSetDecl:
		result, err = export.ExportValueSet(ctx, req)
	case cst.KindCodeSystemDecl:
		result, err = export.ExportCodeSystem(ctx, req)
	case cst.KindInstanceDecl:
		result, err = export.ExportInstance(ctx, req)
	default:
		return exportOutcome{}
	}

	rng := decl.Node.TextRange()
	loc := pf.Model.SourceMap.Location(pf.Path, rng.Start, rng.End)
	entry := FshIndexEntry{
		FshName:   decl.Name(),
		FshType:   declKindLabel(decl.Kind()),
		FshFile:   pf.Path,
		StartLine: loc.Line,
		EndLine:   loc.EndLine,
	}

	if err != nil {
		return exportOutcome{Entry: entry, Err: fmt.Errorf("%s %s: %w", entry.FshType, entry.FshName, err)}
	}

	filename := result.ResourceType + "-" + result.ID + ".json"
	if werr := os.WriteFile(filepath.Join(outputDir, "resources", filename), result.Body, 0o644); werr != nil {
		return exportOutcome{Entry: entry, Err: werr}
	}
	fish.RegisterExported(result.URL, result.Body)
	entry.OutputFile = filepath.Join("resources", filename)
	return exportOutcome{Entry: entry, Warnings: result.Warnings}
}

// instanceBuildOutcome is pass 1's per-item result: a built, registered
// JSON body and index entry, ready for pass 2 to write to disk.
type instanceBuildOutcome struct {
	Entry  FshIndexEntry
	Result export.Result
	Err    error
}

// exportInstancesTwoPass exports Instance declarations through an
// explicit pass-1 (build the JSON body and register it in the fishing
// Package tier)/barrier/pass-2 (write every body to disk) sequence,
// rather than exportBatch's single build-and-write-per-goroutine pass:
// instances may reference each other by name, so every instance must be
// built and registered before any instance is written (spec.md §4.I).
func (o *Orchestrator) exportInstancesTwoPass(ctx context.Context, items []exportItem, exportCfg export.Config, fish *fishing.Context, aliases *semantic.AliasTable, outputDir string) ([]FshIndexEntry, []string, []error) {
	if len(items) == 0 {
		return nil, nil, nil
	}

	sem := semaphore.NewWeighted(int64(defaultExportConcurrency))
	g, gctx := errgroup.WithContext(ctx)

	outcomes := make([]instanceBuildOutcome, len(items))
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			req := export.Request{Decl: it.Decl, File: it.File.Path, Config: exportCfg, Fishing: fish, Aliases: aliases, Log: o.Log}
			result, err := export.ExportInstance(gctx, req)

			rng := it.Decl.Node.TextRange()
			loc := it.File.Model.SourceMap.Location(it.File.Path, rng.Start, rng.End)
			entry := FshIndexEntry{
				FshName:   it.Decl.Name(),
				FshType:   declKindLabel(cst.KindInstanceDecl),
				FshFile:   it.File.Path,
				StartLine: loc.Line,
				EndLine:   loc.EndLine,
			}
			outcomes[i] = instanceBuildOutcome{Entry: entry, Result: result, Err: err}
			return nil
		})
	}
	g.Wait() // barrier: every instance is built and registered before any is written.

	var entries []FshIndexEntry
	var warnings []string
	var errs []error
	for _, oc := range outcomes {
		if oc.Err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", oc.Entry.FshType, oc.Entry.FshName, oc.Err))
			continue
		}
		filename := oc.Result.ResourceType + "-" + oc.Result.ID + ".json"
		if werr := os.WriteFile(filepath.Join(outputDir, "resources", filename), oc.Result.Body, 0o644); werr != nil {
			errs = append(errs, werr)
			continue
		}
		entry := oc.Entry
		entry.OutputFile = filepath.Join("resources", filename)
		entries = append(entries, entry)
		warnings = append(warnings, oc.Result.Warnings...)
	}
	return entries, warnings, errs
}

// exportBatch exports every item concurrently, bounded by
// defaultExportConcurrency, and collects every outcome. One declaration's
// export error never aborts the others (spec.md §4.I "export failures are
// per-resource, not fatal to the build").
func (o *Orchestrator) exportBatch(ctx context.Context, items []exportItem, exportCfg export.Config, fish *fishing.Context, aliases *semantic.AliasTable, outputDir string) ([]FshIndexEntry, []string, []error) {
	if len(items) == 0 {
		return nil, nil, nil
	}

	sem := semaphore.NewWeighted(int64(defaultExportConcurrency))
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var entries []FshIndexEntry
	var warnings []string
	var errs []error

	for _, it := range items {
		it := it
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			outcome := o.exportDecl(gctx, it.File, it.Decl, exportCfg, fish, aliases, outputDir)
			mu.Lock()
			if outcome.Entry.FshName != "" {
				entries = append(entries, outcome.Entry)
			}
			warnings = append(warnings, outcome.Warnings...)
			if outcome.Err != nil {
				errs = append(errs, outcome.Err)
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return entries, warnings, errs
}

// tallyResourceCounts folds one batch's outcome into the build summary's
// per-type counters.
func tallyResourceCounts(byType map[string]ResourceCount, label string, entries []FshIndexEntry, errs []error) {
	rc := byType[label]
	for _, e := range entries {
		if e.FshType == label {
			rc.Exported++
		}
	}
	rc.Errored += len(errs)
	byType[label] = rc
}

// applySeverityOverrides applies each matching "rules.<id>.severity"
// config entry over the diagnostics the engine produced (spec.md §6
// "rules: Map[id, RuleConfig]").
func applySeverityOverrides(diags []diagnostic.Diagnostic, cfg *config.Config) {
	for i := range diags {
		if rc, ok := cfg.Rules[diags[i].RuleID]; ok && rc.Severity != "" {
			diags[i].Severity = rc.Severity
		}
	}
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// runLinter runs the built-in rule pack over every already-parsed file,
// applying any per-file override config (spec.md §6 "overrides") before
// returning the combined diagnostics.
func (o *Orchestrator) runLinter(parsed []parsedFile, fish *fishing.Context) (*LintResult, error) {
	registry := rules.NewRegistry(o.Log)
	if _, err := registry.RegisterPack(builtin.Pack()); err != nil {
		return nil, fmt.Errorf("register builtin rules: %w", err)
	}
	engine := rules.NewEngine(registry, rules.EngineConfig{}, o.Log)

	lr := &LintResult{}
	for _, pf := range parsed {
		diags, err := engine.Run(pf.Model, pf.Src, fish)
		if err != nil {
			lr.Errors = append(lr.Errors, err)
			continue
		}
		fileCfg := config.ForFile(o.Config, relPath(o.RootDir, pf.Path))
		applySeverityOverrides(diags, fileCfg)
		lr.Diagnostics = append(lr.Diagnostics, diags...)
	}
	return lr, nil
}

// bootstrap runs phases 1 through 7 shared by Build and Lint: canonical
// package installation, discovery, parsing, semantic modeling, and Tank
// population.
func (o *Orchestrator) bootstrap(ctx context.Context) (parsed []parsedFile, aliases *semantic.AliasTable, symbols *semantic.SymbolTable, fish *fishing.Context, errs []error, err error) {
	cfg := o.Config
	inputDir := filepath.Join(o.RootDir, cfg.Build.InputDir)

	aliases = semantic.NewAliasTable(o.Log)
	fish = fishing.NewContext(aliases, o.SessionFactory, o.Log)
	if ierr := fish.EnsurePackages(ctx, dependencyCoordinates(cfg.Build.Dependencies)); ierr != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("ensure packages: %w", ierr)
	}

	files, derr := o.Discoverer.Discover(inputDir, cfg.Files)
	if derr != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("discover files: %w", derr)
	}

	symbols = semantic.NewSymbolTable()
	deferred := semantic.NewDeferredRuleQueue()
	parsed, errs = parseAll(files, aliases, symbols, deferred, fish)
	return parsed, aliases, symbols, fish, errs, nil
}

// Lint runs a lint-only pass: every file is parsed and checked, but
// nothing is exported (spec.md §4.J names this the standalone "lint"
// entry point, sharing phases 1-7 with a full Build).
func (o *Orchestrator) Lint(ctx context.Context) (*LintResult, error) {
	parsed, _, _, fish, perrs, err := o.bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	lr, err := o.runLinter(parsed, fish)
	if err != nil {
		return nil, err
	}
	lr.Errors = append(perrs, lr.Errors...)

	for _, pf := range parsed {
		for _, pe := range pf.Tree.Errs {
			lr.Diagnostics = append(lr.Diagnostics, diagnostic.Diagnostic{
				RuleID:   "parse-error",
				Severity: diagnostic.SeverityError,
				Message:  pe.Message,
				Location: pf.Model.SourceMap.Location(pf.Path, pe.Span.Start, pe.Span.End),
			})
		}
	}
	return lr, nil
}

// Build runs a full build pass: the 13 phases of spec.md §4.J, ending
// with a populated Result (fsh-index entries, IG/package.json artifacts
// unless FshOnly is set, and the incremental-build cache saved back).
func (o *Orchestrator) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	cfg := o.Config
	outputDir := filepath.Join(o.RootDir, cfg.Build.OutputDir)

	if cfg.Build.CleanOutput {
		if err := os.RemoveAll(outputDir); err != nil {
			return nil, fmt.Errorf("clean output dir: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(outputDir, "resources"), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	cache := &Cache{Files: map[string]CacheEntry{}}
	if cfg.Build.UseCache {
		cache = LoadCache(outputDir)
	}

	parsed, aliases, symbols, fish, perrs, err := o.bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{OutputDir: outputDir, Summary: Summary{ByType: map[string]ResourceCount{}}}
	res.Errors = append(res.Errors, perrs...)

	cacheCounts := map[Classification]int{}
	for _, pf := range parsed {
		class, hash := cache.Classify(pf.Path, []byte(pf.Src))
		cacheCounts[class]++
		cache.Files[pf.Path] = CacheEntry{Hash: hash}
		for _, pe := range pf.Tree.Errs {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s", pf.Path, pe.Error()))
		}
	}
	res.Summary.CacheHits = cacheCounts[ClassUnchanged]
	res.Summary.CacheMisses = cacheCounts[ClassChanged] + cacheCounts[ClassNew]

	docs := make(map[string]ast.Document, len(parsed))
	for _, pf := range parsed {
		docs[pf.Path] = pf.Doc
	}

	defs := ruleset.Collect(docs, o.Log)
	expansions := ruleset.ExpandAll(docs, defs, o.Log)
	for site, result := range expansions {
		if !result.Expanded {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: could not expand insert %s: %v", site.File, site.Rule.InsertName(), result.Err))
		}
	}

	if cfg.Build.RunLinter {
		lintRes, lerr := o.runLinter(parsed, fish)
		if lerr != nil {
			res.Errors = append(res.Errors, lerr)
		} else {
			for _, d := range lintRes.Diagnostics {
				if d.Severity == diagnostic.SeverityError {
					res.Warnings = append(res.Warnings, fmt.Sprintf("%s:%d lint error [%s] %s", d.Location.File, d.Location.Line, d.RuleID, d.Message))
				}
			}
			if cfg.Build.StrictMode && len(lintRes.Diagnostics) > 0 {
				return res, fmt.Errorf("strict_mode: %d lint diagnostics block the build", len(lintRes.Diagnostics))
			}
		}
	}

	deps, owners := profileDependencies(parsed, aliases, symbols)
	levels, cyclic := levelBatches(deps)
	if len(cyclic) > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("profile dependency cycle detected, exporting anyway: %v", cyclic))
		levels = append(levels, cyclic)
	}

	exportCfg := exportConfigFrom(cfg)
	ownerIndex := make(map[string]parsedFile, len(parsed))
	for _, pf := range parsed {
		ownerIndex[pf.Path] = pf
	}

	for _, level := range levels {
		var items []exportItem
		for _, name := range level {
			owner, ok := owners[name]
			if !ok {
				continue
			}
			items = append(items, exportItem{File: ownerIndex[owner.File], Decl: owner.Decl})
		}
		entries, warnings, errs := o.exportBatch(ctx, items, exportCfg, fish, aliases, outputDir)
		res.Index = append(res.Index, entries...)
		res.Warnings = append(res.Warnings, warnings...)
		res.Errors = append(res.Errors, errs...)
		tallyResourceCounts(res.Summary.ByType, "Profile", entries, errs)
	}

	for _, kind := range []cst.Kind{cst.KindExtensionDecl, cst.KindValueSetDecl, cst.KindCodeSystemDecl} {
		var items []exportItem
		for _, pf := range parsed {
			for _, decl := range pf.Doc.Declarations() {
				if decl.Kind() == kind {
					items = append(items, exportItem{File: pf, Decl: decl})
				}
			}
		}
		entries, warnings, errs := o.exportBatch(ctx, items, exportCfg, fish, aliases, outputDir)
		res.Index = append(res.Index, entries...)
		res.Warnings = append(res.Warnings, warnings...)
		res.Errors = append(res.Errors, errs...)
		tallyResourceCounts(res.Summary.ByType, declKindLabel(kind), entries, errs)
	}

	// Instances may reference each other by name, so they export through
	// an explicit two-pass sequence rather than exportBatch's single pass:
	// every instance's body is built and registered before any is
	// written to disk (spec.md §4.I).
	var instanceItems []exportItem
	for _, pf := range parsed {
		for _, decl := range pf.Doc.Declarations() {
			if decl.Kind() == cst.KindInstanceDecl {
				instanceItems = append(instanceItems, exportItem{File: pf, Decl: decl})
			}
		}
	}
	instEntries, instWarnings, instErrs := o.exportInstancesTwoPass(ctx, instanceItems, exportCfg, fish, aliases, outputDir)
	res.Index = append(res.Index, instEntries...)
	res.Warnings = append(res.Warnings, instWarnings...)
	res.Errors = append(res.Errors, instErrs...)
	tallyResourceCounts(res.Summary.ByType, declKindLabel(cst.KindInstanceDecl), instEntries, instErrs)

	// Every file's Model shares the same DeferredRuleQueue instance
	// (threaded through parseAll), so draining any one of them drains
	// the whole compilation unit's queue.
	var drained []semantic.DeferredRule
	if len(parsed) > 0 && parsed[0].Model.DeferredRules != nil {
		drained = parsed[0].Model.DeferredRules.Drain()
	}
	for _, dr := range drained {
		matched := false
		for i := range res.Index {
			if res.Index[i].FshName == dr.EntityID {
				res.Index[i].Deferred = true
				res.Index[i].DeferredReason = dr.Reason.Kind + ": " + dr.Reason.Target
				matched = true
			}
		}
		if !matched {
			res.Warnings = append(res.Warnings, fmt.Sprintf("deferred rule for %s (%s) could not be matched to an exported entry", dr.EntityID, dr.Reason.Kind))
		}
	}

	if !cfg.Build.FshOnly {
		if aerr := writeArtifacts(outputDir, cfg, res.Index); aerr != nil {
			res.Errors = append(res.Errors, aerr)
		}
	}

	if ierr := writeIndex(outputDir, res.Index); ierr != nil {
		res.Errors = append(res.Errors, ierr)
	}

	if cfg.Build.UseCache {
		if serr := cache.Save(outputDir); serr != nil {
			res.Errors = append(res.Errors, serr)
		}
	}

	res.Summary.Elapsed = time.Since(start)
	return res, nil
}
