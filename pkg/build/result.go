package build

import (
	"time"

	"github.com/fshlint/fshlint/pkg/diagnostic"
)

// ResourceCount tallies one resource type's export outcomes.
type ResourceCount struct {
	Exported int `json:"exported"`
	Skipped  int `json:"skipped"`
	Errored  int `json:"errored"`
}

// Summary is the supplemented build summary (SPEC_FULL.md §3), mirroring
// original_source/crates/maki-core/src/export/build.rs's BuildSummary:
// per-type resource counts, elapsed wall time, and cache hit/miss counts.
type Summary struct {
	ByType      map[string]ResourceCount `json:"by_type"`
	Elapsed     time.Duration            `json:"elapsed"`
	CacheHits   int                      `json:"cache_hits"`
	CacheMisses int                      `json:"cache_misses"`
}

// Result is what one Build call returns: the index entries written, any
// soft (non-fatal) diagnostics/errors gathered along the way, and the
// summary.
type Result struct {
	OutputDir string
	Index     []FshIndexEntry
	Summary   Summary
	Warnings  []string
	Errors    []error
}

// LintResult is what a Lint-only pass returns: diagnostics from every
// analyzed file, with no export side effects.
type LintResult struct {
	Diagnostics []diagnostic.Diagnostic
	Errors      []error
}
