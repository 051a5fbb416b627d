package semantic

import (
	"strings"
	"sync"

	"github.com/fshlint/fshlint/internal/xlog"
	"go.uber.org/zap"
)

// AliasBinding records where an alias was declared, for diagnostics that
// need to point back at the source (spec.md §3 Alias).
type AliasBinding struct {
	Name       string
	URL        string
	SourceFile string
	Start, End uint32
}

// AliasTable is the global alias → URL map built across every input
// file (spec.md §4.D). Declared aliases collide last-wins with a logged
// warning, matching the orchestrator's Phase 5 contract (§4.J).
type AliasTable struct {
	mu       sync.RWMutex
	bindings map[string]AliasBinding
	log      *zap.Logger
}

// NewAliasTable creates an empty table. A nil logger defaults to a no-op
// logger so AliasTable is usable without ambient logging wired in.
func NewAliasTable(log *zap.Logger) *AliasTable {
	if log == nil {
		log = xlog.Noop()
	}
	return &AliasTable{bindings: make(map[string]AliasBinding), log: log}
}

// Declare records name → url from sourceFile. A duplicate name logs a
// warning and overwrites the previous binding (spec.md Alias "last-wins").
func (t *AliasTable) Declare(name, url, sourceFile string, start, end uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.bindings[name]; ok {
		t.log.Warn("duplicate alias declaration, last-wins",
			zap.String("name", name),
			zap.String("previous_file", prev.SourceFile),
			zap.String("new_file", sourceFile),
		)
	}
	t.bindings[name] = AliasBinding{Name: name, URL: url, SourceFile: sourceFile, Start: start, End: end}
}

// Resolve returns the URL bound to name. If name is already an absolute
// URL (http:// or https://), it is returned unchanged without a lookup
// (spec.md §4.D AliasTable).
func (t *AliasTable) Resolve(name string) (string, bool) {
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name, true
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.bindings[name]
	if !ok {
		return "", false
	}
	return b.URL, true
}

// All returns every declared binding, for callers building diagnostics
// or exports that need to enumerate aliases.
func (t *AliasTable) All() []AliasBinding {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]AliasBinding, 0, len(t.bindings))
	for _, b := range t.bindings {
		out = append(out, b)
	}
	return out
}
