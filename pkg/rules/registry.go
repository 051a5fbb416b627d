package rules

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"github.com/fshlint/fshlint/internal/xerrors"
)

// Registry holds every CompiledRule available to an engine, grounded on
// the teacher's validator registry: a sync.RWMutex guards a plain map so
// analysis tasks can read concurrently while a reload/config change takes
// an exclusive write lock (spec.md §4.E "Thread safety").
type Registry struct {
	mu         sync.RWMutex
	rules      map[string]CompiledRule
	packNames  map[string]struct{}
	precedence map[string]PrecedenceEntry
	decisions  []PrecedenceDecision
	log        *zap.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		rules:      make(map[string]CompiledRule),
		packNames:  make(map[string]struct{}),
		precedence: make(map[string]PrecedenceEntry),
		log:        log,
	}
}

// SetPrecedence installs the precedence map used by RegisterPack (spec.md
// §4.E "Precedence map": list of {pack_name, priority, can_override}).
func (r *Registry) SetPrecedence(entries []PrecedenceEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.precedence = make(map[string]PrecedenceEntry, len(entries))
	for _, e := range entries {
		r.precedence[e.PackName] = e
	}
}

// Register installs a single CompiledRule per spec.md §4.E "Registration":
// if the id already exists, higher priority replaces, equal priority keeps
// the existing rule.
func (r *Registry) Register(rule CompiledRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerLocked(rule)
	return nil
}

func (r *Registry) registerLocked(rule CompiledRule) {
	existing, ok := r.rules[rule.ID]
	if !ok || rule.Priority > existing.Priority {
		r.rules[rule.ID] = rule
		return
	}
	// equal or lower priority: keep existing
}

// RegisterPack validates and installs every rule in a RulePack (spec.md
// §4.E "register_pack"). Returns the per-rule precedence decisions made
// (SPEC_FULL.md §3 "rule pack precedence diagnostics") and an error only
// for pack-level validation failures (metadata, duplicate name) — a
// losing rule inside a valid pack is a recorded decision, not an error.
func (r *Registry) RegisterPack(pack RulePack) ([]PrecedenceDecision, error) {
	if err := validatePackMetadata(pack.Metadata); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.packNames[pack.Metadata.Name]; dup {
		return nil, xerrors.ErrDuplicatePackName
	}
	r.packNames[pack.Metadata.Name] = struct{}{}

	entry, hasEntry := r.precedence[pack.Metadata.Name]
	var decisions []PrecedenceDecision
	for _, rule := range pack.Rules {
		if err := rule.Validate(); err != nil {
			r.log.Warn("skipping invalid rule in pack", zap.String("pack", pack.Metadata.Name), zap.String("rule", rule.ID), zap.Error(err))
			continue
		}
		rule.packName = pack.Metadata.Name
		if hasEntry {
			rule.Priority = entry.Priority
		}

		existing, exists := r.rules[rule.ID]
		decision := PrecedenceDecision{RuleID: rule.ID, PackName: pack.Metadata.Name}
		switch {
		case !exists:
			decision.Applied = true
			decision.Reason = "no prior registration"
			r.rules[rule.ID] = rule
		case rule.Priority > existing.Priority:
			decision.Applied = true
			decision.Reason = "higher priority"
			decision.PreviousPack = existing.packName
			r.rules[rule.ID] = rule
		case rule.Priority == existing.Priority && hasEntry && entry.CanOverride:
			decision.Applied = true
			decision.Reason = "equal priority, can_override"
			decision.PreviousPack = existing.packName
			r.rules[rule.ID] = rule
		default:
			decision.Applied = false
			decision.Reason = "lower or equal priority without can_override"
			decision.PreviousPack = existing.packName
		}
		decisions = append(decisions, decision)
	}
	r.decisions = append(r.decisions, decisions...)
	return decisions, nil
}

func validatePackMetadata(m PackMetadata) error {
	if strings.TrimSpace(m.Name) == "" {
		return xerrors.ErrInvalidPackMeta
	}
	if !containsDigit(m.Version) {
		return xerrors.ErrInvalidPackMeta
	}
	return nil
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// Get returns the CompiledRule registered under id.
func (r *Registry) Get(id string) (CompiledRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	return rule, ok
}

// List returns every registered rule, sorted by id for deterministic
// iteration (spec.md P2 determinism).
func (r *Registry) List() []CompiledRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CompiledRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Decisions returns every precedence decision recorded across all
// RegisterPack calls so far.
func (r *Registry) Decisions() []PrecedenceDecision {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PrecedenceDecision, len(r.decisions))
	copy(out, r.decisions)
	return out
}
