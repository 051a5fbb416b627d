package semantic

import "sync"

// DeferredReason explains why a rule or export target could not resolve
// when first attempted (spec.md §4.D DeferredRuleQueue).
type DeferredReason struct {
	Kind   string // UnresolvedReference | CircularDependency | MissingResource | MissingParent
	Target string
}

const (
	ReasonUnresolvedReference = "UnresolvedReference"
	ReasonCircularDependency  = "CircularDependency"
	ReasonMissingResource     = "MissingResource"
	ReasonMissingParent       = "MissingParent"
)

// DeferredRule is one entry of work to retry in Build Orchestrator Phase 3
// (spec.md §4.J "Deferred rules").
type DeferredRule struct {
	EntityID string
	Reason   DeferredReason
	Content  string
}

// DeferredRuleQueue is a simple FIFO guarded by a mutex; it is drained
// strictly after all exporters complete (spec.md §5 "Ordering guarantees").
type DeferredRuleQueue struct {
	mu      sync.Mutex
	entries []DeferredRule
}

// NewDeferredRuleQueue creates an empty queue.
func NewDeferredRuleQueue() *DeferredRuleQueue { return &DeferredRuleQueue{} }

// Push adds an entry.
func (q *DeferredRuleQueue) Push(e DeferredRule) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, e)
}

// Drain removes and returns every entry currently queued, in FIFO order.
func (q *DeferredRuleQueue) Drain() []DeferredRule {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.entries
	q.entries = nil
	return out
}

// Len reports the number of entries currently queued.
func (q *DeferredRuleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
