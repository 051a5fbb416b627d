// Package fishing implements the three-tier reference resolution protocol
// of spec.md §4.H: Package (already-exported outputs of this build) →
// Tank (parsed local FSH resources) → Canonical session (an external,
// opaque async package repository). Modeled on the shape of a registry
// that layers synchronous, RWMutex-guarded in-memory tiers over one
// context.Context-threaded async tier, queried in a fixed order.
package fishing

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/fshlint/fshlint/pkg/semantic"
)

// FhirResource is the minimal record the Tank tier keeps for a parsed
// local FSH declaration (spec.md §4.H "Tank").
type FhirResource struct {
	Kind         semantic.DeclKind
	Name         string
	CanonicalURL string
	SourceFile   string
	// ResourceType and ID are populated for Instance declarations so a
	// Tank hit can be formatted as a local "{type}/{id}" reference
	// without re-parsing the owning declaration.
	ResourceType string
	ID           string
}

// PackageCoordinate names a declared FHIR package dependency to install
// before fishing (spec.md §4.H "ensure_packages").
type PackageCoordinate struct {
	Name    string
	Version string
}

// CanonicalSession is the opaque async interface the environment supplies
// for the third tier. The core consumes only these two operations
// (spec.md §4.H); the result is left as raw JSON so this package never
// needs to import pkg/export's richer StructureDefinition type.
type CanonicalSession interface {
	ResolveStructureDefinition(ctx context.Context, url string) (json.RawMessage, bool, error)
	EnsurePackages(ctx context.Context, coords []PackageCoordinate) error
}

// Tier identifies which of the three stores answered a Resolve call.
type Tier int

const (
	TierNone Tier = iota
	TierPackage
	TierTank
	TierCanonical
)

// Result is what Resolve returns: the resolved JSON (for Package/Canonical
// hits) or Tank record (for Tank hits), tagged with the tier that answered.
type Result struct {
	Tier     Tier
	JSON     json.RawMessage
	Resource FhirResource
}

// sessionInit lazily constructs the canonical session on first use so
// rules that never need external data never pay the dial/auth cost
// (spec.md §4.H "wrapped in a lazy initializer").
type sessionInit struct {
	once    sync.Once
	factory func(context.Context) (CanonicalSession, error)
	session CanonicalSession
	err     error
}

func (s *sessionInit) get(ctx context.Context) (CanonicalSession, error) {
	if s.factory == nil {
		return nil, nil
	}
	s.once.Do(func() {
		s.session, s.err = s.factory(ctx)
	})
	return s.session, s.err
}

// Context is the three-tier fishing context for one build.
type Context struct {
	mu      sync.RWMutex
	pkg     map[string]json.RawMessage
	tank    map[string]FhirResource
	aliases *semantic.AliasTable
	session *sessionInit
	log     *zap.Logger
}

// NewContext constructs an empty fishing context. sessionFactory may be
// nil when no canonical session is configured (offline builds).
func NewContext(aliases *semantic.AliasTable, sessionFactory func(context.Context) (CanonicalSession, error), log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{
		pkg:     make(map[string]json.RawMessage),
		tank:    make(map[string]FhirResource),
		aliases: aliases,
		session: &sessionInit{factory: sessionFactory},
		log:     log,
	}
}

// RegisterExported records a resource produced by this build's exporters
// so later exports and instances can fish for it (spec.md §4.H "Package").
func (c *Context) RegisterExported(url string, body json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pkg[url] = body
}

// RegisterLocal records a parsed local FSH declaration in the Tank tier.
func (c *Context) RegisterLocal(res FhirResource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tank[res.Name] = res
	if res.CanonicalURL != "" {
		c.tank[res.CanonicalURL] = res
	}
}

// EnsurePackages installs declared package dependencies via the canonical
// session, a no-op when no session is configured.
func (c *Context) EnsurePackages(ctx context.Context, coords []PackageCoordinate) error {
	sess, err := c.session.get(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	return sess.EnsurePackages(ctx, coords)
}

// Resolve looks up a reference by name or URL, passing the name through
// the alias table first, then querying Package, Tank, and finally the
// Canonical session in that fixed order (spec.md §4.H).
func (c *Context) Resolve(ctx context.Context, nameOrURL string) (Result, bool, error) {
	key := nameOrURL
	if c.aliases != nil {
		if resolved, ok := c.aliases.Resolve(nameOrURL); ok {
			key = resolved
		}
	}

	c.mu.RLock()
	if body, ok := c.pkg[key]; ok {
		c.mu.RUnlock()
		return Result{Tier: TierPackage, JSON: body}, true, nil
	}
	if res, ok := c.tank[key]; ok {
		c.mu.RUnlock()
		return Result{Tier: TierTank, Resource: res}, true, nil
	}
	c.mu.RUnlock()

	sess, err := c.session.get(ctx)
	if err != nil {
		return Result{}, false, err
	}
	if sess == nil {
		return Result{}, false, nil
	}
	body, ok, err := sess.ResolveStructureDefinition(ctx, key)
	if err != nil {
		c.log.Warn("canonical session resolve failed", zap.String("ref", key), zap.Error(err))
		return Result{}, false, err
	}
	if !ok {
		return Result{}, false, nil
	}
	return Result{Tier: TierCanonical, JSON: body}, true, nil
}
