package fishing_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/fshlint/pkg/fishing"
	"github.com/fshlint/fshlint/pkg/semantic"
)

type fakeSession struct {
	calls   int
	body    json.RawMessage
	ensured []fishing.PackageCoordinate
}

func (f *fakeSession) ResolveStructureDefinition(ctx context.Context, url string) (json.RawMessage, bool, error) {
	f.calls++
	if f.body == nil {
		return nil, false, nil
	}
	return f.body, true, nil
}

func (f *fakeSession) EnsurePackages(ctx context.Context, coords []fishing.PackageCoordinate) error {
	f.ensured = coords
	return nil
}

func TestResolvePackageTierWins(t *testing.T) {
	aliases := semantic.NewAliasTable(nil)
	fc := fishing.NewContext(aliases, nil, nil)
	fc.RegisterExported("http://example.org/StructureDefinition/Foo", json.RawMessage(`{"a":1}`))

	res, ok, err := fc.Resolve(context.Background(), "http://example.org/StructureDefinition/Foo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fishing.TierPackage, res.Tier)
}

func TestResolveTankTierWhenNoPackageHit(t *testing.T) {
	aliases := semantic.NewAliasTable(nil)
	fc := fishing.NewContext(aliases, nil, nil)
	fc.RegisterLocal(fishing.FhirResource{Kind: semantic.DeclProfile, Name: "MyPatient", CanonicalURL: "http://example.org/sd/my-patient"})

	res, ok, err := fc.Resolve(context.Background(), "MyPatient")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fishing.TierTank, res.Tier)
	assert.Equal(t, "MyPatient", res.Resource.Name)
}

func TestResolveAliasPassthrough(t *testing.T) {
	aliases := semantic.NewAliasTable(nil)
	aliases.Declare("sct", "http://snomed.info/sct", "a.fsh", 0, 0)
	sess := &fakeSession{body: json.RawMessage(`{"resourceType":"CodeSystem"}`)}
	fc := fishing.NewContext(aliases, func(ctx context.Context) (fishing.CanonicalSession, error) { return sess, nil }, nil)

	res, ok, err := fc.Resolve(context.Background(), "sct")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fishing.TierCanonical, res.Tier)
	assert.Equal(t, 1, sess.calls)
}

func TestResolveLazySessionNeverBuiltWithoutMiss(t *testing.T) {
	built := false
	factory := func(ctx context.Context) (fishing.CanonicalSession, error) {
		built = true
		return &fakeSession{}, nil
	}
	aliases := semantic.NewAliasTable(nil)
	fc := fishing.NewContext(aliases, factory, nil)
	fc.RegisterExported("http://example.org/hit", json.RawMessage(`{}`))

	_, ok, err := fc.Resolve(context.Background(), "http://example.org/hit")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, built, "canonical session factory must not run when Package tier already answered")
}

func TestResolveMissReturnsFalse(t *testing.T) {
	aliases := semantic.NewAliasTable(nil)
	fc := fishing.NewContext(aliases, nil, nil)
	_, ok, err := fc.Resolve(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsurePackagesNoSessionIsNoop(t *testing.T) {
	aliases := semantic.NewAliasTable(nil)
	fc := fishing.NewContext(aliases, nil, nil)
	err := fc.EnsurePackages(context.Background(), []fishing.PackageCoordinate{{Name: "hl7.fhir.us.core", Version: "6.1.0"}})
	assert.NoError(t, err)
}

func TestEnsurePackagesPropagatesSessionError(t *testing.T) {
	wantErr := errors.New("timeout")
	factory := func(ctx context.Context) (fishing.CanonicalSession, error) { return nil, wantErr }
	aliases := semantic.NewAliasTable(nil)
	fc := fishing.NewContext(aliases, factory, nil)
	err := fc.EnsurePackages(context.Background(), nil)
	assert.ErrorIs(t, err, wantErr)
}
