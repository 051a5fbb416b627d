package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPath(t *testing.T) {
	require.Nil(t, WrapPath(KindIO, "a.fsh", nil))

	wrapped := WrapPath(KindParse, "profile.fsh", ErrUnexpectedToken)
	require.Error(t, wrapped)
	assert.Contains(t, wrapped.Error(), "profile.fsh")
	assert.True(t, errors.Is(wrapped, ErrUnexpectedToken))
	assert.True(t, IsPathError(wrapped))
	assert.Equal(t, "profile.fsh", GetPath(wrapped))
	assert.Equal(t, KindParse, GetKind(wrapped))
}

func TestWrapPathf(t *testing.T) {
	err := WrapPathf(KindLexer, "a.fsh", "bad token at %d", 12)
	assert.Equal(t, "[lexer] at a.fsh: bad token at 12", err.Error())
}

func TestGetPathOnPlainError(t *testing.T) {
	assert.Equal(t, "", GetPath(errors.New("plain")))
	assert.False(t, IsPathError(errors.New("plain")))
}

func TestPackageInstallTimeoutError(t *testing.T) {
	err := &PackageInstallTimeoutError{Packages: []string{"hl7.fhir.us.core"}, Elapsed: "30s"}
	assert.Contains(t, err.Error(), "hl7.fhir.us.core")
	assert.Contains(t, err.Error(), "30s")
}
