package pattern_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/fshlint/pkg/rules/pattern"
)

func TestCompileLiteralPattern(t *testing.T) {
	re, err := pattern.Compile(`TODO:`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("* code TODO: fix this"))
}

func TestCompileEscapesMetacharacters(t *testing.T) {
	re, err := pattern.Compile(`onset[x]`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("* onset[x] only dateTime"))
	assert.False(t, re.MatchString("* onsetXx only dateTime"))
}

func TestCompileWithPlaceholderCapturesValue(t *testing.T) {
	re, err := pattern.Compile(`Description: $value`)
	require.NoError(t, err)
	matches := pattern.FindAll(re, "Profile: P\nDescription: \"hello world\"\n")
	require.Len(t, matches, 1)
	assert.Equal(t, `"hello`, matches[0].Captures["value"])
}

func TestFindAllReturnsByteRanges(t *testing.T) {
	re, err := pattern.Compile(`MS`)
	require.NoError(t, err)
	src := "* a MS\n* b MS\n"
	matches := pattern.FindAll(re, src)
	require.Len(t, matches, 2)
	assert.Equal(t, "MS", src[matches[0].Start:matches[0].End])
	assert.Equal(t, "MS", src[matches[1].Start:matches[1].End])
}
