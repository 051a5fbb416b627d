package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelBatchesOrdersByDependency(t *testing.T) {
	deps := map[string][]string{
		"Base":     nil,
		"Mid":      {"Base"},
		"Leaf":     {"Mid"},
		"Separate": nil,
	}

	levels, cyclic := levelBatches(deps)
	assert.Empty(t, cyclic)
	assert.Equal(t, [][]string{
		{"Base", "Separate"},
		{"Mid"},
		{"Leaf"},
	}, levels)
}

func TestLevelBatchesDetectsCycle(t *testing.T) {
	deps := map[string][]string{
		"A": {"B"},
		"B": {"A"},
		"C": nil,
	}

	levels, cyclic := levelBatches(deps)
	assert.Equal(t, [][]string{{"C"}}, levels)
	assert.Equal(t, []string{"A", "B"}, cyclic)
}

func TestLevelBatchesEmptyInput(t *testing.T) {
	levels, cyclic := levelBatches(map[string][]string{})
	assert.Nil(t, levels)
	assert.Nil(t, cyclic)
}
