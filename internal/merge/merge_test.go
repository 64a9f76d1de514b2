package merge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskforge-dev/taskforge/internal/merge"
)

func TestDeepMergeIdempotentWhenOverrideIsSubset(t *testing.T) {
	t.Parallel()

	base := map[string]interface{}{
		"worker-type": "linux",
		"retry":       map[string]interface{}{"max-attempts": float64(3)},
	}
	override := map[string]interface{}{
		"retry": map[string]interface{}{"max-attempts": float64(3)},
	}

	merged := merge.DeepMerge(base, override)
	assert.Equal(t, base, merged)
}

func TestDeepMergeOverrideWins(t *testing.T) {
	t.Parallel()

	base := map[string]interface{}{"timeout": float64(60)}
	override := map[string]interface{}{"timeout": float64(120)}

	merged := merge.DeepMerge(base, override)
	assert.Equal(t, float64(120), merged["timeout"])
}

func TestDeepMergeRecursesIntoNestedMaps(t *testing.T) {
	t.Parallel()

	base := map[string]interface{}{
		"env": map[string]interface{}{"A": "1", "B": "2"},
	}
	override := map[string]interface{}{
		"env": map[string]interface{}{"B": "20", "C": "3"},
	}

	merged := merge.DeepMerge(base, override)
	assert.Equal(t, map[string]interface{}{"A": "1", "B": "20", "C": "3"}, merged["env"])
}

func TestDeepMergeByStarReplacesWhole(t *testing.T) {
	t.Parallel()

	base := map[string]interface{}{
		"worker-type": map[string]interface{}{
			"by-platform": map[string]interface{}{"linux": "a", "default": "b"},
		},
	}
	override := map[string]interface{}{
		"worker-type": map[string]interface{}{
			"by-platform": map[string]interface{}{"windows": "c"},
		},
	}

	merged := merge.DeepMerge(base, override)
	assert.Equal(t, override["worker-type"], merged["worker-type"])
}

func TestDeepMergeDoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	base := map[string]interface{}{"env": map[string]interface{}{"A": "1"}}
	override := map[string]interface{}{"env": map[string]interface{}{"B": "2"}}

	_ = merge.DeepMerge(base, override)

	assert.Equal(t, map[string]interface{}{"A": "1"}, base["env"])
	assert.Equal(t, map[string]interface{}{"B": "2"}, override["env"])
}
