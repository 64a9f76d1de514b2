package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/transform"
)

func TestMatrixFansOutMinusExcludes(t *testing.T) {
	t.Parallel()

	stub := transform.Stub{
		"label": "test-{matrix[os]}",
		"matrix": map[string]interface{}{
			"os": []interface{}{"linux", "mac", "windows"},
			"exclude": []interface{}{
				map[string]interface{}{"os": "windows"},
			},
		},
	}

	out, err := runSteps(t, &transform.Config{Kind: "test"},
		map[string]transform.Stub{"test": stub}, transform.Matrix(nil))

	require.NoError(t, err)
	require.Len(t, out, 2)

	labels := []string{out[0]["label"].(string), out[1]["label"].(string)}
	assert.ElementsMatch(t, []string{"test-linux", "test-mac"}, labels)
}

func TestMatrixRecordsChosenTupleInAttributes(t *testing.T) {
	t.Parallel()

	stub := transform.Stub{
		"label": "build-{matrix[os]}-{matrix[arch]}",
		"matrix": map[string]interface{}{
			"os":   []interface{}{"linux"},
			"arch": []interface{}{"amd64", "arm64"},
		},
	}

	out, err := runSteps(t, &transform.Config{Kind: "build"},
		map[string]transform.Stub{"build": stub}, transform.Matrix(nil))

	require.NoError(t, err)
	require.Len(t, out, 2)

	for _, s := range out {
		attrs, ok := s["attributes"].(map[string]interface{})
		require.True(t, ok)

		matrix, ok := attrs["matrix"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "linux", matrix["os"])
		assert.Contains(t, []interface{}{"amd64", "arm64"}, matrix["arch"])
	}
}

func TestMatrixInterpolatesSubstitutionFields(t *testing.T) {
	t.Parallel()

	stub := transform.Stub{
		"label": "test-{matrix[os]}",
		"matrix": map[string]interface{}{
			"os": []interface{}{"linux"},
		},
		"worker": map[string]interface{}{
			"docker-image": "ci/{matrix[os]}",
		},
	}

	out, err := runSteps(t, &transform.Config{Kind: "test"},
		map[string]transform.Stub{"test": stub},
		transform.Matrix([]string{"worker.docker-image"}))

	require.NoError(t, err)
	require.Len(t, out, 1)

	worker := out[0]["worker"].(map[string]interface{})
	assert.Equal(t, "ci/linux", worker["docker-image"])
}

func TestMatrixPassThroughWithoutMatrixKey(t *testing.T) {
	t.Parallel()

	out, err := runSteps(t, &transform.Config{Kind: "test"},
		map[string]transform.Stub{"plain": {"label": "plain"}}, transform.Matrix(nil))

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "plain", out[0]["label"])
}

func TestMatrixRejectsNonListAxis(t *testing.T) {
	t.Parallel()

	stub := transform.Stub{
		"label":  "bad",
		"matrix": map[string]interface{}{"os": "linux"},
	}

	_, err := runSteps(t, &transform.Config{Kind: "test"},
		map[string]transform.Stub{"bad": stub}, transform.Matrix(nil))

	require.Error(t, err)
}
