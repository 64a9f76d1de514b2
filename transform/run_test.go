package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/transform"
)

func TestRunBashScriptBuildsPayload(t *testing.T) {
	t.Parallel()

	stub := transform.Stub{
		"label": "lint",
		"run": map[string]interface{}{
			"using":   "bash-script",
			"command": "make lint VERBOSE=1",
			"env":     map[string]interface{}{"CI": "1"},
		},
	}

	out, err := runSteps(t, &transform.Config{Kind: "lint"},
		map[string]transform.Stub{"lint": stub}, transform.Run())

	require.NoError(t, err)

	def := out[0]["task"].(map[string]interface{})
	payload := def["payload"].(map[string]interface{})

	assert.Equal(t, []string{"bash", "-c", "make lint VERBOSE=1"}, payload["argv"])
	assert.Equal(t, map[string]string{"CI": "1"}, payload["env"])
}

func TestRunDefaultsToBashScript(t *testing.T) {
	t.Parallel()

	stub := transform.Stub{
		"label": "lint",
		"run":   map[string]interface{}{"command": "true"},
	}

	out, err := runSteps(t, &transform.Config{Kind: "lint"},
		map[string]transform.Stub{"lint": stub}, transform.Run())

	require.NoError(t, err)

	def := out[0]["task"].(map[string]interface{})
	require.Contains(t, def, "payload")
}

func TestRunTaskPrependsBootstrapArgv(t *testing.T) {
	t.Parallel()

	stub := transform.Stub{
		"label": "test",
		"run": map[string]interface{}{
			"using":   "run-task",
			"command": []interface{}{"pytest", "-x"},
		},
	}

	out, err := runSteps(t, &transform.Config{Kind: "test"},
		map[string]transform.Stub{"test": stub}, transform.Run())

	require.NoError(t, err)

	def := out[0]["task"].(map[string]interface{})
	payload := def["payload"].(map[string]interface{})
	assert.Equal(t, []string{"run-task", "pytest", "-x"}, payload["argv"])
}

func TestRunUnknownUsingFails(t *testing.T) {
	t.Parallel()

	stub := transform.Stub{
		"label": "bad",
		"run":   map[string]interface{}{"using": "cobol"},
	}

	_, err := runSteps(t, &transform.Config{Kind: "bad"},
		map[string]transform.Stub{"bad": stub}, transform.Run())

	require.Error(t, err)
}
