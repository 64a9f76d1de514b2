package transform_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/params"
	"github.com/taskforge-dev/taskforge/transform"
)

func testParameters(t *testing.T, overrides map[string]interface{}) *params.Parameters {
	t.Helper()

	data := map[string]interface{}{
		"base_repository":       "https://example.test/repo",
		"head_repository":       "https://example.test/repo",
		"head_rev":              "abc123",
		"head_ref":              "main",
		"base_rev":              "abc123",
		"base_ref":              "main",
		"owner":                 "demo@example.test",
		"project":               "demo",
		"level":                 "1",
		"pushlog_id":            "0",
		"pushdate":              0,
		"build_date":            0,
		"repository_type":       "git",
		"tasks_for":             "push",
		"target_tasks_method":   "all",
		"filters":               []interface{}{"target_tasks_method"},
		"optimize_target_tasks": true,
		"do_not_optimize":       []interface{}{},
		"existing_tasks":        map[string]interface{}{},
		"enable_always_target":  false,
		"files_changed":         []interface{}{},
		"version":               "1.2.3",
		"build_number":          7,
	}

	for k, v := range overrides {
		data[k] = v
	}

	p, err := params.New(data)
	require.NoError(t, err)

	return p
}

func TestTaskContextFromObject(t *testing.T) {
	t.Parallel()

	stub := transform.Stub{
		"label":       "greet",
		"description": "hello {name}",
		"task-context": map[string]interface{}{
			"from-object": map[string]interface{}{"name": "world"},
		},
	}

	out, err := runSteps(t, &transform.Config{Kind: "test"},
		map[string]transform.Stub{"greet": stub},
		transform.TaskContext([]string{"description"}))

	require.NoError(t, err)
	assert.Equal(t, "hello world", out[0]["description"])
}

func TestTaskContextObjectBeatsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ctx.yml"), []byte("name: from-file\n"), 0o644))

	stub := transform.Stub{
		"label":       "greet",
		"description": "hello {name}",
		"task-context": map[string]interface{}{
			"from-file":   "ctx.yml",
			"from-object": map[string]interface{}{"name": "from-object"},
		},
	}

	out, err := runSteps(t, &transform.Config{Kind: "test", KindDir: dir},
		map[string]transform.Stub{"greet": stub},
		transform.TaskContext([]string{"description"}))

	require.NoError(t, err)
	assert.Equal(t, "hello from-object", out[0]["description"])
}

func TestTaskContextParametersBeatObject(t *testing.T) {
	t.Parallel()

	stub := transform.Stub{
		"label":       "rel",
		"description": "release {version}",
		"task-context": map[string]interface{}{
			"from-object": map[string]interface{}{"version": "0.0.0-local"},
		},
	}

	cfg := &transform.Config{Kind: "test", Params: testParameters(t, nil)}

	out, err := runSteps(t, cfg, map[string]transform.Stub{"rel": stub},
		transform.TaskContext([]string{"description"}))

	require.NoError(t, err)
	assert.Equal(t, "release 1.2.3", out[0]["description"])
}

func TestTaskContextFromParametersList(t *testing.T) {
	t.Parallel()

	stub := transform.Stub{
		"label":       "rel",
		"description": "push by {owner}",
		"task-context": map[string]interface{}{
			"from-parameters": []interface{}{"owner"},
		},
	}

	cfg := &transform.Config{Kind: "test", Params: testParameters(t, nil)}

	out, err := runSteps(t, cfg, map[string]transform.Stub{"rel": stub},
		transform.TaskContext([]string{"description"}))

	require.NoError(t, err)
	assert.Equal(t, "push by demo@example.test", out[0]["description"])
}

func TestTaskContextMissingFileFails(t *testing.T) {
	t.Parallel()

	stub := transform.Stub{
		"label": "greet",
		"task-context": map[string]interface{}{
			"from-file": "does-not-exist.yml",
		},
	}

	_, err := runSteps(t, &transform.Config{Kind: "test", KindDir: t.TempDir()},
		map[string]transform.Stub{"greet": stub},
		transform.TaskContext([]string{"description"}))

	require.Error(t, err)
}
