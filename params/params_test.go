package params_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/params"
	"github.com/taskforge-dev/taskforge/schema"
)

func validData() map[string]interface{} {
	return map[string]interface{}{
		"base_repository":       "https://example.com/repo",
		"head_repository":       "https://example.com/repo",
		"head_rev":              "abc123",
		"head_ref":              "refs/heads/main",
		"base_rev":              "def456",
		"base_ref":              "refs/heads/main",
		"owner":                 "alice@example.com",
		"project":               "myproject",
		"level":                 "3",
		"pushlog_id":            "1",
		"pushdate":              1700000000,
		"build_date":            1700000000,
		"repository_type":       "git",
		"tasks_for":             "push",
		"target_tasks_method":   "default",
		"filters":               []interface{}{"target_tasks_method"},
		"optimize_target_tasks": true,
		"do_not_optimize":       []interface{}{},
		"existing_tasks":        map[string]interface{}{},
		"enable_always_target":  false,
		"files_changed":         []interface{}{"a.txt", "b.txt"},
		"version":               "1.2.3",
		"build_number":          7,
	}
}

func TestNewValidatesRequiredFields(t *testing.T) {
	data := validData()
	delete(data, "owner")

	_, err := params.New(data)
	require.Error(t, err)
}

func TestNewAcceptsValidData(t *testing.T) {
	p, err := params.New(validData())
	require.NoError(t, err)

	assert.Equal(t, "myproject", p.String("project"))
	assert.True(t, p.Bool("optimize_target_tasks"))
	assert.Equal(t, []string{"a.txt", "b.txt"}, p.FilesChanged())
}

func TestNewComposesExtensionSchema(t *testing.T) {
	ext := schema.Object{
		"custom_field": schema.Required(schema.Field{Type: schema.TypeString}),
	}

	_, err := params.New(validData(), ext)
	require.Error(t, err)

	data := validData()
	data["custom_field"] = "value"

	p, err := params.New(data, ext)
	require.NoError(t, err)
	assert.Equal(t, "value", p.String("custom_field"))
}

func TestParametersIsImmutable(t *testing.T) {
	data := validData()
	p, err := params.New(data)
	require.NoError(t, err)

	data["project"] = "mutated"
	assert.Equal(t, "myproject", p.String("project"))

	m := p.AsMap()
	m["project"] = "mutated-again"
	assert.Equal(t, "myproject", p.String("project"))
}

func TestExistingTasksAndDoNotOptimize(t *testing.T) {
	data := validData()
	data["existing_tasks"] = map[string]interface{}{"build": "task-id-1"}
	data["do_not_optimize"] = []interface{}{"build"}

	p, err := params.New(data)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"build": "task-id-1"}, p.ExistingTasks())
	assert.True(t, p.DoNotOptimize()["build"])
	assert.False(t, p.DoNotOptimize()["test"])
}

func TestCtyRoundTrip(t *testing.T) {
	p, err := params.New(validData())
	require.NoError(t, err)

	v := p.Cty()
	assert.True(t, v.Type().IsObjectType())
}
