package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/config"
)

const validYAML = `
trust-domain: demo
task-priority: lowest
workers:
  aliases:
    build:
      provisioner: aws-provisioner-v1
      implementation: docker-worker
      os: linux
      worker-type: build-worker
taskgraph:
  register:
    - taskforge_demo.transforms
  repositories:
    demo: "Demo Repository"
  max-dependencies: 100
  max-routes: 10
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validYAML)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.TrustDomain)
	assert.Equal(t, "lowest", cfg.TaskPriority)
	assert.Equal(t, "docker-worker", cfg.Workers["build"].Implementation)
	assert.Equal(t, []string{"taskforge_demo.transforms"}, cfg.TransformModuleRoots())
}

func TestLoadMissingRequiredField(t *testing.T) {
	path := writeConfig(t, "task-priority: lowest\n")

	_, err := config.Load(path, nil)
	require.Error(t, err)
}

func TestGetDottedPath(t *testing.T) {
	path := writeConfig(t, validYAML)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	v, ok := cfg.Get("workers.aliases.build.os")
	require.True(t, ok)
	assert.Equal(t, "linux", v)

	_, ok = cfg.Get("workers.aliases.nonexistent.os")
	assert.False(t, ok)
}

func TestGetIntDottedPath(t *testing.T) {
	path := writeConfig(t, validYAML)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	n, ok := cfg.GetInt("taskgraph.max-dependencies")
	require.True(t, ok)
	assert.Equal(t, 100, n)
}

func TestLoadAppliesCustomizeHook(t *testing.T) {
	path := writeConfig(t, validYAML)

	cfg, err := config.Load(path, func(raw map[string]interface{}) {
		raw["task-priority"] = "highest"
	})
	require.NoError(t, err)

	assert.Equal(t, "highest", cfg.TaskPriority)
}
