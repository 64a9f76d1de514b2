package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	urfavecli "github.com/urfave/cli/v2"

	"github.com/taskforge-dev/taskforge/platform"
)

func TestExcludeKeyRemovesNestedPath(t *testing.T) {
	t.Parallel()

	rec := map[string]interface{}{
		"task": map[string]interface{}{
			"payload": map[string]interface{}{"command": "make", "env": "secret"},
		},
	}

	excludeKey(rec, splitDotted("task.payload.env"))

	payload := rec["task"].(map[string]interface{})["payload"].(map[string]interface{})
	assert.NotContains(t, payload, "env")
	assert.Contains(t, payload, "command")

	// missing segments are a no-op
	excludeKey(rec, splitDotted("task.nothing.here"))
}

func TestResolveParametersFlagForms(t *testing.T) {
	t.Parallel()

	client := platform.NewFake()
	client.Artifacts["TASK-1/public/parameters.yml"] = []byte("project: demo\n")
	client.Index["project.demo.latest.decision"] = "TASK-1"

	ctx := context.Background()

	src, err := resolveParametersFlag(ctx, "task-id=TASK-1", client, nil)
	require.NoError(t, err)
	assert.Equal(t, "task-id=TASK-1", src.String())

	src, err = resolveParametersFlag(ctx, "project=demo", client, nil)
	require.NoError(t, err)
	assert.Equal(t, "project=demo", src.String())

	_, err = resolveParametersFlag(ctx, "task-id=TASK-1", nil, nil)
	require.Error(t, err)
}

func writeParametersFile(t *testing.T, dir string) string {
	t.Helper()

	content := `
base_repository: https://example.test/repo
head_repository: https://example.test/repo
head_rev: abc123
head_ref: main
base_rev: abc123
base_ref: main
owner: demo@example.test
project: demo
level: "1"
pushlog_id: "0"
pushdate: 0
build_date: 0
repository_type: git
tasks_for: push
target_tasks_method: all
filters: [target_tasks_method]
optimize_target_tasks: true
do_not_optimize: []
existing_tasks: {}
enable_always_target: false
files_changed: []
version: 0.0.0
build_number: 0
`

	path := filepath.Join(dir, "parameters.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func writeRepoFixture(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	config := `
trust-domain: demo
task-priority: lowest
workers:
  aliases: {}
taskgraph:
  repositories:
    demo: https://example.test/repo
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.yml"), []byte(config), 0o644))

	helloDir := filepath.Join(root, "hello")
	require.NoError(t, os.Mkdir(helloDir, 0o755))

	kindYml := `
tasks:
  a: {}
  b:
    dependencies:
      edge1: hello-a
`
	require.NoError(t, os.WriteFile(filepath.Join(helloDir, "kind.yml"), []byte(kindYml), 0o644))

	return root
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	app := NewApp(&Options{Stdout: &stdout, Stderr: &stderr})

	err := app.RunContext(context.Background(), append([]string{"taskforge"}, args...))

	return stdout.String(), err
}

func TestFullCommandPrintsLabels(t *testing.T) {
	t.Parallel()

	root := writeRepoFixture(t)
	paramsFile := writeParametersFile(t, t.TempDir())

	out, err := runApp(t, "full", "--root", root, "--parameters", paramsFile)
	require.NoError(t, err)

	assert.Contains(t, out, "hello-a")
	assert.Contains(t, out, "hello-b")
}

func TestFullCommandJSONWithTasksFilter(t *testing.T) {
	t.Parallel()

	root := writeRepoFixture(t)
	paramsFile := writeParametersFile(t, t.TempDir())

	out, err := runApp(t, "full", "--root", root, "--parameters", paramsFile,
		"--json", "--tasks", "hello-a$")
	require.NoError(t, err)

	var records map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &records))

	assert.Contains(t, records, "hello-a")
	assert.NotContains(t, records, "hello-b")
}

func TestTargetKindFlagNarrowsTargets(t *testing.T) {
	t.Parallel()

	root := writeRepoFixture(t)
	paramsFile := writeParametersFile(t, t.TempDir())

	out, err := runApp(t, "target", "--root", root, "--parameters", paramsFile,
		"--target-kind", "nope")
	require.NoError(t, err)

	assert.Empty(t, strings.TrimSpace(out))
}

func TestMissingRootExitsOne(t *testing.T) {
	t.Parallel()

	paramsFile := writeParametersFile(t, t.TempDir())

	_, err := runApp(t, "full", "--root", "/does/not/exist", "--parameters", paramsFile)
	require.Error(t, err)

	var exitErr urfavecli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
}
