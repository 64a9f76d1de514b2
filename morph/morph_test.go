package morph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/morph"
	"github.com/taskforge-dev/taskforge/task"
)

func mustSet(t *testing.T, tasks ...*task.Task) *task.Set {
	t.Helper()

	set, err := task.Resolve(tasks, task.ResolveOptions{})
	require.NoError(t, err)

	return set
}

// TestRunAddsTaskGroupID checks the
// "morphed wire format contains taskGroupId set to the decision task's id".
func TestRunAddsTaskGroupID(t *testing.T) {
	a := &task.Task{Kind: "hello", Label: "hello-a", TaskDefinition: map[string]interface{}{}}
	b := &task.Task{
		Kind:           "hello",
		Label:          "hello-b",
		Dependencies:   map[string]string{"edge1": "hello-a"},
		TaskDefinition: map[string]interface{}{},
	}

	set := mustSet(t, a, b)

	out, err := morph.Run(set, morph.DefaultSequence, morph.Options{TaskGroupID: "DECISION-TASK-ID"})
	require.NoError(t, err)

	assert.Equal(t, "DECISION-TASK-ID", out.Tasks["hello-a"].TaskDefinition["taskGroupId"])
	assert.Equal(t, "DECISION-TASK-ID", out.Tasks["hello-b"].TaskDefinition["taskGroupId"])
}

func TestMakeIndexTaskCollapsesOverflowRoutes(t *testing.T) {
	routes := []interface{}{
		"index.build.linux-1", "index.build.linux-2", "index.build.linux-3",
	}

	build := &task.Task{
		Kind:           "build",
		Label:          "build-linux",
		TaskDefinition: map[string]interface{}{"routes": routes},
	}

	set := mustSet(t, build)

	added, err := morph.MakeIndexTask(set, morph.Options{
		MaxRoutes:        1,
		IndexPathRegexes: []string{"index.build.*"},
	})
	require.NoError(t, err)
	require.Len(t, added, 1)

	helper := added[0]
	assert.Equal(t, "build-linux-index", helper.Label)
	assert.Equal(t, "build-linux", helper.Dependencies["primary"])

	kept, _ := build.TaskDefinition["routes"].([]interface{})
	assert.Len(t, kept, 1)
}

func TestMakeIndexTaskNoopUnderLimit(t *testing.T) {
	build := &task.Task{
		Kind:           "build",
		Label:          "build-linux",
		TaskDefinition: map[string]interface{}{"routes": []interface{}{"index.build.linux-1"}},
	}

	set := mustSet(t, build)

	added, err := morph.MakeIndexTask(set, morph.Options{
		MaxRoutes:        5,
		IndexPathRegexes: []string{"index.build.*"},
	})
	require.NoError(t, err)
	assert.Empty(t, added)
}

type fakeSubstituter struct{ calls int }

func (f *fakeSubstituter) Substitute(def map[string]interface{}, _ map[string]interface{}) (map[string]interface{}, error) {
	f.calls++

	out := map[string]interface{}{}
	for k, v := range def {
		out[k] = v
	}

	out["substituted"] = true

	return out, nil
}

func TestApplyJSONEDelegatesToCollaborator(t *testing.T) {
	a := &task.Task{Kind: "hello", Label: "hello-a", TaskDefinition: map[string]interface{}{}}
	set := mustSet(t, a)

	sub := &fakeSubstituter{}

	added, err := morph.ApplyJSONE(set, morph.Options{JSONE: sub})
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.Equal(t, 1, sub.calls)
	assert.Equal(t, true, set.Tasks["hello-a"].TaskDefinition["substituted"])
}

func TestAddChainOfTrustHonorsRequiredSet(t *testing.T) {
	a := &task.Task{Kind: "hello", Label: "hello-a", TaskDefinition: map[string]interface{}{}}
	b := &task.Task{Kind: "hello", Label: "hello-b", TaskDefinition: map[string]interface{}{}}

	set := mustSet(t, a, b)

	_, err := morph.AddChainOfTrust(set, morph.Options{
		RequireChainOfTrust: map[string]bool{"hello-a": true},
	})
	require.NoError(t, err)

	payloadA, _ := set.Tasks["hello-a"].TaskDefinition["payload"].(map[string]interface{})
	require.NotNil(t, payloadA)

	featuresA, _ := payloadA["features"].(map[string]interface{})
	assert.Equal(t, true, featuresA["chainOfTrust"])

	_, hasPayload := set.Tasks["hello-b"].TaskDefinition["payload"]
	assert.False(t, hasPayload)
}
