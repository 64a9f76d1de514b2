package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/internal/errors"
	"github.com/taskforge-dev/taskforge/schema"
	"github.com/taskforge-dev/taskforge/transform"
)

func runSteps(t *testing.T, cfg *transform.Config, stubs map[string]transform.Stub, steps ...transform.Func) ([]transform.Stub, error) {
	t.Helper()

	seq := transform.Sequence{Name: "test", Steps: steps}

	return transform.Collect(seq.Run(cfg, transform.FromStubs(stubs)))
}

func TestSequenceChainsStepsInOrder(t *testing.T) {
	t.Parallel()

	appendMarker := func(marker string) transform.Func {
		return transform.Map(marker, func(_ *transform.Config, s transform.Stub) (transform.Stub, error) {
			trail, _ := s["trail"].(string)
			s["trail"] = trail + marker

			return s, nil
		})
	}

	out, err := runSteps(t, &transform.Config{Kind: "test"},
		map[string]transform.Stub{"a": {"label": "a"}},
		appendMarker("1"), appendMarker("2"), appendMarker("3"))

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "123", out[0]["trail"])
}

func TestFromStubsYieldsSortedByLabel(t *testing.T) {
	t.Parallel()

	out, err := runSteps(t, &transform.Config{Kind: "test"}, map[string]transform.Stub{
		"c": {"label": "c"},
		"a": {"label": "a"},
		"b": {"label": "b"},
	})

	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0]["label"])
	assert.Equal(t, "b", out[1]["label"])
	assert.Equal(t, "c", out[2]["label"])
}

func TestCheckpointFailsFastOnInvalidStub(t *testing.T) {
	t.Parallel()

	checkpoint := transform.Checkpoint("needs-name", schema.Object{
		"name": schema.Required(schema.Field{Type: schema.TypeString}),
	})

	_, err := runSteps(t, &transform.Config{Kind: "test"},
		map[string]transform.Stub{"a": {"label": "a"}}, checkpoint)

	require.Error(t, err)

	var serr *errors.SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "needs-name", serr.Descriptor)
}

func TestMapWrapsTransformFailureWithContext(t *testing.T) {
	t.Parallel()

	boom := transform.Map("boom", func(_ *transform.Config, _ transform.Stub) (transform.Stub, error) {
		return nil, assert.AnError
	})

	_, err := runSteps(t, &transform.Config{Kind: "hello"},
		map[string]transform.Stub{"a": {"label": "hello-a"}}, boom)

	require.Error(t, err)

	var terr *errors.TransformError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "hello", terr.Kind)
	assert.Equal(t, "hello-a", terr.Label)
	assert.Equal(t, "boom", terr.Transform)
}

func TestFanOutCanFilterAndMultiply(t *testing.T) {
	t.Parallel()

	duplicate := transform.FanOut("dup", func(_ *transform.Config, s transform.Stub) ([]transform.Stub, error) {
		if s["label"] == "drop" {
			return nil, nil
		}

		return []transform.Stub{s, s}, nil
	})

	out, err := runSteps(t, &transform.Config{Kind: "test"}, map[string]transform.Stub{
		"drop": {"label": "drop"},
		"keep": {"label": "keep"},
	}, duplicate)

	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestResolveUnknownReferenceFails(t *testing.T) {
	t.Parallel()

	_, err := transform.Resolve("hello", []string{"no.such.module:transforms"})

	var lerr *errors.LoaderError
	require.ErrorAs(t, err, &lerr)
}
