package transform_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/transform"
)

func cachedStub() transform.Stub {
	return transform.Stub{
		"label": "build-linux",
		"kind":  "build",
		"cached-task": map[string]interface{}{
			"digest-data": []interface{}{"attributes.platform"},
		},
		"attributes": map[string]interface{}{"platform": "linux"},
		"task": map[string]interface{}{
			"payload": map[string]interface{}{"command": "make"},
		},
	}
}

func TestCachedTasksAdvertisesDigestRoute(t *testing.T) {
	t.Parallel()

	out, err := runSteps(t, &transform.Config{Kind: "build"},
		map[string]transform.Stub{"build-linux": cachedStub()},
		transform.CachedTasks("demo.cache"))

	require.NoError(t, err)
	require.Len(t, out, 1)

	def := out[0]["task"].(map[string]interface{})
	routes := def["routes"].([]interface{})
	require.Len(t, routes, 1)

	route := routes[0].(string)
	assert.True(t, strings.HasPrefix(route, "index.demo.cache.build-"), route)

	opt := out[0]["optimization"].(map[string]interface{})
	search := opt["index-search"].([]interface{})
	require.Len(t, search, 1)
	assert.Equal(t, route, search[0])
}

func TestCachedTasksDigestIsDeterministic(t *testing.T) {
	t.Parallel()

	routeOf := func() string {
		out, err := runSteps(t, &transform.Config{Kind: "build"},
			map[string]transform.Stub{"build-linux": cachedStub()},
			transform.CachedTasks("demo.cache"))
		require.NoError(t, err)

		def := out[0]["task"].(map[string]interface{})

		return def["routes"].([]interface{})[0].(string)
	}

	assert.Equal(t, routeOf(), routeOf())
}

func TestCachedTasksDigestChangesWithInputs(t *testing.T) {
	t.Parallel()

	routeOf := func(platform string) string {
		stub := cachedStub()
		stub["attributes"].(map[string]interface{})["platform"] = platform

		out, err := runSteps(t, &transform.Config{Kind: "build"},
			map[string]transform.Stub{"build": stub},
			transform.CachedTasks("demo.cache"))
		require.NoError(t, err)

		def := out[0]["task"].(map[string]interface{})

		return def["routes"].([]interface{})[0].(string)
	}

	assert.NotEqual(t, routeOf("linux"), routeOf("mac"))
}

func TestCachedTasksPassThroughWithoutSpec(t *testing.T) {
	t.Parallel()

	out, err := runSteps(t, &transform.Config{Kind: "build"},
		map[string]transform.Stub{"plain": {"label": "plain"}},
		transform.CachedTasks("demo.cache"))

	require.NoError(t, err)
	assert.NotContains(t, out[0], "optimization")
}
