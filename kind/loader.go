package kind

import (
	"github.com/taskforge-dev/taskforge/internal/errors"
	"github.com/taskforge-dev/taskforge/params"
	"github.com/taskforge-dev/taskforge/registry"
	"github.com/taskforge-dev/taskforge/task"
)

// LoaderFunc produces raw task stubs for one kind. It receives the Kind
// (name, directory, raw config), the generation's Parameters, and the
// already-loaded Tasks of the kind's kind-dependencies.
type LoaderFunc func(k *Kind, p *params.Parameters, loaded map[string]*task.Task) (map[string]map[string]interface{}, error)

// LoaderRegistry resolves a kind.yml `loader` reference to its LoaderFunc.
// Projects register their own loaders here at startup.
var LoaderRegistry = registry.New[LoaderFunc]("loader")

const transformLoader = "taskforge.loader.transform:loader"

func init() {
	LoaderRegistry.Register(defaultLoader, loadTransform)
	LoaderRegistry.Register(transformLoader, loadTransform)
}

// loadTransform backs both built-in loaders: enumerate tasks plus
// tasks-from files, merged over task-defaults. The Default loader differs
// only in the implicit run/task transform references, which Load already
// folded into k.Transforms.
func loadTransform(k *Kind, _ *params.Parameters, _ map[string]*task.Task) (map[string]map[string]interface{}, error) {
	return k.LoadStubs()
}

// RunLoader dispatches to the Kind's named loader.
func RunLoader(k *Kind, p *params.Parameters, loaded map[string]*task.Task) (map[string]map[string]interface{}, error) {
	fn, ok := LoaderRegistry.Get(k.Loader)
	if !ok {
		return nil, &errors.LoaderError{Kind: k.Name, Reason: "unknown loader reference " + k.Loader}
	}

	return fn(k, p, loaded)
}
