// Package cli wires the Generator's phases to a urfave/cli/v2 surface.
// The CLI is deliberately thin I/O around the engine: it never contains
// generation logic of its own, only flag parsing, collaborator
// construction, and artifact serialization.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskforge-dev/taskforge/params"
	"github.com/taskforge-dev/taskforge/platform"
	"github.com/taskforge-dev/taskforge/vcs"
)

// resolveParametersFlag implements the `--parameters` value forms the CLI
// names: a plain path, `task-id=<id>`, `project=<p>`, `index=<path>`, or
// (when empty) the VCS/environment defaulting form.
func resolveParametersFlag(ctx context.Context, value string, client platform.Client, v vcs.VCS) (params.Source, error) {
	switch {
	case value == "":
		if v == nil {
			return params.Source{}, fmt.Errorf("--parameters default-env form requires a VCS")
		}

		return params.DefaultEnv{VCS: v}.Load(ctx)
	case strings.HasPrefix(value, "task-id="):
		if client == nil {
			return params.Source{}, fmt.Errorf("--parameters task-id= requires a configured PlatformClient")
		}

		return params.LoadFromTaskID(ctx, client, strings.TrimPrefix(value, "task-id="))
	case strings.HasPrefix(value, "project="):
		if client == nil {
			return params.Source{}, fmt.Errorf("--parameters project= requires a configured PlatformClient")
		}

		return params.LoadFromProject(ctx, client, strings.TrimPrefix(value, "project="))
	case strings.HasPrefix(value, "index="):
		if client == nil {
			return params.Source{}, fmt.Errorf("--parameters index= requires a configured PlatformClient")
		}

		return params.LoadFromIndex(ctx, client, strings.TrimPrefix(value, "index="))
	default:
		return params.LoadFile(value)
	}
}
