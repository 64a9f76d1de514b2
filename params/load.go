package params

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	vcsurl "github.com/gitsight/go-vcsurl"
	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/taskforge-dev/taskforge/internal/errors"
	"github.com/taskforge-dev/taskforge/platform"
	"github.com/taskforge-dev/taskforge/schema"
	"github.com/taskforge-dev/taskforge/vcs"
)

// parametersArtifact is the conventional artifact name a prior decision
// task publishes its frozen Parameters under.
const parametersArtifact = "public/parameters.yml"

// Source names where one set of raw parameter data came from, so the CLI
// can report what it loaded.
type Source struct {
	raw  map[string]interface{}
	desc string
}

func (s Source) String() string { return s.desc }

// Set returns a Source with key overridden, used by the CLI to fold
// flag-driven overrides (target kinds, filter chains) into the raw data
// before validation freezes it.
func (s Source) Set(key string, value interface{}) Source {
	raw := make(map[string]interface{}, len(s.raw)+1)
	for k, v := range s.raw {
		raw[k] = v
	}

	raw[key] = value

	return Source{raw: raw, desc: s.desc}
}

// Get reads a raw value before validation, used by the CLI to inspect a
// source (e.g. the filters list) it is about to override.
func (s Source) Get(key string) (interface{}, bool) {
	v, ok := s.raw[key]
	return v, ok
}

// LoadFile reads a local parameters.yml/json file, expanding a leading ~.
func LoadFile(path string) (Source, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Source{}, &errors.LoaderError{Kind: "parameters-file", Reason: err.Error()}
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return Source{}, &errors.LoaderError{Kind: "parameters-file", Reason: err.Error()}
	}

	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Source{}, &errors.LoaderError{Kind: "parameters-file", Reason: err.Error()}
	}

	return Source{raw: raw, desc: fmt.Sprintf("file=%s", filepath.Clean(expanded))}, nil
}

// LoadFromTaskID fetches the parameters artifact from a prior decision
// task by task-id (the "task-id=<id>" loading form).
func LoadFromTaskID(ctx context.Context, client platform.Client, taskID string) (Source, error) {
	data, err := client.GetArtifact(ctx, taskID, parametersArtifact)
	if err != nil {
		return Source{}, &errors.LoaderError{Kind: "task-id", Reason: err.Error()}
	}

	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Source{}, &errors.LoaderError{Kind: "task-id", Reason: err.Error()}
	}

	return Source{raw: raw, desc: fmt.Sprintf("task-id=%s", taskID)}, nil
}

// LoadFromIndex resolves an index path to a task-id and loads its
// parameters artifact (the "index=<path>" loading form; "project=<p>"
// is a thin convenience wrapper that builds the conventional index path).
func LoadFromIndex(ctx context.Context, client platform.Client, indexPath string) (Source, error) {
	taskID, found, err := client.FindTaskByIndex(ctx, indexPath)
	if err != nil {
		return Source{}, &errors.LoaderError{Kind: "index", Reason: err.Error()}
	}

	if !found {
		return Source{}, &errors.LoaderError{Kind: "index", Reason: fmt.Sprintf("nothing indexed at %s", indexPath)}
	}

	return LoadFromTaskID(ctx, client, taskID)
}

// LoadFromProject is the "project=<p>" loading form: it resolves to the
// conventional decision-task index path for project p's default branch.
func LoadFromProject(ctx context.Context, client platform.Client, project string) (Source, error) {
	indexPath := fmt.Sprintf("project.%s.latest.decision", project)

	src, err := LoadFromIndex(ctx, client, indexPath)
	if err != nil {
		return Source{}, err
	}

	src.desc = fmt.Sprintf("project=%s", project)

	return src, nil
}

// DefaultEnv is the environment+VCS defaulting loading form: when no
// parameters source is given, every required field is derived from the
// local VCS checkout and TASKFORGE_* environment variables, so CI
// invocations never need a hand-authored parameters file.
type DefaultEnv struct {
	VCS      vcs.VCS
	Env      func(string) string
	HeadRef  string
	BaseRef  string
	Project  string
	Owner    string
	TasksFor string
}

// Load resolves this DefaultEnv into raw parameter data by asking the VCS
// for the revisions/changed-files and filling the rest from environment
// variables, with conservative defaults for fields with no natural source.
func (d DefaultEnv) Load(ctx context.Context) (Source, error) {
	env := d.Env
	if env == nil {
		env = os.Getenv
	}

	headRef := firstNonEmpty(env("TASKFORGE_HEAD_REF"), d.HeadRef)
	baseRef := firstNonEmpty(env("TASKFORGE_BASE_REF"), d.BaseRef)

	if headRef == "" {
		branch, err := d.VCS.DefaultBranch(ctx)
		if err != nil {
			return Source{}, &errors.LoaderError{Kind: "default-env", Reason: err.Error()}
		}

		headRef = branch
	}

	if baseRef == "" {
		baseRef = headRef
	}

	headRev, err := d.VCS.FindLatestCommonRevision(ctx, baseRef, headRef)
	if err != nil {
		return Source{}, &errors.LoaderError{Kind: "default-env", Reason: err.Error()}
	}

	baseRev, err := d.VCS.FindLatestCommonRevision(ctx, baseRef, baseRef)
	if err != nil {
		baseRev = headRev
	}

	filesChanged, err := d.VCS.GetFilesChanged(ctx, baseRev, headRev)
	if err != nil {
		return Source{}, &errors.LoaderError{Kind: "default-env", Reason: err.Error()}
	}

	remote, err := d.VCS.RemoteName(ctx)
	if err != nil {
		remote = "origin"
	}

	project := firstNonEmpty(env("TASKFORGE_PROJECT"), d.Project)
	if project == "" {
		// Fall back to the repository name parsed out of the remote URL.
		if info, perr := vcsurl.Parse(remote); perr == nil {
			project = info.Name
		}
	}

	filesChangedIface := make([]interface{}, len(filesChanged))
	for i, f := range filesChanged {
		filesChangedIface[i] = f
	}

	raw := map[string]interface{}{
		"base_repository":       remote,
		"head_repository":       remote,
		"head_rev":              headRev,
		"head_ref":              headRef,
		"base_rev":              baseRev,
		"base_ref":              baseRef,
		"owner":                 firstNonEmpty(env("TASKFORGE_OWNER"), d.Owner),
		"project":               project,
		"level":                 firstNonEmpty(env("TASKFORGE_LEVEL"), "1"),
		"pushlog_id":            firstNonEmpty(env("TASKFORGE_PUSHLOG_ID"), "0"),
		"pushdate":              0,
		"build_date":            0,
		"repository_type":       "git",
		"tasks_for":             firstNonEmpty(env("TASKFORGE_TASKS_FOR"), d.TasksFor),
		"target_tasks_method":   "default",
		"filters":               []interface{}{"target_tasks_method"},
		"optimize_target_tasks": true,
		"do_not_optimize":       []interface{}{},
		"existing_tasks":        map[string]interface{}{},
		"enable_always_target":  false,
		"files_changed":         filesChangedIface,
		"version":               firstNonEmpty(env("TASKFORGE_VERSION"), "0.0.0"),
		"build_number":          0,
	}

	return Source{raw: raw, desc: "default-env"}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}

	return ""
}

// FromSource validates and freezes the raw data carried by src into
// Parameters. src's description is not carried into the result.
func FromSource(src Source, extensions ...schema.Object) (*Parameters, error) {
	return New(src.raw, extensions...)
}
