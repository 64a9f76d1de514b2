// Package platform defines the abstract PlatformClient collaborator: the only interface the core uses to talk to the external
// task-execution platform. Credential handling and the concrete HTTP
// transport are explicitly out of scope for the core; this
// package only owns the interface, a batching helper, and a thin HTTP
// implementation callers may opt into.
package platform

import "context"

// TaskState is the subset of platform-reported task states the optimizer's
// index-search strategy cares about.
type TaskState string

const (
	StateUnknown   TaskState = ""
	StateCompleted TaskState = "completed"
	StateRunning   TaskState = "running"
	StatePending   TaskState = "pending"
	StateFailed    TaskState = "failed"
	StateException TaskState = "exception"
)

// TaskStatus is one entry of the batched get_task_statuses response.
type TaskStatus struct {
	TaskID  string
	State   TaskState
	Expires int64 // unix seconds
}

// TaskDefinition is the wire-format payload the platform expects; it is
// opaque to the core except for the well-known keys morphs touch: routes, dependencies, requires, taskGroupId.
type TaskDefinition = map[string]interface{}

// Client is the abstract operations the core consumes.
type Client interface {
	// FindTaskByIndex resolves an index path to a task-id, or ("", false,
	// nil) if nothing is indexed at that path.
	FindTaskByIndex(ctx context.Context, indexPath string) (taskID string, found bool, err error)

	// GetTaskStatuses is the batched status lookup: N strategies must not fan out to N requests.
	GetTaskStatuses(ctx context.Context, taskIDs []string) (map[string]TaskStatus, error)

	// GetArtifact fetches a named artifact from a task (used to load
	// parameters.yml from a prior decision task).
	GetArtifact(ctx context.Context, taskID, name string) ([]byte, error)

	// CreateTasks submits the final batch atomically: it fails on any
	// single task's rejection.
	CreateTasks(ctx context.Context, tasks map[string]TaskDefinition, rootTaskID string) error
}
