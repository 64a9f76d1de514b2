package platform

import (
	"context"
	"fmt"
)

// Fake is an in-memory Client used by tests throughout optimizer/ and
// generator/.
type Fake struct {
	Index     map[string]string
	Statuses  map[string]TaskStatus
	Artifacts map[string][]byte
	Created   map[string]TaskDefinition
	RootID    string
}

// NewFake returns an empty Fake ready for a test to populate.
func NewFake() *Fake {
	return &Fake{
		Index:     map[string]string{},
		Statuses:  map[string]TaskStatus{},
		Artifacts: map[string][]byte{},
		Created:   map[string]TaskDefinition{},
	}
}

func (f *Fake) FindTaskByIndex(_ context.Context, indexPath string) (string, bool, error) {
	id, ok := f.Index[indexPath]
	return id, ok, nil
}

func (f *Fake) GetTaskStatuses(_ context.Context, taskIDs []string) (map[string]TaskStatus, error) {
	out := make(map[string]TaskStatus, len(taskIDs))

	for _, id := range taskIDs {
		if st, ok := f.Statuses[id]; ok {
			out[id] = st
		}
	}

	return out, nil
}

func (f *Fake) GetArtifact(_ context.Context, taskID, name string) ([]byte, error) {
	data, ok := f.Artifacts[taskID+"/"+name]
	if !ok {
		return nil, fmt.Errorf("no artifact %s on task %s", name, taskID)
	}

	return data, nil
}

func (f *Fake) CreateTasks(_ context.Context, tasks map[string]TaskDefinition, rootTaskID string) error {
	for id, def := range tasks {
		f.Created[id] = def
	}

	f.RootID = rootTaskID

	return nil
}
