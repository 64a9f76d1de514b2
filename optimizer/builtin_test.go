package optimizer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/taskforge-dev/taskforge/optimizer"
	"github.com/taskforge-dev/taskforge/platform"
	"github.com/taskforge-dev/taskforge/platform/mocks"
)

// Three index paths must produce exactly one status lookup: the strategy
// batches every resolved task-id into a single GetTaskStatuses call.
func TestIndexSearchBatchesStatusLookups(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	client.EXPECT().FindTaskByIndex(gomock.Any(), "path.one").Return("TASK-1", true, nil)
	client.EXPECT().FindTaskByIndex(gomock.Any(), "path.two").Return("", false, nil)
	client.EXPECT().FindTaskByIndex(gomock.Any(), "path.three").Return("TASK-3", true, nil)

	client.EXPECT().GetTaskStatuses(gomock.Any(), gomock.Len(2)).Times(1).Return(map[string]platform.TaskStatus{
		"TASK-1": {TaskID: "TASK-1", State: platform.StateFailed},
		"TASK-3": {TaskID: "TASK-3", State: platform.StateCompleted, Expires: 9999999999},
	}, nil)

	strategy := optimizer.IndexSearch{Client: client}

	taskID, ok, err := strategy.ShouldReplaceTask(context.Background(), nil, nil, 0,
		[]string{"path.one", "path.two", "path.three"})

	require.NoError(t, err)
	require.True(t, ok)

	// path.one resolved but is failed; path.three wins.
	assert.Equal(t, "TASK-3", taskID)
}

// A replacement whose expiry precedes the dependents' deadline is refused.
func TestIndexSearchHonorsDeadline(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	client.EXPECT().FindTaskByIndex(gomock.Any(), "path.one").Return("TASK-1", true, nil)
	client.EXPECT().GetTaskStatuses(gomock.Any(), gomock.Any()).Return(map[string]platform.TaskStatus{
		"TASK-1": {TaskID: "TASK-1", State: platform.StateCompleted, Expires: 100},
	}, nil)

	strategy := optimizer.IndexSearch{Client: client}

	_, ok, err := strategy.ShouldReplaceTask(context.Background(), nil, nil, 200, []string{"path.one"})
	require.NoError(t, err)
	assert.False(t, ok)
}
