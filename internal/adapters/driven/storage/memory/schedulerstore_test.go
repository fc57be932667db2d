package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/synindex/internal/core/domain"
)

func TestSchedulerStore_Tasks(t *testing.T) {
	s := NewSchedulerStore()
	ctx := context.Background()

	task, err := s.GetTask(ctx, domain.TaskIDIndexPoll)
	require.NoError(t, err)
	assert.Nil(t, task)

	require.NoError(t, s.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDIndexPoll, Interval: time.Minute}))
	require.NoError(t, s.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDIndexBootstrap}))
	assert.ErrorIs(t, s.SaveTask(ctx, nil), domain.ErrInvalidInput)

	tasks, err := s.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.TaskIDIndexBootstrap, tasks[0].ID)

	require.NoError(t, s.DeleteTask(ctx, domain.TaskIDIndexBootstrap))
	tasks, err = s.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestSchedulerStore_History(t *testing.T) {
	s := NewSchedulerStore()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.RecordResult(ctx, &domain.TaskResult{
			TaskID:         domain.TaskIDIndexPoll,
			ItemsProcessed: i,
		}))
	}
	assert.ErrorIs(t, s.RecordResult(ctx, nil), domain.ErrInvalidInput)

	history, err := s.GetTaskHistory(ctx, domain.TaskIDIndexPoll, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 5, history[0].ItemsProcessed)
	assert.Equal(t, 4, history[1].ItemsProcessed)

	require.NoError(t, s.PruneHistory(ctx, 3))
	history, err = s.GetTaskHistory(ctx, domain.TaskIDIndexPoll, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 3, history[2].ItemsProcessed)
}
