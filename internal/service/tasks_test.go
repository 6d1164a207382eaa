package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Skotchmaster/todo_list/internal/config"
	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/repo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memIndex struct {
	docs map[string]models.Task
	err  error
}

func (m *memIndex) IndexTask(_ context.Context, task models.Task) error {
	if m.err != nil {
		return m.err
	}
	m.docs[task.ID] = task
	return nil
}

func (m *memIndex) DeleteTask(_ context.Context, taskID string) error {
	delete(m.docs, taskID)
	return m.err
}

func (m *memIndex) SearchTasks(_ context.Context, userID, _ string, _, _ int) (int64, []models.Task, error) {
	var out []models.Task
	for _, d := range m.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return int64(len(out)), out, m.err
}

func newTaskService(t *testing.T, idx TaskIndexer) *TaskService {
	t.Helper()
	db, err := config.InitDB(context.Background(), &config.Config{
		StorageDriver: config.DriverSQLite,
		SQLitePath:    ":memory:",
	})
	require.NoError(t, err)
	return &TaskService{Store: repo.New(db, 0), Index: idx}
}

func TestTaskService_Lifecycle(t *testing.T) {
	idx := &memIndex{docs: map[string]models.Task{}}
	svc := newTaskService(t, idx)
	ctx := context.Background()
	owner := uuid.NewString()

	task, err := svc.Create(ctx, owner, "write report", false)
	require.NoError(t, err)
	assert.Contains(t, idx.docs, task.ID)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)

	edited, err := svc.Edit(ctx, owner, task.ID, "write final report", true)
	require.NoError(t, err)
	assert.True(t, edited.IsCompleted)
	assert.Equal(t, "write final report", idx.docs[task.ID].Title)

	total, found, err := svc.Search(ctx, owner, "report", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, found, 1)

	require.NoError(t, svc.Delete(ctx, owner, task.ID))
	assert.NotContains(t, idx.docs, task.ID)
}

func TestTaskService_Errors(t *testing.T) {
	svc := newTaskService(t, nil)
	ctx := context.Background()
	owner, stranger := uuid.NewString(), uuid.NewString()

	_, err := svc.Create(ctx, owner, " ", false)
	assert.ErrorIs(t, err, ErrValidation)

	task, err := svc.Create(ctx, owner, "mine", false)
	require.NoError(t, err)

	_, err = svc.Edit(ctx, owner, "12", "x", false)
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.ErrorIs(t, svc.Delete(ctx, owner, "12"), ErrInvalidID)

	_, err = svc.Edit(ctx, stranger, task.ID, "stolen", true)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, stranger, task.ID), ErrTaskNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, owner, uuid.NewString()), ErrTaskNotFound)

	_, _, err = svc.Search(ctx, owner, "mine", 0, 10)
	assert.ErrorIs(t, err, ErrSearchDisabled)
}

func TestTaskService_IndexFailureIsNotFatal(t *testing.T) {
	idx := &memIndex{docs: map[string]models.Task{}, err: errors.New("es down")}
	svc := newTaskService(t, idx)

	_, err := svc.Create(context.Background(), uuid.NewString(), "still saved", false)
	require.NoError(t, err)
}
