package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/storage"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s, err := New(ctx, "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200", "todo_test", 0)
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "mongodb.New: ping")
}

func newIntegrationStorage(t *testing.T) *Storage {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI is required for tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := "todo_test_" + uuid.NewString()[:8]
	s, err := New(ctx, uri, dbName, 0)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.client.Database(dbName).Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestIsDuplicateKeyError_PlainError(t *testing.T) {
	assert.False(t, isDuplicateKeyError(assert.AnError))
}

func TestStorage_Users(t *testing.T) {
	s := newIntegrationStorage(t)
	ctx := context.Background()

	u := &models.User{Username: gofakeit.Username(), PasswordHash: "hash", Role: models.RoleUser}
	require.NoError(t, s.CreateUser(ctx, u))
	require.NotEmpty(t, u.ID)

	err := s.CreateUser(ctx, &models.User{Username: u.Username, PasswordHash: "x", Role: models.RoleUser})
	require.ErrorIs(t, err, storage.ErrUserExists)

	got, err := s.UserByUsername(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	updated, err := s.UpdateUserRole(ctx, u.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	_, err = s.UserByID(ctx, u.ID)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestStorage_Sessions(t *testing.T) {
	s := newIntegrationStorage(t)
	ctx := context.Background()
	userID := uuid.NewString()

	require.NoError(t, s.UpsertSession(ctx, userID, "first"))
	require.NoError(t, s.UpsertSession(ctx, userID, "second"))

	n, err := s.sessions.CountDocuments(ctx, map[string]string{"user_id": userID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.SessionByToken(ctx, "first")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	require.NoError(t, s.SwapSession(ctx, userID, "second", "third"))
	assert.ErrorIs(t, s.SwapSession(ctx, userID, "second", "fourth"), storage.ErrSessionNotFound)

	require.NoError(t, s.DeleteSessionByToken(ctx, "third"))
	require.NoError(t, s.DeleteSessionByToken(ctx, "third"))
	_, err = s.SessionByUser(ctx, userID)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestStorage_Tasks(t *testing.T) {
	s := newIntegrationStorage(t)
	ctx := context.Background()
	owner := uuid.NewString()

	task := &models.Task{UserID: owner, Title: "water plants"}
	require.NoError(t, s.CreateTask(ctx, task))

	edit := &models.Task{ID: task.ID, UserID: owner, Title: "water all plants", IsCompleted: true}
	require.NoError(t, s.UpdateTask(ctx, edit))
	assert.True(t, edit.IsCompleted)

	assert.ErrorIs(t, s.DeleteTask(ctx, uuid.NewString(), task.ID), storage.ErrTaskNotFound)
	require.NoError(t, s.DeleteTask(ctx, owner, task.ID))

	tasks, err := s.TasksByUser(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
