package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Skotchmaster/todo_list/internal/config"
	"github.com/Skotchmaster/todo_list/internal/hash"
	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/repo"
	"github.com/Skotchmaster/todo_list/internal/storage"
	"github.com/Skotchmaster/todo_list/internal/tokens"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []UserEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := event.(UserEvent); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type accountEnv struct {
	svc    *AccountService
	repo   *repo.GormRepo
	events *recordingPublisher
}

func newAccountEnv(t *testing.T) *accountEnv {
	t.Helper()
	db, err := config.InitDB(context.Background(), &config.Config{
		StorageDriver: config.DriverSQLite,
		SQLitePath:    ":memory:",
	})
	require.NoError(t, err)

	rp := repo.New(db, 0)
	events := &recordingPublisher{}
	return &accountEnv{
		repo:   rp,
		events: events,
		svc: &AccountService{
			Users:    rp,
			Sessions: rp,
			Tokens:   tokens.NewService([]byte("test-access-secret"), []byte("test-refresh-secret"), rp),
			Events:   events,
		},
	}
}

func countRows(t *testing.T, env *accountEnv, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.repo.DB.Model(model).Count(&n).Error)
	return n
}

func TestRegister_ThenLogin(t *testing.T) {
	env := newAccountEnv(t)
	ctx := context.Background()

	pair, err := env.svc.Register(ctx, "alice", "pass1", "")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, ok := env.svc.Tokens.VerifyAccessToken(pair.AccessToken)
	require.True(t, ok)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)

	user, err := env.repo.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.True(t, hash.CheckPassword(user.PasswordHash, "pass1"))

	role, err := env.repo.FindRole(ctx, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, role.SecretHash)

	sess, err := env.repo.SessionByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, sess.RefreshToken)

	loginPair, err := env.svc.Login(ctx, "alice", "pass1")
	require.NoError(t, err)
	loginClaims, ok := env.svc.Tokens.VerifyAccessToken(loginPair.AccessToken)
	require.True(t, ok)
	assert.Equal(t, claims.Payload, loginClaims.Payload)

	assert.EqualValues(t, 1, countRows(t, env, &models.RefreshSession{}))
	sess, err = env.repo.SessionByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, loginPair.RefreshToken, sess.RefreshToken)

	assert.Equal(t, []string{EventUserRegistered, EventUserLoggedIn}, env.events.types())
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newAccountEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "alice", "pass1", "")
	require.NoError(t, err)

	_, err = env.svc.Register(ctx, "alice", "another", "")
	require.ErrorIs(t, err, ErrUserExists)

	assert.EqualValues(t, 1, countRows(t, env, &models.User{}))
	assert.EqualValues(t, 1, countRows(t, env, &models.Role{}))
}

// staleLookupStore answers every username lookup with "not found", as a
// registration racing another one for the same name would see it.
type staleLookupStore struct {
	*repo.GormRepo
}

func (s staleLookupStore) UserByUsername(context.Context, string) (*models.User, error) {
	return nil, storage.ErrUserNotFound
}

func TestRegister_LostRaceReportsUserExists(t *testing.T) {
	env := newAccountEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "alice", "pass1", "")
	require.NoError(t, err)

	env.svc.Users = staleLookupStore{env.repo}
	_, err = env.svc.Register(ctx, "alice", "pass2", "")
	require.ErrorIs(t, err, ErrUserExists)

	assert.EqualValues(t, 1, countRows(t, env, &models.User{}))
	assert.EqualValues(t, 1, countRows(t, env, &models.Role{}))
}

func TestRegister_ConcurrentSameUsername(t *testing.T) {
	env := newAccountEnv(t)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.svc.Register(ctx, "alice", "pass1", "")
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrUserExists)
	}
	assert.Equal(t, 1, succeeded)
	assert.EqualValues(t, 1, countRows(t, env, &models.User{}))
	assert.EqualValues(t, 1, countRows(t, env, &models.Role{}))
}

func TestRegister_Validation(t *testing.T) {
	env := newAccountEnv(t)

	tests := []struct {
		name     string
		username string
		password string
		role     string
		problem  string
	}{
		{name: "empty username", username: "", password: "secret", problem: "username should not be empty"},
		{name: "blank username", username: "   ", password: "secret", problem: "username should not be empty"},
		{name: "short password", username: "bob", password: "abc", problem: "password should be at least 4 symbols"},
		{name: "unknown role", username: "bob", password: "secret", role: "root", problem: "role should be user or admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Register(context.Background(), tt.username, tt.password, tt.role)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Problems, tt.problem)
		})
	}
	assert.EqualValues(t, 0, countRows(t, env, &models.User{}))
}

func TestLogin_Failures(t *testing.T) {
	env := newAccountEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "alice", "pass1", "")
	require.NoError(t, err)

	_, err = env.svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Login(ctx, gofakeit.Username()+"-missing", "pass1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogout_Idempotent(t *testing.T) {
	env := newAccountEnv(t)
	ctx := context.Background()

	pair, err := env.svc.Register(ctx, "alice", "pass1", "")
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, pair.RefreshToken))
	require.NoError(t, env.svc.Logout(ctx, pair.RefreshToken))
	require.NoError(t, env.svc.Logout(ctx, ""))
	assert.EqualValues(t, 0, countRows(t, env, &models.RefreshSession{}))

	_, err = env.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, tokens.ErrUnauthorized)
}

func TestRefresh_RotatesAndRejectsReuse(t *testing.T) {
	env := newAccountEnv(t)
	ctx := context.Background()

	first, err := env.svc.Register(ctx, "alice", "pass1", "")
	require.NoError(t, err)

	second, err := env.svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = env.svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, tokens.ErrUnauthorized)

	_, err = env.svc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestAdminUserOperations(t *testing.T) {
	env := newAccountEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "root", "toor", models.RoleAdmin)
	require.NoError(t, err)
	_, err = env.svc.Register(ctx, "alice", "pass1", "")
	require.NoError(t, err)

	users, err := env.svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	alice, err := env.repo.UserByUsername(ctx, "alice")
	require.NoError(t, err)

	got, err := env.svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = env.svc.GetUser(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = env.svc.GetUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)

	updated, err := env.svc.UpdateUserRole(ctx, alice.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	_, err = env.svc.UpdateUserRole(ctx, alice.ID, "superuser")
	assert.ErrorIs(t, err, ErrRoleNotFound)
	_, err = env.svc.UpdateUserRole(ctx, alice.ID, "")
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, env.svc.DeleteUser(ctx, alice.ID))
	assert.ErrorIs(t, env.svc.DeleteUser(ctx, alice.ID), ErrUserNotFound)
	_, err = env.repo.SessionByUser(ctx, alice.ID)
	assert.Error(t, err)

	assert.Contains(t, env.events.types(), EventUserDeleted)
}

func TestPublishFailure_DoesNotFailRequest(t *testing.T) {
	env := newAccountEnv(t)
	env.events.err = errors.New("broker down")

	_, err := env.svc.Register(context.Background(), "alice", "pass1", "")
	require.NoError(t, err)
}
