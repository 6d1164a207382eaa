package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/todo_list/internal/hash"
	"github.com/Skotchmaster/todo_list/internal/logging"
	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/storage"
	"github.com/Skotchmaster/todo_list/internal/tokens"
	"github.com/google/uuid"
)

const (
	minPasswordLen = 4
	maxPasswordLen = 72
)

type CredentialStore interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
	Users(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUserRole(ctx context.Context, id, role string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	CreateRole(ctx context.Context, role *models.Role) error
	DeleteRole(ctx context.Context, id string) error
	FindRole(ctx context.Context, name string) (*models.Role, error)
}

type SessionRemover interface {
	DeleteSessionByToken(ctx context.Context, token string) error
	DeleteSessionByUser(ctx context.Context, userID string) error
}

type AccountService struct {
	Users    CredentialStore
	Sessions SessionRemover
	Tokens   *tokens.Service
	Events   EventPublisher
}

// ValidateRegistration applies the registration input rules.
func ValidateRegistration(username, password, role string) error {
	var problems []string
	if strings.TrimSpace(username) == "" {
		problems = append(problems, "username should not be empty")
	}
	if len(password) < minPasswordLen {
		problems = append(problems, "password should be at least 4 symbols")
	}
	if len(password) > maxPasswordLen {
		problems = append(problems, "password should be at most 72 bytes")
	}
	if role != "" && role != models.RoleUser && role != models.RoleAdmin {
		problems = append(problems, "role should be user or admin")
	}
	if len(problems) > 0 {
		return validation(problems...)
	}
	return nil
}

func payloadOf(u *models.User) tokens.Payload {
	return tokens.Payload{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (s *AccountService) issue(ctx context.Context, u *models.User) (tokens.Pair, error) {
	pair, err := s.Tokens.IssuePair(payloadOf(u))
	if err != nil {
		return tokens.Pair{}, err
	}
	if err := s.Tokens.PersistRefreshToken(ctx, u.ID, pair.RefreshToken); err != nil {
		return tokens.Pair{}, err
	}
	return pair, nil
}

// Register creates a role row and a user, then opens a session for the user.
func (s *AccountService) Register(ctx context.Context, username, password, role string) (tokens.Pair, error) {
	const op = "service.Register"
	l := logging.FromContext(ctx).With("svc", "account.register", "username", username)

	if err := ValidateRegistration(username, password, role); err != nil {
		return tokens.Pair{}, err
	}
	if role == "" {
		role = models.RoleUser
	}

	_, err := s.Users.UserByUsername(ctx, username)
	switch {
	case err == nil:
		l.Warn("register_error", "status", 400, "reason", "user already exists")
		return tokens.Pair{}, ErrUserExists
	case !errors.Is(err, storage.ErrUserNotFound):
		return tokens.Pair{}, fmt.Errorf("%s: %w", op, err)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return tokens.Pair{}, fmt.Errorf("%s: hash: %w", op, err)
	}

	roleRow := &models.Role{RoleName: role, SecretHash: pwHash}
	if err := s.Users.CreateRole(ctx, roleRow); err != nil {
		return tokens.Pair{}, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{Username: username, PasswordHash: pwHash, Role: role}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		// A concurrent registration took the name; drop the role row written for it.
		if derr := s.Users.DeleteRole(ctx, roleRow.ID); derr != nil {
			l.Warn("register_role_cleanup_failed", "role_id", roleRow.ID, "error", derr)
		}
		if errors.Is(err, storage.ErrUserExists) {
			l.Warn("register_error", "status", 400, "reason", "user already exists")
			return tokens.Pair{}, ErrUserExists
		}
		return tokens.Pair{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return tokens.Pair{}, fmt.Errorf("%s: %w", op, err)
	}

	publish(ctx, s.Events, EventUserRegistered, user)
	l.Info("register_success", "user_id", user.ID)
	return pair, nil
}

func (s *AccountService) Login(ctx context.Context, username, password string) (tokens.Pair, error) {
	const op = "service.Login"
	l := logging.FromContext(ctx).With("svc", "account.login", "username", username)

	if strings.TrimSpace(username) == "" || password == "" {
		return tokens.Pair{}, validation("username and password are required")
	}

	user, err := s.Users.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			l.Warn("login_failed", "status", 400, "reason", "user not found")
			return tokens.Pair{}, ErrUserNotFound
		}
		return tokens.Pair{}, fmt.Errorf("%s: %w", op, err)
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 400, "reason", "wrong password")
		return tokens.Pair{}, ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return tokens.Pair{}, fmt.Errorf("%s: %w", op, err)
	}

	publish(ctx, s.Events, EventUserLoggedIn, user)
	return pair, nil
}

// Logout drops the session holding refreshToken. Unknown tokens are ignored.
func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.Sessions.DeleteSessionByToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("service.Logout: %w", err)
	}
	return nil
}

func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (tokens.Pair, error) {
	return s.Tokens.RotateRefreshToken(ctx, refreshToken)
}

func (s *AccountService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.Users.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ListUsers: %w", err)
	}
	return users, nil
}

func (s *AccountService) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "service.GetUser"
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}
	user, err := s.Users.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UpdateUserRole assigns a role that already exists in the role table.
func (s *AccountService) UpdateUserRole(ctx context.Context, id, role string) (*models.User, error) {
	const op = "service.UpdateUserRole"
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(role) == "" {
		return nil, validation("role should not be empty")
	}

	if _, err := s.Users.FindRole(ctx, role); err != nil {
		if errors.Is(err, storage.ErrRoleNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.Users.UpdateUserRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// DeleteUser removes the account and its refresh session.
func (s *AccountService) DeleteUser(ctx context.Context, id string) error {
	const op = "service.DeleteUser"
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	if err := s.Users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Sessions.DeleteSessionByUser(ctx, id); err != nil {
		return fmt.Errorf("%s: session: %w", op, err)
	}

	publish(ctx, s.Events, EventUserDeleted, &models.User{ID: id})
	return nil
}
