package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// ErrUnauthorized is returned by RotateRefreshToken when the presented token
// is invalid, expired or no longer the live session value.
var ErrUnauthorized = errors.New("user is not authorized")

type SessionStore interface {
	SessionByToken(ctx context.Context, token string) (*models.RefreshSession, error)
	UpsertSession(ctx context.Context, userID, token string) error
	// SwapSession replaces oldToken with newToken for userID and returns
	// storage.ErrSessionNotFound when oldToken is no longer current.
	SwapSession(ctx context.Context, userID, oldToken, newToken string) error
}

type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	sessions      SessionStore
	now           func() time.Time
}

type Option func(*Service)

func WithTTL(access, refresh time.Duration) Option {
	return func(s *Service) {
		if access > 0 {
			s.accessTTL = access
		}
		if refresh > 0 {
			s.refreshTTL = refresh
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(accessSecret, refreshSecret []byte, sessions SessionStore, opts ...Option) *Service {
	s := &Service{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     DefaultAccessTTL,
		refreshTTL:    DefaultRefreshTTL,
		sessions:      sessions,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) sign(p Payload, secret []byte, exp time.Time, now time.Time) (string, error) {
	claims := Claims{
		Payload: p,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// IssuePair signs an access and a refresh token carrying the same payload.
func (s *Service) IssuePair(p Payload) (Pair, error) {
	const op = "tokens.IssuePair"

	now := s.now()
	accessExp := now.Add(s.accessTTL)
	refreshExp := now.Add(s.refreshTTL)

	access, err := s.sign(p, s.accessSecret, accessExp, now)
	if err != nil {
		return Pair{}, fmt.Errorf("%s: access: %w", op, err)
	}
	refresh, err := s.sign(p, s.refreshSecret, refreshExp, now)
	if err != nil {
		return Pair{}, fmt.Errorf("%s: refresh: %w", op, err)
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// PersistRefreshToken leaves exactly one session row for userID holding token.
func (s *Service) PersistRefreshToken(ctx context.Context, userID, token string) error {
	if err := s.sessions.UpsertSession(ctx, userID, token); err != nil {
		return fmt.Errorf("tokens.PersistRefreshToken: %w", err)
	}
	return nil
}

func (s *Service) VerifyAccessToken(token string) (*Claims, bool) {
	claims, err := claimsFromToken(token, s.accessSecret, s.now)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func (s *Service) VerifyRefreshToken(token string) (*Claims, bool) {
	claims, err := claimsFromToken(token, s.refreshSecret, s.now)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// RotateRefreshToken exchanges a live refresh token for a new pair. The old
// token must verify and must also be the value stored for its user.
func (s *Service) RotateRefreshToken(ctx context.Context, old string) (Pair, error) {
	const op = "tokens.RotateRefreshToken"

	claims, ok := s.VerifyRefreshToken(old)
	if !ok {
		return Pair{}, ErrUnauthorized
	}

	sess, err := s.sessions.SessionByToken(ctx, old)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return Pair{}, ErrUnauthorized
		}
		return Pair{}, fmt.Errorf("%s: lookup: %w", op, err)
	}
	if sess.UserID != claims.UserID {
		return Pair{}, ErrUnauthorized
	}

	pair, err := s.IssuePair(claims.Payload)
	if err != nil {
		return Pair{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sessions.SwapSession(ctx, claims.UserID, old, pair.RefreshToken); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return Pair{}, ErrUnauthorized
		}
		return Pair{}, fmt.Errorf("%s: persist: %w", op, err)
	}
	return pair, nil
}
