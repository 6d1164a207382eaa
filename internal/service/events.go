package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/todo_list/internal/logging"
	"github.com/Skotchmaster/todo_list/internal/models"
)

const (
	EventUserRegistered = "user_registered"
	EventUserLoggedIn   = "user_logged_in"
	EventUserDeleted    = "user_deleted"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, event any) error
}

type UserEvent struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	Username string    `json:"username,omitempty"`
	Role     string    `json:"role,omitempty"`
	At       time.Time `json:"at"`
}

// publish never fails the caller; delivery problems are only logged.
func publish(ctx context.Context, p EventPublisher, typ string, u *models.User) {
	if p == nil {
		return
	}
	ev := UserEvent{Type: typ, UserID: u.ID, Username: u.Username, Role: u.Role, At: time.Now().UTC()}
	if err := p.PublishEvent(ctx, u.ID, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", typ, "error", err)
	}
}
