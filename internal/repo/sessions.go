package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *GormRepo) SessionByToken(ctx context.Context, token string) (*models.RefreshSession, error) {
	const op = "repo.SessionByToken"
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var sess models.RefreshSession
	if err := db.Where("refresh_token = ?", token).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sess, nil
}

func (r *GormRepo) SessionByUser(ctx context.Context, userID string) (*models.RefreshSession, error) {
	const op = "repo.SessionByUser"
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var sess models.RefreshSession
	if err := db.Where("user_id = ?", userID).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sess, nil
}

// UpsertSession writes token as the only session of userID in one statement.
func (r *GormRepo) UpsertSession(ctx context.Context, userID, token string) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	sess := models.RefreshSession{
		ID:           uuid.NewString(),
		UserID:       userID,
		RefreshToken: token,
		UpdatedAt:    time.Now().UTC(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"refresh_token", "updated_at"}),
	}).Create(&sess).Error
	if err != nil {
		return fmt.Errorf("repo.UpsertSession: %w", err)
	}
	return nil
}

func (r *GormRepo) SwapSession(ctx context.Context, userID, oldToken, newToken string) error {
	const op = "repo.SwapSession"
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	res := db.Model(&models.RefreshSession{}).
		Where("user_id = ? AND refresh_token = ?", userID, oldToken).
		Updates(map[string]any{"refresh_token": newToken, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrSessionNotFound)
	}
	return nil
}

// DeleteSessionByToken is a no-op when no row holds token.
func (r *GormRepo) DeleteSessionByToken(ctx context.Context, token string) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := db.Where("refresh_token = ?", token).Delete(&models.RefreshSession{}).Error; err != nil {
		return fmt.Errorf("repo.DeleteSessionByToken: %w", err)
	}
	return nil
}

func (r *GormRepo) DeleteSessionByUser(ctx context.Context, userID string) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := db.Where("user_id = ?", userID).Delete(&models.RefreshSession{}).Error; err != nil {
		return fmt.Errorf("repo.DeleteSessionByUser: %w", err)
	}
	return nil
}
