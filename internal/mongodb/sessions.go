package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Storage) findSession(ctx context.Context, op string, filter bson.D) (*models.RefreshSession, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var sess models.RefreshSession
	if err := s.sessions.FindOne(ctx, filter).Decode(&sess); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sess, nil
}

func (s *Storage) SessionByToken(ctx context.Context, token string) (*models.RefreshSession, error) {
	return s.findSession(ctx, "mongodb.SessionByToken", bson.D{{Key: "refresh_token", Value: token}})
}

func (s *Storage) SessionByUser(ctx context.Context, userID string) (*models.RefreshSession, error) {
	return s.findSession(ctx, "mongodb.SessionByUser", bson.D{{Key: "user_id", Value: userID}})
}

// UpsertSession relies on the unique user_id index for one row per user.
func (s *Storage) UpsertSession(ctx context.Context, userID, token string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.sessions.UpdateOne(ctx,
		bson.D{{Key: "user_id", Value: userID}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "refresh_token", Value: token},
				{Key: "updated_at", Value: time.Now().UTC()},
			}},
			{Key: "$setOnInsert", Value: bson.D{{Key: "_id", Value: uuid.NewString()}}},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb.UpsertSession: %w", err)
	}
	return nil
}

func (s *Storage) SwapSession(ctx context.Context, userID, oldToken, newToken string) error {
	const op = "mongodb.SwapSession"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.sessions.UpdateOne(ctx,
		bson.D{{Key: "user_id", Value: userID}, {Key: "refresh_token", Value: oldToken}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "refresh_token", Value: newToken},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrSessionNotFound)
	}
	return nil
}

func (s *Storage) DeleteSessionByToken(ctx context.Context, token string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.sessions.DeleteOne(ctx, bson.D{{Key: "refresh_token", Value: token}}); err != nil {
		return fmt.Errorf("mongodb.DeleteSessionByToken: %w", err)
	}
	return nil
}

func (s *Storage) DeleteSessionByUser(ctx context.Context, userID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.sessions.DeleteOne(ctx, bson.D{{Key: "user_id", Value: userID}}); err != nil {
		return fmt.Errorf("mongodb.DeleteSessionByUser: %w", err)
	}
	return nil
}
