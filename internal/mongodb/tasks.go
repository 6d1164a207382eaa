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

func (s *Storage) TasksByUser(ctx context.Context, userID string) ([]models.Task, error) {
	const op = "mongodb.TasksByUser"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.tasks.Find(ctx,
		bson.D{{Key: "user_id", Value: userID}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tasks := make([]models.Task, 0)
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tasks, nil
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if _, err := s.tasks.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("mongodb.CreateTask: %w", err)
	}
	return nil
}

func (s *Storage) UpdateTask(ctx context.Context, task *models.Task) error {
	const op = "mongodb.UpdateTask"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.tasks.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: task.ID}, {Key: "user_id", Value: task.UserID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "title", Value: task.Title},
			{Key: "is_completed", Value: task.IsCompleted},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%s: %w", op, storage.ErrTaskNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, userID, taskID string) error {
	const op = "mongodb.DeleteTask"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.tasks.DeleteOne(ctx, bson.D{{Key: "_id", Value: taskID}, {Key: "user_id", Value: userID}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrTaskNotFound)
	}
	return nil
}
