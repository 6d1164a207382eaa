package repo

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/storage"
	"github.com/google/uuid"
)

func (r *GormRepo) TasksByUser(ctx context.Context, userID string) ([]models.Task, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	tasks := make([]models.Task, 0)
	if err := db.Where("user_id = ?", userID).Order("created_at").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("repo.TasksByUser: %w", err)
	}
	return tasks, nil
}

func (r *GormRepo) CreateTask(ctx context.Context, task *models.Task) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if err := db.Create(task).Error; err != nil {
		return fmt.Errorf("repo.CreateTask: %w", err)
	}
	return nil
}

// UpdateTask overwrites title and completion of a task owned by task.UserID.
func (r *GormRepo) UpdateTask(ctx context.Context, task *models.Task) error {
	const op = "repo.UpdateTask"
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	res := db.Model(&models.Task{}).
		Where("id = ? AND user_id = ?", task.ID, task.UserID).
		Updates(map[string]any{"title": task.Title, "is_completed": task.IsCompleted})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrTaskNotFound)
	}
	if err := db.Where("id = ?", task.ID).First(task).Error; err != nil {
		return fmt.Errorf("%s: reload: %w", op, err)
	}
	return nil
}

func (r *GormRepo) DeleteTask(ctx context.Context, userID, taskID string) error {
	const op = "repo.DeleteTask"
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	res := db.Where("id = ? AND user_id = ?", taskID, userID).Delete(&models.Task{})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrTaskNotFound)
	}
	return nil
}
