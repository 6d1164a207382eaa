package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/todo_list/internal/logging"
	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/storage"
	"github.com/google/uuid"
)

type TaskStore interface {
	TasksByUser(ctx context.Context, userID string) ([]models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, userID, taskID string) error
}

type TaskIndexer interface {
	IndexTask(ctx context.Context, task models.Task) error
	DeleteTask(ctx context.Context, taskID string) error
	SearchTasks(ctx context.Context, userID, query string, from, size int) (int64, []models.Task, error)
}

// TaskService scopes every task operation to the calling user. Index may be nil.
type TaskService struct {
	Store TaskStore
	Index TaskIndexer
}

func (s *TaskService) List(ctx context.Context, userID string) ([]models.Task, error) {
	tasks, err := s.Store.TasksByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ListTasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, userID, title string, isCompleted bool) (*models.Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, validation("title should not be empty")
	}

	task := &models.Task{UserID: userID, Title: title, IsCompleted: isCompleted}
	if err := s.Store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("service.CreateTask: %w", err)
	}
	s.reindex(ctx, *task)
	return task, nil
}

func (s *TaskService) Edit(ctx context.Context, userID, taskID, title string, isCompleted bool) (*models.Task, error) {
	const op = "service.EditTask"
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(title) == "" {
		return nil, validation("title should not be empty")
	}

	task := &models.Task{ID: taskID, UserID: userID, Title: title, IsCompleted: isCompleted}
	if err := s.Store.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, storage.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.reindex(ctx, *task)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	const op = "service.DeleteTask"
	if _, err := uuid.Parse(taskID); err != nil {
		return ErrInvalidID
	}
	if err := s.Store.DeleteTask(ctx, userID, taskID); err != nil {
		if errors.Is(err, storage.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.Index != nil {
		if err := s.Index.DeleteTask(ctx, taskID); err != nil {
			logging.FromContext(ctx).Warn("task_unindex_failed", "task_id", taskID, "error", err)
		}
	}
	return nil
}

func (s *TaskService) Search(ctx context.Context, userID, query string, from, size int) (int64, []models.Task, error) {
	if s.Index == nil {
		return 0, nil, ErrSearchDisabled
	}
	if strings.TrimSpace(query) == "" {
		return 0, nil, validation("query should not be empty")
	}
	total, tasks, err := s.Index.SearchTasks(ctx, userID, query, from, size)
	if err != nil {
		return 0, nil, fmt.Errorf("service.SearchTasks: %w", err)
	}
	return total, tasks, nil
}

func (s *TaskService) reindex(ctx context.Context, task models.Task) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexTask(ctx, task); err != nil {
		logging.FromContext(ctx).Warn("task_index_failed", "task_id", task.ID, "error", err)
	}
}
