package service

import (
	"database/sql"
	"errors"

	"github.com/moveon/moveon-backend-go/internal/models"
	"github.com/moveon/moveon-backend-go/internal/repository"
)

// TaskService handles task listing and completion
type TaskService struct {
	tasks *repository.TaskRepository
	users *repository.UserRepository
}

// NewTaskService creates a new task service
func NewTaskService(tasks *repository.TaskRepository, users *repository.UserRepository) *TaskService {
	return &TaskService{tasks: tasks, users: users}
}

// List returns the user's tasks
func (s *TaskService) List(telegramID int64) ([]models.Task, error) {
	user, err := s.users.GetByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.tasks.ListByUser(user.ID)
}

// Complete marks the task done and credits its reward
func (s *TaskService) Complete(telegramID, taskID int64) (*models.Task, float64, error) {
	user, err := s.users.GetByTelegramID(telegramID)
	if err != nil {
		return nil, 0, err
	}
	if user == nil {
		return nil, 0, ErrUserNotFound
	}

	done, err := s.tasks.CompleteAndCredit(taskID, user.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrTaskNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	if !done {
		return nil, 0, ErrAlreadyCompleted
	}

	task, err := s.tasks.GetByID(taskID, user.ID)
	if err != nil {
		return nil, 0, err
	}
	return task, user.Points + task.Reward, nil
}
