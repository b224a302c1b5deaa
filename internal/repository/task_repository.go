package repository

import (
	"database/sql"
	"fmt"

	"github.com/moveon/moveon-backend-go/internal/database"
	"github.com/moveon/moveon-backend-go/internal/models"
)

// TaskRepository handles database operations for tasks
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListByUser retrieves all tasks assigned to a user
func (r *TaskRepository) ListByUser(userID int64) ([]models.Task, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, name, description, reward, is_completed, created_at
		FROM tasks WHERE user_id = ? ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.Reward, &t.IsCompleted, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// GetByID retrieves a task owned by the user, nil if absent
func (r *TaskRepository) GetByID(taskID, userID int64) (*models.Task, error) {
	var t models.Task
	err := r.db.QueryRow(`
		SELECT id, user_id, name, description, reward, is_completed, created_at
		FROM tasks WHERE id = ? AND user_id = ?`,
		taskID, userID,
	).Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.Reward, &t.IsCompleted, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// CompleteAndCredit marks the task completed and credits its reward in one
// transaction. Returns false when the task was already completed.
func (r *TaskRepository) CompleteAndCredit(taskID, userID int64) (bool, error) {
	completed := false
	err := database.Transaction(func(tx *sql.Tx) error {
		var reward float64
		var done bool
		err := tx.QueryRow("SELECT reward, is_completed FROM tasks WHERE id = ? AND user_id = ?", taskID, userID).
			Scan(&reward, &done)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if _, err := tx.Exec("UPDATE tasks SET is_completed = 1 WHERE id = ?", taskID); err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}
		if _, err := tx.Exec(`
			UPDATE users SET points = points + ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			reward, userID,
		); err != nil {
			return fmt.Errorf("failed to credit task reward: %w", err)
		}
		completed = true
		return nil
	})
	return completed, err
}
