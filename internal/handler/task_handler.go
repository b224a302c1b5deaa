package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moveon/moveon-backend-go/internal/models"
	"github.com/moveon/moveon-backend-go/internal/service"
	"github.com/moveon/moveon-backend-go/pkg/response"
)

// TaskHandler handles HTTP requests for tasks
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List handles GET /api/v1/tasks/:telegram_id
func (h *TaskHandler) List(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid telegram id")
		return
	}

	tasks, err := h.tasks.List(telegramID)
	if errors.Is(err, service.ErrUserNotFound) {
		response.NotFound(c, "User not found")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to get tasks")
		return
	}

	response.Success(c, gin.H{"tasks": tasks})
}

// Complete handles POST /api/v1/tasks/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	var req models.CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Incomplete data: telegram_id and task_id are required")
		return
	}

	task, points, err := h.tasks.Complete(req.TelegramID, req.TaskID)
	if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrTaskNotFound) {
		response.NotFound(c, "Task not found")
		return
	}
	if errors.Is(err, service.ErrAlreadyCompleted) {
		response.BadRequest(c, "Task already completed")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to complete task")
		return
	}

	response.Success(c, gin.H{"task_id": task.ID, "new_points": points})
}
