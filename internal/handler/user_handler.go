package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moveon/moveon-backend-go/internal/middleware"
	"github.com/moveon/moveon-backend-go/internal/models"
	"github.com/moveon/moveon-backend-go/internal/service"
	"github.com/moveon/moveon-backend-go/pkg/response"
)

// UserHandler handles HTTP requests for user account state
type UserHandler struct {
	users     *service.UserService
	jwtSecret string
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService, jwtSecret string) *UserHandler {
	return &UserHandler{users: users, jwtSecret: jwtSecret}
}

func telegramIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid telegram id")
		return 0, false
	}
	return id, true
}

// Energy handles GET /api/v1/users/:telegram_id/energy
func (h *UserHandler) Energy(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	energy, err := h.users.Energy(telegramID)
	if errors.Is(err, service.ErrUserNotFound) {
		response.NotFound(c, "User not found")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to get energy")
		return
	}

	response.Success(c, gin.H{"energy": energy})
}

// Statistics handles GET /api/v1/users/:telegram_id/statistics
func (h *UserHandler) Statistics(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	stats, err := h.users.Statistics(telegramID)
	if errors.Is(err, service.ErrUserNotFound) {
		response.NotFound(c, "User not found")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to get statistics")
		return
	}

	response.Success(c, stats)
}

// DailyBonus handles POST /api/v1/users/daily-bonus
func (h *UserHandler) DailyBonus(c *gin.Context) {
	var req models.TelegramIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Incomplete data: telegram_id is required")
		return
	}

	result, err := h.users.DailyBonus(req.TelegramID)
	if errors.Is(err, service.ErrUserNotFound) {
		response.NotFound(c, "User not found")
		return
	}
	if errors.Is(err, service.ErrAlreadyClaimed) {
		response.BadRequest(c, "Daily bonus already claimed today")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to claim daily bonus")
		return
	}

	response.Success(c, result)
}

// Upgrade handles POST /api/v1/users/upgrade
func (h *UserHandler) Upgrade(c *gin.Context) {
	var req models.UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Incomplete data: telegram_id and skill are required")
		return
	}

	user, err := h.users.Upgrade(req.TelegramID, req.Skill)
	if errors.Is(err, service.ErrUserNotFound) {
		response.NotFound(c, "User not found")
		return
	}
	if errors.Is(err, service.ErrUnknownSkill) {
		response.BadRequest(c, "Unknown skill: must be endurance, efficiency or luck")
		return
	}
	if errors.Is(err, service.ErrNoUpgradePoints) {
		response.BadRequest(c, "No upgrade points available")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to upgrade skill")
		return
	}

	response.Success(c, user)
}

// Token handles POST /api/v1/auth/token, exchanging a Telegram id for a
// bearer token
func (h *UserHandler) Token(c *gin.Context) {
	var req models.TelegramIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Incomplete data: telegram_id is required")
		return
	}

	token, err := middleware.IssueToken(h.jwtSecret, req.TelegramID)
	if err != nil {
		response.InternalError(c, "Failed to issue token")
		return
	}

	response.Success(c, gin.H{"token": token})
}
