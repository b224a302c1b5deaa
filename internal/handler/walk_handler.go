package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moveon/moveon-backend-go/internal/models"
	"github.com/moveon/moveon-backend-go/internal/service"
	"github.com/moveon/moveon-backend-go/pkg/response"
)

// WalkHandler handles HTTP requests for walk sessions
type WalkHandler struct {
	walks *service.WalkService
}

// NewWalkHandler creates a new walk handler
func NewWalkHandler(walks *service.WalkService) *WalkHandler {
	return &WalkHandler{walks: walks}
}

// Start handles POST /api/v1/walks/start
func (h *WalkHandler) Start(c *gin.Context) {
	var req models.StartWalkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Incomplete data: telegram_id is required")
		return
	}

	walkID, err := h.walks.Start(req)
	if errors.Is(err, service.ErrNoEnergy) {
		response.BadRequest(c, "Not enough energy to start a walk")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to start walk")
		return
	}

	response.Success(c, gin.H{"walk_id": walkID, "message": "Walk started"})
}

// Update handles POST /api/v1/walks/update, consuming one sensor sample
func (h *WalkHandler) Update(c *gin.Context) {
	var req models.UpdateWalkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Incomplete data: walk_id and acceleration triple are required")
		return
	}

	result, err := h.walks.Update(req)
	if errors.Is(err, service.ErrSessionNotFound) || errors.Is(err, service.ErrUserNotFound) {
		response.NotFound(c, "Walk session not found")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to update walk session")
		return
	}

	response.Success(c, result)
}

// Finish handles POST /api/v1/walks/finish
func (h *WalkHandler) Finish(c *gin.Context) {
	h.terminate(c, h.walks.Finish)
}

// Stop handles POST /api/v1/walks/stop, abandoning the walk without reward
func (h *WalkHandler) Stop(c *gin.Context) {
	h.terminate(c, h.walks.Stop)
}

func (h *WalkHandler) terminate(c *gin.Context, op func(string) (*models.FinishWalkResponse, error)) {
	var req models.WalkIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Incomplete data: walk_id is required")
		return
	}

	result, err := op(req.WalkID)
	if errors.Is(err, service.ErrSessionNotFound) || errors.Is(err, service.ErrUserNotFound) {
		response.NotFound(c, "Walk session not found")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to finalize walk")
		return
	}

	response.Success(c, result)
}

// History handles GET /api/v1/walks/history/:telegram_id
func (h *WalkHandler) History(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid telegram id")
		return
	}

	var filter models.WalkFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	walks, total, err := h.walks.History(telegramID, filter)
	if errors.Is(err, service.ErrUserNotFound) {
		response.NotFound(c, "User not found")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to get walk history")
		return
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 10
	}
	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	response.Success(c, models.WalksResponse{
		Data:       walks,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	})
}
