package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hotelmunich/reservations-backend/internal/database"
	"github.com/hotelmunich/reservations-backend/internal/models"
)

// RoomHandler handles room-related HTTP requests
type RoomHandler struct {
	roomRepo *database.RoomRepository
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomRepo *database.RoomRepository) *RoomHandler {
	return &RoomHandler{roomRepo: roomRepo}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(c *gin.Context) {
	includeArchived, _ := strconv.ParseBool(c.DefaultQuery("include_archived", "false"))

	rooms, err := h.roomRepo.List(includeArchived)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rooms": rooms,
		"count": len(rooms),
	})
}

// Get handles GET /api/v1/rooms/:id
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.roomRepo.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// UpdateRate handles PUT /api/v1/rooms/:id/rate (admin only)
func (h *RoomHandler) UpdateRate(c *gin.Context) {
	var req models.UpdateRoomRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if req.BaseRate < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "base rate must not be negative",
			Field:   "base_rate",
		})
		return
	}

	if err := h.roomRepo.UpdateRate(c.Param("id"), req.BaseRate); err != nil {
		respondError(c, err)
		return
	}

	room, err := h.roomRepo.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// Archive handles POST /api/v1/rooms/:id/archive (admin only)
func (h *RoomHandler) Archive(c *gin.Context) {
	if err := h.roomRepo.Archive(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Room archived"})
}
