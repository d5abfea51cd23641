package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hotelmunich/reservations-backend/internal/models"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code,omitempty"`
}

// respondError maps service errors onto HTTP status codes so every
// handler reports failures the same way.
func respondError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Reason,
			Field:   validationErr.Field,
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "The requested resource does not exist",
		})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "invalid_transition",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrRoomArchived):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "room_archived",
			Message: "The room is archived and cannot take new reservations",
		})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid username or password",
		})
	case errors.Is(err, models.ErrBackupInFlight):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "backup_in_flight",
			Message: "A backup is already running",
		})
	case errors.Is(err, models.ErrBusy):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "busy",
			Message: "The database is busy, please retry",
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
		})
	}
}
