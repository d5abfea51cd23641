package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hotelmunich/reservations-backend/internal/services"
)

// BackupHandler handles backup-related HTTP requests (admin only)
type BackupHandler struct {
	backupService *services.BackupService
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler(backupService *services.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// Trigger handles POST /api/v1/backups
func (h *BackupHandler) Trigger(c *gin.Context) {
	kind := services.BackupDaily
	if c.Query("kind") == string(services.BackupWeekly) {
		kind = services.BackupWeekly
	}

	info, err := h.backupService.Snapshot(c.Request.Context(), kind)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, info)
}

// List handles GET /api/v1/backups
func (h *BackupHandler) List(c *gin.Context) {
	backups, err := h.backupService.List()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"backups": backups,
		"count":   len(backups),
	})
}
