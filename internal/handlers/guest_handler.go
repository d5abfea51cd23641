package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hotelmunich/reservations-backend/internal/services"
)

// GuestHandler handles guest-related HTTP requests
type GuestHandler struct {
	guestService *services.GuestService
}

// NewGuestHandler creates a new guest handler
func NewGuestHandler(guestService *services.GuestService) *GuestHandler {
	return &GuestHandler{guestService: guestService}
}

// Search handles GET /api/v1/guests?q=...
func (h *GuestHandler) Search(c *gin.Context) {
	guests, err := h.guestService.Search(c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"guests": guests,
		"count":  len(guests),
	})
}

// GetByDocument handles GET /api/v1/guests/document/:number
func (h *GuestHandler) GetByDocument(c *gin.Context) {
	guest, err := h.guestService.GetByDocument(c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, guest)
}

// Get handles GET /api/v1/guests/:id
func (h *GuestHandler) Get(c *gin.Context) {
	guest, err := h.guestService.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, guest)
}

// BillingProfiles handles GET /api/v1/guests/billing-profiles
func (h *GuestHandler) BillingProfiles(c *gin.Context) {
	profiles, err := h.guestService.BillingProfiles()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profiles": profiles,
		"count":    len(profiles),
	})
}
