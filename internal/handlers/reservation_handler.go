package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hotelmunich/reservations-backend/internal/middleware"
	"github.com/hotelmunich/reservations-backend/internal/models"
	"github.com/hotelmunich/reservations-backend/internal/services"
)

const dateLayout = "2006-01-02"

// ReservationHandler handles reservation-related HTTP requests
type ReservationHandler struct {
	reservationService *services.ReservationService
	guestService       *services.GuestService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservationService *services.ReservationService, guestService *services.GuestService) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		guestService:       guestService,
	}
}

// Create handles POST /api/v1/reservations. The guest profile is
// upserted by document number before the reservation is written.
func (h *ReservationHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	checkIn, err := time.Parse(dateLayout, req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "check_in must be a YYYY-MM-DD date",
			Field:   "check_in",
		})
		return
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "check_out must be a YYYY-MM-DD date",
			Field:   "check_out",
		})
		return
	}

	guest, err := h.guestService.Upsert(c.Request.Context(), req.Guest)
	if err != nil {
		respondError(c, err)
		return
	}

	draft := models.ReservationDraft{
		RoomID:       req.RoomID,
		GuestID:      guest.ID,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Price:        req.Price,
		ContactPhone: req.ContactPhone,
		ArrivalTime:  req.ArrivalTime,
	}

	reservation, err := h.reservationService.Create(c.Request.Context(), draft, userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reservation)
}

// List handles GET /api/v1/reservations
func (h *ReservationHandler) List(c *gin.Context) {
	filter := models.ReservationFilter{
		RoomID: c.Query("room_id"),
	}

	if from := c.Query("from"); from != "" {
		parsed, err := time.Parse(dateLayout, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "from must be a YYYY-MM-DD date",
				Field:   "from",
			})
			return
		}
		filter.From = parsed
	}
	if to := c.Query("to"); to != "" {
		parsed, err := time.Parse(dateLayout, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "to must be a YYYY-MM-DD date",
				Field:   "to",
			})
			return
		}
		filter.To = parsed
	}

	reservations, err := h.reservationService.List(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reservations": reservations,
		"count":        len(reservations),
	})
}

// Get handles GET /api/v1/reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	reservation, err := h.reservationService.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

// Amend handles PUT /api/v1/reservations/:id
func (h *ReservationHandler) Amend(c *gin.Context) {
	var draft models.ReservationDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	reservation, err := h.reservationService.Amend(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

// Cancel handles POST /api/v1/reservations/:id/cancel
func (h *ReservationHandler) Cancel(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "A cancellation reason is required",
			Field:   "reason",
		})
		return
	}

	reservation, err := h.reservationService.Cancel(c.Request.Context(), c.Param("id"), req.Reason, userCtx.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

// Transition handles POST /api/v1/reservations/:id/status
func (h *ReservationHandler) Transition(c *gin.Context) {
	var req models.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	reservation, err := h.reservationService.Transition(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

// WeeklyView handles GET /api/v1/reservations/weekly?start=YYYY-MM-DD
func (h *ReservationHandler) WeeklyView(c *gin.Context) {
	start := time.Now().UTC()
	if param := c.Query("start"); param != "" {
		parsed, err := time.Parse(dateLayout, param)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "start must be a YYYY-MM-DD date",
				Field:   "start",
			})
			return
		}
		start = parsed
	}

	view, err := h.reservationService.WeeklyView(start)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"start": start.Format(dateLayout),
		"rooms": view,
	})
}

// DailyStatus handles GET /api/v1/reservations/daily?date=YYYY-MM-DD
func (h *ReservationHandler) DailyStatus(c *gin.Context) {
	date := time.Now().UTC()
	if param := c.Query("date"); param != "" {
		parsed, err := time.Parse(dateLayout, param)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "date must be a YYYY-MM-DD date",
				Field:   "date",
			})
			return
		}
		date = parsed
	}

	statuses, err := h.reservationService.DailyStatus(date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  date.Format(dateLayout),
		"rooms": statuses,
	})
}
