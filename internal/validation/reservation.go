// Package validation holds the pure business-rule checks applied before
// any mutation reaches the store. Functions here never touch the
// database; the store layer does not re-validate on write, so every
// mutation path (create, amend, reinstate) must call through here first.
package validation

import (
	"time"

	"github.com/hotelmunich/reservations-backend/internal/models"
)

// ReservationDraft validates a draft against the business rules and the
// room's existing blocking reservations. Checks run in a fixed order and
// fail fast on the first violation, the way an operator fixes one field
// at a time.
func ReservationDraft(draft models.ReservationDraft, existing []models.Reservation) error {
	if draft.RoomID == "" {
		return models.NewValidationError("room_id", "room is required")
	}
	if draft.GuestID == "" {
		return models.NewValidationError("guest_id", "guest is required")
	}
	if draft.CheckIn.IsZero() {
		return models.NewValidationError("check_in", "check-in date is required")
	}
	if draft.CheckOut.IsZero() {
		return models.NewValidationError("check_out", "check-out date is required")
	}
	if !draft.CheckOut.After(draft.CheckIn) {
		return models.NewValidationError("check_out", "check-out must be after check-in")
	}
	if draft.Price < 0 {
		return models.NewValidationError("price", "price must not be negative")
	}

	for _, res := range existing {
		if !res.Status.BlocksRoom() {
			continue
		}
		if Overlaps(draft.CheckIn, draft.CheckOut, res.CheckIn, res.CheckOut) {
			return models.NewValidationError("check_in",
				"dates overlap reservation "+res.ID+" on room "+draft.RoomID)
		}
	}

	return nil
}

// Overlaps reports whether two [check_in, check_out) ranges intersect.
// The strict inequalities make boundary adjacency legal: a checkout and a
// check-in on the same day is normal hotel turnover, not a conflict.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && bIn.Before(aOut)
}

// NormalizeDate truncates a timestamp to its calendar day in UTC.
// Reservations are day-granular; normalizing at the boundary keeps date
// comparisons inside the store consistent.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
