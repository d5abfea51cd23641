package models

import "time"

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	StatusPending    ReservationStatus = "pending"
	StatusCheckedIn  ReservationStatus = "checked_in"
	StatusCheckedOut ReservationStatus = "checked_out"
	StatusCancelled  ReservationStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed
func (s ReservationStatus) IsTerminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

// BlocksRoom reports whether a reservation in this status occupies the
// room for overlap purposes.
func (s ReservationStatus) BlocksRoom() bool {
	return s == StatusPending || s == StatusCheckedIn
}

// Reservation represents a room reservation. Dates follow the
// [check_in, check_out) convention: the checkout day itself is free, so
// same-day turnover on a room is legal.
type Reservation struct {
	ID                 string            `json:"id" db:"id"`
	RoomID             string            `json:"room_id" db:"room_id"`
	GuestID            string            `json:"guest_id" db:"guest_id"`
	CheckIn            time.Time         `json:"check_in" db:"check_in"`
	CheckOut           time.Time         `json:"check_out" db:"check_out"`
	Status             ReservationStatus `json:"status" db:"status"`
	CancellationReason *string           `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancelledBy        *string           `json:"cancelled_by,omitempty" db:"cancelled_by"`
	Price              float64           `json:"price" db:"price"`
	ContactPhone       *string           `json:"contact_phone,omitempty" db:"contact_phone"`
	ArrivalTime        *string           `json:"arrival_time,omitempty" db:"arrival_time"`
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`
	CreatedBy          int64             `json:"created_by" db:"created_by"`
}

// CanTransitionTo reports whether a status change is allowed from the
// reservation's current state. Terminal states accept nothing.
func (r *Reservation) CanTransitionTo(next ReservationStatus) bool {
	switch r.Status {
	case StatusPending:
		return next == StatusCheckedIn || next == StatusCancelled
	case StatusCheckedIn:
		return next == StatusCheckedOut || next == StatusCancelled
	default:
		return false
	}
}

// Cancel marks the reservation cancelled. The record is retained with its
// reason; cancellations are never deleted.
func (r *Reservation) Cancel(reason string, cancelledBy string) error {
	if !r.CanTransitionTo(StatusCancelled) {
		return ErrInvalidTransition
	}
	r.Status = StatusCancelled
	r.CancellationReason = &reason
	r.CancelledBy = &cancelledBy
	return nil
}

// ReservationDraft carries the caller's intent to create or amend a
// reservation. It is validated before any mutation reaches the store.
type ReservationDraft struct {
	RoomID       string    `json:"room_id" binding:"required"`
	GuestID      string    `json:"guest_id" binding:"required"`
	CheckIn      time.Time `json:"check_in" binding:"required"`
	CheckOut     time.Time `json:"check_out" binding:"required"`
	Price        float64   `json:"price"`
	ContactPhone *string   `json:"contact_phone,omitempty"`
	ArrivalTime  *string   `json:"arrival_time,omitempty"`
}

// CreateReservationRequest is the API shape for creating a reservation;
// the guest profile is upserted by document number in the same call.
type CreateReservationRequest struct {
	RoomID       string             `json:"room_id" binding:"required"`
	Guest        UpsertGuestRequest `json:"guest" binding:"required"`
	CheckIn      string             `json:"check_in" binding:"required"`  // YYYY-MM-DD
	CheckOut     string             `json:"check_out" binding:"required"` // YYYY-MM-DD
	Price        float64            `json:"price"`
	ContactPhone *string            `json:"contact_phone,omitempty"`
	ArrivalTime  *string            `json:"arrival_time,omitempty"`
}

// CancelReservationRequest carries the mandatory cancellation reason
type CancelReservationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// TransitionRequest carries a requested status change
type TransitionRequest struct {
	Status ReservationStatus `json:"status" binding:"required"`
}

// ReservationFilter narrows List queries. Zero values mean "no filter".
type ReservationFilter struct {
	RoomID string
	From   time.Time
	To     time.Time
}
