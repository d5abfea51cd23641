package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hotelmunich/reservations-backend/internal/database"
	"github.com/hotelmunich/reservations-backend/internal/models"
	"github.com/hotelmunich/reservations-backend/internal/validation"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// ReservationService owns the reservation lifecycle. Every mutation runs
// as one unit of work: validate, open an immediate transaction, re-check
// the overlap inside it, write, commit. The re-check inside the
// transaction is what guarantees that of two racing conflicting writes
// exactly one commits.
type ReservationService struct {
	db           database.DB
	reservations *database.ReservationRepository
	rooms        *database.RoomRepository
	guests       *database.GuestRepository
	retry        database.RetryPolicy
	logger       *logrus.Logger
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	db database.DB,
	reservations *database.ReservationRepository,
	rooms *database.RoomRepository,
	guests *database.GuestRepository,
	retry database.RetryPolicy,
	logger *logrus.Logger,
) *ReservationService {
	return &ReservationService{
		db:           db,
		reservations: reservations,
		rooms:        rooms,
		guests:       guests,
		retry:        retry,
		logger:       logger,
	}
}

// Create validates the draft and persists a new pending reservation.
// Returns ErrConflict when another writer committed an overlapping
// reservation first, ErrBusy when store contention outlasted the retry
// budget.
func (s *ReservationService) Create(ctx context.Context, draft models.ReservationDraft, createdBy int64) (*models.Reservation, error) {
	draft.CheckIn = validation.NormalizeDate(draft.CheckIn)
	draft.CheckOut = validation.NormalizeDate(draft.CheckOut)

	room, err := s.rooms.GetByID(draft.RoomID)
	if err != nil {
		return nil, err
	}
	if room.Archived {
		return nil, fmt.Errorf("%w: room %s", models.ErrRoomArchived, room.ID)
	}

	// Pre-validation outside the transaction gives callers fast feedback;
	// the authoritative conflict check repeats inside the unit of work.
	existing, err := s.reservations.ListBlockingForRoom(s.db, draft.RoomID, "")
	if err != nil {
		return nil, err
	}
	if err := validation.ReservationDraft(draft, existing); err != nil {
		return nil, err
	}

	var created *models.Reservation
	err = database.UnitOfWork(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		overlaps, err := s.reservations.CountOverlapping(tx, draft.RoomID, draft.CheckIn, draft.CheckOut, "")
		if err != nil {
			return err
		}
		if overlaps > 0 {
			return fmt.Errorf("%w: room %s %s to %s", models.ErrConflict,
				draft.RoomID, draft.CheckIn.Format("2006-01-02"), draft.CheckOut.Format("2006-01-02"))
		}

		id, err := s.reservations.NextID(tx)
		if err != nil {
			return err
		}

		created = &models.Reservation{
			ID:           id,
			RoomID:       draft.RoomID,
			GuestID:      draft.GuestID,
			CheckIn:      draft.CheckIn,
			CheckOut:     draft.CheckOut,
			Status:       models.StatusPending,
			Price:        draft.Price,
			ContactPhone: draft.ContactPhone,
			ArrivalTime:  draft.ArrivalTime,
			CreatedAt:    time.Now().UTC(),
			CreatedBy:    createdBy,
		}
		return s.reservations.Create(tx, created)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_id": created.ID,
		"room_id":        created.RoomID,
		"check_in":       created.CheckIn.Format("2006-01-02"),
		"check_out":      created.CheckOut.Format("2006-01-02"),
	}).Info("Reservation created")

	return created, nil
}

// Amend rewrites a reservation's dates, room, price or contact details.
// Terminal reservations cannot be amended; the overlap rule is
// re-validated and re-checked just like on create, excluding the
// reservation itself.
func (s *ReservationService) Amend(ctx context.Context, id string, draft models.ReservationDraft) (*models.Reservation, error) {
	draft.CheckIn = validation.NormalizeDate(draft.CheckIn)
	draft.CheckOut = validation.NormalizeDate(draft.CheckOut)

	var amended *models.Reservation
	err := database.UnitOfWork(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		current, err := s.reservations.GetByIDTx(tx, id)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return fmt.Errorf("%w: reservation %s is %s", models.ErrInvalidTransition, id, current.Status)
		}

		existing, err := s.reservations.ListBlockingForRoom(tx, draft.RoomID, id)
		if err != nil {
			return err
		}
		if err := validation.ReservationDraft(draft, existing); err != nil {
			return err
		}

		overlaps, err := s.reservations.CountOverlapping(tx, draft.RoomID, draft.CheckIn, draft.CheckOut, id)
		if err != nil {
			return err
		}
		if overlaps > 0 {
			return fmt.Errorf("%w: room %s %s to %s", models.ErrConflict,
				draft.RoomID, draft.CheckIn.Format("2006-01-02"), draft.CheckOut.Format("2006-01-02"))
		}

		current.RoomID = draft.RoomID
		current.GuestID = draft.GuestID
		current.CheckIn = draft.CheckIn
		current.CheckOut = draft.CheckOut
		current.Price = draft.Price
		current.ContactPhone = draft.ContactPhone
		current.ArrivalTime = draft.ArrivalTime

		if err := s.reservations.Update(tx, current); err != nil {
			return err
		}
		amended = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithField("reservation_id", id).Info("Reservation amended")
	return amended, nil
}

// Cancel moves a reservation to the terminal cancelled state. The record
// is kept with its reason; cancelling an already-terminal reservation
// returns ErrInvalidTransition rather than a second cancellation record.
func (s *ReservationService) Cancel(ctx context.Context, id, reason, cancelledBy string) (*models.Reservation, error) {
	if reason == "" {
		return nil, models.NewValidationError("reason", "cancellation reason is required")
	}

	var cancelled *models.Reservation
	err := database.UnitOfWork(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		current, err := s.reservations.GetByIDTx(tx, id)
		if err != nil {
			return err
		}
		if err := current.Cancel(reason, cancelledBy); err != nil {
			return fmt.Errorf("%w: reservation %s is %s", err, id, current.Status)
		}
		if err := s.reservations.Update(tx, current); err != nil {
			return err
		}
		cancelled = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_id": id,
		"reason":         reason,
		"cancelled_by":   cancelledBy,
	}).Info("Reservation cancelled")

	return cancelled, nil
}

// Transition applies a non-cancel status change (check-in, check-out).
// Cancellation goes through Cancel, which demands a reason.
func (s *ReservationService) Transition(ctx context.Context, id string, next models.ReservationStatus) (*models.Reservation, error) {
	if next == models.StatusCancelled {
		return nil, fmt.Errorf("%w: cancellation requires a reason, use cancel", models.ErrInvalidTransition)
	}

	var updated *models.Reservation
	err := database.UnitOfWork(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		current, err := s.reservations.GetByIDTx(tx, id)
		if err != nil {
			return err
		}
		if !current.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, current.Status, next)
		}
		current.Status = next
		if err := s.reservations.Update(tx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_id": id,
		"status":         next,
	}).Info("Reservation status changed")

	return updated, nil
}

// Get returns one reservation
func (s *ReservationService) Get(id string) (*models.Reservation, error) {
	return s.reservations.GetByID(id)
}

// List returns reservations matching the filter, snapshot-consistent
func (s *ReservationService) List(filter models.ReservationFilter) ([]models.Reservation, error) {
	return s.reservations.List(filter)
}

// WeeklyView returns the occupancy matrix {room: {date: guest}} for the
// seven days starting at start.
func (s *ReservationService) WeeklyView(start time.Time) (map[string]map[string]string, error) {
	start = validation.NormalizeDate(start)
	end := start.AddDate(0, 0, 7)

	rows, err := s.reservations.Occupancy(start, end)
	if err != nil {
		return nil, err
	}

	matrix := make(map[string]map[string]string)
	for _, row := range rows {
		if matrix[row.RoomID] == nil {
			matrix[row.RoomID] = make(map[string]string)
		}
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			if !d.Before(row.CheckIn) && d.Before(row.CheckOut) {
				matrix[row.RoomID][d.Format("2006-01-02")] = row.GuestName
			}
		}
	}
	return matrix, nil
}

// DailyStatus returns every room's occupancy for one date, the front
// desk's morning board.
func (s *ReservationService) DailyStatus(date time.Time) ([]models.RoomStatus, error) {
	date = validation.NormalizeDate(date)

	rooms, err := s.rooms.List(false)
	if err != nil {
		return nil, err
	}
	rows, err := s.reservations.Occupancy(date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	occupied := make(map[string]database.OccupancyRow, len(rows))
	for _, row := range rows {
		occupied[row.RoomID] = row
	}

	statuses := make([]models.RoomStatus, 0, len(rooms))
	for _, room := range rooms {
		status := models.RoomStatus{RoomID: room.ID, Category: room.Category}
		if row, ok := occupied[room.ID]; ok {
			status.Occupied = true
			status.GuestName = row.GuestName
			status.ReservationID = row.ReservationID
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
