package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hotelmunich/reservations-backend/internal/models"
)

// Queryer is the subset of operations satisfied by both the pool and an
// open transaction. Repository methods that participate in a unit of work
// take a Queryer so the overlap re-check and the insert see the same
// transaction-scoped state.
type Queryer interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// ReservationRepository handles database operations for the reservations table
type ReservationRepository struct {
	db DB
}

// NewReservationRepository creates a new ReservationRepository
func NewReservationRepository(db DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// firstReservationNumber seeds the sequential counter; reservation IDs
// continue the hotel's historical paper-ledger numbering.
const firstReservationNumber = 1255

// NextID allocates the next sequential reservation number. Must run
// inside a write transaction: the writer lock makes max(id)+1 safe.
func (r *ReservationRepository) NextID(q Queryer) (string, error) {
	var last sql.NullString
	if err := q.Get(&last, `SELECT MAX(id) FROM reservations`); err != nil {
		return "", fmt.Errorf("failed to read last reservation id: %w", err)
	}

	next := firstReservationNumber
	if last.Valid {
		n, err := strconv.Atoi(last.String)
		if err != nil {
			return "", fmt.Errorf("malformed reservation id %q: %w", last.String, err)
		}
		next = n + 1
	}
	return fmt.Sprintf("%07d", next), nil
}

// Create inserts a new reservation within the caller's transaction
func (r *ReservationRepository) Create(q Queryer, res *models.Reservation) error {
	query := `
		INSERT INTO reservations (
			id, room_id, guest_id, check_in, check_out, status,
			price, contact_phone, arrival_time, created_at, created_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.Exec(query,
		res.ID, res.RoomID, res.GuestID, res.CheckIn, res.CheckOut, res.Status,
		res.Price, res.ContactPhone, res.ArrivalTime, res.CreatedAt, res.CreatedBy,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: room, guest or user does not exist", models.ErrNotFound)
		}
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns of a reservation within the
// caller's transaction.
func (r *ReservationRepository) Update(q Queryer, res *models.Reservation) error {
	query := `
		UPDATE reservations
		SET room_id = ?, guest_id = ?, check_in = ?, check_out = ?,
			status = ?, cancellation_reason = ?, cancelled_by = ?,
			price = ?, contact_phone = ?, arrival_time = ?
		WHERE id = ?
	`

	result, err := q.Exec(query,
		res.RoomID, res.GuestID, res.CheckIn, res.CheckOut,
		res.Status, res.CancellationReason, res.CancelledBy,
		res.Price, res.ContactPhone, res.ArrivalTime,
		res.ID,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: room or guest does not exist", models.ErrNotFound)
		}
		return fmt.Errorf("failed to update reservation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: reservation %s", models.ErrNotFound, res.ID)
	}
	return nil
}

// GetByID retrieves a reservation using the pool (snapshot-consistent read)
func (r *ReservationRepository) GetByID(id string) (*models.Reservation, error) {
	return r.getByID(r.db, id)
}

// GetByIDTx retrieves a reservation within the caller's transaction
func (r *ReservationRepository) GetByIDTx(q Queryer, id string) (*models.Reservation, error) {
	return r.getByID(q, id)
}

func (r *ReservationRepository) getByID(q Queryer, id string) (*models.Reservation, error) {
	var res models.Reservation
	err := q.Get(&res, `
		SELECT id, room_id, guest_id, check_in, check_out, status,
		       cancellation_reason, cancelled_by, price, contact_phone,
		       arrival_time, created_at, created_by
		FROM reservations
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: reservation %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &res, nil
}

// List retrieves reservations, optionally narrowed by room and date range.
// WAL mode gives the read a consistent snapshot regardless of concurrent
// writers.
func (r *ReservationRepository) List(filter models.ReservationFilter) ([]models.Reservation, error) {
	query := `
		SELECT id, room_id, guest_id, check_in, check_out, status,
		       cancellation_reason, cancelled_by, price, contact_phone,
		       arrival_time, created_at, created_by
		FROM reservations
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.RoomID != "" {
		query += ` AND room_id = ?`
		args = append(args, filter.RoomID)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() {
		// Range filter uses the same strict-inequality intersection as
		// the overlap rule.
		query += ` AND check_in < ? AND ? < check_out`
		args = append(args, filter.To, filter.From)
	}
	query += ` ORDER BY created_at DESC`

	reservations := []models.Reservation{}
	if err := r.db.Select(&reservations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

// ListBlockingForRoom returns the room's reservations that occupy it for
// overlap purposes (pending or checked-in). excludeID skips the
// reservation being amended; pass "" for creates.
func (r *ReservationRepository) ListBlockingForRoom(q Queryer, roomID, excludeID string) ([]models.Reservation, error) {
	query := `
		SELECT id, room_id, guest_id, check_in, check_out, status,
		       cancellation_reason, cancelled_by, price, contact_phone,
		       arrival_time, created_at, created_by
		FROM reservations
		WHERE room_id = ?
		  AND status IN ('pending', 'checked_in')
		  AND id != ?
		ORDER BY check_in
	`

	reservations := []models.Reservation{}
	if err := q.Select(&reservations, query, roomID, excludeID); err != nil {
		return nil, fmt.Errorf("failed to list reservations for room: %w", err)
	}
	return reservations, nil
}

// CountOverlapping counts blocking reservations on the room intersecting
// [checkIn, checkOut). Runs inside the write transaction as the last word
// on conflicts; the pure validation pass outside the transaction only
// shortens the race window, this closes it.
func (r *ReservationRepository) CountOverlapping(q Queryer, roomID string, checkIn, checkOut time.Time, excludeID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reservations
		WHERE room_id = ?
		  AND status IN ('pending', 'checked_in')
		  AND id != ?
		  AND check_in < ? AND ? < check_out
	`

	var count int
	if err := q.Get(&count, query, roomID, excludeID, checkOut, checkIn); err != nil {
		return 0, fmt.Errorf("failed to count overlapping reservations: %w", err)
	}
	return count, nil
}

// OccupancyRow joins a blocking reservation with its guest's name, for
// the calendar views.
type OccupancyRow struct {
	ReservationID string    `db:"reservation_id"`
	RoomID        string    `db:"room_id"`
	GuestName     string    `db:"guest_name"`
	CheckIn       time.Time `db:"check_in"`
	CheckOut      time.Time `db:"check_out"`
}

// Occupancy returns the blocking reservations intersecting [from, to)
// with guest names resolved, ordered by room then check-in.
func (r *ReservationRepository) Occupancy(from, to time.Time) ([]OccupancyRow, error) {
	rows := []OccupancyRow{}
	err := r.db.Select(&rows, `
		SELECT res.id AS reservation_id, res.room_id, g.full_name AS guest_name,
		       res.check_in, res.check_out
		FROM reservations res
		JOIN guests g ON g.id = res.guest_id
		WHERE res.status IN ('pending', 'checked_in')
		  AND res.check_in < ? AND ? < res.check_out
		ORDER BY res.room_id, res.check_in
	`, to, from)
	if err != nil {
		return nil, fmt.Errorf("failed to load occupancy: %w", err)
	}
	return rows, nil
}

// CountAll returns the total number of reservations
func (r *ReservationRepository) CountAll() (int, error) {
	var count int
	if err := r.db.Get(&count, `SELECT COUNT(*) FROM reservations`); err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}
