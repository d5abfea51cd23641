package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/hotelmunich/reservations-backend/internal/models"
)

// RoomRepository handles database operations for the rooms table
type RoomRepository struct {
	db DB
}

// NewRoomRepository creates a new RoomRepository
func NewRoomRepository(db DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// GetByID retrieves a room by ID
func (r *RoomRepository) GetByID(id string) (*models.Room, error) {
	var room models.Room
	err := r.db.Get(&room, `
		SELECT id, label, category, base_rate, archived
		FROM rooms
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: room %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

// List returns all rooms, archived ones last
func (r *RoomRepository) List(includeArchived bool) ([]models.Room, error) {
	query := `SELECT id, label, category, base_rate, archived FROM rooms`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY archived, id`

	rooms := []models.Room{}
	if err := r.db.Select(&rooms, query); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// UpdateRate changes a room's base rate (admin operation)
func (r *RoomRepository) UpdateRate(id string, rate float64) error {
	result, err := r.db.Exec(`UPDATE rooms SET base_rate = ? WHERE id = ?`, rate, id)
	if err != nil {
		return fmt.Errorf("failed to update room rate: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: room %s", models.ErrNotFound, id)
	}
	return nil
}

// Archive soft-archives a room. Rooms referenced by reservations are
// never deleted; archiving hides them from new bookings only.
func (r *RoomRepository) Archive(id string) error {
	result, err := r.db.Exec(`UPDATE rooms SET archived = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to archive room: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: room %s", models.ErrNotFound, id)
	}
	return nil
}
