package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/hotelmunich/reservations-backend/internal/models"
)

// GuestRepository handles database operations for the guests table
type GuestRepository struct {
	db DB
}

// NewGuestRepository creates a new GuestRepository
func NewGuestRepository(db DB) *GuestRepository {
	return &GuestRepository{db: db}
}

const guestColumns = `
	id, document_type, document_number, full_name, nationality,
	vehicle_plate, vehicle_brand, billing_tax_id, billing_name,
	created_at, updated_at
`

// GetByID retrieves a guest by ID
func (r *GuestRepository) GetByID(id string) (*models.Guest, error) {
	var guest models.Guest
	err := r.db.Get(&guest, `SELECT `+guestColumns+` FROM guests WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: guest %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}
	return &guest, nil
}

// GetByDocument retrieves a guest by document number, the natural dedup key
func (r *GuestRepository) GetByDocument(q Queryer, documentNumber string) (*models.Guest, error) {
	var guest models.Guest
	err := q.Get(&guest, `SELECT `+guestColumns+` FROM guests WHERE document_number = ?`, documentNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: guest with document %s", models.ErrNotFound, documentNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guest by document: %w", err)
	}
	return &guest, nil
}

// Insert creates a new guest profile within the caller's transaction
func (r *GuestRepository) Insert(q Queryer, guest *models.Guest) error {
	_, err := q.Exec(`
		INSERT INTO guests (
			id, document_type, document_number, full_name, nationality,
			vehicle_plate, vehicle_brand, billing_tax_id, billing_name,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		guest.ID, guest.DocumentType, guest.DocumentNumber, guest.FullName, guest.Nationality,
		guest.VehiclePlate, guest.VehicleBrand, guest.BillingTaxID, guest.BillingName,
		guest.CreatedAt, guest.UpdatedAt,
	)
	if err != nil {
		if IsUniqueConstraint(err) {
			return fmt.Errorf("%w: guest with document %s already exists", models.ErrConflict, guest.DocumentNumber)
		}
		return fmt.Errorf("failed to insert guest: %w", err)
	}
	return nil
}

// Update rewrites a guest profile within the caller's transaction
func (r *GuestRepository) Update(q Queryer, guest *models.Guest) error {
	result, err := q.Exec(`
		UPDATE guests
		SET document_type = ?, full_name = ?, nationality = ?,
			vehicle_plate = ?, vehicle_brand = ?,
			billing_tax_id = ?, billing_name = ?, updated_at = ?
		WHERE document_number = ?
	`,
		guest.DocumentType, guest.FullName, guest.Nationality,
		guest.VehiclePlate, guest.VehicleBrand,
		guest.BillingTaxID, guest.BillingName, guest.UpdatedAt,
		guest.DocumentNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to update guest: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: guest with document %s", models.ErrNotFound, guest.DocumentNumber)
	}
	return nil
}

// Search finds guests by name, document number or billing name
func (r *GuestRepository) Search(query string, limit int) ([]models.Guest, error) {
	pattern := "%" + query + "%"
	guests := []models.Guest{}
	err := r.db.Select(&guests, `
		SELECT `+guestColumns+`
		FROM guests
		WHERE full_name LIKE ? COLLATE NOCASE
		   OR document_number LIKE ?
		   OR billing_name LIKE ? COLLATE NOCASE
		ORDER BY updated_at DESC
		LIMIT ?
	`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search guests: %w", err)
	}
	return guests, nil
}

// BillingProfiles returns the unique billing identities cached from past
// stays, for pre-filling invoices of recurring corporate guests.
func (r *GuestRepository) BillingProfiles() ([]models.BillingProfile, error) {
	profiles := []models.BillingProfile{}
	err := r.db.Select(&profiles, `
		SELECT DISTINCT billing_name, COALESCE(billing_tax_id, '') AS billing_tax_id
		FROM guests
		WHERE billing_name IS NOT NULL AND billing_name != ''
		ORDER BY billing_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list billing profiles: %w", err)
	}
	return profiles, nil
}
