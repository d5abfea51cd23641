package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hotelmunich/reservations-backend/internal/database"
	"github.com/hotelmunich/reservations-backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// GuestService manages guest profiles. Profiles are deduplicated by
// document number: a repeat visit updates the stored profile instead of
// creating a duplicate, and keeps previously captured billing data when
// the new registration leaves those fields blank.
type GuestService struct {
	db     database.DB
	guests *database.GuestRepository
	retry  database.RetryPolicy
	logger *logrus.Logger
}

// NewGuestService creates a new GuestService
func NewGuestService(db database.DB, guests *database.GuestRepository, retry database.RetryPolicy, logger *logrus.Logger) *GuestService {
	return &GuestService{db: db, guests: guests, retry: retry, logger: logger}
}

// Upsert creates or refreshes a guest profile keyed by document number
func (s *GuestService) Upsert(ctx context.Context, req models.UpsertGuestRequest) (*models.Guest, error) {
	req.DocumentNumber = normalizeDocument(req.DocumentNumber)
	if req.DocumentNumber == "" {
		return nil, models.NewValidationError("document_number", "document number is required")
	}
	if len(strings.TrimSpace(req.FullName)) < 2 {
		return nil, models.NewValidationError("full_name", "guest name must have at least 2 characters")
	}

	var result *models.Guest
	err := database.UnitOfWork(ctx, s.db, s.retry, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()

		current, err := s.guests.GetByDocument(tx, req.DocumentNumber)
		if errors.Is(err, models.ErrNotFound) {
			guest := &models.Guest{
				ID:             uuid.New().String(),
				DocumentType:   req.DocumentType,
				DocumentNumber: req.DocumentNumber,
				FullName:       strings.TrimSpace(req.FullName),
				Nationality:    req.Nationality,
				VehiclePlate:   req.VehiclePlate,
				VehicleBrand:   req.VehicleBrand,
				BillingTaxID:   req.BillingTaxID,
				BillingName:    req.BillingName,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.guests.Insert(tx, guest); err != nil {
				return err
			}
			result = guest
			return nil
		}
		if err != nil {
			return err
		}

		// Latest values win, but blank incoming fields keep what a
		// previous stay already captured.
		current.FullName = strings.TrimSpace(req.FullName)
		if req.DocumentType != "" {
			current.DocumentType = req.DocumentType
		}
		if req.Nationality != "" {
			current.Nationality = req.Nationality
		}
		if req.VehiclePlate != nil {
			current.VehiclePlate = req.VehiclePlate
		}
		if req.VehicleBrand != nil {
			current.VehicleBrand = req.VehicleBrand
		}
		if req.BillingTaxID != nil {
			current.BillingTaxID = req.BillingTaxID
		}
		if req.BillingName != nil {
			current.BillingName = req.BillingName
		}
		current.UpdatedAt = now

		if err := s.guests.Update(tx, current); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"guest_id": result.ID,
		"document": result.DocumentNumber,
	}).Info("Guest profile upserted")

	return result, nil
}

// GetByDocument looks up a profile by its document number
func (s *GuestService) GetByDocument(documentNumber string) (*models.Guest, error) {
	return s.guests.GetByDocument(s.db, normalizeDocument(documentNumber))
}

// Get returns one guest profile
func (s *GuestService) Get(id string) (*models.Guest, error) {
	return s.guests.GetByID(id)
}

// Search finds profiles by name, document or billing name
func (s *GuestService) Search(query string) ([]models.Guest, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Guest{}, nil
	}
	return s.guests.Search(query, 20)
}

// BillingProfiles returns the unique billing identities on file
func (s *GuestService) BillingProfiles() ([]models.BillingProfile, error) {
	return s.guests.BillingProfiles()
}

// normalizeDocument strips dots and whitespace and upper-cases the
// document number so repeat visits hit the same profile.
func normalizeDocument(doc string) string {
	cleaned := strings.NewReplacer(".", "", " ", "", "\t", "").Replace(doc)
	return strings.ToUpper(strings.TrimSpace(cleaned))
}
