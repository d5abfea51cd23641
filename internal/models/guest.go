package models

import "time"

// Guest represents a guest profile. Profiles persist indefinitely and are
// deduplicated by document number: repeat visits update the profile rather
// than creating a new one.
type Guest struct {
	ID             string    `json:"id" db:"id"`
	DocumentType   string    `json:"document_type" db:"document_type"`
	DocumentNumber string    `json:"document_number" db:"document_number"`
	FullName       string    `json:"full_name" db:"full_name"`
	Nationality    string    `json:"nationality" db:"nationality"`
	VehiclePlate   *string   `json:"vehicle_plate,omitempty" db:"vehicle_plate"`
	VehicleBrand   *string   `json:"vehicle_brand,omitempty" db:"vehicle_brand"`
	BillingTaxID   *string   `json:"billing_tax_id,omitempty" db:"billing_tax_id"`
	BillingName    *string   `json:"billing_name,omitempty" db:"billing_name"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// UpsertGuestRequest carries the fields registered at check-in. The
// document number is the natural key; latest values win, but blank fields
// keep the stored value so recurring-guest billing data survives partial
// registrations.
type UpsertGuestRequest struct {
	DocumentType   string  `json:"document_type" binding:"required"`
	DocumentNumber string  `json:"document_number" binding:"required"`
	FullName       string  `json:"full_name" binding:"required,min=2"`
	Nationality    string  `json:"nationality"`
	VehiclePlate   *string `json:"vehicle_plate,omitempty"`
	VehicleBrand   *string `json:"vehicle_brand,omitempty"`
	BillingTaxID   *string `json:"billing_tax_id,omitempty"`
	BillingName    *string `json:"billing_name,omitempty"`
}

// BillingProfile is a unique billing identity cached from past stays
type BillingProfile struct {
	BillingName  string `json:"billing_name" db:"billing_name"`
	BillingTaxID string `json:"billing_tax_id" db:"billing_tax_id"`
}
