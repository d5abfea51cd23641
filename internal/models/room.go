package models

// Room represents a hotel room. Rooms are never deleted while reservations
// reference them; retiring a room archives it instead.
type Room struct {
	ID       string  `json:"id" db:"id"`
	Label    string  `json:"label" db:"label"`
	Category string  `json:"category" db:"category"`
	BaseRate float64 `json:"base_rate" db:"base_rate"`
	Archived bool    `json:"archived" db:"archived"`
}

// UpdateRoomRateRequest represents an admin rate change
type UpdateRoomRateRequest struct {
	BaseRate float64 `json:"base_rate" binding:"min=0"`
}

// RoomStatus describes a room's occupancy on a specific date
type RoomStatus struct {
	RoomID        string `json:"room_id"`
	Category      string `json:"category"`
	Occupied      bool   `json:"occupied"`
	GuestName     string `json:"guest_name,omitempty"`
	ReservationID string `json:"reservation_id,omitempty"`
}
