package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hotelmunich/reservations-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedGuest inserts a guest profile directly, for reservation fixtures
func seedGuest(t *testing.T, db DB, document, name string) *models.Guest {
	t.Helper()

	now := time.Now().UTC()
	guest := &models.Guest{
		ID:             uuid.New().String(),
		DocumentNumber: document,
		FullName:       name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, NewGuestRepository(db).Insert(db, guest))
	return guest
}

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func seedReservation(t *testing.T, db DB, roomID string, guestID string, checkIn, checkOut time.Time, status models.ReservationStatus) *models.Reservation {
	t.Helper()

	repo := NewReservationRepository(db)
	id, err := repo.NextID(db)
	require.NoError(t, err)

	res := &models.Reservation{
		ID:        id,
		RoomID:    roomID,
		GuestID:   guestID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Status:    status,
		Price:     60,
		CreatedAt: time.Now().UTC(),
		CreatedBy: 1,
	}
	require.NoError(t, repo.Create(db, res))
	return res
}

func TestNextIDContinuesLedgerNumbering(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)

	id, err := repo.NextID(db)
	require.NoError(t, err)
	assert.Equal(t, "0001255", id)

	guest := seedGuest(t, db, "11111111A", "Ana Ruiz")
	seedReservation(t, db, "21", guest.ID, day(1), day(3), models.StatusPending)

	id, err = repo.NextID(db)
	require.NoError(t, err)
	assert.Equal(t, "0001256", id)
}

func TestReservationRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)

	guest := seedGuest(t, db, "22222222B", "Carlos Mendez")
	phone := "+34 600 111 222"
	arrival := "18:30"

	res := &models.Reservation{
		ID:           "0001255",
		RoomID:       "24",
		GuestID:      guest.ID,
		CheckIn:      day(10),
		CheckOut:     day(12),
		Status:       models.StatusPending,
		Price:        85.50,
		ContactPhone: &phone,
		ArrivalTime:  &arrival,
		CreatedAt:    time.Now().UTC(),
		CreatedBy:    1,
	}
	require.NoError(t, repo.Create(db, res))

	got, err := repo.GetByID("0001255")
	require.NoError(t, err)
	assert.Equal(t, "24", got.RoomID)
	assert.Equal(t, guest.ID, got.GuestID)
	assert.True(t, got.CheckIn.Equal(day(10)))
	assert.True(t, got.CheckOut.Equal(day(12)))
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, 85.50, got.Price)
	require.NotNil(t, got.ContactPhone)
	assert.Equal(t, phone, *got.ContactPhone)
	require.NotNil(t, got.ArrivalTime)
	assert.Equal(t, arrival, *got.ArrivalTime)
	assert.Equal(t, int64(1), got.CreatedBy)
}

func TestGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := NewReservationRepository(db).GetByID("0009999")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateRejectsUnknownRoom(t *testing.T) {
	db := newTestDB(t)
	guest := seedGuest(t, db, "33333333C", "Lucia Gil")

	res := &models.Reservation{
		ID:        "0001255",
		RoomID:    "99",
		GuestID:   guest.ID,
		CheckIn:   day(1),
		CheckOut:  day(2),
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
		CreatedBy: 1,
	}
	err := NewReservationRepository(db).Create(db, res)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateNotFound(t *testing.T) {
	db := newTestDB(t)

	res := &models.Reservation{
		ID:       "0009999",
		RoomID:   "21",
		GuestID:  uuid.New().String(),
		CheckIn:  day(1),
		CheckOut: day(2),
		Status:   models.StatusPending,
	}
	err := NewReservationRepository(db).Update(db, res)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCountOverlapping(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	guest := seedGuest(t, db, "44444444D", "Pablo Saez")

	// Room 21 occupied [5, 8)
	seedReservation(t, db, "21", guest.ID, day(5), day(8), models.StatusPending)
	// Room 22 cancelled [5, 8): must not block
	cancelled := seedReservation(t, db, "22", guest.ID, day(5), day(8), models.StatusPending)
	reason := "guest called"
	by := "recepcion"
	require.NoError(t, cancelled.Cancel(reason, by))
	require.NoError(t, repo.Update(db, cancelled))

	tests := []struct {
		name              string
		roomID            string
		checkIn, checkOut time.Time
		want              int
	}{
		{"full overlap", "21", day(5), day(8), 1},
		{"partial head", "21", day(3), day(6), 1},
		{"partial tail", "21", day(7), day(10), 1},
		{"contained", "21", day(6), day(7), 1},
		{"containing", "21", day(1), day(20), 1},
		{"ends at check-in", "21", day(3), day(5), 0},
		{"starts at check-out", "21", day(8), day(10), 0},
		{"different room", "23", day(5), day(8), 0},
		{"cancelled does not block", "22", day(5), day(8), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := repo.CountOverlapping(db, tt.roomID, tt.checkIn, tt.checkOut, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)
		})
	}
}

func TestCountOverlappingExcludesSelf(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	guest := seedGuest(t, db, "55555555E", "Irene Vidal")

	res := seedReservation(t, db, "21", guest.ID, day(5), day(8), models.StatusPending)

	count, err := repo.CountOverlapping(db, "21", day(5), day(8), res.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListFiltersByRoomAndRange(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	guest := seedGuest(t, db, "66666666F", "Marta Leon")

	seedReservation(t, db, "21", guest.ID, day(1), day(3), models.StatusPending)
	seedReservation(t, db, "21", guest.ID, day(10), day(12), models.StatusPending)
	seedReservation(t, db, "22", guest.ID, day(1), day(3), models.StatusPending)

	all, err := repo.List(models.ReservationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	room21, err := repo.List(models.ReservationFilter{RoomID: "21"})
	require.NoError(t, err)
	assert.Len(t, room21, 2)

	early, err := repo.List(models.ReservationFilter{RoomID: "21", From: day(1), To: day(5)})
	require.NoError(t, err)
	require.Len(t, early, 1)
	assert.True(t, early[0].CheckIn.Equal(day(1)))

	// Range touching only the boundary day matches nothing
	none, err := repo.List(models.ReservationFilter{RoomID: "21", From: day(3), To: day(10)})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListBlockingForRoom(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	guest := seedGuest(t, db, "77777777G", "Hugo Navarro")

	pending := seedReservation(t, db, "21", guest.ID, day(1), day(3), models.StatusPending)
	checkedIn := seedReservation(t, db, "21", guest.ID, day(5), day(7), models.StatusCheckedIn)
	seedReservation(t, db, "21", guest.ID, day(10), day(12), models.StatusCheckedOut)

	blocking, err := repo.ListBlockingForRoom(db, "21", "")
	require.NoError(t, err)
	require.Len(t, blocking, 2)
	assert.Equal(t, pending.ID, blocking[0].ID)
	assert.Equal(t, checkedIn.ID, blocking[1].ID)

	excluded, err := repo.ListBlockingForRoom(db, "21", pending.ID)
	require.NoError(t, err)
	require.Len(t, excluded, 1)
	assert.Equal(t, checkedIn.ID, excluded[0].ID)
}

func TestOccupancyResolvesGuestNames(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	guest := seedGuest(t, db, "88888888H", "Nerea Campos")

	res := seedReservation(t, db, "25", guest.ID, day(5), day(8), models.StatusCheckedIn)

	rows, err := repo.Occupancy(day(6), day(7))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, res.ID, rows[0].ReservationID)
	assert.Equal(t, "25", rows[0].RoomID)
	assert.Equal(t, "Nerea Campos", rows[0].GuestName)
}
