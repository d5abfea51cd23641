package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hotelmunich/reservations-backend/internal/config"
	"github.com/hotelmunich/reservations-backend/internal/database"
	"github.com/hotelmunich/reservations-backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// newTestStore opens a fresh migrated store for service tests
func newTestStore(t *testing.T) *database.SQLiteDB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "hotel.db"),
		BusyTimeout:    5 * time.Second,
		MaxConnections: 5,
	}
	db, err := database.NewConnection(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, bcrypt.MinCost))
	return db
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fixture struct {
	db           *database.SQLiteDB
	reservations *ReservationService
	guests       *GuestService
	guest        *models.Guest
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestStore(t)
	logger := testLogger()
	retry := database.DefaultRetryPolicy

	reservationRepo := database.NewReservationRepository(db)
	roomRepo := database.NewRoomRepository(db)
	guestRepo := database.NewGuestRepository(db)

	guests := NewGuestService(db, guestRepo, retry, logger)
	reservations := NewReservationService(db, reservationRepo, roomRepo, guestRepo, retry, logger)

	guest, err := guests.Upsert(context.Background(), models.UpsertGuestRequest{
		DocumentType:   "DNI",
		DocumentNumber: "11223344A",
		FullName:       "Laura Iglesias",
	})
	require.NoError(t, err)

	return &fixture{db: db, reservations: reservations, guests: guests, guest: guest}
}

func stay(f *fixture, room string, checkIn, checkOut int) models.ReservationDraft {
	return models.ReservationDraft{
		RoomID:   room,
		GuestID:  f.guest.ID,
		CheckIn:  time.Date(2025, 3, checkIn, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, 3, checkOut, 0, 0, 0, 0, time.UTC),
		Price:    70,
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.reservations.Create(ctx, stay(f, "21", 1, 3), 1)
	require.NoError(t, err)
	assert.Equal(t, "0001255", first.ID)
	assert.Equal(t, models.StatusPending, first.Status)

	second, err := f.reservations.Create(ctx, stay(f, "22", 1, 3), 1)
	require.NoError(t, err)
	assert.Equal(t, "0001256", second.ID)
}

func TestCreateRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reservations.Create(ctx, stay(f, "21", 5, 10), 1)
	require.NoError(t, err)

	_, err = f.reservations.Create(ctx, stay(f, "21", 7, 9), 1)
	require.Error(t, err)
	assert.True(t, models.IsValidation(err) || errors.Is(err, models.ErrConflict))

	// Same dates on a different room are fine
	_, err = f.reservations.Create(ctx, stay(f, "22", 7, 9), 1)
	assert.NoError(t, err)
}

func TestCreateAllowsSameDayTurnover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reservations.Create(ctx, stay(f, "21", 1, 5), 1)
	require.NoError(t, err)

	// New guest checks in the day the previous one checks out
	_, err = f.reservations.Create(ctx, stay(f, "21", 5, 8), 1)
	assert.NoError(t, err)
}

func TestCreateValidationFailsFast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reversed := stay(f, "21", 10, 5)
	_, err := f.reservations.Create(ctx, reversed, 1)
	require.Error(t, err)
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "check_out", ve.Field)

	negative := stay(f, "21", 5, 10)
	negative.Price = -1
	_, err = f.reservations.Create(ctx, negative, 1)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "price", ve.Field)

	// Nothing was persisted by the rejected drafts
	all, err := f.reservations.List(models.ReservationFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateRejectsArchivedRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, database.NewRoomRepository(f.db).Archive("21"))

	_, err := f.reservations.Create(ctx, stay(f, "21", 1, 3), 1)
	assert.ErrorIs(t, err, models.ErrRoomArchived)
}

func TestCancelledReservationReleasesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.reservations.Create(ctx, stay(f, "21", 5, 10), 1)
	require.NoError(t, err)

	cancelled, err := f.reservations.Cancel(ctx, created.ID, "guest called to cancel", "recepcion")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "guest called to cancel", *cancelled.CancellationReason)

	// The record survives, the room frees up
	kept, err := f.reservations.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, kept.Status)

	reissued, err := f.reservations.Create(ctx, stay(f, "21", 5, 10), 1)
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, reissued.ID)
}

func TestCancelRequiresReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.reservations.Create(ctx, stay(f, "21", 1, 3), 1)
	require.NoError(t, err)

	_, err = f.reservations.Cancel(ctx, created.ID, "", "recepcion")
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "reason", ve.Field)

	// Reservation untouched
	got, err := f.reservations.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestCancelTerminalReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.reservations.Create(ctx, stay(f, "21", 1, 3), 1)
	require.NoError(t, err)
	_, err = f.reservations.Cancel(ctx, created.ID, "first cancellation", "recepcion")
	require.NoError(t, err)

	_, err = f.reservations.Cancel(ctx, created.ID, "second cancellation", "recepcion")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestTransitionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.reservations.Create(ctx, stay(f, "21", 1, 3), 1)
	require.NoError(t, err)

	checkedIn, err := f.reservations.Transition(ctx, created.ID, models.StatusCheckedIn)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedIn, checkedIn.Status)

	checkedOut, err := f.reservations.Transition(ctx, created.ID, models.StatusCheckedOut)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedOut, checkedOut.Status)

	// Terminal state accepts nothing further
	_, err = f.reservations.Transition(ctx, created.ID, models.StatusCheckedIn)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestTransitionSkipsStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.reservations.Create(ctx, stay(f, "21", 1, 3), 1)
	require.NoError(t, err)

	// pending cannot jump straight to checked_out
	_, err = f.reservations.Transition(ctx, created.ID, models.StatusCheckedOut)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	// cancellation must go through Cancel
	_, err = f.reservations.Transition(ctx, created.ID, models.StatusCancelled)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestAmendMovesStay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.reservations.Create(ctx, stay(f, "21", 1, 3), 1)
	require.NoError(t, err)

	moved := stay(f, "22", 10, 15)
	moved.Price = 95
	amended, err := f.reservations.Amend(ctx, created.ID, moved)
	require.NoError(t, err)
	assert.Equal(t, "22", amended.RoomID)
	assert.True(t, amended.CheckIn.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 95.0, amended.Price)
	assert.Equal(t, created.ID, amended.ID)
}

func TestAmendKeepsOwnDatesWithoutConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.reservations.Create(ctx, stay(f, "21", 5, 10), 1)
	require.NoError(t, err)

	// Amending only the price over the same dates must not trip the
	// overlap rule against itself.
	same := stay(f, "21", 5, 10)
	same.Price = 120
	amended, err := f.reservations.Amend(ctx, created.ID, same)
	require.NoError(t, err)
	assert.Equal(t, 120.0, amended.Price)
}

func TestAmendRejectsConflictAndTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.reservations.Create(ctx, stay(f, "21", 1, 5), 1)
	require.NoError(t, err)
	second, err := f.reservations.Create(ctx, stay(f, "21", 10, 15), 1)
	require.NoError(t, err)

	// Moving the second onto the first must fail
	_, err = f.reservations.Amend(ctx, second.ID, stay(f, "21", 2, 4))
	require.Error(t, err)
	assert.True(t, models.IsValidation(err) || errors.Is(err, models.ErrConflict))

	// Terminal reservations cannot be amended
	_, err = f.reservations.Cancel(ctx, first.ID, "plans changed", "recepcion")
	require.NoError(t, err)
	_, err = f.reservations.Amend(ctx, first.ID, stay(f, "21", 20, 25))
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestConcurrentCreatesExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const writers = 5
	var wg sync.WaitGroup
	results := make([]error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, results[n] = f.reservations.Create(ctx, stay(f, "24", 5, 10), 1)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		// Losers see a clean conflict or, under extreme contention, a
		// busy verdict after the retry budget. Never a partial write.
		assert.True(t, errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrBusy),
			"unexpected error: %v", err)
	}
	assert.Equal(t, 1, successes)

	committed, err := f.reservations.List(models.ReservationFilter{RoomID: "24"})
	require.NoError(t, err)
	assert.Len(t, committed, 1)
}

func TestWeeklyView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reservations.Create(ctx, stay(f, "21", 3, 6), 1)
	require.NoError(t, err)

	view, err := f.reservations.WeeklyView(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	room := view["21"]
	require.NotNil(t, room)
	assert.Equal(t, "Laura Iglesias", room["2025-03-03"])
	assert.Equal(t, "Laura Iglesias", room["2025-03-05"])
	// Checkout day is free
	assert.Empty(t, room["2025-03-06"])
	assert.Empty(t, room["2025-03-02"])
}

func TestDailyStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.reservations.Create(ctx, stay(f, "23", 3, 6), 1)
	require.NoError(t, err)

	board, err := f.reservations.DailyStatus(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, board, 14)

	byRoom := make(map[string]models.RoomStatus, len(board))
	for _, status := range board {
		byRoom[status.RoomID] = status
	}

	assert.True(t, byRoom["23"].Occupied)
	assert.Equal(t, "Laura Iglesias", byRoom["23"].GuestName)
	assert.Equal(t, created.ID, byRoom["23"].ReservationID)
	assert.False(t, byRoom["21"].Occupied)

	// On the checkout day the room is free again
	board, err = f.reservations.DailyStatus(time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	for _, status := range board {
		if status.RoomID == "23" {
			assert.False(t, status.Occupied)
		}
	}
}
