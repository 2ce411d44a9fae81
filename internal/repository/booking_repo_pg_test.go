package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dkochetov/ticketbooking/internal/domain"
	"github.com/dkochetov/ticketbooking/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingRepository_CreateConfirmed(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := NewBookingRepository(pool, 10*time.Second)

	t.Run("books a ticket and decrements the pool", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		userID := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")
		eventID := testutil.InsertEvent(t, ctx, pool, "Concert", 5, 5)

		booking, event, err := repo.CreateConfirmed(ctx, userID, eventID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
		assert.Equal(t, userID, booking.UserID)
		assert.Equal(t, eventID, booking.EventID)
		assert.Equal(t, 4, event.RemainingTickets)
		assert.Equal(t, "Concert", event.Title)

		assert.Equal(t, 4, testutil.RemainingTickets(t, ctx, pool, eventID))
	})

	t.Run("unknown event", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		userID := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")

		_, _, err := repo.CreateConfirmed(ctx, userID, "00000000-0000-0000-0000-000000000001")
		assert.ErrorIs(t, err, domain.ErrEventNotFound)

		_, _, err = repo.CreateConfirmed(ctx, userID, "not-a-uuid")
		assert.ErrorIs(t, err, domain.ErrEventNotFound)
	})

	t.Run("sold out event", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		userID := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")
		eventID := testutil.InsertEvent(t, ctx, pool, "Concert", 5, 0)

		_, _, err := repo.CreateConfirmed(ctx, userID, eventID)
		assert.ErrorIs(t, err, domain.ErrNoTicketsAvailable)

		assert.Equal(t, 0, testutil.RemainingTickets(t, ctx, pool, eventID))
		assert.Equal(t, 0, testutil.CountBookings(t, ctx, pool, eventID, "CONFIRMED"))
	})

	t.Run("duplicate booking by the same user", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		userID := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")
		eventID := testutil.InsertEvent(t, ctx, pool, "Concert", 5, 5)

		_, _, err := repo.CreateConfirmed(ctx, userID, eventID)
		require.NoError(t, err)

		_, _, err = repo.CreateConfirmed(ctx, userID, eventID)
		assert.ErrorIs(t, err, domain.ErrAlreadyBooked)

		// The failed attempt must not touch the pool.
		assert.Equal(t, 4, testutil.RemainingTickets(t, ctx, pool, eventID))
		assert.Equal(t, 1, testutil.CountBookings(t, ctx, pool, eventID, "CONFIRMED"))
	})

	t.Run("cancelled booking does not block rebooking", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		userID := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")
		eventID := testutil.InsertEvent(t, ctx, pool, "Concert", 5, 5)

		booking, _, err := repo.CreateConfirmed(ctx, userID, eventID)
		require.NoError(t, err)
		_, err = repo.Cancel(ctx, userID, booking.ID)
		require.NoError(t, err)

		_, event, err := repo.CreateConfirmed(ctx, userID, eventID)
		require.NoError(t, err)
		assert.Equal(t, 4, event.RemainingTickets)
	})
}

// Ten users race for two tickets: exactly two bookings must be confirmed,
// the other eight rejected, and the pool must land on zero.
func TestBookingRepository_NoOversellUnderContention(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)
	repo := NewBookingRepository(pool, 10*time.Second)

	const attempts = 10
	const tickets = 2

	eventID := testutil.InsertEvent(t, ctx, pool, "Final", tickets, tickets)
	userIDs := make([]string, attempts)
	for i := range userIDs {
		userIDs[i] = testutil.InsertUser(t, ctx, pool,
			fmt.Sprintf("User %d", i), fmt.Sprintf("user%d@example.com", i))
	}

	errs := make([]error, attempts)
	var wg sync.WaitGroup
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			_, _, errs[i] = repo.CreateConfirmed(ctx, userIDs[i], eventID)
		}(i)
	}
	start.Done()
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, domain.ErrNoTicketsAvailable):
			rejected++
		}
	}

	assert.Equal(t, tickets, succeeded)
	assert.Equal(t, attempts-tickets, rejected)
	assert.Equal(t, 0, testutil.RemainingTickets(t, ctx, pool, eventID))
	assert.Equal(t, tickets, testutil.CountBookings(t, ctx, pool, eventID, "CONFIRMED"))
}

// The same user fires two simultaneous requests: exactly one booking must
// be confirmed and the pool decremented exactly once.
func TestBookingRepository_NoDuplicateUnderContention(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)
	repo := NewBookingRepository(pool, 10*time.Second)

	userID := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")
	eventID := testutil.InsertEvent(t, ctx, pool, "Concert", 5, 5)

	const attempts = 2
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = repo.CreateConfirmed(ctx, userID, eventID)
		}(i)
	}
	wg.Wait()

	var succeeded, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, domain.ErrAlreadyBooked):
			duplicates++
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, duplicates)
	assert.Equal(t, 4, testutil.RemainingTickets(t, ctx, pool, eventID))
	assert.Equal(t, 1, testutil.CountBookings(t, ctx, pool, eventID, "CONFIRMED"))
}

// A booking attempt queued behind a held event row lock must give up after
// the configured lock_timeout and report it as a sold-out conflict, leaving
// the event untouched.
func TestBookingRepository_BoundedLockWait(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	repo := NewBookingRepository(pool, 200*time.Millisecond)

	t.Run("create gives up on a held event row", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		userID := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")
		eventID := testutil.InsertEvent(t, ctx, pool, "Concert", 5, 5)

		blocker, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer blocker.Rollback(ctx)
		_, err = blocker.Exec(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID)
		require.NoError(t, err)

		_, _, err = repo.CreateConfirmed(ctx, userID, eventID)
		assert.ErrorIs(t, err, domain.ErrNoTicketsAvailable)

		require.NoError(t, blocker.Rollback(ctx))
		assert.Equal(t, 5, testutil.RemainingTickets(t, ctx, pool, eventID))
		assert.Equal(t, 0, testutil.CountBookings(t, ctx, pool, eventID, "CONFIRMED"))
	})

	t.Run("cancel gives up on a held event row", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		userID := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")
		eventID := testutil.InsertEvent(t, ctx, pool, "Concert", 5, 5)

		booking, _, err := repo.CreateConfirmed(ctx, userID, eventID)
		require.NoError(t, err)

		blocker, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer blocker.Rollback(ctx)
		_, err = blocker.Exec(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID)
		require.NoError(t, err)

		_, err = repo.Cancel(ctx, userID, booking.ID)
		assert.Error(t, err)

		require.NoError(t, blocker.Rollback(ctx))
		assert.Equal(t, 4, testutil.RemainingTickets(t, ctx, pool, eventID))
		assert.Equal(t, 1, testutil.CountBookings(t, ctx, pool, eventID, "CONFIRMED"))
	})
}

// The partial unique index backs up the in-transaction duplicate check for
// any write that bypasses CreateConfirmed.
func TestBookingRepository_ConfirmedUniqueIndex(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	userID := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")
	eventID := testutil.InsertEvent(t, ctx, pool, "Concert", 5, 5)

	insert := func(status string) error {
		_, err := pool.Exec(ctx,
			`INSERT INTO bookings (id, user_id, event_id, status) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), userID, eventID, status)
		return err
	}

	require.NoError(t, insert("CONFIRMED"))

	err := insert("CONFIRMED")
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	// Cancelled rows are outside the index.
	assert.NoError(t, insert("CANCELLED"))
}

func TestBookingRepository_Cancel(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := NewBookingRepository(pool, 10*time.Second)

	t.Run("returns the ticket to the pool", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		userID := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")
		eventID := testutil.InsertEvent(t, ctx, pool, "Concert", 5, 5)

		booking, _, err := repo.CreateConfirmed(ctx, userID, eventID)
		require.NoError(t, err)
		require.Equal(t, 4, testutil.RemainingTickets(t, ctx, pool, eventID))

		cancelled, err := repo.Cancel(ctx, userID, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)
		assert.Equal(t, 5, testutil.RemainingTickets(t, ctx, pool, eventID))

		// Ledger history is retained.
		assert.Equal(t, 1, testutil.CountBookings(t, ctx, pool, eventID, "CANCELLED"))
	})

	t.Run("unknown booking", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		userID := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")

		_, err := repo.Cancel(ctx, userID, "00000000-0000-0000-0000-000000000001")
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})

	t.Run("another user's booking", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		alice := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")
		bob := testutil.InsertUser(t, ctx, pool, "Bob", "bob@example.com")
		eventID := testutil.InsertEvent(t, ctx, pool, "Concert", 5, 5)

		booking, _, err := repo.CreateConfirmed(ctx, alice, eventID)
		require.NoError(t, err)

		_, err = repo.Cancel(ctx, bob, booking.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Equal(t, 4, testutil.RemainingTickets(t, ctx, pool, eventID))
	})

	t.Run("cancelling twice", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		userID := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")
		eventID := testutil.InsertEvent(t, ctx, pool, "Concert", 5, 5)

		booking, _, err := repo.CreateConfirmed(ctx, userID, eventID)
		require.NoError(t, err)
		_, err = repo.Cancel(ctx, userID, booking.ID)
		require.NoError(t, err)

		_, err = repo.Cancel(ctx, userID, booking.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
		assert.Equal(t, 5, testutil.RemainingTickets(t, ctx, pool, eventID))
	})
}

func TestBookingRepository_ListByUser(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)
	repo := NewBookingRepository(pool, 10*time.Second)

	userID := testutil.InsertUser(t, ctx, pool, "Alice", "alice@example.com")
	first := testutil.InsertEvent(t, ctx, pool, "First", 5, 5)
	second := testutil.InsertEvent(t, ctx, pool, "Second", 5, 5)

	b1, _, err := repo.CreateConfirmed(ctx, userID, first)
	require.NoError(t, err)
	b2, _, err := repo.CreateConfirmed(ctx, userID, second)
	require.NoError(t, err)

	// Cancelled bookings are excluded from the listing.
	_, err = repo.Cancel(ctx, userID, b1.ID)
	require.NoError(t, err)

	bookings, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, b2.ID, bookings[0].ID)
	assert.Equal(t, "Second", bookings[0].EventTitle)
	assert.Equal(t, int64(2500), bookings[0].PriceCents)
}
