package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkochetov/ticketbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	CreateConfirmed(ctx context.Context, userID, eventID string) (*domain.Booking, *domain.EventSummary, error)
	Cancel(ctx context.Context, userID, bookingID string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.BookingWithEvent, error)
}

type PGBookingRepository struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

func NewBookingRepository(db *pgxpool.Pool, lockTimeout time.Duration) BookingRepository {
	if lockTimeout <= 0 {
		lockTimeout = 10 * time.Second
	}
	return &PGBookingRepository{db: db, lockTimeout: lockTimeout}
}

// CreateConfirmed books one ticket for userID on eventID. The whole
// read-check-decrement-insert sequence runs inside a single transaction
// holding an exclusive lock on the event row, so concurrent attempts for the
// same event queue up behind each other instead of racing. remaining_tickets
// is never written outside this method and Cancel.
func (r *PGBookingRepository) CreateConfirmed(ctx context.Context, userID, eventID string) (*domain.Booking, *domain.EventSummary, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.setLockTimeout(ctx, tx); err != nil {
		return nil, nil, err
	}

	var ev domain.EventSummary
	err = tx.QueryRow(ctx,
		`SELECT id, title, remaining_tickets FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&ev.ID, &ev.Title, &ev.RemainingTickets)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, nil, domain.ErrEventNotFound
		}
		if isLockConflict(err) {
			return nil, nil, domain.ErrNoTicketsAvailable
		}
		return nil, nil, fmt.Errorf("lock event row: %w", err)
	}

	if ev.RemainingTickets <= 0 {
		return nil, nil, domain.ErrNoTicketsAvailable
	}

	// Must run while the event row is locked: two requests from the same
	// user would otherwise both pass this check before either inserts.
	var alreadyBooked bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE user_id = $1 AND event_id = $2 AND status = $3)`,
		userID, eventID, domain.BookingStatusConfirmed,
	).Scan(&alreadyBooked)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, nil, domain.ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("check existing booking: %w", err)
	}
	if alreadyBooked {
		return nil, nil, domain.ErrAlreadyBooked
	}

	booking := &domain.Booking{
		ID:      uuid.NewString(),
		UserID:  userID,
		EventID: eventID,
		Status:  domain.BookingStatusConfirmed,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO bookings (id, user_id, event_id, status) VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		booking.ID, booking.UserID, booking.EventID, booking.Status,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, domain.ErrAlreadyBooked
		}
		return nil, nil, fmt.Errorf("insert booking: %w", err)
	}

	err = tx.QueryRow(ctx,
		`UPDATE events SET remaining_tickets = remaining_tickets - 1, updated_at = now()
		 WHERE id = $1 RETURNING remaining_tickets`,
		eventID,
	).Scan(&ev.RemainingTickets)
	if err != nil {
		return nil, nil, fmt.Errorf("decrement remaining tickets: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isLockConflict(err) {
			return nil, nil, domain.ErrNoTicketsAvailable
		}
		return nil, nil, fmt.Errorf("commit booking: %w", err)
	}
	return booking, &ev, nil
}

// Cancel flips a CONFIRMED booking to CANCELLED and returns the ticket to
// the event's pool. Both writes share one transaction: a crash between them
// would otherwise leave the inventory count out of sync with the ledger.
func (r *PGBookingRepository) Cancel(ctx context.Context, userID, bookingID string) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.setLockTimeout(ctx, tx); err != nil {
		return nil, err
	}

	var b domain.Booking
	err = tx.QueryRow(ctx,
		`SELECT id, user_id, event_id, status, created_at, updated_at
		 FROM bookings WHERE id = $1 FOR UPDATE`,
		bookingID,
	).Scan(&b.ID, &b.UserID, &b.EventID, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	if b.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if b.Status == domain.BookingStatusCancelled {
		return nil, domain.ErrAlreadyCancelled
	}

	err = tx.QueryRow(ctx,
		`UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2 RETURNING updated_at`,
		domain.BookingStatusCancelled, bookingID,
	).Scan(&b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	b.Status = domain.BookingStatusCancelled

	if _, err := tx.Exec(ctx,
		`UPDATE events SET remaining_tickets = remaining_tickets + 1, updated_at = now() WHERE id = $1`,
		b.EventID,
	); err != nil {
		return nil, fmt.Errorf("increment remaining tickets: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancellation: %w", err)
	}
	return &b, nil
}

// setLockTimeout bounds every row-lock wait in the transaction. Exceeding it
// aborts with SQLSTATE 55P03 instead of blocking the request forever.
func (r *PGBookingRepository) setLockTimeout(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.BookingWithEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT b.id, b.user_id, b.event_id, b.status, b.created_at, b.updated_at,
		        e.title, e.date, e.venue, e.price_cents
		 FROM bookings b
		 JOIN events e ON e.id = b.event_id
		 WHERE b.user_id = $1 AND b.status = $2
		 ORDER BY b.created_at DESC`,
		userID, domain.BookingStatusConfirmed,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.BookingWithEvent, 0)
	for rows.Next() {
		var b domain.BookingWithEvent
		if err := rows.Scan(&b.ID, &b.UserID, &b.EventID, &b.Status, &b.CreatedAt, &b.UpdatedAt,
			&b.EventTitle, &b.EventDate, &b.EventVenue, &b.PriceCents); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
