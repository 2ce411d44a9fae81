package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkochetov/ticketbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxPageSize = 50

// EventFilter narrows and orders the event listing. Zero values fall back
// to page 1, 10 per page, ascending by date.
type EventFilter struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string // date, price, title
	SortOrder string // asc, desc
}

type EventRepository interface {
	List(ctx context.Context, filter EventFilter) ([]domain.Event, int, error)
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	Create(ctx context.Context, event *domain.Event) error
}

type PGEventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) EventRepository {
	return &PGEventRepository{db: db}
}

const eventColumns = `id, title, description, date, venue, price_cents, total_tickets, remaining_tickets, created_at, updated_at`

func (r *PGEventRepository) List(ctx context.Context, filter EventFilter) ([]domain.Event, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	where := ""
	args := []any{}
	if filter.Search != "" {
		where = "WHERE title ILIKE $1"
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM events " + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM events %s ORDER BY %s LIMIT $%d OFFSET $%d",
		eventColumns, where, orderClause(filter.SortBy, filter.SortOrder), len(args)+1, len(args)+2,
	)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.Event, 0, limit)
	for rows.Next() {
		var e domain.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

// orderClause whitelists sortable columns; anything else falls back to the
// default ordering so user input never reaches the SQL text.
func orderClause(sortBy, sortOrder string) string {
	column := "date"
	switch sortBy {
	case "price":
		column = "price_cents"
	case "title":
		column = "title"
	}
	if strings.EqualFold(sortOrder, "desc") {
		return column + " DESC"
	}
	return column + " ASC"
}

func (r *PGEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	row := r.db.QueryRow(ctx, "SELECT "+eventColumns+" FROM events WHERE id = $1", id)
	var e domain.Event
	if err := scanEvent(row, &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// Create seeds an event with a full ticket pool. Administrative path, not
// exposed over the public API.
func (r *PGEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.RemainingTickets = event.TotalTickets
	err := r.db.QueryRow(ctx,
		`INSERT INTO events (id, title, description, date, venue, price_cents, total_tickets, remaining_tickets)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 RETURNING created_at, updated_at`,
		event.ID, event.Title, event.Description, event.Date, event.Venue, event.PriceCents, event.TotalTickets,
	).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func scanEvent(row pgx.Row, e *domain.Event) error {
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Venue,
		&e.PriceCents, &e.TotalTickets, &e.RemainingTickets, &e.CreatedAt, &e.UpdatedAt)
}

var _ EventRepository = (*PGEventRepository)(nil)
