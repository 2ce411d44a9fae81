package domain

import "time"

type Event struct {
	ID               string
	Title            string
	Description      string
	Date             time.Time
	Venue            string
	PriceCents       int64
	TotalTickets     int
	RemainingTickets int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EventSummary is the slice of an event returned alongside a fresh booking.
type EventSummary struct {
	ID               string
	Title            string
	RemainingTickets int
}
