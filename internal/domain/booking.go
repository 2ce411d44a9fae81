package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

type Booking struct {
	ID        string
	UserID    string
	EventID   string
	Status    BookingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookingWithEvent is a ledger entry joined with its event, as returned by
// the user's booking list.
type BookingWithEvent struct {
	Booking
	EventTitle string
	EventDate  time.Time
	EventVenue string
	PriceCents int64
}
