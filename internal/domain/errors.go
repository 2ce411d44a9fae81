package domain

import "errors"

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrUserNotFound    = errors.New("user not found")
)

var (
	// ErrNoTicketsAvailable covers both genuine exhaustion and lock
	// conflicts where availability could not be determined.
	ErrNoTicketsAvailable = errors.New("no tickets available")
	ErrAlreadyBooked      = errors.New("user already has a confirmed booking for this event")
	ErrAlreadyCancelled   = errors.New("booking is already cancelled")
	ErrForbidden          = errors.New("booking belongs to another user")
)

var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
