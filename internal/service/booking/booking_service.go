package booking

import (
	"context"
	"errors"
	"log"

	"github.com/dkochetov/ticketbooking/internal/domain"
	"github.com/dkochetov/ticketbooking/internal/kafka"
	"github.com/dkochetov/ticketbooking/internal/metrics"
	"github.com/dkochetov/ticketbooking/internal/repository"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, userID, eventID string) (*domain.Booking, *domain.EventSummary, error)
	CancelBooking(ctx context.Context, userID, bookingID string) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID string) ([]domain.BookingWithEvent, error)
}

type Cache interface {
	InvalidateEvents(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	users              repository.UserRepository
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	users repository.UserRepository,
	cache Cache,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		users:        users,
		cache:        cache,
		producer:     producer,
		bookingTopic: bookingTopic,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking grants one ticket to userID for eventID. Concurrency safety
// lives entirely in the repository transaction; this layer only adds the
// side effects that must not influence the outcome: cache invalidation,
// metrics, notification publishing.
func (s *BookingService) CreateBooking(ctx context.Context, userID, eventID string) (*domain.Booking, *domain.EventSummary, error) {
	booking, event, err := s.bookings.CreateConfirmed(ctx, userID, eventID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoTicketsAvailable):
			metrics.BookingConflicts.WithLabelValues("no_tickets").Inc()
		case errors.Is(err, domain.ErrAlreadyBooked):
			metrics.BookingConflicts.WithLabelValues("already_booked").Inc()
		}
		return nil, nil, err
	}

	metrics.BookingsConfirmed.Inc()
	s.invalidateEvents(ctx)
	s.publish(ctx, kafka.EventTypeBookingConfirmed, booking)
	return booking, event, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID string) (*domain.Booking, error) {
	booking, err := s.bookings.Cancel(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	metrics.BookingsCancelled.Inc()
	s.invalidateEvents(ctx)
	s.publish(ctx, kafka.EventTypeBookingCancelled, booking)
	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, userID string) ([]domain.BookingWithEvent, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *BookingService) invalidateEvents(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateEvents(ctx); err != nil {
		log.Printf("invalidate events cache: %v", err)
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}

	email := ""
	if user, err := s.users.GetByID(ctx, booking.UserID); err == nil {
		email = user.Email
	} else {
		log.Printf("load user %s for notification: %v", booking.UserID, err)
	}

	event := kafka.BookingEvent{
		Type:      eventType,
		BookingID: booking.ID,
		EventID:   booking.EventID,
		UserID:    booking.UserID,
		Email:     email,
		Status:    string(booking.Status),
		CreatedAt: booking.CreatedAt,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
		log.Printf("publish %s for booking %s: %v", eventType, booking.ID, err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event); err != nil {
			log.Printf("publish notification for booking %s: %v", booking.ID, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
