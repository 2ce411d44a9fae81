package events

import (
	"context"

	"github.com/dkochetov/ticketbooking/internal/domain"
	"github.com/dkochetov/ticketbooking/internal/repository"
)

type EventUseCase interface {
	List(ctx context.Context, filter repository.EventFilter) ([]domain.Event, int, error)
	GetByID(ctx context.Context, id string) (*domain.Event, error)
}

type Cache interface {
	GetEvents(ctx context.Context) ([]domain.Event, error)
	SetEvents(ctx context.Context, events []domain.Event) error
}

type EventService struct {
	repo  repository.EventRepository
	cache Cache
}

func NewEventService(repo repository.EventRepository, cache Cache) *EventService {
	return &EventService{repo: repo, cache: cache}
}

func (s *EventService) List(ctx context.Context, filter repository.EventFilter) ([]domain.Event, int, error) {
	// Only the default listing is cached; filtered queries go straight to
	// the database.
	cacheable := s.cache != nil && isDefaultFilter(filter)
	if cacheable {
		if cached, err := s.cache.GetEvents(ctx); err == nil && cached != nil {
			return cached, len(cached), nil
		}
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if cacheable && total == len(events) {
		_ = s.cache.SetEvents(ctx, events)
	}
	return events, total, nil
}

func (s *EventService) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return s.repo.GetByID(ctx, id)
}

func isDefaultFilter(f repository.EventFilter) bool {
	return f.Search == "" && f.Page <= 1 && (f.Limit == 0 || f.Limit == 10) && f.SortBy == "" && f.SortOrder == ""
}

var _ EventUseCase = (*EventService)(nil)
