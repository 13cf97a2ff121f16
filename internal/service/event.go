package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/felicity-portal/felicity-api/internal/domain"
	"github.com/felicity-portal/felicity-api/internal/repository"
)

var (
	ErrEventNotFound     = repository.ErrEventNotFound
	ErrNotEventOwner     = errors.New("event belongs to another organiser")
	ErrEventNotDraft     = errors.New("only draft events can be deleted")
	ErrInvalidTransition = domain.ErrInvalidTransition
	ErrEventEditBlocked  = domain.ErrEventEditBlocked
)

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	FindVisible(ctx context.Context) ([]domain.Event, error)
	FindByOrganiserID(ctx context.Context, organiserID uint) ([]domain.Event, error)
	Update(ctx context.Context, event domain.Event) (domain.Event, error)
	Delete(ctx context.Context, id uint) error
}

// PublishNotifier delivers the publish announcement to the organiser's
// Discord webhook. Best-effort; the event transition never waits on it.
type PublishNotifier interface {
	NotifyPublish(ctx context.Context, webhookURL string, event domain.Event) error
}

type EventService struct {
	repo     EventRepository
	userRepo UserRepository
	notifier PublishNotifier
}

func NewEventService(repo EventRepository, userRepo UserRepository, notifier PublishNotifier) *EventService {
	return &EventService{
		repo:     repo,
		userRepo: userRepo,
		notifier: notifier,
	}
}

func (s *EventService) CreateEvent(ctx context.Context, event domain.Event, organiserID uint) (domain.Event, error) {
	event.OrganiserID = organiserID
	event.Status = domain.EventStatusDraft

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return event, nil
}

func (s *EventService) ListVisibleEvents(ctx context.Context) ([]domain.Event, error) {
	events, err := s.repo.FindVisible(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindVisible -> %w", err)
	}

	return events, nil
}

func (s *EventService) ListOrganiserEvents(ctx context.Context, organiserID uint) ([]domain.Event, error) {
	events, err := s.repo.FindByOrganiserID(ctx, organiserID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByOrganiserID -> %w", err)
	}

	return events, nil
}

// UpdateEvent applies a partial edit subject to the lifecycle rules: fields
// that the current status locks are dropped silently while Published, and any
// edit attempt once the event is Ongoing, Completed or Closed fails outright.
func (s *EventService) UpdateEvent(ctx context.Context, eventID, organiserID uint, upd domain.EventUpdate) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if event.OrganiserID != organiserID {
		return domain.Event{}, ErrNotEventOwner
	}

	if err = event.ApplyUpdate(upd); err != nil {
		return domain.Event{}, err
	}

	updated, err := s.repo.Update(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

// TransitionEvent moves the event along its lifecycle. Publishing fires the
// Discord announcement in the background; a webhook failure is logged and
// swallowed, never blocking the transition.
func (s *EventService) TransitionEvent(ctx context.Context, eventID, organiserID uint, next domain.EventStatus) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if event.OrganiserID != organiserID {
		return domain.Event{}, ErrNotEventOwner
	}

	if err = event.Transition(next); err != nil {
		return domain.Event{}, err
	}

	updated, err := s.repo.Update(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	if next == domain.EventStatusPublished {
		s.announcePublish(updated)
	}

	return updated, nil
}

func (s *EventService) announcePublish(event domain.Event) {
	organiser, err := s.userRepo.FindOrganiserByID(context.Background(), event.OrganiserID)
	if err != nil {
		zap.L().Warn("publish notification skipped",
			zap.Uint("event_id", event.ID), zap.Error(err))
		return
	}
	if organiser.DiscordWebhookURL == "" {
		return
	}

	go func() {
		if err := s.notifier.NotifyPublish(context.Background(), organiser.DiscordWebhookURL, event); err != nil {
			zap.L().Warn("publish notification failed",
				zap.Uint("event_id", event.ID), zap.Error(err))
		}
	}()
}

func (s *EventService) DeleteEvent(ctx context.Context, eventID, organiserID uint) error {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if event.OrganiserID != organiserID {
		return ErrNotEventOwner
	}
	if event.Status != domain.EventStatusDraft {
		return ErrEventNotDraft
	}

	if err = s.repo.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}
