package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felicity-portal/felicity-api/internal/domain"
	"github.com/felicity-portal/felicity-api/internal/repository/dao"
)

var ErrEventNotFound = dao.ErrEventNotFound

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	FindByStatus(ctx context.Context, statuses []string) ([]dao.Event, error)
	FindByOrganiserID(ctx context.Context, organiserID uint) ([]dao.Event, error)
	Update(ctx context.Context, event dao.Event) (dao.Event, error)
	Delete(ctx context.Context, id uint) error
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

// FindVisible lists the events a participant can browse.
func (r *EventRepository) FindVisible(ctx context.Context) ([]domain.Event, error) {
	found, err := r.dao.FindByStatus(ctx, []string{
		string(domain.EventStatusPublished),
		string(domain.EventStatusOngoing),
		string(domain.EventStatusCompleted),
	})
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByStatus -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *EventRepository) FindByOrganiserID(ctx context.Context, organiserID uint) ([]domain.Event, error) {
	found, err := r.dao.FindByOrganiserID(ctx, organiserID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByOrganiserID -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *EventRepository) Update(ctx context.Context, event domain.Event) (domain.Event, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *EventRepository) domainToDao(e domain.Event) dao.Event {
	return dao.Event{
		ID:                   e.ID,
		OrganiserID:          e.OrganiserID,
		Name:                 e.Name,
		Description:          e.Description,
		Type:                 string(e.Type),
		Category:             e.Category,
		Eligibility:          e.Eligibility,
		StartTime:            e.StartTime,
		EndTime:              e.EndTime,
		RegistrationDeadline: e.RegistrationDeadline,
		RegistrationLimit:    e.RegistrationLimit,
		RegistrationCount:    e.RegistrationCount,
		StockQuantity:        e.StockQuantity,
		PurchaseLimit:        e.PurchaseLimit,
		Fee:                  e.Fee,
		Venue:                e.Venue,
		Tags:                 encodeJSON(e.Tags),
		FormFields:           encodeJSON(e.FormFields),
		Status:               string(e.Status),
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

func (r *EventRepository) daoToDomain(e dao.Event) domain.Event {
	status, ok := domain.ParseEventStatus(e.Status)
	if !ok {
		status = domain.EventStatusDraft
	}

	return domain.Event{
		ID:                   e.ID,
		OrganiserID:          e.OrganiserID,
		Name:                 e.Name,
		Description:          e.Description,
		Type:                 domain.EventType(e.Type),
		Category:             e.Category,
		Eligibility:          e.Eligibility,
		StartTime:            e.StartTime,
		EndTime:              e.EndTime,
		RegistrationDeadline: e.RegistrationDeadline,
		RegistrationLimit:    e.RegistrationLimit,
		RegistrationCount:    e.RegistrationCount,
		StockQuantity:        e.StockQuantity,
		PurchaseLimit:        e.PurchaseLimit,
		Fee:                  e.Fee,
		Venue:                e.Venue,
		Tags:                 decodeStrings(e.Tags),
		FormFields:           decodeFormFields(e.FormFields),
		Status:               status,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

func (r *EventRepository) daosToDomain(events []dao.Event) []domain.Event {
	out := make([]domain.Event, len(events))
	for i, e := range events {
		out[i] = r.daoToDomain(e)
	}

	return out
}

func decodeFormFields(s string) []domain.FormField {
	if s == "" {
		return nil
	}

	var out []domain.FormField
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}

	return out
}
