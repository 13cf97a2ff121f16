package request

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/felicity-portal/felicity-api/internal/domain"
)

type FormField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type CreateEventRequest struct {
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	Type                 string      `json:"type"`
	Category             string      `json:"category"`
	Eligibility          string      `json:"eligibility"`
	StartTime            time.Time   `json:"start_time"`
	EndTime              time.Time   `json:"end_time"`
	RegistrationDeadline time.Time   `json:"registration_deadline"`
	RegistrationLimit    int         `json:"registration_limit"`
	StockQuantity        int         `json:"stock_quantity"`
	PurchaseLimit        int         `json:"purchase_limit"`
	Fee                  int         `json:"fee"`
	Venue                string      `json:"venue"`
	Tags                 []string    `json:"tags"`
	FormFields           []FormField `json:"form_fields"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Type, validation.Required,
			validation.In(string(domain.EventTypeNormal), string(domain.EventTypeMerchandise))),
		validation.Field(&req.Description, validation.Length(0, 5000)),
		validation.Field(&req.RegistrationLimit, validation.Min(0)),
		validation.Field(&req.StockQuantity, validation.Min(0)),
		validation.Field(&req.PurchaseLimit, validation.Min(0)),
		validation.Field(&req.Fee, validation.Min(0)),
	)
}

func (req *CreateEventRequest) ToDomain() domain.Event {
	return domain.Event{
		Name:                 req.Name,
		Description:          req.Description,
		Type:                 domain.EventType(req.Type),
		Category:             req.Category,
		Eligibility:          req.Eligibility,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		RegistrationDeadline: req.RegistrationDeadline,
		RegistrationLimit:    req.RegistrationLimit,
		StockQuantity:        req.StockQuantity,
		PurchaseLimit:        req.PurchaseLimit,
		Fee:                  req.Fee,
		Venue:                req.Venue,
		Tags:                 req.Tags,
		FormFields:           toDomainFormFields(req.FormFields),
	}
}

// UpdateEventRequest is a partial edit; absent fields stay untouched. Which
// of the present fields actually apply depends on the event's status.
type UpdateEventRequest struct {
	Name                 *string     `json:"name"`
	Description          *string     `json:"description"`
	Category             *string     `json:"category"`
	Eligibility          *string     `json:"eligibility"`
	StartTime            *time.Time  `json:"start_time"`
	EndTime              *time.Time  `json:"end_time"`
	RegistrationDeadline *time.Time  `json:"registration_deadline"`
	RegistrationLimit    *int        `json:"registration_limit"`
	StockQuantity        *int        `json:"stock_quantity"`
	PurchaseLimit        *int        `json:"purchase_limit"`
	Fee                  *int        `json:"fee"`
	Venue                *string     `json:"venue"`
	Tags                 []string    `json:"tags"`
	FormFields           []FormField `json:"form_fields"`
}

func (req *UpdateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.RegistrationLimit, validation.Min(0)),
		validation.Field(&req.StockQuantity, validation.Min(0)),
		validation.Field(&req.PurchaseLimit, validation.Min(0)),
		validation.Field(&req.Fee, validation.Min(0)),
	)
}

func (req *UpdateEventRequest) ToDomain() domain.EventUpdate {
	upd := domain.EventUpdate{
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		Eligibility:          req.Eligibility,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		RegistrationDeadline: req.RegistrationDeadline,
		RegistrationLimit:    req.RegistrationLimit,
		StockQuantity:        req.StockQuantity,
		PurchaseLimit:        req.PurchaseLimit,
		Fee:                  req.Fee,
		Venue:                req.Venue,
		Tags:                 req.Tags,
	}

	if req.FormFields != nil {
		upd.FormFields = toDomainFormFields(req.FormFields)
	}

	return upd
}

type UpdateEventStatusRequest struct {
	Status string `json:"status"`
}

func (req *UpdateEventStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required,
			validation.In(
				string(domain.EventStatusPublished),
				string(domain.EventStatusOngoing),
				string(domain.EventStatusCompleted),
				string(domain.EventStatusClosed),
			)),
	)
}

func (req *UpdateEventStatusRequest) ToDomain() (domain.EventStatus, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	status, ok := domain.ParseEventStatus(req.Status)
	if !ok {
		return "", errors.New("unknown event status")
	}

	return status, nil
}

func toDomainFormFields(fields []FormField) []domain.FormField {
	out := make([]domain.FormField, len(fields))
	for i, f := range fields {
		out[i] = domain.FormField{
			Name:     f.Name,
			Type:     f.Type,
			Required: f.Required,
			Options:  f.Options,
		}
	}

	return out
}
