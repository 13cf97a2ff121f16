package domain

import (
	"errors"
	"time"
)

type EventType string

const (
	EventTypeNormal      EventType = "normal"
	EventTypeMerchandise EventType = "merchandise"
)

// EventStatus is the lifecycle status of an event. Transitions only move
// forward: Draft -> Published -> Ongoing -> Completed, with Closed reachable
// from Published, Ongoing and Completed. Closed is terminal.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusClosed    EventStatus = "closed"
)

var (
	ErrInvalidTransition = errors.New("invalid event status transition")
	ErrEventEditBlocked  = errors.New("event can no longer be edited")
)

var statusTransitions = map[EventStatus][]EventStatus{
	EventStatusDraft:     {EventStatusPublished},
	EventStatusPublished: {EventStatusOngoing, EventStatusClosed},
	EventStatusOngoing:   {EventStatusCompleted, EventStatusClosed},
	EventStatusCompleted: {EventStatusClosed},
	EventStatusClosed:    {},
}

func ParseEventStatus(s string) (EventStatus, bool) {
	switch EventStatus(s) {
	case EventStatusDraft, EventStatusPublished, EventStatusOngoing,
		EventStatusCompleted, EventStatusClosed:
		return EventStatus(s), true
	}

	return "", false
}

func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// FormField is an organiser-defined question on the registration form.
type FormField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"` // "text", "number", "select", "checkbox"
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type Event struct {
	ID          uint      `json:"id"`
	OrganiserID uint      `json:"organiser_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        EventType `json:"type"`
	Category    string    `json:"category"`
	Eligibility string    `json:"eligibility"`

	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	RegistrationDeadline time.Time `json:"registration_deadline"`

	// RegistrationLimit caps normal-event registrations; zero means unlimited.
	// RegistrationCount is maintained by the store with conditional updates so
	// the cap holds under concurrent registration attempts.
	RegistrationLimit int `json:"registration_limit"`
	RegistrationCount int `json:"registration_count"`

	// Merchandise-only.
	StockQuantity int `json:"stock_quantity"`
	PurchaseLimit int `json:"purchase_limit"`

	Fee        int         `json:"fee"`
	Venue      string      `json:"venue"`
	Tags       []string    `json:"tags"`
	FormFields []FormField `json:"form_fields"`
	Status     EventStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventUpdate is a partial edit; nil fields are untouched.
type EventUpdate struct {
	Name                 *string
	Description          *string
	Category             *string
	Eligibility          *string
	StartTime            *time.Time
	EndTime              *time.Time
	RegistrationDeadline *time.Time
	RegistrationLimit    *int
	StockQuantity        *int
	PurchaseLimit        *int
	Fee                  *int
	Venue                *string
	Tags                 []string
	FormFields           []FormField
}

func (u EventUpdate) isZero() bool {
	return u.Name == nil && u.Description == nil && u.Category == nil &&
		u.Eligibility == nil && u.StartTime == nil && u.EndTime == nil &&
		u.RegistrationDeadline == nil && u.RegistrationLimit == nil &&
		u.StockQuantity == nil && u.PurchaseLimit == nil && u.Fee == nil &&
		u.Venue == nil && u.Tags == nil && u.FormFields == nil
}

// ApplyUpdate mutates e with the fields of u that the current status allows.
//
// Draft: every field is editable. Published: only description, stock and
// purchase limits, registration deadline and registration limit; other fields
// are dropped without error. Ongoing, Completed and Closed: any edit attempt
// fails with ErrEventEditBlocked. Status transitions go through Transition,
// never through here.
func (e *Event) ApplyUpdate(u EventUpdate) error {
	switch e.Status {
	case EventStatusDraft:
		e.applyAll(u)
	case EventStatusPublished:
		if u.Description != nil {
			e.Description = *u.Description
		}
		if u.StockQuantity != nil {
			e.StockQuantity = *u.StockQuantity
		}
		if u.PurchaseLimit != nil {
			e.PurchaseLimit = *u.PurchaseLimit
		}
		if u.RegistrationDeadline != nil {
			e.RegistrationDeadline = *u.RegistrationDeadline
		}
		if u.RegistrationLimit != nil {
			e.RegistrationLimit = *u.RegistrationLimit
		}
	default:
		if !u.isZero() {
			return ErrEventEditBlocked
		}
	}

	return nil
}

func (e *Event) applyAll(u EventUpdate) {
	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Category != nil {
		e.Category = *u.Category
	}
	if u.Eligibility != nil {
		e.Eligibility = *u.Eligibility
	}
	if u.StartTime != nil {
		e.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		e.EndTime = *u.EndTime
	}
	if u.RegistrationDeadline != nil {
		e.RegistrationDeadline = *u.RegistrationDeadline
	}
	if u.RegistrationLimit != nil {
		e.RegistrationLimit = *u.RegistrationLimit
	}
	if u.StockQuantity != nil {
		e.StockQuantity = *u.StockQuantity
	}
	if u.PurchaseLimit != nil {
		e.PurchaseLimit = *u.PurchaseLimit
	}
	if u.Fee != nil {
		e.Fee = *u.Fee
	}
	if u.Venue != nil {
		e.Venue = *u.Venue
	}
	if u.Tags != nil {
		e.Tags = u.Tags
	}
	if u.FormFields != nil {
		e.FormFields = u.FormFields
	}
}

// Transition moves the event to next, or fails with ErrInvalidTransition.
func (e *Event) Transition(next EventStatus) error {
	if !e.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	e.Status = next

	return nil
}

// RegistrationsOpen reports whether a participant may register right now.
func (e *Event) RegistrationsOpen(now time.Time) bool {
	if e.Status != EventStatusPublished {
		return false
	}
	if !e.RegistrationDeadline.IsZero() && now.After(e.RegistrationDeadline) {
		return false
	}

	return true
}
