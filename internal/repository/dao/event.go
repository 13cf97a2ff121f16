package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrEventNotFound = errors.New("event not found")

type Event struct {
	ID uint `gorm:"primaryKey"`

	OrganiserID uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string
	Type        string `gorm:"not null"` // "normal" or "merchandise"
	Category    string
	Eligibility string

	StartTime            time.Time
	EndTime              time.Time
	RegistrationDeadline time.Time

	RegistrationLimit int `gorm:"not null;default:0"`
	RegistrationCount int `gorm:"not null;default:0"`
	StockQuantity     int `gorm:"not null;default:0"`
	PurchaseLimit     int `gorm:"not null;default:0"`

	Fee   int `gorm:"not null;default:0"`
	Venue string

	// JSON-encoded.
	Tags       string `gorm:"not null;default:''"`
	FormFields string `gorm:"not null;default:''"`

	Status string `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByStatus(ctx context.Context, statuses []string) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("start_time ASC").
		Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) FindByOrganiserID(ctx context.Context, organiserID uint) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).
		Where("organiser_id = ?", organiserID).
		Order("created_at DESC").
		Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) Update(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Save(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

// Delete removes an event and all its registrations.
func (d *EventDAO) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&Registration{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&Event{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEventNotFound
		}

		return nil
	})
}
