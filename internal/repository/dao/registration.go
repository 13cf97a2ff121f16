package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrEventFull             = errors.New("event is full")
	ErrOutOfStock            = errors.New("out of stock")
	ErrOrderNotPending       = errors.New("order is not pending")
	ErrTicketIDExists        = errors.New("ticket id already exists")
	ErrTicketAlreadyScanned  = errors.New("ticket already scanned")
)

type Registration struct {
	ID uint `gorm:"primaryKey"`

	// One registration per (event, participant) pair, enforced by the store so
	// concurrent duplicate attempts are rejected at insert time.
	EventID       uint `gorm:"not null;uniqueIndex:idx_registrations_event_participant"`
	ParticipantID uint `gorm:"not null;uniqueIndex:idx_registrations_event_participant"`

	TicketID *string `gorm:"uniqueIndex"`
	Status   string  `gorm:"not null"`

	AttendanceStatus    bool `gorm:"not null;default:false"`
	AttendanceTimestamp *time.Time

	// Newline-separated check-in lines, append-only.
	AuditLog string `gorm:"not null;default:''"`

	// JSON-encoded form answers.
	Answers      string `gorm:"not null;default:''"`
	PaymentProof string

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// RegistrationSummary is the joined row behind a participant's history view.
type RegistrationSummary struct {
	Registration

	EventName     string
	EventType     string
	EventStatus   string
	EventStart    time.Time
	EventVenue    string
	OrganiserID   uint
	OrganiserName string
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

// InsertWithCapacity registers for a normal event. The registration count is
// bumped with a conditional update in the same transaction as the insert, so
// the capacity cap holds even when concurrent requests race for the last
// slot; a zero registration_limit means unlimited.
func (d *RegistrationDAO) InsertWithCapacity(ctx context.Context, reg Registration) (Registration, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Event{}).
			Where("id = ? AND (registration_limit = 0 OR registration_count < registration_limit)", reg.EventID).
			UpdateColumn("registration_count", gorm.Expr("registration_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEventFull
		}

		if err := tx.Create(&reg).Error; err != nil {
			if isUniqueViolation(err, "ticket_id") {
				return ErrTicketIDExists
			}
			if isUniqueViolation(err, "participant") {
				return ErrDuplicateRegistration
			}

			return err
		}

		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}

// InsertOrder places a merchandise order. Stock is untouched until approval.
func (d *RegistrationDAO) InsertOrder(ctx context.Context, reg Registration) (Registration, error) {
	result := d.db.WithContext(ctx).Create(&reg)
	if result.Error != nil {
		if isUniqueViolation(result.Error, "participant") {
			return Registration{}, ErrDuplicateRegistration
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByID(ctx context.Context, id uint) (Registration, error) {
	var reg Registration

	result := d.db.WithContext(ctx).First(&reg, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByTicketID(ctx context.Context, ticketID string) (Registration, error) {
	var reg Registration

	result := d.db.WithContext(ctx).First(&reg, "ticket_id = ?", ticketID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByEventID(ctx context.Context, eventID uint) ([]Registration, error) {
	var regs []Registration

	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&regs)
	if result.Error != nil {
		return nil, result.Error
	}

	return regs, nil
}

func (d *RegistrationDAO) CountByEventID(ctx context.Context, eventID uint) (int64, error) {
	var count int64

	result := d.db.WithContext(ctx).
		Model(&Registration{}).
		Where("event_id = ?", eventID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

func (d *RegistrationDAO) FindSummariesByParticipant(ctx context.Context, participantID uint) ([]RegistrationSummary, error) {
	var rows []RegistrationSummary

	result := d.db.WithContext(ctx).
		Table("registrations").
		Select("registrations.*, " +
			"events.name AS event_name, events.type AS event_type, " +
			"events.status AS event_status, events.start_time AS event_start, " +
			"events.venue AS event_venue, events.organiser_id AS organiser_id, " +
			"users.name AS organiser_name").
		Joins("JOIN events ON events.id = registrations.event_id").
		Joins("JOIN users ON users.id = events.organiser_id").
		Where("registrations.participant_id = ?", participantID).
		Order("registrations.created_at DESC").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// ApproveOrder flips a pending order to successful, assigns its ticket and
// decrements the event's stock by one. Both updates are conditional; either
// failing rolls the whole approval back.
func (d *RegistrationDAO) ApproveOrder(ctx context.Context, regID, eventID uint, ticketID string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Event{}).
			Where("id = ? AND stock_quantity > 0", eventID).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOutOfStock
		}

		result = tx.Model(&Registration{}).
			Where("id = ? AND status = ?", regID, "pending_approval").
			Updates(map[string]interface{}{
				"status":    "successful",
				"ticket_id": ticketID,
			})
		if result.Error != nil {
			if isUniqueViolation(result.Error, "ticket_id") {
				return ErrTicketIDExists
			}

			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOrderNotPending
		}

		return nil
	})
}

func (d *RegistrationDAO) RejectOrder(ctx context.Context, regID uint) error {
	result := d.db.WithContext(ctx).
		Model(&Registration{}).
		Where("id = ? AND status = ?", regID, "pending_approval").
		UpdateColumn("status", "rejected")
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotPending
	}

	return nil
}

// MarkAttendance performs the one-shot check-in. The conditional update on
// attendance_status guarantees exactly one caller wins; the audit line is
// appended in the same statement so the log stays append-only.
func (d *RegistrationDAO) MarkAttendance(ctx context.Context, ticketID, auditLine string, now time.Time) (Registration, error) {
	result := d.db.WithContext(ctx).
		Model(&Registration{}).
		Where("ticket_id = ? AND attendance_status = ?", ticketID, false).
		Updates(map[string]interface{}{
			"attendance_status":    true,
			"attendance_timestamp": now,
			"audit_log":            gorm.Expr("audit_log || ?", auditLine+"\n"),
		})
	if result.Error != nil {
		return Registration{}, result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := d.FindByTicketID(ctx, ticketID); err != nil {
			return Registration{}, err
		}

		return Registration{}, ErrTicketAlreadyScanned
	}

	return d.FindByTicketID(ctx, ticketID)
}

// Delete cancels a registration. A successful normal-event registration frees
// its capacity slot on the way out.
func (d *RegistrationDAO) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg Registration
		if err := tx.First(&reg, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}

			return err
		}

		var event Event
		if err := tx.First(&event, reg.EventID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		if err := tx.Delete(&Registration{}, id).Error; err != nil {
			return err
		}

		if event.Type == "normal" && reg.Status == "successful" {
			result := tx.Model(&Event{}).
				Where("id = ? AND registration_count > 0", reg.EventID).
				UpdateColumn("registration_count", gorm.Expr("registration_count - 1"))
			if result.Error != nil {
				return result.Error
			}
		}

		return nil
	})
}
