package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felicity-portal/felicity-api/internal/domain"
	"github.com/felicity-portal/felicity-api/internal/repository/dao"
)

var (
	ErrRegistrationNotFound  = dao.ErrRegistrationNotFound
	ErrDuplicateRegistration = dao.ErrDuplicateRegistration
	ErrEventFull             = dao.ErrEventFull
	ErrOutOfStock            = dao.ErrOutOfStock
	ErrOrderNotPending       = dao.ErrOrderNotPending
	ErrTicketIDExists        = dao.ErrTicketIDExists
	ErrTicketAlreadyScanned  = dao.ErrTicketAlreadyScanned
)

type RegistrationDAO interface {
	InsertWithCapacity(ctx context.Context, reg dao.Registration) (dao.Registration, error)
	InsertOrder(ctx context.Context, reg dao.Registration) (dao.Registration, error)
	FindByID(ctx context.Context, id uint) (dao.Registration, error)
	FindByTicketID(ctx context.Context, ticketID string) (dao.Registration, error)
	FindByEventID(ctx context.Context, eventID uint) ([]dao.Registration, error)
	CountByEventID(ctx context.Context, eventID uint) (int64, error)
	FindSummariesByParticipant(ctx context.Context, participantID uint) ([]dao.RegistrationSummary, error)
	ApproveOrder(ctx context.Context, regID, eventID uint, ticketID string) error
	RejectOrder(ctx context.Context, regID uint) error
	MarkAttendance(ctx context.Context, ticketID, auditLine string, now time.Time) (dao.Registration, error)
	Delete(ctx context.Context, id uint) error
}

type RegistrationRepository struct {
	dao RegistrationDAO
}

func NewRegistrationRepository(dao RegistrationDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao: dao,
	}
}

// CreateWithCapacity persists a normal-event registration; capacity and the
// duplicate rule are both enforced atomically by the store.
func (r *RegistrationRepository) CreateWithCapacity(ctx context.Context, reg domain.Registration) (domain.Registration, error) {
	created, err := r.dao.InsertWithCapacity(ctx, r.domainToDao(reg))
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.InsertWithCapacity -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *RegistrationRepository) CreateOrder(ctx context.Context, reg domain.Registration) (domain.Registration, error) {
	created, err := r.dao.InsertOrder(ctx, r.domainToDao(reg))
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.InsertOrder -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id uint) (domain.Registration, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RegistrationRepository) FindByTicketID(ctx context.Context, ticketID string) (domain.Registration, error) {
	found, err := r.dao.FindByTicketID(ctx, ticketID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByTicketID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RegistrationRepository) FindByEventID(ctx context.Context, eventID uint) ([]domain.Registration, error) {
	found, err := r.dao.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEventID -> %w", err)
	}

	regs := make([]domain.Registration, len(found))
	for i, reg := range found {
		regs[i] = r.daoToDomain(reg)
	}

	return regs, nil
}

func (r *RegistrationRepository) CountByEventID(ctx context.Context, eventID uint) (int64, error) {
	count, err := r.dao.CountByEventID(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountByEventID -> %w", err)
	}

	return count, nil
}

func (r *RegistrationRepository) FindHistory(ctx context.Context, participantID uint) ([]domain.RegistrationSummary, error) {
	rows, err := r.dao.FindSummariesByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindSummariesByParticipant -> %w", err)
	}

	summaries := make([]domain.RegistrationSummary, len(rows))
	for i, row := range rows {
		summaries[i] = domain.RegistrationSummary{
			Registration:  r.daoToDomain(row.Registration),
			EventName:     row.EventName,
			EventType:     domain.EventType(row.EventType),
			EventStatus:   domain.EventStatus(row.EventStatus),
			EventStart:    row.EventStart,
			EventVenue:    row.EventVenue,
			OrganiserID:   row.OrganiserID,
			OrganiserName: row.OrganiserName,
		}
	}

	return summaries, nil
}

func (r *RegistrationRepository) ApproveOrder(ctx context.Context, regID, eventID uint, ticketID string) error {
	if err := r.dao.ApproveOrder(ctx, regID, eventID, ticketID); err != nil {
		return fmt.Errorf("r.dao.ApproveOrder -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) RejectOrder(ctx context.Context, regID uint) error {
	if err := r.dao.RejectOrder(ctx, regID); err != nil {
		return fmt.Errorf("r.dao.RejectOrder -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) MarkAttendance(ctx context.Context, ticketID, auditLine string, now time.Time) (domain.Registration, error) {
	marked, err := r.dao.MarkAttendance(ctx, ticketID, auditLine, now)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.MarkAttendance -> %w", err)
	}

	return r.daoToDomain(marked), nil
}

func (r *RegistrationRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) domainToDao(reg domain.Registration) dao.Registration {
	var ticketID *string
	if reg.TicketID != "" {
		t := reg.TicketID
		ticketID = &t
	}

	return dao.Registration{
		ID:                  reg.ID,
		EventID:             reg.EventID,
		ParticipantID:       reg.ParticipantID,
		TicketID:            ticketID,
		Status:              string(reg.Status),
		AttendanceStatus:    reg.AttendanceStatus,
		AttendanceTimestamp: reg.AttendanceTimestamp,
		AuditLog:            encodeAuditLog(reg.AuditLog),
		Answers:             encodeJSON(reg.Answers),
		PaymentProof:        reg.PaymentProof,
		CreatedAt:           reg.CreatedAt,
		UpdatedAt:           reg.UpdatedAt,
	}
}

func (r *RegistrationRepository) daoToDomain(reg dao.Registration) domain.Registration {
	var ticketID string
	if reg.TicketID != nil {
		ticketID = *reg.TicketID
	}

	return domain.Registration{
		ID:                  reg.ID,
		EventID:             reg.EventID,
		ParticipantID:       reg.ParticipantID,
		TicketID:            ticketID,
		Status:              domain.RegistrationStatus(reg.Status),
		AttendanceStatus:    reg.AttendanceStatus,
		AttendanceTimestamp: reg.AttendanceTimestamp,
		AuditLog:            decodeAuditLog(reg.AuditLog),
		Answers:             decodeAnswers(reg.Answers),
		PaymentProof:        reg.PaymentProof,
		CreatedAt:           reg.CreatedAt,
		UpdatedAt:           reg.UpdatedAt,
	}
}

func encodeAuditLog(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}

func decodeAuditLog(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}

	return strings.Split(s, "\n")
}

func decodeAnswers(s string) map[string]string {
	if s == "" {
		return nil
	}

	var out map[string]string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}

	return out
}
