package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/felicity-portal/felicity-api/internal/domain"
	"github.com/felicity-portal/felicity-api/internal/pkg/ticket"
	"github.com/felicity-portal/felicity-api/internal/repository"
)

var (
	ErrRegistrationNotFound  = repository.ErrRegistrationNotFound
	ErrDuplicateRegistration = repository.ErrDuplicateRegistration
	ErrEventFull             = repository.ErrEventFull
	ErrOutOfStock            = repository.ErrOutOfStock
	ErrOrderAlreadyProcessed = errors.New("order already processed")
	ErrRegistrationClosed    = errors.New("registrations are not open for this event")
	ErrPaymentProofRequired  = errors.New("payment proof is required for merchandise orders")
	ErrInvalidTicket         = errors.New("invalid ticket")
	ErrNotRegistrationOwner  = errors.New("registration belongs to another participant")
	ErrAlreadyCheckedIn      = errors.New("registration has already been checked in")
)

// ticketIssueAttempts bounds the retries when a freshly generated ticket ID
// collides with an existing one.
const ticketIssueAttempts = 3

// DuplicateScanError is returned when a ticket is scanned a second time. It
// carries the first check-in's timestamp and the participant's name so venue
// staff can see at a glance who already went through.
type DuplicateScanError struct {
	PreviousTimestamp time.Time
	ParticipantName   string
}

func (e *DuplicateScanError) Error() string {
	return fmt.Sprintf("ticket already scanned at %v", e.PreviousTimestamp.Format(time.RFC3339))
}

type RegistrationRepository interface {
	CreateWithCapacity(ctx context.Context, reg domain.Registration) (domain.Registration, error)
	CreateOrder(ctx context.Context, reg domain.Registration) (domain.Registration, error)
	FindByID(ctx context.Context, id uint) (domain.Registration, error)
	FindByTicketID(ctx context.Context, ticketID string) (domain.Registration, error)
	FindByEventID(ctx context.Context, eventID uint) ([]domain.Registration, error)
	FindHistory(ctx context.Context, participantID uint) ([]domain.RegistrationSummary, error)
	ApproveOrder(ctx context.Context, regID, eventID uint, ticketID string) error
	RejectOrder(ctx context.Context, regID uint) error
	MarkAttendance(ctx context.Context, ticketID, auditLine string, now time.Time) (domain.Registration, error)
	Delete(ctx context.Context, id uint) error
}

// TicketEmail is everything the mail collaborator needs to deliver a ticket.
type TicketEmail struct {
	To              string
	ParticipantName string
	EventName       string
	TicketID        string
	QRPayload       string
}

type TicketMailer interface {
	SendTicket(ctx context.Context, email TicketEmail) error
}

type RegistrationService struct {
	repo      RegistrationRepository
	eventRepo EventRepository
	userRepo  UserRepository
	mailer    TicketMailer
}

func NewRegistrationService(repo RegistrationRepository, eventRepo EventRepository, userRepo UserRepository, mailer TicketMailer) *RegistrationService {
	return &RegistrationService{
		repo:      repo,
		eventRepo: eventRepo,
		userRepo:  userRepo,
		mailer:    mailer,
	}
}

// Register creates a registration (normal event) or order (merchandise) for
// the participant. Normal registrations get a ticket immediately; merchandise
// orders wait for organiser approval and carry no ticket until then.
func (s *RegistrationService) Register(ctx context.Context, eventID, participantID uint, answers map[string]string, paymentProof string) (domain.Registration, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	if !event.RegistrationsOpen(time.Now()) {
		return domain.Registration{}, ErrRegistrationClosed
	}

	reg := domain.Registration{
		EventID:       eventID,
		ParticipantID: participantID,
		Answers:       answers,
	}

	if event.Type == domain.EventTypeMerchandise {
		if event.StockQuantity <= 0 {
			return domain.Registration{}, ErrOutOfStock
		}
		if paymentProof == "" {
			return domain.Registration{}, ErrPaymentProofRequired
		}

		reg.Status = domain.RegistrationStatusPendingApproval
		reg.PaymentProof = paymentProof

		created, err := s.repo.CreateOrder(ctx, reg)
		if err != nil {
			return domain.Registration{}, fmt.Errorf("s.repo.CreateOrder -> %w", err)
		}

		return created, nil
	}

	reg.Status = domain.RegistrationStatusSuccessful

	var created domain.Registration
	for attempt := 0; attempt < ticketIssueAttempts; attempt++ {
		reg.TicketID, err = ticket.NewID()
		if err != nil {
			return domain.Registration{}, fmt.Errorf("ticket.NewID -> %w", err)
		}

		created, err = s.repo.CreateWithCapacity(ctx, reg)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrTicketIDExists) {
			continue
		}

		return domain.Registration{}, fmt.Errorf("s.repo.CreateWithCapacity -> %w", err)
	}
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.CreateWithCapacity -> %w", err)
	}

	s.emailTicket(participantID, event, created)

	return created, nil
}

// Cancel removes the participant's own registration; checked-in tickets stay.
func (s *RegistrationService) Cancel(ctx context.Context, regID, participantID uint) error {
	reg, err := s.repo.FindByID(ctx, regID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if reg.ParticipantID != participantID {
		return ErrNotRegistrationOwner
	}
	if reg.AttendanceStatus {
		return ErrAlreadyCheckedIn
	}

	if err = s.repo.Delete(ctx, regID); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

func (s *RegistrationService) History(ctx context.Context, participantID uint) ([]domain.RegistrationSummary, error) {
	history, err := s.repo.FindHistory(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindHistory -> %w", err)
	}

	return history, nil
}

// ListEventRegistrations returns an event's registrations for its organiser.
func (s *RegistrationService) ListEventRegistrations(ctx context.Context, eventID, organiserID uint) ([]domain.Registration, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}
	if event.OrganiserID != organiserID {
		return nil, ErrNotEventOwner
	}

	regs, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByEventID -> %w", err)
	}

	return regs, nil
}

// ReviewOrder approves or rejects a pending merchandise order. The status is
// checked before any mutation, so re-reviewing a processed order always fails
// without touching stock. Approval decrements stock by one and issues the
// ticket atomically; zero stock fails the approval outright.
func (s *RegistrationService) ReviewOrder(ctx context.Context, regID, organiserID uint, approve bool) (domain.Registration, error) {
	reg, err := s.repo.FindByID(ctx, regID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	event, err := s.eventRepo.FindByID(ctx, reg.EventID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}
	if event.OrganiserID != organiserID {
		return domain.Registration{}, ErrNotEventOwner
	}

	if reg.Status != domain.RegistrationStatusPendingApproval {
		return domain.Registration{}, ErrOrderAlreadyProcessed
	}

	if !approve {
		if err = s.repo.RejectOrder(ctx, regID); err != nil {
			if errors.Is(err, repository.ErrOrderNotPending) {
				return domain.Registration{}, ErrOrderAlreadyProcessed
			}

			return domain.Registration{}, fmt.Errorf("s.repo.RejectOrder -> %w", err)
		}

		return s.repo.FindByID(ctx, regID)
	}

	for attempt := 0; attempt < ticketIssueAttempts; attempt++ {
		var ticketID string
		ticketID, err = ticket.NewID()
		if err != nil {
			return domain.Registration{}, fmt.Errorf("ticket.NewID -> %w", err)
		}

		err = s.repo.ApproveOrder(ctx, regID, reg.EventID, ticketID)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrTicketIDExists) {
			continue
		}
		if errors.Is(err, repository.ErrOrderNotPending) {
			return domain.Registration{}, ErrOrderAlreadyProcessed
		}

		return domain.Registration{}, fmt.Errorf("s.repo.ApproveOrder -> %w", err)
	}
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.ApproveOrder -> %w", err)
	}

	approved, err := s.repo.FindByID(ctx, regID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	s.emailTicket(approved.ParticipantID, event, approved)

	return approved, nil
}

// CheckIn marks a ticket as redeemed exactly once. A second scan fails with a
// DuplicateScanError carrying the original timestamp and participant name;
// the stored timestamp and audit log are never rewritten.
func (s *RegistrationService) CheckIn(ctx context.Context, ticketID string, organiserID uint, manualOverride bool) (domain.Registration, error) {
	reg, err := s.repo.FindByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return domain.Registration{}, ErrInvalidTicket
		}

		return domain.Registration{}, fmt.Errorf("s.repo.FindByTicketID -> %w", err)
	}

	event, err := s.eventRepo.FindByID(ctx, reg.EventID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}
	if event.OrganiserID != organiserID {
		return domain.Registration{}, ErrNotEventOwner
	}

	if reg.AttendanceStatus {
		return domain.Registration{}, s.duplicateScanError(ctx, reg)
	}

	now := time.Now().UTC()
	method := "Scanned via QR"
	if manualOverride {
		method = "Manual Override"
	}
	auditLine := fmt.Sprintf("%s at %s", method, now.Format(time.RFC3339))

	marked, err := s.repo.MarkAttendance(ctx, ticketID, auditLine, now)
	if err != nil {
		// Lost a race with a concurrent scan of the same ticket.
		if errors.Is(err, repository.ErrTicketAlreadyScanned) {
			if current, ferr := s.repo.FindByTicketID(ctx, ticketID); ferr == nil {
				return domain.Registration{}, s.duplicateScanError(ctx, current)
			}
		}

		return domain.Registration{}, fmt.Errorf("s.repo.MarkAttendance -> %w", err)
	}

	return marked, nil
}

func (s *RegistrationService) duplicateScanError(ctx context.Context, reg domain.Registration) error {
	dup := &DuplicateScanError{}
	if reg.AttendanceTimestamp != nil {
		dup.PreviousTimestamp = *reg.AttendanceTimestamp
	}

	if participant, err := s.userRepo.FindByID(ctx, reg.ParticipantID); err == nil {
		dup.ParticipantName = participant.Name
	}

	return dup
}

// emailTicket delivers the ticket QR asynchronously. At most one attempt;
// failure is logged and never surfaced to the caller.
func (s *RegistrationService) emailTicket(participantID uint, event domain.Event, reg domain.Registration) {
	participant, err := s.userRepo.FindByID(context.Background(), participantID)
	if err != nil {
		zap.L().Warn("ticket email skipped",
			zap.Uint("registration_id", reg.ID), zap.Error(err))
		return
	}

	payload, err := domain.QRPayload{
		TicketID: reg.TicketID,
		EventID:  reg.EventID,
		UserID:   reg.ParticipantID,
	}.Encode()
	if err != nil {
		zap.L().Warn("ticket email skipped",
			zap.Uint("registration_id", reg.ID), zap.Error(err))
		return
	}

	go func() {
		err := s.mailer.SendTicket(context.Background(), TicketEmail{
			To:              participant.Email,
			ParticipantName: participant.Name,
			EventName:       event.Name,
			TicketID:        reg.TicketID,
			QRPayload:       payload,
		})
		if err != nil {
			zap.L().Warn("ticket email failed",
				zap.Uint("registration_id", reg.ID), zap.Error(err))
		}
	}()
}
