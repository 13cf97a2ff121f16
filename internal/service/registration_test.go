package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/felicity-portal/felicity-api/internal/domain"
	"github.com/felicity-portal/felicity-api/internal/pkg/ticket"
	"github.com/felicity-portal/felicity-api/internal/repository"
	"github.com/felicity-portal/felicity-api/internal/repository/dao"
	"github.com/felicity-portal/felicity-api/internal/service"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A per-test in-memory database avoids cross-test interference.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, dao.InitTables(db))

	return db
}

type stubMailer struct {
	mu   sync.Mutex
	sent []service.TicketEmail
}

func (m *stubMailer) SendTicket(_ context.Context, email service.TicketEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)

	return nil
}

type stubNotifier struct {
	published chan string
}

func (n *stubNotifier) NotifyPublish(_ context.Context, webhookURL string, _ domain.Event) error {
	n.published <- webhookURL

	return nil
}

type fixtures struct {
	userRepo  *repository.UserRepository
	eventRepo *repository.EventRepository

	auth     *service.AuthService
	users    *service.UserService
	events   *service.EventService
	regs     *service.RegistrationService
	mailer   *stubMailer
	notifier *stubNotifier
}

func newFixtures(t *testing.T) *fixtures {
	t.Helper()

	db := newTestDB(t)
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	regRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))

	mailer := &stubMailer{}
	notifier := &stubNotifier{published: make(chan string, 1)}

	return &fixtures{
		userRepo:  userRepo,
		eventRepo: eventRepo,
		auth:      service.NewAuthService(userRepo),
		users:     service.NewUserService(userRepo),
		events:    service.NewEventService(eventRepo, userRepo, notifier),
		regs:      service.NewRegistrationService(regRepo, eventRepo, userRepo, mailer),
		mailer:    mailer,
		notifier:  notifier,
	}
}

func seedParticipant(t *testing.T, f *fixtures, email string) domain.User {
	t.Helper()

	user, err := f.auth.SignupParticipant(context.Background(), domain.Participant{
		User: domain.User{
			Email:    email,
			Password: "test1234",
			Name:     "Participant " + email,
			Role:     domain.RoleParticipant,
		},
	})
	require.NoError(t, err)

	return user
}

func seedOrganiser(t *testing.T, f *fixtures, email, webhookURL string) domain.Organiser {
	t.Helper()

	organiser, err := f.auth.ProvisionOrganiser(context.Background(), domain.Organiser{
		User: domain.User{
			Email:    email,
			Password: "test1234",
			Name:     "Club " + email,
			Role:     domain.RoleOrganiser,
		},
		Category:          "cultural",
		DiscordWebhookURL: webhookURL,
	})
	require.NoError(t, err)

	return organiser
}

func seedEvent(t *testing.T, f *fixtures, event domain.Event) domain.Event {
	t.Helper()

	if event.Name == "" {
		event.Name = "Test Event"
	}
	if event.RegistrationDeadline.IsZero() {
		event.RegistrationDeadline = time.Now().Add(24 * time.Hour)
	}
	if event.Status == "" {
		event.Status = domain.EventStatusPublished
	}
	if event.Type == "" {
		event.Type = domain.EventTypeNormal
	}

	created, err := f.eventRepo.Create(context.Background(), event)
	require.NoError(t, err)

	return created
}

func TestRegister_NormalEventIssuesTicket(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")
	event := seedEvent(t, f, domain.Event{OrganiserID: organiser.ID, RegistrationLimit: 10})

	reg, err := f.regs.Register(context.Background(), event.ID, participant.ID,
		map[string]string{"tshirt": "M"}, "")
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationStatusSuccessful, reg.Status)
	require.True(t, ticket.IsValidID(reg.TicketID))
	require.Equal(t, "M", reg.Answers["tshirt"])

	got, err := f.eventRepo.FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.RegistrationCount)
}

func TestRegister_RejectsDuplicate(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")
	event := seedEvent(t, f, domain.Event{OrganiserID: organiser.ID})

	_, err := f.regs.Register(context.Background(), event.ID, participant.ID, nil, "")
	require.NoError(t, err)

	_, err = f.regs.Register(context.Background(), event.ID, participant.ID, nil, "")
	require.ErrorIs(t, err, service.ErrDuplicateRegistration)

	got, err := f.eventRepo.FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.RegistrationCount)
}

func TestRegister_EventFullAtLimit(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	event := seedEvent(t, f, domain.Event{OrganiserID: organiser.ID, RegistrationLimit: 2})

	for i := 0; i < 2; i++ {
		p := seedParticipant(t, f, fmt.Sprintf("p%d@felicity.test", i))
		_, err := f.regs.Register(context.Background(), event.ID, p.ID, nil, "")
		require.NoError(t, err)
	}

	late := seedParticipant(t, f, "late@felicity.test")
	_, err := f.regs.Register(context.Background(), event.ID, late.ID, nil, "")
	require.ErrorIs(t, err, service.ErrEventFull)

	got, err := f.eventRepo.FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.RegistrationCount)
}

func TestRegister_ZeroLimitMeansUnlimited(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	event := seedEvent(t, f, domain.Event{OrganiserID: organiser.ID, RegistrationLimit: 0})

	for i := 0; i < 5; i++ {
		p := seedParticipant(t, f, fmt.Sprintf("p%d@felicity.test", i))
		_, err := f.regs.Register(context.Background(), event.ID, p.ID, nil, "")
		require.NoError(t, err)
	}
}

func TestRegister_ClosedWhenNotPublished(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")

	draft := seedEvent(t, f, domain.Event{OrganiserID: organiser.ID, Status: domain.EventStatusDraft})
	_, err := f.regs.Register(context.Background(), draft.ID, participant.ID, nil, "")
	require.ErrorIs(t, err, service.ErrRegistrationClosed)

	expired := seedEvent(t, f, domain.Event{
		OrganiserID:          organiser.ID,
		Name:                 "Expired Event",
		RegistrationDeadline: time.Now().Add(-time.Hour),
	})
	_, err = f.regs.Register(context.Background(), expired.ID, participant.ID, nil, "")
	require.ErrorIs(t, err, service.ErrRegistrationClosed)
}

func TestRegister_MerchandiseOrderPendsApproval(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")
	event := seedEvent(t, f, domain.Event{
		OrganiserID:   organiser.ID,
		Type:          domain.EventTypeMerchandise,
		StockQuantity: 5,
	})

	_, err := f.regs.Register(context.Background(), event.ID, participant.ID, nil, "")
	require.ErrorIs(t, err, service.ErrPaymentProofRequired)

	reg, err := f.regs.Register(context.Background(), event.ID, participant.ID, nil, "upi-ref-123")
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationStatusPendingApproval, reg.Status)
	require.Empty(t, reg.TicketID)
	require.Equal(t, "upi-ref-123", reg.PaymentProof)

	// Placing an order never touches stock; only approval does.
	got, err := f.eventRepo.FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	require.Equal(t, 5, got.StockQuantity)
}

func TestRegister_MerchandiseOutOfStock(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")
	event := seedEvent(t, f, domain.Event{
		OrganiserID:   organiser.ID,
		Type:          domain.EventTypeMerchandise,
		StockQuantity: 0,
	})

	_, err := f.regs.Register(context.Background(), event.ID, participant.ID, nil, "upi-ref-123")
	require.ErrorIs(t, err, service.ErrOutOfStock)
}

func TestReviewOrder_ApproveIssuesTicketAndDecrementsStock(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")
	event := seedEvent(t, f, domain.Event{
		OrganiserID:   organiser.ID,
		Type:          domain.EventTypeMerchandise,
		StockQuantity: 3,
	})

	order, err := f.regs.Register(context.Background(), event.ID, participant.ID, nil, "upi-ref-123")
	require.NoError(t, err)

	approved, err := f.regs.ReviewOrder(context.Background(), order.ID, organiser.ID, true)
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationStatusSuccessful, approved.Status)
	require.True(t, ticket.IsValidID(approved.TicketID))

	got, err := f.eventRepo.FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.StockQuantity)

	// A processed order cannot be reviewed again.
	_, err = f.regs.ReviewOrder(context.Background(), order.ID, organiser.ID, false)
	require.ErrorIs(t, err, service.ErrOrderAlreadyProcessed)
}

func TestReviewOrder_RejectLeavesStockAlone(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")
	event := seedEvent(t, f, domain.Event{
		OrganiserID:   organiser.ID,
		Type:          domain.EventTypeMerchandise,
		StockQuantity: 3,
	})

	order, err := f.regs.Register(context.Background(), event.ID, participant.ID, nil, "upi-ref-123")
	require.NoError(t, err)

	rejected, err := f.regs.ReviewOrder(context.Background(), order.ID, organiser.ID, false)
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationStatusRejected, rejected.Status)
	require.Empty(t, rejected.TicketID)

	got, err := f.eventRepo.FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	require.Equal(t, 3, got.StockQuantity)

	_, err = f.regs.ReviewOrder(context.Background(), order.ID, organiser.ID, true)
	require.ErrorIs(t, err, service.ErrOrderAlreadyProcessed)
}

func TestReviewOrder_ApprovalFailsOnZeroStock(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	first := seedParticipant(t, f, "p1@felicity.test")
	second := seedParticipant(t, f, "p2@felicity.test")
	event := seedEvent(t, f, domain.Event{
		OrganiserID:   organiser.ID,
		Type:          domain.EventTypeMerchandise,
		StockQuantity: 1,
	})

	firstOrder, err := f.regs.Register(context.Background(), event.ID, first.ID, nil, "upi-1")
	require.NoError(t, err)
	secondOrder, err := f.regs.Register(context.Background(), event.ID, second.ID, nil, "upi-2")
	require.NoError(t, err)

	_, err = f.regs.ReviewOrder(context.Background(), firstOrder.ID, organiser.ID, true)
	require.NoError(t, err)

	_, err = f.regs.ReviewOrder(context.Background(), secondOrder.ID, organiser.ID, true)
	require.ErrorIs(t, err, service.ErrOutOfStock)

	// The failed approval leaves the order pending for a later restock.
	still, err := f.regs.ListEventRegistrations(context.Background(), event.ID, organiser.ID)
	require.NoError(t, err)
	for _, reg := range still {
		if reg.ID == secondOrder.ID {
			require.Equal(t, domain.RegistrationStatusPendingApproval, reg.Status)
		}
	}
}

func TestReviewOrder_OnlyOwnerReviews(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	other := seedOrganiser(t, f, "other@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")
	event := seedEvent(t, f, domain.Event{
		OrganiserID:   organiser.ID,
		Type:          domain.EventTypeMerchandise,
		StockQuantity: 1,
	})

	order, err := f.regs.Register(context.Background(), event.ID, participant.ID, nil, "upi-1")
	require.NoError(t, err)

	_, err = f.regs.ReviewOrder(context.Background(), order.ID, other.ID, true)
	require.ErrorIs(t, err, service.ErrNotEventOwner)
}

func TestCheckIn_MarksAttendanceOnce(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")
	event := seedEvent(t, f, domain.Event{OrganiserID: organiser.ID})

	reg, err := f.regs.Register(context.Background(), event.ID, participant.ID, nil, "")
	require.NoError(t, err)

	marked, err := f.regs.CheckIn(context.Background(), reg.TicketID, organiser.ID, false)
	require.NoError(t, err)
	require.True(t, marked.AttendanceStatus)
	require.NotNil(t, marked.AttendanceTimestamp)
	require.Len(t, marked.AuditLog, 1)
	require.Contains(t, marked.AuditLog[0], "Scanned via QR")

	firstScan := *marked.AttendanceTimestamp

	_, err = f.regs.CheckIn(context.Background(), reg.TicketID, organiser.ID, false)
	var dup *service.DuplicateScanError
	require.ErrorAs(t, err, &dup)
	require.WithinDuration(t, firstScan, dup.PreviousTimestamp, time.Second)
	require.Equal(t, participant.Name, dup.ParticipantName)

	// The original timestamp and audit log survive the second scan untouched.
	current, err := f.regs.ListEventRegistrations(context.Background(), event.ID, organiser.ID)
	require.NoError(t, err)
	require.Len(t, current, 1)
	require.WithinDuration(t, firstScan, *current[0].AttendanceTimestamp, time.Second)
	require.Len(t, current[0].AuditLog, 1)
}

func TestCheckIn_ManualOverrideIsAudited(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")
	event := seedEvent(t, f, domain.Event{OrganiserID: organiser.ID})

	reg, err := f.regs.Register(context.Background(), event.ID, participant.ID, nil, "")
	require.NoError(t, err)

	marked, err := f.regs.CheckIn(context.Background(), reg.TicketID, organiser.ID, true)
	require.NoError(t, err)
	require.Len(t, marked.AuditLog, 1)
	require.Contains(t, marked.AuditLog[0], "Manual Override")
}

func TestCheckIn_UnknownTicket(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")

	_, err := f.regs.CheckIn(context.Background(), "DEADBEEF", organiser.ID, false)
	require.ErrorIs(t, err, service.ErrInvalidTicket)
}

func TestCheckIn_OnlyEventOwnerScans(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	other := seedOrganiser(t, f, "other@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")
	event := seedEvent(t, f, domain.Event{OrganiserID: organiser.ID})

	reg, err := f.regs.Register(context.Background(), event.ID, participant.ID, nil, "")
	require.NoError(t, err)

	_, err = f.regs.CheckIn(context.Background(), reg.TicketID, other.ID, false)
	require.ErrorIs(t, err, service.ErrNotEventOwner)
}

func TestCancel_ReleasesCapacity(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")
	event := seedEvent(t, f, domain.Event{OrganiserID: organiser.ID, RegistrationLimit: 1})

	reg, err := f.regs.Register(context.Background(), event.ID, participant.ID, nil, "")
	require.NoError(t, err)

	require.NoError(t, f.regs.Cancel(context.Background(), reg.ID, participant.ID))

	got, err := f.eventRepo.FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.RegistrationCount)

	// The freed slot is immediately usable again.
	next := seedParticipant(t, f, "p2@felicity.test")
	_, err = f.regs.Register(context.Background(), event.ID, next.ID, nil, "")
	require.NoError(t, err)
}

func TestCancel_GuardsOwnershipAndCheckIn(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")
	stranger := seedParticipant(t, f, "p2@felicity.test")
	event := seedEvent(t, f, domain.Event{OrganiserID: organiser.ID})

	reg, err := f.regs.Register(context.Background(), event.ID, participant.ID, nil, "")
	require.NoError(t, err)

	err = f.regs.Cancel(context.Background(), reg.ID, stranger.ID)
	require.ErrorIs(t, err, service.ErrNotRegistrationOwner)

	_, err = f.regs.CheckIn(context.Background(), reg.TicketID, organiser.ID, false)
	require.NoError(t, err)

	err = f.regs.Cancel(context.Background(), reg.ID, participant.ID)
	require.ErrorIs(t, err, service.ErrAlreadyCheckedIn)
}

func TestHistory_JoinsEventDetails(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	participant := seedParticipant(t, f, "p1@felicity.test")

	concert := seedEvent(t, f, domain.Event{OrganiserID: organiser.ID, Name: "Night Concert"})
	workshop := seedEvent(t, f, domain.Event{OrganiserID: organiser.ID, Name: "Robotics Workshop"})

	for _, ev := range []domain.Event{concert, workshop} {
		_, err := f.regs.Register(context.Background(), ev.ID, participant.ID, nil, "")
		require.NoError(t, err)
	}

	history, err := f.regs.History(context.Background(), participant.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	names := make([]string, 0, len(history))
	for _, item := range history {
		names = append(names, item.EventName)
		require.Equal(t, organiser.Name, item.OrganiserName)
	}
	require.ElementsMatch(t, []string{"Night Concert", "Robotics Workshop"}, names)
}

func TestRegister_UnknownEvent(t *testing.T) {
	f := newFixtures(t)
	participant := seedParticipant(t, f, "p1@felicity.test")

	_, err := f.regs.Register(context.Background(), 9999, participant.ID, nil, "")
	require.True(t, errors.Is(err, service.ErrEventNotFound))
}
