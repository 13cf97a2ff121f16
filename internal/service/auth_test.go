package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felicity-portal/felicity-api/internal/domain"
	"github.com/felicity-portal/felicity-api/internal/service"
)

func TestSignupAndLogin(t *testing.T) {
	f := newFixtures(t)

	user, err := f.auth.SignupParticipant(context.Background(), domain.Participant{
		User: domain.User{
			Email:    "alice@felicity.test",
			Password: "secret123",
			Name:     "Alice",
			Role:     domain.RoleParticipant,
		},
		Interests: []string{"music", "robotics"},
	})
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.Equal(t, domain.RoleParticipant, user.Role)

	loggedIn, err := f.auth.Login(context.Background(), "alice@felicity.test", "secret123")
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)

	_, err = f.auth.Login(context.Background(), "alice@felicity.test", "wrong")
	require.ErrorIs(t, err, service.ErrWrongPassword)

	_, err = f.auth.Login(context.Background(), "nobody@felicity.test", "secret123")
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestSignup_RejectsDuplicateEmail(t *testing.T) {
	f := newFixtures(t)
	seedParticipant(t, f, "alice@felicity.test")

	_, err := f.auth.SignupParticipant(context.Background(), domain.Participant{
		User: domain.User{
			Email:    "alice@felicity.test",
			Password: "secret123",
			Name:     "Alice Again",
			Role:     domain.RoleParticipant,
		},
	})
	require.ErrorIs(t, err, service.ErrUserEmailExists)
}

func TestResetOrganiserPassword(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")

	temp, err := f.auth.ResetOrganiserPassword(context.Background(), organiser.ID)
	require.NoError(t, err)
	require.NotEmpty(t, temp)

	// The old password no longer works, the temporary one does.
	_, err = f.auth.Login(context.Background(), "club@felicity.test", "test1234")
	require.ErrorIs(t, err, service.ErrWrongPassword)

	loggedIn, err := f.auth.Login(context.Background(), "club@felicity.test", temp)
	require.NoError(t, err)
	require.Equal(t, organiser.ID, loggedIn.ID)
}

func TestResetOrganiserPassword_ParticipantsExcluded(t *testing.T) {
	f := newFixtures(t)
	participant := seedParticipant(t, f, "alice@felicity.test")

	_, err := f.auth.ResetOrganiserPassword(context.Background(), participant.ID)
	require.ErrorIs(t, err, service.ErrNotAnOrganiser)
}

func TestDeleteOrganiser_CascadesEvents(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "")
	participant := seedParticipant(t, f, "alice@felicity.test")
	event := seedEvent(t, f, domain.Event{OrganiserID: organiser.ID})

	_, err := f.regs.Register(context.Background(), event.ID, participant.ID, nil, "")
	require.NoError(t, err)

	require.NoError(t, f.auth.DeleteOrganiser(context.Background(), organiser.ID))

	_, err = f.events.GetEvent(context.Background(), event.ID)
	require.ErrorIs(t, err, service.ErrEventNotFound)

	history, err := f.regs.History(context.Background(), participant.ID)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestDeleteOrganiser_ParticipantsExcluded(t *testing.T) {
	f := newFixtures(t)
	participant := seedParticipant(t, f, "alice@felicity.test")

	err := f.auth.DeleteOrganiser(context.Background(), participant.ID)
	require.ErrorIs(t, err, service.ErrNotAnOrganiser)
}

func TestUserProfiles(t *testing.T) {
	f := newFixtures(t)
	organiser := seedOrganiser(t, f, "club@felicity.test", "https://discord.test/webhook")
	participant := seedParticipant(t, f, "alice@felicity.test")

	p, err := f.users.GetParticipant(context.Background(), participant.ID)
	require.NoError(t, err)
	require.Equal(t, participant.Email, p.Email)

	p.Interests = []string{"dance"}
	p.FollowedClubs = []uint{organiser.ID}
	updated, err := f.users.UpdateParticipantProfile(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, []string{"dance"}, updated.Interests)
	require.Equal(t, []uint{organiser.ID}, updated.FollowedClubs)

	o, err := f.users.GetOrganiser(context.Background(), organiser.ID)
	require.NoError(t, err)
	require.Equal(t, "https://discord.test/webhook", o.DiscordWebhookURL)

	all, err := f.users.ListOrganisers(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
}
