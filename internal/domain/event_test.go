package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from EventStatus
		to   EventStatus
		want bool
	}{
		{EventStatusDraft, EventStatusPublished, true},
		{EventStatusDraft, EventStatusOngoing, false},
		{EventStatusDraft, EventStatusClosed, false},
		{EventStatusPublished, EventStatusOngoing, true},
		{EventStatusPublished, EventStatusClosed, true},
		{EventStatusPublished, EventStatusDraft, false},
		{EventStatusOngoing, EventStatusCompleted, true},
		{EventStatusOngoing, EventStatusClosed, true},
		{EventStatusOngoing, EventStatusPublished, false},
		{EventStatusCompleted, EventStatusClosed, true},
		{EventStatusCompleted, EventStatusOngoing, false},
		{EventStatusClosed, EventStatusPublished, false},
		{EventStatusClosed, EventStatusClosed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			require.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEventApplyUpdateDraft(t *testing.T) {
	e := Event{Status: EventStatusDraft, Name: "old", Venue: "Amphitheatre"}

	name := "Felicity Hackathon"
	limit := 200
	require.NoError(t, e.ApplyUpdate(EventUpdate{Name: &name, RegistrationLimit: &limit}))
	require.Equal(t, "Felicity Hackathon", e.Name)
	require.Equal(t, 200, e.RegistrationLimit)
	require.Equal(t, "Amphitheatre", e.Venue)
}

func TestEventApplyUpdatePublishedDropsLockedFields(t *testing.T) {
	e := Event{
		Status:            EventStatusPublished,
		Name:              "Qawwali Night",
		Description:       "old description",
		Venue:             "Main Lawn",
		RegistrationLimit: 100,
	}

	name := "hijacked"
	venue := "elsewhere"
	description := "new description"
	limit := 150
	require.NoError(t, e.ApplyUpdate(EventUpdate{
		Name:              &name,
		Venue:             &venue,
		Description:       &description,
		RegistrationLimit: &limit,
	}))

	// Locked fields are silently dropped; the allowed ones are applied.
	require.Equal(t, "Qawwali Night", e.Name)
	require.Equal(t, "Main Lawn", e.Venue)
	require.Equal(t, "new description", e.Description)
	require.Equal(t, 150, e.RegistrationLimit)
}

func TestEventApplyUpdateBlockedStatuses(t *testing.T) {
	description := "nope"

	for _, status := range []EventStatus{EventStatusOngoing, EventStatusCompleted, EventStatusClosed} {
		t.Run(string(status), func(t *testing.T) {
			e := Event{Status: status, Description: "original"}

			err := e.ApplyUpdate(EventUpdate{Description: &description})
			require.ErrorIs(t, err, ErrEventEditBlocked)
			require.Equal(t, "original", e.Description)

			// An empty update is a no-op, not an error.
			require.NoError(t, e.ApplyUpdate(EventUpdate{}))
		})
	}
}

func TestEventTransition(t *testing.T) {
	e := Event{Status: EventStatusOngoing}

	require.NoError(t, e.Transition(EventStatusCompleted))
	require.Equal(t, EventStatusCompleted, e.Status)

	err := e.Transition(EventStatusOngoing)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, EventStatusCompleted, e.Status)
}

func TestEventRegistrationsOpen(t *testing.T) {
	now := time.Now()

	open := Event{Status: EventStatusPublished, RegistrationDeadline: now.Add(time.Hour)}
	require.True(t, open.RegistrationsOpen(now))

	noDeadline := Event{Status: EventStatusPublished}
	require.True(t, noDeadline.RegistrationsOpen(now))

	past := Event{Status: EventStatusPublished, RegistrationDeadline: now.Add(-time.Hour)}
	require.False(t, past.RegistrationsOpen(now))

	draft := Event{Status: EventStatusDraft, RegistrationDeadline: now.Add(time.Hour)}
	require.False(t, draft.RegistrationsOpen(now))
}
