package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQRPayloadRoundTrip(t *testing.T) {
	original := QRPayload{TicketID: "A1B2C3D4", EventID: 42, UserID: 7}

	encoded, err := original.Encode()
	require.NoError(t, err)
	require.JSONEq(t, `{"ticketId":"A1B2C3D4","eventId":42,"userId":7}`, encoded)

	parsed, err := ParseQRPayload(encoded)
	require.NoError(t, err)
	require.Equal(t, original, parsed)
}

func TestParseQRPayloadInvalid(t *testing.T) {
	_, err := ParseQRPayload("not json")
	require.Error(t, err)
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"participant", RoleParticipant, true},
		{"organiser", RoleOrganiser, true},
		{"Organizer", RoleOrganiser, true},
		{" organiser ", RoleOrganiser, true},
		{"ADMIN", RoleAdmin, true},
		{"club", RoleOrganiser, true},
		{"superuser", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
