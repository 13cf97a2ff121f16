package domain

import (
	"strings"
	"time"
)

// Role is the canonical user role. Legacy data carried several spellings
// ("Organizer", "organiser", ...); ParseRole normalizes them at the store
// boundary so business logic only ever compares canonical values.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganiser   Role = "organiser"
	RoleAdmin       Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "participant", "user":
		return RoleParticipant, true
	case "organiser", "organizer", "club":
		return RoleOrganiser, true
	case "admin":
		return RoleAdmin, true
	}

	return "", false
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Participant carries the profile fields shown on a participant account.
type Participant struct {
	User
	Interests     []string `json:"interests"`
	FollowedClubs []uint   `json:"followed_clubs"`
}

// Organiser is a club account. Events belong to exactly one organiser, and
// the Discord webhook URL (if set) receives a notification when one of the
// organiser's events is published.
type Organiser struct {
	User
	Category          string `json:"category"`
	Description       string `json:"description"`
	ContactEmail      string `json:"contact_email"`
	ContactNumber     string `json:"contact_number"`
	DiscordWebhookURL string `json:"discord_webhook_url,omitempty"`
}

type Admin struct {
	User
}
