package request

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/felicity-portal/felicity-api/internal/domain"
)

var errInvalidTicketID = errors.New("ticket id must be 8 uppercase hexadecimal characters")

// UpdateProfileRequest covers both participant and organiser profiles; the
// handler picks the fields matching the caller's role.
type UpdateProfileRequest struct {
	Name          string   `json:"name"`
	Interests     []string `json:"interests,omitempty"`
	FollowedClubs []uint   `json:"followed_clubs,omitempty"`

	Category          string `json:"category,omitempty"`
	Description       string `json:"description,omitempty"`
	ContactEmail      string `json:"contact_email,omitempty"`
	ContactNumber     string `json:"contact_number,omitempty"`
	DiscordWebhookURL string `json:"discord_webhook_url,omitempty"`
}

func (req *UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.ContactEmail, is.Email),
		validation.Field(&req.DiscordWebhookURL, is.URL),
	)
}

func (req *UpdateProfileRequest) ApplyToParticipant(p *domain.Participant) {
	p.Name = req.Name
	if req.Interests != nil {
		p.Interests = req.Interests
	}
	if req.FollowedClubs != nil {
		p.FollowedClubs = req.FollowedClubs
	}
}

func (req *UpdateProfileRequest) ApplyToOrganiser(o *domain.Organiser) {
	o.Name = req.Name
	if req.Category != "" {
		o.Category = req.Category
	}
	if req.Description != "" {
		o.Description = req.Description
	}
	if req.ContactEmail != "" {
		o.ContactEmail = req.ContactEmail
	}
	if req.ContactNumber != "" {
		o.ContactNumber = req.ContactNumber
	}
	if req.DiscordWebhookURL != "" {
		o.DiscordWebhookURL = req.DiscordWebhookURL
	}
}
