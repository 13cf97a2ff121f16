package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type RegistrationStatus string

const (
	RegistrationStatusSuccessful      RegistrationStatus = "successful"
	RegistrationStatusPendingApproval RegistrationStatus = "pending_approval"
	RegistrationStatusRejected        RegistrationStatus = "rejected"
)

type Registration struct {
	ID            uint `json:"id"`
	EventID       uint `json:"event_id"`
	ParticipantID uint `json:"participant_id"`

	// TicketID is empty while a merchandise order is pending approval. Once
	// assigned it is immutable and globally unique.
	TicketID string             `json:"ticket_id,omitempty"`
	Status   RegistrationStatus `json:"status"`

	AttendanceStatus    bool       `json:"attendance_status"`
	AttendanceTimestamp *time.Time `json:"attendance_timestamp,omitempty"`

	// AuditLog is an append-only sequence of check-in event lines. Lines are
	// only ever appended, never rewritten or trimmed.
	AuditLog []string `json:"audit_log,omitempty"`

	Answers      map[string]string `json:"answers,omitempty"`
	PaymentProof string            `json:"payment_proof,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegistrationSummary is a registration joined with the event and organiser
// details a participant sees in their history.
type RegistrationSummary struct {
	Registration
	EventName     string      `json:"event_name"`
	EventType     EventType   `json:"event_type"`
	EventStatus   EventStatus `json:"event_status"`
	EventStart    time.Time   `json:"event_start"`
	EventVenue    string      `json:"event_venue"`
	OrganiserID   uint        `json:"organiser_id"`
	OrganiserName string      `json:"organiser_name"`
}

// QRPayload is the JSON document encoded into a ticket's QR code.
type QRPayload struct {
	TicketID string `json:"ticketId"`
	EventID  uint   `json:"eventId"`
	UserID   uint   `json:"userId"`
}

func (p QRPayload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("json.Marshal -> %w", err)
	}

	return string(data), nil
}

func ParseQRPayload(s string) (QRPayload, error) {
	var p QRPayload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return QRPayload{}, fmt.Errorf("json.Unmarshal -> %w", err)
	}

	return p, nil
}
