// Package notify holds the outbound collaborators: ticket emails and the
// Discord publish webhook. Callers treat both as best-effort; a failure here
// never rolls back the primary state change.
package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/felicity-portal/felicity-api/internal/config"
	"github.com/felicity-portal/felicity-api/internal/service"
)

type Mailer struct {
	conf *config.SMTPConfig
}

func NewMailer(conf *config.SMTPConfig) *Mailer {
	return &Mailer{
		conf: conf,
	}
}

// SendTicket emails the participant their ticket, with the QR payload rendered
// as an inline PNG. One attempt, no retries.
func (m *Mailer) SendTicket(ctx context.Context, email service.TicketEmail) error {
	png, err := qrcode.Encode(email.QRPayload, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("qrcode.Encode -> %w", err)
	}

	subject := fmt.Sprintf("Your ticket for %s", email.EventName)
	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>Your registration for <b>%s</b> is confirmed.</p>"+
			"<p>Ticket ID: <b>%s</b></p>"+
			"<p>Show this QR code at the venue:</p>"+
			`<img src="data:image/png;base64,%s" alt="ticket QR"/>`,
		email.ParticipantName, email.EventName, email.TicketID,
		base64.StdEncoding.EncodeToString(png),
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n"+
		"MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		m.conf.From, email.To, subject, body,
	)

	addr := m.conf.Host + ":" + m.conf.Port
	auth := smtp.PlainAuth("", m.conf.From, m.conf.Password, m.conf.Host)

	if err := smtp.SendMail(addr, auth, m.conf.From, []string{email.To}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp.SendMail -> %w", err)
	}

	return nil
}
