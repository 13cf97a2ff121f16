package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/felicity-portal/felicity-api/internal/domain"
)

// DiscordNotifier posts a message to an organiser's Discord webhook when one
// of their events goes live.
type DiscordNotifier struct {
	client *http.Client
}

func NewDiscordNotifier() *DiscordNotifier {
	return &DiscordNotifier{
		client: http.DefaultClient,
	}
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Fields      []struct {
		Name   string `json:"name"`
		Value  string `json:"value"`
		Inline bool   `json:"inline"`
	} `json:"fields,omitempty"`
}

type discordMessage struct {
	Content string         `json:"content"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

func (n *DiscordNotifier) NotifyPublish(ctx context.Context, webhookURL string, event domain.Event) error {
	embed := discordEmbed{
		Title:       event.Name,
		Description: event.Description,
	}
	addField := func(name, value string) {
		if value == "" {
			return
		}
		embed.Fields = append(embed.Fields, struct {
			Name   string `json:"name"`
			Value  string `json:"value"`
			Inline bool   `json:"inline"`
		}{Name: name, Value: value, Inline: true})
	}
	addField("Venue", event.Venue)
	if !event.StartTime.IsZero() {
		addField("Starts", event.StartTime.Format("02 Jan 2006 15:04"))
	}
	if !event.RegistrationDeadline.IsZero() {
		addField("Register by", event.RegistrationDeadline.Format("02 Jan 2006 15:04"))
	}

	payload, err := json.Marshal(discordMessage{
		Content: fmt.Sprintf("📢 **%s** is now open for registrations!", event.Name),
		Embeds:  []discordEmbed{embed},
	})
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("n.client.Do -> %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("discord webhook returned %v", resp.StatusCode)
	}

	return nil
}
