package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const brevoSendEndpoint = "https://api.brevo.com/v3/smtp/email"

// BrevoProvider sends mail via the Brevo transactional API. Failed
// sends are not retried here; the dispatch pipeline counts them and the
// next scheduled cadence is the only recurrence.
type BrevoProvider struct {
	apiKey    string
	fromEmail string
	fromName  string
	endpoint  string
	client    *http.Client
	logger    *slog.Logger
}

func NewBrevoProvider(apiKey, fromEmail, fromName string, logger *slog.Logger) *BrevoProvider {
	return &BrevoProvider{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		endpoint:  brevoSendEndpoint,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

// Brevo v3 smtp/email payload types.
type brevoSendRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoSendResponse struct {
	MessageID string `json:"messageId"`
}

// Send implements Provider.
func (p *BrevoProvider) Send(ctx context.Context, msg Message) (string, error) {
	payload := brevoSendRequest{
		Sender:      brevoContact{Email: p.fromEmail, Name: p.fromName},
		To:          []brevoContact{{Email: msg.To, Name: msg.ToName}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
		TextContent: msg.Text,
		Tags:        msg.Tags,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal Brevo payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create Brevo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", p.apiKey)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Brevo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("Brevo returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result brevoSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode Brevo response: %w", err)
	}

	p.logger.Info("Email sent via Brevo",
		"to", msg.To,
		"message_id", result.MessageID,
		"duration_ms", time.Since(start).Milliseconds())

	return result.MessageID, nil
}
