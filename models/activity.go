package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Actions recorded in the user_activity audit log.
const (
	ActionNewsletterSent              = "newsletter_sent"
	ActionNewsletterWeeklySent        = "newsletter_weekly_sent"
	ActionNewsletterBiweeklySent      = "newsletter_biweekly_sent"
	ActionNewsletterMonthlySent       = "newsletter_monthly_sent"
	ActionWelcomeSent                 = "welcome_sent"
	ActionPreferencesConfirmationSent = "preferences_confirmation_sent"
	ActionLogin                       = "login"
)

// SystemActor is recorded as the user id on aggregate rows produced by
// scheduled runs, which have no single subject user.
const SystemActor = "system"

// UserActivity is one append-only audit row. Metadata is JSON whose
// shape depends on Action; a retention job deletes rows older than 90 days.
type UserActivity struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// SendMetadata is the metadata payload for newsletter_sent (and the
// welcome/preferences confirmation actions, which leave Articles empty).
type SendMetadata struct {
	MessageID     string        `json:"messageId"`
	ArticlesCount int           `json:"articlesCount"`
	Articles      []SentArticle `json:"articles,omitempty"`
	SentAt        time.Time     `json:"sentAt"`
}

// SentArticle is the per-article score breakdown stored with a send.
type SentArticle struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// RunMetadata is the metadata payload for newsletter_<cadence>_sent
// aggregate rows written once per scheduled run.
type RunMetadata struct {
	TotalUsers int       `json:"totalUsers"`
	Success    int       `json:"success"`
	Failed     int       `json:"failed"`
	Timestamp  time.Time `json:"timestamp"`
}

// EncodeMetadata serializes a typed metadata payload for storage.
func EncodeMetadata(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode activity metadata: %w", err)
	}
	return string(b), nil
}

// RunMetadata decodes the row's metadata as an aggregate-run payload.
func (a *UserActivity) RunMetadata() (*RunMetadata, error) {
	var m RunMetadata
	if err := json.Unmarshal([]byte(a.Metadata), &m); err != nil {
		return nil, fmt.Errorf("failed to decode run metadata for activity %s: %w", a.ID, err)
	}
	return &m, nil
}

// SendMetadata decodes the row's metadata as a single-send payload.
func (a *UserActivity) SendMetadata() (*SendMetadata, error) {
	var m SendMetadata
	if err := json.Unmarshal([]byte(a.Metadata), &m); err != nil {
		return nil, fmt.Errorf("failed to decode send metadata for activity %s: %w", a.ID, err)
	}
	return &m, nil
}
