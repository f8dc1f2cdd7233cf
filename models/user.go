package models

import "time"

// NewsletterFrequency is the cadence a user picked for digest emails.
type NewsletterFrequency string

const (
	FrequencyWeekly   NewsletterFrequency = "weekly"
	FrequencyBiweekly NewsletterFrequency = "biweekly"
	FrequencyMonthly  NewsletterFrequency = "monthly"
)

// Valid reports whether f is one of the known cadence values.
func (f NewsletterFrequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// User is the account-store preference record this service consumes.
// The registration flow and the preferences form own all writes; here it
// is read-only. Deactivation only clears Active, rows are never deleted.
type User struct {
	ID                  string              `json:"id"`
	Email               string              `json:"email"`
	FirstName           string              `json:"first_name"`
	Active              bool                `json:"active"`
	EmailVerified       bool                `json:"email_verified"`
	EmailNotifications  bool                `json:"email_notifications"`
	WeeklyDigest        bool                `json:"weekly_digest"`
	NewsletterFrequency NewsletterFrequency `json:"newsletter_frequency"`
	TechniqueInterests  []string            `json:"technique_interests"`
	CreatedAt           time.Time           `json:"created_at"`
}
