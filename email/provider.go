// Package email sends transactional mail through a pluggable provider.
package email

import "context"

// Message is one outbound transactional email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
	// Tags are attached provider-side for analytics, e.g.
	// "category=newsletter" and "user_id=<id>".
	Tags []string
}

// Provider is the adapter interface for transactional email services.
// Send returns the provider-assigned message id on success.
type Provider interface {
	Send(ctx context.Context, msg Message) (string, error)
}
