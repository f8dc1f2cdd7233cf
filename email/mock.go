package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// MockProvider logs instead of sending. Used for local development when
// no Brevo API key is configured.
type MockProvider struct {
	logger  *slog.Logger
	counter atomic.Int64
}

func NewMockProvider(logger *slog.Logger) *MockProvider {
	return &MockProvider{logger: logger}
}

// Send implements Provider.
func (m *MockProvider) Send(_ context.Context, msg Message) (string, error) {
	id := fmt.Sprintf("mock-%d", m.counter.Add(1))
	m.logger.Info("MOCK EMAIL",
		"to", msg.To,
		"subject", msg.Subject,
		"tags", msg.Tags,
		"body_length", len(msg.HTML),
		"message_id", id)
	return id, nil
}
