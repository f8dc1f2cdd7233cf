// Package dispatch orchestrates newsletter sends: preconditions,
// selection, rendering, provider call, and the audit trail.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/fishandtips/newsletter/email"
	"github.com/fishandtips/newsletter/models"
	"github.com/fishandtips/newsletter/render"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// UserStore is the read-only slice of the account store this service needs.
type UserStore interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	ListBulkEligible(ctx context.Context) ([]models.User, error)
	ListCadenceCohort(ctx context.Context, freq models.NewsletterFrequency) ([]models.User, error)
}

// ActivityStore appends audit rows.
type ActivityStore interface {
	Insert(ctx context.Context, activity *models.UserActivity) error
}

// ArticleSelector resolves the articles one user's newsletter carries.
type ArticleSelector interface {
	SelectForUser(ctx context.Context, user models.User) []models.ScoredArticle
}

// BulkResult aggregates per-user outcomes of a bulk operation.
type BulkResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Service runs the send pipeline. Bulk operations iterate strictly
// sequentially, gated by token-bucket limiters that replace fixed
// inter-send sleeps: bulkLimiter paces the ad-hoc all-users path,
// cohortLimiter the scheduled cadence path.
type Service struct {
	users         UserStore
	activity      ActivityStore
	selector      ArticleSelector
	provider      email.Provider
	bulkLimiter   *rate.Limiter
	cohortLimiter *rate.Limiter
	fromEmail     string
	fromName      string
	siteBaseURL   string
	logger        *slog.Logger
}

func NewService(
	users UserStore,
	activity ActivityStore,
	selector ArticleSelector,
	provider email.Provider,
	bulkLimiter *rate.Limiter,
	cohortLimiter *rate.Limiter,
	fromEmail string,
	fromName string,
	siteBaseURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:         users,
		activity:      activity,
		selector:      selector,
		provider:      provider,
		bulkLimiter:   bulkLimiter,
		cohortLimiter: cohortLimiter,
		fromEmail:     fromEmail,
		fromName:      fromName,
		siteBaseURL:   siteBaseURL,
		logger:        logger,
	}
}

// SendPersonalized sends one personalized newsletter. Preconditions are
// checked in order and short-circuit to false with no email and no
// audit row: the user must exist, be active, and have email
// notifications enabled. Zero selected articles also means no send.
// Failures never escape as errors; the caller gets a boolean.
func (s *Service) SendPersonalized(ctx context.Context, userID string) bool {
	user, ok := s.loadSendableUser(ctx, userID)
	if !ok {
		return false
	}

	articles := s.selector.SelectForUser(ctx, *user)
	if len(articles) == 0 {
		s.logger.Info("No articles to send, skipping newsletter", "user_id", user.ID)
		return false
	}

	htmlBody := render.Newsletter(*user, articles, s.unsubscribeURL(user), s.preferencesURL(user))
	subject := fmt.Sprintf("🎣 %s, ecco i migliori articoli di pesca per te!", user.FirstName)

	messageID, ok := s.send(ctx, user, subject, htmlBody, "category=newsletter")
	if !ok {
		return false
	}

	sent := make([]models.SentArticle, 0, len(articles))
	for _, a := range articles {
		sent = append(sent, models.SentArticle{ID: a.ID, Title: a.Title, Score: a.Score})
	}
	s.recordSend(ctx, user.ID, models.ActionNewsletterSent, models.SendMetadata{
		MessageID:     messageID,
		ArticlesCount: len(sent),
		Articles:      sent,
		SentAt:        time.Now().UTC(),
	})
	return true
}

// SendWelcome sends the post-registration welcome email.
func (s *Service) SendWelcome(ctx context.Context, userID string) bool {
	user, ok := s.loadSendableUser(ctx, userID)
	if !ok {
		return false
	}

	htmlBody := render.Welcome(*user, s.preferencesURL(user))
	subject := fmt.Sprintf("🎣 Benvenuto su FishandTips, %s!", user.FirstName)

	messageID, ok := s.send(ctx, user, subject, htmlBody, "category=welcome")
	if !ok {
		return false
	}
	s.recordSend(ctx, user.ID, models.ActionWelcomeSent, models.SendMetadata{
		MessageID: messageID,
		SentAt:    time.Now().UTC(),
	})
	return true
}

// SendPreferencesConfirmation confirms a saved preferences form.
func (s *Service) SendPreferencesConfirmation(ctx context.Context, userID string) bool {
	user, ok := s.loadSendableUser(ctx, userID)
	if !ok {
		return false
	}

	htmlBody := render.PreferencesChanged(*user, s.preferencesURL(user))
	subject := fmt.Sprintf("✅ Preferenze aggiornate, %s", user.FirstName)

	messageID, ok := s.send(ctx, user, subject, htmlBody, "category=preferences")
	if !ok {
		return false
	}
	s.recordSend(ctx, user.ID, models.ActionPreferencesConfirmationSent, models.SendMetadata{
		MessageID: messageID,
		SentAt:    time.Now().UTC(),
	})
	return true
}

// SendToAllRegardlessOfCadence is the ad-hoc admin "send to everyone"
// action. It targets every active, verified user with email and
// weekly-digest notifications enabled, ignoring each user's configured
// newsletter frequency. A non-nil error means the eligible-user query
// itself failed; per-user failures only increment Failed.
func (s *Service) SendToAllRegardlessOfCadence(ctx context.Context) (BulkResult, error) {
	users, err := s.users.ListBulkEligible(ctx)
	if err != nil {
		return BulkResult{}, fmt.Errorf("failed to list bulk-eligible users: %w", err)
	}
	return s.sendSequentially(ctx, users, s.bulkLimiter), nil
}

// SendToCadenceCohort sends to the bulk-eligible users whose configured
// frequency matches freq. Used by the scheduled cadence runs.
func (s *Service) SendToCadenceCohort(ctx context.Context, freq models.NewsletterFrequency) (BulkResult, error) {
	users, err := s.users.ListCadenceCohort(ctx, freq)
	if err != nil {
		return BulkResult{}, fmt.Errorf("failed to list %s cohort: %w", freq, err)
	}
	return s.sendSequentially(ctx, users, s.cohortLimiter), nil
}

func (s *Service) sendSequentially(ctx context.Context, users []models.User, limiter *rate.Limiter) BulkResult {
	var result BulkResult
	for _, user := range users {
		if err := limiter.Wait(ctx); err != nil {
			s.logger.Warn("Bulk send interrupted",
				"remaining", len(users)-result.Success-result.Failed,
				"error", err)
			break
		}
		if s.SendPersonalized(ctx, user.ID) {
			result.Success++
		} else {
			result.Failed++
		}
	}
	return result
}

// loadSendableUser runs the shared precondition chain.
func (s *Service) loadSendableUser(ctx context.Context, userID string) (*models.User, bool) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Skipping send, user lookup failed", "user_id", userID, "error", err)
		return nil, false
	}
	if !user.Active {
		s.logger.Info("Skipping send, user inactive", "user_id", userID)
		return nil, false
	}
	if !user.EmailNotifications {
		s.logger.Info("Skipping send, email notifications disabled", "user_id", userID)
		return nil, false
	}
	return user, true
}

func (s *Service) send(ctx context.Context, user *models.User, subject, htmlBody, categoryTag string) (string, bool) {
	messageID, err := s.provider.Send(ctx, email.Message{
		To:      user.Email,
		ToName:  user.FirstName,
		Subject: subject,
		HTML:    htmlBody,
		Text:    render.PlainText(htmlBody),
		Tags:    []string{categoryTag, "user_id=" + user.ID},
	})
	if err != nil {
		s.logger.Error("Provider rejected send", "user_id", user.ID, "error", err)
		return "", false
	}
	return messageID, true
}

// recordSend writes the audit row for a completed send. The email is
// already out; an audit failure is logged and swallowed, which means a
// crash or error here leaves mail without a matching audit entry.
func (s *Service) recordSend(ctx context.Context, userID, action string, metadata models.SendMetadata) {
	encoded, err := models.EncodeMetadata(metadata)
	if err != nil {
		s.logger.Warn("Failed to encode send metadata", "user_id", userID, "error", err)
		encoded = "{}"
	}
	err = s.activity.Insert(ctx, &models.UserActivity{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Metadata:  encoded,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("Failed to record send activity", "user_id", userID, "action", action, "error", err)
	}
}

func (s *Service) unsubscribeURL(user *models.User) string {
	return fmt.Sprintf("%s/unsubscribe?email=%s", s.siteBaseURL, url.QueryEscape(user.Email))
}

func (s *Service) preferencesURL(user *models.User) string {
	return fmt.Sprintf("%s/preferences?userId=%s", s.siteBaseURL, url.QueryEscape(user.ID))
}
