package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fishandtips/newsletter/models"
	"github.com/lib/pq"
)

const userColumns = `
	id, email, first_name, active, email_verified,
	email_notifications, weekly_digest, newsletter_frequency,
	technique_interests, created_at
`

// UserRepository reads user preference records from the account store.
// This service never writes users; registration and the preferences
// form own that table.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a single user. Returns sql.ErrNoRows (wrapped) when
// the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, userID)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user, nil
}

// ListBulkEligible returns the users targeted by the ad-hoc bulk send:
// active, email-verified, with both email and weekly-digest notifications
// enabled. Deliberately does not filter on newsletter_frequency; that is
// the cadence-cohort query's job.
func (r *UserRepository) ListBulkEligible(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE active = TRUE
		  AND email_verified = TRUE
		  AND email_notifications = TRUE
		  AND weekly_digest = TRUE
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bulk-eligible users: %w", err)
	}
	return collectUsers(rows)
}

// ListCadenceCohort returns the bulk-eligible users whose configured
// newsletter frequency matches freq.
func (r *UserRepository) ListCadenceCohort(ctx context.Context, freq models.NewsletterFrequency) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE active = TRUE
		  AND email_verified = TRUE
		  AND email_notifications = TRUE
		  AND weekly_digest = TRUE
		  AND newsletter_frequency = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, string(freq))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s cadence cohort: %w", freq, err)
	}
	return collectUsers(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var interests pq.StringArray
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.Active,
		&user.EmailVerified,
		&user.EmailNotifications,
		&user.WeeklyDigest,
		&user.NewsletterFrequency,
		&interests,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.TechniqueInterests = []string(interests)
	return &user, nil
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}
