package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fishandtips/newsletter/models"
	"github.com/lib/pq"
)

// ActivityRepository owns the append-only user_activity audit log.
type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Insert appends one audit row.
func (r *ActivityRepository) Insert(ctx context.Context, activity *models.UserActivity) error {
	query := `
		INSERT INTO user_activity (id, user_id, action, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		activity.ID,
		activity.UserID,
		activity.Action,
		activity.Metadata,
		activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity %s (%s): %w", activity.ID, activity.Action, err)
	}
	return nil
}

// RecentByActions returns the newest rows whose action is in actions,
// most recent first.
func (r *ActivityRepository) RecentByActions(ctx context.Context, actions []string, limit int) ([]models.UserActivity, error) {
	query := `
		SELECT id, user_id, action, metadata, created_at
		FROM user_activity
		WHERE action = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(actions), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent activity: %w", err)
	}
	return collectActivities(rows)
}

// DeleteOlderThan removes audit rows created before cutoff and reports
// how many were deleted. Used by the retention job.
func (r *ActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_activity WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete activity older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted activity rows: %w", err)
	}
	return deleted, nil
}

func collectActivities(rows *sql.Rows) ([]models.UserActivity, error) {
	defer rows.Close()

	var activities []models.UserActivity
	for rows.Next() {
		var a models.UserActivity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return activities, nil
}
