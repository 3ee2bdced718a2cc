package repository

import (
	"context"
	"time"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

// HasUnresolvedNotification reports whether an unresolved notification
// with the given dedup key already exists.
func (r *Repository) HasUnresolvedNotification(ctx context.Context, dedupKey string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM scheduler.notifications
			WHERE dedup_key = $1 AND status <> $2
		)`
	if err := r.db.QueryRowContext(ctx, query, dedupKey, models.NotificationResolved).Scan(&exists); err != nil {
		return false, persistence("check notification", err)
	}
	return exists, nil
}

// CreateNotification stores a new notification.
func (r *Repository) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO scheduler.notifications (profile_id, type, payload, dedup_key, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, $6)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, n.ProfileID, n.Type, n.Payload, n.DedupKey, n.Status, n.ExpiresAt).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return persistence("create notification", err)
	}
	return nil
}

// DeleteExpiredNotifications removes notifications whose expires_at has
// passed as of the given date.
func (r *Repository) DeleteExpiredNotifications(ctx context.Context, asOf time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scheduler.notifications WHERE expires_at <= $1`, asOf)
	if err != nil {
		return 0, persistence("delete expired notifications", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteTerminalNotificationsBefore removes read or resolved
// notifications created before the cutoff.
func (r *Repository) DeleteTerminalNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM scheduler.notifications
		WHERE status IN ($1, $2) AND created_at < $3`
	res, err := r.db.ExecContext(ctx, query, models.NotificationRead, models.NotificationResolved, cutoff)
	if err != nil {
		return 0, persistence("delete terminal notifications", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
