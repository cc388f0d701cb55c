package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pgrep/reputation-api/internal/models"
)

// InsertNotification queues a message for a user.
func (s *Store) InsertNotification(ctx context.Context, recipient, message string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO pgrep_notifications (recipient_steam_id, message) VALUES ($1, $2)
	`, recipient, message)
	return eris.Wrap(err, "store: insert notification")
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, recipient_steam_id, message, created_at, read_at
		FROM pgrep_notifications
		WHERE recipient_steam_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, recipient, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list notifications")
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.RecipientSteamID, &n.Message, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, eris.Wrap(err, "store: scan notification")
		}
		out = append(out, n)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate notifications")
}

// MarkNotificationsRead marks all unread notifications of a user as read.
func (s *Store) MarkNotificationsRead(ctx context.Context, recipient string, at time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE pgrep_notifications SET read_at = $2
		WHERE recipient_steam_id = $1 AND read_at IS NULL
	`, recipient, at)
	if err != nil {
		return 0, eris.Wrap(err, "store: mark notifications read")
	}
	return tag.RowsAffected(), nil
}
