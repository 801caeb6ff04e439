package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"payssd/internal/platform/models"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *models.Notification) error {
	if n.ID == "" {
		n.ID = "ntf_" + uuid.New().String()
	}
	n.CreatedAt = time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO notifications (id, user_id, type, title, body, link, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Type, n.Title, n.Body, n.Link, n.CreatedAt)
	return err
}

func (r *NotificationRepository) ListByUser(userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	query := `SELECT id, user_id, type, title, body, link, read_at, created_at FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.Query(query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var readAt sql.NullInt64

		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Link, &readAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			n.ReadAt = &readAt.Int64
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) CountUnread(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL`, userID).Scan(&count)
	return count, err
}

// MarkRead is scoped to the owning user so one user cannot mark another's
// notifications.
func (r *NotificationRepository) MarkRead(userID, id string, now int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE notifications SET read_at = ? WHERE id = ? AND user_id = ? AND read_at IS NULL
	`, now, id, userID)
	return oneRow(res, err)
}

func (r *NotificationRepository) MarkAllRead(userID string, now int64) (int64, error) {
	res, err := r.db.Exec(`UPDATE notifications SET read_at = ? WHERE user_id = ? AND read_at IS NULL`, now, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
