package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/repository/common"
)

const notificationColumns = `id, user_id, event, payload, is_read, created_at`

// NotificationRepository хранит уведомления пользователей.
type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO notifications (user_id, event, payload)
		VALUES ($1, $2, $3)
		RETURNING id, is_read, created_at
	`, n.UserID, n.Event, []byte(n.Payload)).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("notification repository: create %w", err)
	}
	return nil
}

// List возвращает страницу уведомлений пользователя, новые первыми.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	var where common.Where
	where.Add("user_id = ?", filter.UserID)
	if filter.Event != "" {
		where.Add("event = ?", filter.Event)
	}
	if filter.UnreadOnly {
		where.Add("is_read = FALSE")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications`+where.SQL(), where.Args()...); err != nil {
		return nil, 0, fmt.Errorf("notification repository: count %w", err)
	}

	page, args := where.Page(filter.Limit, filter.Offset)
	items := []models.Notification{}
	query := `SELECT ` + notificationColumns + ` FROM notifications` + where.SQL() + ` ORDER BY created_at DESC` + page
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("notification repository: list %w", err)
	}
	return items, total, nil
}

// MarkAsRead отмечает уведомление прочитанным. Чужое уведомление считается отсутствующим.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("notification repository: mark as read %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("notification repository: mark as read %w", err)
	} else if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllAsRead возвращает число уведомлений, которые были непрочитанными.
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("notification repository: mark all as read %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("notification repository: mark all as read %w", err)
	}
	return int(n), nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID); err != nil {
		return 0, fmt.Errorf("notification repository: count unread %w", err)
	}
	return count, nil
}
