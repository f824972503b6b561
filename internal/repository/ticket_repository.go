package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/repository/common"
)

const ticketColumns = `id, user_id, request_id, title, category, priority, status, created_at, updated_at`

// TicketRepository отвечает за обращения в поддержку и ответы на них.
type TicketRepository struct {
	db *sqlx.DB
}

func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create сохраняет обращение вместе с первым сообщением.
func (r *TicketRepository) Create(ctx context.Context, t *models.Ticket, message string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		t.Status = valueobject.TicketStatusOpen
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO tickets (user_id, request_id, title, category, priority, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`, t.UserID, t.RequestID, t.Title, t.Category, t.Priority, t.Status).
			Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("ticket repository: create %w", err)
		}

		reply := models.Reply{TicketID: t.ID, UserID: t.UserID, Content: message}
		if err := insertReply(ctx, tx, &reply); err != nil {
			return err
		}
		t.Replies = []models.Reply{reply}
		return nil
	})
}

func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var t models.Ticket
	if err := r.db.GetContext(ctx, &t, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("ticket repository: get by id %w", err)
	}
	return &t, nil
}

func (r *TicketRepository) List(ctx context.Context, filter models.ListFilter) ([]models.Ticket, int, error) {
	var where common.Where
	if filter.UserID != nil {
		where.Add("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		where.Add("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		where.Add("priority = ?", filter.Priority)
	}
	if filter.Category != "" {
		where.Add("category = ?", filter.Category)
	}
	if filter.Search != "" {
		where.Add("title ILIKE ?", "%"+filter.Search+"%")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tickets`+where.SQL(), where.Args()...); err != nil {
		return nil, 0, fmt.Errorf("ticket repository: count %w", err)
	}

	page, args := where.Page(filter.Limit, filter.Offset)
	tickets := []models.Ticket{}
	query := `SELECT ` + ticketColumns + ` FROM tickets` + where.SQL() + ` ORDER BY updated_at DESC` + page
	if err := r.db.SelectContext(ctx, &tickets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("ticket repository: list %w", err)
	}
	return tickets, total, nil
}

func (r *TicketRepository) ListReplies(ctx context.Context, ticketID uuid.UUID) ([]models.Reply, error) {
	replies := []models.Reply{}
	err := r.db.SelectContext(ctx, &replies, `
		SELECT id, ticket_id, user_id, content, is_admin, created_at
		FROM ticket_replies WHERE ticket_id = $1 ORDER BY created_at ASC
	`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket repository: list replies %w", err)
	}
	return replies, nil
}

// AddReply добавляет сообщение. Закрытые обращения ответов не принимают;
// ответ администратора на открытое обращение переводит его в IN_PROGRESS.
func (r *TicketRepository) AddReply(ctx context.Context, reply *models.Reply) (*models.Ticket, error) {
	var t models.Ticket
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &t, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1 FOR UPDATE`, reply.TicketID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTicketNotFound
			}
			return fmt.Errorf("ticket repository: lock ticket %w", err)
		}
		if t.Status == valueobject.TicketStatusClosed {
			return common.ErrStatusConflict
		}

		if err := insertReply(ctx, tx, reply); err != nil {
			return err
		}

		newStatus := t.Status
		if reply.IsAdmin && t.Status == valueobject.TicketStatusOpen {
			newStatus = valueobject.TicketStatusInProgress
		}
		return tx.GetContext(ctx, &t, `
			UPDATE tickets SET status = $2, updated_at = NOW() WHERE id = $1
			RETURNING `+ticketColumns, t.ID, newStatus)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status valueobject.TicketStatus) (*models.Ticket, error) {
	var t models.Ticket
	err := r.db.GetContext(ctx, &t, `
		UPDATE tickets SET status = $2, updated_at = NOW() WHERE id = $1
		RETURNING `+ticketColumns, id, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("ticket repository: update status %w", err)
	}
	return &t, nil
}

func insertReply(ctx context.Context, tx *sqlx.Tx, reply *models.Reply) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO ticket_replies (ticket_id, user_id, content, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, reply.TicketID, reply.UserID, reply.Content, reply.IsAdmin).Scan(&reply.ID, &reply.CreatedAt)
	if err != nil {
		return fmt.Errorf("ticket repository: insert reply %w", err)
	}
	return nil
}
