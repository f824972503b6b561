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

const paymentColumns = `id, request_id, user_id, reference_number, amount, currency, receipt_url, status,
	rejection_reason, fraud_flagged, fraud_notes, reviewed_by, reviewed_at, created_at`

// PaymentRepository хранит подтверждения оплаты и переводит связанные заявки.
type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Submit создаёт платёж и переводит заявку CREATED -> PAYMENT_SUBMITTED в одной транзакции.
// Условие на статус и уникальный индекс по активному платежу гарантируют,
// что из двух одновременных отправок успешна только одна.
func (r *PaymentRepository) Submit(ctx context.Context, p *models.Payment) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE requests SET status = $3, updated_at = NOW()
			WHERE id = $1 AND user_id = $2 AND status = $4
		`, p.RequestID, p.UserID, valueobject.RequestStatusPaymentSubmitted, valueobject.RequestStatusCreated)
		if err != nil {
			return fmt.Errorf("payment repository: submit update request %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("payment repository: submit rows affected %w", err)
		} else if n == 0 {
			return common.ErrStatusConflict
		}

		p.Status = valueobject.PaymentStatusPending
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO payments (request_id, user_id, reference_number, amount, currency, receipt_url, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, amount, created_at
		`, p.RequestID, p.UserID, p.ReferenceNumber, p.Amount, p.Currency, p.ReceiptURL, p.Status).
			Scan(&p.ID, &p.Amount, &p.CreatedAt)
		if err != nil {
			if common.IsUniqueViolation(err) {
				return ErrPaymentExists
			}
			return fmt.Errorf("payment repository: submit insert %w", err)
		}
		return nil
	})
}

// GetByID возвращает платёж по идентификатору.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.GetContext(ctx, &p, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get by id %w", err)
	}
	return &p, nil
}

// GetLatestByRequest возвращает последний платёж по заявке.
func (r *PaymentRepository) GetLatestByRequest(ctx context.Context, requestID uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE request_id = $1 ORDER BY created_at DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &p, query, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get latest by request %w", err)
	}
	return &p, nil
}

// List возвращает страницу платежей.
func (r *PaymentRepository) List(ctx context.Context, filter models.ListFilter) ([]models.Payment, int, error) {
	var where common.Where
	if filter.UserID != nil {
		where.Add("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		where.Add("status = ?", filter.Status)
	}
	if filter.Search != "" {
		where.Add("reference_number ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.FraudFlagged != nil {
		where.Add("fraud_flagged = ?", *filter.FraudFlagged)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM payments`+where.SQL(), where.Args()...); err != nil {
		return nil, 0, fmt.Errorf("payment repository: count %w", err)
	}

	page, args := where.Page(filter.Limit, filter.Offset)
	payments := []models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments` + where.SQL() + ` ORDER BY created_at DESC` + page
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("payment repository: list %w", err)
	}
	return payments, total, nil
}

// Review фиксирует решение администратора: платёж PENDING -> APPROVED|REJECTED
// и заявка PAYMENT_SUBMITTED -> PAYMENT_APPROVED|PAYMENT_REJECTED атомарно.
func (r *PaymentRepository) Review(ctx context.Context, review models.PaymentReview) (*models.Payment, error) {
	from, ok := valueobject.PaymentSource(valueobject.PaymentActionReview, review.Decision.PaymentStatus())
	if !ok {
		return nil, common.ErrStatusConflict
	}

	var p models.Payment
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &p, `
			UPDATE payments SET
				status = $2,
				rejection_reason = $3,
				fraud_flagged = $4,
				fraud_notes = $5,
				reviewed_by = $6,
				reviewed_at = $7
			WHERE id = $1 AND status = $8
			RETURNING `+paymentColumns,
			review.PaymentID,
			review.Decision.PaymentStatus(),
			review.RejectionReason,
			review.FraudFlagged,
			review.FraudNotes,
			review.ReviewerID,
			review.ReviewedAt,
			from,
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrStatusConflict
			}
			return fmt.Errorf("payment repository: review update payment %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE requests SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = $3
		`, p.RequestID, review.Decision.RequestStatus(), valueobject.RequestStatusPaymentSubmitted)
		if err != nil {
			return fmt.Errorf("payment repository: review update request %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("payment repository: review rows affected %w", err)
		} else if n == 0 {
			return common.ErrStatusConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
