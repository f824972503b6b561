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

const disputeColumns = `id, payment_id, user_id, explanation, status, admin_response, resolved_by, created_at, resolved_at`

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create открывает спор и переводит платёж REJECTED -> UNDER_REVIEW.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	from, ok := valueobject.PaymentSource(valueobject.PaymentActionDispute, valueobject.PaymentStatusUnderReview)
	if !ok {
		return common.ErrStatusConflict
	}

	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE payments SET status = $3
			WHERE id = $1 AND user_id = $2 AND status = $4
		`, d.PaymentID, d.UserID, valueobject.PaymentStatusUnderReview, from)
		if err != nil {
			return fmt.Errorf("dispute repository: create update payment %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("dispute repository: create rows affected %w", err)
		} else if n == 0 {
			return common.ErrStatusConflict
		}

		d.Status = valueobject.DisputeStatusOpen
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO disputes (payment_id, user_id, explanation, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`, d.PaymentID, d.UserID, d.Explanation, d.Status).Scan(&d.ID, &d.CreatedAt)
		if err != nil {
			if common.IsUniqueViolation(err) {
				return ErrDisputeExists
			}
			return fmt.Errorf("dispute repository: create insert %w", err)
		}
		return nil
	})
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get by id %w", err)
	}
	return &d, nil
}

func (r *DisputeRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT `+disputeColumns+` FROM disputes WHERE payment_id = $1`, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get by payment %w", err)
	}
	return &d, nil
}

// List возвращает страницу споров.
func (r *DisputeRepository) List(ctx context.Context, filter models.ListFilter) ([]models.Dispute, int, error) {
	var where common.Where
	if filter.UserID != nil {
		where.Add("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		where.Add("status = ?", filter.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM disputes`+where.SQL(), where.Args()...); err != nil {
		return nil, 0, fmt.Errorf("dispute repository: count %w", err)
	}

	page, args := where.Page(filter.Limit, filter.Offset)
	disputes := []models.Dispute{}
	query := `SELECT ` + disputeColumns + ` FROM disputes` + where.SQL() + ` ORDER BY created_at DESC` + page
	if err := r.db.SelectContext(ctx, &disputes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("dispute repository: list %w", err)
	}
	return disputes, total, nil
}

// Resolve закрывает спор и применяет решение к платежу, а при одобрении и к заявке.
// PAYMENT_REJECTED -> PAYMENT_APPROVED допускается только здесь.
func (r *DisputeRepository) Resolve(ctx context.Context, res models.DisputeResolution) (*models.Dispute, *models.Payment, error) {
	from, ok := valueobject.PaymentSource(valueobject.PaymentActionResolve, res.Decision.PaymentStatus())
	if !ok {
		return nil, nil, common.ErrStatusConflict
	}

	var (
		d models.Dispute
		p models.Payment
	)
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &d, `
			UPDATE disputes SET status = $2, admin_response = $3, resolved_by = $4, resolved_at = $5
			WHERE id = $1 AND status = $6
			RETURNING `+disputeColumns,
			res.DisputeID, valueobject.DisputeStatusResolved, res.AdminResponse, res.ResolverID, res.ResolvedAt,
			valueobject.DisputeStatusOpen)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrStatusConflict
			}
			return fmt.Errorf("dispute repository: resolve update dispute %w", err)
		}

		err = tx.GetContext(ctx, &p, `
			UPDATE payments SET status = $2, reviewed_by = $3, reviewed_at = $4
			WHERE id = $1 AND status = $5
			RETURNING `+paymentColumns,
			d.PaymentID, res.Decision.PaymentStatus(), res.ResolverID, res.ResolvedAt, from)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrStatusConflict
			}
			return fmt.Errorf("dispute repository: resolve update payment %w", err)
		}

		if res.Decision != valueobject.DecisionApproved {
			return nil
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE requests SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = $3
		`, p.RequestID, valueobject.RequestStatusPaymentApproved, valueobject.RequestStatusPaymentRejected)
		if err != nil {
			return fmt.Errorf("dispute repository: resolve update request %w", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("dispute repository: resolve rows affected %w", err)
		} else if n == 0 {
			return common.ErrStatusConflict
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &d, &p, nil
}
