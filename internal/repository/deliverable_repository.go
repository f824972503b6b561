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

// DeliverableRepository отвечает за файлы с результатами работ.
type DeliverableRepository struct {
	db *sqlx.DB
}

func NewDeliverableRepository(db *sqlx.DB) *DeliverableRepository {
	return &DeliverableRepository{db: db}
}

// Create сохраняет результат. Строка заявки блокируется на время транзакции,
// поэтому при одновременных загрузках переход в DELIVERED выполняется ровно один раз.
// Возвращает true, если эта загрузка перевела заявку в DELIVERED; delivered_at = d.CreatedAt.
func (r *DeliverableRepository) Create(ctx context.Context, d *models.Deliverable) (bool, error) {
	var delivered bool
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var status valueobject.RequestStatus
		err := tx.GetContext(ctx, &status, `SELECT status FROM requests WHERE id = $1 FOR UPDATE`, d.RequestID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("deliverable repository: lock request %w", err)
		}
		if !status.AcceptsDeliverables() {
			return common.ErrStatusConflict
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO deliverables (request_id, uploaded_by, file_name, file_url, file_type, file_size, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at
		`, d.RequestID, d.UploadedBy, d.FileName, d.FileURL, d.FileType, d.FileSize, d.Description, d.CreatedAt).
			Scan(&d.ID, &d.CreatedAt)
		if err != nil {
			return fmt.Errorf("deliverable repository: insert %w", err)
		}

		if status == valueobject.RequestStatusDelivered {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE requests SET status = $2, delivered_at = $3, updated_at = NOW()
			WHERE id = $1
		`, d.RequestID, valueobject.RequestStatusDelivered, d.CreatedAt); err != nil {
			return fmt.Errorf("deliverable repository: mark delivered %w", err)
		}
		delivered = true
		return nil
	})
	return delivered, err
}

// ListByRequest возвращает результаты по заявке в порядке загрузки.
func (r *DeliverableRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Deliverable, error) {
	deliverables := []models.Deliverable{}
	err := r.db.SelectContext(ctx, &deliverables, `
		SELECT id, request_id, uploaded_by, file_name, file_url, file_type, file_size, description, created_at
		FROM deliverables WHERE request_id = $1 ORDER BY created_at ASC
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: list %w", err)
	}
	return deliverables, nil
}
