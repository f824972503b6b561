package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/repository/common"
)

const requestColumns = `id, user_id, service_id, title, instructions, academic_level, deadline, notes,
	status, created_at, updated_at, delivered_at, closed_at`

// RequestRepository отвечает за работу с заявками студентов.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository создаёт новый экземпляр.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create сохраняет заявку в статусе CREATED.
func (r *RequestRepository) Create(ctx context.Context, req *models.Request) error {
	query := `
		INSERT INTO requests (user_id, service_id, title, instructions, academic_level, deadline, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	req.Status = valueobject.RequestStatusCreated

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		req.UserID,
		req.ServiceID,
		req.Title,
		req.Instructions,
		req.AcademicLevel,
		req.Deadline,
		req.Notes,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt); err != nil {
		if common.IsForeignKeyViolation(err) {
			return ErrServiceNotFound
		}
		return fmt.Errorf("request repository: create %w", err)
	}
	return nil
}

// GetByID возвращает заявку по идентификатору.
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	var req models.Request
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repository: get by id %w", err)
	}
	return &req, nil
}

// List возвращает страницу заявок с фильтрацией по владельцу, статусу и тексту.
func (r *RequestRepository) List(ctx context.Context, filter models.ListFilter) ([]models.Request, int, error) {
	var where common.Where
	if filter.UserID != nil {
		where.Add("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		where.Add("status = ?", filter.Status)
	}
	if filter.Search != "" {
		where.Add("(title ILIKE ? OR instructions ILIKE ?)", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM requests`+where.SQL(), where.Args()...); err != nil {
		return nil, 0, fmt.Errorf("request repository: count %w", err)
	}

	page, args := where.Page(filter.Limit, filter.Offset)
	requests := []models.Request{}
	query := `SELECT ` + requestColumns + ` FROM requests` + where.SQL() + ` ORDER BY created_at DESC` + page
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("request repository: list %w", err)
	}
	return requests, total, nil
}

// Transition атомарно переводит заявку в статус to. Обновление выполняется только
// из статусов, для которых переход разрешён; иначе возвращается ErrStatusConflict.
// at становится временем доставки или закрытия.
func (r *RequestRepository) Transition(ctx context.Context, id uuid.UUID, to valueobject.RequestStatus, at time.Time) (*models.Request, error) {
	sources := valueobject.SourcesOf(to)
	if len(sources) == 0 {
		return nil, common.ErrStatusConflict
	}
	from := make([]string, 0, len(sources))
	for _, s := range sources {
		from = append(from, string(s))
	}

	query := `
		UPDATE requests SET
			status = $2,
			updated_at = NOW(),
			delivered_at = CASE WHEN $2 = 'DELIVERED' THEN COALESCE(delivered_at, $4) ELSE delivered_at END,
			closed_at = CASE WHEN $2 = 'CLOSED' THEN $4 ELSE closed_at END
		WHERE id = $1 AND status = ANY($3)
		RETURNING ` + requestColumns

	var req models.Request
	if err := r.db.GetContext(ctx, &req, query, id, to, pq.Array(from), at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, common.ErrStatusConflict
		}
		return nil, fmt.Errorf("request repository: transition %w", err)
	}
	return &req, nil
}
