package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/repository/common"
)

// ServiceRepository отвечает за каталог услуг.
type ServiceRepository struct {
	db *sqlx.DB
}

func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// List возвращает услуги каталога; activeOnly оставляет только доступные для заказа.
func (r *ServiceRepository) List(ctx context.Context, activeOnly bool) ([]models.Service, error) {
	query := `SELECT * FROM services`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY sort_order ASC, name ASC`

	services := []models.Service{}
	if err := r.db.SelectContext(ctx, &services, query); err != nil {
		return nil, fmt.Errorf("service repository: list %w", err)
	}
	return services, nil
}

func (r *ServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	return common.GetByID[models.Service](ctx, r.db, "services", id, ErrServiceNotFound)
}

// Create добавляет услугу; slug уникален.
func (r *ServiceRepository) Create(ctx context.Context, s *models.Service) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO services (name, slug, description, price, currency, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, s.Name, s.Slug, s.Description, s.Price, s.Currency, s.IsActive, s.SortOrder).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("service repository: create %w", err)
	}
	return nil
}

// CreateIfAbsent добавляет услугу, если slug ещё не занят. Возвращает false, если услуга уже была.
func (r *ServiceRepository) CreateIfAbsent(ctx context.Context, s *models.Service) (bool, error) {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO services (name, slug, description, price, currency, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO NOTHING
		RETURNING id, created_at, updated_at
	`, s.Name, s.Slug, s.Description, s.Price, s.Currency, s.IsActive, s.SortOrder).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("service repository: create if absent %w", err)
	}
	return true, nil
}

func (r *ServiceRepository) Update(ctx context.Context, s *models.Service) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE services SET name = $2, slug = $3, description = $4, price = $5, currency = $6,
			is_active = $7, sort_order = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, s.ID, s.Name, s.Slug, s.Description, s.Price, s.Currency, s.IsActive, s.SortOrder).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrServiceNotFound
		}
		if common.IsUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("service repository: update %w", err)
	}
	return nil
}

// Delete удаляет услугу. Услуги, на которые ссылаются заявки, не удаляются.
func (r *ServiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var inUse bool
		if err := tx.GetContext(ctx, &inUse, `SELECT EXISTS (SELECT 1 FROM requests WHERE service_id = $1)`, id); err != nil {
			return fmt.Errorf("service repository: check usage %w", err)
		}
		if inUse {
			return ErrServiceInUse
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
		if err != nil {
			if common.IsForeignKeyViolation(err) {
				return ErrServiceInUse
			}
			return fmt.Errorf("service repository: delete %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("service repository: delete rows affected %w", err)
		} else if n == 0 {
			return ErrServiceNotFound
		}
		return nil
	})
}
