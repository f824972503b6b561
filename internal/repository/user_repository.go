package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/repository/common"
)

const userColumns = `id, name, email, role, is_suspended, suspended_reason, suspended_at, created_at, updated_at`

// UserRepository отвечает за работу с таблицей users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	if err := r.db.QueryRowxContext(ctx, query, user.Name, user.Email, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("user repository: create %w", err)
	}
	return nil
}

// Provision создаёт пользователя с идентификатором от провайдера идентификации.
// Если запись с этим id уже есть (параллельный первый запрос), возвращает её и created=false.
// Email, занятый другим аккаунтом, даёт ErrEmailTaken.
func (r *UserRepository) Provision(ctx context.Context, user *models.User) (bool, error) {
	query := `
		INSERT INTO users (id, name, email, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
		RETURNING ` + userColumns
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	err := r.db.QueryRowxContext(ctx, query, user.ID, user.Name, user.Email, user.Role).StructScan(user)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("user repository: provision %w", err)
	}

	existing, err := r.GetByID(ctx, user.ID)
	if errors.Is(err, ErrUserNotFound) {
		return false, ErrEmailTaken
	}
	if err != nil {
		return false, err
	}
	*user = *existing
	return false, nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}
	return &user, nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := r.db.GetContext(ctx, &user, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}
	return &user, nil
}

// List возвращает страницу пользователей для админки.
func (r *UserRepository) List(ctx context.Context, filter models.ListFilter) ([]models.User, int, error) {
	var where common.Where
	if filter.Search != "" {
		where.Add("(name ILIKE ? OR email ILIKE ?)", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	if filter.Role != "" {
		where.Add("role = ?", filter.Role)
	}
	if filter.Suspended != nil {
		where.Add("is_suspended = ?", *filter.Suspended)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+where.SQL(), where.Args()...); err != nil {
		return nil, 0, fmt.Errorf("user repository: count %w", err)
	}

	page, args := where.Page(filter.Limit, filter.Offset)
	users := []models.User{}
	query := `SELECT ` + userColumns + ` FROM users` + where.SQL() + ` ORDER BY created_at DESC` + page
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("user repository: list %w", err)
	}
	return users, total, nil
}

// ListAdminIDs возвращает идентификаторы всех администраторов.
func (r *UserRepository) ListAdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users WHERE role = $1`, valueobject.RoleAdmin); err != nil {
		return nil, fmt.Errorf("user repository: list admins %w", err)
	}
	return ids, nil
}

// SetSuspension блокирует или разблокирует пользователя.
func (r *UserRepository) SetSuspension(ctx context.Context, id uuid.UUID, suspended bool, reason *string) (*models.User, error) {
	if !suspended {
		reason = nil
	}
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET
			is_suspended = $2,
			suspended_reason = $3,
			suspended_at = CASE WHEN $2 THEN NOW() ELSE NULL END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, suspended, reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: set suspension %w", err)
	}
	return &user, nil
}
