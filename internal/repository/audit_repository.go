package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/academic-services-backend/internal/models"
)

// AuditRepository пишет журнал действий. Записи только добавляются.
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Add(ctx context.Context, entry *models.AuditLog) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO audit_logs (actor_id, user_id, entity_type, entity_id, action, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, entry.ActorID, entry.UserID, entry.EntityType, entry.EntityID, entry.Action,
		nullJSON(entry.OldValue), nullJSON(entry.NewValue)).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit repository: add %w", err)
	}
	return nil
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	entries := []models.AuditLog{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, actor_id, user_id, entity_type, entity_id, action, old_value, new_value, created_at
		FROM audit_logs WHERE entity_type = $1 AND entity_id = $2 ORDER BY created_at ASC
	`, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("audit repository: list %w", err)
	}
	return entries, nil
}

func nullJSON(v json.RawMessage) interface{} {
	if len(v) == 0 {
		return nil
	}
	return []byte(v)
}
