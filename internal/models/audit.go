package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Сущности, попадающие в журнал аудита.
const (
	EntityRequest     = "request"
	EntityPayment     = "payment"
	EntityDispute     = "dispute"
	EntityDeliverable = "deliverable"
	EntityUser        = "user"
	EntityService     = "service"
	EntityTicket      = "ticket"
)

// AuditLog - неизменяемая запись о действии над сущностью.
type AuditLog struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	ActorID    *uuid.UUID      `db:"actor_id" json:"actorId,omitempty"`
	UserID     *uuid.UUID      `db:"user_id" json:"userId,omitempty"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   uuid.UUID       `db:"entity_id" json:"entityId"`
	Action     string          `db:"action" json:"action"`
	OldValue   json.RawMessage `db:"old_value" json:"oldValue,omitempty"`
	NewValue   json.RawMessage `db:"new_value" json:"newValue,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// Notification - сохранённое уведомление пользователя.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"userId"`
	Event     string          `db:"event" json:"event"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	IsRead    bool            `db:"is_read" json:"isRead"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// NotificationFilter - выборка уведомлений одного пользователя.
type NotificationFilter struct {
	UserID     uuid.UUID
	Event      string
	UnreadOnly bool
	Limit      int
	Offset     int
}
