package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/academic-services-backend/internal/logger"
	"github.com/ignatzorin/academic-services-backend/internal/models"
)

// События уведомлений.
const (
	EventRequestCreated      = "request.created"
	EventRequestInProgress   = "request.in_progress"
	EventRequestClosed       = "request.closed"
	EventPaymentSubmitted    = "payment.submitted"
	EventPaymentReviewed     = "payment.reviewed"
	EventDisputeFiled        = "dispute.filed"
	EventDisputeResolved     = "dispute.resolved"
	EventDeliverableUploaded = "deliverable.uploaded"
	EventAccountCreated      = "account.created"
	EventAccountSuspended    = "account.suspended"
	EventAccountRestored     = "account.restored"
	EventTicketCreated       = "ticket.created"
	EventTicketReplied       = "ticket.replied"
	EventTicketStatus        = "ticket.status_changed"
)

// AuditStore - журнал действий.
type AuditStore interface {
	Add(ctx context.Context, entry *models.AuditLog) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error)
}

// Notifier доставляет уведомления пользователям.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event string, data any) error
	NotifyAdmins(ctx context.Context, event string, data any) error
}

// sideEffects пишет аудит и уведомления после фиксации основного изменения.
// Ошибки только логируются: основной переход уже сохранён и не откатывается.
type sideEffects struct {
	audit    AuditStore
	notifier Notifier
}

func (e *sideEffects) record(ctx context.Context, actor models.Caller, ownerID uuid.UUID, entityType string, entityID uuid.UUID, action string, oldValue, newValue any) {
	if e == nil || e.audit == nil {
		return
	}

	actorID := actor.UserID
	entry := &models.AuditLog{
		ActorID:    &actorID,
		UserID:     &ownerID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		OldValue:   marshalAuditValue(oldValue),
		NewValue:   marshalAuditValue(newValue),
	}
	if err := e.audit.Add(context.WithoutCancel(ctx), entry); err != nil {
		logger.L().WithFields(logrus.Fields{
			"entity_type": entityType,
			"entity_id":   entityID,
			"action":      action,
			"error":       err,
		}).Warn("не удалось записать аудит")
	}
}

func (e *sideEffects) notify(ctx context.Context, userID uuid.UUID, event string, data any) {
	if e == nil || e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(context.WithoutCancel(ctx), userID, event, data); err != nil {
		logger.L().WithFields(logrus.Fields{
			"user_id": userID,
			"event":   event,
			"error":   err,
		}).Warn("не удалось отправить уведомление")
	}
}

func (e *sideEffects) notifyAdmins(ctx context.Context, event string, data any) {
	if e == nil || e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyAdmins(context.WithoutCancel(ctx), event, data); err != nil {
		logger.L().WithFields(logrus.Fields{
			"event": event,
			"error": err,
		}).Warn("не удалось уведомить администраторов")
	}
}

func marshalAuditValue(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
