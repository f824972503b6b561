package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/academic-services-backend/internal/models"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// AdminDirectory возвращает получателей админских уведомлений.
type AdminDirectory interface {
	ListAdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Pusher доставляет событие в открытые WebSocket соединения пользователя.
type Pusher interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// NotificationService сохраняет уведомления и пушит их в реальном времени.
type NotificationService struct {
	repo   NotificationRepository
	admins AdminDirectory
	pusher Pusher
}

// NewNotificationService создаёт новый сервис уведомлений.
func NewNotificationService(repo NotificationRepository, admins AdminDirectory) *NotificationService {
	return &NotificationService{repo: repo, admins: admins}
}

// SetPusher устанавливает WebSocket hub для отправки уведомлений.
func (s *NotificationService) SetPusher(pusher Pusher) {
	s.pusher = pusher
}

// Notify сохраняет уведомление и отправляет его в открытые соединения пользователя.
// Уведомление сохраняется даже если пуш не удался.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("notification service: marshal payload %w", err)
	}

	notification := &models.Notification{
		UserID:  userID,
		Event:   event,
		Payload: payload,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	if s.pusher != nil {
		if err := s.pusher.BroadcastToUser(userID, event, notification); err != nil {
			return fmt.Errorf("notification service: push %w", err)
		}
	}
	return nil
}

// NotifyAdmins рассылает уведомление каждому администратору.
func (s *NotificationService) NotifyAdmins(ctx context.Context, event string, data any) error {
	ids, err := s.admins.ListAdminIDs(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range ids {
		if err := s.Notify(ctx, id, event, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ListNotifications возвращает страницу уведомлений пользователя.
func (s *NotificationService) ListNotifications(ctx context.Context, filter models.NotificationFilter) (*models.Page[models.Notification], error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return &models.Page[models.Notification]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// MarkAsRead отмечает уведомление как прочитанное. Чужие уведомления не находятся.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return mapRepoErr(s.repo.MarkAsRead(ctx, id, userID))
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные и возвращает их число.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.repo.MarkAllAsRead(ctx, userID)
	return n, mapRepoErr(err)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	return count, mapRepoErr(err)
}
