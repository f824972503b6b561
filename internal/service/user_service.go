package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/academic-services-backend/internal/validation"
)

// UserRepository - хранилище пользователей.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Provision(ctx context.Context, user *models.User) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.User, int, error)
	SetSuspension(ctx context.Context, id uuid.UUID, suspended bool, reason *string) (*models.User, error)
}

// UserService отвечает за пользователей и блокировку аккаунтов.
// Учётные данные хранит внешний провайдер идентификации; здесь только профиль и роль.
type UserService struct {
	repo    UserRepository
	effects *sideEffects
}

// NewUserService создаёт сервис пользователей.
func NewUserService(repo UserRepository, audit AuditStore, notifier Notifier) *UserService {
	return &UserService{
		repo:    repo,
		effects: &sideEffects{audit: audit, notifier: notifier},
	}
}

// ResolveCaller загружает пользователя и строит контекст вызывающего.
// Студент, впервые пришедший с проверенным токеном, заводится по клеймам токена.
func (s *UserService) ResolveCaller(ctx context.Context, identity models.Identity) (models.Caller, error) {
	user, err := s.repo.GetByID(ctx, identity.UserID)
	if err != nil {
		if !apperror.IsNotFound(mapRepoErr(err)) {
			return models.Caller{}, mapRepoErr(err)
		}
		if user, err = s.provision(ctx, identity); err != nil {
			return models.Caller{}, err
		}
	}
	return models.CallerFromUser(user), nil
}

// provision создаёт запись студента. Администраторы заводятся только операторским CLI,
// поэтому неизвестный sub с ролью ADMIN не проходит.
func (s *UserService) provision(ctx context.Context, identity models.Identity) (*models.User, error) {
	if identity.Role != "" && identity.Role != string(valueobject.RoleStudent) {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "учётная запись не заведена")
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if validation.ValidateEmail(email) != nil {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "в токене нет корректного email")
	}
	name := strings.TrimSpace(identity.Name)
	if validation.ValidateRequired("имя", name, 1, validation.MaxUserNameLength) != nil {
		name, _, _ = strings.Cut(email, "@")
	}

	user := &models.User{ID: identity.UserID, Name: name, Email: email, Role: valueobject.RoleStudent}
	created, err := s.repo.Provision(ctx, user)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if created {
		s.effects.record(ctx, models.CallerFromUser(user), user.ID, models.EntityUser, user.ID,
			EventAccountCreated, nil, map[string]any{"email": user.Email, "role": user.Role})
	}
	return user, nil
}

// Me возвращает профиль вызывающего.
func (s *UserService) Me(ctx context.Context, caller models.Caller) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return user, nil
}

// Get возвращает пользователя администратору.
func (s *UserService) Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return user, nil
}

// List возвращает страницу пользователей с фильтрами по поиску, роли и блокировке.
func (s *UserService) List(ctx context.Context, caller models.Caller, filter models.ListFilter) (*models.Page[models.User], error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if filter.Role != "" {
		if _, err := valueobject.NewRole(filter.Role); err != nil {
			return nil, err
		}
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Normalize()

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return &models.Page[models.User]{Items: users, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// SetSuspension блокирует или разблокирует аккаунт. При блокировке причина обязательна.
func (s *UserService) SetSuspension(ctx context.Context, caller models.Caller, userID uuid.UUID, suspended bool, reason *string) (*models.User, error) {
	if err := requireActive(caller); err != nil {
		return nil, err
	}
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if userID == caller.UserID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "нельзя изменить блокировку собственного аккаунта")
	}

	reason = trimmedOrNil(reason)
	if suspended && reason == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "укажите причину блокировки")
	}
	if err := validation.ValidateOptional("причина", reason, validation.MaxSuspensionReasonLength); err != nil {
		return nil, apperror.Validation(err)
	}

	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	user, err := s.repo.SetSuspension(ctx, userID, suspended, reason)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	event := EventAccountRestored
	if suspended {
		event = EventAccountSuspended
	}
	s.effects.record(ctx, caller, user.ID, models.EntityUser, user.ID, event,
		map[string]any{"is_suspended": current.IsSuspended, "reason": current.SuspendedReason},
		map[string]any{"is_suspended": user.IsSuspended, "reason": user.SuspendedReason})
	s.effects.notify(ctx, user.ID, event, map[string]any{
		"is_suspended": user.IsSuspended,
		"reason":       user.SuspendedReason,
	})
	return user, nil
}

// CreateUser заводит пользователя с заданной ролью. Используется операторским CLI.
func (s *UserService) CreateUser(ctx context.Context, name, email string, role valueobject.Role) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := firstError(
		validation.ValidateRequired("имя", name, 1, validation.MaxUserNameLength),
		validation.ValidateEmail(email),
	); err != nil {
		return nil, apperror.Validation(err)
	}
	if _, err := valueobject.NewRole(string(role)); err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: email, Role: role}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, mapRepoErr(err)
	}
	return user, nil
}
