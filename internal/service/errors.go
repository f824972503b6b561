package service

import (
	"errors"

	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/academic-services-backend/internal/repository"
	"github.com/ignatzorin/academic-services-backend/internal/repository/common"
)

// mapRepoErr переводит ошибки хранилища в типизированные ошибки приложения.
func mapRepoErr(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrRequestNotFound):
		return apperror.ErrRequestNotFound
	case errors.Is(err, repository.ErrPaymentNotFound):
		return apperror.ErrPaymentNotFound
	case errors.Is(err, repository.ErrDisputeNotFound):
		return apperror.ErrDisputeNotFound
	case errors.Is(err, repository.ErrServiceNotFound):
		return apperror.ErrServiceNotFound
	case errors.Is(err, repository.ErrTicketNotFound):
		return apperror.ErrTicketNotFound
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.ErrUserNotFound
	case errors.Is(err, repository.ErrNotificationNotFound):
		return apperror.ErrNotificationMissing
	case errors.Is(err, repository.ErrPaymentExists):
		return apperror.InvalidState("по заявке уже есть действующий платёж")
	case errors.Is(err, repository.ErrDisputeExists):
		return apperror.InvalidState("спор по этому платежу уже подан")
	case errors.Is(err, repository.ErrServiceInUse):
		return apperror.InvalidState("услугу нельзя удалить: на неё ссылаются заявки")
	case errors.Is(err, repository.ErrSlugTaken):
		return apperror.InvalidState("услуга с таким slug уже существует")
	case errors.Is(err, repository.ErrEmailTaken):
		return apperror.InvalidState("пользователь с таким email уже существует")
	case errors.Is(err, common.ErrStatusConflict):
		return apperror.InvalidState("статус записи изменился, операция недоступна")
	}
	return apperror.Database(err)
}

// requireActive проверяет блокировку аккаунта. Выполняется первой в каждой изменяющей операции.
func requireActive(caller models.Caller) error {
	if caller.IsSuspended {
		return apperror.Suspended(caller.SuspendedReason)
	}
	return nil
}

func requireAdmin(caller models.Caller) error {
	if !caller.IsAdmin() {
		return apperror.ErrAdminOnly
	}
	return nil
}
