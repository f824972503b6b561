package repository

import "errors"

// Ошибки уровня репозитория.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrServiceNotFound      = errors.New("service not found")
	ErrServiceInUse         = errors.New("service is referenced by requests")
	ErrSlugTaken            = errors.New("service slug already exists")
	ErrRequestNotFound      = errors.New("request not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentExists        = errors.New("request already has an active payment")
	ErrDisputeNotFound      = errors.New("dispute not found")
	ErrDisputeExists        = errors.New("payment already disputed")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrNotificationNotFound = errors.New("notification not found")
)
