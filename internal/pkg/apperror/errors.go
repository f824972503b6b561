package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrCodeAccountSuspended ErrorCode = "ACCOUNT_SUSPENDED"
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrCodeInvalidState     ErrorCode = "INVALID_STATE"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError    ErrorCode = "DATABASE_ERROR"
	ErrCodeDependency       ErrorCode = "DEPENDENCY_FAILURE"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation создаёт ошибку валидации с текстом исходной ошибки.
func Validation(err error) *AppError {
	return Wrap(err, ErrCodeValidation, err.Error())
}

// InvalidState сообщает, что операция недопустима в текущем статусе сущности.
func InvalidState(message string) *AppError {
	return New(ErrCodeInvalidState, message)
}

// Suspended возвращает ошибку заблокированного аккаунта с причиной блокировки.
func Suspended(reason *string) *AppError {
	msg := "аккаунт заблокирован"
	if reason != nil && *reason != "" {
		msg += ": " + *reason
	}
	return New(ErrCodeAccountSuspended, msg)
}

// Database оборачивает ошибку хранилища.
func Database(err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, "ошибка хранилища, повторите попытку позже")
}

// Dependency оборачивает ошибку внешнего сервиса (файловое хранилище, уведомления).
func Dependency(err error, message string) *AppError {
	return Wrap(err, ErrCodeDependency, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeAccountSuspended:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeInvalidState:
		return http.StatusConflict
	case ErrCodeDependency:
		return http.StatusBadGateway
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или пустую строку, если это не AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	return CodeOf(err) == ErrCodeForbidden
}

func IsSuspended(err error) bool {
	return CodeOf(err) == ErrCodeAccountSuspended
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

func IsInvalidState(err error) bool {
	return CodeOf(err) == ErrCodeInvalidState
}

var (
	ErrRequestNotFound     = New(ErrCodeNotFound, "заявка не найдена")
	ErrPaymentNotFound     = New(ErrCodeNotFound, "платёж не найден")
	ErrDisputeNotFound     = New(ErrCodeNotFound, "спор не найден")
	ErrServiceNotFound     = New(ErrCodeNotFound, "услуга не найдена")
	ErrTicketNotFound      = New(ErrCodeNotFound, "обращение не найдено")
	ErrUserNotFound        = New(ErrCodeNotFound, "пользователь не найден")
	ErrNotificationMissing = New(ErrCodeNotFound, "уведомление не найдено")
	ErrUnauthorized        = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden           = New(ErrCodeForbidden, "недостаточно прав")
	ErrAdminOnly           = New(ErrCodeForbidden, "операция доступна только администратору")
	ErrNotOwner            = New(ErrCodeForbidden, "у вас нет доступа к этой записи")
)
