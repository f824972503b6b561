package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
)

// ErrorResponse переводит ошибку в HTTP статус и тело {"error", "code"}.
// Сообщения внутренних ошибок наружу не попадают.
func ErrorResponse(err error) (int, gin.H) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, gin.H{
			"error": "внутренняя ошибка сервера",
			"code":  apperror.ErrCodeInternal,
		}
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return status, gin.H{"error": appErr.Message, "code": appErr.Code}
}

// AbortWithError прерывает цепочку и отвечает ошибкой. Ошибка попадает в c.Errors для логирования.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := ErrorResponse(err)
	c.AbortWithStatusJSON(status, body)
}
