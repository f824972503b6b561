package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/academic-services-backend/internal/logger"
	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
)

// ErrorHandler логирует ошибки запроса и отвечает за обработчики, которые сами ответ не записали.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if !c.Writer.Written() {
			status, body := ErrorResponse(err)
			c.JSON(status, body)
		}

		status := c.Writer.Status()
		entry := logger.L().WithFields(logrus.Fields{
			"error":  err.Error(),
			"code":   apperror.CodeOf(err),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": status,
		})
		if status >= http.StatusInternalServerError {
			entry.Error("Request error")
			return
		}
		entry.Debug("Request rejected")
	}
}
