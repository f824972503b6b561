package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/academic-services-backend/internal/http/middleware"
	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
)

// CurrentCaller extracts the caller context placed by CallerMiddleware
func CurrentCaller(c *gin.Context) (models.Caller, error) {
	raw, exists := c.Get(middleware.ContextCallerKey)
	if !exists {
		return models.Caller{}, apperror.ErrUnauthorized
	}

	caller, ok := raw.(models.Caller)
	if !ok {
		return models.Caller{}, apperror.ErrUnauthorized
	}

	return caller, nil
}

// ActiveCaller is CurrentCaller for mutations: a suspended account is rejected before the body is read
func ActiveCaller(c *gin.Context) (models.Caller, error) {
	caller, err := CurrentCaller(c)
	if err != nil {
		return caller, err
	}
	if caller.IsSuspended {
		return caller, apperror.Suspended(caller.SuspendedReason)
	}
	return caller, nil
}

// ParseUUIDParam parses UUID from URL parameter
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, apperror.New(apperror.ErrCodeBadRequest, fmt.Sprintf("параметр %s отсутствует", paramName))
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, apperror.New(apperror.ErrCodeBadRequest, "неверный формат UUID")
	}

	return parsed, nil
}

// ParseUUIDField parses UUID from a request body field
func ParseUUIDField(value, field string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неверный %s", field))
	}
	return parsed, nil
}

// BindJSON binds JSON request and converts binding errors to a validation error
func BindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, "ошибка валидации запроса: "+err.Error())
	}
	return nil
}

// RespondAppError sends {"error", "code"} for any error and records it for the error logger
func RespondAppError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := middleware.ErrorResponse(err)
	c.JSON(status, body)
}

// ParseIntQuery safely reads an integer query parameter with a fallback value
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// ParseBoolQuery reads an optional boolean query parameter
func ParseBoolQuery(c *gin.Context, key string) (*bool, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeBadRequest, fmt.Sprintf("параметр %s должен быть true или false", key))
	}
	return &parsed, nil
}

// GetPagination extracts limit and offset from query parameters with defaults.
// page (1-based) takes precedence over offset.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if page := ParseIntQuery(c, "page", 0); page > 0 {
		offset = (page - 1) * limit
	}
	if offset < 0 {
		offset = 0
	}
	return
}

// ListFilterFromQuery builds a list filter from the common query parameters
func ListFilterFromQuery(c *gin.Context) (models.ListFilter, error) {
	limit, offset := GetPagination(c)
	filter := models.ListFilter{
		Status:   strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		Search:   strings.TrimSpace(c.Query("search")),
		Category: strings.ToUpper(strings.TrimSpace(c.Query("category"))),
		Priority: strings.ToUpper(strings.TrimSpace(c.Query("priority"))),
		Role:     strings.ToUpper(strings.TrimSpace(c.Query("role"))),
		Limit:    limit,
		Offset:   offset,
	}

	var err error
	if filter.Suspended, err = ParseBoolQuery(c, "suspended"); err != nil {
		return filter, err
	}
	if filter.FraudFlagged, err = ParseBoolQuery(c, "fraudFlagged"); err != nil {
		return filter, err
	}
	return filter, nil
}
