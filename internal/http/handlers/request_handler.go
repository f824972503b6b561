package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/academic-services-backend/internal/dto"
	"github.com/ignatzorin/academic-services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/academic-services-backend/internal/service"
)

// RequestHandler обслуживает маршруты заявок.
type RequestHandler struct {
	lifecycle *service.LifecycleService
}

// NewRequestHandler создаёт новый хэндлер.
func NewRequestHandler(lifecycle *service.LifecycleService) *RequestHandler {
	return &RequestHandler{lifecycle: lifecycle}
}

// CreateRequest обрабатывает POST /requests.
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	caller, err := common.ActiveCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req dto.CreateRequestRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}
	serviceID, err := common.ParseUUIDField(req.ServiceID, "serviceId")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	created, err := h.lifecycle.CreateRequest(c.Request.Context(), caller, service.CreateRequestInput{
		ServiceID:     serviceID,
		Title:         req.Title,
		Instructions:  req.Instructions,
		AcademicLevel: req.AcademicLevel,
		Deadline:      req.Deadline,
		Notes:         req.Notes,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetRequest обрабатывает GET /requests/:id.
func (h *RequestHandler) GetRequest(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	details, err := h.lifecycle.GetRequest(c.Request.Context(), caller, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// ListRequests обрабатывает GET /requests.
func (h *RequestHandler) ListRequests(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	filter, err := common.ListFilterFromQuery(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	page, err := h.lifecycle.ListRequests(c.Request.Context(), caller, filter)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// History обрабатывает GET /requests/:id/history.
func (h *RequestHandler) History(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	entries, err := h.lifecycle.RequestHistory(c.Request.Context(), caller, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// UpdateStatus обрабатывает PUT /admin/requests/:id/status.
// Администратор вручную переводит заявку в работу или закрывает её.
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	caller, err := common.ActiveCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	ctx := c.Request.Context()
	switch strings.ToUpper(strings.TrimSpace(req.Status)) {
	case "IN_PROGRESS":
		updated, err := h.lifecycle.StartWork(ctx, caller, id)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	case "CLOSED":
		updated, err := h.lifecycle.CloseRequest(ctx, caller, id)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	default:
		common.RespondAppError(c, apperror.New(apperror.ErrCodeValidation, "допустимые статусы: IN_PROGRESS, CLOSED"))
	}
}
