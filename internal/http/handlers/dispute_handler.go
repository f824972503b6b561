package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/academic-services-backend/internal/dto"
	"github.com/ignatzorin/academic-services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/academic-services-backend/internal/service"
)

// DisputeHandler обрабатывает запросы по спорам.
type DisputeHandler struct {
	lifecycle *service.LifecycleService
}

// NewDisputeHandler создаёт новый обработчик споров.
func NewDisputeHandler(lifecycle *service.LifecycleService) *DisputeHandler {
	return &DisputeHandler{lifecycle: lifecycle}
}

// ListDisputes GET /disputes?status=OPEN
func (h *DisputeHandler) ListDisputes(c *gin.Context) {
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

	page, err := h.lifecycle.ListDisputes(c.Request.Context(), caller, filter)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetDispute GET /disputes/:id
func (h *DisputeHandler) GetDispute(c *gin.Context) {
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

	dispute, err := h.lifecycle.GetDispute(c.Request.Context(), caller, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// ResolveDispute PUT /admin/disputes/:id/resolve
func (h *DisputeHandler) ResolveDispute(c *gin.Context) {
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

	var req dto.ResolveDisputeRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	dispute, err := h.lifecycle.ResolveDispute(c.Request.Context(), caller, service.ResolveDisputeInput{
		DisputeID:     id,
		Decision:      req.Decision,
		AdminResponse: req.AdminResponse,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}
