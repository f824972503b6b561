package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/academic-services-backend/internal/dto"
	"github.com/ignatzorin/academic-services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/academic-services-backend/internal/service"
)

// DeliverableHandler обслуживает загрузку и выдачу результатов работ.
type DeliverableHandler struct {
	lifecycle *service.LifecycleService
}

// NewDeliverableHandler создаёт новый хэндлер.
func NewDeliverableHandler(lifecycle *service.LifecycleService) *DeliverableHandler {
	return &DeliverableHandler{lifecycle: lifecycle}
}

// Upload обрабатывает POST /deliverables.
// Первая загрузка переводит заявку в DELIVERED в той же транзакции.
func (h *DeliverableHandler) Upload(c *gin.Context) {
	caller, err := common.ActiveCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req dto.UploadDeliverableRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}
	requestID, err := common.ParseUUIDField(req.RequestID, "requestId")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	deliverable, err := h.lifecycle.UploadDeliverable(c.Request.Context(), caller, service.UploadDeliverableInput{
		RequestID:   requestID,
		FileName:    req.FileName,
		FileURL:     req.FileURL,
		FileType:    req.FileType,
		FileSize:    req.FileSize,
		Description: req.Description,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, deliverable)
}

// List обрабатывает GET /requests/:id/deliverables.
func (h *DeliverableHandler) List(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	items, locked, err := h.lifecycle.AccessDeliverables(c.Request.Context(), caller, requestID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeliverablesResponse{Deliverables: items, Locked: locked})
}
