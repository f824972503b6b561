package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/academic-services-backend/internal/dto"
	"github.com/ignatzorin/academic-services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/academic-services-backend/internal/service"
)

type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListServices GET /services
func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.catalog.ListActive(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// GetService GET /services/:id
// Снятые с публикации услуги видны только администратору.
func (h *CatalogHandler) GetService(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	caller, _ := common.CurrentCaller(c)
	svc, err := h.catalog.Get(c.Request.Context(), caller, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// ListAllServices GET /admin/services
func (h *CatalogHandler) ListAllServices(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	services, err := h.catalog.ListAll(c.Request.Context(), caller)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// CreateService POST /admin/services
func (h *CatalogHandler) CreateService(c *gin.Context) {
	caller, err := common.ActiveCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req dto.ServiceRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	svc, err := h.catalog.Create(c.Request.Context(), caller, serviceInput(req))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

// UpdateService PUT /admin/services/:id
func (h *CatalogHandler) UpdateService(c *gin.Context) {
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

	var req dto.ServiceRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	svc, err := h.catalog.Update(c.Request.Context(), caller, id, serviceInput(req))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// DeleteService DELETE /admin/services/:id
func (h *CatalogHandler) DeleteService(c *gin.Context) {
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

	if err := h.catalog.Delete(c.Request.Context(), caller, id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "услуга удалена"})
}

// serviceInput переводит тело запроса во входные данные сервиса. Без isActive услуга публикуется.
func serviceInput(req dto.ServiceRequest) service.ServiceInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return service.ServiceInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		IsActive:    active,
		SortOrder:   req.SortOrder,
	}
}
