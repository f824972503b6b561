package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/academic-services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/academic-services-backend/internal/service"
)

// SeedHandler заполняет каталог услугами по умолчанию.
type SeedHandler struct {
	seedService *service.SeedService
}

// NewSeedHandler создаёт новый seed handler.
func NewSeedHandler(seedService *service.SeedService) *SeedHandler {
	return &SeedHandler{seedService: seedService}
}

// SeedServices добавляет отсутствующие услуги каталога. Повторный вызов ничего не меняет.
// POST /api/admin/seed/services
func (h *SeedHandler) SeedServices(c *gin.Context) {
	if _, err := common.ActiveCaller(c); err != nil {
		common.RespondAppError(c, err)
		return
	}

	result, err := h.seedService.SeedServices(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
