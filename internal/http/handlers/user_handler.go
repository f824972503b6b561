package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/academic-services-backend/internal/dto"
	"github.com/ignatzorin/academic-services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/academic-services-backend/internal/service"
)

// UserHandler обслуживает профиль и администрирование пользователей.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler создаёт новый хэндлер.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Me обрабатывает GET /me.
func (h *UserHandler) Me(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	user, err := h.users.Me(c.Request.Context(), caller)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers обрабатывает GET /admin/users?search=&role=&suspended=&page=.
func (h *UserHandler) ListUsers(c *gin.Context) {
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

	page, err := h.users.List(c.Request.Context(), caller, filter)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetUser обрабатывает GET /admin/users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
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

	user, err := h.users.Get(c.Request.Context(), caller, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Suspend обрабатывает PUT /users/:id/suspend.
func (h *UserHandler) Suspend(c *gin.Context) {
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

	var req dto.SuspendUserRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	user, err := h.users.SetSuspension(c.Request.Context(), caller, id, *req.IsSuspended, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
