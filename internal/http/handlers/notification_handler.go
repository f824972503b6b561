package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/academic-services-backend/internal/dto"
	"github.com/ignatzorin/academic-services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/service"
)

// NotificationHandler обслуживает маршруты уведомлений.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler создаёт новый хэндлер.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications обрабатывает GET /notifications.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	unread, err := common.ParseBoolQuery(c, "unreadOnly")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	filter := models.NotificationFilter{
		UserID:     caller.UserID,
		Event:      strings.TrimSpace(c.Query("event")),
		UnreadOnly: unread != nil && *unread,
	}
	filter.Limit, filter.Offset = common.GetPagination(c)

	page, err := h.notifications.ListNotifications(c.Request.Context(), filter)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// MarkAsRead обрабатывает PUT /notifications/:id/read.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
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

	if err := h.notifications.MarkAsRead(c.Request.Context(), id, caller.UserID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "уведомление отмечено как прочитанное"})
}

// MarkAllAsRead обрабатывает PUT /notifications/read-all.
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	updated, err := h.notifications.MarkAllAsRead(c.Request.Context(), caller.UserID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CountResponse{Count: updated})
}

// CountUnread обрабатывает GET /notifications/unread/count.
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), caller.UserID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}
