package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/academic-services-backend/internal/dto"
	"github.com/ignatzorin/academic-services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/academic-services-backend/internal/service"
)

// TicketHandler обслуживает обращения в поддержку.
type TicketHandler struct {
	tickets *service.TicketService
}

// NewTicketHandler создаёт новый хэндлер.
func NewTicketHandler(tickets *service.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// CreateTicket обрабатывает POST /tickets.
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	caller, err := common.ActiveCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req dto.CreateTicketRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	in := service.CreateTicketInput{
		Title:    req.Title,
		Category: req.Category,
		Priority: req.Priority,
		Message:  req.Message,
	}
	if req.RequestID != nil && *req.RequestID != "" {
		var requestID uuid.UUID
		if requestID, err = common.ParseUUIDField(*req.RequestID, "requestId"); err != nil {
			common.RespondAppError(c, err)
			return
		}
		in.RequestID = &requestID
	}

	ticket, err := h.tickets.Create(c.Request.Context(), caller, in)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

// ListTickets обрабатывает GET /tickets?status=&priority=&category=.
func (h *TicketHandler) ListTickets(c *gin.Context) {
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

	page, err := h.tickets.List(c.Request.Context(), caller, filter)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetTicket обрабатывает GET /tickets/:id.
func (h *TicketHandler) GetTicket(c *gin.Context) {
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

	ticket, err := h.tickets.Get(c.Request.Context(), caller, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// Reply обрабатывает POST /tickets/:id/replies.
func (h *TicketHandler) Reply(c *gin.Context) {
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

	var req dto.TicketReplyRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	reply, err := h.tickets.Reply(c.Request.Context(), caller, id, req.Content)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reply)
}

// UpdateStatus обрабатывает PUT /tickets/:id/status.
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
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

	var req dto.UpdateTicketStatusRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	ticket, err := h.tickets.UpdateStatus(c.Request.Context(), caller, id, req.Status)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}
