package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/academic-services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/academic-services-backend/internal/logger"
	"github.com/ignatzorin/academic-services-backend/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler создаёт новый хэндлер. checkOrigin nil разрешает любой Origin.
func NewWSHandler(hub *ws.Hub, checkOrigin func(r *http.Request) bool) *WSHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Handle обслуживает GET /api/ws?token=...
// Токен и пользователь проверяются AuthMiddleware и CallerMiddleware до апгрейда.
func (h *WSHandler) Handle(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту.
		logger.L().WithError(err).Debug("ws: upgrade failed")
		return
	}

	client := ws.NewClient(conn, h.hub, caller.UserID)
	h.hub.Register(client)

	client.Run(c.Request.Context())
}
