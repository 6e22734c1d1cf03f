package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"student-inout-api/internal/broadcast"
	"student-inout-api/internal/middleware"
)

type DisplayHandler struct {
	hub          *broadcast.Hub
	upgrader     websocket.Upgrader
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewDisplayHandler accepts websocket upgrades from display screens. Browsers
// on allowedOrigins and non-browser clients without an Origin header are
// accepted.
func NewDisplayHandler(hub *broadcast.Hub, allowedOrigins []string, pollInterval time.Duration, logger *zap.Logger) *DisplayHandler {
	return &DisplayHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(origin, allowedOrigins)
			},
		},
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Display godoc
// @Summary      Display sync websocket
// @Description  First message is HELLO with poll_interval_seconds, then change notifications
// @Tags         sync
// @Router       /ws/display [get]
func (h *DisplayHandler) Display(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Display websocket upgrade failed",
			zap.String("client_ip", c.ClientIP()),
			zap.Error(err),
		)
		return
	}

	h.logger.Debug("Display connected", zap.String("client_ip", c.ClientIP()))
	h.hub.Serve(conn, broadcast.Hello(h.pollInterval))
}
