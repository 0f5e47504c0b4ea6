package ws

import (
	"net/http"

	applogger "habridge/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// clients connect from the charting terminal on another origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler exposes the hub on an HTTP route.
type Handler struct {
	hub *Hub
	l   *applogger.Logger
}

func NewHandler(hub *Hub, l *applogger.Logger) *Handler {
	return &Handler{hub: hub, l: l}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.serve)
}

func (h *Handler) serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Error("ws upgrade", applogger.Error(err))
		return err
	}
	h.hub.HandleConn(conn)
	return nil
}
