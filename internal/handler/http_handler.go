package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SebiosJade/Boluntik-sub004/internal/hub"
	"github.com/SebiosJade/Boluntik-sub004/pkg/response"
)

// OnlineCounter reports how many users this instance considers online.
type OnlineCounter interface {
	OnlineCount() int
}

// HTTPHandler exposes the operational surface: health, stats, and the
// websocket upgrade endpoint.
type HTTPHandler struct {
	hub      *hub.Hub
	ws       *WSHandler
	presence OnlineCounter
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(h *hub.Hub, ws *WSHandler, presence OnlineCounter) *HTTPHandler {
	return &HTTPHandler{
		hub:      h,
		ws:       ws,
		presence: presence,
	}
}

// RegisterRoutes wires the routes onto the gin engine.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/realtime/stats", h.stats)
	r.GET("/realtime/ws", gin.WrapF(h.ws.HandleWebSocket))
}

func (h *HTTPHandler) health(c *gin.Context) {
	c.String(200, "OK")
}

func (h *HTTPHandler) stats(c *gin.Context) {
	response.Success(c, gin.H{
		"connections":  h.hub.ClientCount(),
		"rooms":        h.hub.RoomCount(),
		"online_users": h.presence.OnlineCount(),
	})
}
