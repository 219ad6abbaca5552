package handlers

import (
	"net/http"

	"splitquiz/services"

	"github.com/gin-gonic/gin"
)

type SystemHandler struct {
	connections *services.ConnectionManager
	roomManager *services.RoomManager
	metrics     *services.Metrics
}

func NewSystemHandler(connections *services.ConnectionManager, roomManager *services.RoomManager, metrics *services.Metrics) *SystemHandler {
	return &SystemHandler{
		connections: connections,
		roomManager: roomManager,
		metrics:     metrics,
	}
}

func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": h.connections.ConnectionCount(),
		"rooms":       h.roomManager.RoomCount(),
	})
}

func (h *SystemHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
