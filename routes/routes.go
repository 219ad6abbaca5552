package routes

import (
	"log"
	"net/http"

	"splitquiz/handlers"
	"splitquiz/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	roomHandler *handlers.RoomHandler,
	promptHandler *handlers.PromptHandler,
	systemHandler *handlers.SystemHandler,
	connections *services.ConnectionManager,
) {
	api := router.Group("/api")
	{
		rooms := api.Group("/rooms")
		{
			rooms.GET("", roomHandler.ListRooms)
			rooms.GET("/:id", roomHandler.GetRoom)
			rooms.GET("/:id/invite.png", roomHandler.InviteQR)
		}

		prompts := api.Group("/prompts")
		{
			prompts.POST("", promptHandler.CreatePrompt)
			prompts.GET("/count", promptHandler.CountPrompts)
		}
	}

	// WebSocket endpoint; joins happen over the socket
	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed from %s: %v", c.ClientIP(), err)
			return
		}
		connections.Accept(conn)
	})

	router.GET("/health", systemHandler.Health)
	router.GET("/metrics", systemHandler.Metrics)
}
