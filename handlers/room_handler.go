package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"splitquiz/services"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const inviteQRSize = 320

type RoomHandler struct {
	roomManager *services.RoomManager
	stateStore  *services.RoomStateStore
	publicURL   string
}

func NewRoomHandler(roomManager *services.RoomManager, stateStore *services.RoomStateStore, publicURL string) *RoomHandler {
	return &RoomHandler{
		roomManager: roomManager,
		stateStore:  stateStore,
		publicURL:   strings.TrimRight(publicURL, "/"),
	}
}

func (h *RoomHandler) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.roomManager.Rooms()})
}

// GetRoom reports a live room, or the last snapshot recorded for it.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID := c.Param("id")

	if room := h.roomManager.Room(roomID); room != nil {
		c.JSON(http.StatusOK, room.Status())
		return
	}

	if h.stateStore == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	snapshot, err := h.stateStore.Get(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		log.Printf("Error reading state for room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read room state"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// InviteQR renders a PNG QR code pointing at the room's join page.
func (h *RoomHandler) InviteQR(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing room id"})
		return
	}

	png, err := qrcode.Encode(h.publicURL+"/room/"+roomID, qrcode.Medium, inviteQRSize)
	if err != nil {
		log.Printf("Error generating invite for room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "QR generation failed"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
