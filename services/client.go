package services

import (
	"log"
	"sync"
	"time"

	"splitquiz/config"

	"github.com/gorilla/websocket"
)

// Client is one WebSocket connection with its own read and write pumps.
type Client struct {
	id      string
	socket  *websocket.Conn
	send    chan []byte
	manager *ConnectionManager

	closeMu sync.Mutex
	closed  bool
}

func newClient(id string, socket *websocket.Conn, manager *ConnectionManager) *Client {
	return &Client{
		id:      id,
		socket:  socket,
		send:    make(chan []byte, config.ClientSendBufferSize),
		manager: manager,
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send queues a message without blocking. A client whose buffer is full is
// treated as gone and closed.
func (c *Client) Send(message []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		log.Printf("Send buffer full, closing slow client %s", c.id)
		go c.Close()
		return false
	}
}

// Close stops the write pump, which then closes the socket.
func (c *Client) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) readPump() {
	defer func() {
		c.manager.disconnect(c)
		c.Close()
		c.socket.Close()
	}()

	c.socket.SetReadLimit(config.MaxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(config.PongTimeout))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(config.PongTimeout))
	})

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error on %s: %v", c.id, err)
			}
			return
		}
		_ = c.socket.SetReadDeadline(time.Now().Add(config.PongTimeout))
		c.manager.dispatch(c, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(config.PingInterval)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(config.WriteTimeout))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error on %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(config.WriteTimeout))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
