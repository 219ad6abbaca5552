package services

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ConnectionManager owns accepted WebSocket connections. It registers them,
// publishes their messages on the bus and announces their disconnects.
type ConnectionManager struct {
	registry *Registry
	bus      *EventBus
	metrics  *Metrics
	debug    bool
}

func NewConnectionManager(registry *Registry, bus *EventBus, metrics *Metrics) *ConnectionManager {
	return &ConnectionManager{
		registry: registry,
		bus:      bus,
		metrics:  metrics,
	}
}

// SetDebug enables logging of every received message.
func (m *ConnectionManager) SetDebug(debug bool) {
	m.debug = debug
}

// Accept takes ownership of an upgraded socket and starts its pumps.
func (m *ConnectionManager) Accept(socket *websocket.Conn) *Client {
	client := newClient(uuid.NewString(), socket, m)

	m.registry.Add(client.id, client)
	m.metrics.ConnectionOpened()
	log.Printf("Client connected: %s - Total clients: %d", client.id, m.registry.Len())

	m.bus.Publish(EventSocketConnected, SocketConnected{ConnectionID: client.id})

	go client.writePump()
	go client.readPump()
	return client
}

func (m *ConnectionManager) dispatch(client *Client, data []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Dropping malformed message from %s: %v", client.id, err)
		m.metrics.ProtocolError()
		return
	}
	if msg.Channel == "" || msg.Event == "" {
		log.Printf("Dropping message without channel or event from %s", client.id)
		m.metrics.ProtocolError()
		return
	}

	m.registry.Touch(client.id)
	m.metrics.MessageReceived()
	if m.debug {
		log.Printf("recv %s: %s %s %s", client.id, msg.Channel, msg.Event, msg.Payload)
	}

	m.bus.Publish(EventSocketMessage, SocketMessage{
		ConnectionID: client.id,
		Channel:      msg.Channel,
		Event:        msg.Event,
		Payload:      msg.Payload,
	})
}

// disconnect announces the connection's last association and then drops it
// from the registry. Only the first call for a client has any effect.
func (m *ConnectionManager) disconnect(client *Client) {
	conn, ok := m.registry.Get(client.id)
	if !ok || conn.Handle != Conn(client) {
		return
	}

	m.bus.Publish(EventSocketDisconnected, SocketDisconnected{
		ConnectionID: client.id,
		PlayerID:     conn.PlayerID,
		RoomID:       conn.RoomID,
	})
	m.registry.Remove(client.id)
	m.metrics.ConnectionClosed()
	log.Printf("Client disconnected: %s (player %s, room %s) - Total clients: %d", client.id, conn.PlayerID, conn.RoomID, m.registry.Len())
}

func (m *ConnectionManager) ConnectionCount() int {
	return m.registry.Len()
}
