package services

import (
	"sync"
	"time"
)

// Connection is a snapshot of one live transport session.
type Connection struct {
	ID          string
	Handle      Conn
	PlayerID    string
	RoomID      string
	ConnectedAt time.Time
	LastSeen    time.Time
}

// Registry indexes live connections by id, player and room. Every reverse
// index entry points at a connection present in the forward map.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]*Connection
	byPlayer map[string]string
	byRoom   map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[string]*Connection),
		byPlayer: make(map[string]string),
		byRoom:   make(map[string]map[string]struct{}),
	}
}

func (r *Registry) Add(connectionID string, handle Conn) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[connectionID]; exists {
		r.removeLocked(connectionID)
	}
	r.byID[connectionID] = &Connection{
		ID:          connectionID,
		Handle:      handle,
		ConnectedAt: now,
		LastSeen:    now,
	}
}

// Remove drops the connection and its index entries. Unknown ids are ignored.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(connectionID)
}

func (r *Registry) removeLocked(connectionID string) {
	conn, ok := r.byID[connectionID]
	if !ok {
		return
	}
	if conn.PlayerID != "" && r.byPlayer[conn.PlayerID] == connectionID {
		delete(r.byPlayer, conn.PlayerID)
	}
	if conn.RoomID != "" {
		r.unindexRoomLocked(conn.RoomID, connectionID)
	}
	delete(r.byID, connectionID)
}

// SetPlayer associates a player with the connection. The player index always
// points at the most recent connection for that player; older connections keep
// their own association so their disconnect still names the player.
func (r *Registry) SetPlayer(connectionID, playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.byID[connectionID]
	if !ok {
		return
	}
	if conn.PlayerID != "" && conn.PlayerID != playerID && r.byPlayer[conn.PlayerID] == connectionID {
		delete(r.byPlayer, conn.PlayerID)
	}
	conn.PlayerID = playerID
	r.byPlayer[playerID] = connectionID
}

// SetRoom moves the connection into roomID, leaving any previous room index.
func (r *Registry) SetRoom(connectionID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.byID[connectionID]
	if !ok {
		return
	}
	if conn.RoomID != "" {
		r.unindexRoomLocked(conn.RoomID, connectionID)
	}

	conn.RoomID = roomID
	members, ok := r.byRoom[roomID]
	if !ok {
		members = make(map[string]struct{})
		r.byRoom[roomID] = members
	}
	members[connectionID] = struct{}{}
}

func (r *Registry) unindexRoomLocked(roomID, connectionID string) {
	members, ok := r.byRoom[roomID]
	if !ok {
		return
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(r.byRoom, roomID)
	}
}

// Touch refreshes the last activity timestamp.
func (r *Registry) Touch(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.byID[connectionID]; ok {
		conn.LastSeen = time.Now()
	}
}

func (r *Registry) Get(connectionID string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byID[connectionID]
	if !ok {
		return Connection{}, false
	}
	return *conn, true
}

func (r *Registry) GetByPlayer(playerID string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connectionID, ok := r.byPlayer[playerID]
	if !ok {
		return Connection{}, false
	}
	conn, ok := r.byID[connectionID]
	if !ok {
		return Connection{}, false
	}
	return *conn, true
}

// InRoom returns every connection currently associated with roomID.
func (r *Registry) InRoom(roomID string) []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.byRoom[roomID]
	out := make([]Connection, 0, len(members))
	for connectionID := range members {
		if conn, ok := r.byID[connectionID]; ok {
			out = append(out, *conn)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
