package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// joinAttempts bounds the retries when a join races with the deletion of an
// emptied room.
const joinAttempts = 3

// RoomManager is the directory of live rooms. It routes inbound socket
// messages to rooms, creates a room on its first join and deletes it once
// the last player has left.
type RoomManager struct {
	registry   *Registry
	content    ContentSupplier
	identities IdentityResolver
	config     RoomConfig
	clock      Clock
	metrics    *Metrics
	factories  []ObserverFactory

	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRoomManager(registry *Registry, content ContentSupplier, identities IdentityResolver, config RoomConfig) *RoomManager {
	return &RoomManager{
		registry:   registry,
		content:    content,
		identities: identities,
		config:     config,
		clock:      SystemClock(),
		rooms:      make(map[string]*Room),
	}
}

// AddObserver attaches an observer built by factory to every room created
// from now on.
func (m *RoomManager) AddObserver(factory ObserverFactory) {
	m.mu.Lock()
	m.factories = append(m.factories, factory)
	m.mu.Unlock()
}

func (m *RoomManager) SetClock(clock Clock) {
	m.mu.Lock()
	m.clock = clock
	m.mu.Unlock()
}

func (m *RoomManager) SetMetrics(metrics *Metrics) {
	m.mu.Lock()
	m.metrics = metrics
	m.mu.Unlock()
}

// Attach subscribes the manager to socket events on bus and returns a
// function detaching it.
func (m *RoomManager) Attach(bus *EventBus) func() {
	offMessage := On(bus, EventSocketMessage, func(msg SocketMessage) error {
		err := m.HandleMessage(context.Background(), msg)
		if errors.Is(err, ErrUnknownMessage) || errors.Is(err, ErrInvalidPayload) {
			m.metrics.ProtocolError()
		}
		return err
	})
	offDisconnect := On(bus, EventSocketDisconnected, func(ev SocketDisconnected) error {
		m.HandleDisconnect(ev)
		return nil
	})
	return func() {
		offMessage()
		offDisconnect()
	}
}

// HandleMessage routes one inbound message by channel and event.
func (m *RoomManager) HandleMessage(ctx context.Context, msg SocketMessage) error {
	if msg.Channel == ChannelRoom {
		if msg.Event != MsgJoin {
			return fmt.Errorf("%w: %s on %s", ErrUnknownMessage, msg.Event, msg.Channel)
		}
		payload, err := decodePayload[JoinPayload](msg.Payload)
		if err != nil {
			return err
		}
		return m.Join(ctx, msg.ConnectionID, payload)
	}

	roomID, ok := roomFromChannel(msg.Channel)
	if !ok {
		return fmt.Errorf("%w: channel %q", ErrUnknownMessage, msg.Channel)
	}

	switch msg.Event {
	case MsgStart:
		return m.handleStart(roomID, msg)
	case MsgRespond:
		return m.handleRespond(roomID, msg)
	default:
		return fmt.Errorf("%w: %s on %s", ErrUnknownMessage, msg.Event, msg.Channel)
	}
}

// Join resolves the player, binds the connection and adds the player to the
// room, creating the room when needed.
func (m *RoomManager) Join(ctx context.Context, connectionID string, req JoinPayload) error {
	if req.RoomID == "" || req.PlayerID == "" {
		return fmt.Errorf("%w: join requires roomId and playerId", ErrInvalidPayload)
	}

	conn, ok := m.registry.Get(connectionID)
	if !ok {
		return fmt.Errorf("join room %s: %w", req.RoomID, ErrConnectionNotFound)
	}

	username := req.Username
	if m.identities != nil {
		if m.config.ContentTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.config.ContentTimeout)
			defer cancel()
		}
		identity, err := m.identities.ResolvePlayer(ctx, req.PlayerID)
		if err != nil {
			return fmt.Errorf("join room %s: %w", req.RoomID, err)
		}
		username = identity.Username
	}
	if username == "" {
		username = defaultUsername
	}

	if conn.RoomID != "" && conn.PlayerID != "" && (conn.RoomID != req.RoomID || conn.PlayerID != req.PlayerID) {
		m.leaveRoom(conn.RoomID, conn.PlayerID, connectionID)
	}
	// A player joining another room from a second connection leaves the room
	// held by the first one.
	if prev, ok := m.registry.GetByPlayer(req.PlayerID); ok && prev.ID != connectionID && prev.RoomID != "" && prev.RoomID != req.RoomID {
		m.leaveRoom(prev.RoomID, req.PlayerID, prev.ID)
	}

	for attempt := 0; attempt < joinAttempts; attempt++ {
		room := m.getOrCreateRoom(req.RoomID)
		added, err := room.AddPlayer(NewPlayer(req.PlayerID, username, connectionID, conn.Handle))
		if errors.Is(err, ErrRoomClosed) {
			continue
		}
		if err != nil {
			return err
		}
		m.registry.SetPlayer(connectionID, req.PlayerID)
		m.registry.SetRoom(connectionID, req.RoomID)
		if added {
			log.Printf("Player %s (%s) joined room %s on %s", req.PlayerID, username, req.RoomID, connectionID)
		} else {
			log.Printf("Player %s rejoined room %s on %s", req.PlayerID, req.RoomID, connectionID)
		}
		return nil
	}
	return fmt.Errorf("join room %s: %w", req.RoomID, ErrRoomClosed)
}

func (m *RoomManager) handleStart(roomID string, msg SocketMessage) error {
	room := m.Room(roomID)
	if room == nil {
		return fmt.Errorf("start: %w: %s", ErrRoomNotFound, roomID)
	}

	var req StartPayload
	if len(msg.Payload) > 0 && string(msg.Payload) != "null" {
		var err error
		if req, err = decodePayload[StartPayload](msg.Payload); err != nil {
			return err
		}
	}

	if err := room.StartGame(time.Duration(req.Duration) * time.Millisecond); err != nil {
		return fmt.Errorf("start room %s: %w", roomID, err)
	}
	log.Printf("Game started in room %s by %s", roomID, msg.ConnectionID)
	return nil
}

func (m *RoomManager) handleRespond(roomID string, msg SocketMessage) error {
	req, err := decodePayload[RespondPayload](msg.Payload)
	if err != nil {
		return err
	}
	if req.Answer == nil {
		return fmt.Errorf("%w: respond requires answer", ErrInvalidPayload)
	}

	conn, ok := m.registry.Get(msg.ConnectionID)
	if !ok || conn.PlayerID == "" {
		return fmt.Errorf("respond: %w: %s", ErrConnectionNotFound, msg.ConnectionID)
	}
	room := m.Room(roomID)
	if room == nil {
		return fmt.Errorf("respond: %w: %s", ErrRoomNotFound, roomID)
	}

	if player, ok := room.Player(conn.PlayerID); !ok || player.ConnectionID != msg.ConnectionID {
		log.Printf("Answer from %s on stale connection %s ignored in room %s", conn.PlayerID, msg.ConnectionID, roomID)
		return nil
	}
	if !room.SubmitAnswer(conn.PlayerID, *req.Answer) {
		log.Printf("Answer from %s in room %s was not accepted", conn.PlayerID, roomID)
	}
	return nil
}

// HandleDisconnect removes the player of a closed connection from its room.
func (m *RoomManager) HandleDisconnect(ev SocketDisconnected) {
	if ev.RoomID == "" || ev.PlayerID == "" {
		return
	}
	m.leaveRoom(ev.RoomID, ev.PlayerID, ev.ConnectionID)
}

func (m *RoomManager) leaveRoom(roomID, playerID, connectionID string) {
	room := m.Room(roomID)
	if room == nil {
		return
	}
	if room.Leave(playerID, connectionID) {
		log.Printf("Player %s left room %s", playerID, roomID)
	}
	m.removeIfEmpty(room)
}

func (m *RoomManager) removeIfEmpty(room *Room) {
	m.mu.Lock()
	if m.rooms[room.ID()] != room || !room.closeIfEmpty() {
		m.mu.Unlock()
		return
	}
	delete(m.rooms, room.ID())
	m.mu.Unlock()

	room.Close()
	m.metrics.RoomDeleted()
	log.Printf("Room %s deleted", room.ID())
}

func (m *RoomManager) getOrCreateRoom(roomID string) *Room {
	m.mu.RLock()
	room, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if ok {
		return room
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[roomID]; ok {
		return room
	}

	extra := make([]Observer, 0, len(m.factories)+1)
	if m.metrics != nil {
		extra = append(extra, m.metrics.ForRoom(roomID))
	}
	for _, factory := range m.factories {
		extra = append(extra, factory(roomID))
	}

	room = NewRoom(roomID, m.config, m.content, m.clock, extra...)
	room.metrics = m.metrics
	m.rooms[roomID] = room
	m.metrics.RoomCreated()
	log.Printf("Room %s created", roomID)
	return room
}

// Room returns the live room with roomID, or nil.
func (m *RoomManager) Room(roomID string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[roomID]
}

// Rooms lists the status of every live room ordered by id.
func (m *RoomManager) Rooms() []RoomStatus {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mu.RUnlock()

	statuses := make([]RoomStatus, 0, len(rooms))
	for _, room := range rooms {
		statuses = append(statuses, room.Status())
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].RoomID < statuses[j].RoomID
	})
	return statuses
}

func (m *RoomManager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Shutdown closes every room and stops their timers.
func (m *RoomManager) Shutdown() {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()

	for _, room := range rooms {
		room.Close()
		m.metrics.RoomDeleted()
	}
}
