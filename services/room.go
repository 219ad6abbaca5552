package services

import (
	"log"
	"sort"
	"sync"
	"time"
)

// RoomStatus is the read-only summary served by the HTTP API.
type RoomStatus struct {
	RoomID      string `json:"roomId"`
	Phase       Phase  `json:"phase"`
	PhaseName   string `json:"phaseName"`
	Round       int    `json:"round"`
	PlayerCount int    `json:"playerCount"`
	EndsAt      int64  `json:"endsAt,omitempty"`
}

// Room owns a roster and exactly one Scheduler. The scheduler calls back into
// the room (scores, broadcasts) while holding its own lock, so the room never
// calls the scheduler while holding mu.
type Room struct {
	id        string
	config    RoomConfig
	scheduler *Scheduler
	observers Observers
	metrics   *Metrics

	mu      sync.RWMutex
	players map[string]*Player
	order   []string
	closed  bool

	closeOnce sync.Once
}

// NewRoom builds a room in the lobby. Extra observers receive every
// notification after the room has broadcast it.
func NewRoom(id string, config RoomConfig, content ContentSupplier, clock Clock, extra ...Observer) *Room {
	r := &Room{
		id:      id,
		config:  config,
		players: make(map[string]*Player),
	}
	r.observers = append(Observers{r}, extra...)
	r.scheduler = NewScheduler(config, r, content, r.observers, clock)
	r.scheduler.Start()
	return r
}

func (r *Room) ID() string {
	return r.id
}

func (r *Room) Scheduler() *Scheduler {
	return r.scheduler
}

// Notify makes the room its own broadcast observer.
func (r *Room) Notify(kind string, payload interface{}) {
	r.Broadcast(kind, payload)
}

// AddPlayer adds a player to the roster. A player id already present keeps
// its score and only has its connection refreshed; the returned bool is false
// in that case.
func (r *Room) AddPlayer(player *Player) (bool, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false, ErrRoomClosed
	}
	if existing, ok := r.players[player.ID]; ok {
		existing.ConnectionID = player.ConnectionID
		existing.conn = player.conn
		r.mu.Unlock()
		r.SendTo(player.ID, ClientTransition, r.scheduler.LastTransition())
		return false, nil
	}
	r.players[player.ID] = player
	r.order = append(r.order, player.ID)
	count := len(r.players)
	r.mu.Unlock()

	r.observers.Notify(ClientConnected, ConnectedPayload{PlayerID: player.ID, Username: player.Username})
	r.scheduler.OnPlayerJoined(count)
	r.observers.Notify(ClientState, r.statePayload())
	r.SendTo(player.ID, ClientTransition, r.scheduler.LastTransition())
	return true, nil
}

// RemovePlayer drops a player from the roster. Unknown ids are ignored.
func (r *Room) RemovePlayer(playerID string) bool {
	return r.Leave(playerID, "")
}

// Leave removes playerID if it is still bound to connectionID. An empty
// connectionID matches any connection. A player that already reconnected on a
// newer connection stays in the roster.
func (r *Room) Leave(playerID, connectionID string) bool {
	r.mu.Lock()
	player, ok := r.players[playerID]
	if !ok || (connectionID != "" && player.ConnectionID != connectionID) {
		r.mu.Unlock()
		return false
	}
	delete(r.players, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	count := len(r.players)
	r.mu.Unlock()

	r.observers.Notify(ClientDisconnected, DisconnectedPayload{PlayerID: playerID})
	r.scheduler.OnPlayerLeft(count)
	r.observers.Notify(ClientState, r.statePayload())
	return true
}

// Broadcast sends one encoded message to every roster member. Connections
// that cannot take the message are skipped.
func (r *Room) Broadcast(kind string, payload interface{}) {
	data, err := encodeMessage(kind, payload)
	if err != nil {
		log.Printf("Error marshaling %s for room %s: %v", kind, r.id, err)
		return
	}

	r.mu.RLock()
	recipients := make([]Conn, 0, len(r.order))
	for _, id := range r.order {
		recipients = append(recipients, r.players[id].conn)
	}
	r.mu.RUnlock()

	for _, conn := range recipients {
		if deliver(conn, data) {
			r.metrics.MessageSent()
		} else {
			r.metrics.BroadcastDropped()
		}
	}
}

// SendTo delivers a message to a single roster member.
func (r *Room) SendTo(playerID, kind string, payload interface{}) bool {
	r.mu.RLock()
	player, ok := r.players[playerID]
	var conn Conn
	if ok {
		conn = player.conn
	}
	r.mu.RUnlock()
	if !ok {
		return false
	}

	data, err := encodeMessage(kind, payload)
	if err != nil {
		log.Printf("Error marshaling %s for player %s: %v", kind, playerID, err)
		return false
	}
	if !deliver(conn, data) {
		r.metrics.BroadcastDropped()
		return false
	}
	r.metrics.MessageSent()
	return true
}

// ApplyRoundScores adds every result to the matching player. Results for
// players no longer in the roster are ignored.
func (r *Room) ApplyRoundScores(results []ScoreResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, result := range results {
		if player, ok := r.players[result.PlayerID]; ok {
			player.AddScore(result.Score)
		}
	}
}

// Standings lists the roster by total score, highest first. Equal scores keep
// join order.
func (r *Room) Standings() []Standing {
	r.mu.RLock()
	standings := make([]Standing, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		standings = append(standings, Standing{PlayerID: p.ID, Username: p.Username, TotalScore: p.Score})
	}
	r.mu.RUnlock()

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].TotalScore > standings[j].TotalScore
	})
	return standings
}

// SubmitAnswer forwards a pick to the scheduler. Only roster members may
// answer.
func (r *Room) SubmitAnswer(playerID string, pick bool) bool {
	r.mu.RLock()
	_, member := r.players[playerID]
	count := len(r.players)
	r.mu.RUnlock()
	if !member {
		return false
	}
	return r.scheduler.SubmitAnswer(playerID, pick, count)
}

// StartGame starts a new game. A positive roundDuration replaces the
// configured answer window.
func (r *Room) StartGame(roundDuration time.Duration) error {
	if roundDuration > 0 {
		r.scheduler.SetRoundDuration(roundDuration)
	}
	return r.scheduler.StartGame()
}

func (r *Room) Player(playerID string) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[playerID]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

func (r *Room) Players() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.players[id])
	}
	return out
}

func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

func (r *Room) IsEmpty() bool {
	return r.PlayerCount() == 0
}

// closeIfEmpty marks an empty room closed so that no join can slip in before
// it is torn down.
func (r *Room) closeIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || len(r.players) > 0 {
		return false
	}
	r.closed = true
	return true
}

// Close stops the scheduler and releases observer resources. Safe to call
// more than once.
func (r *Room) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.closeOnce.Do(func() {
		r.scheduler.Stop()
		r.observers.RoomClosed()
	})
}

func (r *Room) Status() RoomStatus {
	state := r.scheduler.State()
	return RoomStatus{
		RoomID:      r.id,
		Phase:       state.Phase,
		PhaseName:   state.Phase.String(),
		Round:       state.Round,
		PlayerCount: r.PlayerCount(),
		EndsAt:      unixMillis(state.EndsAt),
	}
}

func (r *Room) statePayload() StatePayload {
	state := r.scheduler.State()
	return StatePayload{
		Phase:       state.Phase,
		PhaseName:   state.Phase.String(),
		Round:       state.Round,
		PlayerCount: r.PlayerCount(),
	}
}
