package services

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics tracks connection, message and game counters. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Connection metrics
	activeConnections int64
	totalConnections  int64
	activeRooms       int64
	totalRooms        int64

	// Message metrics
	messagesReceived int64
	messagesSent     int64
	lastMessageTime  int64 // Unix timestamp

	// Error metrics
	protocolErrors   int64
	broadcastDropped int64
	storeDropped     int64

	// Game metrics
	roundsPlayed     int64
	gamesCompleted   int64
	contentFailures  int64
	gamesCancelled   int64
	answersSubmitted int64

	startTime time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.activeConnections, 1)
	atomic.AddInt64(&m.totalConnections, 1)
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.activeConnections, -1)
}

func (m *Metrics) RoomCreated() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.activeRooms, 1)
	atomic.AddInt64(&m.totalRooms, 1)
}

func (m *Metrics) RoomDeleted() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.activeRooms, -1)
}

func (m *Metrics) MessageReceived() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.messagesReceived, 1)
	atomic.StoreInt64(&m.lastMessageTime, time.Now().Unix())
}

func (m *Metrics) MessageSent() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.messagesSent, 1)
}

func (m *Metrics) ProtocolError() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.protocolErrors, 1)
}

func (m *Metrics) BroadcastDropped() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.broadcastDropped, 1)
}

func (m *Metrics) StoreWriteDropped() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.storeDropped, 1)
}

// ForRoom returns an observer that counts game events of one room.
func (m *Metrics) ForRoom(string) Observer {
	return ObserverFunc(func(kind string, payload interface{}) {
		if m == nil {
			return
		}
		switch kind {
		case ClientRoundStats:
			atomic.AddInt64(&m.roundsPlayed, 1)
		case ClientGameOver:
			atomic.AddInt64(&m.gamesCompleted, 1)
		case ClientSubmitState:
			atomic.AddInt64(&m.answersSubmitted, 1)
		case ClientCancel:
			atomic.AddInt64(&m.gamesCancelled, 1)
			if p, ok := payload.(CancelPayload); ok && p.Reason == CancelReasonContentUnavailable {
				atomic.AddInt64(&m.contentFailures, 1)
			}
		}
	})
}

// MetricsSnapshot is a point-in-time view of all counters.
type MetricsSnapshot struct {
	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	ActiveRooms       int64 `json:"active_rooms"`
	TotalRooms        int64 `json:"total_rooms"`

	MessagesReceived  int64   `json:"messages_received"`
	MessagesSent      int64   `json:"messages_sent"`
	MessagesPerSecond float64 `json:"messages_per_second"`
	LastMessageTime   string  `json:"last_message_time"`

	ProtocolErrors    int64 `json:"protocol_errors"`
	BroadcastDropped  int64 `json:"broadcast_dropped"`
	StoreWriteDropped int64 `json:"store_write_dropped"`

	RoundsPlayed     int64 `json:"rounds_played"`
	GamesCompleted   int64 `json:"games_completed"`
	GamesCancelled   int64 `json:"games_cancelled"`
	ContentFailures  int64 `json:"content_failures"`
	AnswersSubmitted int64 `json:"answers_submitted"`

	UptimeSeconds int64  `json:"uptime_seconds"`
	MemoryUsageMB uint64 `json:"memory_usage_mb"`
	NumGoroutines int    `json:"num_goroutines"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := time.Since(m.startTime)
	var perSecond float64
	if uptime > 0 {
		perSecond = float64(atomic.LoadInt64(&m.messagesReceived)) / uptime.Seconds()
	}

	lastMessage := "never"
	if ts := atomic.LoadInt64(&m.lastMessageTime); ts > 0 {
		lastMessage = time.Unix(ts, 0).Format(time.RFC3339)
	}

	return MetricsSnapshot{
		ActiveConnections: atomic.LoadInt64(&m.activeConnections),
		TotalConnections:  atomic.LoadInt64(&m.totalConnections),
		ActiveRooms:       atomic.LoadInt64(&m.activeRooms),
		TotalRooms:        atomic.LoadInt64(&m.totalRooms),
		MessagesReceived:  atomic.LoadInt64(&m.messagesReceived),
		MessagesSent:      atomic.LoadInt64(&m.messagesSent),
		MessagesPerSecond: perSecond,
		LastMessageTime:   lastMessage,
		ProtocolErrors:    atomic.LoadInt64(&m.protocolErrors),
		BroadcastDropped:  atomic.LoadInt64(&m.broadcastDropped),
		StoreWriteDropped: atomic.LoadInt64(&m.storeDropped),
		RoundsPlayed:      atomic.LoadInt64(&m.roundsPlayed),
		GamesCompleted:    atomic.LoadInt64(&m.gamesCompleted),
		GamesCancelled:    atomic.LoadInt64(&m.gamesCancelled),
		ContentFailures:   atomic.LoadInt64(&m.contentFailures),
		AnswersSubmitted:  atomic.LoadInt64(&m.answersSubmitted),
		UptimeSeconds:     int64(uptime.Seconds()),
		MemoryUsageMB:     memStats.Alloc / 1024 / 1024,
		NumGoroutines:     runtime.NumGoroutine(),
	}
}
