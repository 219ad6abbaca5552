package services

import "time"

// Conn is the outbound side of a transport session. Send must not block; it
// reports false when the message could not be queued.
type Conn interface {
	Send(message []byte) bool
}

// Player is a room member together with its cumulative score.
type Player struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Score        int       `json:"score"`
	JoinedAt     time.Time `json:"joinedAt"`
	ConnectionID string    `json:"-"`

	conn Conn
}

func NewPlayer(id, username, connectionID string, conn Conn) *Player {
	return &Player{
		ID:           id,
		Username:     username,
		JoinedAt:     time.Now(),
		ConnectionID: connectionID,
		conn:         conn,
	}
}

func (p *Player) AddScore(points int) {
	p.Score += points
}

// deliver sends message on conn. A player without a connection drops it.
func deliver(conn Conn, message []byte) bool {
	if conn == nil {
		return false
	}
	return conn.Send(message)
}
