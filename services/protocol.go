package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Internal bus topics published by the connection manager
const (
	EventSocketConnected    = "socket:connected"
	EventSocketMessage      = "socket:message"
	EventSocketDisconnected = "socket:disconnected"
)

// Client → Server routing
const (
	ChannelRoom       = "room"
	ChannelRoomPrefix = "room:"

	MsgJoin    = "join"
	MsgStart   = "start"
	MsgRespond = "respond"
)

// Server → Client message types
const (
	ClientConnected     = "client:connected"
	ClientDisconnected  = "client:disconnected"
	ClientTransition    = "client:transition"
	ClientRoundStart    = "client:round-start"
	ClientRoundEnd      = "client:round-end"
	ClientRoundStats    = "client:round-stats"
	ClientState         = "client:state"
	ClientCancel        = "client:cancel"
	ClientGameOver      = "client:game_over"
	ClientSubmitState   = "client:submit-state"
	ClientRemainingTime = "client:remaining_time"
)

const (
	CancelReasonNotEnoughPlayers   = "Not enough players"
	CancelReasonContentUnavailable = "Round content unavailable"
)

// Message is the outbound envelope written to every client.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// InboundMessage is the only shape a client may send.
type InboundMessage struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type SocketConnected struct {
	ConnectionID string
}

type SocketMessage struct {
	ConnectionID string
	Channel      string
	Event        string
	Payload      json.RawMessage
}

// SocketDisconnected carries the association the connection had right before
// it was dropped from the registry.
type SocketDisconnected struct {
	ConnectionID string
	PlayerID     string
	RoomID       string
}

type JoinPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type StartPayload struct {
	Duration int64 `json:"duration,omitempty"` // milliseconds
}

type RespondPayload struct {
	Answer *bool `json:"answer"`
}

// RoundContent is the prompt shown for one round. The two choices are the
// text before LeftSplitIndex and the text after RightSplitIndex.
type RoundContent struct {
	Text            string `json:"text"`
	LeftSplitIndex  int    `json:"l_index"`
	RightSplitIndex int    `json:"r_index"`
}

type TransitionPayload struct {
	Phase     Phase  `json:"phase"`
	PhaseName string `json:"phaseName"`
	Round     int    `json:"round"`
	EndsAt    int64  `json:"endsAt,omitempty"`
	TimeLeft  int    `json:"timeleft"`
}

type RoundStartPayload struct {
	RoundID  string       `json:"roundId"`
	Round    int          `json:"round"`
	Duration int64        `json:"duration"`
	EndsAt   int64        `json:"endsAt"`
	Data     RoundContent `json:"data"`
}

type RoundEndPayload struct {
	RoundID string `json:"roundId"`
	Round   int    `json:"round"`
}

type RoundStatsPayload struct {
	RoundID string        `json:"roundId"`
	Round   int           `json:"round"`
	Results []ScoreResult `json:"results"`
}

type StatePayload struct {
	Phase       Phase  `json:"phase"`
	PhaseName   string `json:"phaseName"`
	Round       int    `json:"round"`
	PlayerCount int    `json:"playerCount"`
}

type CancelPayload struct {
	Reason string `json:"reason"`
}

type GameOverPayload struct {
	Scores []Standing `json:"scores"`
}

type SubmitStatePayload struct {
	PlayerID     string `json:"playerId"`
	Round        int    `json:"round"`
	AnswerCount  int    `json:"answerCount"`
	TotalPlayers int    `json:"totalPlayers"`
}

type RemainingTimePayload struct {
	TimeLeft int   `json:"timeleft"`
	Phase    Phase `json:"phase"`
	Round    int   `json:"round"`
}

type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type DisconnectedPayload struct {
	PlayerID string `json:"playerId"`
}

// Standing is one line of the cumulative scoreboard.
type Standing struct {
	PlayerID   string `json:"playerId"`
	Username   string `json:"username"`
	TotalScore int    `json:"totalScore"`
}

func encodeMessage(messageType string, payload interface{}) ([]byte, error) {
	if messageType == "" {
		return nil, fmt.Errorf("encode message: empty type")
	}
	return json.Marshal(Message{Type: messageType, Payload: payload})
}

// roomFromChannel extracts the room id from a "room:<id>" routing key.
func roomFromChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, ChannelRoomPrefix) {
		return "", false
	}
	roomID := strings.TrimPrefix(channel, ChannelRoomPrefix)
	if roomID == "" {
		return "", false
	}
	return roomID, true
}

func decodePayload[T any](raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return out, nil
}

func unixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// secondsLeft rounds up so a client never shows 0 while time remains.
func secondsLeft(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
