package services

import "time"

// RoomConfig holds the phase durations and game rules of a room.
type RoomConfig struct {
	MinPlayers int
	MaxRounds  int
	AutoStart  bool

	CountdownDuration time.Duration
	IntroDuration     time.Duration
	RoundDuration     time.Duration
	RevealDuration    time.Duration
	OutroDuration     time.Duration

	// ContentTimeout bounds the content fetch at the start of every round
	ContentTimeout time.Duration

	// RemainingTimeInterval is the cadence of client:remaining_time updates.
	// Zero disables them.
	RemainingTimeInterval time.Duration
}

func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		MinPlayers:            2,
		MaxRounds:             5,
		AutoStart:             true,
		CountdownDuration:     5000 * time.Millisecond,
		IntroDuration:         500 * time.Millisecond,
		RoundDuration:         7500 * time.Millisecond,
		RevealDuration:        5000 * time.Millisecond,
		OutroDuration:         1500 * time.Millisecond,
		ContentTimeout:        3 * time.Second,
		RemainingTimeInterval: time.Second,
	}
}
