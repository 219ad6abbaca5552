package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2, cfg.Room.MinPlayers)
	assert.Equal(t, 5, cfg.Room.MaxRounds)
	assert.True(t, cfg.Room.AutoStart)
	assert.Equal(t, 5*time.Second, cfg.Room.Countdown)
	assert.Equal(t, 7500*time.Millisecond, cfg.Room.Round)
	assert.Equal(t, time.Second, cfg.Room.RemainingTimeInterval)
	assert.Equal(t, 10*time.Minute, cfg.IdentityCacheTTL)
	assert.Equal(t, 2*time.Hour, cfg.RoomStateTTL)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BIND_ADDRESS", "127.0.0.1")
	t.Setenv("ROOM_MIN_PLAYERS", "4")
	t.Setenv("ROOM_AUTO_START", "false")
	t.Setenv("ROOM_ROUND_MS", "3000")
	t.Setenv("ROOM_STATE_TTL", "30m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DEBUG", "true")

	cfg := Load()

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.Equal(t, 4, cfg.Room.MinPlayers)
	assert.False(t, cfg.Room.AutoStart)
	assert.Equal(t, 3*time.Second, cfg.Room.Round)
	assert.Equal(t, 30*time.Minute, cfg.RoomStateTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.Debug)
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("ROOM_MAX_ROUNDS", "many")
	t.Setenv("ROOM_AUTO_START", "maybe")
	t.Setenv("IDENTITY_CACHE_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 5, cfg.Room.MaxRounds)
	assert.True(t, cfg.Room.AutoStart)
	assert.Equal(t, 10*time.Minute, cfg.IdentityCacheTTL)
}
