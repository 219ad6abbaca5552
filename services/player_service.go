package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"splitquiz/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultUsername = "Unnamed"

// Identity is the resolved public identity of a player.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// IdentityResolver looks up an externally issued player id.
type IdentityResolver interface {
	ResolvePlayer(ctx context.Context, playerID string) (*Identity, error)
}

// PlayerService resolves identities from the users table, caching them in
// Redis. A Redis failure falls back to the database.
type PlayerService struct {
	db       *gorm.DB
	redis    *redis.Client
	cacheTTL time.Duration
}

func NewPlayerService(db *gorm.DB, redis *redis.Client, cacheTTL time.Duration) *PlayerService {
	return &PlayerService{
		db:       db,
		redis:    redis,
		cacheTTL: cacheTTL,
	}
}

func (s *PlayerService) ResolvePlayer(ctx context.Context, playerID string) (*Identity, error) {
	if playerID == "" {
		return nil, ErrPlayerNotFound
	}

	if identity, ok := s.cached(ctx, playerID); ok {
		return identity, nil
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", playerID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
		}
		return nil, fmt.Errorf("failed to load player %s: %w", playerID, err)
	}

	identity := &Identity{ID: user.ID, Username: user.Username}
	if identity.Username == "" {
		identity.Username = defaultUsername
	}
	s.store(ctx, identity)
	return identity, nil
}

func (s *PlayerService) cached(ctx context.Context, playerID string) (*Identity, bool) {
	if s.redis == nil {
		return nil, false
	}
	data, err := s.redis.Get(ctx, userKey(playerID)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Error reading identity cache for %s: %v", playerID, err)
		}
		return nil, false
	}

	var identity Identity
	if err := json.Unmarshal([]byte(data), &identity); err != nil {
		log.Printf("Error decoding identity cache for %s: %v", playerID, err)
		return nil, false
	}
	return &identity, true
}

func (s *PlayerService) store(ctx context.Context, identity *Identity) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(identity)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, userKey(identity.ID), data, s.cacheTTL).Err(); err != nil {
		log.Printf("Error caching identity %s: %v", identity.ID, err)
	}
}

func userKey(playerID string) string {
	return "user:" + playerID
}
