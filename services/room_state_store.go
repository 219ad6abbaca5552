package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const roomStateQueueSize = 256

// RoomSnapshot is the last known phase of a room as seen from outside the
// process. It is informational and never used to restore a game.
type RoomSnapshot struct {
	RoomID      string    `json:"roomId"`
	Phase       Phase     `json:"phase"`
	PhaseName   string    `json:"phaseName"`
	Round       int       `json:"round"`
	EndsAt      int64     `json:"endsAt,omitempty"`
	PlayerCount int       `json:"playerCount"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type stateWrite struct {
	roomID   string
	snapshot *RoomSnapshot
}

// RoomStateStore mirrors room phases into Redis. Observers enqueue writes and
// Run flushes them, so a slow Redis never stalls a room.
type RoomStateStore struct {
	redis   *redis.Client
	ttl     time.Duration
	metrics *Metrics
	queue   chan stateWrite
}

func NewRoomStateStore(client *redis.Client, ttl time.Duration, metrics *Metrics) *RoomStateStore {
	return &RoomStateStore{
		redis:   client,
		ttl:     ttl,
		metrics: metrics,
		queue:   make(chan stateWrite, roomStateQueueSize),
	}
}

// Run flushes queued writes until ctx is cancelled.
func (s *RoomStateStore) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case w := <-s.queue:
			var err error
			if w.snapshot == nil {
				err = s.Delete(ctx, w.roomID)
			} else {
				err = s.Save(ctx, w.snapshot)
			}
			if err != nil {
				log.Printf("Error writing state for room %s: %v", w.roomID, err)
			}
		}
	}
}

func (s *RoomStateStore) Save(ctx context.Context, snapshot *RoomSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal room state: %w", err)
	}
	return s.redis.Set(ctx, roomKey(snapshot.RoomID), data, s.ttl).Err()
}

// Get returns the stored snapshot, or ErrRoomNotFound.
func (s *RoomStateStore) Get(ctx context.Context, roomID string) (*RoomSnapshot, error) {
	data, err := s.redis.Get(ctx, roomKey(roomID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room state: %w", err)
	}

	var snapshot RoomSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room state: %w", err)
	}
	return &snapshot, nil
}

func (s *RoomStateStore) Delete(ctx context.Context, roomID string) error {
	return s.redis.Del(ctx, roomKey(roomID)).Err()
}

func (s *RoomStateStore) enqueue(w stateWrite) {
	select {
	case s.queue <- w:
	default:
		s.metrics.StoreWriteDropped()
		log.Printf("Room state queue full, dropping write for room %s", w.roomID)
	}
}

// ForRoom returns the observer recording the state of roomID.
func (s *RoomStateStore) ForRoom(roomID string) Observer {
	return &roomStateObserver{store: s, snapshot: RoomSnapshot{RoomID: roomID}}
}

type roomStateObserver struct {
	store *RoomStateStore

	mu       sync.Mutex
	snapshot RoomSnapshot
}

func (o *roomStateObserver) Notify(kind string, payload interface{}) {
	o.mu.Lock()
	switch p := payload.(type) {
	case TransitionPayload:
		o.snapshot.Phase = p.Phase
		o.snapshot.PhaseName = p.PhaseName
		o.snapshot.Round = p.Round
		o.snapshot.EndsAt = p.EndsAt
	case StatePayload:
		o.snapshot.PlayerCount = p.PlayerCount
	default:
		o.mu.Unlock()
		return
	}
	o.snapshot.UpdatedAt = time.Now()
	snapshot := o.snapshot
	o.mu.Unlock()

	o.store.enqueue(stateWrite{roomID: snapshot.RoomID, snapshot: &snapshot})
}

func (o *roomStateObserver) RoomClosed() {
	o.store.enqueue(stateWrite{roomID: o.snapshot.RoomID})
}

func roomKey(roomID string) string {
	return "room:" + roomID
}
