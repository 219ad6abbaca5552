package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// fakeClock fires timers synchronously from Advance, in deadline order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward, running every timer that comes due on the way.
// Callbacks run without the clock lock held and may schedule new timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) || (t.at.Equal(next.at) && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		if next.at.After(c.now) {
			c.now = next.at
		}
		next.fired = true
		c.mu.Unlock()

		next.fn()
	}
}

// pending counts timers that have neither fired nor been stopped.
func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type recordedEvent struct {
	kind    string
	payload interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Notify(kind string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: kind, payload: payload})
}

func (r *recorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last(kind string) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].kind == kind {
			return r.events[i].payload, true
		}
	}
	return nil, false
}

func (r *recorder) all(kind string) []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []interface{}
	for _, e := range r.events {
		if e.kind == kind {
			out = append(out, e.payload)
		}
	}
	return out
}

func (r *recorder) phases() []Phase {
	var out []Phase
	for _, p := range r.all(ClientTransition) {
		out = append(out, p.(TransitionPayload).Phase)
	}
	return out
}

type stubBoard struct {
	mu      sync.Mutex
	applied [][]ScoreResult
	ranked  []Standing
}

func (b *stubBoard) ApplyRoundScores(results []ScoreResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applied = append(b.applied, results)
}

func (b *stubBoard) Standings() []Standing {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ranked
}

// fakeConn records every message sent to it.
type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
}

func (c *fakeConn) Send(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.messages = append(c.messages, message)
	return true
}

func (c *fakeConn) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.messages))
	for _, data := range c.messages {
		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err == nil {
			out = append(out, msg.Type)
		}
	}
	return out
}

func (c *fakeConn) countType(messageType string) int {
	n := 0
	for _, t := range c.types() {
		if t == messageType {
			n++
		}
	}
	return n
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	c.messages = nil
	c.mu.Unlock()
}

var testContent = RoundContent{Text: "cats or dogs", LeftSplitIndex: 4, RightSplitIndex: 8}

func staticContent() ContentSupplier {
	return ContentSupplierFunc(func(ctx context.Context) (*RoundContent, error) {
		content := testContent
		return &content, nil
	})
}

func testRoomConfig() RoomConfig {
	return RoomConfig{
		MinPlayers:        2,
		MaxRounds:         2,
		AutoStart:         true,
		CountdownDuration: 5 * time.Second,
		IntroDuration:     500 * time.Millisecond,
		RoundDuration:     7500 * time.Millisecond,
		RevealDuration:    5 * time.Second,
		OutroDuration:     1500 * time.Millisecond,
		ContentTimeout:    time.Second,
	}
}
