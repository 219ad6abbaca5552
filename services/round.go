package services

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// BasePoints is awarded to every correct submission
	BasePoints = 100

	// SpeedBonus is the most a majority submitter can earn on top of BasePoints
	SpeedBonus = 50
)

// Submission is one player's pick for a round. It never changes once recorded.
type Submission struct {
	PlayerID    string
	Pick        bool
	SubmittedAt time.Time
}

type ScoreResult struct {
	PlayerID string `json:"playerId"`
	Pick     bool   `json:"pick"`
	Score    int    `json:"score"`
	Correct  bool   `json:"correct"`
}

// Round collects at most one submission per player for a single prompt.
// It is owned by a Scheduler and is not safe for concurrent use on its own.
type Round struct {
	ID        string
	Content   RoundContent
	StartedAt time.Time
	Deadline  time.Time

	duration time.Duration
	clock    Clock
	picks    map[string]Submission
	closed   bool
}

func NewRound(duration time.Duration, clock Clock) *Round {
	if clock == nil {
		clock = SystemClock()
	}
	now := clock.Now()
	return &Round{
		ID:        uuid.NewString(),
		StartedAt: now,
		Deadline:  now.Add(duration),
		duration:  duration,
		clock:     clock,
		picks:     make(map[string]Submission),
	}
}

// Open restarts the answer window at the current time.
func (r *Round) Open() {
	r.StartedAt = r.clock.Now()
	r.Deadline = r.StartedAt.Add(r.duration)
}

func (r *Round) Duration() time.Duration {
	return r.duration
}

// SubmitAnswer records the first pick of a player. Later picks and picks on a
// closed round are rejected.
func (r *Round) SubmitAnswer(playerID string, pick bool) bool {
	if r.closed {
		return false
	}
	if _, exists := r.picks[playerID]; exists {
		return false
	}

	r.picks[playerID] = Submission{
		PlayerID:    playerID,
		Pick:        pick,
		SubmittedAt: r.clock.Now(),
	}
	return true
}

func (r *Round) End() {
	r.closed = true
}

func (r *Round) Closed() bool {
	return r.closed
}

func (r *Round) AnswerCount() int {
	return len(r.picks)
}

func (r *Round) HasAnswered(playerID string) bool {
	_, ok := r.picks[playerID]
	return ok
}

func (r *Round) RemainingTime() time.Duration {
	remaining := r.Deadline.Sub(r.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CalculateScores rewards the larger pick group. Equal groups (including no
// submissions at all) give every submitter BasePoints. Otherwise the majority
// earns BasePoints plus a speed bonus that shrinks with submission rank, and
// the minority earns nothing.
func (r *Round) CalculateScores() []ScoreResult {
	var groupA, groupB []Submission
	for _, s := range r.picks {
		if s.Pick {
			groupA = append(groupA, s)
		} else {
			groupB = append(groupB, s)
		}
	}

	results := make([]ScoreResult, 0, len(r.picks))

	if len(groupA) == len(groupB) {
		for _, s := range append(groupA, groupB...) {
			results = append(results, ScoreResult{
				PlayerID: s.PlayerID,
				Pick:     s.Pick,
				Score:    BasePoints,
				Correct:  true,
			})
		}
		return results
	}

	majority, minority := groupA, groupB
	if len(groupB) > len(groupA) {
		majority, minority = groupB, groupA
	}

	slices.SortFunc(majority, func(a, b Submission) int {
		if c := a.SubmittedAt.Compare(b.SubmittedAt); c != 0 {
			return c
		}
		return strings.Compare(a.PlayerID, b.PlayerID)
	})

	// floor(SpeedBonus * (1 - i/n)) in integer arithmetic
	n := len(majority)
	for i, s := range majority {
		results = append(results, ScoreResult{
			PlayerID: s.PlayerID,
			Pick:     s.Pick,
			Score:    BasePoints + SpeedBonus*(n-i)/n,
			Correct:  true,
		})
	}

	for _, s := range minority {
		results = append(results, ScoreResult{
			PlayerID: s.PlayerID,
			Pick:     s.Pick,
			Score:    0,
			Correct:  false,
		})
	}

	return results
}
