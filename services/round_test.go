package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoresByPlayer(results []ScoreResult) map[string]ScoreResult {
	out := make(map[string]ScoreResult, len(results))
	for _, r := range results {
		out[r.PlayerID] = r
	}
	return out
}

func TestCalculateScoresEmpty(t *testing.T) {
	round := NewRound(time.Second, newFakeClock())
	round.End()

	assert.Empty(t, round.CalculateScores())
}

func TestCalculateScoresTie(t *testing.T) {
	tests := []struct {
		name  string
		picks map[string]bool
	}{
		{"one each", map[string]bool{"a": true, "b": false}},
		{"two each", map[string]bool{"a": true, "b": false, "c": true, "d": false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			round := NewRound(time.Minute, clock)
			for id, pick := range tt.picks {
				require.True(t, round.SubmitAnswer(id, pick))
				clock.Advance(time.Millisecond)
			}

			results := round.CalculateScores()
			require.Len(t, results, len(tt.picks))
			for _, r := range results {
				assert.Equal(t, BasePoints, r.Score, r.PlayerID)
				assert.True(t, r.Correct, r.PlayerID)
				assert.Equal(t, tt.picks[r.PlayerID], r.Pick)
			}
		})
	}
}

func TestCalculateScoresMajoritySpeedBonus(t *testing.T) {
	clock := newFakeClock()
	round := NewRound(time.Minute, clock)

	require.True(t, round.SubmitAnswer("slow-minority", false))
	clock.Advance(100 * time.Millisecond)
	require.True(t, round.SubmitAnswer("first", true))
	clock.Advance(100 * time.Millisecond)
	require.True(t, round.SubmitAnswer("second", true))
	clock.Advance(100 * time.Millisecond)
	require.True(t, round.SubmitAnswer("third", true))

	results := scoresByPlayer(round.CalculateScores())
	require.Len(t, results, 4)

	assert.Equal(t, 150, results["first"].Score)
	assert.Equal(t, 133, results["second"].Score)
	assert.Equal(t, 116, results["third"].Score)
	for _, id := range []string{"first", "second", "third"} {
		assert.True(t, results[id].Correct)
		assert.True(t, results[id].Pick)
	}

	assert.Equal(t, 0, results["slow-minority"].Score)
	assert.False(t, results["slow-minority"].Correct)
}

func TestCalculateScoresLoneMajority(t *testing.T) {
	round := NewRound(time.Minute, newFakeClock())
	require.True(t, round.SubmitAnswer("only", false))

	results := round.CalculateScores()
	require.Len(t, results, 1)
	assert.Equal(t, BasePoints+SpeedBonus, results[0].Score)
	assert.True(t, results[0].Correct)
}

func TestCalculateScoresSameInstantOrderedByPlayer(t *testing.T) {
	round := NewRound(time.Minute, newFakeClock())
	require.True(t, round.SubmitAnswer("b", true))
	require.True(t, round.SubmitAnswer("a", true))

	results := scoresByPlayer(round.CalculateScores())
	assert.Equal(t, 150, results["a"].Score)
	assert.Equal(t, 125, results["b"].Score)
}

func TestRoundSubmitAnswer(t *testing.T) {
	t.Run("after end", func(t *testing.T) {
		round := NewRound(time.Minute, newFakeClock())
		round.End()

		assert.False(t, round.SubmitAnswer("a", true))
		assert.Equal(t, 0, round.AnswerCount())
		assert.False(t, round.HasAnswered("a"))
	})

	t.Run("twice", func(t *testing.T) {
		round := NewRound(time.Minute, newFakeClock())

		assert.True(t, round.SubmitAnswer("a", true))
		assert.False(t, round.SubmitAnswer("a", false))
		assert.Equal(t, 1, round.AnswerCount())

		results := round.CalculateScores()
		require.Len(t, results, 1)
		assert.True(t, results[0].Pick, "first pick wins")
	})

	t.Run("end is idempotent", func(t *testing.T) {
		round := NewRound(time.Minute, newFakeClock())
		round.End()
		round.End()
		assert.True(t, round.Closed())
	})
}

func TestRoundRemainingTime(t *testing.T) {
	clock := newFakeClock()
	round := NewRound(10*time.Second, clock)
	assert.Equal(t, 10*time.Second, round.RemainingTime())

	clock.Advance(4 * time.Second)
	assert.Equal(t, 6*time.Second, round.RemainingTime())

	round.Open()
	assert.Equal(t, 10*time.Second, round.RemainingTime(), "open re-arms the deadline")

	clock.Advance(time.Minute)
	assert.Equal(t, time.Duration(0), round.RemainingTime())
}
