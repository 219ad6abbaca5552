package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type closingObserver struct {
	recorder
	closed int
}

func (c *closingObserver) RoomClosed() {
	c.closed++
}

func TestObserversFanOutSurvivesPanic(t *testing.T) {
	first := &recorder{}
	last := &recorder{}
	observers := Observers{
		first,
		ObserverFunc(func(string, interface{}) { panic("bad observer") }),
		last,
	}

	assert.NotPanics(t, func() {
		observers.Notify(ClientCancel, CancelPayload{Reason: "x"})
	})
	assert.Equal(t, 1, first.count(ClientCancel))
	assert.Equal(t, 1, last.count(ClientCancel))
}

func TestObserversRoomClosed(t *testing.T) {
	closer := &closingObserver{}
	observers := Observers{&recorder{}, closer}

	observers.RoomClosed()
	assert.Equal(t, 1, closer.closed)
}

func TestLogObserverHandlesEveryPayload(t *testing.T) {
	observer := NewLogObserver("r1")
	payloads := map[string]interface{}{
		ClientTransition: TransitionPayload{Phase: PhaseLobby, PhaseName: "lobby"},
		ClientRoundStart: RoundStartPayload{RoundID: "x", Round: 1},
		ClientRoundStats: RoundStatsPayload{Round: 1},
		ClientCancel:     CancelPayload{Reason: "x"},
		ClientGameOver:   GameOverPayload{},
		ClientConnected:  ConnectedPayload{PlayerID: "p"},
		"other":          42,
	}
	for kind, payload := range payloads {
		assert.NotPanics(t, func() { observer.Notify(kind, payload) })
	}
}

func TestMetricsForRoomCountsGameEvents(t *testing.T) {
	metrics := NewMetrics()
	observer := metrics.ForRoom("r1")

	observer.Notify(ClientRoundStats, RoundStatsPayload{})
	observer.Notify(ClientRoundStats, RoundStatsPayload{})
	observer.Notify(ClientGameOver, GameOverPayload{})
	observer.Notify(ClientCancel, CancelPayload{Reason: CancelReasonContentUnavailable})
	observer.Notify(ClientCancel, CancelPayload{Reason: CancelReasonNotEnoughPlayers})
	observer.Notify(ClientSubmitState, SubmitStatePayload{})

	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(2), snapshot.RoundsPlayed)
	assert.Equal(t, int64(1), snapshot.GamesCompleted)
	assert.Equal(t, int64(2), snapshot.GamesCancelled)
	assert.Equal(t, int64(1), snapshot.ContentFailures)
	assert.Equal(t, int64(1), snapshot.AnswersSubmitted)
}

func TestNilMetricsRecordsNothing(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.ConnectionOpened()
		metrics.BroadcastDropped()
		metrics.ForRoom("r1").Notify(ClientGameOver, GameOverPayload{})
	})
}
