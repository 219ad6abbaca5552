package services

import (
	"log"
)

// Observer receives domain notifications from a room: phase transitions,
// round results and roster changes.
type Observer interface {
	Notify(kind string, payload interface{})
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(kind string, payload interface{})

func (f ObserverFunc) Notify(kind string, payload interface{}) {
	f(kind, payload)
}

// RoomCloser is implemented by observers that hold per-room resources.
type RoomCloser interface {
	RoomClosed()
}

// ObserverFactory builds the observer attached to a newly created room.
type ObserverFactory func(roomID string) Observer

// Observers fans a notification out in order. A panicking observer is logged
// and skipped.
type Observers []Observer

func (o Observers) Notify(kind string, payload interface{}) {
	for _, observer := range o {
		notifySafely(observer, kind, payload)
	}
}

func (o Observers) RoomClosed() {
	for _, observer := range o {
		if closer, ok := observer.(RoomCloser); ok {
			closer.RoomClosed()
		}
	}
}

func notifySafely(observer Observer, kind string, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Observer panic on %s: %v", kind, r)
		}
	}()
	observer.Notify(kind, payload)
}

// LogObserver logs the notifications worth keeping in the server log.
type LogObserver struct {
	roomID string
}

func NewLogObserver(roomID string) Observer {
	return &LogObserver{roomID: roomID}
}

func (l *LogObserver) Notify(kind string, payload interface{}) {
	switch p := payload.(type) {
	case TransitionPayload:
		log.Printf("Room %s: phase %s (round %d)", l.roomID, p.PhaseName, p.Round)
	case RoundStartPayload:
		log.Printf("Room %s: round %d started (%s), closes in %dms", l.roomID, p.Round, p.RoundID, p.Duration)
	case RoundStatsPayload:
		log.Printf("Room %s: round %d scored, %d results", l.roomID, p.Round, len(p.Results))
	case CancelPayload:
		log.Printf("Room %s: cancelled - %s", l.roomID, p.Reason)
	case GameOverPayload:
		log.Printf("Room %s: game over, %d players ranked", l.roomID, len(p.Scores))
	case ConnectedPayload:
		log.Printf("Room %s: player %s (%s) joined", l.roomID, p.PlayerID, p.Username)
	case DisconnectedPayload:
		log.Printf("Room %s: player %s left", l.roomID, p.PlayerID)
	}
}
