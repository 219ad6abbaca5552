package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusDeliversInRegistrationOrder(t *testing.T) {
	bus := NewEventBus()
	var calls []string

	bus.Subscribe("ping", func(payload interface{}) error {
		calls = append(calls, "first:"+payload.(string))
		return nil
	})
	bus.Subscribe("ping", func(payload interface{}) error {
		calls = append(calls, "second:"+payload.(string))
		return nil
	})
	bus.Subscribe("other", func(payload interface{}) error {
		calls = append(calls, "other")
		return nil
	})

	bus.Publish("ping", "x")
	assert.Equal(t, []string{"first:x", "second:x"}, calls)
}

func TestEventBusIsolatesFailingHandlers(t *testing.T) {
	bus := NewEventBus()
	delivered := 0

	bus.Subscribe("evt", func(interface{}) error { return errors.New("boom") })
	bus.Subscribe("evt", func(interface{}) error { panic("handler exploded") })
	bus.Subscribe("evt", func(interface{}) error {
		delivered++
		return nil
	})

	assert.NotPanics(t, func() { bus.Publish("evt", nil) })
	assert.Equal(t, 1, delivered)
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	hits := 0
	off := bus.Subscribe("evt", func(interface{}) error {
		hits++
		return nil
	})
	assert.Equal(t, 1, bus.HandlerCount("evt"))

	off()
	off()
	bus.Publish("evt", nil)

	assert.Zero(t, hits)
	assert.Zero(t, bus.HandlerCount("evt"))
}

func TestEventBusUnsubscribeDuringPublish(t *testing.T) {
	bus := NewEventBus()
	var calls []string

	var offSecond func()
	bus.Subscribe("evt", func(interface{}) error {
		calls = append(calls, "first")
		offSecond()
		return nil
	})
	offSecond = bus.Subscribe("evt", func(interface{}) error {
		calls = append(calls, "second")
		return nil
	})

	bus.Publish("evt", nil)
	bus.Publish("evt", nil)
	assert.Equal(t, []string{"first", "second", "first"}, calls)
}

func TestOnRejectsWrongPayloadType(t *testing.T) {
	bus := NewEventBus()
	var got []SocketConnected

	On(bus, EventSocketConnected, func(ev SocketConnected) error {
		got = append(got, ev)
		return nil
	})

	bus.Publish(EventSocketConnected, "not an event")
	bus.Publish(EventSocketConnected, SocketConnected{ConnectionID: "c1"})

	assert.Equal(t, []SocketConnected{{ConnectionID: "c1"}}, got)
}
