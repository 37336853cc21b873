package eventbus_test

import (
	"testing"
	"time"

	"github.com/slidemote/slidemote/internal/eventbus"
	"github.com/slidemote/slidemote/internal/state"
)

func TestBusPublishDeliver(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe(eventbus.TopicStateChanged)
	defer sub.Close()

	payload := eventbus.StateChangedEvent{
		Snapshot: state.Snapshot{Status: state.StatusConnected},
	}
	bus.Publish(eventbus.Envelope{
		Topic:   eventbus.TopicStateChanged,
		Source:  eventbus.SourceEngine,
		Payload: payload,
	})

	select {
	case env := <-sub.C():
		change, ok := env.Payload.(eventbus.StateChangedEvent)
		if !ok {
			t.Fatalf("expected StateChangedEvent payload, got %T", env.Payload)
		}
		if change.Snapshot.Status != state.StatusConnected {
			t.Fatalf("expected connected snapshot, got %s", change.Snapshot.Status)
		}
		if env.Timestamp.IsZero() {
			t.Fatal("expected envelope timestamp to be stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusDropOldestKeepsNewest(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe(eventbus.TopicStateChanged, eventbus.WithSubscriptionBuffer(1))
	defer sub.Close()

	for attempt := 1; attempt <= 3; attempt++ {
		bus.Publish(eventbus.Envelope{
			Topic:   eventbus.TopicStateChanged,
			Source:  eventbus.SourceEngine,
			Payload: eventbus.StateChangedEvent{Snapshot: state.Snapshot{RetryAttempt: attempt}},
		})
	}

	select {
	case env := <-sub.C():
		change := env.Payload.(eventbus.StateChangedEvent)
		if change.Snapshot.RetryAttempt != 3 {
			t.Fatalf("expected newest snapshot (attempt 3), got %d", change.Snapshot.RetryAttempt)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event after drops")
	}

	if sub.Dropped() == 0 {
		t.Fatal("expected dropped events to be recorded")
	}
}

func TestBusNilIsNoOp(t *testing.T) {
	var bus *eventbus.Bus
	bus.Publish(eventbus.Envelope{Topic: eventbus.TopicStateChanged})
	bus.Shutdown()
}

func TestBusShutdownClosesSubscriptions(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe(eventbus.TopicFrameSent)

	bus.Shutdown()

	select {
	case _, ok := <-sub.C():
		if ok {
			t.Fatal("expected closed channel after shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe(eventbus.TopicStateChanged)
	sub.Close()
	sub.Close()
}
