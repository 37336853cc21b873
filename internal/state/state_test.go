package state_test

import (
	"testing"

	"github.com/slidemote/slidemote/internal/state"
)

func TestConnectLifecycle(t *testing.T) {
	snap := state.Snapshot{Status: state.StatusDisconnected, AutoReconnect: true}

	snap = state.Apply(snap, state.ConnectRequested{Address: "192.168.1.5:8080"})
	if snap.Status != state.StatusConnecting {
		t.Fatalf("expected connecting, got %s", snap.Status)
	}
	if snap.Target != "192.168.1.5:8080" {
		t.Fatalf("expected target recorded, got %q", snap.Target)
	}
	if snap.RetryAttempt != 0 {
		t.Fatalf("expected retry attempt 0, got %d", snap.RetryAttempt)
	}

	snap = state.Apply(snap, state.Connected{})
	if snap.Status != state.StatusConnected {
		t.Fatalf("expected connected, got %s", snap.Status)
	}
	if snap.LastError != "" {
		t.Fatalf("connected must imply no error, got %q", snap.LastError)
	}
}

func TestDialFailureSetsError(t *testing.T) {
	snap := state.Snapshot{Status: state.StatusConnecting, AutoReconnect: true}
	snap = state.Apply(snap, state.SendFailed{Reason: "connect timed out"})
	if snap.Status != state.StatusError {
		t.Fatalf("expected error, got %s", snap.Status)
	}
	if snap.LastError != "connect timed out" {
		t.Fatalf("expected reason recorded, got %q", snap.LastError)
	}
}

func TestLostLinkHonoursAutoReconnect(t *testing.T) {
	base := state.Snapshot{Status: state.StatusConnected}

	withRetry := base
	withRetry.AutoReconnect = true
	withRetry = state.Apply(withRetry, state.Disconnected{Reason: "link lost"})
	if withRetry.Status != state.StatusError {
		t.Fatalf("auto-reconnect on: expected error, got %s", withRetry.Status)
	}
	if withRetry.LastError != "link lost" {
		t.Fatalf("expected reason recorded, got %q", withRetry.LastError)
	}

	withoutRetry := base
	withoutRetry.AutoReconnect = false
	withoutRetry = state.Apply(withoutRetry, state.Disconnected{Reason: "link lost"})
	if withoutRetry.Status != state.StatusDisconnected {
		t.Fatalf("auto-reconnect off: expected disconnected, got %s", withoutRetry.Status)
	}
}

func TestLostLinkWhileConnectingIsAnError(t *testing.T) {
	for _, auto := range []bool{true, false} {
		snap := state.Snapshot{Status: state.StatusConnecting, AutoReconnect: auto}
		snap = state.Apply(snap, state.Disconnected{Reason: "link lost"})
		if snap.Status != state.StatusError {
			t.Fatalf("autoReconnect=%v: expected error, got %s", auto, snap.Status)
		}
		if snap.LastError != "link lost" {
			t.Fatalf("autoReconnect=%v: expected reason recorded, got %q", auto, snap.LastError)
		}
	}
}

func TestManualDisconnectNeverErrors(t *testing.T) {
	snap := state.Snapshot{Status: state.StatusConnected, AutoReconnect: true, LastError: ""}
	snap = state.Apply(snap, state.Disconnected{Manual: true})
	if snap.Status != state.StatusDisconnected {
		t.Fatalf("expected disconnected, got %s", snap.Status)
	}
	if snap.LastError != "" {
		t.Fatalf("expected no error on manual disconnect, got %q", snap.LastError)
	}
}

func TestRetryScheduledIncrementsAttempt(t *testing.T) {
	snap := state.Snapshot{Status: state.StatusError, AutoReconnect: true}

	snap = state.Apply(snap, state.RetryScheduled{Attempt: 1})
	if snap.Status != state.StatusConnecting {
		t.Fatalf("expected connecting, got %s", snap.Status)
	}
	if snap.RetryAttempt != 1 {
		t.Fatalf("expected attempt 1, got %d", snap.RetryAttempt)
	}

	// Success resets the counter.
	snap = state.Apply(snap, state.Connected{})
	if snap.RetryAttempt != 0 {
		t.Fatalf("expected attempt reset to 0, got %d", snap.RetryAttempt)
	}
}

func TestPointerEventsPreserveStatus(t *testing.T) {
	for _, status := range []state.Status{
		state.StatusDisconnected,
		state.StatusConnecting,
		state.StatusConnected,
		state.StatusError,
	} {
		snap := state.Snapshot{Status: status}

		snap = state.Apply(snap, state.PointerModeToggled{})
		if !snap.PointerMode {
			t.Fatalf("%s: expected pointer mode on", status)
		}
		if snap.Status != status {
			t.Fatalf("%s: toggle changed status to %s", status, snap.Status)
		}

		snap = state.Apply(snap, state.PointerMoved{X: 150, Y: -3})
		if snap.PointerX != 100 || snap.PointerY != 0 {
			t.Fatalf("%s: expected clamped (100, 0), got (%v, %v)", status, snap.PointerX, snap.PointerY)
		}
		if snap.Status != status {
			t.Fatalf("%s: move changed status to %s", status, snap.Status)
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	original := state.Snapshot{Status: state.StatusConnected, PointerX: 10}
	_ = state.Apply(original, state.PointerMoved{X: 90, Y: 90})
	if original.PointerX != 10 {
		t.Fatalf("input snapshot mutated: %v", original.PointerX)
	}
}

func TestStoreDispatchNotifiesInOrder(t *testing.T) {
	var seen []state.Status
	store := state.NewStore(true, func(snap state.Snapshot) {
		seen = append(seen, snap.Status)
	})

	store.Dispatch(state.ConnectRequested{Address: "10.0.0.2:9000"})
	store.Dispatch(state.Connected{})
	store.Dispatch(state.Disconnected{Reason: "link lost"})

	want := []state.Status{state.StatusConnecting, state.StatusConnected, state.StatusError}
	if len(seen) != len(want) {
		t.Fatalf("expected %d notifications, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("notification %d: expected %s, got %s", i, want[i], seen[i])
		}
	}

	if got := store.Current().Status; got != state.StatusError {
		t.Fatalf("expected current status error, got %s", got)
	}
}
