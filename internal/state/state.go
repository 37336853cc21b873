// Package state owns the engine's session state record. The record is
// replaced wholesale on every transition; readers only ever see complete
// snapshots, never a partially updated field set.
package state

import "github.com/slidemote/slidemote/internal/protocol"

// Status describes the connection lifecycle phase.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// Snapshot is one immutable session state record. It never holds a network
// handle, so it is trivially copyable and serializable.
type Snapshot struct {
	Status        Status
	LastError     string
	Target        string // host:port of the receiver, empty before first connect
	PointerMode   bool
	PointerX      float64
	PointerY      float64
	RetryAttempt  int
	AutoReconnect bool
}

// Event is a state transition input. The concrete types below are the only
// implementations.
type Event interface {
	isEvent()
}

// ConnectRequested records a manual connect to the given address. It always
// resets the retry counter and clears the previous error.
type ConnectRequested struct {
	Address string
}

// Connected records a successful dial.
type Connected struct{}

// Disconnected records a closed link. Manual marks a user-initiated close,
// which lands on StatusDisconnected with no error regardless of the
// auto-reconnect setting.
type Disconnected struct {
	Reason string
	Manual bool
}

// SendFailed records a dial or mid-session I/O failure.
type SendFailed struct {
	Reason string
}

// PointerModeToggled flips pointer mode without touching the connection.
type PointerModeToggled struct{}

// PointerMoved records the latest pointer position, clamped to [0,100].
type PointerMoved struct {
	X float64
	Y float64
}

// RetryScheduled records that retry number Attempt is now in flight.
type RetryScheduled struct {
	Attempt int
}

// SettingsChanged records a change to the auto-reconnect preference.
type SettingsChanged struct {
	AutoReconnect bool
}

func (ConnectRequested) isEvent()   {}
func (Connected) isEvent()          {}
func (Disconnected) isEvent()       {}
func (SendFailed) isEvent()         {}
func (PointerModeToggled) isEvent() {}
func (PointerMoved) isEvent()       {}
func (RetryScheduled) isEvent()     {}
func (SettingsChanged) isEvent()    {}

// Apply is the pure transition function. It returns a new snapshot and never
// mutates the input.
func Apply(snap Snapshot, ev Event) Snapshot {
	next := snap

	switch e := ev.(type) {
	case ConnectRequested:
		next.Status = StatusConnecting
		next.Target = e.Address
		next.RetryAttempt = 0
		next.LastError = ""

	case Connected:
		next.Status = StatusConnected
		next.RetryAttempt = 0
		next.LastError = ""

	case Disconnected:
		if e.Manual {
			next.Status = StatusDisconnected
			next.LastError = ""
			break
		}
		// A loss while still connecting is a failed attempt, not a clean
		// shutdown, whatever the auto-reconnect preference says.
		if snap.Status == StatusConnecting || snap.AutoReconnect {
			next.Status = StatusError
		} else {
			next.Status = StatusDisconnected
		}
		next.LastError = e.Reason

	case SendFailed:
		next.Status = StatusError
		next.LastError = e.Reason

	case PointerModeToggled:
		next.PointerMode = !snap.PointerMode

	case PointerMoved:
		next.PointerX = protocol.ClampPercent(e.X)
		next.PointerY = protocol.ClampPercent(e.Y)

	case RetryScheduled:
		next.Status = StatusConnecting
		next.RetryAttempt = e.Attempt

	case SettingsChanged:
		next.AutoReconnect = e.AutoReconnect
	}

	return next
}
