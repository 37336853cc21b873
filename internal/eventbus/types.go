package eventbus

import (
	"time"

	"github.com/slidemote/slidemote/internal/protocol"
	"github.com/slidemote/slidemote/internal/state"
)

// Topic identifies a logical channel on the bus.
type Topic string

const (
	// TopicStateChanged carries the full session snapshot after every
	// transition.
	TopicStateChanged Topic = "state.changed"
	// TopicFrameSent carries every frame handed to the transport.
	TopicFrameSent Topic = "frame.sent"
)

// Source describes which component produced an event.
type Source string

const (
	SourceEngine    Source = "engine"
	SourceTransport Source = "transport"
	SourceUnknown   Source = "unknown"
)

// Envelope wraps every message published on the bus.
type Envelope struct {
	Topic     Topic
	Timestamp time.Time
	Source    Source
	Payload   any
}

// StateChangedEvent is the payload on TopicStateChanged. Err repeats the
// snapshot's error string so subscribers that only render failures do not
// need to inspect the full record.
type StateChangedEvent struct {
	Snapshot state.Snapshot
	Err      string
}

// FrameSentEvent is the payload on TopicFrameSent.
type FrameSentEvent struct {
	Frame protocol.Frame
}
