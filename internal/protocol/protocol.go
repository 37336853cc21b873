// Package protocol defines the command set understood by the presentation
// receiver and its JSON wire representation. The engine is send-only, but the
// codec is symmetric so both sides of the link share one schema.
package protocol

import (
	"fmt"
	"time"
)

// Kind identifies one remote-control command. The values double as the wire
// tags of the protocol.
type Kind string

const (
	KindNext              Kind = "next"
	KindPrevious          Kind = "previous"
	KindFirstSlide        Kind = "first_slide"
	KindLastSlide         Kind = "last_slide"
	KindStartPresentation Kind = "start_presentation"
	KindEndPresentation   Kind = "end_presentation"
	KindTogglePointer     Kind = "laser_pointer"
	KindPointerMove       Kind = "laser_pointer_move"
	KindBlackScreen       Kind = "black_screen"
	KindWhiteScreen       Kind = "white_screen"
	KindPresentationView  Kind = "presentation_view"
	KindVolumeUp          Kind = "volume_up"
	KindVolumeDown        Kind = "volume_down"
	KindMute              Kind = "mute"
)

// Pointer parameter keys on laser_pointer_move frames.
const (
	ParamXPercent = "x_percent"
	ParamYPercent = "y_percent"
)

var kinds = map[Kind]bool{
	KindNext:              true,
	KindPrevious:          true,
	KindFirstSlide:        true,
	KindLastSlide:         true,
	KindStartPresentation: true,
	KindEndPresentation:   true,
	KindTogglePointer:     true,
	KindPointerMove:       true,
	KindBlackScreen:       true,
	KindWhiteScreen:       true,
	KindPresentationView:  true,
	KindVolumeUp:          true,
	KindVolumeDown:        true,
	KindMute:              true,
}

// Valid reports whether k is a recognized command kind.
func (k Kind) Valid() bool {
	return kinds[k]
}

// Command is an immutable remote-control intent. X and Y are screen
// percentages in [0,100] and are meaningful only for KindPointerMove.
type Command struct {
	Kind Kind
	X    float64
	Y    float64
}

// New returns a command without pointer coordinates.
func New(kind Kind) Command {
	return Command{Kind: kind}
}

// PointerMove returns a pointer-move command with coordinates clamped to
// [0,100]. Out-of-range input is clamped, never rejected.
func PointerMove(x, y float64) Command {
	return Command{Kind: KindPointerMove, X: ClampPercent(x), Y: ClampPercent(y)}
}

// ClampPercent bounds v to the [0,100] percentage range.
func ClampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Frame is the wire form of a command: one JSON text message per frame.
type Frame struct {
	Command   string         `json:"command"`
	Params    map[string]any `json:"params"`
	Timestamp int64          `json:"timestamp"`
}

// Encode converts a command into its wire frame, stamped with the current
// time. It fails only for kinds outside the recognized set, which indicates
// a programming error rather than a runtime condition.
func Encode(cmd Command) (Frame, error) {
	return EncodeAt(cmd, time.Now())
}

// EncodeAt is Encode with an explicit timestamp, used by tests that need
// deterministic frames.
func EncodeAt(cmd Command, at time.Time) (Frame, error) {
	if !cmd.Kind.Valid() {
		return Frame{}, fmt.Errorf("protocol: encode unknown command kind %q", cmd.Kind)
	}

	params := map[string]any{}
	if cmd.Kind == KindPointerMove {
		params[ParamXPercent] = ClampPercent(cmd.X)
		params[ParamYPercent] = ClampPercent(cmd.Y)
	}

	return Frame{
		Command:   string(cmd.Kind),
		Params:    params,
		Timestamp: at.UnixMilli(),
	}, nil
}

// Decode converts a wire frame back into a command. Unknown tags are
// rejected; pointer coordinates are clamped the same way Encode clamps them.
func Decode(frame Frame) (Command, error) {
	kind := Kind(frame.Command)
	if !kind.Valid() {
		return Command{}, fmt.Errorf("protocol: decode unknown command tag %q", frame.Command)
	}

	cmd := Command{Kind: kind}
	if kind == KindPointerMove {
		x, err := paramNumber(frame.Params, ParamXPercent)
		if err != nil {
			return Command{}, err
		}
		y, err := paramNumber(frame.Params, ParamYPercent)
		if err != nil {
			return Command{}, err
		}
		cmd.X = ClampPercent(x)
		cmd.Y = ClampPercent(y)
	}
	return cmd, nil
}

func paramNumber(params map[string]any, key string) (float64, error) {
	raw, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("protocol: frame missing %s param", key)
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("protocol: %s param is %T, want number", key, raw)
	}
}
