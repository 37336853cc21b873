package engine

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
)

// Error kinds surfaced by the engine. All of them are recovered into the
// session state's last-error field; none of them crash the engine.
var (
	// ErrAddressInvalid marks a malformed host:port target. Never retried.
	ErrAddressInvalid = errors.New("invalid receiver address")
	// ErrNotConnected marks a command attempted while the session is not
	// connected. No frame is produced.
	ErrNotConnected = errors.New("not connected to a receiver")
	// ErrConnectTimeout marks a dial that did not resolve in time.
	ErrConnectTimeout = errors.New("connect timed out")
	// ErrConnectRefused marks a receiver that actively refused the dial.
	ErrConnectRefused = errors.New("connection refused")
	// ErrLinkLost marks a connection that closed after being connected.
	ErrLinkLost = errors.New("link lost")
	// ErrSendFailed marks an I/O failure while handing a frame to the link.
	ErrSendFailed = errors.New("send failed")
	// ErrEncode marks a command the codec could not encode. Unreachable for
	// commands built through the protocol constructors; never retried.
	ErrEncode = errors.New("encode failed")
	// ErrClosed marks operations on an engine after Close.
	ErrClosed = errors.New("engine closed")
)

// classifyDialError maps a transport dial failure onto the engine's error
// kinds. The boolean reports whether automatic reconnection may retry it.
func classifyDialError(err error) (error, bool) {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return ErrConnectTimeout, true
	case errors.As(err, &netErr) && netErr.Timeout():
		return ErrConnectTimeout, true
	case errors.Is(err, syscall.ECONNREFUSED):
		return ErrConnectRefused, true
	default:
		// Remaining dial failures (unreachable host, DNS, handshake) are
		// transient from the device's point of view and stay retryable.
		return err, true
	}
}
