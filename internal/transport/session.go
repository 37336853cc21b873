// Package transport owns one logical WebSocket connection to a presentation
// receiver. A Session value represents a single dialed connection: it is
// created by Dial, delivers frames until the link drops, reports the drop
// exactly once, and is then discarded. Reconnection is the caller's job.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/slidemote/slidemote/internal/protocol"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
	sendBuffer       = 64
)

// ErrSessionClosed is returned by Send once the session is no longer usable.
var ErrSessionClosed = errors.New("transport: session closed")

// ErrSendQueueFull is returned by Send when the outbound queue has no room.
// The link itself may still be alive; the caller decides whether to retry.
var ErrSendQueueFull = errors.New("transport: send queue full")

// ClosedFunc receives the reason a session ended. A nil reason means a clean
// local or remote close. It is invoked exactly once per session.
type ClosedFunc func(reason error)

// Options configures a dial.
type Options struct {
	// HandshakeTimeout bounds the WebSocket handshake. Zero means the
	// package default. The dial as a whole is bounded by the caller's
	// context.
	HandshakeTimeout time.Duration
	// OnClosed is invoked once when the session ends for any reason.
	OnClosed ClosedFunc
}

// Session is one live connection. All exported methods are safe for
// concurrent use.
type Session struct {
	id   string
	conn *websocket.Conn

	sendCh    chan protocol.Frame
	closeOnce sync.Once
	closedCh  chan struct{}
	onClosed  ClosedFunc
}

// URL converts a host:port receiver address into the WebSocket endpoint.
func URL(address string) string {
	u := url.URL{Scheme: "ws", Host: address, Path: "/ws"}
	return u.String()
}

// ValidateAddress checks that address is a well-formed host:port pair.
func ValidateAddress(address string) error {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("transport: parse address %q: %w", address, err)
	}
	if host == "" {
		return fmt.Errorf("transport: address %q missing host", address)
	}
	if port == "" {
		return fmt.Errorf("transport: address %q missing port", address)
	}
	return nil
}

// Dial opens a connection to the receiver at host:port. The context bounds
// the whole dial and cancels it when a newer dial supersedes this one; a
// cancelled dial returns ctx.Err() wrapped.
func Dial(ctx context.Context, address string, opts Options) (*Session, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}

	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = handshakeTimeout
	}
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}

	conn, resp, err := dialer.DialContext(ctx, URL(address), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("transport: dial %s: %w", address, err)
	}

	s := &Session{
		id:       uuid.NewString(),
		conn:     conn,
		sendCh:   make(chan protocol.Frame, sendBuffer),
		closedCh: make(chan struct{}),
		onClosed: opts.OnClosed,
	}

	go s.writePump()
	go s.readPump()
	return s, nil
}

// ID returns the unique identifier of this session instance, used for log
// correlation across reconnects.
func (s *Session) ID() string {
	return s.id
}

// Send queues a frame for transmission. It never blocks: a full queue or a
// closed session fails immediately. Write failures on the wire surface
// through OnClosed, not through Send.
func (s *Session) Send(frame protocol.Frame) error {
	select {
	case <-s.closedCh:
		return ErrSessionClosed
	default:
	}

	select {
	case s.sendCh <- frame:
		return nil
	case <-s.closedCh:
		return ErrSessionClosed
	default:
		return fmt.Errorf("%w (%d frames pending)", ErrSendQueueFull, sendBuffer)
	}
}

// Close shuts the session down cleanly. It is idempotent; only the first
// call performs the close handshake.
func (s *Session) Close() {
	s.shutdown(nil, true)
}

// Done is closed once the session has fully shut down.
func (s *Session) Done() <-chan struct{} {
	return s.closedCh
}

func (s *Session) writePump() {
	for {
		select {
		case frame := <-s.sendCh:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteJSON(frame); err != nil {
				s.shutdown(fmt.Errorf("transport: write frame: %w", err), false)
				return
			}
		case <-s.closedCh:
			return
		}
	}
}

// readPump drains inbound messages. The protocol is send-only, so inbound
// payloads are discarded; the read loop exists to detect remote closes and
// I/O errors promptly.
func (s *Session) readPump() {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if isNormalClose(err) {
				s.shutdown(nil, false)
			} else {
				s.shutdown(fmt.Errorf("transport: connection lost: %w", err), false)
			}
			return
		}
	}
}

// shutdown tears the connection down and delivers the close notification
// exactly once. sendCloseMessage is set for local, deliberate closes.
func (s *Session) shutdown(reason error, sendCloseMessage bool) {
	s.closeOnce.Do(func() {
		close(s.closedCh)

		if sendCloseMessage {
			deadline := time.Now().Add(2 * time.Second)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		}
		_ = s.conn.Close()

		if s.onClosed != nil {
			s.onClosed(reason)
		}
	})
}

func isNormalClose(err error) bool {
	if err == nil {
		return true
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}
	return errors.Is(err, io.EOF)
}
