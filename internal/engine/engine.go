// Package engine is the connection and command-protocol core of the remote.
// It owns the session lifecycle (connect, detect failure, back off, retry),
// serializes user intent into wire frames, throttles pointer movement, and
// exposes a single coherent session state to the rest of the application.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/slidemote/slidemote/internal/eventbus"
	"github.com/slidemote/slidemote/internal/protocol"
	"github.com/slidemote/slidemote/internal/state"
	"github.com/slidemote/slidemote/internal/transport"
)

// SettingsProvider is the persistence collaborator. The engine reads the
// auto-reconnect preference at startup and records successful connections;
// it never owns the storage itself.
type SettingsProvider interface {
	AutoReconnect(ctx context.Context) (bool, error)
	SetAutoReconnect(ctx context.Context, enabled bool) error
	RecordConnection(ctx context.Context, address string, at time.Time) error
}

// Config holds the engine tunables. Zero fields fall back to defaults.
type Config struct {
	// DialTimeout bounds an in-flight connect attempt.
	DialTimeout time.Duration
	// PointerInterval is the minimum interval between pointer-move frames.
	PointerInterval time.Duration
	// Backoff curve for automatic reconnection.
	BackoffInitial    time.Duration
	BackoffMax        time.Duration
	BackoffMultiplier float64
}

// DefaultConfig returns the stock tunables: 10s dials, 20Hz pointer rate,
// 500ms..30s backoff growing by 1.5x.
func DefaultConfig() Config {
	return Config{
		DialTimeout:       10 * time.Second,
		PointerInterval:   50 * time.Millisecond,
		BackoffInitial:    500 * time.Millisecond,
		BackoffMax:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.PointerInterval <= 0 {
		c.PointerInterval = def.PointerInterval
	}
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = def.BackoffInitial
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = def.BackoffMax
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = def.BackoffMultiplier
	}
	return c
}

// Options configures a new engine.
type Options struct {
	Config   Config
	Settings SettingsProvider // optional; auto-reconnect defaults to on
	Bus      *eventbus.Bus    // optional; state changes are published here
	Logger   *log.Logger      // optional; defaults to log.Default()
}

// Engine drives one receiver session at a time. All exported methods are
// safe for concurrent use; internally a single mutex makes the engine the
// sole writer of session state.
type Engine struct {
	cfg      Config
	logger   *log.Logger
	bus      *eventbus.Bus
	settings SettingsProvider

	store *state.Store
	sup   *supervisor
	seq   *coalescer

	mu         sync.Mutex
	gen        uint64 // bumped on every connect/disconnect; stale completions are discarded
	session    *transport.Session
	dialCancel context.CancelFunc
	closed     bool

	// A close notification can beat its own dial completion to the lock
	// when the receiver drops the link right after the handshake. It is
	// parked here and replayed once the dial registers the session.
	pendingClose    bool
	pendingCloseErr error
}

// New constructs an engine in the disconnected state.
func New(opts Options) *Engine {
	cfg := opts.Config.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	autoReconnect := true
	if opts.Settings != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if v, err := opts.Settings.AutoReconnect(ctx); err == nil {
			autoReconnect = v
		} else {
			logger.Printf("[engine] load auto-reconnect setting: %v", err)
		}
		cancel()
	}

	e := &Engine{
		cfg:      cfg,
		logger:   logger,
		bus:      opts.Bus,
		settings: opts.Settings,
		sup:      newSupervisor(cfg.BackoffInitial, cfg.BackoffMax, cfg.BackoffMultiplier),
	}
	e.seq = newCoalescer(cfg.PointerInterval, e.sendPointerFrame)
	e.store = state.NewStore(autoReconnect, e.publishSnapshot)
	return e
}

// Snapshot returns the current session state record.
func (e *Engine) Snapshot() state.Snapshot {
	return e.store.Current()
}

// Bus exposes the notification bus the engine publishes on.
func (e *Engine) Bus() *eventbus.Bus {
	return e.bus
}

// Connect starts a session to the receiver at host:port. Any pending retry
// timer and any in-flight dial are cancelled first; the retry counter resets
// to zero. The dial itself is asynchronous; progress is observable through
// state snapshots.
func (e *Engine) Connect(address string) error {
	if err := transport.ValidateAddress(address); err != nil {
		return fmt.Errorf("%w: %v", ErrAddressInvalid, err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.sup.reset()
	gen := e.supersedeLocked()
	e.store.Dispatch(state.ConnectRequested{Address: address})
	ctx := e.armDialLocked()
	e.mu.Unlock()

	go e.dial(ctx, gen, address)
	return nil
}

// Disconnect closes the current session deliberately. No retry is scheduled
// regardless of the auto-reconnect setting.
func (e *Engine) Disconnect() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.sup.reset()
	e.supersedeLocked()
	e.seq.reset()
	e.store.Dispatch(state.Disconnected{Manual: true})
	e.mu.Unlock()
}

// Close shuts the engine down. Subsequent operations fail with ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.sup.reset()
	e.supersedeLocked()
	e.seq.reset()
	e.mu.Unlock()
}

// Send transmits a discrete command. It fails with ErrNotConnected unless
// the session is connected; commands are never queued for later replay.
// Sending TogglePointer also flips the local pointer mode, matching the
// receiver's interpretation of the frame.
func (e *Engine) Send(cmd protocol.Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	snap := e.store.Current()
	if snap.Status != state.StatusConnected || e.session == nil {
		return ErrNotConnected
	}

	frame, err := protocol.Encode(cmd)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := e.session.Send(frame); err != nil {
		if errors.Is(err, transport.ErrSendQueueFull) {
			// Backpressure, not a dead link; the session stays connected.
			return fmt.Errorf("%w: %v", ErrSendFailed, err)
		}
		e.store.Dispatch(state.SendFailed{Reason: err.Error()})
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	e.publishFrame(frame)
	if cmd.Kind == protocol.KindTogglePointer {
		next := e.store.Dispatch(state.PointerModeToggled{})
		if !next.PointerMode {
			e.seq.reset()
		}
	}
	return nil
}

// SetPointerMode forces pointer mode on or off. The local mode always
// changes; the matching laser_pointer frame is sent only while connected.
func (e *Engine) SetPointerMode(enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	snap := e.store.Current()
	if snap.PointerMode == enabled {
		return nil
	}

	if snap.Status == state.StatusConnected && e.session != nil {
		frame, err := protocol.Encode(protocol.New(protocol.KindTogglePointer))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEncode, err)
		}
		if err := e.session.Send(frame); err != nil {
			if errors.Is(err, transport.ErrSendQueueFull) {
				return fmt.Errorf("%w: %v", ErrSendFailed, err)
			}
			e.store.Dispatch(state.SendFailed{Reason: err.Error()})
			return fmt.Errorf("%w: %v", ErrSendFailed, err)
		}
		e.publishFrame(frame)
	}

	e.store.Dispatch(state.PointerModeToggled{})
	if !enabled {
		e.seq.reset()
	}
	return nil
}

// MovePointer records the pointer position and, while connected with pointer
// mode active, streams it to the receiver at a bounded rate. Coordinates are
// percentages; out-of-range values are clamped.
func (e *Engine) MovePointer(x, y float64) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	snap := e.store.Dispatch(state.PointerMoved{X: x, Y: y})
	connected := snap.Status == state.StatusConnected && e.session != nil
	pointerMode := snap.PointerMode
	e.mu.Unlock()

	if !connected {
		return ErrNotConnected
	}
	if !pointerMode {
		return nil
	}

	e.seq.offer(protocol.ClampPercent(x), protocol.ClampPercent(y))
	return nil
}

// SetAutoReconnect updates and persists the auto-reconnect preference.
// Disabling it cancels any pending retry.
func (e *Engine) SetAutoReconnect(enabled bool) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if !enabled {
		e.sup.cancel()
	}
	e.store.Dispatch(state.SettingsChanged{AutoReconnect: enabled})
	e.mu.Unlock()

	if e.settings != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := e.settings.SetAutoReconnect(ctx, enabled); err != nil {
			return fmt.Errorf("engine: persist auto-reconnect: %w", err)
		}
	}
	return nil
}

// RetryPending reports whether a reconnect timer is armed.
func (e *Engine) RetryPending() bool {
	return e.sup.pending()
}

// supersedeLocked bumps the generation counter, cancels any in-flight dial
// and closes the current session. Stale completions carry an older
// generation and are discarded on arrival.
func (e *Engine) supersedeLocked() uint64 {
	e.gen++
	e.pendingClose = false
	e.pendingCloseErr = nil
	if e.dialCancel != nil {
		e.dialCancel()
		e.dialCancel = nil
	}
	if e.session != nil {
		sess := e.session
		e.session = nil
		go sess.Close()
	}
	return e.gen
}

func (e *Engine) armDialLocked() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.DialTimeout)
	e.dialCancel = cancel
	return ctx
}

func (e *Engine) dial(ctx context.Context, gen uint64, address string) {
	sess, err := transport.Dial(ctx, address, transport.Options{
		OnClosed: func(reason error) { e.onClosed(gen, reason) },
	})

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || gen != e.gen {
		// Superseded by a newer connect or disconnect.
		if sess != nil {
			go sess.Close()
		}
		return
	}
	if e.dialCancel != nil {
		e.dialCancel()
		e.dialCancel = nil
	}

	if err != nil {
		kind, retryable := classifyDialError(err)
		e.logger.Printf("[engine] dial %s failed: %v", address, err)
		snap := e.store.Dispatch(state.SendFailed{Reason: kind.Error()})
		if retryable && snap.AutoReconnect {
			e.scheduleRetryLocked(snap.RetryAttempt, address)
		}
		return
	}

	e.session = sess
	e.sup.reset()
	e.store.Dispatch(state.Connected{})
	e.logger.Printf("[engine] connected to %s (session %s)", address, sess.ID())

	if e.settings != nil {
		go e.recordConnection(address)
	}

	if e.pendingClose {
		// The session died before it was registered and its one close
		// notification was parked. Replay it now that the state shows
		// connected, so the loss follows the normal transition.
		reason := e.pendingCloseErr
		e.pendingClose = false
		e.pendingCloseErr = nil
		e.dropSessionLocked(reason)
	}
}

// onClosed handles the transport's exactly-once close notification.
func (e *Engine) onClosed(gen uint64, reason error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || gen != e.gen {
		return
	}
	if e.session == nil {
		// The dial completion for this generation has not registered the
		// session yet. Park the notification for the dial path to replay.
		e.pendingClose = true
		e.pendingCloseErr = reason
		return
	}
	e.dropSessionLocked(reason)
}

// dropSessionLocked records the loss of the registered session and arms the
// reconnect machinery when the settings allow it.
func (e *Engine) dropSessionLocked(reason error) {
	e.session = nil
	e.seq.reset()

	msg := ErrLinkLost.Error()
	if reason != nil {
		msg = fmt.Sprintf("%s: %v", ErrLinkLost.Error(), reason)
	}
	e.logger.Printf("[engine] %s", msg)

	snap := e.store.Dispatch(state.Disconnected{Reason: msg})
	if snap.Status == state.StatusError && snap.AutoReconnect {
		e.scheduleRetryLocked(snap.RetryAttempt, snap.Target)
	}
}

// scheduleRetryLocked arms the single-flight retry timer for the next
// attempt. The RetryScheduled transition happens when the timer fires, not
// when it is armed.
func (e *Engine) scheduleRetryLocked(prevAttempt int, address string) {
	attempt := prevAttempt + 1
	delay := e.sup.next()
	e.logger.Printf("[engine] retry %d to %s in %s", attempt, address, delay)
	e.sup.schedule(delay, func() { e.retry(attempt, address) })
}

func (e *Engine) retry(attempt int, address string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	gen := e.supersedeLocked()
	e.store.Dispatch(state.RetryScheduled{Attempt: attempt})
	ctx := e.armDialLocked()
	e.mu.Unlock()

	go e.dial(ctx, gen, address)
}

// sendPointerFrame is the coalescer's sink. Pointer frames ride the same
// session as discrete commands; a failure here surfaces through the
// session's close notification.
func (e *Engine) sendPointerFrame(x, y float64) {
	e.mu.Lock()
	sess := e.session
	e.mu.Unlock()
	if sess == nil {
		return
	}

	frame, err := protocol.Encode(protocol.PointerMove(x, y))
	if err != nil {
		e.logger.Printf("[engine] encode pointer frame: %v", err)
		return
	}
	if err := sess.Send(frame); err != nil {
		e.logger.Printf("[engine] send pointer frame: %v", err)
		return
	}
	e.publishFrame(frame)
}

func (e *Engine) recordConnection(address string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.settings.RecordConnection(ctx, address, time.Now()); err != nil {
		e.logger.Printf("[engine] record connection %s: %v", address, err)
	}
}

func (e *Engine) publishSnapshot(snap state.Snapshot) {
	e.bus.Publish(eventbus.Envelope{
		Topic:   eventbus.TopicStateChanged,
		Source:  eventbus.SourceEngine,
		Payload: eventbus.StateChangedEvent{Snapshot: snap, Err: snap.LastError},
	})
}

func (e *Engine) publishFrame(frame protocol.Frame) {
	e.bus.Publish(eventbus.Envelope{
		Topic:   eventbus.TopicFrameSent,
		Source:  eventbus.SourceEngine,
		Payload: eventbus.FrameSentEvent{Frame: frame},
	})
}
