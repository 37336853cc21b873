package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/slidemote/slidemote/internal/config"
	"github.com/slidemote/slidemote/internal/engine"
	"github.com/slidemote/slidemote/internal/eventbus"
	"github.com/slidemote/slidemote/internal/history"
	"github.com/slidemote/slidemote/internal/state"
)

// remote bundles everything a subcommand needs for one engine run.
type remote struct {
	cfg    config.Config
	store  *history.Store
	bus    *eventbus.Bus
	engine *engine.Engine
}

func newRemote(verbose bool) (*remote, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := history.Open(cfg.HistoryDB())
	if err != nil {
		return nil, err
	}

	logger := log.New(io.Discard, "", 0)
	if verbose {
		logger = log.Default()
	}

	bus := eventbus.New(eventbus.WithLogger(logger))
	eng := engine.New(engine.Options{
		Config: engine.Config{
			DialTimeout:       cfg.DialTimeout,
			PointerInterval:   cfg.PointerInterval,
			BackoffInitial:    cfg.BackoffInitial,
			BackoffMax:        cfg.BackoffMax,
			BackoffMultiplier: cfg.BackoffMultiplier,
		},
		Settings: store,
		Bus:      bus,
		Logger:   logger,
	})

	return &remote{cfg: cfg, store: store, bus: bus, engine: eng}, nil
}

func (r *remote) close() {
	r.engine.Close()
	r.bus.Shutdown()
	r.store.Close()
}

// resolveAddr picks the receiver address: --addr flag, then SLIDEMOTE_ADDR,
// then the most recently used receiver.
func (r *remote) resolveAddr(cmd *cobra.Command) (string, error) {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		return addr, nil
	}
	if r.cfg.Addr != "" {
		return r.cfg.Addr, nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
	defer cancel()
	entry, err := r.store.Last(ctx)
	if history.IsNotFound(err) {
		return "", fmt.Errorf("no receiver address: pass --addr, set SLIDEMOTE_ADDR, or connect once")
	}
	if err != nil {
		return "", err
	}
	return entry.Address, nil
}

// connect starts a session and waits for the engine to reach connected.
func (r *remote) connect(addr string) error {
	sub := r.bus.Subscribe(eventbus.TopicStateChanged,
		eventbus.WithSubscriptionName("cli-connect"))
	defer sub.Close()

	if err := r.engine.Connect(addr); err != nil {
		return err
	}

	deadline := time.After(r.cfg.DialTimeout + time.Second)
	for {
		select {
		case env, ok := <-sub.C():
			if !ok {
				return fmt.Errorf("connect to %s: notification stream closed", addr)
			}
			change, ok := env.Payload.(eventbus.StateChangedEvent)
			if !ok {
				continue
			}
			switch change.Snapshot.Status {
			case state.StatusConnected:
				return nil
			case state.StatusError, state.StatusDisconnected:
				return fmt.Errorf("connect to %s: %s", addr, change.Err)
			}
		case <-deadline:
			return fmt.Errorf("connect to %s: timed out", addr)
		}
	}
}

// withSession resolves the address, connects, runs fn and disconnects.
func withSession(cmd *cobra.Command, fn func(r *remote) error) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	r, err := newRemote(verbose)
	if err != nil {
		return err
	}
	defer r.close()

	addr, err := r.resolveAddr(cmd)
	if err != nil {
		return err
	}
	if err := r.connect(addr); err != nil {
		return err
	}
	defer r.engine.Disconnect()

	return fn(r)
}
