package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/slidemote/slidemote/internal/eventbus"
	"github.com/slidemote/slidemote/internal/state"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Connect and print every session state change until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	sub := r.bus.Subscribe(eventbus.TopicStateChanged,
		eventbus.WithSubscriptionName("cli-watch"))
	defer sub.Close()

	if err := r.engine.Connect(addr); err != nil {
		return err
	}
	defer r.engine.Disconnect()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("watching %s (ctrl-c to stop)\n", addr)
	for {
		select {
		case env, ok := <-sub.C():
			if !ok {
				return nil
			}
			change, ok := env.Payload.(eventbus.StateChangedEvent)
			if !ok {
				continue
			}
			printSnapshot(change.Snapshot)
		case <-sigChan:
			return nil
		}
	}
}

func printSnapshot(snap state.Snapshot) {
	line := fmt.Sprintf("%-12s", snap.Status)
	if snap.RetryAttempt > 0 {
		line += fmt.Sprintf(" retry=%d", snap.RetryAttempt)
	}
	if snap.PointerMode {
		line += fmt.Sprintf(" pointer=%.1f,%.1f", snap.PointerX, snap.PointerY)
	}
	if snap.LastError != "" {
		line += " error=" + snap.LastError
	}
	fmt.Println(line)
}
