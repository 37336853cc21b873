package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newPointerCmd() *cobra.Command {
	pointerCmd := &cobra.Command{
		Use:   "pointer <x> <y>",
		Short: "Move the laser pointer to a screen position (percentages)",
		Args:  cobra.ExactArgs(2),
		RunE:  runPointerMove,
	}

	pointerCmd.AddCommand(&cobra.Command{
		Use:   "stream",
		Short: "Stream pointer positions from stdin, one \"x y\" pair per line",
		Args:  cobra.NoArgs,
		RunE:  runPointerStream,
	})

	return pointerCmd
}

func runPointerMove(cmd *cobra.Command, args []string) error {
	x, err := parsePercent(args[0])
	if err != nil {
		return err
	}
	y, err := parsePercent(args[1])
	if err != nil {
		return err
	}

	return withSession(cmd, func(r *remote) error {
		if err := r.engine.SetPointerMode(true); err != nil {
			return err
		}
		if err := r.engine.MovePointer(x, y); err != nil {
			return err
		}
		// Give the coalescer's trailing flush a chance to leave the device
		// before the session closes.
		time.Sleep(r.cfg.PointerInterval * 2)
		return r.engine.SetPointerMode(false)
	})
}

func runPointerStream(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(r *remote) error {
		if err := r.engine.SetPointerMode(true); err != nil {
			return err
		}
		defer r.engine.SetPointerMode(false)

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) != 2 {
				fmt.Fprintf(os.Stderr, "skipping %q: want \"x y\"\n", line)
				continue
			}
			x, errX := parsePercent(fields[0])
			y, errY := parsePercent(fields[1])
			if errX != nil || errY != nil {
				fmt.Fprintf(os.Stderr, "skipping %q: not numbers\n", line)
				continue
			}
			if err := r.engine.MovePointer(x, y); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}

		time.Sleep(r.cfg.PointerInterval * 2)
		return nil
	})
}

func parsePercent(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q as percentage: %w", raw, err)
	}
	return v, nil
}
