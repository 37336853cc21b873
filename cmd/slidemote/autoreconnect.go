package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newAutoReconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auto-reconnect [on|off]",
		Short: "Show or set whether lost connections are retried automatically",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAutoReconnect,
	}
}

func runAutoReconnect(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 {
		enabled, err := store.AutoReconnect(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(onOff(enabled))
		return nil
	}

	enabled, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	if err := store.SetAutoReconnect(cmd.Context(), enabled); err != nil {
		return err
	}
	fmt.Printf("auto-reconnect %s\n", onOff(enabled))
	return nil
}

func parseOnOff(raw string) (bool, error) {
	switch raw {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		return v, nil
	}
	return false, fmt.Errorf("want on or off, got %q", raw)
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
