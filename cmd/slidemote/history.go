package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slidemote/slidemote/internal/config"
	"github.com/slidemote/slidemote/internal/history"
)

func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List remembered receivers, most recent first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	historyCmd.Flags().Int("limit", 10, "maximum entries to show (0 for all)")

	historyCmd.AddCommand(&cobra.Command{
		Use:   "forget <host:port>",
		Short: "Remove a receiver from the history",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryForget,
	})

	return historyCmd
}

func openHistory() (*history.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.HistoryDB())
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no receivers remembered yet")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%-24s %s\n", e.Address, e.LastConnectedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runHistoryForget(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Forget(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("forgot %s\n", args[0])
	return nil
}
