// Command slidemote is a command-line remote control for presentations. It
// drives a receiver over the local network: slide navigation, screen
// blanking, volume, and a streamed laser pointer.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/slidemote/slidemote/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "slidemote",
		Short:         "Remote control for presentations over the local network",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Version = version.Format(version.String())
	rootCmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	rootCmd.PersistentFlags().StringP("addr", "a", "", "receiver address (host:port); defaults to SLIDEMOTE_ADDR or the last used receiver")
	rootCmd.PersistentFlags().Bool("verbose", false, "log engine activity to stderr")

	registerCommandGroup(rootCmd)
	rootCmd.AddCommand(newPointerCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newAutoReconnectCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
