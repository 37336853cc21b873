package main

import (
	"github.com/spf13/cobra"

	"github.com/slidemote/slidemote/internal/protocol"
)

// registerCommandGroup adds one subcommand per discrete remote command.
func registerCommandGroup(root *cobra.Command) {
	discrete := []struct {
		use   string
		short string
		kind  protocol.Kind
	}{
		{"next", "Advance to the next slide", protocol.KindNext},
		{"previous", "Go back to the previous slide", protocol.KindPrevious},
		{"first", "Jump to the first slide", protocol.KindFirstSlide},
		{"last", "Jump to the last slide", protocol.KindLastSlide},
		{"start", "Start the presentation", protocol.KindStartPresentation},
		{"end", "End the presentation", protocol.KindEndPresentation},
		{"black", "Blank the screen to black", protocol.KindBlackScreen},
		{"white", "Blank the screen to white", protocol.KindWhiteScreen},
		{"view", "Return to the presentation view", protocol.KindPresentationView},
		{"volume-up", "Raise the volume", protocol.KindVolumeUp},
		{"volume-down", "Lower the volume", protocol.KindVolumeDown},
		{"mute", "Toggle mute", protocol.KindMute},
	}

	for _, c := range discrete {
		kind := c.kind
		root.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, func(r *remote) error {
					return r.engine.Send(protocol.New(kind))
				})
			},
		})
	}
}
