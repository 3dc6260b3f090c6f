package cmd

import (
	"github.com/smazurov/ledring/internal/command"
	"github.com/spf13/cobra"
)

// CreateColorCmd creates the color command.
func CreateColorCmd() *cobra.Command {
	var opts sendOptions
	var chase bool
	var pulse int

	c := &cobra.Command{
		Use:   "color [#RRGGBB]",
		Short: "Set the ring to a hex color",
		Long: `Converts a hex color to the controller's rgb: command and sends it. --chase runs the color as a chase, ` +
			`--pulse N pulses it with a speed of N seconds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			rgb, err := command.HexToRGB(args[0])
			if err != nil {
				return err
			}

			text := command.Solid(rgb)
			switch {
			case pulse > 0:
				text = command.Pulse(rgb, pulse)
			case chase:
				text = command.Chase(rgb)
			}
			return runSend(c, text, opts)
		},
	}
	opts.register(c)
	c.Flags().BoolVar(&chase, "chase", false, "Run the color as a chase")
	c.Flags().IntVar(&pulse, "pulse", 0, "Pulse the color with this speed in seconds")
	return c
}
