package cmd

import (
	"fmt"

	"github.com/smazurov/ledring/internal/serial"
	"github.com/spf13/cobra"
)

// CreatePortsCmd creates the ports command.
func CreatePortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Long:  `Lists the serial ports present on this machine, to find the one the LED ring controller is attached to.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ports, err := serial.ListPorts()
			if err != nil {
				return err
			}
			out := c.OutOrStdout()
			if len(ports) == 0 {
				fmt.Fprintln(out, "No serial ports found")
				return nil
			}
			for _, p := range ports {
				marker := " "
				if p == settings.Port {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, p)
			}
			return nil
		},
	}
}
