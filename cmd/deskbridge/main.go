// Command deskbridge sits between a Loctek desk control box and its keypad,
// relaying their serial traffic and adding remote control of the desk.
package main

import (
	"log"

	"github.com/spf13/cobra"
)

func main() {
	cmd := &cobra.Command{
		Use:          "deskbridge",
		Args:         cobra.ExactArgs(0),
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", verbose, "Log every relayed byte and enable line change")

	cmd.AddCommand(runCommand())
	cmd.AddCommand(sendCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "dump FILE",
		Short: "Print a traffic capture written by run --record",
		Args:  cobra.ExactArgs(1),
		RunE:  dump,
	})

	if err := cmd.Execute(); err != nil {
		log.Fatalln(err)
	}
}
