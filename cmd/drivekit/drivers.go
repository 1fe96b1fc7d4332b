package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gobeaver/drivekit"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List the registered storage drivers",
	Args:  cobra.NoArgs,
	// Listing drivers needs no configured client
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range drivekit.Drivers() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	rootCmd.AddCommand(driversCmd)
}
