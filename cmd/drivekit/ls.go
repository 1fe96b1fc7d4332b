package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var lsConfig struct {
	exact bool
}

var lsCmd = &cobra.Command{
	Use:   "ls <path>",
	Short: "List items whose title contains the last path segment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		find := svc.Find
		if lsConfig.exact {
			find = svc.FindExact
		}
		items, err := find(args[0]).Get(context.Background())
		if err != nil {
			return errors.Wrapf(err, "Failed to list %s", args[0])
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tTYPE\tSIZE")
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", item.ID, item.Title, item.MimeType, item.Size)
		}
		return w.Flush()
	},
}

var idCmd = &cobra.Command{
	Use:   "id <path>",
	Short: "Print the ID of the item stored under path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := svc.FindExact(args[0]).Get(context.Background())
		if err != nil {
			return errors.Wrapf(err, "Failed to look up %s", args[0])
		}
		if len(items) == 0 {
			return errors.Errorf("No item at %s", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), items[0].ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(idCmd)
	lsCmd.Flags().BoolVarP(&lsConfig.exact, "exact", "e", false, "match titles exactly")
}
