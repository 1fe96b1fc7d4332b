package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var getConfig struct {
	compressed bool
	encrypted  bool
	output     string
}

var getCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Print the item stored under path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireKey(getConfig.encrypted); err != nil {
			return err
		}
		get := svc.getter(getConfig.compressed, getConfig.encrypted)
		data, err := get(args[0]).Get(context.Background())
		if err != nil {
			return errors.Wrapf(err, "Failed to fetch %s", args[0])
		}
		if data == nil {
			return errors.Errorf("No item at %s", args[0])
		}

		if getConfig.output != "" {
			return os.WriteFile(getConfig.output, data, 0644)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().BoolVarP(&getConfig.compressed, "zstd", "z", false, "decompress an item stored with --zstd")
	getCmd.Flags().BoolVar(&getConfig.encrypted, "encrypt", false, "decrypt an item stored with --encrypt")
	getCmd.Flags().StringVarP(&getConfig.output, "output", "o", "", "write the item to this file instead of stdout")
}
