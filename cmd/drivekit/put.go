package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gobeaver/drivekit"
)

var putConfig struct {
	compress bool
	encrypt  bool
}

var putCmd = &cobra.Command{
	Use:   "put <path> [file]",
	Short: "Store a file, or stdin, under path",
	Long: `Store the contents of file, or stdin when no file is given, as the item
named by the last path segment. Storing to an existing path overwrites the
item and keeps its ID.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireKey(putConfig.encrypt); err != nil {
			return err
		}
		data, err := readInput(cmd.InOrStdin(), args[1:])
		if err != nil {
			return err
		}

		put := svc.putter(putConfig.compress, putConfig.encrypt)
		id, err := put(args[0], data).Get(context.Background())
		if err != nil {
			return errors.Wrapf(err, "Failed to store %s", args[0])
		}
		logger.WithFields(logrus.Fields{
			"path":     args[0],
			"id":       id,
			"size":     len(data),
			"checksum": drivekit.Checksum(data),
		}).Info("Stored item")
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

// requireKey fails when encryption is requested without a key, since the
// encrypt tag is ignored by a chain without the aesconv factory.
func requireKey(encrypt bool) error {
	if encrypt && cfg.GetString("encryption-key") == "" {
		return errors.New("--encrypt needs an encryption key (--encryption-key or DRIVEKIT_ENCRYPTION_KEY)")
	}
	return nil
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read input")
	}
	return data, nil
}

func init() {
	rootCmd.AddCommand(putCmd)
	putCmd.Flags().BoolVarP(&putConfig.compress, "zstd", "z", false, "compress the stored item with zstd")
	putCmd.Flags().BoolVar(&putConfig.encrypt, "encrypt", false, "encrypt the stored item with the configured key")
}
