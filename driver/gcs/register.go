package gcs

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/gobeaver/drivekit"
)

func init() {
	drivekit.RegisterDriver("gcs", func(cfg *drivekit.Config) (drivekit.Driver, error) {
		ctx := context.Background()

		// Uses GOOGLE_APPLICATION_CREDENTIALS or default credentials unless a file is given
		var opts []option.ClientOption
		if cfg.GCSCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS client: %w", err)
		}

		var options []AdapterOption
		if cfg.GCSPrefix != "" {
			options = append(options, WithPrefix(cfg.GCSPrefix))
		}

		return New(client, cfg.GCSBucket, options...), nil
	})
}
