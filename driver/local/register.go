package local

import "github.com/gobeaver/drivekit"

func init() {
	drivekit.RegisterDriver("local", func(cfg *drivekit.Config) (drivekit.Driver, error) {
		return New(cfg.LocalBasePath)
	})
}
