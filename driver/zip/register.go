package zip

import (
	"fmt"

	"github.com/gobeaver/drivekit"
)

func init() {
	drivekit.RegisterDriver("zip", func(cfg *drivekit.Config) (drivekit.Driver, error) {
		if cfg.ZipPath == "" {
			return nil, fmt.Errorf("zip driver requires ZipPath to be set")
		}
		return Open(cfg.ZipPath)
	})
}
