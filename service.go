package drivekit

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gobeaver/beaver-kit/config"
	"github.com/gobeaver/filekit/filevalidator"
	"github.com/sirupsen/logrus"
)

// Global instance
var (
	defaultClient *Client
	defaultOnce   sync.Once
	defaultErr    error
)

// ServiceBuilder creates Clients from environment config with a custom prefix
type ServiceBuilder struct {
	prefix string
}

// WithPrefix creates a new ServiceBuilder with the specified prefix
func WithPrefix(prefix string) *ServiceBuilder {
	return &ServiceBuilder{prefix: prefix}
}

// New creates a new Client using the builder's prefix
func (b *ServiceBuilder) New(factories ...ConverterFactory) (*Client, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return New(cfg, factories...)
}

// Init initializes the global client instance
func Init(configs ...*Config) error {
	defaultOnce.Do(func() {
		var cfg *Config
		if len(configs) > 0 {
			cfg = configs[0]
		} else {
			cfg, defaultErr = GetConfig()
			if defaultErr != nil {
				return
			}
		}

		defaultClient, defaultErr = New(cfg)
	})

	return defaultErr
}

// New creates a Client from config. The configured driver is wrapped with
// body validation and the read-only guard when enabled; factories are added
// to the converter chain in order.
func New(cfg *Config, factories ...ConverterFactory) (*Client, error) {
	driver, err := NewDriver(cfg)
	if err != nil {
		return nil, err
	}

	scope, err := ParseScope(cfg.Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	b := NewBuilder(driver).
		BaseScope(scope).
		Logger(logger.WithField("driver", cfg.Driver)).
		ValidateEagerly(cfg.EagerValidation)
	for _, f := range factories {
		b.AddConverterFactory(f)
	}
	return b.Build()
}

// NewDriver creates the configured driver with its decorators applied.
func NewDriver(cfg *Config) (Driver, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	driver, err := CreateDriver(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	if validator := createValidator(cfg); validator != nil {
		driver = Validated(driver, validator)
	}
	if cfg.ReadOnly {
		driver = ReadOnly(driver)
	}
	return driver, nil
}

// validateConfig checks configuration validity
func validateConfig(cfg *Config) error {
	if cfg.Driver == "" {
		return errors.New("driver is required")
	}

	switch cfg.Driver {
	case "local":
		if cfg.LocalBasePath == "" {
			return errors.New("local base path is required for local driver")
		}
	case "s3":
		if cfg.S3Bucket == "" {
			return errors.New("S3 bucket is required for S3 driver")
		}
		// Access keys can be provided via IAM roles, so not always required
	case "gcs":
		if cfg.GCSBucket == "" {
			return errors.New("GCS bucket is required for GCS driver")
		}
	case "azure":
		if cfg.AzureAccountName == "" || cfg.AzureContainerName == "" {
			return errors.New("Azure account name and container name are required for Azure driver")
		}
	case "sftp":
		if cfg.SFTPHost == "" {
			return errors.New("SFTP host is required for SFTP driver")
		}
		if cfg.SFTPPassword == "" && cfg.SFTPPrivateKey == "" {
			return errors.New("SFTP password or private key is required for SFTP driver")
		}
	case "zip":
		if cfg.ZipPath == "" {
			return errors.New("zip path is required for zip driver")
		}
	}

	if cfg.MaxBodySize < 0 {
		return fmt.Errorf("max body size must not be negative, got %d", cfg.MaxBodySize)
	}
	return nil
}

// createValidator creates a body validator from config, or nil when no
// validation is configured
func createValidator(cfg *Config) filevalidator.Validator {
	if cfg.MaxBodySize == 0 && cfg.AllowedExtensions == "" && cfg.BlockedExtensions == "" {
		return nil
	}

	b := filevalidator.Empty().AllowNoExtension()
	if cfg.MaxBodySize > 0 {
		b = b.MaxSize(cfg.MaxBodySize)
	}
	if exts := splitList(cfg.AllowedExtensions); len(exts) > 0 {
		b = b.Extensions(exts...)
	}
	if exts := splitList(cfg.BlockedExtensions); len(exts) > 0 {
		b = b.BlockExtensions(exts...)
	}
	return b.Build()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newLogger(level string) (*logrus.Logger, error) {
	logger := logrus.New()
	if level == "" {
		return logger, nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// Default returns the global instance, initializing if needed with error handling
func Default() (*Client, error) {
	if defaultClient == nil {
		if err := Init(); err != nil {
			return nil, err
		}
	}
	return defaultClient, nil
}

// NewFromEnv creates instance from environment variables (convenience constructor)
func NewFromEnv(factories ...ConverterFactory) (*Client, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg, factories...)
}

// Reset clears the global instance (for testing)
func Reset() {
	defaultClient = nil
	defaultOnce = sync.Once{}
	defaultErr = nil
}
