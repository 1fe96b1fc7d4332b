// Root of command-line argument parsing, based off the standard cobra
// template, see https://github.com/spf13/cobra
package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gobeaver/drivekit"
	"github.com/gobeaver/drivekit/converter/aesconv"
	"github.com/gobeaver/drivekit/converter/zstdconv"
	_ "github.com/gobeaver/drivekit/drivers"
)

var cfgFile string

// Filled in by PersistentPreRunE
var (
	cfg    *viper.Viper
	logger *logrus.Logger
	client *drivekit.Client
	svc    *files
)

// files is the service every subcommand goes through. Paths are passed
// through unescaped so their slashes select folders.
type files struct {
	Put           func(path string, data []byte) *drivekit.Call[drivekit.ResourceID] `create:"{path}" params:"path:path:encoded, body"`
	PutZstd       func(path string, data []byte) *drivekit.Call[drivekit.ResourceID] `create:"{path}" params:"path:path:encoded, body" compress:"zstd"`
	PutSealed     func(path string, data []byte) *drivekit.Call[drivekit.ResourceID] `create:"{path}" params:"path:path:encoded, body" encrypt:"aes-gcm"`
	PutZstdSealed func(path string, data []byte) *drivekit.Call[drivekit.ResourceID] `create:"{path}" params:"path:path:encoded, body" compress:"zstd" encrypt:"aes-gcm"`
	Get           func(path string) *drivekit.Call[[]byte]                           `read:"{path}?match=exact" params:"path:path:encoded"`
	GetZstd       func(path string) *drivekit.Call[[]byte]                           `read:"{path}?match=exact" params:"path:path:encoded" compress:"zstd"`
	GetSealed     func(path string) *drivekit.Call[[]byte]                           `read:"{path}?match=exact" params:"path:path:encoded" encrypt:"aes-gcm"`
	GetZstdSealed func(path string) *drivekit.Call[[]byte]                           `read:"{path}?match=exact" params:"path:path:encoded" compress:"zstd" encrypt:"aes-gcm"`
	Find          func(path string) *drivekit.Call[[]drivekit.Item]                  `read:"{path}" params:"path:path:encoded"`
	FindExact     func(path string) *drivekit.Call[[]drivekit.Item]                  `read:"{path}?match=exact" params:"path:path:encoded"`
}

// putter picks the Put variant for the compression and encryption flags.
func (f *files) putter(compress, encrypt bool) func(string, []byte) *drivekit.Call[drivekit.ResourceID] {
	switch {
	case compress && encrypt:
		return f.PutZstdSealed
	case encrypt:
		return f.PutSealed
	case compress:
		return f.PutZstd
	}
	return f.Put
}

// getter picks the Get variant matching putter.
func (f *files) getter(compress, encrypt bool) func(string) *drivekit.Call[[]byte] {
	switch {
	case compress && encrypt:
		return f.GetZstdSealed
	case encrypt:
		return f.GetSealed
	case compress:
		return f.GetZstd
	}
	return f.Get
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "drivekit",
	Short: "Store and fetch items in a drive",
	Long: `Store and fetch items through the configured drivekit driver.

Configuration is read from the --config file (default $HOME/.drivekit.yaml),
then DRIVEKIT_* environment variables, then flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return err
		}
		logger = logrus.New()
		if lvl, err := logrus.ParseLevel(cfg.GetString("log-level")); err == nil {
			logger.SetLevel(lvl)
		}

		factories, err := converters(cfg)
		if err != nil {
			return err
		}
		client, err = drivekit.New(driveConfig(cfg), factories...)
		if err != nil {
			return errors.Wrap(err, "Failed to initialize drivekit client")
		}
		svc = &files{}
		if err := client.Create(svc); err != nil {
			return errors.Wrap(err, "Invalid service declaration")
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if logger == nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		} else {
			logger.Error(err)
		}
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("driver", "local")
	v.SetDefault("scope", "app")
	v.SetDefault("log-level", "warn")
	v.SetDefault("s3-region", "us-east-1")

	home, err := homedir.Dir()
	if err != nil {
		return nil, errors.Wrap(err, "Couldn't find home directory")
	}
	v.SetDefault("local-base-path", filepath.Join(home, ".drivekit", "storage"))

	v.SetEnvPrefix("DRIVEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return nil, errors.Wrap(err, "Bad config path")
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "Failed to load config")
		}
		return v, nil
	}

	v.AddConfigPath(home)
	v.SetConfigName(".drivekit")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "Failed to load config")
		}
	}
	return v, nil
}

// converters returns the converter chain. Encryption wraps compression, so
// sealed items are compressed before they are encrypted.
func converters(v *viper.Viper) ([]drivekit.ConverterFactory, error) {
	var factories []drivekit.ConverterFactory
	if encoded := v.GetString("encryption-key"); encoded != "" {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, errors.Wrap(err, "Encryption key must be base64 encoded")
		}
		sealer, err := aesconv.New(key)
		if err != nil {
			return nil, err
		}
		factories = append(factories, sealer)
	}
	return append(factories, zstdconv.New()), nil
}

func driveConfig(v *viper.Viper) *drivekit.Config {
	return &drivekit.Config{
		Driver:            v.GetString("driver"),
		Scope:             v.GetString("scope"),
		ReadOnly:          v.GetBool("read-only"),
		LogLevel:          v.GetString("log-level"),
		LocalBasePath:     v.GetString("local-base-path"),
		S3Region:          v.GetString("s3-region"),
		S3Bucket:          v.GetString("s3-bucket"),
		S3Prefix:          v.GetString("s3-prefix"),
		S3Endpoint:        v.GetString("s3-endpoint"),
		S3AccessKeyID:     v.GetString("s3-access-key-id"),
		S3SecretAccessKey: v.GetString("s3-secret-access-key"),
		S3ForcePathStyle:  v.GetBool("s3-force-path-style"),
		MaxBodySize:       v.GetInt64("max-body-size"),

		GCSBucket:          v.GetString("gcs-bucket"),
		GCSPrefix:          v.GetString("gcs-prefix"),
		GCSCredentialsFile: v.GetString("gcs-credentials-file"),

		AzureAccountName:   v.GetString("azure-account-name"),
		AzureAccountKey:    v.GetString("azure-account-key"),
		AzureContainerName: v.GetString("azure-container-name"),
		AzurePrefix:        v.GetString("azure-prefix"),
		AzureEndpoint:      v.GetString("azure-endpoint"),

		SFTPHost:       v.GetString("sftp-host"),
		SFTPPort:       v.GetInt("sftp-port"),
		SFTPUsername:   v.GetString("sftp-username"),
		SFTPPassword:   v.GetString("sftp-password"),
		SFTPPrivateKey: v.GetString("sftp-private-key"),
		SFTPBasePath:   v.GetString("sftp-base-path"),

		ZipPath: v.GetString("zip-path"),
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.drivekit.yaml)")
	flags.String("driver", "", "storage driver: "+strings.Join(drivekit.Drivers(), ", "))
	flags.String("scope", "", "authorization scope: app or file")
	flags.Bool("read-only", false, "reject every write")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.String("local-base-path", "", "root directory of the local driver")
	flags.String("s3-bucket", "", "bucket of the s3 driver")
	flags.String("s3-prefix", "", "key prefix of the s3 driver")
	flags.String("s3-endpoint", "", "custom S3 endpoint")
	flags.String("gcs-bucket", "", "bucket of the gcs driver")
	flags.String("gcs-prefix", "", "object prefix of the gcs driver")
	flags.String("azure-container-name", "", "container of the azure driver")
	flags.String("azure-prefix", "", "blob prefix of the azure driver")
	flags.String("sftp-host", "", "server of the sftp driver")
	flags.String("sftp-base-path", "", "remote directory of the sftp driver")
	flags.String("zip-path", "", "archive served by the zip driver")
	flags.Int64("max-body-size", 0, "reject bodies larger than this many bytes")
	flags.String("encryption-key", "", "base64 AES-256 key used by --encrypt")
}
