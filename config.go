package drivekit

import (
	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// Driver to use (memory, local, s3, gcs, azure, sftp, zip)
	Driver string `env:"DRIVEKIT_DRIVER,default:memory"`

	// Authorization scope: app, file or a full scope URL
	Scope string `env:"DRIVEKIT_SCOPE,default:app"`

	// Reject every write
	ReadOnly bool `env:"DRIVEKIT_READ_ONLY,default:false"`

	// Client log level (trace, debug, info, warn, error)
	LogLevel string `env:"DRIVEKIT_LOG_LEVEL,default:info"`

	// Compile every service method when the service is created
	EagerValidation bool `env:"DRIVEKIT_EAGER_VALIDATION,default:false"`

	// Local driver configuration
	LocalBasePath string `env:"DRIVEKIT_LOCAL_BASE_PATH,default:./storage"`

	// S3 driver configuration
	S3Region          string `env:"DRIVEKIT_S3_REGION,default:us-east-1"`
	S3Bucket          string `env:"DRIVEKIT_S3_BUCKET"`
	S3Prefix          string `env:"DRIVEKIT_S3_PREFIX"`
	S3Endpoint        string `env:"DRIVEKIT_S3_ENDPOINT"`
	S3AccessKeyID     string `env:"DRIVEKIT_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"DRIVEKIT_S3_SECRET_ACCESS_KEY"`
	S3ForcePathStyle  bool   `env:"DRIVEKIT_S3_FORCE_PATH_STYLE,default:false"`

	// GCS (Google Cloud Storage) driver configuration
	GCSBucket          string `env:"DRIVEKIT_GCS_BUCKET"`
	GCSPrefix          string `env:"DRIVEKIT_GCS_PREFIX"`
	GCSCredentialsFile string `env:"DRIVEKIT_GCS_CREDENTIALS_FILE"` // Path to service account JSON

	// Azure Blob Storage driver configuration
	AzureAccountName   string `env:"DRIVEKIT_AZURE_ACCOUNT_NAME"`
	AzureAccountKey    string `env:"DRIVEKIT_AZURE_ACCOUNT_KEY"`
	AzureContainerName string `env:"DRIVEKIT_AZURE_CONTAINER_NAME"`
	AzurePrefix        string `env:"DRIVEKIT_AZURE_PREFIX"`
	AzureEndpoint      string `env:"DRIVEKIT_AZURE_ENDPOINT"` // Optional custom endpoint

	// SFTP driver configuration
	SFTPHost       string `env:"DRIVEKIT_SFTP_HOST"`
	SFTPPort       int    `env:"DRIVEKIT_SFTP_PORT"` // 22 when unset
	SFTPUsername   string `env:"DRIVEKIT_SFTP_USERNAME"`
	SFTPPassword   string `env:"DRIVEKIT_SFTP_PASSWORD"`
	SFTPPrivateKey string `env:"DRIVEKIT_SFTP_PRIVATE_KEY"` // Path to private key file
	SFTPBasePath   string `env:"DRIVEKIT_SFTP_BASE_PATH"`

	// Zip driver configuration, a read-only archive drive
	ZipPath string `env:"DRIVEKIT_ZIP_PATH"`

	// Request body validation, disabled when both are empty
	MaxBodySize       int64  `env:"DRIVEKIT_MAX_BODY_SIZE,default:0"`
	AllowedExtensions string `env:"DRIVEKIT_ALLOWED_EXTENSIONS"` // comma-separated
	BlockedExtensions string `env:"DRIVEKIT_BLOCKED_EXTENSIONS"` // comma-separated
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
