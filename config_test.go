package drivekit

import (
	"os"
	"testing"
)

func TestGetConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    Config
	}{
		{
			name:    "default values",
			envVars: map[string]string{},
			want: Config{
				Driver:        "memory",
				Scope:         "app",
				LogLevel:      "info",
				LocalBasePath: "./storage",
				S3Region:      "us-east-1",
			},
		},
		{
			name: "s3 configuration",
			envVars: map[string]string{
				"BEAVER_DRIVEKIT_DRIVER":               "s3",
				"BEAVER_DRIVEKIT_S3_BUCKET":            "test-bucket",
				"BEAVER_DRIVEKIT_S3_PREFIX":            "test-prefix/",
				"BEAVER_DRIVEKIT_S3_REGION":            "us-west-2",
				"BEAVER_DRIVEKIT_S3_ACCESS_KEY_ID":     "test-key",
				"BEAVER_DRIVEKIT_S3_SECRET_ACCESS_KEY": "test-secret",
				"BEAVER_DRIVEKIT_S3_ENDPOINT":          "http://localhost:9000",
				"BEAVER_DRIVEKIT_S3_FORCE_PATH_STYLE":  "true",
			},
			want: Config{
				Driver:            "s3",
				Scope:             "app",
				LogLevel:          "info",
				LocalBasePath:     "./storage",
				S3Bucket:          "test-bucket",
				S3Prefix:          "test-prefix/",
				S3Region:          "us-west-2",
				S3AccessKeyID:     "test-key",
				S3SecretAccessKey: "test-secret",
				S3Endpoint:        "http://localhost:9000",
				S3ForcePathStyle:  true,
			},
		},
		{
			name: "local configuration with options",
			envVars: map[string]string{
				"BEAVER_DRIVEKIT_DRIVER":           "local",
				"BEAVER_DRIVEKIT_LOCAL_BASE_PATH":  "/custom/path",
				"BEAVER_DRIVEKIT_SCOPE":            "file",
				"BEAVER_DRIVEKIT_READ_ONLY":        "true",
				"BEAVER_DRIVEKIT_LOG_LEVEL":        "debug",
				"BEAVER_DRIVEKIT_EAGER_VALIDATION": "true",
			},
			want: Config{
				Driver:          "local",
				Scope:           "file",
				ReadOnly:        true,
				LogLevel:        "debug",
				EagerValidation: true,
				LocalBasePath:   "/custom/path",
				S3Region:        "us-east-1",
			},
		},
		{
			name: "remote drivers",
			envVars: map[string]string{
				"BEAVER_DRIVEKIT_DRIVER":               "sftp",
				"BEAVER_DRIVEKIT_GCS_BUCKET":           "gcs-bucket",
				"BEAVER_DRIVEKIT_AZURE_ACCOUNT_NAME":   "acct",
				"BEAVER_DRIVEKIT_AZURE_CONTAINER_NAME": "drive",
				"BEAVER_DRIVEKIT_SFTP_HOST":            "files.example.com",
				"BEAVER_DRIVEKIT_SFTP_PORT":            "2222",
				"BEAVER_DRIVEKIT_SFTP_USERNAME":        "ada",
				"BEAVER_DRIVEKIT_ZIP_PATH":             "/srv/archive.zip",
			},
			want: Config{
				Driver:             "sftp",
				Scope:              "app",
				LogLevel:           "info",
				LocalBasePath:      "./storage",
				S3Region:           "us-east-1",
				GCSBucket:          "gcs-bucket",
				AzureAccountName:   "acct",
				AzureContainerName: "drive",
				SFTPHost:           "files.example.com",
				SFTPPort:           2222,
				SFTPUsername:       "ada",
				ZipPath:            "/srv/archive.zip",
			},
		},
		{
			name: "body validation configuration",
			envVars: map[string]string{
				"BEAVER_DRIVEKIT_MAX_BODY_SIZE":      "5242880",
				"BEAVER_DRIVEKIT_ALLOWED_EXTENSIONS": ".json,.txt",
				"BEAVER_DRIVEKIT_BLOCKED_EXTENSIONS": ".exe,.bat",
			},
			want: Config{
				Driver:            "memory",
				Scope:             "app",
				LogLevel:          "info",
				LocalBasePath:     "./storage",
				S3Region:          "us-east-1",
				MaxBodySize:       5242880,
				AllowedExtensions: ".json,.txt",
				BlockedExtensions: ".exe,.bat",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Set environment variables
			for k, v := range tt.envVars {
				k := k // capture for closure
				os.Setenv(k, v)
				t.Cleanup(func() { os.Unsetenv(k) })
			}

			cfg, err := GetConfig()
			if err != nil {
				t.Fatalf("GetConfig() error = %v", err)
			}

			if *cfg != tt.want {
				t.Errorf("GetConfig() = %+v, want %+v", *cfg, tt.want)
			}
		})
	}
}
