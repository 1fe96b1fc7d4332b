// Package sftp stores drivekit items on an SFTP server, laid out exactly as
// the local driver lays them out on disk.
package sftp

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pkg/sftp"
	"github.com/spf13/afero"
	"github.com/spf13/afero/sftpfs"
	"golang.org/x/crypto/ssh"

	"github.com/gobeaver/drivekit"
	"github.com/gobeaver/drivekit/driver/local"
)

// Config holds SFTP connection configuration
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	PrivateKey []byte // PEM encoded private key
	BasePath   string

	// HostKeyCallback verifies the server key. Nil accepts any key.
	HostKeyCallback ssh.HostKeyCallback
}

// Adapter provides an SFTP implementation of drivekit.Driver
type Adapter struct {
	*local.Adapter

	mu      sync.Mutex
	client  *sftp.Client
	sshConn *ssh.Client
}

// New connects to the server and creates a drive adapter rooted at
// cfg.BasePath
func New(cfg Config) (*Adapter, error) {
	sshConn, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	client, err := sftp.NewClient(sshConn)
	if err != nil {
		sshConn.Close()
		return nil, fmt.Errorf("failed to create SFTP client: %w", err)
	}

	adapter := NewWithClient(client, cfg.BasePath)
	adapter.sshConn = sshConn
	return adapter, nil
}

// NewWithClient creates a drive adapter on an established SFTP session.
// Closing the adapter closes client.
func NewWithClient(client *sftp.Client, basePath string) *Adapter {
	var fs afero.Fs = sftpfs.New(client)
	if basePath != "" {
		fs = afero.NewBasePathFs(fs, basePath)
	}
	return &Adapter{
		Adapter: local.NewWithFs(fs),
		client:  client,
	}
}

// dial establishes the SSH connection
func dial(cfg Config) (*ssh.Client, error) {
	sshConfig := &ssh.ClientConfig{
		User:            cfg.Username,
		HostKeyCallback: cfg.HostKeyCallback,
	}
	if sshConfig.HostKeyCallback == nil {
		sshConfig.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}

	if len(cfg.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		sshConfig.Auth = append(sshConfig.Auth, ssh.PublicKeys(signer))
	}

	if cfg.Password != "" {
		sshConfig.Auth = append(sshConfig.Auth, ssh.Password(cfg.Password))
	}

	if len(sshConfig.Auth) == 0 {
		return nil, fmt.Errorf("no authentication method provided")
	}

	port := cfg.Port
	if port == 0 {
		port = 22
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, port)
	sshConn, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SSH: %w", err)
	}
	return sshConn, nil
}

// Close closes the SFTP and SSH connections
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			errs = append(errs, err)
		}
		a.client = nil
	}
	if a.sshConn != nil {
		if err := a.sshConn.Close(); err != nil {
			errs = append(errs, err)
		}
		a.sshConn = nil
	}
	return errors.Join(errs...)
}

// Ensure Adapter implements drivekit.Driver
var _ drivekit.Driver = (*Adapter)(nil)
