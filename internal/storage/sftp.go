package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTPBackend serves sftp:// locators from a remote filesystem over SSH.
// The host is fixed at construction from configuration; the host portion of
// locators is ignored and only the path is used.
type SFTPBackend struct {
	conn   *ssh.Client
	client *sftp.Client
}

// NewSFTPBackend dials the SFTP host and returns a connected backend.
// The caller owns the connection lifecycle and must Close it when done.
//
// TODO: support host key pinning via configuration instead of accepting any
// host key.
func NewSFTPBackend(addr, user, password string) (*SFTPBackend, error) {
	sshCfg := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}

	conn, err := ssh.Dial("tcp", addr, sshCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to dial sftp host %s: %w", addr, err)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create sftp client: %w", err)
	}
	return &SFTPBackend{conn: conn, client: client}, nil
}

// Close closes the SFTP session and the underlying SSH connection.
func (b *SFTPBackend) Close() error {
	if err := b.client.Close(); err != nil {
		b.conn.Close()
		return err
	}
	return b.conn.Close()
}

func sftpPath(locator string) string {
	// sftp://host/path -> /path
	rest := strings.TrimPrefix(locator, "sftp://")
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[idx:]
	}
	return "/"
}

// Open returns a reader for the remote file's content.
func (b *SFTPBackend) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	f, err := b.client.Open(sftpPath(locator))
	if err != nil {
		return nil, &IOError{Locator: locator, Err: err}
	}
	return f, nil
}

// Write persists data to the remote file, overwriting previous content.
func (b *SFTPBackend) Write(ctx context.Context, locator string, data []byte) error {
	f, err := b.client.Create(sftpPath(locator))
	if err != nil {
		return &IOError{Locator: locator, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return &IOError{Locator: locator, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Locator: locator, Err: err}
	}
	return nil
}

// EnsureDir creates the remote directory and any parents. Idempotent.
func (b *SFTPBackend) EnsureDir(ctx context.Context, locator string) error {
	if err := b.client.MkdirAll(sftpPath(locator)); err != nil {
		return &IOError{Locator: locator, Err: err}
	}
	return nil
}

// List returns the files directly under the remote directory.
func (b *SFTPBackend) List(ctx context.Context, locator string) ([]EntryInfo, error) {
	infos, err := b.client.ReadDir(sftpPath(locator))
	if err != nil {
		return nil, &IOError{Locator: locator, Err: err}
	}

	entries := make([]EntryInfo, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		entries = append(entries, EntryInfo{
			Path:    strings.TrimSuffix(locator, "/") + "/" + info.Name(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

// Remove deletes the remote file at the locator.
func (b *SFTPBackend) Remove(ctx context.Context, locator string) error {
	if err := b.client.Remove(sftpPath(locator)); err != nil {
		return &IOError{Locator: locator, Err: err}
	}
	return nil
}
