package ssh

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wechange-eg/cloudctl/internal/security"
)

// UploadFile uploads a local file to the remote server
func (c *Client) UploadFile(ctx context.Context, localPath, remotePath string) error {
	// Open local file
	localFile, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer localFile.Close()

	// Get file info
	fileInfo, err := localFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat local file: %w", err)
	}

	// Create session
	session, err := c.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	// Create remote directory if needed
	remoteDir := filepath.Dir(remotePath)
	if _, err := c.Exec(ctx, fmt.Sprintf("mkdir -p %s", security.ShellEscape(remoteDir))); err != nil {
		return fmt.Errorf("failed to create remote directory: %w", err)
	}

	// Get stdin pipe
	stdin, err := session.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}

	// Start scp command
	filename := filepath.Base(remotePath)
	go func() {
		defer stdin.Close()
		// SCP protocol: C<mode> <size> <filename>\n<data>\0
		fmt.Fprintf(stdin, "C0644 %d %s\n", fileInfo.Size(), filename)
		_, _ = io.Copy(stdin, localFile)
		fmt.Fprint(stdin, "\x00")
	}()

	// Run scp
	if err := runWithContext(ctx, session, fmt.Sprintf("scp -t %s", security.ShellEscape(remotePath))); err != nil {
		return fmt.Errorf("scp failed: %w", err)
	}

	return nil
}

// UploadContent uploads content directly to a remote file
// SECURITY: Uses base64 encoding to prevent heredoc injection attacks
func (c *Client) UploadContent(ctx context.Context, content, remotePath string) error {
	// Encode content as base64 to prevent any shell injection
	base64Content := base64.StdEncoding.EncodeToString([]byte(content))

	// Use base64 decoding on the remote side
	cmd := fmt.Sprintf("mkdir -p %s && echo '%s' | base64 -d > %s",
		security.ShellEscape(filepath.Dir(remotePath)), base64Content, security.ShellEscape(remotePath))

	result, err := c.Exec(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to upload content: %w", err)
	}

	if result.ExitCode != 0 {
		return fmt.Errorf("failed to write file: %s", result.Stderr)
	}

	return nil
}

// DirectoryExists checks if a directory exists on the remote server
func (c *Client) DirectoryExists(ctx context.Context, remotePath string) (bool, error) {
	result, err := c.Exec(ctx, fmt.Sprintf("test -d %s && echo 'exists'", security.ShellEscape(remotePath)))
	if err != nil {
		return false, err
	}
	return result.Stdout == "exists\n", nil
}

// RemoveDirectory removes a directory from the remote server
func (c *Client) RemoveDirectory(ctx context.Context, remotePath string) error {
	result, err := c.Exec(ctx, fmt.Sprintf("rm -rf %s", security.ShellEscape(remotePath)))
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("failed to remove directory: %s", result.Stderr)
	}
	return nil
}
