package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ExecResult holds the result of a command execution
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Err returns an error when the command exited non-zero.
func (r *ExecResult) Err() error {
	if r.ExitCode == 0 {
		return nil
	}
	msg := strings.TrimSpace(r.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(r.Stdout)
	}
	return &ExitError{exitStatus: r.ExitCode, message: msg}
}

// Exec executes a command on the remote server
func (c *Client) Exec(ctx context.Context, command string) (*ExecResult, error) {
	session, err := c.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	err = runWithContext(ctx, session, command)

	result := &ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
		} else {
			return result, fmt.Errorf("failed to execute command: %w", err)
		}
	}

	return result, nil
}

// ExecStream executes a command and streams output to stdout/stderr
func (c *Client) ExecStream(ctx context.Context, command string) error {
	session, err := c.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	session.Stdout = os.Stdout
	session.Stderr = os.Stderr

	return runWithContext(ctx, session, command)
}

// ExecWithOutput executes a command and returns combined output
func (c *Client) ExecWithOutput(ctx context.Context, command string) (string, error) {
	result, err := c.Exec(ctx, command)
	if err != nil {
		return "", err
	}

	output := strings.TrimSpace(result.Stdout)
	if result.ExitCode != 0 {
		errMsg := strings.TrimSpace(result.Stderr)
		if errMsg == "" {
			errMsg = output
		}
		return output, fmt.Errorf("command failed (exit %d): %s", result.ExitCode, errMsg)
	}

	return output, nil
}

// Shell opens an interactive shell
func (c *Client) Shell() error {
	session, err := c.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	// Set up terminal modes
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}

	// Request pseudo terminal
	if err := session.RequestPty("xterm", 40, 80, modes); err != nil {
		return fmt.Errorf("failed to request pty: %w", err)
	}

	// Set up pipes
	session.Stdin = os.Stdin
	session.Stdout = os.Stdout
	session.Stderr = os.Stderr

	// Start shell
	if err := session.Shell(); err != nil {
		return fmt.Errorf("failed to start shell: %w", err)
	}

	return session.Wait()
}

// ExecInteractive runs a command with a pty and local stdin attached.
// Used for shells inside service containers.
func (c *Client) ExecInteractive(command string) error {
	session, err := c.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}

	if err := session.RequestPty("xterm", 40, 80, modes); err != nil {
		return fmt.Errorf("failed to request pty: %w", err)
	}

	session.Stdin = os.Stdin
	session.Stdout = os.Stdout
	session.Stderr = os.Stderr

	return session.Run(command)
}

// runWithContext runs a command on the session, closing it when ctx ends.
func runWithContext(ctx context.Context, session *ssh.Session, command string) error {
	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		session.Close()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// ExitError represents a remote command exit error
type ExitError struct {
	exitStatus int
	message    string
}

func (e *ExitError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("exit status %d: %s", e.exitStatus, e.message)
	}
	return fmt.Sprintf("exit status %d", e.exitStatus)
}

func (e *ExitError) ExitStatus() int {
	return e.exitStatus
}
