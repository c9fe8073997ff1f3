package ssh

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Default connection behavior
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1 * time.Second
	DefaultMaxDelay     = 15 * time.Second
)

type clientOptions struct {
	timeout      time.Duration
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
}

// Option configures connection behavior
type Option func(*clientOptions)

// WithTimeout sets the dial timeout
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithRetries sets the number of connection attempts
func WithRetries(n int) Option {
	return func(o *clientOptions) { o.maxRetries = n }
}

// WithInitialDelay sets the first backoff delay between attempts
func WithInitialDelay(d time.Duration) Option {
	return func(o *clientOptions) { o.initialDelay = d }
}

// WithMaxDelay caps the backoff delay between attempts
func WithMaxDelay(d time.Duration) Option {
	return func(o *clientOptions) { o.maxDelay = d }
}

// Client represents an SSH client connection
type Client struct {
	Host    string
	User    string
	Port    int
	KeyPath string
	opts    clientOptions
	config  *ssh.ClientConfig
	client  *ssh.Client
}

// NewClient creates a new SSH client
func NewClient(host, user string, port int, keyPath string, opts ...Option) *Client {
	if port == 0 {
		port = 22
	}

	options := clientOptions{
		timeout:      DefaultTimeout,
		maxRetries:   DefaultMaxRetries,
		initialDelay: DefaultInitialDelay,
		maxDelay:     DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Client{
		Host:    host,
		User:    user,
		Port:    port,
		KeyPath: keyPath,
		opts:    options,
	}
}

// Connect establishes an SSH connection, retrying with exponential backoff
func (c *Client) Connect() error {
	signer, err := c.loadPrivateKey()
	if err != nil {
		return fmt.Errorf("failed to load private key: %w", err)
	}

	hostKeyCallback, err := c.hostKeyCallback()
	if err != nil {
		return fmt.Errorf("host key verification failed: %w", err)
	}

	c.config = &ssh.ClientConfig{
		User: c.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.opts.timeout,
	}

	return c.dial()
}

// Reconnect re-establishes a dropped connection using the previous config
func (c *Client) Reconnect() error {
	if c.config == nil {
		return fmt.Errorf("cannot reconnect: no previous connection")
	}

	if c.client != nil {
		c.client.Close()
		c.client = nil
	}

	return c.dial()
}

// dial attempts the TCP+SSH handshake, retrying per the client options
func (c *Client) dial() error {
	addr := fmt.Sprintf("%s:%d", c.Host, c.Port)

	var lastErr error
	for attempt := 1; attempt <= c.opts.maxRetries; attempt++ {
		client, err := ssh.Dial("tcp", addr, c.config)
		if err == nil {
			c.client = client
			return nil
		}
		lastErr = err

		if attempt < c.opts.maxRetries {
			time.Sleep(c.backoffDelay(attempt))
		}
	}

	return fmt.Errorf("failed to connect to %s after %d attempts: %w",
		addr, c.opts.maxRetries, lastErr)
}

// backoffDelay returns the delay before the next attempt (attempt is 1-based)
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.opts.initialDelay * time.Duration(1<<(attempt-1))
	if delay > c.opts.maxDelay {
		delay = c.opts.maxDelay
	}
	return delay
}

// Close closes the SSH connection
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsConnected returns true if the client is connected
func (c *Client) IsConnected() bool {
	return c.client != nil
}

// loadPrivateKey loads the SSH private key
func (c *Client) loadPrivateKey() (ssh.Signer, error) {
	// CI/CD: Check for SSH key in environment variable first
	if envKey := os.Getenv("CLOUDCTL_SSH_KEY"); envKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(envKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse CLOUDCTL_SSH_KEY: %w", err)
		}
		return signer, nil
	}

	keyPath := c.KeyPath
	if keyPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		// Try common key locations
		keyPaths := []string{
			filepath.Join(homeDir, ".ssh", "id_ed25519"),
			filepath.Join(homeDir, ".ssh", "id_rsa"),
		}
		for _, p := range keyPaths {
			if _, err := os.Stat(p); err == nil {
				keyPath = p
				break
			}
		}
		if keyPath == "" {
			return nil, fmt.Errorf("no SSH key found (set CLOUDCTL_SSH_KEY for CI/CD)")
		}
	}

	// Expand ~ in path
	if len(keyPath) >= 2 && keyPath[:2] == "~/" {
		homeDir, _ := os.UserHomeDir()
		keyPath = filepath.Join(homeDir, keyPath[2:])
	}

	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return signer, nil
}

// hostKeyCallback returns the host key callback function
// SECURITY: This function requires a valid known_hosts file by default
// In CI/CD, set CLOUDCTL_KNOWN_HOSTS with the content of known_hosts
// or CLOUDCTL_SKIP_HOST_KEY_CHECK=true to skip verification (not recommended)
func (c *Client) hostKeyCallback() (ssh.HostKeyCallback, error) {
	// CI/CD: Check for known_hosts content in environment variable
	if knownHostsContent := os.Getenv("CLOUDCTL_KNOWN_HOSTS"); knownHostsContent != "" {
		// Write to temp file for knownhosts.New()
		tmpFile, err := os.CreateTemp("", "known_hosts")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp known_hosts: %w", err)
		}
		defer os.Remove(tmpFile.Name())

		if _, err := tmpFile.WriteString(knownHostsContent); err != nil {
			return nil, fmt.Errorf("failed to write temp known_hosts: %w", err)
		}
		tmpFile.Close()

		callback, err := knownhosts.New(tmpFile.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to parse CLOUDCTL_KNOWN_HOSTS: %w", err)
		}
		return callback, nil
	}

	// CI/CD: Option to skip host key verification (use with caution)
	if os.Getenv("CLOUDCTL_SKIP_HOST_KEY_CHECK") == "true" {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	knownHostsPath := filepath.Join(homeDir, ".ssh", "known_hosts")

	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("SSH known_hosts file not found at %s. "+
			"Please connect to the server manually first with: ssh %s@%s -p %d\n"+
			"For CI/CD, set CLOUDCTL_KNOWN_HOSTS or CLOUDCTL_SKIP_HOST_KEY_CHECK=true",
			knownHostsPath, c.User, c.Host, c.Port)
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read known_hosts: %w", err)
	}

	return callback, nil
}

// NewSession creates a new SSH session
func (c *Client) NewSession() (*ssh.Session, error) {
	if c.client == nil {
		return nil, fmt.Errorf("not connected")
	}
	return c.client.NewSession()
}
