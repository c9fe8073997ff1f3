package security

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// siteSlugRegex validates site slugs (DNS-compatible)
	// Allows: lowercase letters, numbers, hyphens (not at start/end)
	// Length: 1-63 characters
	siteSlugRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

	// serverNameRegex validates server configuration names
	// Allows: letters, numbers, underscores, hyphens
	// Length: 1-64 characters
	serverNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]{0,62}[a-zA-Z0-9])?$`)

	// releaseRegex validates release/tag names
	// Allows: letters, numbers, dots, underscores, hyphens
	// Length: 1-128 characters
	releaseRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._-]{0,126}[a-zA-Z0-9])?$`)

	// unixUserRegex validates Unix usernames
	// Standard POSIX username rules
	// Length: 1-32 characters
	unixUserRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

	// domainRegex validates DNS hostnames (lowercase labels joined by dots)
	domainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)+$`)

	// imageRefRegex validates container image references (repository plus
	// optional tag), e.g. "mariadb:10.11" or "onlyoffice/documentserver:8.1"
	imageRefRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9._/-]*[a-z0-9])?(:[A-Za-z0-9][A-Za-z0-9._-]{0,127})?$`)

	// healthPathRegex validates health check paths
	// Allows: URL paths with alphanumeric, slashes, dots, underscores, hyphens
	// Does not allow double slashes or parent traversal (..)
	healthPathRegex = regexp.MustCompile(`^/([a-zA-Z0-9_.-]+(/[a-zA-Z0-9_.-]+)*)?$`)

	// logTailRegex validates --tail argument for docker logs
	// Allows: positive integers or "all"
	logTailRegex = regexp.MustCompile(`^([0-9]+|all)$`)

	// logSinceRegex validates --since argument for docker logs
	// Allows: durations (e.g., "2h", "30m", "1h30m") or timestamps
	logSinceRegex = regexp.MustCompile(`^([0-9]+[smhd])+$|^[0-9]{4}-[0-9]{2}-[0-9]{2}(T[0-9]{2}:[0-9]{2}:[0-9]{2})?$`)

	// envKeyRegex validates environment variable keys
	// Standard environment variable naming
	envKeyRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// artifactPathRegex validates relative artifact paths
	// Allows: alphanumeric, underscores, hyphens, dots, forward slashes (no ..)
	artifactPathRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+(/[a-zA-Z0-9_.-]+)*$`)

	// sensitivePatterns used by SanitizeCommandForLog to mask secrets
	sensitiveLogPatterns = []string{
		"DB_PASSWORD=",
		"DB_ROOT_PASSWORD=",
		"MARIADB_PASSWORD=",
		"MARIADB_ROOT_PASSWORD=",
		"MYSQL_PASSWORD=",
		"OFFICE_JWT_SECRET=",
	}
)

// ValidateSiteSlug validates a site slug.
// Slugs must be DNS-compatible: they name the compose project, the Docker
// network, and the directory under /srv/cloud on the server.
func ValidateSiteSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("site slug cannot be empty")
	}
	if len(slug) > 63 {
		return fmt.Errorf("site slug too long (max 63 characters)")
	}
	if !siteSlugRegex.MatchString(slug) {
		return fmt.Errorf("site slug must contain only lowercase letters, numbers, and hyphens (not at start/end)")
	}
	return nil
}

// ValidateServerName validates a server configuration name
func ValidateServerName(name string) error {
	if name == "" {
		return fmt.Errorf("server name cannot be empty")
	}
	if len(name) > 64 {
		return fmt.Errorf("server name too long (max 64 characters)")
	}
	if !serverNameRegex.MatchString(name) {
		return fmt.Errorf("server name must contain only letters, numbers, underscores, and hyphens")
	}
	return nil
}

// ValidateRelease validates a release/tag name
func ValidateRelease(release string) error {
	if release == "" {
		return fmt.Errorf("release name cannot be empty")
	}
	if len(release) > 128 {
		return fmt.Errorf("release name too long (max 128 characters)")
	}
	if !releaseRegex.MatchString(release) {
		return fmt.Errorf("release name must contain only letters, numbers, dots, underscores, and hyphens")
	}
	return nil
}

// ValidateUnixUser validates a Unix username
func ValidateUnixUser(user string) error {
	if user == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if len(user) > 32 {
		return fmt.Errorf("username too long (max 32 characters)")
	}
	if !unixUserRegex.MatchString(user) {
		return fmt.Errorf("username must start with a lowercase letter or underscore, followed by lowercase letters, numbers, underscores, or hyphens")
	}
	return nil
}

// ValidateDomain validates a DNS hostname.
// The domain ends up in the proxy config, trusted-domains env, and TLS
// subject, so it must be a plain lowercase hostname with at least two labels.
func ValidateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	if len(domain) > 253 {
		return fmt.Errorf("domain too long (max 253 characters)")
	}
	if !domainRegex.MatchString(domain) {
		return fmt.Errorf("domain must be a lowercase hostname like cloud.example.org")
	}
	return nil
}

// ValidateImageRef validates a container image reference.
func ValidateImageRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("image reference cannot be empty")
	}
	if len(ref) > 255 {
		return fmt.Errorf("image reference too long (max 255 characters)")
	}
	if !imageRefRegex.MatchString(ref) {
		return fmt.Errorf("image reference contains invalid characters: %s", ref)
	}
	return nil
}

// ValidateHealthPath validates a health check URL path
func ValidateHealthPath(path string) error {
	if path == "" {
		return nil // Empty path defaults to "/status.php"
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("health path must start with /")
	}
	if len(path) > 2048 {
		return fmt.Errorf("health path too long (max 2048 characters)")
	}
	// Check for path traversal attempts
	if strings.Contains(path, "..") {
		return fmt.Errorf("health path cannot contain path traversal (..) sequences")
	}
	if !healthPathRegex.MatchString(path) {
		return fmt.Errorf("health path contains invalid characters")
	}
	return nil
}

// ValidateLogTail validates the --tail argument for docker logs
func ValidateLogTail(tail string) error {
	if tail == "" {
		return nil // Empty defaults to "100"
	}
	if !logTailRegex.MatchString(tail) {
		return fmt.Errorf("tail must be a positive integer or 'all'")
	}
	// Additional check: if numeric, ensure it's reasonable
	if tail != "all" {
		n, err := strconv.Atoi(tail)
		if err != nil {
			return fmt.Errorf("invalid tail value: %w", err)
		}
		if n < 0 {
			return fmt.Errorf("tail cannot be negative")
		}
		if n > 100000 {
			return fmt.Errorf("tail value too large (max 100000)")
		}
	}
	return nil
}

// ValidateLogSince validates the --since argument for docker logs
func ValidateLogSince(since string) error {
	if since == "" {
		return nil // Empty means no --since filter
	}
	if len(since) > 64 {
		return fmt.Errorf("since value too long")
	}
	if !logSinceRegex.MatchString(since) {
		return fmt.Errorf("since must be a duration (e.g., '2h', '30m') or timestamp (e.g., '2024-01-15')")
	}
	return nil
}

// ValidateEnvKey validates an environment variable key
func ValidateEnvKey(key string) error {
	if key == "" {
		return fmt.Errorf("environment variable key cannot be empty")
	}
	if len(key) > 256 {
		return fmt.Errorf("environment variable key too long (max 256 characters)")
	}
	if !envKeyRegex.MatchString(key) {
		return fmt.Errorf("environment variable key must start with a letter or underscore, followed by letters, numbers, or underscores")
	}
	return nil
}

// ValidateContainerCommand validates a command to be executed in a container.
// This function checks for common shell injection patterns; occ arguments and
// service commands pass through here before reaching docker compose exec.
func ValidateContainerCommand(command string) error {
	if command == "" {
		return fmt.Errorf("command cannot be empty")
	}

	// Check for dangerous shell metacharacters in suspicious contexts
	dangerousPatterns := []string{
		";",  // Command separator
		"&&", // Command chaining
		"||", // Command chaining
		"|",  // Pipe
		"`",  // Command substitution
		"$(", // Command substitution
		"${", // Variable expansion (could be dangerous)
		">",  // Redirect
		"<",  // Redirect
		"\n", // Newline (command injection)
		"\r", // Carriage return
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(command, pattern) {
			return fmt.Errorf("command contains potentially dangerous character sequence: %q", pattern)
		}
	}

	return nil
}

// ValidateArtifactPath validates a relative artifact path inside a release.
// Artifact paths must be relative and free of parent traversal.
func ValidateArtifactPath(path string) error {
	if path == "" {
		return fmt.Errorf("artifact path cannot be empty")
	}

	// Must be relative (no leading /)
	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("artifact path must be a relative path, got: %s", path)
	}

	// No parent traversal
	if strings.Contains(path, "..") {
		return fmt.Errorf("artifact path cannot contain path traversal (..): %s", path)
	}

	// Only safe characters
	if !artifactPathRegex.MatchString(path) {
		return fmt.Errorf("artifact path contains invalid characters: %s", path)
	}

	return nil
}

// ShellEscape escapes a string for safe use in shell commands by wrapping it
// in single quotes and escaping any internal single quotes using the POSIX
// pattern: ' → '\''
func ShellEscape(s string) string {
	// Replace single quotes with the POSIX escape sequence: end quote, escaped quote, start quote
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// SanitizeCommandForLog masks sensitive values in commands before logging.
// This prevents secrets from leaking into verbose output or log files.
func SanitizeCommandForLog(cmd string) string {
	result := cmd

	// Mask sensitive environment variable values
	for _, pattern := range sensitiveLogPatterns {
		searchFrom := 0
		for {
			idx := strings.Index(result[searchFrom:], pattern)
			if idx == -1 {
				break
			}
			absIdx := searchFrom + idx
			// Find the end of the value (next space or end of string)
			valueStart := absIdx + len(pattern)
			valueEnd := findValueEnd(result, valueStart)
			masked := "****"
			result = result[:valueStart] + masked + result[valueEnd:]
			// Advance past the replacement to avoid infinite loop
			searchFrom = valueStart + len(masked)
		}
	}

	// Mask -p<password> pattern (MariaDB client password flag)
	result = maskDBPasswordFlag(result)

	return result
}

// findValueEnd finds where a shell value ends (handles quoted and unquoted values)
func findValueEnd(s string, start int) int {
	if start >= len(s) {
		return start
	}

	// Handle single-quoted value
	if s[start] == '\'' {
		end := strings.Index(s[start+1:], "'")
		if end == -1 {
			return len(s)
		}
		return start + end + 2
	}

	// Handle double-quoted value
	if s[start] == '"' {
		end := strings.Index(s[start+1:], "\"")
		if end == -1 {
			return len(s)
		}
		return start + end + 2
	}

	// Unquoted: find next whitespace
	for i := start; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' || s[i] == '\n' {
			return i
		}
	}
	return len(s)
}

// maskDBPasswordFlag masks -p<password> patterns in commands
func maskDBPasswordFlag(cmd string) string {
	// Match -p followed by non-space characters (the password)
	result := cmd
	for {
		idx := strings.Index(result, "-p")
		if idx == -1 {
			break
		}
		// Check it's actually a password flag, not -port or similar
		afterP := idx + 2
		if afterP >= len(result) {
			break
		}
		// -p followed by a space means separate argument, skip
		if result[afterP] == ' ' || result[afterP] == '-' {
			// Move past this -p to avoid infinite loop
			nextSpace := strings.IndexByte(result[afterP:], ' ')
			if nextSpace == -1 {
				break
			}
			idx = afterP + nextSpace
			continue
		}
		// Find end of password value
		valueEnd := afterP
		for valueEnd < len(result) && result[valueEnd] != ' ' && result[valueEnd] != '\t' {
			valueEnd++
		}
		result = result[:afterP] + "****" + result[valueEnd:]
		break // Only mask the first occurrence to avoid infinite loops
	}
	return result
}
