package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors holds multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ValidateProjectConfig validates the project configuration
func ValidateProjectConfig(config *ProjectConfig) ValidationErrors {
	var errors ValidationErrors

	if config.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "site name is required",
		})
	} else if !isValidSiteName(config.Name) {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "site name must contain only lowercase letters, numbers, and hyphens",
		})
	}

	errors = append(errors, ValidateSettings(&config.Site)...)

	if config.Deploy.Domain == "" {
		errors = append(errors, ValidationError{
			Field:   "deploy.domain",
			Message: "deploy domain is required",
		})
	} else if !isValidDomain(config.Deploy.Domain) {
		errors = append(errors, ValidationError{
			Field:   "deploy.domain",
			Message: "domain must be a lowercase hostname like cloud.example.org",
		})
	}

	if config.Deploy.HTTPPort < 1 || config.Deploy.HTTPPort > 65535 {
		errors = append(errors, ValidationError{
			Field:   "deploy.http_port",
			Message: "http_port must be between 1 and 65535",
		})
	}
	if config.Deploy.HTTPSPort < 1 || config.Deploy.HTTPSPort > 65535 {
		errors = append(errors, ValidationError{
			Field:   "deploy.https_port",
			Message: "https_port must be between 1 and 65535",
		})
	}

	if config.Deploy.KeepReleases < 0 {
		errors = append(errors, ValidationError{
			Field:   "deploy.keep_releases",
			Message: "keep_releases must be a positive number",
		})
	}

	if config.Sync.URL != "" && !isValidHTTPURL(config.Sync.URL) {
		errors = append(errors, ValidationError{
			Field:   "sync.url",
			Message: "sync url must start with http:// or https://",
		})
	}

	return errors
}

// ValidateSettings validates the platform settings values.
// Key-set completeness is checked separately at load time; this checks the
// values themselves.
func ValidateSettings(s *Settings) ValidationErrors {
	var errors ValidationErrors

	if s.SiteID < 1 {
		errors = append(errors, ValidationError{
			Field:   "site.site_id",
			Message: "site_id must be a positive number",
		})
	}
	if s.SiteName == "" {
		errors = append(errors, ValidationError{
			Field:   "site.site_name",
			Message: "site_name is required",
		})
	}
	if s.Entity == "" {
		errors = append(errors, ValidationError{
			Field:   "site.entity",
			Message: "entity is required",
		})
	}
	if !isValidLocale(s.Locale) {
		errors = append(errors, ValidationError{
			Field:   "site.locale",
			Message: "locale must be a two-letter language code (e.g. de, en)",
		})
	}
	if !isValidHexColor(s.PrimaryColor) {
		errors = append(errors, ValidationError{
			Field:   "site.primary_color",
			Message: "primary_color must be a hex color like #7ab143",
		})
	}
	for field, value := range map[string]string{
		"site.homepage_url": s.HomepageURL,
		"site.imprint_url":  s.ImprintURL,
		"site.privacy_url":  s.PrivacyURL,
	} {
		if !isValidHTTPURL(value) {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "must start with http:// or https://",
			})
		}
	}
	if !strings.Contains(s.SupportEmail, "@") {
		errors = append(errors, ValidationError{
			Field:   "site.support_email",
			Message: "support_email must be an email address",
		})
	}

	return errors
}

// ValidateServerConfig validates a server configuration
func ValidateServerConfig(config *ServerConfig) ValidationErrors {
	var errors ValidationErrors

	if config.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "host",
			Message: "server host is required",
		})
	}

	if config.User == "" {
		errors = append(errors, ValidationError{
			Field:   "user",
			Message: "server user is required",
		})
	}

	if config.Port < 1 || config.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "port",
			Message: "port must be between 1 and 65535",
		})
	}

	return errors
}

func isValidSiteName(name string) bool {
	matched, _ := regexp.MatchString(`^[a-z0-9][a-z0-9-]*[a-z0-9]$|^[a-z0-9]$`, name)
	return matched
}

func isValidDomain(domain string) bool {
	matched, _ := regexp.MatchString(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`, domain)
	return matched
}

func isValidHealthPath(path string) bool {
	if !strings.HasPrefix(path, "/") || strings.Contains(path, "..") {
		return false
	}
	matched, _ := regexp.MatchString(`^/([a-zA-Z0-9_.-]+(/[a-zA-Z0-9_.-]+)*)?$`, path)
	return matched
}

func isValidLocale(locale string) bool {
	matched, _ := regexp.MatchString(`^[a-z]{2}$`, locale)
	return matched
}

func isValidHexColor(color string) bool {
	matched, _ := regexp.MatchString(`^#[0-9a-fA-F]{6}$`, color)
	return matched
}

func isValidHTTPURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
