package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectConfigFile is the default project config filename
	ProjectConfigFile = "cloudctl.yaml"
)

// LoadProjectConfig loads the project configuration from the given path.
// The site settings section is checked against the agreed key set: a file
// with missing or unknown settings keys is rejected.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	if path == "" {
		path = ProjectConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s (run 'cloudctl init' first)", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if site := findMappingValue(&doc, "site"); site != nil {
		missing, unknown, err := CheckSettingKeys(site)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 || len(unknown) > 0 {
			var parts []string
			if len(missing) > 0 {
				parts = append(parts, fmt.Sprintf("missing keys: %s", strings.Join(missing, ", ")))
			}
			if len(unknown) > 0 {
				parts = append(parts, fmt.Sprintf("unknown keys: %s", strings.Join(unknown, ", ")))
			}
			return nil, fmt.Errorf("invalid site settings: %s", strings.Join(parts, "; "))
		}
	}

	var config ProjectConfig
	if err := doc.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyProjectDefaults(&config)

	if errs := validateLoadedProjectConfig(&config); errs.HasErrors() {
		return nil, fmt.Errorf("invalid configuration: %s", errs.Error())
	}

	return &config, nil
}

// SaveProjectConfig saves the project configuration to the given path
func SaveProjectConfig(config *ProjectConfig, path string) error {
	if path == "" {
		path = ProjectConfigFile
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ProjectConfigExists checks if the project config file exists
func ProjectConfigExists(path string) bool {
	if path == "" {
		path = ProjectConfigFile
	}
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectConfig searches for the config file in current and parent directories
func FindProjectConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no %s found in current or parent directories", ProjectConfigFile)
}

// applyProjectDefaults fills zero fields with the agreed defaults.
func applyProjectDefaults(config *ProjectConfig) {
	if config.Deploy.HTTPPort == 0 {
		config.Deploy.HTTPPort = 8080
	}
	if config.Deploy.HTTPSPort == 0 {
		config.Deploy.HTTPSPort = 8443
	}
	if config.Deploy.HealthcheckPath == "" {
		config.Deploy.HealthcheckPath = "/status.php"
	}
	if config.Deploy.KeepReleases == 0 {
		config.Deploy.KeepReleases = 5
	}
	if config.Sync.AdminUser == "" {
		config.Sync.AdminUser = "admin"
	}
}

// validateLoadedProjectConfig rejects values that would end up in shell
// commands or generated configs. Full validation lives in ValidateProjectConfig;
// loading only blocks the dangerous cases.
func validateLoadedProjectConfig(config *ProjectConfig) ValidationErrors {
	var errors ValidationErrors

	if config.Name != "" && !isValidSiteName(config.Name) {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "site name must contain only lowercase letters, numbers, and hyphens",
		})
	}
	if config.Deploy.Domain != "" && !isValidDomain(config.Deploy.Domain) {
		errors = append(errors, ValidationError{
			Field:   "deploy.domain",
			Message: "domain must be a lowercase hostname like cloud.example.org",
		})
	}
	if config.Deploy.HealthcheckPath != "" && !isValidHealthPath(config.Deploy.HealthcheckPath) {
		errors = append(errors, ValidationError{
			Field:   "deploy.healthcheck_path",
			Message: "healthcheck path must be an absolute URL path without traversal",
		})
	}

	return errors
}

// findMappingValue returns the value node for a top-level mapping key.
func findMappingValue(doc *yaml.Node, key string) *yaml.Node {
	node := doc
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
