package config

import "github.com/wechange-eg/cloudctl/internal/constants"

// ProjectConfig represents the cloudctl.yaml configuration
type ProjectConfig struct {
	Name   string       `yaml:"name"`
	Site   Settings     `yaml:"site"`
	Deploy DeployConfig `yaml:"deploy,omitempty"`
	Sync   SyncConfig   `yaml:"sync,omitempty"`
}

// DeployConfig holds deployment configuration
type DeployConfig struct {
	Domain          string `yaml:"domain,omitempty"`
	HTTPPort        int    `yaml:"http_port,omitempty"`
	HTTPSPort       int    `yaml:"https_port,omitempty"`
	HealthcheckPath string `yaml:"healthcheck_path,omitempty"`
	KeepReleases    int    `yaml:"keep_releases,omitempty"`
}

// SyncConfig holds settings for the provisioning API of the running cloud
type SyncConfig struct {
	// URL is the externally reachable base URL of the cloud, e.g.
	// https://cloud.wechange.de
	URL       string `yaml:"url,omitempty"`
	AdminUser string `yaml:"admin_user,omitempty"`
}

// GlobalConfig represents the global ~/.config/cloudctl/config.yaml
type GlobalConfig struct {
	Servers     map[string]ServerConfig `yaml:"servers"`
	DefaultUser string                  `yaml:"default_user,omitempty"`
	DefaultPort int                     `yaml:"default_port,omitempty"`
}

// ServerConfig represents a configured server
type ServerConfig struct {
	Name    string            `yaml:"name,omitempty"`
	Host    string            `yaml:"host"`
	User    string            `yaml:"user"`
	Port    int               `yaml:"port,omitempty"`
	KeyPath string            `yaml:"key_path,omitempty"`
	Sites   map[string]string `yaml:"sites,omitempty"`
}

// ScanResult holds the result of scanning a directory for overlay artifacts
type ScanResult struct {
	HasProjectConfig bool
	HasCompose       bool
	ComposeServices  []string
	HasEnvFile       bool
	EnvKeys          []string
	HasTheme         bool
	ThemeFiles       int
	HasCerts         bool
	SuggestedName    string
	SuggestedDomain  string
}

// DefaultProjectConfig returns a default project configuration
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Site: DefaultSettings(),
		Deploy: DeployConfig{
			HTTPPort:        8080,
			HTTPSPort:       8443,
			HealthcheckPath: "/status.php",
			KeepReleases:    constants.DefaultKeepReleases,
		},
		Sync: SyncConfig{
			AdminUser: "admin",
		},
	}
}

// DefaultGlobalConfig returns a default global configuration
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Servers:     make(map[string]ServerConfig),
		DefaultUser: "deploy",
		DefaultPort: 22,
	}
}
