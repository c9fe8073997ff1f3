package constants

import (
	"path/filepath"
	"time"
)

// Base paths for cloudctl-managed sites on the server
const (
	BasePath = "/srv/cloud"
)

// Service names of the stack, in topology order
const (
	ServiceDB     = "db"
	ServiceApp    = "app"
	ServiceWeb    = "web"
	ServiceOffice = "office"
	ServiceProxy  = "proxy"
)

// Container configuration
const (
	NetworkName   = "cloud"
	HTTPPort      = "8080"
	HTTPSPort     = "8443"
	ServiceLabel  = "cloud.service"
	SiteLabel     = "cloud.site"
	ComposeFile   = "docker-compose.yml"
	EnvFile       = ".env"
	ProxyConfFile = "proxy/nginx.conf"
	WebConfFile   = "web/nginx.conf"
)

// Health check defaults
const (
	PreHealthSleep      = 5 * time.Second
	HealthCheckTimeout  = 30 * time.Second
	HealthCheckRetries  = 5
	HealthCheckInterval = 2 * time.Second
)

// Deployment defaults
const (
	DefaultKeepReleases = 5
)

// ServiceNames returns the five stack services in topology order.
func ServiceNames() []string {
	return []string{ServiceDB, ServiceApp, ServiceWeb, ServiceOffice, ServiceProxy}
}

// IsServiceName reports whether name is one of the stack services.
func IsServiceName(name string) bool {
	switch name {
	case ServiceDB, ServiceApp, ServiceWeb, ServiceOffice, ServiceProxy:
		return true
	}
	return false
}

// SiteBasePath returns the base path for a site on the server.
func SiteBasePath(slug string) string {
	return filepath.Join(BasePath, slug)
}

// SiteReleasePath returns the path for a specific release.
func SiteReleasePath(slug, tag string) string {
	return filepath.Join(BasePath, slug, "releases", tag)
}

// SiteReleasesPath returns the releases directory for a site.
func SiteReleasesPath(slug string) string {
	return filepath.Join(BasePath, slug, "releases")
}

// SiteCurrentPath returns the current symlink path for a site.
func SiteCurrentPath(slug string) string {
	return filepath.Join(BasePath, slug, "current")
}

// SiteSharedPath returns the shared directory path for a site.
func SiteSharedPath(slug string) string {
	return filepath.Join(BasePath, slug, "shared")
}

// SiteEnvFilePath returns the shared .env file path for a site.
func SiteEnvFilePath(slug string) string {
	return filepath.Join(BasePath, slug, "shared", EnvFile)
}
