// Package scanner inspects a project directory for overlay artifacts
// before cloudctl init scaffolds a configuration into it.
package scanner

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/generator"
	"github.com/wechange-eg/cloudctl/internal/security"
)

// Scanner analyzes a project directory for existing overlay artifacts
type Scanner struct {
	projectPath string
}

// New creates a new Scanner for the given project path
func New(projectPath string) *Scanner {
	if projectPath == "" {
		projectPath = "."
	}
	return &Scanner{projectPath: projectPath}
}

// Scan inspects the directory and reports what is already there. Broken
// artifacts (an unparseable compose file, a malformed .env) are reported
// as present without detail; init decides what to do with them.
func (s *Scanner) Scan() *config.ScanResult {
	result := &config.ScanResult{}

	result.HasProjectConfig = s.hasFile(config.ProjectConfigFile)

	if s.hasFile(constants.ComposeFile) {
		result.HasCompose = true
		if info, err := s.parseComposeFile(); err == nil {
			result.ComposeServices = info.serviceNames()
			if info.Name != "" && security.ValidateSiteSlug(info.Name) == nil {
				result.SuggestedName = info.Name
			}
			result.SuggestedDomain = info.suggestedDomain()
		}
	}

	if s.hasFile(constants.EnvFile) {
		result.HasEnvFile = true
		result.EnvKeys = s.presentEnvKeys()
	}

	result.HasTheme, result.ThemeFiles = s.detectTheme()
	result.HasCerts = s.detectCerts()

	if result.SuggestedName == "" {
		result.SuggestedName = suggestNameFromPath(s.projectPath)
	}

	return result
}

// hasFile checks for a regular file relative to the project path
func (s *Scanner) hasFile(name string) bool {
	info, err := os.Stat(filepath.Join(s.projectPath, name))
	return err == nil && info.Mode().IsRegular()
}

// presentEnvKeys returns the required secret keys that carry a value in
// .env, in canonical order. An empty value counts as absent, matching the
// remote secrets check.
func (s *Scanner) presentEnvKeys() []string {
	data, err := os.ReadFile(filepath.Join(s.projectPath, constants.EnvFile))
	if err != nil {
		return nil
	}
	values := generator.ParseEnvFile(string(data))

	var present []string
	for _, key := range generator.RequiredEnvKeys {
		if values[key] != "" {
			present = append(present, key)
		}
	}
	return present
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// suggestNameFromPath derives a site slug from the directory name.
// Returns empty when the directory name cannot be turned into a valid slug.
func suggestNameFromPath(projectPath string) string {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return ""
	}

	slug := strings.ToLower(filepath.Base(abs))
	slug = slugCleaner.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if security.ValidateSiteSlug(slug) != nil {
		return ""
	}
	return slug
}
