package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/constants"
)

// Generator renders the deployable artifact set for a project:
// docker-compose.yml, the two nginx configs, and the .env secrets file.
type Generator struct {
	loader *TemplateLoader
	config *config.ProjectConfig
}

// NewGenerator creates a new artifact generator
func NewGenerator(cfg *config.ProjectConfig) *Generator {
	return &Generator{
		loader: NewTemplateLoader(),
		config: cfg,
	}
}

// ConfData holds data for the nginx config templates
type ConfData struct {
	Domain      string
	MaxBodySize string
	CertsPath   string
}

func (g *Generator) confData() ConfData {
	return ConfData{
		Domain:      g.config.Deploy.Domain,
		MaxBodySize: DefaultMaxBodySize,
		CertsPath:   CertsPath,
	}
}

// GenerateCompose renders docker-compose.yml
func (g *Generator) GenerateCompose() (string, error) {
	file, err := BuildComposeFile(g.config)
	if err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	return file.Marshal()
}

// GenerateProxyConf renders the reverse proxy nginx config
func (g *Generator) GenerateProxyConf() (string, error) {
	data := g.confData()
	if err := ValidateConfData(data); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	return g.loader.Execute("proxy.conf.tmpl", data)
}

// GenerateWebConf renders the PHP-FPM front nginx config
func (g *Generator) GenerateWebConf() (string, error) {
	data := g.confData()
	if err := ValidateConfData(data); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	return g.loader.Execute("web.conf.tmpl", data)
}

// WriteCompose writes docker-compose.yml into dir
func (g *Generator) WriteCompose(dir string) error {
	content, err := g.GenerateCompose()
	if err != nil {
		return fmt.Errorf("failed to generate %s: %w", constants.ComposeFile, err)
	}
	return writeArtifact(filepath.Join(dir, constants.ComposeFile), content, 0644)
}

// WriteProxyConf writes proxy/nginx.conf into dir
func (g *Generator) WriteProxyConf(dir string) error {
	content, err := g.GenerateProxyConf()
	if err != nil {
		return fmt.Errorf("failed to generate %s: %w", constants.ProxyConfFile, err)
	}
	return writeArtifact(filepath.Join(dir, constants.ProxyConfFile), content, 0644)
}

// WriteWebConf writes web/nginx.conf into dir
func (g *Generator) WriteWebConf(dir string) error {
	content, err := g.GenerateWebConf()
	if err != nil {
		return fmt.Errorf("failed to generate %s: %w", constants.WebConfFile, err)
	}
	return writeArtifact(filepath.Join(dir, constants.WebConfFile), content, 0644)
}

// EnsureEnvFile creates .env with fresh secrets when absent.
// An existing file is never overwritten; missing required keys are an error
// so secrets are only ever added by hand.
func (g *Generator) EnsureEnvFile(dir string) (bool, error) {
	path := filepath.Join(dir, constants.EnvFile)

	existing, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("failed to read %s: %w", constants.EnvFile, err)
		}

		content, err := BuildEnvFile()
		if err != nil {
			return false, err
		}
		if err := writeArtifact(path, content, 0600); err != nil {
			return false, err
		}
		return true, nil
	}

	if missing := MissingEnvKeys(ParseEnvFile(string(existing))); len(missing) > 0 {
		return false, fmt.Errorf("%s exists but lacks required keys: %s",
			constants.EnvFile, strings.Join(missing, ", "))
	}
	return false, nil
}

// WriteAll writes the complete artifact set into dir
func (g *Generator) WriteAll(dir string) error {
	if err := g.WriteCompose(dir); err != nil {
		return err
	}
	if err := g.WriteProxyConf(dir); err != nil {
		return err
	}
	if err := g.WriteWebConf(dir); err != nil {
		return err
	}
	_, err := g.EnsureEnvFile(dir)
	return err
}

// writeArtifact atomically writes content, creating parent directories.
func writeArtifact(path, content string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := renameio.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
