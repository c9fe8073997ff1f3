package generator

import (
	"bytes"
	"fmt"

	"github.com/docker/go-connections/nat"
	"gopkg.in/yaml.v3"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/constants"
)

// ComposeFile is the model marshaled to docker-compose.yml
type ComposeFile struct {
	Name     string                    `yaml:"name"`
	Services map[string]ComposeService `yaml:"services"`
	Volumes  map[string]struct{}       `yaml:"volumes,omitempty"`
	Networks map[string]struct{}       `yaml:"networks,omitempty"`
}

// ComposeService is one service entry in the compose model
type ComposeService struct {
	Image       string               `yaml:"image"`
	Restart     string               `yaml:"restart,omitempty"`
	Command     string               `yaml:"command,omitempty"`
	Environment map[string]string    `yaml:"environment,omitempty"`
	Ports       []string             `yaml:"ports,omitempty"`
	Volumes     []string             `yaml:"volumes,omitempty"`
	DependsOn   map[string]DependsOn `yaml:"depends_on,omitempty"`
	Healthcheck *Healthcheck         `yaml:"healthcheck,omitempty"`
	Labels      map[string]string    `yaml:"labels,omitempty"`
	Networks    []string             `yaml:"networks,omitempty"`
}

// DependsOn expresses a startup dependency with a condition
type DependsOn struct {
	Condition string `yaml:"condition"`
}

// Healthcheck is the container-level health probe
type Healthcheck struct {
	Test        []string `yaml:"test,flow"`
	Interval    string   `yaml:"interval,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty"`
	Retries     int      `yaml:"retries,omitempty"`
	StartPeriod string   `yaml:"start_period,omitempty"`
}

// BuildComposeFile assembles the five-service stack model for a project
func BuildComposeFile(cfg *config.ProjectConfig) (*ComposeFile, error) {
	if err := ValidateComposeInput(cfg); err != nil {
		return nil, err
	}

	services := make(map[string]ComposeService, len(constants.ServiceNames()))
	for _, name := range constants.ServiceNames() {
		info, err := GetServiceInfo(name)
		if err != nil {
			return nil, err
		}
		services[name] = info.Build(cfg)
	}

	file := &ComposeFile{
		Name:     cfg.Name,
		Services: services,
		Volumes: map[string]struct{}{
			"db-data":     {},
			"app-data":    {},
			"proxy-certs": {},
		},
		Networks: map[string]struct{}{
			constants.NetworkName: {},
		},
	}

	if err := validatePortSpecs(file); err != nil {
		return nil, err
	}

	return file, nil
}

// validatePortSpecs checks every published port against the Docker port syntax
func validatePortSpecs(file *ComposeFile) error {
	for name, svc := range file.Services {
		for _, spec := range svc.Ports {
			if _, err := nat.ParsePortSpec(spec); err != nil {
				return fmt.Errorf("service %s: invalid port spec %q: %w", name, spec, err)
			}
		}
	}
	return nil
}

// Marshal renders the compose model as YAML
func (f *ComposeFile) Marshal() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return "", fmt.Errorf("failed to marshal compose file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize compose file: %w", err)
	}
	return buf.String(), nil
}
