package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/security"
)

// composeInfo is the subset of a docker-compose.yml the scanner cares
// about: the project name and, per service, the environment.
type composeInfo struct {
	Name     string                  `yaml:"name"`
	Services map[string]composeEntry `yaml:"services"`
}

type composeEntry struct {
	Image       string `yaml:"image"`
	Environment envMap `yaml:"environment"`
}

// envMap accepts both compose environment forms: the mapping form
// (KEY: value) and the list form (- KEY=value).
type envMap map[string]string

func (m *envMap) UnmarshalYAML(node *yaml.Node) error {
	result := make(map[string]string)

	switch node.Kind {
	case yaml.MappingNode:
		var plain map[string]string
		if err := node.Decode(&plain); err != nil {
			return err
		}
		result = plain
	case yaml.SequenceNode:
		var entries []string
		if err := node.Decode(&entries); err != nil {
			return err
		}
		for _, entry := range entries {
			key, value, _ := strings.Cut(entry, "=")
			result[key] = value
		}
	default:
		return fmt.Errorf("environment must be a mapping or a list")
	}

	*m = result
	return nil
}

// parseComposeFile reads and parses the compose file in the project path
func (s *Scanner) parseComposeFile() (*composeInfo, error) {
	data, err := os.ReadFile(filepath.Join(s.projectPath, constants.ComposeFile))
	if err != nil {
		return nil, err
	}

	var info composeInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", constants.ComposeFile, err)
	}
	return &info, nil
}

// serviceNames returns the service names with the known stack services in
// topology order first and anything else alphabetically after them.
func (i *composeInfo) serviceNames() []string {
	rank := make(map[string]int, len(constants.ServiceNames()))
	for idx, name := range constants.ServiceNames() {
		rank[name] = idx
	}

	names := make([]string, 0, len(i.Services))
	for name := range i.Services {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		ra, oka := rank[names[a]]
		rb, okb := rank[names[b]]
		if oka != okb {
			return oka
		}
		if oka && okb {
			return ra < rb
		}
		return names[a] < names[b]
	})
	return names
}

// suggestedDomain extracts the site domain from the app service
// environment. OVERWRITEHOST wins over NEXTCLOUD_TRUSTED_DOMAINS, which
// may list several space-separated hosts.
func (i *composeInfo) suggestedDomain() string {
	app, ok := i.Services[constants.ServiceApp]
	if !ok {
		return ""
	}

	candidates := []string{app.Environment["OVERWRITEHOST"]}
	if fields := strings.Fields(app.Environment["NEXTCLOUD_TRUSTED_DOMAINS"]); len(fields) > 0 {
		candidates = append(candidates, fields[0])
	}

	for _, candidate := range candidates {
		if candidate != "" && security.ValidateDomain(candidate) == nil {
			return candidate
		}
	}
	return ""
}
