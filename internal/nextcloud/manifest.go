package nextcloud

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the account export consumed by the sync commands.
type Manifest struct {
	Groups []ManifestGroup `yaml:"groups"`
	Users  []ManifestUser  `yaml:"users"`
}

// ManifestGroup is one platform group to mirror.
type ManifestGroup struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// ManifestUser is one platform account to mirror.
type ManifestUser struct {
	ID          string   `yaml:"id"`
	DisplayName string   `yaml:"display_name"`
	Email       string   `yaml:"email"`
	Groups      []string `yaml:"groups"`
}

// LoadManifest reads and validates an account manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Validate checks ids are present, unique, and memberships resolvable.
func (m *Manifest) Validate() error {
	groupIDs := make(map[string]bool, len(m.Groups))
	for i, group := range m.Groups {
		if group.ID == "" {
			return fmt.Errorf("manifest: group %d has no id", i)
		}
		if group.Name == "" {
			return fmt.Errorf("manifest: group %q has no name", group.ID)
		}
		if groupIDs[group.ID] {
			return fmt.Errorf("manifest: duplicate group id %q", group.ID)
		}
		groupIDs[group.ID] = true
	}

	userIDs := make(map[string]bool, len(m.Users))
	for i, user := range m.Users {
		if user.ID == "" {
			return fmt.Errorf("manifest: user %d has no id", i)
		}
		if userIDs[user.ID] {
			return fmt.Errorf("manifest: duplicate user id %q", user.ID)
		}
		userIDs[user.ID] = true

		for _, group := range user.Groups {
			if !groupIDs[group] {
				return fmt.Errorf("manifest: user %q references unknown group %q", user.ID, group)
			}
		}
	}

	return nil
}

// GroupMembers returns the user ids belonging to each group.
func (m *Manifest) GroupMembers() map[string][]string {
	members := make(map[string][]string, len(m.Groups))
	for _, group := range m.Groups {
		members[group.ID] = nil
	}
	for _, user := range m.Users {
		for _, group := range user.Groups {
			members[group] = append(members[group], user.ID)
		}
	}
	return members
}
