package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/wechange-eg/cloudctl/internal/theme"
)

// Settings is the flat platform settings map pushed to the cloud at startup.
// The key set is closed: the platform reads exactly these keys, so a file
// with missing or unknown keys is rejected instead of silently ignored.
type Settings struct {
	SiteID                 int    `yaml:"site_id"`
	SiteName               string `yaml:"site_name"`
	Entity                 string `yaml:"entity"`
	Slogan                 string `yaml:"slogan"`
	Locale                 string `yaml:"locale"`
	PrimaryColor           string `yaml:"primary_color"`
	HomepageURL            string `yaml:"homepage_url"`
	ImprintURL             string `yaml:"imprint_url"`
	PrivacyURL             string `yaml:"privacy_url"`
	SupportEmail           string `yaml:"support_email"`
	CloudEnabled           bool   `yaml:"cloud_enabled"`
	DocumentEditingEnabled bool   `yaml:"document_editing_enabled"`
	UserSignupEnabled      bool   `yaml:"user_signup_enabled"`
}

// SettingKeys returns the agreed key set in canonical order.
func SettingKeys() []string {
	return []string{
		"site_id",
		"site_name",
		"entity",
		"slogan",
		"locale",
		"primary_color",
		"homepage_url",
		"imprint_url",
		"privacy_url",
		"support_email",
		"cloud_enabled",
		"document_editing_enabled",
		"user_signup_enabled",
	}
}

// DefaultSettings returns the agreed default values.
// Display strings come from the branding so the two never drift apart.
func DefaultSettings() Settings {
	th := theme.Default()
	return Settings{
		SiteID:                 1,
		SiteName:               th.Title(),
		Entity:                 th.Entity(),
		Slogan:                 th.Slogan(),
		Locale:                 "de",
		PrimaryColor:           th.PrimaryColor(),
		HomepageURL:            th.BaseURL(),
		ImprintURL:             th.ImprintURL(),
		PrivacyURL:             th.PrivacyURL(),
		SupportEmail:           "support@wechange.de",
		CloudEnabled:           true,
		DocumentEditingEnabled: true,
		UserSignupEnabled:      false,
	}
}

// CheckSettingKeys compares the keys of a YAML mapping node against the
// agreed set and returns the missing and unknown keys in stable order.
func CheckSettingKeys(node *yaml.Node) (missing, unknown []string, err error) {
	if node == nil {
		return SettingKeys(), nil, nil
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("site settings must be a mapping, got %s", nodeKindName(node.Kind))
	}

	present := make(map[string]bool, len(node.Content)/2)
	agreed := make(map[string]bool, len(SettingKeys()))
	for _, key := range SettingKeys() {
		agreed[key] = true
	}

	// Mapping nodes alternate key and value entries.
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		present[key] = true
		if !agreed[key] {
			unknown = append(unknown, key)
		}
	}
	for _, key := range SettingKeys() {
		if !present[key] {
			missing = append(missing, key)
		}
	}
	return missing, unknown, nil
}

// ValidateSettingKeys parses raw YAML holding the settings mapping and
// reports missing and unknown keys.
func ValidateSettingKeys(raw []byte) (missing, unknown []string, err error) {
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if node.Kind == 0 {
		// Empty document: every key is missing.
		return SettingKeys(), nil, nil
	}
	return CheckSettingKeys(&node)
}

func nodeKindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
