package generator

import (
	"fmt"
	"regexp"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/security"
)

var maxBodySizeRegex = regexp.MustCompile(`^[0-9]+[kKmMgG]?$`)

// ValidateComposeInput validates project config before compose generation.
func ValidateComposeInput(cfg *config.ProjectConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("compose input: name is required")
	}
	if err := security.ValidateSiteSlug(cfg.Name); err != nil {
		return fmt.Errorf("compose input: %w", err)
	}

	if cfg.Deploy.Domain == "" {
		return fmt.Errorf("compose input: deploy.domain is required")
	}
	if err := security.ValidateDomain(cfg.Deploy.Domain); err != nil {
		return fmt.Errorf("compose input: %w", err)
	}

	for _, port := range []int{cfg.Deploy.HTTPPort, cfg.Deploy.HTTPSPort} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("compose input: port %d out of range", port)
		}
	}

	for _, name := range []string{MariaDBImage, NextcloudImage, NginxImage, OnlyOfficeImage} {
		if err := security.ValidateImageRef(name); err != nil {
			return fmt.Errorf("compose input: %w", err)
		}
	}

	return nil
}

// ValidateConfData validates inputs before nginx config generation.
func ValidateConfData(data ConfData) error {
	if data.Domain == "" {
		return fmt.Errorf("conf data: domain is required")
	}
	if err := security.ValidateDomain(data.Domain); err != nil {
		return fmt.Errorf("conf data: %w", err)
	}

	if !maxBodySizeRegex.MatchString(data.MaxBodySize) {
		return fmt.Errorf("conf data: invalid max body size %q", data.MaxBodySize)
	}

	return nil
}
