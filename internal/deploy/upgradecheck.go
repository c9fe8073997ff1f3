package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/security"
	"github.com/wechange-eg/cloudctl/internal/ssh"
)

// OccCommand builds an occ invocation inside the app container. Arguments
// are shell-escaped individually so passthrough args survive intact.
func OccCommand(project, releasePath string, args ...string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = security.ShellEscape(arg)
	}

	return fmt.Sprintf("cd %s && docker compose -p %s exec -T -u www-data %s php occ %s",
		security.ShellEscape(releasePath), security.ShellEscape(project),
		constants.ServiceApp, strings.Join(quoted, " "))
}

// CheckUpgrade runs `occ status` and reports whether the database needs an
// upgrade before the release can go live.
func CheckUpgrade(ctx context.Context, exec ssh.Executor, project, releasePath string) (*InstanceStatus, error) {
	result, err := exec.Exec(ctx, OccCommand(project, releasePath, "status", "--output=json"))
	if err != nil {
		return nil, fmt.Errorf("failed to run occ status: %w", err)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("occ status failed: %s", strings.TrimSpace(result.Stderr))
	}

	var status InstanceStatus
	if err := json.Unmarshal([]byte(extractJSON(result.Stdout)), &status); err != nil {
		return nil, fmt.Errorf("failed to parse occ status output: %w", err)
	}
	return &status, nil
}

// extractJSON skips the upgrade hint lines occ prints before the JSON
// while an upgrade is pending.
func extractJSON(output string) string {
	if idx := strings.Index(output, "{"); idx >= 0 {
		return output[idx:]
	}
	return output
}

// RunUpgrade executes the pending database upgrade.
func RunUpgrade(ctx context.Context, exec ssh.Executor, project, releasePath string) error {
	result, err := exec.Exec(ctx, OccCommand(project, releasePath, "upgrade"))
	if err != nil {
		return fmt.Errorf("failed to run occ upgrade: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("occ upgrade failed: %s", strings.TrimSpace(result.Stderr))
	}
	return nil
}

// FormatUpgradeWarning formats the pending-upgrade message for display
func FormatUpgradeWarning(status *InstanceStatus) string {
	var sb strings.Builder

	sb.WriteString("The instance needs a database upgrade before this release can serve traffic.\n\n")
	if status.VersionString != "" {
		sb.WriteString(fmt.Sprintf("   Version: %s\n", status.VersionString))
	}
	if status.Maintenance {
		sb.WriteString("   The instance is currently in maintenance mode.\n")
	}
	sb.WriteString("\n   Re-run with --auto-upgrade to run the upgrade during the deploy,\n")
	sb.WriteString("   or run it manually:\n\n")
	sb.WriteString("      cloudctl occ <server> -- upgrade\n\n")
	sb.WriteString("   Then deploy again.\n")

	return sb.String()
}
