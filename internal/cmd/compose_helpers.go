package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/security"
	"github.com/wechange-eg/cloudctl/internal/ssh"
)

// composeCommand builds a docker compose invocation running in the current
// release directory of a site. Every argument is shell escaped; the caller
// validates service names and flag values beforehand.
func composeCommand(site string, args ...string) string {
	escaped := make([]string, len(args))
	for i, arg := range args {
		escaped[i] = security.ShellEscape(arg)
	}
	return fmt.Sprintf("cd %s && docker compose -p %s %s",
		security.ShellEscape(constants.SiteCurrentPath(site)),
		security.ShellEscape(site),
		strings.Join(escaped, " "))
}

// stopSiteStack brings the compose stack of a site down. It runs from the
// project name alone so it also cleans up when no release directory is
// left. Errors are logged, not returned.
func stopSiteStack(ctx context.Context, client ssh.Executor, site string, removeVolumes bool) {
	command := fmt.Sprintf("docker compose -p %s down --remove-orphans", security.ShellEscape(site))
	if removeVolumes {
		command += " --volumes"
	}

	PrintVerboseCommand(command)
	if _, err := client.Exec(ctx, command); err != nil {
		PrintVerbose("Failed to stop stack %s: %v", site, err)
	}
}
