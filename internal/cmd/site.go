package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/security"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Manage deployed sites",
	Long:  `Commands to list and manage deployed sites on servers.`,
}

var siteListCmd = &cobra.Command{
	Use:   "list <server>",
	Short: "List deployed sites",
	Args:  cobra.ExactArgs(1),
	RunE:  runSiteList,
}

var siteRemoveCmd = &cobra.Command{
	Use:   "remove <server> <site>",
	Short: "Remove a deployed site",
	Long: `Removes a deployed site from a server.

This command removes:
- The compose stack of the site
- The site directory with all releases and the shared secrets
- The data volumes (unless --keep-data)

Examples:
  cloudctl site remove prod wechange --force
  cloudctl site remove prod wechange --force --keep-data`,
	Args: cobra.ExactArgs(2),
	RunE: runSiteRemove,
}

var (
	siteRemoveForce    bool
	siteRemoveKeepData bool
)

func init() {
	rootCmd.AddCommand(siteCmd)
	siteCmd.AddCommand(siteListCmd)
	siteCmd.AddCommand(siteRemoveCmd)

	siteRemoveCmd.Flags().BoolVarP(&siteRemoveForce, "force", "f", false, "Force removal without confirmation")
	siteRemoveCmd.Flags().BoolVar(&siteRemoveKeepData, "keep-data", false, "Keep the data volumes")
}

func runSiteList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	serverName := args[0]

	conn, err := ConnectToServerNoProject(serverName)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	// List the site directories
	result, err := conn.Client.Exec(ctx, fmt.Sprintf("ls -1 %s 2>/dev/null", constants.BasePath))
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	sites := strings.TrimSpace(result.Stdout)
	if sites == "" {
		PrintInfo("No sites deployed on %s", serverName)
		return nil
	}

	fmt.Printf("Sites on %s:\n\n", serverName)

	for _, site := range strings.Split(sites, "\n") {
		if site == "" {
			continue
		}

		// Count running containers of the site
		running := "0"
		countCmd := fmt.Sprintf("docker ps --filter label=%s=%s --format '{{.Names}}' 2>/dev/null | wc -l",
			constants.SiteLabel, security.ShellEscape(site))
		if n, err := conn.Client.ExecWithOutput(ctx, countCmd); err == nil && n != "" {
			running = n
		}

		// Get current release
		release := "-"
		releaseCmd := fmt.Sprintf("readlink %s 2>/dev/null | xargs basename",
			security.ShellEscape(constants.SiteCurrentPath(site)))
		if r, err := conn.Client.ExecWithOutput(ctx, releaseCmd); err == nil && r != "" {
			release = r
		}

		fmt.Printf("  %s\n", site)
		fmt.Printf("    Running: %s/%d services\n", running, len(constants.ServiceNames()))
		fmt.Printf("    Release: %s\n", release)
		fmt.Println()
	}

	return nil
}

func runSiteRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	serverName := args[0]
	site := args[1]

	// Validate site name
	if err := security.ValidateSiteSlug(site); err != nil {
		return fmt.Errorf("invalid site name: %w", err)
	}

	if !siteRemoveForce && !IsYesMode() {
		if !IsInteractive() {
			if siteRemoveKeepData {
				PrintWarning("This will remove '%s' but keep the data volumes.", site)
			} else {
				PrintWarning("This will permanently remove '%s' and ALL its data (including the database).", site)
			}
			PrintWarning("Use --force to confirm removal.")
			PrintInfo("Tip: Use --keep-data to preserve the data volumes.")
			return nil
		}
		if !PromptConfirm(fmt.Sprintf("Permanently remove '%s' from %s?", site, serverName)) {
			PrintInfo("Aborted")
			return nil
		}
	}

	PrintInfo("Removing %s from %s...", site, serverName)

	conn, err := ConnectToServerNoProject(serverName)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	// Bring the stack down, with volumes unless --keep-data
	stopSiteStack(ctx, conn.Client, site, !siteRemoveKeepData)
	if siteRemoveKeepData {
		PrintInfo("Keeping data volumes (remove them with 'docker volume rm' manually)")
	}

	// Remove the site directory
	if err := conn.Client.RemoveDirectory(ctx, constants.SiteBasePath(site)); err != nil {
		return fmt.Errorf("failed to remove site directory: %w", err)
	}

	// Drop the site from the server registry
	if server, ok := conn.Global.Servers[serverName]; ok && server.Sites != nil {
		delete(server.Sites, site)
		conn.Global.Servers[serverName] = server
		if err := config.SaveGlobalConfig(conn.Global); err != nil {
			PrintVerbose("Could not update the global config: %v", err)
		}
	}

	if siteRemoveKeepData {
		PrintSuccess("Removed site '%s' (data volumes preserved)", site)
	} else {
		PrintSuccess("Removed site '%s' and all its data", site)
	}

	return nil
}
