package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/nextcloud"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Provision cloud users and groups from accounts.yml",
	Long: `Commands to push the account manifest into the cloud. The target
URL and admin user come from the sync section of cloudctl.yaml, the
admin password from CLOUDCTL_NC_ADMIN_PASSWORD.`,
}

var (
	syncFile   string
	syncDryRun bool
)

var syncUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Create missing users from the manifest",
	Long: `Creates every user of the manifest that does not exist in the
cloud yet. Existing users are never modified or removed.

Example:
  cloudctl sync users -f accounts.yml
  cloudctl sync users --dry-run`,
	RunE: runSyncUsers,
}

var syncGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Create groups, memberships and group folders",
	Long: `Creates the groups of the manifest, adds the listed members and
sets up a group folder per group. Membership is additive, nobody is
removed from a group.

Example:
  cloudctl sync groups -f accounts.yml
  cloudctl sync groups --dry-run`,
	RunE: runSyncGroups,
}

var syncPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cloud accounts the manifest no longer lists",
	Long: `Deletes every cloud user missing from the manifest and removes
manifest users from groups they no longer list. The admin user is never
touched. Deleting an account deletes its files, so a confirmation or
--force is required.

Example:
  cloudctl sync prune -f accounts.yml --dry-run
  cloudctl sync prune -f accounts.yml --force`,
	RunE: runSyncPrune,
}

var syncPruneForce bool

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncUsersCmd)
	syncCmd.AddCommand(syncGroupsCmd)
	syncCmd.AddCommand(syncPruneCmd)

	syncCmd.PersistentFlags().StringVarP(&syncFile, "file", "f", "accounts.yml", "Account manifest file")
	syncCmd.PersistentFlags().BoolVar(&syncDryRun, "dry-run", false, "Only report what would change")

	syncPruneCmd.Flags().BoolVar(&syncPruneForce, "force", false, "Delete without confirmation")
}

// newSyncer builds the provisioning client from the project config and
// loads the manifest.
func newSyncer() (*nextcloud.Syncer, *nextcloud.Manifest, error) {
	cfg, err := config.LoadProjectConfig(GetConfigFile())
	if err != nil {
		return nil, nil, err
	}
	if cfg.Sync.URL == "" {
		return nil, nil, fmt.Errorf("no sync URL configured (set sync.url in %s)", config.ProjectConfigFile)
	}

	password := os.Getenv("CLOUDCTL_NC_ADMIN_PASSWORD")
	if password == "" && !syncDryRun {
		return nil, nil, fmt.Errorf("CLOUDCTL_NC_ADMIN_PASSWORD is not set")
	}

	manifest, err := nextcloud.LoadManifest(syncFile)
	if err != nil {
		return nil, nil, err
	}

	client := nextcloud.NewClient(cfg.Sync.URL, cfg.Sync.AdminUser, password)
	syncer := nextcloud.NewSyncer(client, cfg.Sync.AdminUser, syncDryRun, os.Stdout)
	return syncer, manifest, nil
}

func runSyncUsers(cmd *cobra.Command, args []string) error {
	syncer, manifest, err := newSyncer()
	if err != nil {
		return err
	}

	result, err := syncer.SyncUsers(cmd.Context(), manifest)
	if err != nil {
		return err
	}

	PrintSuccess("%s", result.String())
	return nil
}

func runSyncGroups(cmd *cobra.Command, args []string) error {
	syncer, manifest, err := newSyncer()
	if err != nil {
		return err
	}

	result, err := syncer.SyncGroups(cmd.Context(), manifest)
	if err != nil {
		return err
	}

	PrintSuccess("%s", result.String())
	return nil
}

// newPruner builds the deprovisioning client. Unlike the additive sync,
// a prune dry run still reads from the API, so the password is always
// required.
func newPruner() (*nextcloud.Pruner, *nextcloud.Manifest, error) {
	cfg, err := config.LoadProjectConfig(GetConfigFile())
	if err != nil {
		return nil, nil, err
	}
	if cfg.Sync.URL == "" {
		return nil, nil, fmt.Errorf("no sync URL configured (set sync.url in %s)", config.ProjectConfigFile)
	}

	password := os.Getenv("CLOUDCTL_NC_ADMIN_PASSWORD")
	if password == "" {
		return nil, nil, fmt.Errorf("CLOUDCTL_NC_ADMIN_PASSWORD is not set")
	}

	manifest, err := nextcloud.LoadManifest(syncFile)
	if err != nil {
		return nil, nil, err
	}

	client := nextcloud.NewClient(cfg.Sync.URL, cfg.Sync.AdminUser, password)
	pruner := nextcloud.NewPruner(client, cfg.Sync.AdminUser, syncDryRun, os.Stdout)
	return pruner, manifest, nil
}

func runSyncPrune(cmd *cobra.Command, args []string) error {
	pruner, manifest, err := newPruner()
	if err != nil {
		return err
	}

	if !syncDryRun && !syncPruneForce && !IsYesMode() {
		if !IsInteractive() {
			PrintWarning("This deletes every cloud account missing from %s, including its files.", syncFile)
			PrintWarning("Use --force to confirm or --dry-run to preview.")
			return nil
		}
		if !PromptConfirm("Delete all cloud accounts missing from the manifest?") {
			PrintInfo("Aborted")
			return nil
		}
	}

	result, err := pruner.Prune(cmd.Context(), manifest)
	if err != nil {
		return err
	}

	PrintSuccess("%s", result.String())
	return nil
}
