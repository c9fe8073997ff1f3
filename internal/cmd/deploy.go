package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/deploy"
)

var deployCmd = &cobra.Command{
	Use:   "deploy [server]",
	Short: "Deploy the site to a server",
	Long: `Uploads the generated artifacts as a new timestamped release,
starts the stack from it, waits for it to become healthy and then
switches the current symlink. On failure the previous release keeps
serving.

The server argument can be omitted when CLOUDCTL_SERVER is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeploy,
}

var (
	deployTag         string
	deployForce       bool
	deployAutoUpgrade bool
)

func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.Flags().StringVarP(&deployTag, "tag", "t", "", "Release tag (default: timestamp)")
	deployCmd.Flags().BoolVarP(&deployForce, "force", "f", false, "Deploy even when required secrets are missing")
	deployCmd.Flags().BoolVar(&deployAutoUpgrade, "auto-upgrade", false, "Run the database upgrade when the new release needs one")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	serverName := ""
	if len(args) > 0 {
		serverName = args[0]
	}
	if serverName == "" {
		serverName = os.Getenv("CLOUDCTL_SERVER")
	}
	if serverName == "" {
		return fmt.Errorf("no server given (pass a server name or set CLOUDCTL_SERVER)")
	}

	conn, err := ConnectToServer(serverName)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	PrintInfo("Deploying %s to %s...", conn.Project.Name, serverName)

	orch, err := deploy.NewOrchestrator(conn.Client, conn.Project, conn.Server)
	if err != nil {
		return err
	}
	if deployTag != "" {
		if err := orch.SetTag(deployTag); err != nil {
			return err
		}
	}
	orch.SetVerbose(IsVerbose())
	orch.SetForce(deployForce)
	orch.SetAutoUpgrade(deployAutoUpgrade)
	orch.OnMessage(func(msg string) { PrintInfo("%s", msg) })

	if err := orch.Deploy(cmd.Context(), deploy.DefaultArtifacts(".")); err != nil {
		return err
	}

	// Remember the site on this server for the site commands
	if err := conn.Global.RecordSite(serverName, conn.Project.Name, constants.SiteBasePath(conn.Project.Name)); err == nil {
		if err := config.SaveGlobalConfig(conn.Global); err != nil {
			PrintWarning("Could not record the site in the global config: %v", err)
		}
	}

	PrintSuccess("Deployed release %s", orch.Tag())
	PrintInfo("Your site is live at %s", siteURL(conn.Project))
	return nil
}

// siteURL builds the public URL of the site, leaving the port off for
// the standard HTTPS port.
func siteURL(cfg *config.ProjectConfig) string {
	if cfg.Deploy.HTTPSPort == 443 {
		return "https://" + cfg.Deploy.Domain
	}
	return fmt.Sprintf("https://%s:%d", cfg.Deploy.Domain, cfg.Deploy.HTTPSPort)
}
