package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/deploy"
	"github.com/wechange-eg/cloudctl/internal/security"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <server> [release]",
	Short: "Switch back to a previous release",
	Long: `Points the current symlink back at a previous release and restarts
the stack from there. The shared secrets stay in place, only the
artifacts change.

If no release is specified, rolls back to the immediately previous release.

Example:
  cloudctl rollback prod                  # Rollback to previous
  cloudctl rollback prod 20260815143000   # Rollback to specific release`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRollback,
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	serverName := args[0]
	targetRelease := ""
	if len(args) > 1 {
		targetRelease = args[1]
	}

	// Validate release name if provided
	if targetRelease != "" {
		if err := security.ValidateRelease(targetRelease); err != nil {
			return fmt.Errorf("invalid release name: %w", err)
		}
	}

	conn, err := ConnectToServer(serverName)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	orch, err := deploy.NewOrchestrator(conn.Client, conn.Project, conn.Server)
	if err != nil {
		return err
	}
	orch.SetVerbose(IsVerbose())
	orch.OnMessage(func(msg string) { PrintInfo("%s", msg) })

	if err := orch.Rollback(cmd.Context(), targetRelease); err != nil {
		return err
	}

	PrintSuccess("Rollback finished")
	PrintInfo("Check the release list with 'cloudctl releases %s'", serverName)
	return nil
}
