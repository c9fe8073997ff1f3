package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/deploy"
)

var occCmd = &cobra.Command{
	Use:   "occ <server> -- <args...>",
	Short: "Run occ inside the app container",
	Long: `Runs the occ administration tool inside the app container of the
site on a server. Everything after -- is passed to occ as is.

Example:
  cloudctl occ prod -- status
  cloudctl occ prod -- maintenance:mode --on
  cloudctl occ prod -- user:list`,
	Args: cobra.MinimumNArgs(2),
	RunE: runOcc,
}

func init() {
	rootCmd.AddCommand(occCmd)
}

func runOcc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	serverName := args[0]
	occArgs := args[1:]

	conn, err := ConnectToServer(serverName)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	site := conn.Project.Name
	command := deploy.OccCommand(site, constants.SiteCurrentPath(site), occArgs...)
	PrintVerboseCommand(command)

	if err := conn.Client.ExecStream(ctx, command); err != nil {
		return fmt.Errorf("occ failed: %w", err)
	}

	return nil
}
