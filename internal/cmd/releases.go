package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/deploy"
)

var releasesCmd = &cobra.Command{
	Use:   "releases <server>",
	Short: "List the releases of the site on a server",
	Long: `Lists the release tags of the site on a server, newest first.
The release serving traffic is marked with an asterisk.`,
	Args: cobra.ExactArgs(1),
	RunE: runReleases,
}

func init() {
	rootCmd.AddCommand(releasesCmd)
}

func runReleases(cmd *cobra.Command, args []string) error {
	serverName := args[0]

	conn, err := ConnectToServer(serverName)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	releases, active, err := deploy.ListReleases(cmd.Context(), conn.Client, conn.Project.Name)
	if err != nil {
		return err
	}
	if len(releases) == 0 {
		PrintInfo("No releases of %s on %s yet", conn.Project.Name, serverName)
		return nil
	}

	fmt.Printf("Releases of %s on %s:\n", conn.Project.Name, serverName)
	for _, release := range releases {
		marker := "  "
		if release == active {
			marker = "* "
		}
		fmt.Printf("  %s%s\n", marker, release)
	}

	return nil
}
