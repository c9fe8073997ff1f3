package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/security"
)

var shellCmd = &cobra.Command{
	Use:   "shell <server> [service]",
	Short: "Open a shell on the server or in a service container",
	Long: `Opens an interactive shell session on the server. When a service is
given, the shell opens inside that service's container instead.

Examples:
  cloudctl shell prod
  cloudctl shell prod app
  cloudctl shell prod db --user root`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runShell,
}

var shellUser string

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().StringVarP(&shellUser, "user", "u", "", "User to run the container shell as")
}

func runShell(cmd *cobra.Command, args []string) error {
	serverName := args[0]

	// Host shell needs no project config
	if len(args) < 2 {
		conn, err := ConnectToServerNoProject(serverName)
		if err != nil {
			return err
		}
		defer conn.Client.Close()

		PrintInfo("Opening shell on %s (type 'exit' to leave)...", conn.Server.Host)
		return conn.Client.Shell()
	}

	service := args[1]
	if !constants.IsServiceName(service) {
		return fmt.Errorf("unknown service %q (services: %s)",
			service, strings.Join(constants.ServiceNames(), ", "))
	}

	if shellUser != "" {
		if err := security.ValidateUnixUser(shellUser); err != nil {
			return fmt.Errorf("invalid user: %w", err)
		}
	}

	conn, err := ConnectToServer(serverName)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	site := conn.Project.Name
	composeArgs := []string{"exec"}
	if shellUser != "" {
		composeArgs = append(composeArgs, "-u", shellUser)
	}
	composeArgs = append(composeArgs, service, "sh")

	remoteCmd := composeCommand(site, composeArgs...)
	PrintVerboseCommand(remoteCmd)
	PrintInfo("Opening shell in %s/%s (type 'exit' to leave)...", site, service)

	return conn.Client.ExecInteractive(remoteCmd)
}
