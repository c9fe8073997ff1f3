package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/constants"
)

var serviceCmd = &cobra.Command{
	Use:   "service <server> <status|restart|stop> [service]",
	Short: "Inspect or restart services on a server",
	Long: `Runs docker compose against the stack of the site on a server.

Actions:
  status    Show the state of the services
  restart   Restart one service or the whole stack
  stop      Stop one service or the whole stack

Example:
  cloudctl service prod status
  cloudctl service prod restart app
  cloudctl service prod stop office`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(serviceCmd)
}

func runService(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	serverName := args[0]
	action := args[1]
	service := ""
	if len(args) > 2 {
		service = args[2]
	}

	if service != "" && !constants.IsServiceName(service) {
		return fmt.Errorf("unknown service '%s' (one of: %s)",
			service, strings.Join(constants.ServiceNames(), ", "))
	}

	var composeArgs []string
	switch action {
	case "status":
		composeArgs = []string{"ps"}
	case "restart":
		composeArgs = []string{"restart"}
	case "stop":
		composeArgs = []string{"stop"}
	default:
		return fmt.Errorf("unknown action '%s' (one of: status, restart, stop)", action)
	}
	if service != "" {
		composeArgs = append(composeArgs, service)
	}

	conn, err := ConnectToServer(serverName)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	command := composeCommand(conn.Project.Name, composeArgs...)
	PrintVerboseCommand(command)

	if err := conn.Client.ExecStream(ctx, command); err != nil {
		return fmt.Errorf("failed to run %s: %w", action, err)
	}

	switch action {
	case "restart":
		if service != "" {
			PrintSuccess("Restarted %s", service)
		} else {
			PrintSuccess("Restarted the stack")
		}
	case "stop":
		if service != "" {
			PrintSuccess("Stopped %s", service)
		} else {
			PrintSuccess("Stopped the stack")
		}
	}

	return nil
}
