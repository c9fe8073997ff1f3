package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/security"
)

var logsCmd = &cobra.Command{
	Use:   "logs <server> [service]",
	Short: "Show service logs from a server",
	Long: `Displays logs of the stack on a server via docker compose.
Without a service argument all services are shown.

Example:
  cloudctl logs prod
  cloudctl logs prod app
  cloudctl logs prod db --tail 50
  cloudctl logs prod -f
  cloudctl logs prod app --since 2h`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runLogs,
}

var (
	logsFollow bool
	logsTail   string
	logsSince  string
)

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().StringVar(&logsTail, "tail", "100", "Number of lines to show")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since timestamp (e.g., 2h, 30m)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	serverName := args[0]
	service := ""
	if len(args) > 1 {
		service = args[1]
	}

	// Validate inputs
	if err := security.ValidateLogTail(logsTail); err != nil {
		return fmt.Errorf("invalid --tail value: %w", err)
	}
	if err := security.ValidateLogSince(logsSince); err != nil {
		return fmt.Errorf("invalid --since value: %w", err)
	}
	if service != "" && !constants.IsServiceName(service) {
		return fmt.Errorf("unknown service '%s' (one of: %s)",
			service, strings.Join(constants.ServiceNames(), ", "))
	}

	conn, err := ConnectToServer(serverName)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	composeArgs := []string{"logs", "--tail", logsTail}
	if logsSince != "" {
		composeArgs = append(composeArgs, "--since", logsSince)
	}
	if logsFollow {
		composeArgs = append(composeArgs, "--follow")
	}
	if service != "" {
		composeArgs = append(composeArgs, service)
	}

	logsCommand := composeCommand(conn.Project.Name, composeArgs...)
	PrintVerboseCommand(logsCommand)

	if err := conn.Client.ExecStream(ctx, logsCommand); err != nil {
		return fmt.Errorf("failed to get logs: %w", err)
	}

	return nil
}
