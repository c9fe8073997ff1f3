package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/docker"
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Manage the local stack",
	Long:  `Commands to run the generated stack on the local Docker daemon.`,
}

var devUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the local stack",
	Long:  `Starts the stack from the generated docker-compose.yml.`,
	RunE:  runDevUp,
}

var devDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop the local stack",
	Long:  `Stops and removes the local stack.`,
	RunE:  runDevDown,
}

var devLogsCmd = &cobra.Command{
	Use:   "logs [service]",
	Short: "Show local stack logs",
	Long:  `Shows logs of the local stack.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDevLogs,
}

var devRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the local stack",
	Long:  `Restarts the local stack.`,
	RunE:  runDevRestart,
}

var devStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the local stack",
	Long: `Shows the services of the local stack with their container state,
health and published ports. Talks to the Docker daemon directly.`,
	RunE: runDevStatus,
}

var (
	devDetach bool
	devFollow bool
	devTail   string
)

func init() {
	rootCmd.AddCommand(devCmd)
	devCmd.AddCommand(devUpCmd)
	devCmd.AddCommand(devDownCmd)
	devCmd.AddCommand(devLogsCmd)
	devCmd.AddCommand(devRestartCmd)
	devCmd.AddCommand(devStatusCmd)

	devUpCmd.Flags().BoolVarP(&devDetach, "detach", "d", true, "Run in background")

	devLogsCmd.Flags().BoolVarP(&devFollow, "follow", "f", true, "Follow log output")
	devLogsCmd.Flags().StringVar(&devTail, "tail", "100", "Number of lines to show")
}

func runDevUp(cmd *cobra.Command, args []string) error {
	if err := checkComposeFile(); err != nil {
		return err
	}

	PrintInfo("Starting the local stack...")

	composeArgs := []string{"compose", "up"}
	if devDetach {
		composeArgs = append(composeArgs, "-d")
	}

	if err := runDockerCompose(composeArgs...); err != nil {
		return err
	}

	if devDetach {
		PrintSuccess("Local stack started")
		fmt.Println()
		fmt.Printf("🌐 Cloud: https://localhost:%s\n", localHTTPSPort())
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  cloudctl dev status  - Show service state")
		fmt.Println("  cloudctl dev logs    - View logs")
		fmt.Println("  cloudctl dev down    - Stop the stack")
	}

	return nil
}

func runDevDown(cmd *cobra.Command, args []string) error {
	if err := checkComposeFile(); err != nil {
		return err
	}

	PrintInfo("Stopping the local stack...")

	if err := runDockerCompose("compose", "down"); err != nil {
		return err
	}

	PrintSuccess("Local stack stopped")
	return nil
}

func runDevLogs(cmd *cobra.Command, args []string) error {
	if err := checkComposeFile(); err != nil {
		return err
	}

	composeArgs := []string{"compose", "logs"}
	if devFollow {
		composeArgs = append(composeArgs, "-f")
	}
	composeArgs = append(composeArgs, "--tail", devTail)
	if len(args) > 0 {
		composeArgs = append(composeArgs, args[0])
	}

	return runDockerCompose(composeArgs...)
}

func runDevRestart(cmd *cobra.Command, args []string) error {
	if err := checkComposeFile(); err != nil {
		return err
	}

	PrintInfo("Restarting the local stack...")

	if err := runDockerCompose("compose", "restart"); err != nil {
		return err
	}

	PrintSuccess("Local stack restarted")
	return nil
}

func runDevStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadProjectConfig(GetConfigFile())
	if err != nil {
		return err
	}

	manager, err := docker.NewManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	ctx := cmd.Context()
	if err := manager.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon not reachable: %w", err)
	}

	rows, err := manager.SiteStatus(ctx, cfg.Name)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		PrintInfo("No containers of %s running (run 'cloudctl dev up')", cfg.Name)
		return nil
	}

	docker.WriteStatusTable(os.Stdout, rows)
	return nil
}

func checkComposeFile() error {
	if _, err := os.Stat(constants.ComposeFile); os.IsNotExist(err) {
		return fmt.Errorf("%s not found (run 'cloudctl generate' first)", constants.ComposeFile)
	}
	return nil
}

// localHTTPSPort reads the https port from the project config, falling
// back to the default when no config is present.
func localHTTPSPort() string {
	cfg, err := config.LoadProjectConfig(GetConfigFile())
	if err != nil {
		return constants.HTTPSPort
	}
	return fmt.Sprintf("%d", cfg.Deploy.HTTPSPort)
}

func runDockerCompose(args ...string) error {
	dockerCmd := exec.Command("docker", args...)
	dockerCmd.Stdout = os.Stdout
	dockerCmd.Stderr = os.Stderr
	dockerCmd.Stdin = os.Stdin

	if err := dockerCmd.Run(); err != nil {
		return fmt.Errorf("docker compose failed: %w", err)
	}

	return nil
}
