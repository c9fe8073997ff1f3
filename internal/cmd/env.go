package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/deploy"
	"github.com/wechange-eg/cloudctl/internal/generator"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage the shared secrets on servers",
	Long: `Commands to manage the shared/.env secrets file of the site on a
server. The file survives deployments; every release links it in.`,
}

var envCheckCmd = &cobra.Command{
	Use:   "check <server>",
	Short: "Check the secrets on a server",
	Long: `Checks whether every required secret is set in shared/.env on the
server.

Example:
  cloudctl env check prod`,
	Args: cobra.ExactArgs(1),
	RunE: runEnvCheck,
}

var envPushCmd = &cobra.Command{
	Use:   "push <server> [file]",
	Short: "Push the local secrets file to a server",
	Long: `Uploads a local .env file as shared/.env on the server. The upload
is rejected when required secrets are missing from the file.

Example:
  cloudctl env push prod
  cloudctl env push prod .env.prod`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runEnvPush,
}

var envPullCmd = &cobra.Command{
	Use:   "pull <server>",
	Short: "Pull the secrets file from a server",
	Long: `Downloads shared/.env from the server to a local backup file.

Example:
  cloudctl env pull prod`,
	Args: cobra.ExactArgs(1),
	RunE: runEnvPull,
}

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.AddCommand(envCheckCmd)
	envCmd.AddCommand(envPushCmd)
	envCmd.AddCommand(envPullCmd)
}

func runEnvCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	serverName := args[0]

	conn, err := ConnectToServer(serverName)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	check, err := deploy.CheckRemoteEnv(ctx, conn.Client, conn.Project.Name)
	if err != nil {
		return err
	}

	fmt.Printf("Secrets of %s on %s:\n\n", conn.Project.Name, serverName)
	for _, key := range check.Present {
		fmt.Printf("  ✅ %s\n", key)
	}
	for _, key := range check.Missing {
		fmt.Printf("  ❌ %s\n", key)
	}
	fmt.Println()

	if !check.Complete() {
		return fmt.Errorf("%s", deploy.FormatEnvCheckError(check.Missing, serverName))
	}

	PrintSuccess("All required secrets are set")
	return nil
}

func runEnvPush(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	serverName := args[0]
	localFile := constants.EnvFile
	if len(args) > 1 {
		localFile = args[1]
	}

	// Only .env files can be pushed, and only from the project directory
	if !strings.HasPrefix(filepath.Base(localFile), ".env") {
		return fmt.Errorf("only .env files can be pushed (got: %s)", filepath.Base(localFile))
	}
	absLocalFile, err := filepath.Abs(localFile)
	if err != nil {
		return fmt.Errorf("failed to resolve file path: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	if !strings.HasPrefix(absLocalFile, cwd+string(filepath.Separator)) {
		return fmt.Errorf("file must be within the project directory")
	}

	content, err := os.ReadFile(localFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localFile, err)
	}

	conn, err := ConnectToServer(serverName)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	if err := deploy.PushEnv(ctx, conn.Client, conn.Project.Name, string(content)); err != nil {
		return err
	}

	count := len(generator.ParseEnvFile(string(content)))
	PrintSuccess("Pushed %d variables from %s to %s", count, localFile, serverName)
	PrintInfo("The next deploy links the new secrets into the release")
	return nil
}

func runEnvPull(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	serverName := args[0]

	conn, err := ConnectToServer(serverName)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	content, err := deploy.PullEnv(ctx, conn.Client, conn.Project.Name)
	if err != nil {
		return err
	}

	localFile := fmt.Sprintf(".env.%s.backup", serverName)
	if err := os.WriteFile(localFile, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", localFile, err)
	}

	PrintSuccess("Pulled secrets to %s", localFile)
	PrintWarning("This file contains secrets - do not commit it!")
	return nil
}
