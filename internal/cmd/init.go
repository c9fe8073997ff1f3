package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/scanner"
	"github.com/wechange-eg/cloudctl/internal/security"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize cloudctl configuration",
	Long: `Inspects the project directory and creates a cloudctl.yaml
configuration file with detected settings.

This command will:
- Detect an existing docker-compose.yml and its services
- Check which required secrets the .env file already sets
- Detect theme and certificate overlays
- Suggest a site name and public domain`,
	RunE: runInit,
}

var (
	initName   string
	initForce  bool
	initDomain string
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initName, "name", "n", "", "Site name (default: directory name)")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing configuration")
	initCmd.Flags().StringVarP(&initDomain, "domain", "d", "", "Public domain of the site (e.g., cloud.example.org)")
}

func runInit(cmd *cobra.Command, args []string) error {
	// Check if config already exists
	if config.ProjectConfigExists(GetConfigFile()) && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", config.ProjectConfigFile)
	}

	PrintInfo("Inspecting project...")

	result := scanner.New(".").Scan()
	printScanSummary(result)

	// Determine site name and domain, flags win over detection
	name := initName
	if name == "" {
		name = result.SuggestedName
	}
	domain := initDomain
	if domain == "" {
		domain = result.SuggestedDomain
	}

	if IsInteractive() {
		name = PromptString("Site name", name)
		domain = PromptString("Public domain", domain)
	}

	if name == "" {
		return fmt.Errorf("no site name detected (use --name)")
	}
	if err := security.ValidateSiteSlug(name); err != nil {
		return fmt.Errorf("invalid site name: %w", err)
	}
	if domain == "" {
		return fmt.Errorf("no public domain detected (use --domain)")
	}
	if err := security.ValidateDomain(domain); err != nil {
		return fmt.Errorf("invalid domain: %w", err)
	}

	cfg := config.DefaultProjectConfig()
	cfg.Name = name
	cfg.Deploy.Domain = domain
	cfg.Sync.URL = "https://" + domain

	if errors := config.ValidateProjectConfig(cfg); errors.HasErrors() {
		return fmt.Errorf("configuration is invalid: %s", errors.Error())
	}

	if err := config.SaveProjectConfig(cfg, GetConfigFile()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	PrintSuccess("Created %s", config.ProjectConfigFile)
	printInitSummary(cfg)

	return nil
}

func printScanSummary(result *config.ScanResult) {
	if result.HasCompose {
		if len(result.ComposeServices) > 0 {
			PrintInfo("Found %s with services: %s",
				"docker-compose.yml", strings.Join(result.ComposeServices, ", "))
		} else {
			PrintInfo("Found docker-compose.yml")
		}
	}
	if result.HasEnvFile {
		if len(result.EnvKeys) > 0 {
			PrintInfo("Found .env with secrets: %s", strings.Join(result.EnvKeys, ", "))
		} else {
			PrintInfo("Found .env (no secrets set yet)")
		}
	}
	if result.HasTheme {
		PrintInfo("Found theme overlay (%d files)", result.ThemeFiles)
	}
	if result.HasCerts {
		PrintInfo("Found TLS certificates in certs/")
	}
}

func printInitSummary(cfg *config.ProjectConfig) {
	fmt.Println()
	fmt.Println("📋 Site Configuration:")
	fmt.Printf("   Name:        %s\n", cfg.Name)
	fmt.Printf("   Domain:      %s\n", cfg.Deploy.Domain)
	fmt.Printf("   Ports:       %d (http), %d (https)\n", cfg.Deploy.HTTPPort, cfg.Deploy.HTTPSPort)
	fmt.Printf("   Healthcheck: %s\n", cfg.Deploy.HealthcheckPath)
	if cfg.Sync.URL != "" {
		fmt.Printf("   Sync URL:    %s\n", cfg.Sync.URL)
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review cloudctl.yaml and adjust if needed")
	fmt.Println("  2. Run 'cloudctl generate' to render the stack artifacts")
	fmt.Println("  3. Run 'cloudctl dev up' to start the stack locally")
}
