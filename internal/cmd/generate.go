package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/generator"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render the stack artifacts",
	Long: `Renders the deployable artifact set based on cloudctl.yaml:
- docker-compose.yml (the five stack services)
- proxy/nginx.conf (TLS reverse proxy)
- web/nginx.conf (PHP-FPM front)
- .env (fresh secrets, only when absent)`,
	RunE: runGenerate,
}

var (
	generateCompose bool
	generateConf    bool
	generateAll     bool
)

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVar(&generateCompose, "compose", false, "Generate only docker-compose.yml")
	generateCmd.Flags().BoolVar(&generateConf, "conf", false, "Generate only the nginx configs")
	generateCmd.Flags().BoolVar(&generateAll, "all", false, "Generate all files")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadProjectConfig(GetConfigFile())
	if err != nil {
		return err
	}

	// Validate configuration
	if errors := config.ValidateProjectConfig(cfg); errors.HasErrors() {
		return fmt.Errorf("configuration validation failed: %w", errors)
	}

	all := generateAll || (!generateCompose && !generateConf)
	gen := generator.NewGenerator(cfg)

	if all || generateCompose {
		if err := gen.WriteCompose(""); err != nil {
			return err
		}
		PrintSuccess("Generated %s", constants.ComposeFile)
	}

	if all || generateConf {
		if err := gen.WriteProxyConf(""); err != nil {
			return err
		}
		PrintSuccess("Generated %s", constants.ProxyConfFile)

		if err := gen.WriteWebConf(""); err != nil {
			return err
		}
		PrintSuccess("Generated %s", constants.WebConfFile)
	}

	if all {
		created, err := gen.EnsureEnvFile("")
		if err != nil {
			return err
		}
		if created {
			PrintSuccess("Generated %s with fresh secrets", constants.EnvFile)
		} else {
			PrintVerbose("%s already present, kept as is", constants.EnvFile)
		}
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  Run 'cloudctl dev up' to start the stack locally")

	return nil
}
