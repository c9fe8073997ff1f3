package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/log"
	"github.com/wechange-eg/cloudctl/internal/security"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	verbose bool
	cfgFile string
	yesFlag bool // CI/CD: skip confirmations
)

var rootCmd = &cobra.Command{
	Use:   "cloudctl",
	Short: "Deploy and operate WECHANGE cloud sites",
	Long: `cloudctl deploys and operates the WECHANGE cloud stack. It inspects
your project, renders the compose and proxy artifacts and ships them
to a server as versioned releases.

Quick start:
  cloudctl init              # Initialize configuration
  cloudctl generate          # Render compose and nginx artifacts
  cloudctl dev up            # Start the stack locally
  cloudctl deploy prod       # Deploy the site to a server

Commands:
  init          Inspect the project and create cloudctl.yaml
  generate      Render docker-compose.yml and the nginx configs
  dev           Manage the local stack
  server        Configure deployment servers
  deploy        Deploy the site to a server
  rollback      Switch back to a previous release
  releases      List the releases of the site on a server
  logs          View service logs on a server
  service       Inspect or restart services on a server
  occ           Run occ inside the app container
  env           Manage the shared secrets on a server
  proxy         Verify, reload or equip the proxy with certificates
  sync          Provision cloud users and groups from accounts.yml
  site          Manage deployed sites on a server
  shell         Open a shell on a server
  theme         Show the platform branding

CI/CD Environment Variables:
  CLOUDCTL_SERVER               Default server name
  CLOUDCTL_SSH_KEY              SSH private key content
  CLOUDCTL_KNOWN_HOSTS          SSH known_hosts content
  CLOUDCTL_SKIP_HOST_KEY_CHECK  Skip host key verification (true/false)
  CLOUDCTL_NC_ADMIN_PASSWORD    Admin password for cloudctl sync`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		log.Configure(log.Config{Level: level})
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for documentation generation
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed logs")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: cloudctl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Skip confirmations (CI/CD mode)")

	rootCmd.SetVersionTemplate(`cloudctl {{.Version}}
`)
}

// IsVerbose returns true if verbose mode is enabled
func IsVerbose() bool {
	return verbose
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// IsYesMode returns true if --yes flag is set (CI/CD mode)
func IsYesMode() bool {
	return yesFlag
}

// PrintError prints a formatted error message
func PrintError(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "❌ "+msg+"\n", args...)
}

// PrintSuccess prints a success message
func PrintSuccess(msg string, args ...interface{}) {
	fmt.Printf("✅ "+msg+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(msg string, args ...interface{}) {
	fmt.Printf("ℹ️  "+msg+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(msg string, args ...interface{}) {
	fmt.Printf("⚠️  "+msg+"\n", args...)
}

// PrintVerbose prints a message only in verbose mode
func PrintVerbose(msg string, args ...interface{}) {
	if verbose {
		fmt.Printf("   "+msg+"\n", args...)
	}
}

// PrintVerboseCommand prints a command in verbose mode with sensitive values masked
func PrintVerboseCommand(command string) {
	if verbose {
		fmt.Printf("   Running: %s\n", security.SanitizeCommandForLog(command))
	}
}
