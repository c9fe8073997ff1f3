package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/security"
	"github.com/wechange-eg/cloudctl/internal/ssh"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage deployment servers",
	Long:  `Commands to add, configure, and manage deployment servers.`,
}

var serverAddCmd = &cobra.Command{
	Use:   "add <name> <[user@]host>",
	Short: "Add a new server",
	Long: `Adds a new server to the global configuration. Without a user the
default user from the global configuration is used.

Example:
  cloudctl server add prod deploy@vps.example.org
  cloudctl server add staging staging.example.org --port 2222`,
	Args: cobra.ExactArgs(2),
	RunE: runServerAdd,
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured servers",
	RunE:  runServerList,
}

var serverStatusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show server status and system metrics",
	Long: `Displays comprehensive information about a server:
- Connection status and Docker version
- System metrics: CPU, Memory, Disk usage, Load average
- Deployed sites and their containers`,
	Args: cobra.ExactArgs(1),
	RunE: runServerStatus,
}

var serverRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a server",
	Args:  cobra.ExactArgs(1),
	RunE:  runServerRemove,
}

var serverSetCmd = &cobra.Command{
	Use:   "set <server> <key> <value>",
	Short: "Set a server configuration value",
	Long: `Sets a configuration value for a server.

Available keys:
  user  SSH user
  port  SSH port
  key   SSH private key path

Examples:
  cloudctl server set prod port 2222
  cloudctl server set staging key ~/.ssh/id_staging`,
	Args: cobra.ExactArgs(3),
	RunE: runServerSet,
}

var (
	serverPort    int
	serverKeyPath string
	skipSSHTest   bool
)

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.AddCommand(serverAddCmd)
	serverCmd.AddCommand(serverListCmd)
	serverCmd.AddCommand(serverStatusCmd)
	serverCmd.AddCommand(serverRemoveCmd)
	serverCmd.AddCommand(serverSetCmd)

	serverAddCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "SSH port (default 22)")
	serverAddCmd.Flags().StringVarP(&serverKeyPath, "key", "k", "", "SSH private key path")
	serverAddCmd.Flags().BoolVar(&skipSSHTest, "skip-test", false, "Skip SSH connection test")
}

func runServerAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	hostSpec := args[1]

	// Validate server name
	if err := security.ValidateServerName(name); err != nil {
		return fmt.Errorf("invalid server name: %w", err)
	}

	// Load global config
	globalCfg, err := config.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load global config: %w", err)
	}

	// Parse [user@]host, falling back to the configured default user
	user, host := globalCfg.DefaultUser, hostSpec
	if parts := strings.SplitN(hostSpec, "@", 2); len(parts) == 2 {
		user, host = parts[0], parts[1]
	}
	if user == "" {
		user = "deploy"
	}

	// Create server config
	serverCfg := config.ServerConfig{
		Name:    name,
		Host:    host,
		User:    user,
		Port:    serverPort,
		KeyPath: serverKeyPath,
	}

	// Add server (fills the default port)
	if err := globalCfg.AddServer(name, serverCfg); err != nil {
		return err
	}
	added, err := globalCfg.GetServer(name)
	if err != nil {
		return err
	}

	// Validate
	if errors := config.ValidateServerConfig(added); errors.HasErrors() {
		return fmt.Errorf("invalid server configuration: %w", errors)
	}

	// Save config
	if err := config.SaveGlobalConfig(globalCfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	PrintSuccess("Added server '%s' (%s@%s)", name, user, host)

	// Skip SSH test if requested
	if skipSSHTest {
		PrintInfo("Skipping SSH connection test (--skip-test)")
		printNextSteps(name)
		return nil
	}

	// Test SSH connection and configure key if needed
	if err := testAndConfigureSSH(name, added, globalCfg); err != nil {
		PrintWarning("SSH connection could not be established: %v", err)
		PrintInfo("You can test the connection manually with: ssh %s@%s -p %d", user, host, added.Port)
	}

	printNextSteps(name)
	return nil
}

func printNextSteps(name string) {
	fmt.Println()
	fmt.Println("Next step:")
	fmt.Printf("  Run 'cloudctl deploy %s' from your project directory\n", name)
}

// testAndConfigureSSH tests the SSH connection and tries alternative keys if needed
func testAndConfigureSSH(name string, serverCfg *config.ServerConfig, globalCfg *config.GlobalConfig) error {
	PrintInfo("Testing SSH connection...")

	// Try connection with current configuration
	client := ssh.NewClient(serverCfg.Host, serverCfg.User, serverCfg.Port, serverCfg.KeyPath)
	if err := client.Connect(); err == nil {
		client.Close()
		PrintSuccess("SSH connection successful")
		return nil
	}

	PrintWarning("Connection failed with default key")

	// Discover available SSH keys
	keys, err := ssh.DiscoverSSHKeys()
	if err != nil {
		return fmt.Errorf("failed to discover SSH keys: %w", err)
	}

	// Filter out encrypted keys and already tried key
	var availableKeys []ssh.SSHKeyInfo
	for _, key := range keys {
		if key.IsEncrypted {
			PrintVerbose("Skipping encrypted key: %s", key.Name)
			continue
		}
		if serverCfg.KeyPath != "" && key.Path == serverCfg.KeyPath {
			continue
		}
		availableKeys = append(availableKeys, key)
	}

	if len(availableKeys) == 0 {
		return fmt.Errorf("no SSH keys available to try")
	}

	// Try keys - either interactively or automatically
	var workingKey *ssh.SSHKeyInfo
	if IsInteractive() {
		workingKey = interactiveKeySelection(serverCfg, availableKeys)
	} else {
		workingKey = autoTryKeys(serverCfg, availableKeys)
	}

	if workingKey == nil {
		return fmt.Errorf("no working SSH key found")
	}

	// Update server config with working key
	serverCfg.KeyPath = workingKey.Path
	globalCfg.Servers[name] = *serverCfg

	if err := config.SaveGlobalConfig(globalCfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	PrintSuccess("Updated server config with key: %s", workingKey.Path)
	return nil
}

// interactiveKeySelection prompts the user to select an SSH key
func interactiveKeySelection(serverCfg *config.ServerConfig, keys []ssh.SSHKeyInfo) *ssh.SSHKeyInfo {
	options := make([]string, len(keys))
	for i, key := range keys {
		options[i] = fmt.Sprintf("%s (%s)", key.Name, key.Type)
	}

	fmt.Println()
	PrintInfo("Available SSH keys:")
	choice := PromptSelect("Select SSH key to use:", options)
	if choice < 0 {
		return nil
	}

	selectedKey := &keys[choice]
	PrintInfo("Testing with %s...", selectedKey.Path)

	err := ssh.TryConnect(serverCfg.Host, serverCfg.User, serverCfg.Port, selectedKey.Path)
	if err != nil {
		PrintError("Connection failed: %v", err)
		return nil
	}

	PrintSuccess("Connection successful!")
	return selectedKey
}

// autoTryKeys automatically tries available keys in order
func autoTryKeys(serverCfg *config.ServerConfig, keys []ssh.SSHKeyInfo) *ssh.SSHKeyInfo {
	PrintInfo("Trying available SSH keys automatically...")

	for _, key := range keys {
		PrintVerbose("Trying %s...", key.Name)
		err := ssh.TryConnect(serverCfg.Host, serverCfg.User, serverCfg.Port, key.Path)
		if err == nil {
			PrintSuccess("SSH connection successful with %s", key.Name)
			return &key
		}
	}

	return nil
}

func runServerList(cmd *cobra.Command, args []string) error {
	globalCfg, err := config.LoadGlobalConfig()
	if err != nil {
		return err
	}

	servers := globalCfg.ListServers()
	if len(servers) == 0 {
		PrintInfo("No servers configured")
		fmt.Println()
		fmt.Println("Add a server with:")
		fmt.Println("  cloudctl server add <name> <user@host>")
		return nil
	}

	fmt.Println("Configured servers:")
	fmt.Println()
	for _, name := range servers {
		server := globalCfg.Servers[name]
		fmt.Printf("  %s\n", name)
		fmt.Printf("    Host: %s@%s:%d\n", server.User, server.Host, server.Port)
		if server.KeyPath != "" {
			fmt.Printf("    Key:  %s\n", server.KeyPath)
		}
		if len(server.Sites) > 0 {
			sites := make([]string, 0, len(server.Sites))
			for site := range server.Sites {
				sites = append(sites, site)
			}
			fmt.Printf("    Sites: %s\n", strings.Join(sites, ", "))
		}
		fmt.Println()
	}

	return nil
}

func runServerStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name := args[0]

	conn, err := ConnectToServerNoProject(name)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	PrintSuccess("Connection: OK")

	// Check Docker
	result, _ := conn.Client.Exec(ctx, "docker --version")
	if result.ExitCode == 0 {
		PrintSuccess("Docker: %s", strings.TrimSpace(result.Stdout))
	} else {
		PrintWarning("Docker: Not installed")
	}

	// Check the compose plugin, deployments depend on it
	result, _ = conn.Client.Exec(ctx, "docker compose version --short 2>/dev/null")
	if result.ExitCode == 0 && strings.TrimSpace(result.Stdout) != "" {
		PrintSuccess("Compose: %s", strings.TrimSpace(result.Stdout))
	} else {
		PrintWarning("Compose: Not available")
	}

	// Check the base directory
	if exists, _ := conn.Client.DirectoryExists(ctx, constants.BasePath); exists {
		PrintSuccess("Base directory: %s", constants.BasePath)
	} else {
		PrintWarning("Base directory: %s not found (created on first deploy)", constants.BasePath)
	}

	// System resources
	fmt.Println()
	fmt.Println("System Resources:")

	// CPU usage
	result, _ = conn.Client.Exec(ctx, "top -bn1 | grep 'Cpu(s)' | awk '{print 100 - $8}' 2>/dev/null || echo 'N/A'")
	cpuUsage := strings.TrimSpace(result.Stdout)
	if cpuUsage != "" && cpuUsage != "N/A" {
		fmt.Printf("  CPU:    %s%% used\n", cpuUsage)
	}

	// Memory usage
	result, _ = conn.Client.Exec(ctx, "free -m | awk 'NR==2{printf \"%.1f/%.1fGB (%.0f%%)\", $3/1024, $2/1024, $3*100/$2}'")
	memUsage := strings.TrimSpace(result.Stdout)
	if memUsage != "" {
		fmt.Printf("  Memory: %s\n", memUsage)
	}

	// Disk usage
	result, _ = conn.Client.Exec(ctx, "df -h / | awk 'NR==2{printf \"%s/%s (%s)\", $3, $2, $5}'")
	diskUsage := strings.TrimSpace(result.Stdout)
	if diskUsage != "" {
		fmt.Printf("  Disk:   %s\n", diskUsage)
	}

	// Load average
	result, _ = conn.Client.Exec(ctx, "uptime | awk -F'load average:' '{print $2}' | xargs")
	loadAvg := strings.TrimSpace(result.Stdout)
	if loadAvg != "" {
		fmt.Printf("  Load:   %s\n", loadAvg)
	}

	// List deployed sites with their containers
	result, _ = conn.Client.Exec(ctx, fmt.Sprintf("ls -1 %s 2>/dev/null", constants.BasePath))
	sites := strings.TrimSpace(result.Stdout)
	if sites != "" {
		fmt.Println()
		fmt.Println("Deployed Sites:")
		fmt.Println()
		for _, site := range strings.Split(sites, "\n") {
			if site == "" {
				continue
			}
			fmt.Printf("  %s:\n", site)

			psCmd := fmt.Sprintf("docker ps --filter label=%s=%s --format '{{.Names}}\t{{.Status}}' 2>/dev/null",
				constants.SiteLabel, security.ShellEscape(site))
			result, _ = conn.Client.Exec(ctx, psCmd)
			containers := strings.TrimSpace(result.Stdout)
			if containers == "" {
				fmt.Printf("    not running\n")
				continue
			}
			for _, line := range strings.Split(containers, "\n") {
				parts := strings.SplitN(line, "\t", 2)
				if len(parts) == 2 {
					fmt.Printf("    %-24s %s\n", parts[0], parts[1])
				}
			}
		}
	}

	return nil
}

func runServerRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	// Validate server name
	if err := security.ValidateServerName(name); err != nil {
		return fmt.Errorf("invalid server name: %w", err)
	}

	globalCfg, err := config.LoadGlobalConfig()
	if err != nil {
		return err
	}

	if err := globalCfg.RemoveServer(name); err != nil {
		return err
	}

	if err := config.SaveGlobalConfig(globalCfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	PrintSuccess("Removed server '%s'", name)
	return nil
}

func runServerSet(cmd *cobra.Command, args []string) error {
	serverName := args[0]
	key := args[1]
	value := args[2]

	// Validate server name
	if err := security.ValidateServerName(serverName); err != nil {
		return fmt.Errorf("invalid server name: %w", err)
	}

	globalCfg, err := config.LoadGlobalConfig()
	if err != nil {
		return err
	}

	serverCfg, err := globalCfg.GetServer(serverName)
	if err != nil {
		return err
	}

	switch key {
	case "user":
		if err := security.ValidateUnixUser(value); err != nil {
			return fmt.Errorf("invalid user: %w", err)
		}
		serverCfg.User = value

	case "port":
		port, err := strconv.Atoi(value)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid port: must be between 1 and 65535")
		}
		serverCfg.Port = port

	case "key":
		serverCfg.KeyPath = value

	default:
		return fmt.Errorf("unknown configuration key: %s\n\nAvailable keys:\n  user  SSH user\n  port  SSH port\n  key   SSH private key path", key)
	}

	globalCfg.Servers[serverName] = *serverCfg
	if err := config.SaveGlobalConfig(globalCfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	PrintSuccess("Set %s=%s for server '%s'", key, value, serverName)
	return nil
}
