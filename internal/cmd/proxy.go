package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wechange-eg/cloudctl/internal/proxy"
	"github.com/wechange-eg/cloudctl/internal/ssh"
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Manage the reverse proxy of a deployed site",
	Long: `Commands to verify and reload the nginx reverse proxy of the site
on a server and to equip it with TLS certificates.`,
}

var proxyVerifyCmd = &cobra.Command{
	Use:   "verify <server>",
	Short: "Syntax-check the proxy configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runProxyVerify,
}

var proxyReloadCmd = &cobra.Command{
	Use:   "reload <server>",
	Short: "Reload the proxy configuration without downtime",
	Long: `Verifies and gracefully reloads the proxy configuration. When the
graceful reload fails the proxy service is restarted instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runProxyReload,
}

var (
	proxySelfSigned bool
	proxyCertDir    string
)

var proxyCertsCmd = &cobra.Command{
	Use:   "certs <server>",
	Short: "Manage the TLS certificates of the proxy",
	Long: `Shows whether the cert volume holds a certificate. With
--self-signed a throwaway certificate is bootstrapped so the proxy can
start before a real one is issued; with --from-dir an issued
certificate (e.g. a certbot live directory on the server) is installed
and the proxy reloaded.

Example:
  cloudctl proxy certs prod
  cloudctl proxy certs prod --self-signed
  cloudctl proxy certs prod --from-dir /etc/letsencrypt/live/cloud.wechange.de`,
	Args: cobra.ExactArgs(1),
	RunE: runProxyCerts,
}

func init() {
	rootCmd.AddCommand(proxyCmd)
	proxyCmd.AddCommand(proxyVerifyCmd)
	proxyCmd.AddCommand(proxyReloadCmd)
	proxyCmd.AddCommand(proxyCertsCmd)

	proxyCertsCmd.Flags().BoolVar(&proxySelfSigned, "self-signed", false, "Bootstrap a self-signed certificate")
	proxyCertsCmd.Flags().StringVar(&proxyCertDir, "from-dir", "", "Install fullchain.pem and privkey.pem from this directory on the server")
}

// runProxyCommands executes the command list, echoing any output.
func runProxyCommands(ctx context.Context, client ssh.Executor, commands []string) error {
	for _, command := range commands {
		PrintVerboseCommand(command)
		result, err := client.Exec(ctx, command)
		if err != nil {
			return err
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("command failed: %s", strings.TrimSpace(result.Stderr))
		}
		if out := strings.TrimSpace(result.Stdout); out != "" {
			fmt.Println(out)
		}
	}
	return nil
}

func runProxyVerify(cmd *cobra.Command, args []string) error {
	conn, err := ConnectToServer(args[0])
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	if err := runProxyCommands(cmd.Context(), conn.Client, proxy.VerifyCommands(conn.Project.Name)); err != nil {
		return err
	}

	PrintSuccess("Proxy configuration is valid")
	return nil
}

func runProxyReload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	conn, err := ConnectToServer(args[0])
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	site := conn.Project.Name
	if err := runProxyCommands(ctx, conn.Client, proxy.ReloadCommands(site)); err != nil {
		PrintWarning("Graceful reload failed: %v", err)
		PrintInfo("Restarting the proxy service...")
		if err := runProxyCommands(ctx, conn.Client, proxy.ReloadCommandsFallback(site)); err != nil {
			return err
		}
	}

	PrintSuccess("Proxy reloaded")
	return nil
}

func runProxyCerts(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if proxySelfSigned && proxyCertDir != "" {
		return fmt.Errorf("--self-signed and --from-dir are mutually exclusive")
	}

	conn, err := ConnectToServer(args[0])
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	site := conn.Project.Name

	switch {
	case proxySelfSigned:
		// Never overwrite an issued certificate with a throwaway one
		result, err := conn.Client.Exec(ctx, proxy.HasCertCommand(site))
		if err != nil {
			return err
		}
		if strings.Contains(result.Stdout, "present") {
			return fmt.Errorf("the cert volume already holds a certificate")
		}

		if err := runProxyCommands(ctx, conn.Client, proxy.SelfSignedCertCommands(site, conn.Project.Deploy.Domain)); err != nil {
			return err
		}
		PrintSuccess("Bootstrapped a self-signed certificate for %s", conn.Project.Deploy.Domain)
		PrintWarning("Replace it with an issued certificate before going live")

	case proxyCertDir != "":
		if err := runProxyCommands(ctx, conn.Client, proxy.InstallCertCommands(site, proxyCertDir)); err != nil {
			return err
		}
		PrintSuccess("Installed certificate from %s", proxyCertDir)

	default:
		result, err := conn.Client.Exec(ctx, proxy.HasCertCommand(site))
		if err != nil {
			return err
		}
		if strings.Contains(result.Stdout, "present") {
			PrintSuccess("Certificate present in volume %s", proxy.CertVolumeName(site))
		} else {
			PrintWarning("No certificate in volume %s", proxy.CertVolumeName(site))
			PrintInfo("Bootstrap one with 'cloudctl proxy certs %s --self-signed'", args[0])
		}
	}

	return nil
}
