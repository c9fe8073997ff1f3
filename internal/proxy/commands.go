// Package proxy builds the remote commands that manage the nginx reverse
// proxy of a deployed stack: config verification, zero-downtime reload, and
// TLS certificate handling in the proxy-certs volume.
package proxy

import (
	"fmt"

	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/security"
)

// CertVolumeName returns the compose-prefixed named volume holding the certs.
func CertVolumeName(site string) string {
	return site + "_proxy-certs"
}

// VerifyCommands returns SSH commands that syntax-check the proxy config
// inside the running container.
func VerifyCommands(site string) []string {
	return []string{
		fmt.Sprintf(`docker compose -p %s exec -T %s nginx -t`,
			security.ShellEscape(site), constants.ServiceProxy),
	}
}

// ReloadCommands returns SSH commands for a zero-downtime config reload.
// The config is verified first so a broken file never takes the proxy down.
func ReloadCommands(site string) []string {
	escaped := security.ShellEscape(site)
	return []string{
		fmt.Sprintf(`docker compose -p %s exec -T %s nginx -t && docker compose -p %s exec -T %s nginx -s reload && echo "proxy config reloaded"`,
			escaped, constants.ServiceProxy, escaped, constants.ServiceProxy),
	}
}

// ReloadCommandsFallback returns the restart command used when graceful
// reload fails (brief downtime, last resort).
func ReloadCommandsFallback(site string) []string {
	return []string{
		fmt.Sprintf(`docker compose -p %s restart %s`,
			security.ShellEscape(site), constants.ServiceProxy),
	}
}

// HasCertCommand returns a probe whose stdout is "present" when the cert
// volume already holds a certificate.
func HasCertCommand(site string) string {
	return fmt.Sprintf(`docker run --rm -v %s:/certs:ro alpine test -f /certs/fullchain.pem && echo present || true`,
		security.ShellEscape(CertVolumeName(site)))
}

// SelfSignedCertCommands bootstraps a self-signed certificate into the cert
// volume so the proxy can start before a real certificate is issued.
func SelfSignedCertCommands(site, domain string) []string {
	volume := security.ShellEscape(CertVolumeName(site))
	subject := security.ShellEscape("/CN=" + domain)
	return []string{
		fmt.Sprintf(`docker run --rm -v %s:/certs alpine/openssl req -x509 -nodes -days 365 -newkey rsa:2048 -keyout /certs/privkey.pem -out /certs/fullchain.pem -subj %s`,
			volume, subject),
	}
}

// InstallCertCommands copies an issued certificate (e.g. a certbot live
// directory on the host) into the cert volume and reloads the proxy.
func InstallCertCommands(site, sourceDir string) []string {
	volume := security.ShellEscape(CertVolumeName(site))
	source := security.ShellEscape(sourceDir)
	commands := []string{
		fmt.Sprintf(`docker run --rm -v %s:/certs -v %s:/src:ro alpine sh -c 'cp -L /src/fullchain.pem /src/privkey.pem /certs/'`,
			volume, source),
	}
	return append(commands, ReloadCommands(site)...)
}
