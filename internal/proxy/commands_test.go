package proxy

import (
	"strings"
	"testing"
)

func TestCertVolumeName(t *testing.T) {
	if got := CertVolumeName("wechange"); got != "wechange_proxy-certs" {
		t.Errorf("CertVolumeName() = %q", got)
	}
}

func TestVerifyCommands(t *testing.T) {
	cmds := VerifyCommands("wechange")
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	for _, want := range []string{"docker compose -p 'wechange'", "exec -T proxy", "nginx -t"} {
		if !strings.Contains(cmds[0], want) {
			t.Errorf("verify command should contain %q: %s", want, cmds[0])
		}
	}
}

func TestReloadCommands_VerifiesBeforeReload(t *testing.T) {
	cmds := ReloadCommands("wechange")
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}

	cmd := cmds[0]
	testPos := strings.Index(cmd, "nginx -t")
	reloadPos := strings.Index(cmd, "nginx -s reload")
	if testPos == -1 || reloadPos == -1 {
		t.Fatalf("reload command incomplete: %s", cmd)
	}
	if testPos > reloadPos {
		t.Error("config check must run before reload")
	}
}

func TestReloadCommandsFallback(t *testing.T) {
	cmds := ReloadCommandsFallback("wechange")
	if len(cmds) != 1 || !strings.Contains(cmds[0], "restart proxy") {
		t.Errorf("unexpected fallback commands: %v", cmds)
	}
}

func TestHasCertCommand(t *testing.T) {
	cmd := HasCertCommand("wechange")
	for _, want := range []string{"wechange_proxy-certs", "fullchain.pem", "echo present"} {
		if !strings.Contains(cmd, want) {
			t.Errorf("probe command should contain %q: %s", want, cmd)
		}
	}
}

func TestSelfSignedCertCommands(t *testing.T) {
	cmds := SelfSignedCertCommands("wechange", "cloud.wechange.de")
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	for _, want := range []string{
		"wechange_proxy-certs",
		"alpine/openssl",
		"/certs/privkey.pem",
		"/certs/fullchain.pem",
		"/CN=cloud.wechange.de",
	} {
		if !strings.Contains(cmds[0], want) {
			t.Errorf("cert command should contain %q: %s", want, cmds[0])
		}
	}
}

func TestInstallCertCommands_EndsWithReload(t *testing.T) {
	cmds := InstallCertCommands("wechange", "/etc/letsencrypt/live/cloud.wechange.de")
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if !strings.Contains(cmds[0], "cp -L /src/fullchain.pem") {
		t.Errorf("first command should copy certs: %s", cmds[0])
	}
	if !strings.Contains(cmds[1], "nginx -s reload") {
		t.Errorf("last command should reload the proxy: %s", cmds[1])
	}
}

func TestCommands_EscapeSiteName(t *testing.T) {
	cmds := ReloadCommands("we'change")
	if strings.Contains(cmds[0], "-p we'change ") {
		t.Error("site name must be shell-escaped")
	}
}
