package deploy

import (
	"context"
	"strings"
	"testing"

	"github.com/wechange-eg/cloudctl/internal/ssh"
)

func TestOccCommand(t *testing.T) {
	cmd := OccCommand("wechange", "/srv/cloud/wechange/current", "status", "--output=json")

	for _, part := range []string{
		"cd '/srv/cloud/wechange/current'",
		"docker compose -p 'wechange'",
		"exec -T -u www-data app php occ",
		"'status' '--output=json'",
	} {
		if !strings.Contains(cmd, part) {
			t.Errorf("command missing %q: %s", part, cmd)
		}
	}
}

func TestOccCommand_EscapesArguments(t *testing.T) {
	cmd := OccCommand("wechange", "/srv/cloud/wechange/current", "config:system:set", "foo; rm -rf /")

	if !strings.Contains(cmd, "'foo; rm -rf /'") {
		t.Errorf("argument not escaped: %s", cmd)
	}
}

func TestCheckUpgrade_ParsesStatus(t *testing.T) {
	mock := &ssh.MockExecutor{
		ExecFunc: func(ctx context.Context, command string) (*ssh.ExecResult, error) {
			return &ssh.ExecResult{
				Stdout: `{"installed":true,"version":"28.0.1.1","versionstring":"28.0.1","maintenance":false,"needsDbUpgrade":true}`,
			}, nil
		},
	}

	status, err := CheckUpgrade(context.Background(), mock, "wechange", "/srv/cloud/wechange/releases/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !status.NeedsDbUpgrade {
		t.Error("expected needsDbUpgrade=true")
	}
	if status.VersionString != "28.0.1" {
		t.Errorf("version = %q", status.VersionString)
	}
}

func TestCheckUpgrade_SkipsUpgradeHintLines(t *testing.T) {
	// occ prefixes the JSON with hint lines while an upgrade is pending
	output := "Nextcloud or one of the apps require upgrade - only a limited number of commands are available\n" +
		"You may use your browser or the occ upgrade command to do the upgrade\n" +
		`{"installed":true,"maintenance":false,"needsDbUpgrade":true}`

	mock := &ssh.MockExecutor{
		ExecFunc: func(ctx context.Context, command string) (*ssh.ExecResult, error) {
			return &ssh.ExecResult{Stdout: output}, nil
		},
	}

	status, err := CheckUpgrade(context.Background(), mock, "wechange", "/srv/cloud/wechange/releases/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.NeedsDbUpgrade {
		t.Error("expected needsDbUpgrade=true")
	}
}

func TestCheckUpgrade_CommandFailure(t *testing.T) {
	mock := &ssh.MockExecutor{
		ExecFunc: func(ctx context.Context, command string) (*ssh.ExecResult, error) {
			return &ssh.ExecResult{Stderr: "service \"app\" is not running", ExitCode: 1}, nil
		},
	}

	_, err := CheckUpgrade(context.Background(), mock, "wechange", "/srv/cloud/wechange/releases/x")
	if err == nil || !strings.Contains(err.Error(), "occ status failed") {
		t.Errorf("expected occ status error, got %v", err)
	}
}

func TestRunUpgrade(t *testing.T) {
	mock := &ssh.MockExecutor{}

	if err := RunUpgrade(context.Background(), mock, "wechange", "/srv/cloud/wechange/releases/x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.Commands) != 1 || !strings.Contains(mock.Commands[0], "php occ 'upgrade'") {
		t.Errorf("commands = %v", mock.Commands)
	}
}

func TestFormatUpgradeWarning(t *testing.T) {
	msg := FormatUpgradeWarning(&InstanceStatus{
		VersionString: "28.0.1",
		Maintenance:   true,
	})

	for _, part := range []string{"28.0.1", "maintenance", "--auto-upgrade", "cloudctl occ"} {
		if !strings.Contains(msg, part) {
			t.Errorf("warning missing %q:\n%s", part, msg)
		}
	}
}
