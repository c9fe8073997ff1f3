package deploy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/ssh"
)

// fakeConnection implements Connection on top of MockExecutor, recording
// file uploads alongside executed commands.
type fakeConnection struct {
	ssh.MockExecutor
	uploadedFiles   []string
	uploadedContent map[string]string
	uploadErr       error
}

func newFakeConnection() *fakeConnection {
	return &fakeConnection{uploadedContent: make(map[string]string)}
}

func (f *fakeConnection) UploadFile(ctx context.Context, localPath, remotePath string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploadedFiles = append(f.uploadedFiles, remotePath)
	return nil
}

func (f *fakeConnection) UploadContent(ctx context.Context, content, remotePath string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploadedContent[remotePath] = content
	return nil
}

// commandIndex returns the index of the first command containing substr.
func commandIndex(commands []string, substr string) int {
	for i, cmd := range commands {
		if strings.Contains(cmd, substr) {
			return i
		}
	}
	return -1
}

// healthyExec answers every remote probe the way a freshly deployed,
// healthy stack would.
func healthyExec(ctx context.Context, command string) (*ssh.ExecResult, error) {
	switch {
	case strings.Contains(command, "cat '/srv/cloud/wechange/shared/.env'"):
		return &ssh.ExecResult{Stdout: completeEnvContent}, nil
	case strings.Contains(command, "ps --services"):
		return &ssh.ExecResult{Stdout: allServicesRunning()}, nil
	case strings.Contains(command, "status.php"):
		return &ssh.ExecResult{Stdout: healthyStatusJSON}, nil
	case strings.Contains(command, "occ 'status'"):
		return &ssh.ExecResult{Stdout: healthyStatusJSON}, nil
	}
	return &ssh.ExecResult{}, nil
}

func testProjectConfig() *config.ProjectConfig {
	cfg := config.DefaultProjectConfig()
	cfg.Name = "wechange"
	cfg.Deploy.Domain = "cloud.wechange.de"
	return cfg
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{Name: "prod", Host: "203.0.113.10", User: "deploy", Port: 22}
}

func testArtifacts(t *testing.T) ArtifactSet {
	t.Helper()
	dir := t.TempDir()

	for _, f := range []struct{ path, content string }{
		{filepath.Join(dir, "docker-compose.yml"), "name: wechange\n"},
		{filepath.Join(dir, "proxy", "nginx.conf"), "server {}\n"},
		{filepath.Join(dir, "web", "nginx.conf"), "server {}\n"},
	} {
		if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
			t.Fatalf("failed to create artifact dir: %v", err)
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
			t.Fatalf("failed to write artifact: %v", err)
		}
	}

	return DefaultArtifacts(dir)
}

func newTestOrchestrator(t *testing.T, conn Connection) *Orchestrator {
	t.Helper()
	orch, err := NewOrchestrator(conn, testProjectConfig(), testServerConfig())
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	if err := orch.SetTag("20260825120000"); err != nil {
		t.Fatalf("failed to set tag: %v", err)
	}
	orch.SetHealthTiming(0, time.Second, 2, time.Millisecond)
	return orch
}

// ─── Deploy workflow ─────────────────────────────────────────────────────

func TestDeploy_FullWorkflow(t *testing.T) {
	conn := newFakeConnection()
	conn.ExecFunc = healthyExec

	orch := newTestOrchestrator(t, conn)
	if err := orch.Deploy(context.Background(), testArtifacts(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	releasePath := "/srv/cloud/wechange/releases/20260825120000"

	// All three artifacts land in the release directory
	if len(conn.uploadedFiles) != 3 {
		t.Fatalf("uploads = %v", conn.uploadedFiles)
	}
	for _, remote := range []string{
		releasePath + "/docker-compose.yml",
		releasePath + "/proxy/nginx.conf",
		releasePath + "/web/nginx.conf",
	} {
		found := false
		for _, uploaded := range conn.uploadedFiles {
			if uploaded == remote {
				found = true
			}
		}
		if !found {
			t.Errorf("missing upload %s in %v", remote, conn.uploadedFiles)
		}
	}

	// Phases run in order
	ordered := []string{
		"mkdir -p '/srv/cloud/wechange/releases/20260825120000'/proxy",
		"ln -sfn '/srv/cloud/wechange/shared/.env'",
		"docker compose -p 'wechange' pull --quiet",
		"docker compose -p 'wechange' up -d --remove-orphans",
		"status.php",
		"php occ 'status'",
		"ln -sfn '/srv/cloud/wechange/releases/20260825120000' '/srv/cloud/wechange/current'",
		"ls -1t | tail -n +6 | xargs -r rm -rf",
	}
	last := -1
	for _, substr := range ordered {
		idx := commandIndex(conn.Commands, substr)
		if idx < 0 {
			t.Fatalf("missing command %q in:\n%s", substr, strings.Join(conn.Commands, "\n"))
		}
		if idx < last {
			t.Errorf("command %q ran out of order", substr)
		}
		last = idx
	}
}

func TestDeploy_GeneratesTimestampTag(t *testing.T) {
	conn := newFakeConnection()
	conn.ExecFunc = healthyExec

	orch, err := NewOrchestrator(conn, testProjectConfig(), testServerConfig())
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	orch.SetHealthTiming(0, time.Second, 2, time.Millisecond)

	if err := orch.Deploy(context.Background(), testArtifacts(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tag := orch.Tag()
	if len(tag) != 14 {
		t.Errorf("expected YYYYMMDDHHMMSS tag, got %q", tag)
	}
	if _, err := time.Parse("20060102150405", tag); err != nil {
		t.Errorf("tag %q is not a timestamp: %v", tag, err)
	}
}

func TestDeploy_InvalidTagRejected(t *testing.T) {
	orch, err := NewOrchestrator(newFakeConnection(), testProjectConfig(), testServerConfig())
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}

	if err := orch.SetTag("../../../etc"); err == nil {
		t.Error("expected error for traversal tag")
	}
}

func TestDeploy_MissingArtifactsAborts(t *testing.T) {
	conn := newFakeConnection()
	orch := newTestOrchestrator(t, conn)

	err := orch.Deploy(context.Background(), DefaultArtifacts(t.TempDir()))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "cloudctl generate") {
		t.Errorf("error should point at generate: %v", err)
	}
	if len(conn.Commands) != 0 {
		t.Errorf("no remote commands expected, got %v", conn.Commands)
	}
}

func TestDeploy_MissingSecretsAborts(t *testing.T) {
	conn := newFakeConnection()
	conn.ExecFunc = func(ctx context.Context, command string) (*ssh.ExecResult, error) {
		if strings.Contains(command, "cat '/srv/cloud/wechange/shared/.env'") {
			return &ssh.ExecResult{Stdout: "DB_PASSWORD=aaa\n"}, nil
		}
		return healthyExec(ctx, command)
	}

	orch := newTestOrchestrator(t, conn)
	err := orch.Deploy(context.Background(), testArtifacts(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "OFFICE_JWT_SECRET") {
		t.Errorf("error should name missing secrets: %v", err)
	}
	if commandIndex(conn.Commands, "up -d") >= 0 {
		t.Error("stack must not start with incomplete secrets")
	}
}

func TestDeploy_ForceSkipsSecretsCheck(t *testing.T) {
	conn := newFakeConnection()
	conn.ExecFunc = func(ctx context.Context, command string) (*ssh.ExecResult, error) {
		if strings.Contains(command, "cat '/srv/cloud/wechange/shared/.env'") {
			return &ssh.ExecResult{Stdout: ""}, nil
		}
		return healthyExec(ctx, command)
	}

	orch := newTestOrchestrator(t, conn)
	orch.SetForce(true)

	if err := orch.Deploy(context.Background(), testArtifacts(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if commandIndex(conn.Commands, "up -d") < 0 {
		t.Error("stack should start with --force")
	}
}

func TestDeploy_FailedHealthRollsBack(t *testing.T) {
	conn := newFakeConnection()
	conn.ExecFunc = func(ctx context.Context, command string) (*ssh.ExecResult, error) {
		if strings.Contains(command, "status.php") {
			return &ssh.ExecResult{ExitCode: 7}, nil
		}
		return healthyExec(ctx, command)
	}

	orch := newTestOrchestrator(t, conn)
	err := orch.Deploy(context.Background(), testArtifacts(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "health check failed") {
		t.Errorf("unexpected error: %v", err)
	}

	// Previous release is restored, the new one never activated
	if commandIndex(conn.Commands, "if [ -L '/srv/cloud/wechange/current' ]") < 0 {
		t.Errorf("missing rollback command:\n%s", strings.Join(conn.Commands, "\n"))
	}
	if commandIndex(conn.Commands, "ln -sfn '/srv/cloud/wechange/releases/20260825120000' '/srv/cloud/wechange/current'") >= 0 {
		t.Error("failed release must not be activated")
	}
}

func TestDeploy_NeedsUpgradeWithoutFlagAborts(t *testing.T) {
	conn := newFakeConnection()
	conn.ExecFunc = func(ctx context.Context, command string) (*ssh.ExecResult, error) {
		if strings.Contains(command, "occ 'status'") {
			return &ssh.ExecResult{Stdout: `{"installed":true,"maintenance":false,"needsDbUpgrade":true}`}, nil
		}
		return healthyExec(ctx, command)
	}

	orch := newTestOrchestrator(t, conn)
	err := orch.Deploy(context.Background(), testArtifacts(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "--auto-upgrade") {
		t.Errorf("error should point at --auto-upgrade: %v", err)
	}
	if commandIndex(conn.Commands, "php occ 'upgrade'") >= 0 {
		t.Error("upgrade must not run without the flag")
	}
}

func TestDeploy_AutoUpgradeRuns(t *testing.T) {
	conn := newFakeConnection()
	conn.ExecFunc = func(ctx context.Context, command string) (*ssh.ExecResult, error) {
		if strings.Contains(command, "occ 'status'") {
			return &ssh.ExecResult{Stdout: `{"installed":true,"maintenance":false,"needsDbUpgrade":true}`}, nil
		}
		return healthyExec(ctx, command)
	}

	orch := newTestOrchestrator(t, conn)
	orch.SetAutoUpgrade(true)

	if err := orch.Deploy(context.Background(), testArtifacts(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	upgradeIdx := commandIndex(conn.Commands, "php occ 'upgrade'")
	activateIdx := commandIndex(conn.Commands, "ln -sfn '/srv/cloud/wechange/releases/20260825120000'")
	if upgradeIdx < 0 {
		t.Fatal("upgrade command missing")
	}
	if activateIdx < upgradeIdx {
		t.Error("upgrade must run before activation")
	}
}

func TestDeploy_ReportsMessages(t *testing.T) {
	conn := newFakeConnection()
	conn.ExecFunc = healthyExec

	orch := newTestOrchestrator(t, conn)
	var messages []string
	orch.OnMessage(func(msg string) { messages = append(messages, msg) })

	if err := orch.Deploy(context.Background(), testArtifacts(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join(messages, "\n")
	for _, part := range []string{"Preparing directories", "Uploading release", "Activating release", "Pruning old releases"} {
		if !strings.Contains(joined, part) {
			t.Errorf("missing message %q in %q", part, joined)
		}
	}
}

// ─── Rollback ────────────────────────────────────────────────────────────

func TestRollback_UsesPreviousRelease(t *testing.T) {
	conn := newFakeConnection()
	conn.ExecFunc = func(ctx context.Context, command string) (*ssh.ExecResult, error) {
		switch {
		case strings.Contains(command, "ls -1t"):
			return &ssh.ExecResult{Stdout: "20260825120000\n20260824110000\n"}, nil
		case strings.Contains(command, "test -d"):
			return &ssh.ExecResult{Stdout: "exists\n"}, nil
		}
		return healthyExec(ctx, command)
	}

	orch := newTestOrchestrator(t, conn)
	if err := orch.Rollback(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if commandIndex(conn.Commands, "ln -sfn '/srv/cloud/wechange/releases/20260824110000' '/srv/cloud/wechange/current'") < 0 {
		t.Errorf("missing symlink switch:\n%s", strings.Join(conn.Commands, "\n"))
	}
	if commandIndex(conn.Commands, "cd '/srv/cloud/wechange/releases/20260824110000' && docker compose -p 'wechange' up -d") < 0 {
		t.Errorf("missing stack restart:\n%s", strings.Join(conn.Commands, "\n"))
	}
}

func TestRollback_NoPreviousRelease(t *testing.T) {
	conn := newFakeConnection()
	conn.ExecFunc = func(ctx context.Context, command string) (*ssh.ExecResult, error) {
		return &ssh.ExecResult{Stdout: ""}, nil
	}

	orch := newTestOrchestrator(t, conn)
	err := orch.Rollback(context.Background(), "")
	if err == nil || !strings.Contains(err.Error(), "no previous release") {
		t.Errorf("expected no-previous-release error, got %v", err)
	}
}

func TestRollback_TargetNotFound(t *testing.T) {
	conn := newFakeConnection()
	conn.ExecFunc = func(ctx context.Context, command string) (*ssh.ExecResult, error) {
		return &ssh.ExecResult{Stdout: ""}, nil
	}

	orch := newTestOrchestrator(t, conn)
	err := orch.Rollback(context.Background(), "20200101000000")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestRollback_InvalidTarget(t *testing.T) {
	orch := newTestOrchestrator(t, newFakeConnection())

	err := orch.Rollback(context.Background(), "x; rm -rf /")
	if err == nil || !strings.Contains(err.Error(), "invalid release") {
		t.Errorf("expected invalid-release error, got %v", err)
	}
}

// ─── Releases and artifacts ──────────────────────────────────────────────

func TestListReleases(t *testing.T) {
	mock := &ssh.MockExecutor{
		ExecFunc: func(ctx context.Context, command string) (*ssh.ExecResult, error) {
			if strings.Contains(command, "readlink") {
				return &ssh.ExecResult{Stdout: "/srv/cloud/wechange/releases/20260825120000\n"}, nil
			}
			return &ssh.ExecResult{Stdout: "20260825120000\n20260824110000\n\n"}, nil
		},
	}

	releases, active, err := ListReleases(context.Background(), mock, "wechange")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(releases) != 2 {
		t.Errorf("releases = %v", releases)
	}
	if active != "20260825120000" {
		t.Errorf("active = %q", active)
	}
}

func TestArtifactSet_Validate(t *testing.T) {
	artifacts := testArtifacts(t)
	if err := artifacts.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	missing := artifacts
	missing.ProxyConf = filepath.Join(t.TempDir(), "nope.conf")
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing artifact")
	}

	empty := ArtifactSet{}
	if err := empty.Validate(); err == nil {
		t.Error("expected error for empty set")
	}
}
