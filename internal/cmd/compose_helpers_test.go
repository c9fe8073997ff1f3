package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/wechange-eg/cloudctl/internal/ssh"
)

func TestComposeCommand(t *testing.T) {
	tests := []struct {
		name string
		site string
		args []string
		want string
	}{
		{
			name: "logs with tail",
			site: "wechange",
			args: []string{"logs", "--tail", "100"},
			want: "cd '/srv/cloud/wechange/current' && docker compose -p 'wechange' 'logs' '--tail' '100'",
		},
		{
			name: "restart single service",
			site: "demo",
			args: []string{"restart", "app"},
			want: "cd '/srv/cloud/demo/current' && docker compose -p 'demo' 'restart' 'app'",
		},
		{
			name: "status of whole stack",
			site: "demo",
			args: []string{"ps"},
			want: "cd '/srv/cloud/demo/current' && docker compose -p 'demo' 'ps'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := composeCommand(tt.site, tt.args...)
			if got != tt.want {
				t.Errorf("composeCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStopSiteStack(t *testing.T) {
	mock := &ssh.MockExecutor{}

	stopSiteStack(context.Background(), mock, "wechange", false)

	if len(mock.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(mock.Commands))
	}
	if mock.Commands[0] != "docker compose -p 'wechange' down --remove-orphans" {
		t.Errorf("unexpected command: %s", mock.Commands[0])
	}
}

func TestStopSiteStackRemovesVolumes(t *testing.T) {
	mock := &ssh.MockExecutor{}

	stopSiteStack(context.Background(), mock, "wechange", true)

	if len(mock.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(mock.Commands))
	}
	if !strings.HasSuffix(mock.Commands[0], "down --remove-orphans --volumes") {
		t.Errorf("expected --volumes suffix, got: %s", mock.Commands[0])
	}
}
