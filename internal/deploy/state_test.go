package deploy

import (
	"strings"
	"testing"
)

func TestDeployPhase_String(t *testing.T) {
	tests := []struct {
		phase    DeployPhase
		expected string
	}{
		{PhaseInit, "init"},
		{PhasePrepareDirs, "prepare-dirs"},
		{PhaseUploadRelease, "upload-release"},
		{PhaseLinkEnv, "link-env"},
		{PhaseStackUp, "stack-up"},
		{PhaseHealthCheck, "health-check"},
		{PhaseUpgradeCheck, "upgrade-check"},
		{PhaseActivate, "activate"},
		{PhasePrune, "prune"},
		{PhaseDone, "done"},
		{DeployPhase(99), "unknown(99)"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.expected {
			t.Errorf("phase %d String() = %q, want %q", int(tt.phase), got, tt.expected)
		}
	}
}

func TestNewDeployState(t *testing.T) {
	state := NewDeployState("wechange", "20260825120000")

	if state.Phase != PhaseInit {
		t.Errorf("Phase = %v", state.Phase)
	}
	if state.ReleasePath != "/srv/cloud/wechange/releases/20260825120000" {
		t.Errorf("ReleasePath = %q", state.ReleasePath)
	}
	if state.CurrentPath != "/srv/cloud/wechange/current" {
		t.Errorf("CurrentPath = %q", state.CurrentPath)
	}
}

func TestRollbackActions_BeforeStackTouched(t *testing.T) {
	state := NewDeployState("wechange", "20260825120000")

	for _, phase := range []DeployPhase{PhaseInit, PhasePrepareDirs} {
		state.Phase = phase
		if actions := state.RollbackActions(); len(actions) != 0 {
			t.Errorf("phase %v: expected no actions, got %v", phase, actions)
		}
	}
}

func TestRollbackActions_PartialUpload(t *testing.T) {
	state := NewDeployState("wechange", "20260825120000")

	for _, phase := range []DeployPhase{PhaseUploadRelease, PhaseLinkEnv} {
		state.Phase = phase
		actions := state.RollbackActions()
		if len(actions) != 1 {
			t.Fatalf("phase %v: actions = %v", phase, actions)
		}
		if !strings.Contains(actions[0], "rm -rf '/srv/cloud/wechange/releases/20260825120000'") {
			t.Errorf("phase %v: unexpected action %q", phase, actions[0])
		}
	}
}

func TestRollbackActions_StackStarted(t *testing.T) {
	state := NewDeployState("wechange", "20260825120000")

	for _, phase := range []DeployPhase{PhaseStackUp, PhaseHealthCheck, PhaseUpgradeCheck} {
		state.Phase = phase
		actions := state.RollbackActions()
		if len(actions) != 1 {
			t.Fatalf("phase %v: actions = %v", phase, actions)
		}

		// Restore the previous release when one exists, otherwise stop
		// the new stack.
		action := actions[0]
		if !strings.Contains(action, "if [ -L '/srv/cloud/wechange/current' ]") {
			t.Errorf("phase %v: missing symlink guard in %q", phase, action)
		}
		if !strings.Contains(action, "up -d --remove-orphans") {
			t.Errorf("phase %v: missing restart in %q", phase, action)
		}
		if !strings.Contains(action, "down --remove-orphans") {
			t.Errorf("phase %v: missing down fallback in %q", phase, action)
		}
	}
}

func TestRollbackActions_AfterActivation(t *testing.T) {
	state := NewDeployState("wechange", "20260825120000")

	for _, phase := range []DeployPhase{PhaseActivate, PhasePrune, PhaseDone} {
		state.Phase = phase
		if actions := state.RollbackActions(); len(actions) != 0 {
			t.Errorf("phase %v: recovery belongs to the rollback command, got %v", phase, actions)
		}
	}
}
