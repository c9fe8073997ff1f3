package deploy

import (
	"fmt"

	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/security"
)

// DeployPhase represents a phase in the deployment workflow.
type DeployPhase int

const (
	PhaseInit DeployPhase = iota
	PhasePrepareDirs
	PhaseUploadRelease
	PhaseLinkEnv
	PhaseStackUp
	PhaseHealthCheck
	PhaseUpgradeCheck
	PhaseActivate
	PhasePrune
	PhaseDone
)

func (p DeployPhase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhasePrepareDirs:
		return "prepare-dirs"
	case PhaseUploadRelease:
		return "upload-release"
	case PhaseLinkEnv:
		return "link-env"
	case PhaseStackUp:
		return "stack-up"
	case PhaseHealthCheck:
		return "health-check"
	case PhaseUpgradeCheck:
		return "upgrade-check"
	case PhaseActivate:
		return "activate"
	case PhasePrune:
		return "prune"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// DeployState tracks how far a deployment got, for rollback decisions.
type DeployState struct {
	Phase       DeployPhase
	Site        string
	Tag         string
	ReleasePath string
	CurrentPath string
}

// NewDeployState creates the state for one release of a site.
func NewDeployState(site, tag string) *DeployState {
	return &DeployState{
		Phase:       PhaseInit,
		Site:        site,
		Tag:         tag,
		ReleasePath: constants.SiteReleasePath(site, tag),
		CurrentPath: constants.SiteCurrentPath(site),
	}
}

// RollbackActions returns the commands that restore the previous state
// from the current phase. Before the stack is touched the new release
// directory is simply removed. Once the stack is up but `current` has not
// been switched, the previous release (if any) is restarted, otherwise
// the new stack is taken down. After the switch, recovery is the rollback
// command's job.
func (s *DeployState) RollbackActions() []string {
	var actions []string

	switch {
	case s.Phase >= PhaseUploadRelease && s.Phase < PhaseStackUp:
		actions = append(actions,
			fmt.Sprintf("rm -rf %s", security.ShellEscape(s.ReleasePath)))

	case s.Phase >= PhaseStackUp && s.Phase < PhaseActivate:
		project := security.ShellEscape(s.Site)
		actions = append(actions, fmt.Sprintf(
			"if [ -L %s ]; then cd %s && docker compose -p %s up -d --remove-orphans; else cd %s && docker compose -p %s down --remove-orphans; fi",
			security.ShellEscape(s.CurrentPath), security.ShellEscape(s.CurrentPath), project,
			security.ShellEscape(s.ReleasePath), project))
	}

	return actions
}
