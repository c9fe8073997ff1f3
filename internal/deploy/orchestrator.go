// Package deploy runs the release deployment workflow: upload the
// generated artifacts to a timestamped release directory, start the stack
// from it, verify health, then switch the `current` symlink.
package deploy

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/log"
	"github.com/wechange-eg/cloudctl/internal/security"
	"github.com/wechange-eg/cloudctl/internal/ssh"
)

// Connection is the SSH surface the orchestrator needs. *ssh.Client
// implements it.
type Connection interface {
	ssh.Executor
	UploadFile(ctx context.Context, localPath, remotePath string) error
	UploadContent(ctx context.Context, content, remotePath string) error
}

// ArtifactSet names the local files that make up one release.
type ArtifactSet struct {
	ComposeFile string
	ProxyConf   string
	WebConf     string
}

// DefaultArtifacts returns the artifact set generated into dir.
func DefaultArtifacts(dir string) ArtifactSet {
	return ArtifactSet{
		ComposeFile: filepath.Join(dir, constants.ComposeFile),
		ProxyConf:   filepath.Join(dir, constants.ProxyConfFile),
		WebConf:     filepath.Join(dir, constants.WebConfFile),
	}
}

// Validate checks that every artifact exists locally.
func (a ArtifactSet) Validate() error {
	for _, artifact := range []struct{ name, path string }{
		{"compose file", a.ComposeFile},
		{"proxy config", a.ProxyConf},
		{"web config", a.WebConf},
	} {
		if artifact.path == "" {
			return fmt.Errorf("artifact set is missing the %s", artifact.name)
		}
		if _, err := os.Stat(artifact.path); err != nil {
			return fmt.Errorf("%s not found at %s (run 'cloudctl generate' first)", artifact.name, artifact.path)
		}
	}
	return nil
}

// Orchestrator handles the deployment workflow for one site
type Orchestrator struct {
	conn        Connection
	config      *config.ProjectConfig
	server      *config.ServerConfig
	tag         string
	verbose     bool
	force       bool
	autoUpgrade bool
	onMessage   func(string)

	preHealthWait  time.Duration
	healthTimeout  time.Duration
	healthRetries  int
	healthInterval time.Duration
}

// NewOrchestrator creates a new deployment orchestrator
func NewOrchestrator(conn Connection, cfg *config.ProjectConfig, server *config.ServerConfig) (*Orchestrator, error) {
	if err := security.ValidateSiteSlug(cfg.Name); err != nil {
		return nil, fmt.Errorf("invalid site name: %w", err)
	}
	return &Orchestrator{
		conn:           conn,
		config:         cfg,
		server:         server,
		preHealthWait:  constants.PreHealthSleep,
		healthTimeout:  constants.HealthCheckTimeout,
		healthRetries:  constants.HealthCheckRetries,
		healthInterval: constants.HealthCheckInterval,
	}, nil
}

// SetTag sets the release tag instead of generating one
func (o *Orchestrator) SetTag(tag string) error {
	if err := security.ValidateRelease(tag); err != nil {
		return fmt.Errorf("invalid release tag: %w", err)
	}
	o.tag = tag
	return nil
}

// SetVerbose enables verbose output
func (o *Orchestrator) SetVerbose(verbose bool) {
	o.verbose = verbose
}

// SetForce skips the remote secrets check
func (o *Orchestrator) SetForce(force bool) {
	o.force = force
}

// SetAutoUpgrade runs `occ upgrade` when the new release needs one
func (o *Orchestrator) SetAutoUpgrade(auto bool) {
	o.autoUpgrade = auto
}

// SetHealthTiming adjusts how long the stack may take to become healthy.
func (o *Orchestrator) SetHealthTiming(wait, timeout time.Duration, retries int, interval time.Duration) {
	o.preHealthWait = wait
	o.healthTimeout = timeout
	o.healthRetries = retries
	o.healthInterval = interval
}

// OnMessage sets a callback for status messages
func (o *Orchestrator) OnMessage(fn func(string)) {
	o.onMessage = fn
}

func (o *Orchestrator) message(msg string) {
	if o.onMessage != nil {
		o.onMessage(msg)
	}
}

// Deploy uploads the artifact set as a new release and activates it
func (o *Orchestrator) Deploy(ctx context.Context, artifacts ArtifactSet) error {
	logger := log.WithComponent("deploy")

	if o.tag == "" {
		o.tag = time.Now().Format("20060102150405")
	}

	if err := artifacts.Validate(); err != nil {
		return err
	}

	state := NewDeployState(o.config.Name, o.tag)
	logger.Info().
		Str("site", o.config.Name).
		Str("tag", o.tag).
		Str("server", o.server.Host).
		Msg("deployment started")

	// Step 1: Prepare directories
	o.message("Preparing directories...")
	state.Phase = PhasePrepareDirs
	if err := o.prepareDirectories(ctx, state); err != nil {
		return fmt.Errorf("failed to prepare directories: %w", err)
	}

	// Step 2: Upload the release artifacts
	o.message(fmt.Sprintf("Uploading release %s...", o.tag))
	state.Phase = PhaseUploadRelease
	if err := o.uploadRelease(ctx, artifacts, state); err != nil {
		o.rollback(ctx, state)
		return fmt.Errorf("failed to upload release: %w", err)
	}

	// Step 3: Link the shared secrets into the release
	o.message("Linking shared secrets...")
	state.Phase = PhaseLinkEnv
	if err := o.linkSharedEnv(ctx, state); err != nil {
		o.rollback(ctx, state)
		return fmt.Errorf("failed to link shared env: %w", err)
	}

	// Step 4: Verify the secrets are complete
	envCheck, err := CheckRemoteEnv(ctx, o.conn, o.config.Name)
	if err != nil {
		return fmt.Errorf("failed to check remote secrets: %w", err)
	}
	if !envCheck.Complete() {
		if !o.force {
			o.rollback(ctx, state)
			return fmt.Errorf("%s", FormatEnvCheckError(envCheck.Missing, o.serverName()))
		}
		o.message("Continuing with incomplete secrets (--force)...")
	}

	// Step 5: Pull images and start the stack
	o.message("Pulling images and starting the stack...")
	state.Phase = PhaseStackUp
	if err := o.stackUp(ctx, state); err != nil {
		o.message("Stack start failed, restoring previous release...")
		o.rollback(ctx, state)
		return fmt.Errorf("failed to start stack: %w", err)
	}

	// Step 6: Health check
	o.message("Waiting for the stack to become healthy...")
	state.Phase = PhaseHealthCheck
	time.Sleep(o.preHealthWait)

	health, err := o.checkHealth(ctx, state.ReleasePath)
	if err != nil {
		o.rollback(ctx, state)
		return err
	}
	if !health.Healthy {
		o.message("Health check failed, restoring previous release...")
		o.rollback(ctx, state)
		return fmt.Errorf("health check failed after %d attempts: %s", health.Attempts, health.Message)
	}

	// Step 7: Database upgrade check before cutover
	state.Phase = PhaseUpgradeCheck
	status, err := CheckUpgrade(ctx, o.conn, o.config.Name, state.ReleasePath)
	switch {
	case err != nil:
		// The stack already answers status.php, a broken occ probe
		// must not abort the deploy.
		logger.Warn().Err(err).Msg("upgrade check skipped")
	case status.NeedsDbUpgrade && !o.autoUpgrade:
		o.message("Database upgrade needed, restoring previous release...")
		o.rollback(ctx, state)
		return fmt.Errorf("%s", FormatUpgradeWarning(status))
	case status.NeedsDbUpgrade:
		o.message("Running database upgrade...")
		if err := RunUpgrade(ctx, o.conn, o.config.Name, state.ReleasePath); err != nil {
			o.rollback(ctx, state)
			return fmt.Errorf("database upgrade failed: %w", err)
		}
	}

	// Step 8: Update current symlink
	o.message("Activating release...")
	state.Phase = PhaseActivate
	if err := o.activateRelease(ctx, state); err != nil {
		return fmt.Errorf("failed to activate release: %w", err)
	}

	// Step 9: Cleanup old releases
	o.message("Pruning old releases...")
	state.Phase = PhasePrune
	o.pruneReleases(ctx)

	state.Phase = PhaseDone
	logger.Info().Str("site", o.config.Name).Str("tag", o.tag).Msg("deployment finished")
	return nil
}

// Tag returns the release tag of the last Deploy call.
func (o *Orchestrator) Tag() string {
	return o.tag
}

func (o *Orchestrator) serverName() string {
	if o.server.Name != "" {
		return o.server.Name
	}
	return o.server.Host
}

func (o *Orchestrator) prepareDirectories(ctx context.Context, state *DeployState) error {
	envFile := security.ShellEscape(constants.SiteEnvFilePath(o.config.Name))

	commands := []string{
		fmt.Sprintf("mkdir -p %s/proxy %s/web",
			security.ShellEscape(state.ReleasePath), security.ShellEscape(state.ReleasePath)),
		fmt.Sprintf("mkdir -p %s", security.ShellEscape(constants.SiteSharedPath(o.config.Name))),
		fmt.Sprintf("touch %s && chmod 600 %s", envFile, envFile),
	}

	return o.runCommands(ctx, commands)
}

func (o *Orchestrator) uploadRelease(ctx context.Context, artifacts ArtifactSet, state *DeployState) error {
	uploads := []struct{ local, remote string }{
		{artifacts.ComposeFile, filepath.Join(state.ReleasePath, constants.ComposeFile)},
		{artifacts.ProxyConf, filepath.Join(state.ReleasePath, constants.ProxyConfFile)},
		{artifacts.WebConf, filepath.Join(state.ReleasePath, constants.WebConfFile)},
	}

	for _, upload := range uploads {
		if o.verbose {
			o.message(fmt.Sprintf("  > upload %s", upload.remote))
		}
		if err := o.conn.UploadFile(ctx, upload.local, upload.remote); err != nil {
			return fmt.Errorf("failed to upload %s: %w", upload.local, err)
		}
	}

	return nil
}

func (o *Orchestrator) linkSharedEnv(ctx context.Context, state *DeployState) error {
	cmd := fmt.Sprintf("ln -sfn %s %s",
		security.ShellEscape(constants.SiteEnvFilePath(o.config.Name)),
		security.ShellEscape(filepath.Join(state.ReleasePath, constants.EnvFile)))

	return o.runCommands(ctx, []string{cmd})
}

func (o *Orchestrator) stackUp(ctx context.Context, state *DeployState) error {
	dir := security.ShellEscape(state.ReleasePath)
	project := security.ShellEscape(o.config.Name)

	commands := []string{
		fmt.Sprintf("cd %s && docker compose -p %s pull --quiet", dir, project),
		fmt.Sprintf("cd %s && docker compose -p %s up -d --remove-orphans", dir, project),
	}

	return o.runCommands(ctx, commands)
}

func (o *Orchestrator) checkHealth(ctx context.Context, releasePath string) (*HealthResult, error) {
	checker := NewHealthChecker(o.conn, o.config.Name, releasePath, o.config.Deploy.HealthcheckPath)
	checker.SetTimeout(o.healthTimeout)
	checker.SetRetries(o.healthRetries)
	checker.SetInterval(o.healthInterval)
	return checker.Check(ctx)
}

func (o *Orchestrator) activateRelease(ctx context.Context, state *DeployState) error {
	commands := []string{
		fmt.Sprintf("ln -sfn %s %s",
			security.ShellEscape(state.ReleasePath), security.ShellEscape(state.CurrentPath)),
		fmt.Sprintf("echo %s > %s",
			security.ShellEscape(o.tag), security.ShellEscape(filepath.Join(state.ReleasePath, "release"))),
	}

	return o.runCommands(ctx, commands)
}

func (o *Orchestrator) pruneReleases(ctx context.Context) {
	keep := o.config.Deploy.KeepReleases
	if keep <= 0 {
		keep = constants.DefaultKeepReleases
	}

	cmd := fmt.Sprintf("cd %s && ls -1t | tail -n +%d | xargs -r rm -rf",
		security.ShellEscape(constants.SiteReleasesPath(o.config.Name)), keep+1)
	_, _ = o.conn.Exec(ctx, cmd)
}

func (o *Orchestrator) rollback(ctx context.Context, state *DeployState) {
	for _, cmd := range state.RollbackActions() {
		_, _ = o.conn.Exec(ctx, cmd)
	}
}

func (o *Orchestrator) runCommands(ctx context.Context, commands []string) error {
	for _, cmd := range commands {
		if o.verbose {
			o.message(fmt.Sprintf("  > %s", security.SanitizeCommandForLog(cmd)))
		}
		result, err := o.conn.Exec(ctx, cmd)
		if err != nil {
			return err
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("command failed: %s", strings.TrimSpace(result.Stderr))
		}
	}
	return nil
}

// Rollback points `current` back at a previous release and restarts the
// stack from there. With an empty target the release before the current
// one is used.
func (o *Orchestrator) Rollback(ctx context.Context, targetRelease string) error {
	releasesPath := constants.SiteReleasesPath(o.config.Name)

	if targetRelease == "" {
		result, err := o.conn.Exec(ctx, fmt.Sprintf("ls -1t %s | head -2 | tail -1",
			security.ShellEscape(releasesPath)))
		if err != nil {
			return fmt.Errorf("failed to list releases: %w", err)
		}
		targetRelease = strings.TrimSpace(result.Stdout)
		if targetRelease == "" {
			return fmt.Errorf("no previous release available")
		}
	}
	if err := security.ValidateRelease(targetRelease); err != nil {
		return fmt.Errorf("invalid release %q: %w", targetRelease, err)
	}

	releasePath := constants.SiteReleasePath(o.config.Name, targetRelease)

	// Verify target release exists
	check, err := o.conn.Exec(ctx, fmt.Sprintf("test -d %s && echo 'exists'",
		security.ShellEscape(releasePath)))
	if err != nil {
		return err
	}
	if !strings.Contains(check.Stdout, "exists") {
		return fmt.Errorf("release '%s' not found", targetRelease)
	}

	o.message(fmt.Sprintf("Rolling back to release %s...", targetRelease))
	commands := []string{
		fmt.Sprintf("ln -sfn %s %s",
			security.ShellEscape(releasePath),
			security.ShellEscape(constants.SiteCurrentPath(o.config.Name))),
		fmt.Sprintf("cd %s && docker compose -p %s up -d --remove-orphans",
			security.ShellEscape(releasePath), security.ShellEscape(o.config.Name)),
	}
	if err := o.runCommands(ctx, commands); err != nil {
		return err
	}

	o.message("Waiting for the stack to become healthy...")
	time.Sleep(o.preHealthWait)

	health, err := o.checkHealth(ctx, releasePath)
	if err != nil {
		return err
	}
	if !health.Healthy {
		return fmt.Errorf("stack unhealthy after rollback: %s", health.Message)
	}

	return nil
}

// ListReleases returns the release tags of a site, newest first, and the
// tag the `current` symlink points at.
func ListReleases(ctx context.Context, exec ssh.Executor, site string) ([]string, string, error) {
	result, err := exec.Exec(ctx, fmt.Sprintf("ls -1t %s 2>/dev/null || true",
		security.ShellEscape(constants.SiteReleasesPath(site))))
	if err != nil {
		return nil, "", fmt.Errorf("failed to list releases: %w", err)
	}

	var releases []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			releases = append(releases, line)
		}
	}

	current, err := exec.Exec(ctx, fmt.Sprintf("readlink %s 2>/dev/null || true",
		security.ShellEscape(constants.SiteCurrentPath(site))))
	if err != nil {
		return releases, "", nil
	}

	active := ""
	if target := strings.TrimSpace(current.Stdout); target != "" {
		active = path.Base(target)
	}
	return releases, active, nil
}
