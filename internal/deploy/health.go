package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/security"
	"github.com/wechange-eg/cloudctl/internal/ssh"
)

// InstanceStatus is the JSON body served by status.php and printed by
// `occ status --output=json`.
type InstanceStatus struct {
	Installed      bool   `json:"installed"`
	Maintenance    bool   `json:"maintenance"`
	NeedsDbUpgrade bool   `json:"needsDbUpgrade"`
	Version        string `json:"version"`
	VersionString  string `json:"versionstring"`
}

// HealthChecker probes a deployed stack over SSH until the instance
// reports installed and out of maintenance.
type HealthChecker struct {
	exec        ssh.Executor
	project     string
	releasePath string
	path        string
	timeout     time.Duration
	retries     int
	interval    time.Duration
}

// NewHealthChecker creates a checker for the stack running from releasePath.
func NewHealthChecker(exec ssh.Executor, project, releasePath, path string) *HealthChecker {
	if path == "" {
		path = "/status.php"
	}
	return &HealthChecker{
		exec:        exec,
		project:     project,
		releasePath: releasePath,
		path:        path,
		timeout:     constants.HealthCheckTimeout,
		retries:     constants.HealthCheckRetries,
		interval:    constants.HealthCheckInterval,
	}
}

// SetTimeout sets the overall timeout
func (h *HealthChecker) SetTimeout(timeout time.Duration) {
	h.timeout = timeout
}

// SetRetries sets the number of retries
func (h *HealthChecker) SetRetries(retries int) {
	h.retries = retries
}

// SetInterval sets the interval between retries
func (h *HealthChecker) SetInterval(interval time.Duration) {
	h.interval = interval
}

// HealthResult contains the result of a health check
type HealthResult struct {
	Healthy      bool
	Status       InstanceStatus
	Message      string
	ResponseTime time.Duration
	Attempts     int
}

// Check performs the health check with retries
func (h *HealthChecker) Check(ctx context.Context) (*HealthResult, error) {
	result := &HealthResult{}
	deadline := time.Now().Add(h.timeout)

	for attempt := 1; attempt <= h.retries; attempt++ {
		result.Attempts = attempt

		if time.Now().After(deadline) {
			result.Message = "health check timeout"
			return result, nil
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		// Check the web service is up before probing through it
		psResult, _ := h.exec.Exec(ctx, fmt.Sprintf(
			"cd %s && docker compose -p %s ps --services --status running",
			security.ShellEscape(h.releasePath), security.ShellEscape(h.project)))

		if psResult == nil || !containsLine(psResult.Stdout, constants.ServiceWeb) {
			result.Message = "web service not running"
			time.Sleep(h.interval)
			continue
		}

		start := time.Now()
		probe, err := h.exec.Exec(ctx, h.statusCommand())
		result.ResponseTime = time.Since(start)

		if err == nil && probe.ExitCode == 0 {
			var status InstanceStatus
			if jsonErr := json.Unmarshal([]byte(probe.Stdout), &status); jsonErr != nil {
				result.Message = fmt.Sprintf("status page returned invalid JSON: %v", jsonErr)
			} else {
				result.Status = status
				switch {
				case !status.Installed:
					result.Message = "instance not installed"
				case status.Maintenance:
					result.Message = "instance in maintenance mode"
				default:
					result.Healthy = true
					result.Message = "healthy"
					return result, nil
				}
			}
		} else {
			result.Message = "status page not reachable"
		}

		time.Sleep(h.interval)
	}

	return result, nil
}

// statusCommand probes status.php from inside the web container so the
// check works before DNS or TLS are in place.
func (h *HealthChecker) statusCommand() string {
	return fmt.Sprintf("cd %s && docker compose -p %s exec -T %s curl -fsS http://localhost%s",
		security.ShellEscape(h.releasePath), security.ShellEscape(h.project),
		constants.ServiceWeb, h.path)
}

// ServiceLogs retrieves recent logs of one stack service.
func (h *HealthChecker) ServiceLogs(ctx context.Context, service string, lines int) (string, error) {
	if !constants.IsServiceName(service) {
		return "", fmt.Errorf("unknown service %q", service)
	}

	result, err := h.exec.Exec(ctx, fmt.Sprintf(
		"cd %s && docker compose -p %s logs --tail %d %s 2>&1",
		security.ShellEscape(h.releasePath), security.ShellEscape(h.project), lines, service))
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

func containsLine(output, want string) bool {
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == want {
			return true
		}
	}
	return false
}
