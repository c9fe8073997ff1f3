package deploy

import (
	"context"
	"fmt"
	"strings"

	"github.com/wechange-eg/cloudctl/internal/constants"
	"github.com/wechange-eg/cloudctl/internal/generator"
	"github.com/wechange-eg/cloudctl/internal/security"
	"github.com/wechange-eg/cloudctl/internal/ssh"
)

// EnvCheckResult holds the state of the remote shared/.env secrets.
type EnvCheckResult struct {
	Present []string
	Missing []string
}

// Complete reports whether every required secret is set.
func (r *EnvCheckResult) Complete() bool {
	return len(r.Missing) == 0
}

// CheckRemoteEnv reads shared/.env on the server and reports which of the
// stack's required secrets are set.
func CheckRemoteEnv(ctx context.Context, exec ssh.Executor, site string) (*EnvCheckResult, error) {
	envFile := constants.SiteEnvFilePath(site)

	result, err := exec.Exec(ctx, fmt.Sprintf("cat %s 2>/dev/null || true", security.ShellEscape(envFile)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	values := generator.ParseEnvFile(result.Stdout)
	check := &EnvCheckResult{Missing: generator.MissingEnvKeys(values)}

	missing := make(map[string]bool, len(check.Missing))
	for _, key := range check.Missing {
		missing[key] = true
	}
	for _, key := range generator.RequiredEnvKeys {
		if !missing[key] {
			check.Present = append(check.Present, key)
		}
	}

	return check, nil
}

// PushEnv uploads env content to the site's shared/.env. Incomplete
// content is rejected so a push can never break the next deploy.
func PushEnv(ctx context.Context, conn Connection, site, content string) error {
	values := generator.ParseEnvFile(content)
	if missing := generator.MissingEnvKeys(values); len(missing) > 0 {
		return fmt.Errorf("env content lacks required keys: %s", strings.Join(missing, ", "))
	}

	envFile := constants.SiteEnvFilePath(site)

	mkdir := fmt.Sprintf("mkdir -p %s", security.ShellEscape(constants.SiteSharedPath(site)))
	if result, err := conn.Exec(ctx, mkdir); err != nil {
		return err
	} else if result.ExitCode != 0 {
		return fmt.Errorf("failed to create shared directory: %s", strings.TrimSpace(result.Stderr))
	}

	if err := conn.UploadContent(ctx, content, envFile); err != nil {
		return fmt.Errorf("failed to upload %s: %w", envFile, err)
	}

	_, err := conn.Exec(ctx, fmt.Sprintf("chmod 600 %s", security.ShellEscape(envFile)))
	return err
}

// PullEnv downloads the site's shared/.env content.
func PullEnv(ctx context.Context, exec ssh.Executor, site string) (string, error) {
	envFile := constants.SiteEnvFilePath(site)

	result, err := exec.Exec(ctx, fmt.Sprintf("cat %s", security.ShellEscape(envFile)))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", envFile, err)
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("no env file at %s", envFile)
	}
	return result.Stdout, nil
}

// FormatEnvCheckError formats a missing-secrets message with the commands to fix it
func FormatEnvCheckError(missing []string, serverName string) string {
	var sb strings.Builder

	sb.WriteString("Missing required secrets in shared/.env:\n\n")

	for _, key := range missing {
		sb.WriteString(fmt.Sprintf("   %s\n", key))
	}

	sb.WriteString("\nGenerate the secrets locally and push them:\n\n")
	sb.WriteString("   cloudctl generate\n")
	sb.WriteString(fmt.Sprintf("   cloudctl env push %s\n", serverName))
	sb.WriteString(fmt.Sprintf("\nThen run 'cloudctl deploy %s' again.\n", serverName))
	sb.WriteString("\nOr use --force to skip this check (the stack will not start cleanly)")

	return sb.String()
}
