package nextcloud

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/wechange-eg/cloudctl/internal/log"
)

// Deprovisioner is the API surface the pruner needs; satisfied by *Client
// and by test fakes.
type Deprovisioner interface {
	ListUserIDs(ctx context.Context) ([]string, error)
	DeleteUser(ctx context.Context, userID string) error
	GroupMembers(ctx context.Context, groupID string) ([]string, error)
	RemoveUserFromGroup(ctx context.Context, userID, groupID string) error
}

// Pruner removes accounts and memberships the manifest no longer lists.
// Unlike the additive sync, dry-run mode still reads from the API; only
// the destructive calls are skipped.
type Pruner struct {
	client    Deprovisioner
	adminUser string
	dryRun    bool
	out       io.Writer
}

// NewPruner creates a pruner. adminUser is never deleted and never
// removed from a group.
func NewPruner(client Deprovisioner, adminUser string, dryRun bool, out io.Writer) *Pruner {
	return &Pruner{
		client:    client,
		adminUser: adminUser,
		dryRun:    dryRun,
		out:       out,
	}
}

// PruneResult holds the counters of one prune run.
type PruneResult struct {
	RemoteUsers        int
	UsersDeleted       int
	MembershipsRemoved int
	Errors             int
}

func (r PruneResult) String() string {
	return fmt.Sprintf("%d remote users checked, %d deleted, %d memberships removed (%d errors)",
		r.RemoteUsers, r.UsersDeleted, r.MembershipsRemoved, r.Errors)
}

// Prune deletes remote users missing from the manifest, then removes
// remaining manifest users from groups they no longer list. Individual
// failures are counted, never abort the run.
func (p *Pruner) Prune(ctx context.Context, manifest *Manifest) (PruneResult, error) {
	logger := log.WithComponent("sync")
	var result PruneResult

	keep := make(map[string]bool, len(manifest.Users)+1)
	for _, user := range manifest.Users {
		keep[user.ID] = true
	}
	keep[p.adminUser] = true

	remote, err := p.client.ListUserIDs(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list remote users: %w", err)
	}
	result.RemoteUsers = len(remote)

	for _, userID := range remote {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if keep[userID] {
			continue
		}

		if p.dryRun {
			fmt.Fprintf(p.out, "would delete user %s\n", userID)
			continue
		}

		if err := p.client.DeleteUser(ctx, userID); err != nil {
			result.Errors++
			logger.Error().Str("op", "prune").Str("user", userID).Err(err).Msg("user deletion failed")
			continue
		}
		result.UsersDeleted++
		fmt.Fprintf(p.out, "deleted user %s\n", userID)
		logger.Info().Str("op", "prune").Str("user", userID).Msg("user deleted")
	}

	return result, p.pruneMemberships(ctx, manifest, keep, &result, logger)
}

// pruneMemberships removes manifest users from groups they no longer
// list. Members missing from the manifest entirely are skipped, user
// deletion already covers them.
func (p *Pruner) pruneMemberships(ctx context.Context, manifest *Manifest, keep map[string]bool, result *PruneResult, logger zerolog.Logger) error {
	desired := manifest.GroupMembers()

	for _, group := range manifest.Groups {
		if err := ctx.Err(); err != nil {
			return err
		}

		members, err := p.client.GroupMembers(ctx, group.ID)
		if err != nil {
			result.Errors++
			logger.Error().Str("op", "prune").Str("group", group.ID).Err(err).Msg("member listing failed")
			continue
		}

		wanted := make(map[string]bool, len(desired[group.ID]))
		for _, userID := range desired[group.ID] {
			wanted[userID] = true
		}

		for _, userID := range members {
			if userID == p.adminUser || wanted[userID] || !keep[userID] {
				continue
			}

			if p.dryRun {
				fmt.Fprintf(p.out, "would remove %s from %s\n", userID, group.ID)
				continue
			}

			if err := p.client.RemoveUserFromGroup(ctx, userID, group.ID); err != nil {
				result.Errors++
				logger.Error().Str("op", "prune").Str("group", group.ID).Str("user", userID).
					Err(err).Msg("membership removal failed")
				continue
			}
			result.MembershipsRemoved++
			fmt.Fprintf(p.out, "removed %s from %s\n", userID, group.ID)
		}
	}

	return nil
}
