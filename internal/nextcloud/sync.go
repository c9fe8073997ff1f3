package nextcloud

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/wechange-eg/cloudctl/internal/log"
)

// Provisioner is the API surface the syncer needs; satisfied by *Client
// and by test fakes.
type Provisioner interface {
	CreateUser(ctx context.Context, userID, displayName, email string, groups []string) error
	CreateGroup(ctx context.Context, groupID string) error
	AddUserToGroup(ctx context.Context, userID, groupID string) error
	CreateGroupFolder(ctx context.Context, mountpoint string) (int, error)
	AddGroupToFolder(ctx context.Context, folderID int, groupID string) error
	FolderLink(folderName string) string
}

// Syncer mirrors a manifest into a Nextcloud instance.
type Syncer struct {
	client    Provisioner
	adminUser string
	dryRun    bool
	out       io.Writer
}

// NewSyncer creates a syncer. adminUser is added to every synced group so
// the admin account can reach all group folders.
func NewSyncer(client Provisioner, adminUser string, dryRun bool, out io.Writer) *Syncer {
	return &Syncer{
		client:    client,
		adminUser: adminUser,
		dryRun:    dryRun,
		out:       out,
	}
}

// UserSyncResult holds the counters of one user sync run.
type UserSyncResult struct {
	Checked int
	Created int
	Errors  int
}

func (r UserSyncResult) String() string {
	return fmt.Sprintf("%d users checked, %d created (%d errors)", r.Checked, r.Created, r.Errors)
}

// GroupSyncResult holds the counters of one group sync run.
type GroupSyncResult struct {
	Processed      int
	Created        int
	FoldersCreated int
	MembersAdded   int
	Errors         int
}

func (r GroupSyncResult) String() string {
	return fmt.Sprintf("%d groups processed, %d created, %d folders created, %d members added (%d errors)",
		r.Processed, r.Created, r.FoldersCreated, r.MembersAdded, r.Errors)
}

// SyncUsers ensures every manifest user exists. Existing users are left
// untouched; individual failures are counted, never abort the run.
func (s *Syncer) SyncUsers(ctx context.Context, manifest *Manifest) (UserSyncResult, error) {
	logger := log.WithComponent("sync")
	total := len(manifest.Users)
	var result UserSyncResult

	for _, user := range manifest.Users {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Checked++

		if s.dryRun {
			fmt.Fprintf(s.out, "would ensure user %s (%s)\n", user.ID, user.Email)
		} else {
			err := s.client.CreateUser(ctx, user.ID, user.DisplayName, user.Email, user.Groups)
			switch {
			case err == nil:
				result.Created++
				logger.Info().Str("op", "users").Str("user", user.ID).Msg("user created")
			case IsAlreadyExists(err):
				logger.Debug().Str("op", "users").Str("user", user.ID).Msg("user exists")
			default:
				result.Errors++
				logger.Error().Str("op", "users").Str("user", user.ID).Err(err).Msg("user sync failed")
			}
		}

		fmt.Fprintf(s.out, "%d/%d users checked, %d created (%d errors)\n",
			result.Checked, total, result.Created, result.Errors)
	}

	return result, nil
}

// SyncGroups ensures every manifest group exists with its members.
// A group folder is created only for groups created in this run: creating
// a folder for a group that already has one would erase the existing one.
// The admin user is added to every group.
func (s *Syncer) SyncGroups(ctx context.Context, manifest *Manifest) (GroupSyncResult, error) {
	logger := log.WithComponent("sync")
	total := len(manifest.Groups)
	members := manifest.GroupMembers()
	var result GroupSyncResult

	for _, group := range manifest.Groups {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Processed++

		if s.dryRun {
			fmt.Fprintf(s.out, "would ensure group %s (%q) with %d members\n",
				group.ID, group.Name, len(members[group.ID])+1)
		} else {
			s.syncGroup(ctx, group, members[group.ID], &result, logger)
		}

		fmt.Fprintf(s.out, "%d/%d groups processed, %d created, %d folders created, %d members added (%d errors)\n",
			result.Processed, total, result.Created, result.FoldersCreated, result.MembersAdded, result.Errors)
	}

	return result, nil
}

func (s *Syncer) syncGroup(ctx context.Context, group ManifestGroup, memberIDs []string, result *GroupSyncResult, logger zerolog.Logger) {
	err := s.client.CreateGroup(ctx, group.ID)
	switch {
	case err == nil:
		result.Created++
		logger.Info().Str("op", "groups").Str("group", group.ID).Msg("group created")
		s.createFolder(ctx, group, result, logger)
	case IsAlreadyExists(err):
		logger.Debug().Str("op", "groups").Str("group", group.ID).Msg("group exists")
	default:
		result.Errors++
		logger.Error().Str("op", "groups").Str("group", group.ID).Err(err).Msg("group sync failed")
		return
	}

	for _, userID := range append(memberIDs, s.adminUser) {
		err := s.client.AddUserToGroup(ctx, userID, group.ID)
		switch {
		case err == nil:
			result.MembersAdded++
		case IsAlreadyExists(err):
			// already a member
		default:
			result.Errors++
			logger.Error().Str("op", "groups").Str("group", group.ID).Str("user", userID).
				Err(err).Msg("membership sync failed")
		}
	}
}

func (s *Syncer) createFolder(ctx context.Context, group ManifestGroup, result *GroupSyncResult, logger zerolog.Logger) {
	folderID, err := s.client.CreateGroupFolder(ctx, group.Name)
	if err != nil {
		result.Errors++
		logger.Error().Str("op", "groups").Str("group", group.ID).Err(err).Msg("folder creation failed")
		return
	}
	result.FoldersCreated++

	if err := s.client.AddGroupToFolder(ctx, folderID, group.ID); err != nil {
		result.Errors++
		logger.Error().Str("op", "groups").Str("group", group.ID).Int("folder", folderID).
			Err(err).Msg("folder assignment failed")
		return
	}

	fmt.Fprintf(s.out, "folder for %q: %s\n", group.Name, s.client.FolderLink(group.Name))
}
