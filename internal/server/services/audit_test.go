package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/audit"
)

func TestAuditLogsRestrictedToOwnEntries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mustCreateFolder(t, env, owner, "one", nil)
	mustCreateFolder(t, env, stranger, "two", nil)

	entries, err := env.audit.Logs(ctx, owner, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, owner.ID, entries[0].UserID)

	// Asking for another user's trail is rejected.
	other := stranger.ID
	_, err = env.audit.Logs(ctx, owner, audit.Filter{UserID: &other})
	require.ErrorIs(t, err, common.ErrPermissionDenied)

	// Spelling out one's own id is allowed.
	own := owner.ID
	entries, err = env.audit.Logs(ctx, owner, audit.Filter{UserID: &own})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAuditLogsAdminSeesAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mustCreateFolder(t, env, owner, "one", nil)
	mustCreateFolder(t, env, stranger, "two", nil)

	entries, err := env.audit.Logs(ctx, admin, audit.Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	target := stranger.ID
	entries, err = env.audit.Logs(ctx, admin, audit.Filter{UserID: &target})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, stranger.ID, entries[0].UserID)
}

func TestAuditLogsFilterAndLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := mustCreateFolder(t, env, owner, "docs", nil)
	for i := 0; i < 3; i++ {
		mustAddFile(t, env, owner, f.ID, "doc.txt", "x")
	}

	entries, err := env.audit.Logs(ctx, owner, audit.Filter{EntityType: models.EntityFile})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = env.audit.Logs(ctx, owner, audit.Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	id := f.ID
	entries, err = env.audit.Logs(ctx, owner, audit.Filter{EntityType: models.EntityFolder, EntityID: &id})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionCreate, entries[0].Action)
}

func TestAuditFailureDoesNotFailMutation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := mustCreateFolder(t, env, owner, "docs", nil)

	// Dropping the audit table makes every insert fail; mutations audit
	// best-effort and must still succeed.
	_, err := env.db.Exec(`DROP TABLE audit_entries`)
	require.NoError(t, err)

	file := mustAddFile(t, env, owner, f.ID, "doc.txt", "x")
	require.NoError(t, env.lifecycle.DeleteFile(ctx, owner, file.ID))

	mustAddFile(t, env, owner, f.ID, "another.txt", "y")
	result, err := env.lifecycle.DeleteFolder(ctx, owner, f.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.RemovedFiles)
	_, err = env.rm.Folders(env.db).GetByID(ctx, f.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
}
