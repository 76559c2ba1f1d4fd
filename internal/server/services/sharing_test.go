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

func TestSharePromotesPrivateFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := mustCreateFolder(t, env, owner, "team", nil)

	share, err := env.sharing.Share(ctx, owner, f.ID, stranger.ID, models.PermissionRead)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionRead, share.Permission)
	assert.Equal(t, owner.ID, share.SharedBy)

	got, err := env.rm.Folders(env.db).GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityShared, got.Visibility)
}

func TestShareIsIdempotentPerPair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := mustCreateFolder(t, env, owner, "team", nil)

	first, err := env.sharing.Share(ctx, owner, f.ID, stranger.ID, models.PermissionRead)
	require.NoError(t, err)

	// Same grant again: the row is reused, and the re-share is recorded
	// as an update.
	again, err := env.sharing.Share(ctx, owner, f.ID, stranger.ID, models.PermissionRead)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	entries, err := env.audit.Logs(ctx, owner, audit.Filter{EntityType: models.EntityShare})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionUpdate, entries[0].Action)
	assert.Equal(t, first.ID, entries[0].EntityID)
	assert.Equal(t, models.ActionCreate, entries[1].Action)

	// Re-sharing with a higher level overwrites the permission in place.
	upgraded, err := env.sharing.Share(ctx, owner, f.ID, stranger.ID, models.PermissionManage)
	require.NoError(t, err)
	assert.Equal(t, first.ID, upgraded.ID)
	assert.Equal(t, models.PermissionManage, upgraded.Permission)

	list, err := env.sharing.ListShares(ctx, owner, f.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.PermissionManage, list[0].Permission)
}

func TestShareValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := mustCreateFolder(t, env, owner, "team", nil)

	_, err := env.sharing.Share(ctx, owner, f.ID, 0, models.PermissionRead)
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = env.sharing.Share(ctx, owner, f.ID, owner.ID, models.PermissionRead)
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = env.sharing.Share(ctx, owner, f.ID, stranger.ID, models.Permission("owner"))
	require.ErrorIs(t, err, common.ErrValidation)

	// Only the owner may share; a write grant is not enough.
	_, err = env.sharing.Share(ctx, owner, f.ID, stranger.ID, models.PermissionWrite)
	require.NoError(t, err)
	_, err = env.sharing.Share(ctx, stranger, f.ID, admin.ID, models.PermissionRead)
	require.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestUnshareLastGrantDemotesToPrivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := mustCreateFolder(t, env, owner, "team", nil)
	_, err := env.sharing.Share(ctx, owner, f.ID, stranger.ID, models.PermissionRead)
	require.NoError(t, err)
	_, err = env.sharing.Share(ctx, owner, f.ID, admin.ID, models.PermissionRead)
	require.NoError(t, err)

	require.NoError(t, env.sharing.Unshare(ctx, owner, f.ID, stranger.ID))
	got, err := env.rm.Folders(env.db).GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityShared, got.Visibility)

	require.NoError(t, env.sharing.Unshare(ctx, owner, f.ID, admin.ID))
	got, err = env.rm.Folders(env.db).GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPrivate, got.Visibility)

	// Revoking a grant that does not exist reports not found.
	err = env.sharing.Unshare(ctx, owner, f.ID, stranger.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestShareAuditEntriesReferenceShareRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := mustCreateFolder(t, env, owner, "team", nil)

	share, err := env.sharing.Share(ctx, owner, f.ID, stranger.ID, models.PermissionRead)
	require.NoError(t, err)
	require.NoError(t, env.sharing.Unshare(ctx, owner, f.ID, stranger.ID))

	// Grant and revocation point at the same entity.
	entries, err := env.audit.Logs(ctx, owner, audit.Filter{EntityType: models.EntityShare, EntityID: &share.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionDelete, entries[0].Action)
	assert.Equal(t, models.ActionCreate, entries[1].Action)
}

func TestSetVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := mustCreateFolder(t, env, owner, "pub", nil)

	got, err := env.sharing.SetVisibility(ctx, owner, f.ID, models.VisibilityPublic)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPublic, got.Visibility)

	// Demoting while grants remain lands on shared, not private.
	_, err = env.sharing.Share(ctx, owner, f.ID, stranger.ID, models.PermissionRead)
	require.NoError(t, err)
	got, err = env.sharing.SetVisibility(ctx, owner, f.ID, models.VisibilityPrivate)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityShared, got.Visibility)

	// Without grants the demotion reaches private.
	require.NoError(t, env.sharing.Unshare(ctx, owner, f.ID, stranger.ID))
	got, err = env.sharing.SetVisibility(ctx, owner, f.ID, models.VisibilityPrivate)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPrivate, got.Visibility)

	_, err = env.sharing.SetVisibility(ctx, owner, f.ID, models.VisibilityShared)
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = env.sharing.SetVisibility(ctx, stranger, f.ID, models.VisibilityPublic)
	require.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestListSharesRequiresManage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := mustCreateFolder(t, env, owner, "team", nil)
	_, err := env.sharing.Share(ctx, owner, f.ID, stranger.ID, models.PermissionRead)
	require.NoError(t, err)

	_, err = env.sharing.ListShares(ctx, stranger, f.ID)
	require.ErrorIs(t, err, common.ErrPermissionDenied)

	list, err := env.sharing.ListShares(ctx, owner, f.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, stranger.ID, list[0].UserID)

	// A manage grant is enough; superusers always pass.
	_, err = env.sharing.Share(ctx, owner, f.ID, admin.ID, models.PermissionManage)
	require.NoError(t, err)
	list, err = env.sharing.ListShares(ctx, admin, f.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = env.sharing.ListShares(ctx, superuser, f.ID)
	require.NoError(t, err)
}
