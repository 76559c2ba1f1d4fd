package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
)

func TestSubtreeDepthLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Bounded walker with a tight depth for the test.
	tight := NewTreeService(env.db, env.rm, 3, 500)

	root := mustCreateFolder(t, env, owner, "lvl0", nil)
	parent := root
	for i := 1; i <= 5; i++ {
		parent = mustCreateFolder(t, env, owner, fmt.Sprintf("lvl%d", i), &parent.ID)
	}

	_, err := tight.Subtree(ctx, root.ID)
	require.ErrorIs(t, err, common.ErrTreeTooDeep)

	// A subtree starting below the limit still loads.
	sub, err := tight.Subtree(ctx, parent.ID)
	require.NoError(t, err)
	assert.Empty(t, sub.Subfolders)
}

func TestSubtreeNodeLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tight := NewTreeService(env.db, env.rm, 25, 4)

	root := mustCreateFolder(t, env, owner, "wide", nil)
	for i := 0; i < 5; i++ {
		mustCreateFolder(t, env, owner, fmt.Sprintf("child%d", i), &root.ID)
	}

	_, err := tight.Subtree(ctx, root.ID)
	require.ErrorIs(t, err, common.ErrTreeTooLarge)
}

func TestSubtreeOrdersChildrenByName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := mustCreateFolder(t, env, owner, "root", nil)
	mustCreateFolder(t, env, owner, "zulu", &root.ID)
	mustCreateFolder(t, env, owner, "alpha", &root.ID)
	mustCreateFolder(t, env, owner, "mike", &root.ID)

	tree, err := env.tree.Subtree(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, tree.Subfolders, 3)
	assert.Equal(t, "alpha", tree.Subfolders[0].Name)
	assert.Equal(t, "mike", tree.Subfolders[1].Name)
	assert.Equal(t, "zulu", tree.Subfolders[2].Name)
}

func TestCollectFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := mustCreateFolder(t, env, owner, "root", nil)
	sub := mustCreateFolder(t, env, owner, "sub", &root.ID)
	mustAddFile(t, env, owner, root.ID, "top.txt", "1")
	mustAddFile(t, env, owner, sub.ID, "deep.txt", "22")

	tree, err := env.tree.Subtree(ctx, root.ID)
	require.NoError(t, err)

	all := CollectFiles(tree)
	require.Len(t, all, 2)
	assert.Equal(t, "top.txt", all[0].Name)
	assert.Equal(t, "deep.txt", all[1].Name)
}
