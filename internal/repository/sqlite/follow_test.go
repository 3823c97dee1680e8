package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

func TestFollowLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, db.CreateFollow(ctx, &model.Follow{FollowerID: alice.ID, FolloweeID: bob.ID}))
	err := db.CreateFollow(ctx, &model.Follow{FollowerID: alice.ID, FolloweeID: bob.ID})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	ok, err := db.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err := db.DeleteFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = db.DeleteFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestCreateFollow_SelfRejectedByStore(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	err := db.CreateFollow(context.Background(), &model.Follow{FollowerID: alice.ID, FolloweeID: alice.ID})
	assert.Error(t, err)
}

func TestListFollowersAndFollowing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	target := createTestUser(t, db, "target")
	var fans []*model.User
	for _, h := range []string{"a", "b", "c"} {
		u := createTestUser(t, db, h)
		require.NoError(t, db.CreateFollow(ctx, &model.Follow{FollowerID: u.ID, FolloweeID: target.ID}))
		fans = append(fans, u)
	}

	followers, total, err := db.ListFollowers(ctx, target.ID, repository.ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, followers, 2)
	assert.Equal(t, fans[2].ID, followers[0].ID, "most recent edge first")

	following, total, err := db.ListFollowing(ctx, fans[0].ID, repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "target", following[0].Handle)

	ids, err := db.FollowingIDs(ctx, fans[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{target.ID}, ids)
}
