package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

func TestGetSocialFeed_ReviewIsEnriched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.user(t, "a"), env.user(t, "b")
	game := env.game(t, "3498")

	require.NoError(t, env.social.Follow(ctx, a.ID, b.ID))
	_, err := env.reviews.SubmitReview(ctx, b.ID, game.ID, model.ReviewInput{Content: "A masterpiece.", Rating: intp(8)})
	require.NoError(t, err)

	feed, err := env.feed.GetSocialFeed(ctx, a.ID, model.PageRequest{})
	require.NoError(t, err)
	require.Len(t, feed.Activities, 1)

	item := feed.Activities[0]
	assert.Equal(t, model.ActivityReview, item.Kind)
	require.NotNil(t, item.ReviewRating)
	assert.Equal(t, 8, *item.ReviewRating)
	require.NotNil(t, item.ReviewContent)
	assert.Equal(t, "A masterpiece.", *item.ReviewContent)
	require.NotNil(t, item.User)
	assert.Equal(t, "b", item.User.Handle)
	require.NotNil(t, item.Game)
	assert.Equal(t, "Grand Theft Auto V", item.Game.Title)
	assert.Equal(t, model.Pagination{Page: 1, Limit: model.DefaultPageLimit, Total: 1, Pages: 1}, feed.Pagination)
}

// countingActivities records whether the ledger was queried.
type countingActivities struct {
	repository.ActivityRepository
	listed int
}

func (c *countingActivities) ListActivitiesForUsers(ctx context.Context, ids []string, opts repository.ListOptions) ([]model.FeedItem, int, error) {
	c.listed++
	return c.ActivityRepository.ListActivitiesForUsers(ctx, ids, opts)
}

func TestGetSocialFeed_FollowingNobody(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loner, other := env.user(t, "loner"), env.user(t, "other")

	_, err := env.library.UpsertEntry(ctx, other.ID, "3498", model.LibraryPatch{})
	require.NoError(t, err)

	spy := &countingActivities{ActivityRepository: env.db}
	feedSvc := NewFeedService(env.db, NewActivityLedger(spy, nil, env.ledger.logger), nil, env.ledger.logger)

	feed, err := feedSvc.GetSocialFeed(ctx, loner.ID, model.PageRequest{})
	require.NoError(t, err)
	assert.NotNil(t, feed.Activities)
	assert.Empty(t, feed.Activities)
	assert.Equal(t, 0, feed.Pagination.Total)
	assert.Equal(t, 0, spy.listed, "ledger must not be queried")
}

func TestGetSocialFeed_MissingReviewDegrades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.user(t, "a"), env.user(t, "b")
	game := env.game(t, "3498")
	require.NoError(t, env.social.Follow(ctx, a.ID, b.ID))

	// A REVIEW event whose review row never existed and with no rating set.
	_, err := env.ledger.Append(ctx, nil, b.ID, model.ActivityReview, model.ActivityInput{
		GameID:   game.ID,
		EntityID: "vanished",
	})
	require.NoError(t, err)

	feed, err := env.feed.GetSocialFeed(ctx, a.ID, model.PageRequest{})
	require.NoError(t, err)
	require.Len(t, feed.Activities, 1)
	assert.Nil(t, feed.Activities[0].ReviewContent)
	assert.Nil(t, feed.Activities[0].ReviewRating)
}

func TestGetSocialFeed_OnlyFollowedAuthorsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me, friend, stranger := env.user(t, "me"), env.user(t, "friend"), env.user(t, "stranger")
	require.NoError(t, env.social.Follow(ctx, me.ID, friend.ID))

	_, err := env.library.UpsertEntry(ctx, friend.ID, "3498", model.LibraryPatch{Status: statusp(model.StatusPlaying)})
	require.NoError(t, err)
	_, err = env.library.UpsertEntry(ctx, stranger.ID, "3498", model.LibraryPatch{})
	require.NoError(t, err)
	_, err = env.lists.CreateList(ctx, friend.ID, model.ListInput{Title: "Best of"})
	require.NoError(t, err)
	_, err = env.library.UpsertEntry(ctx, me.ID, "4200", model.LibraryPatch{})
	require.NoError(t, err)

	feed, err := env.feed.GetSocialFeed(ctx, me.ID, model.PageRequest{})
	require.NoError(t, err)
	require.Len(t, feed.Activities, 2)
	assert.Equal(t, model.ActivityListCreated, feed.Activities[0].Kind)
	assert.Equal(t, model.ActivityStarted, feed.Activities[1].Kind)
	for _, it := range feed.Activities {
		assert.Equal(t, friend.ID, it.UserID)
	}

	page2, err := env.feed.GetSocialFeed(ctx, me.ID, model.PageRequest{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page2.Activities, 1)
	assert.Equal(t, model.ActivityStarted, page2.Activities[0].Kind)
	assert.Equal(t, 2, page2.Pagination.Pages)
}
