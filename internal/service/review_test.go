package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
)

func TestSubmitReview_CreateThenUpdateInPlace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "critic")
	game := env.game(t, "3498")

	first, err := env.reviews.SubmitReview(ctx, u.ID, game.ID, model.ReviewInput{Content: "  Loved it.  "})
	require.NoError(t, err)
	assert.Equal(t, "Loved it.", first.Content)
	require.NotNil(t, first.Author)
	assert.Equal(t, "critic", first.Author.Handle)
	assert.Nil(t, first.Rating)

	second, err := env.reviews.SubmitReview(ctx, u.ID, game.ID, model.ReviewInput{Content: "Loved it even more."})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Loved it even more.", second.Content)

	page, err := env.reviews.ListGameReviews(ctx, game.ID, "", model.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Pagination.Total, "one review per pair")
	assert.Equal(t, "Loved it even more.", page.Items[0].Content)

	events := env.activities(t, u.ID)
	require.Len(t, events, 1, "only the first submission is news")
	assert.Equal(t, model.ActivityReview, events[0].Kind)
	assert.Equal(t, first.ID, *events[0].EntityID)
}

func TestSubmitReview_RatingSyncsLibraryAndAggregate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "critic")
	game := env.game(t, "3498")

	review, err := env.reviews.SubmitReview(ctx, u.ID, game.ID, model.ReviewInput{Content: "Solid.", Rating: intp(8)})
	require.NoError(t, err)
	require.NotNil(t, review.Rating)
	assert.Equal(t, 8, *review.Rating)

	entry, err := env.library.GetEntry(ctx, u.ID, game.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPlaying, entry.Status, "a minimal entry is created as in progress")
	assert.Equal(t, 8, *entry.Rating)

	g := env.reloadGame(t, game.ID)
	assert.Equal(t, 8.0, g.AvgRating)
	assert.Equal(t, 1, g.RatingCount)

	// Rating an existing entry keeps its status.
	_, err = env.library.UpsertEntry(ctx, u.ID, game.ID, model.LibraryPatch{Status: statusp(model.StatusCompleted)})
	require.NoError(t, err)
	_, err = env.reviews.SubmitReview(ctx, u.ID, game.ID, model.ReviewInput{Content: "Solid.", Rating: intp(4)})
	require.NoError(t, err)

	entry, err = env.library.GetEntry(ctx, u.ID, game.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, entry.Status)
	assert.Equal(t, 4.0, env.reloadGame(t, game.ID).AvgRating)
}

func TestSubmitReview_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "critic")
	game := env.game(t, "3498")

	_, err := env.reviews.SubmitReview(ctx, u.ID, "no-such-game", model.ReviewInput{Content: "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = env.reviews.SubmitReview(ctx, u.ID, game.ID, model.ReviewInput{Content: "   "})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.reviews.SubmitReview(ctx, u.ID, game.ID, model.ReviewInput{Content: "x", Rating: intp(0)})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Empty(t, env.activities(t, u.ID))
}

func TestLikeReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "critic")
	game := env.game(t, "3498")

	review, err := env.reviews.SubmitReview(ctx, u.ID, game.ID, model.ReviewInput{Content: "ok"})
	require.NoError(t, err)

	for want := 1; want <= 3; want++ {
		likes, err := env.reviews.LikeReview(ctx, review.ID)
		require.NoError(t, err)
		assert.Equal(t, want, likes)
	}

	_, err = env.reviews.LikeReview(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListGameReviews_SortByLikes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	game := env.game(t, "3498")

	var ids []string
	for _, h := range []string{"a", "b", "c"} {
		u := env.user(t, h)
		r, err := env.reviews.SubmitReview(ctx, u.ID, game.ID, model.ReviewInput{Content: "by " + h})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	_, err := env.reviews.LikeReview(ctx, ids[1])
	require.NoError(t, err)

	page, err := env.reviews.ListGameReviews(ctx, game.ID, model.SortLikes, model.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, ids[1], page.Items[0].ID)

	recent, err := env.reviews.ListGameReviews(ctx, game.ID, model.SortRecent, model.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, recent.Items, 2)
	assert.Equal(t, 2, recent.Pagination.Pages)

	_, err = env.reviews.ListGameReviews(ctx, game.ID, "stars", model.PageRequest{})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestListUserReviews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "critic")

	for _, ext := range []string{"3498", "4200"} {
		g := env.game(t, ext)
		_, err := env.reviews.SubmitReview(ctx, u.ID, g.ID, model.ReviewInput{Content: "fine"})
		require.NoError(t, err)
	}

	page, err := env.reviews.ListUserReviews(ctx, u.ID, model.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Total)
	require.NotNil(t, page.Items[0].Game)

	_, err = env.reviews.ListUserReviews(ctx, "ghost", model.PageRequest{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetReviewStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	game := env.game(t, "3498")

	for h, rating := range map[string]int{"a": 8, "b": 8, "c": 5} {
		u := env.user(t, h)
		_, err := env.reviews.SubmitReview(ctx, u.ID, game.ID, model.ReviewInput{Content: "r", Rating: intp(rating)})
		require.NoError(t, err)
	}
	rater := env.user(t, "d")
	_, err := env.library.UpsertEntry(ctx, rater.ID, game.ID, model.LibraryPatch{Rating: intp(10)})
	require.NoError(t, err)

	stats, err := env.reviews.GetReviewStats(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalRatings)
	assert.Equal(t, 3, stats.TotalReviews)
	require.NotNil(t, stats.AverageRating)
	assert.Equal(t, 7.8, *stats.AverageRating)
	assert.Equal(t, []model.RatingBucket{{Rating: 5, Count: 1}, {Rating: 8, Count: 2}, {Rating: 10, Count: 1}}, stats.Distribution)

	_, err = env.reviews.GetReviewStats(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
