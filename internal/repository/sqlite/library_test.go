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

func TestCreateGame_DuplicateExternalID(t *testing.T) {
	db := newTestDB(t)
	createTestGame(t, db, "3498")

	err := db.CreateGame(context.Background(), &model.Game{ExternalID: "3498", Title: "again"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestGame_RoundTripsGenres(t *testing.T) {
	db := newTestDB(t)
	g := createTestGame(t, db, "3498", "Action", "RPG")

	got, err := db.GetGameByExternalID(context.Background(), "3498")
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, []string{"Action", "RPG"}, got.Genres)
	assert.Equal(t, []string{}, got.Platforms)
}

func TestCreateEntry_DuplicatePair(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "alice")
	g := createTestGame(t, db, "1")
	createTestEntry(t, db, u.ID, g.ID, model.StatusBacklog, nil)

	err := db.CreateEntry(context.Background(), &model.LibraryEntry{UserID: u.ID, GameID: g.ID, Status: model.StatusPlaying})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRecomputeGameRating(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	g := createTestGame(t, db, "1")
	for i, r := range []*int{intp(6), intp(9), nil} {
		u := createTestUser(t, db, string(rune('a'+i)))
		createTestEntry(t, db, u.ID, g.ID, model.StatusCompleted, r)
	}

	require.NoError(t, db.RecomputeGameRating(ctx, g.ID))

	got, err := db.GetGameByID(ctx, g.ID)
	require.NoError(t, err)
	assert.InDelta(t, 7.5, got.AvgRating, 1e-9)
	assert.Equal(t, 2, got.RatingCount)
}

func TestRecomputeGameRating_NoRatings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	g := createTestGame(t, db, "1")

	require.NoError(t, db.RecomputeGameRating(ctx, g.ID))
	got, err := db.GetGameByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AvgRating)
	assert.Zero(t, got.RatingCount)

	assert.ErrorIs(t, db.RecomputeGameRating(ctx, "missing"), apperror.ErrNotFound)
}

func TestAddSession_AccumulatesHours(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	g := createTestGame(t, db, "1")
	e := createTestEntry(t, db, u.ID, g.ID, model.StatusPlaying, nil)

	require.NoError(t, db.AddSession(ctx, &model.PlaySession{EntryID: e.ID, DurationMinutes: 90, Platform: "PC"}))
	require.NoError(t, db.AddSession(ctx, &model.PlaySession{EntryID: e.ID, DurationMinutes: 30, Platform: "PC"}))

	got, err := db.GetEntry(ctx, u.ID, g.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got.HoursPlayed, 1e-9)
	assert.Equal(t, 2, got.SessionCount)
	require.NotNil(t, got.Game)
	assert.Equal(t, g.Title, got.Game.Title)

	err = db.AddSession(ctx, &model.PlaySession{EntryID: "missing", DurationMinutes: 10})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListEntries_FiltersByStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	for i, s := range []model.LibraryStatus{model.StatusPlaying, model.StatusCompleted, model.StatusPlaying} {
		g := createTestGame(t, db, string(rune('1'+i)))
		createTestEntry(t, db, u.ID, g.ID, s, nil)
	}

	all, total, err := db.ListEntries(ctx, u.ID, nil, repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)

	playing := model.StatusPlaying
	some, total, err := db.ListEntries(ctx, u.ID, &playing, repository.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, some, 1)
}

func TestAnalyticsQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	g1 := createTestGame(t, db, "1", "Action", "RPG")
	g2 := createTestGame(t, db, "2", "RPG")
	g3 := createTestGame(t, db, "3", "Puzzle", "RPG", "Action")
	createTestEntry(t, db, u.ID, g1.ID, model.StatusCompleted, intp(8))
	createTestEntry(t, db, u.ID, g2.ID, model.StatusCompleted, intp(7))
	createTestEntry(t, db, u.ID, g3.ID, model.StatusPlaying, nil)

	counts, err := db.CountByStatus(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, map[model.LibraryStatus]int{model.StatusCompleted: 2, model.StatusPlaying: 1}, counts)

	avg, rated, err := db.RatingSummary(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 7.5, *avg, 1e-9)
	assert.Equal(t, 2, rated)

	genres, err := db.GenreCounts(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.GenreCount{
		{Genre: "RPG", GameCount: 3},
		{Genre: "Action", GameCount: 2},
		{Genre: "Puzzle", GameCount: 1},
	}, genres)
}

func TestRatingSummary_NoRatings(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "alice")

	avg, rated, err := db.RatingSummary(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Nil(t, avg)
	assert.Zero(t, rated)
}
