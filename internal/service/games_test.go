package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
)

func TestResolveGame_MaterializesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.games.ResolveGame(ctx, "3498")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "3498", first.ExternalID)
	assert.Equal(t, "Grand Theft Auto V", first.Title)

	byExternal, err := env.games.ResolveGame(ctx, "3498")
	require.NoError(t, err)
	byLocal, err := env.games.ResolveGame(ctx, first.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, byExternal.ID)
	assert.Equal(t, first.ID, byLocal.ID)
	assert.Equal(t, 1, env.catalog.calls, "catalog is only asked the first time")
}

func TestResolveGame_SlugAndIDShareOneGame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "u")

	byID, err := env.library.UpsertEntry(ctx, u.ID, "3498", model.LibraryPatch{Rating: intp(8)})
	require.NoError(t, err)

	bySlug, err := env.games.ResolveGame(ctx, "grand-theft-auto-v")
	require.NoError(t, err)
	assert.Equal(t, byID.GameID, bySlug.ID)
	assert.Equal(t, "3498", bySlug.ExternalID)

	other := env.user(t, "v")
	entry, err := env.library.UpsertEntry(ctx, other.ID, "grand-theft-auto-v", model.LibraryPatch{Rating: intp(6)})
	require.NoError(t, err)
	assert.Equal(t, byID.GameID, entry.GameID)

	game := env.reloadGame(t, byID.GameID)
	assert.Equal(t, 2, game.RatingCount)
	assert.Equal(t, 7.0, game.AvgRating)
}

func TestResolveGame_SlugFirstStoresCanonicalID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bySlug, err := env.games.ResolveGame(ctx, "grand-theft-auto-v")
	require.NoError(t, err)
	assert.Equal(t, "3498", bySlug.ExternalID)

	byID, err := env.games.ResolveGame(ctx, "3498")
	require.NoError(t, err)
	assert.Equal(t, bySlug.ID, byID.ID)
	assert.Equal(t, 1, env.catalog.calls)
}

func TestResolveGame_CatalogErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.games.ResolveGame(ctx, "999999")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	env.catalog.err = apperror.CatalogUnavailable("rawg", errors.New("connection refused"))
	_, err = env.games.ResolveGame(ctx, "4200")
	assert.ErrorIs(t, err, apperror.ErrCatalogUnavailable)

	_, err = env.db.GetGameByExternalID(ctx, "4200")
	assert.ErrorIs(t, err, apperror.ErrNotFound, "nothing is persisted on failure")

	_, err = env.games.ResolveGame(ctx, "  ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGetGame_Enrichment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	plain, err := env.games.GetGame(ctx, "3498")
	require.NoError(t, err)
	assert.NotNil(t, plain.Screenshots)
	assert.Empty(t, plain.Screenshots)

	env.games.enricher = &fakeEnricher{extra: &model.GameEnrichment{
		Storyline:   "Three criminals.",
		Screenshots: []model.Screenshot{{URL: "a.jpg"}},
	}}
	rich, err := env.games.GetGame(ctx, "3498")
	require.NoError(t, err)
	assert.Equal(t, "Three criminals.", rich.Storyline)
	assert.Len(t, rich.Screenshots, 1)
	assert.Equal(t, plain.ID, rich.ID)

	env.games.enricher = &fakeEnricher{err: apperror.CatalogUnavailable("igdb", errors.New("timeout"))}
	degraded, err := env.games.GetGame(ctx, "3498")
	require.NoError(t, err, "enrichment failure must not fail the request")
	assert.Empty(t, degraded.Storyline)
}
