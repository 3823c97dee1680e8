package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
	"github.com/sakif/playtrack/internal/repository/sqlite"
)

// fakeCatalog serves games from a map and counts calls.
type fakeCatalog struct {
	mu    sync.Mutex
	games map[string]model.Game
	err   error
	calls int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{games: map[string]model.Game{
		"3498": {Title: "Grand Theft Auto V", Genres: []string{"Action", "Adventure"}, Platforms: []string{"PC"}},
		"4200": {Title: "Portal 2", Genres: []string{"Puzzle", "Shooter"}},
		// slug lookups answer with the canonical numeric id
		"grand-theft-auto-v": {ExternalID: "3498", Title: "Grand Theft Auto V", Genres: []string{"Action", "Adventure"}},
	}}
}

func (f *fakeCatalog) FetchGame(_ context.Context, externalID string) (*model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	g, ok := f.games[externalID]
	if !ok {
		return nil, apperror.NotFoundf("catalog has no game %s", externalID)
	}
	if g.ExternalID == "" {
		g.ExternalID = externalID
	}
	return &g, nil
}

// fakeEnricher returns canned enrichment or err.
type fakeEnricher struct {
	extra *model.GameEnrichment
	err   error
}

func (f *fakeEnricher) Enrich(context.Context, string) (*model.GameEnrichment, error) {
	return f.extra, f.err
}

type testEnv struct {
	db        *sqlite.DB
	catalog   *fakeCatalog
	ledger    *ActivityLedger
	games     *GameService
	library   *LibraryService
	reviews   *ReviewService
	comments  *CommentService
	social    *SocialService
	feed      *FeedService
	lists     *ListService
	analytics *AnalyticsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat := newFakeCatalog()
	ledger := NewActivityLedger(db, nil, logger)
	games := NewGameService(db, cat, nil, logger)

	return &testEnv{
		db:        db,
		catalog:   cat,
		ledger:    ledger,
		games:     games,
		library:   NewLibraryService(db, games, ledger, logger),
		reviews:   NewReviewService(db, ledger, logger),
		comments:  NewCommentService(db, ledger, logger),
		social:    NewSocialService(db, logger),
		feed:      NewFeedService(db, ledger, nil, logger),
		lists:     NewListService(db, ledger, logger),
		analytics: NewAnalyticsService(db),
	}
}

func (e *testEnv) user(t *testing.T, handle string) *model.User {
	t.Helper()
	u := &model.User{Handle: handle, Email: handle + "@example.com", DisplayName: handle}
	require.NoError(t, e.db.CreateUser(context.Background(), u))
	return u
}

// game materializes a game through the catalog path and returns it.
func (e *testEnv) game(t *testing.T, externalID string) *model.Game {
	t.Helper()
	g, err := e.games.ResolveGame(context.Background(), externalID)
	require.NoError(t, err)
	return g
}

// localGame creates a game directly in the store.
func (e *testEnv) localGame(t *testing.T, externalID string, genres ...string) *model.Game {
	t.Helper()
	g := &model.Game{ExternalID: externalID, Title: "Game " + externalID, Genres: genres}
	require.NoError(t, e.db.CreateGame(context.Background(), g))
	return g
}

func (e *testEnv) activities(t *testing.T, userID string) []model.FeedItem {
	t.Helper()
	items, _, err := e.db.ListActivitiesForUsers(context.Background(), []string{userID}, repository.ListOptions{Limit: 100})
	require.NoError(t, err)
	return items
}

func (e *testEnv) reloadGame(t *testing.T, id string) *model.Game {
	t.Helper()
	g, err := e.db.GetGameByID(context.Background(), id)
	require.NoError(t, err)
	return g
}

func statusp(s model.LibraryStatus) *model.LibraryStatus { return &s }
func intp(i int) *int                                    { return &i }
func strp(s string) *string                              { return &s }
func boolp(b bool) *bool                                 { return &b }
