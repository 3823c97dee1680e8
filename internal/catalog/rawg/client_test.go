package rawg

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playtrack/internal/apperror"
)

const witcherJSON = `{
	"id": 3328,
	"name": "The Witcher 3: Wild Hunt",
	"description_raw": "Geralt hunts monsters.",
	"background_image": "https://media.rawg.io/w3.jpg",
	"released": "2015-05-18",
	"genres": [{"name": "Action"}, {"name": "RPG"}],
	"platforms": [{"platform": {"name": "PC"}}, {"platform": {"name": "PlayStation 4"}}],
	"developers": [{"name": "CD PROJEKT RED"}],
	"publishers": [{"name": "CD PROJEKT RED"}]
}`

func newTestClient(t *testing.T, h http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient("secret", srv.URL, timeout, logger, nil)
}

func TestFetchGame(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games/3328", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		w.Write([]byte(witcherJSON))
	}, time.Second)

	g, err := c.FetchGame(context.Background(), "3328")
	require.NoError(t, err)
	assert.Equal(t, "3328", g.ExternalID)
	assert.Equal(t, "The Witcher 3: Wild Hunt", g.Title)
	assert.Equal(t, []string{"Action", "RPG"}, g.Genres)
	assert.Equal(t, []string{"PC", "PlayStation 4"}, g.Platforms)
	assert.Equal(t, "CD PROJEKT RED", g.Developer)
	require.NotNil(t, g.ReleaseDate)
	assert.Equal(t, 2015, g.ReleaseDate.Year())
	assert.Empty(t, g.ID, "the catalog never assigns local ids")
}

func TestFetchGame_SlugResolvesToNumericID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games/the-witcher-3-wild-hunt", r.URL.Path)
		w.Write([]byte(witcherJSON))
	}, time.Second)

	g, err := c.FetchGame(context.Background(), "the-witcher-3-wild-hunt")
	require.NoError(t, err)
	assert.Equal(t, "3328", g.ExternalID)
}

func TestFetchGame_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Not found."}`, http.StatusNotFound)
	}, time.Second)

	_, err := c.FetchGame(context.Background(), "999999")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFetchGame_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, time.Second)

	_, err := c.FetchGame(context.Background(), "1")
	assert.ErrorIs(t, err, apperror.ErrCatalogUnavailable)
}

func TestFetchGame_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)

	start := time.Now()
	_, err := c.FetchGame(context.Background(), "1")
	assert.ErrorIs(t, err, apperror.ErrCatalogUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}
