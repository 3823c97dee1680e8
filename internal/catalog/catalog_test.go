package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/playtrack/internal/config"
	"github.com/sakif/playtrack/internal/model"
)

type stubLookup struct{ calls int }

func (s *stubLookup) FetchGame(_ context.Context, externalID string) (*model.Game, error) {
	s.calls++
	return &model.Game{ExternalID: externalID, Title: "stub"}, nil
}

func TestNewCachedLookup_NilClientPassesThrough(t *testing.T) {
	next := &stubLookup{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	l := NewCachedLookup(next, nil, time.Hour, logger, nil)
	assert.Same(t, next, l)

	g, err := l.FetchGame(context.Background(), "42")
	assert.NoError(t, err)
	assert.Equal(t, "42", g.ExternalID)
	assert.Equal(t, 1, next.calls)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "catalog:game:3498", cacheKey("3498"))
}

func TestNewRedis_EmptyAddrDisablesCache(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rdb, err := NewRedis(context.Background(), config.RedisConfig{}, logger)
	assert.NoError(t, err)
	assert.Nil(t, rdb)
}
