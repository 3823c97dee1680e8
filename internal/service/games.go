package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/playtrack/internal/catalog"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

// GameService owns lazy materialization of catalog games.
//
// A game reference is either a local id or an external catalog id. The
// first time an unknown catalog id is referenced the game is fetched from
// the catalog and persisted; after that it is served from the store.
type GameService struct {
	games    repository.GameRepository
	lookup   catalog.Lookup
	enricher catalog.Enricher
	logger   *slog.Logger
}

// NewGameService wires the service. enricher may be nil, in which case
// GetGame returns details without screenshots or storyline.
func NewGameService(games repository.GameRepository, lookup catalog.Lookup, enricher catalog.Enricher, logger *slog.Logger) *GameService {
	return &GameService{games: games, lookup: lookup, enricher: enricher, logger: logger}
}

// ResolveGame returns the local game for ref, materializing it from the
// catalog when needed. Catalog failures surface unchanged as
// ErrCatalogUnavailable or ErrNotFound. Never call this inside a
// transaction.
func (s *GameService) ResolveGame(ctx context.Context, ref string) (*model.Game, error) {
	ref, err := requireID("gameId", ref)
	if err != nil {
		return nil, err
	}

	game, err := s.games.GetGameByID(ctx, ref)
	if err == nil {
		return game, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("resolving game %s: %w", ref, err)
	}

	game, err = s.games.GetGameByExternalID(ctx, ref)
	if err == nil {
		return game, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("resolving game %s: %w", ref, err)
	}

	fetched, err := s.lookup.FetchGame(ctx, ref)
	if err != nil {
		return nil, err
	}
	if fetched.ExternalID == "" {
		fetched.ExternalID = ref
	}
	// A slug resolves to the same canonical id as the numeric ref.
	if fetched.ExternalID != ref {
		game, err = s.games.GetGameByExternalID(ctx, fetched.ExternalID)
		if err == nil {
			return game, nil
		}
		if !isNotFound(err) {
			return nil, fmt.Errorf("resolving game %s: %w", ref, err)
		}
	}

	if err := s.games.CreateGame(ctx, fetched); err != nil {
		if !isConflict(err) {
			return nil, fmt.Errorf("materializing game %s: %w", ref, err)
		}
		// Someone else materialized it between our read and our insert.
		return s.games.GetGameByExternalID(ctx, fetched.ExternalID)
	}

	s.logger.Info("game materialized from catalog",
		slog.String("gameID", fetched.ID),
		slog.String("externalID", fetched.ExternalID),
		slog.String("title", fetched.Title),
	)
	return fetched, nil
}

// GetGame resolves ref and attaches live enrichment. Enrichment is best
// effort: any failure leaves the extra fields empty.
func (s *GameService) GetGame(ctx context.Context, ref string) (*model.GameDetail, error) {
	game, err := s.ResolveGame(ctx, ref)
	if err != nil {
		return nil, err
	}

	detail := &model.GameDetail{
		Game: *game,
		GameEnrichment: model.GameEnrichment{
			Screenshots: []model.Screenshot{},
			Themes:      []string{},
			GameModes:   []string{},
		},
	}
	if s.enricher == nil {
		return detail, nil
	}

	extra, err := s.enricher.Enrich(ctx, game.Title)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn("game enrichment failed",
				slog.String("gameID", game.ID),
				slog.String("error", err.Error()),
			)
		}
		return detail, nil
	}
	detail.GameEnrichment = *extra
	return detail, nil
}
