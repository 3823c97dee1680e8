package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

var _ repository.GameRepository = (*DB)(nil)

const gameColumns = `id, external_id, title, description, cover_image, release_date, genres, platforms,
	developer, publisher, avg_rating, rating_count, created_at, updated_at`

// CreateGame materializes a catalog game locally. The rating aggregate
// always starts at zero regardless of what the caller set.
func (db *DB) CreateGame(ctx context.Context, game *model.Game) error {
	now := db.now()
	game.ID = xid.New().String()
	game.AvgRating = 0
	game.RatingCount = 0
	game.CreatedAt = now
	game.UpdatedAt = now

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO games (`+gameColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		game.ID, game.ExternalID, game.Title, game.Description, game.CoverImage,
		nullTime(game.ReleaseDate), encodeStrings(game.Genres), encodeStrings(game.Platforms),
		game.Developer, game.Publisher, game.CreatedAt, game.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("game", game.ExternalID)
		}
		return fmt.Errorf("sqlite: inserting game %s: %w", game.ExternalID, err)
	}
	return nil
}

func (db *DB) GetGameByID(ctx context.Context, id string) (*model.Game, error) {
	g, err := scanGame(db.q.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("game", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting game %s: %w", id, err)
	}
	return g, nil
}

func (db *DB) GetGameByExternalID(ctx context.Context, externalID string) (*model.Game, error) {
	g, err := scanGame(db.q.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE external_id = ?`, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFoundf("game not found with catalog id %s", externalID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting game by external id %s: %w", externalID, err)
	}
	return g, nil
}

// RecomputeGameRating derives the aggregate with a single UPDATE ... SELECT,
// so the value comes from the rows as they are inside the current
// transaction and never from a value the caller computed earlier.
func (db *DB) RecomputeGameRating(ctx context.Context, gameID string) error {
	res, err := db.q.ExecContext(ctx, `
		UPDATE games SET
			avg_rating   = COALESCE((SELECT AVG(rating) FROM library_entries WHERE game_id = ? AND rating IS NOT NULL), 0),
			rating_count = (SELECT COUNT(rating) FROM library_entries WHERE game_id = ?),
			updated_at   = ?
		WHERE id = ?`,
		gameID, gameID, db.now(), gameID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: recomputing rating for game %s: %w", gameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("game", gameID)
	}
	return nil
}

func scanGame(row interface{ Scan(...any) error }) (*model.Game, error) {
	var (
		g                 model.Game
		release           sql.NullTime
		genres, platforms string
	)
	err := row.Scan(&g.ID, &g.ExternalID, &g.Title, &g.Description, &g.CoverImage, &release,
		&genres, &platforms, &g.Developer, &g.Publisher, &g.AvgRating, &g.RatingCount,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.ReleaseDate = timePtr(release)
	g.Genres = decodeStrings(genres)
	g.Platforms = decodeStrings(platforms)
	return &g, nil
}
