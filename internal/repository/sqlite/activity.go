package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

var _ repository.ActivityRepository = (*DB)(nil)

func (db *DB) AppendActivity(ctx context.Context, a *model.Activity) error {
	a.ID = xid.New().String()
	a.CreatedAt = db.now()

	var metadata sql.NullString
	if len(a.Metadata) > 0 {
		metadata = sql.NullString{String: string(a.Metadata), Valid: true}
	}

	_, err := db.q.ExecContext(ctx, `
		INSERT INTO activities (id, user_id, game_id, kind, entity_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, nullString(a.GameID), a.Kind, nullString(a.EntityID), metadata, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: appending %s activity: %w", a.Kind, err)
	}
	return nil
}

// ListActivitiesForUsers orders by insertion sequence, which matches
// creation order because appends are serialized.
func (db *DB) ListActivitiesForUsers(ctx context.Context, userIDs []string, opts repository.ListOptions) ([]model.FeedItem, int, error) {
	if len(userIDs) == 0 {
		return []model.FeedItem{}, 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(userIDs)), ",")
	args := make([]any, 0, len(userIDs)+2)
	for _, id := range userIDs {
		args = append(args, id)
	}

	var total int
	if err := db.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activities WHERE user_id IN (`+placeholders+`)`, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting activities: %w", err)
	}

	rows, err := db.q.QueryContext(ctx, `
		SELECT a.id, a.user_id, a.game_id, a.kind, a.entity_id, a.metadata, a.created_at,
		       u.handle, u.display_name, u.avatar_url,
		       g.title, g.cover_image, g.avg_rating
		FROM activities a
		JOIN users u ON u.id = a.user_id
		LEFT JOIN games g ON g.id = a.game_id
		WHERE a.user_id IN (`+placeholders+`)
		ORDER BY a.seq DESC
		LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing activities: %w", err)
	}
	defer rows.Close()

	items := []model.FeedItem{}
	for rows.Next() {
		var (
			it                   model.FeedItem
			actor                model.UserSummary
			gameID, entityID     sql.NullString
			metadata             sql.NullString
			gameTitle, gameCover sql.NullString
			gameRating           sql.NullFloat64
		)
		if err := rows.Scan(&it.ID, &it.UserID, &gameID, &it.Kind, &entityID, &metadata, &it.CreatedAt,
			&actor.Handle, &actor.DisplayName, &actor.AvatarURL,
			&gameTitle, &gameCover, &gameRating); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning activity: %w", err)
		}
		it.GameID = stringPtr(gameID)
		it.EntityID = stringPtr(entityID)
		if metadata.Valid {
			it.Metadata = []byte(metadata.String)
		}
		actor.ID = it.UserID
		it.User = &actor
		if it.GameID != nil && gameTitle.Valid {
			it.Game = &model.GameSummary{
				ID:         *it.GameID,
				Title:      gameTitle.String,
				CoverImage: gameCover.String,
				AvgRating:  gameRating.Float64,
			}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating activities: %w", err)
	}
	return items, total, nil
}
