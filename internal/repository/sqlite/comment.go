package sqlite

import (
	"context"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = db.now()

	_, err := db.q.ExecContext(ctx, `
		INSERT INTO comments (id, user_id, game_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.UserID, comment.GameID, comment.Content, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting comment: %w", err)
	}
	return nil
}

func (db *DB) ListCommentsByGame(ctx context.Context, gameID string, opts repository.ListOptions) ([]model.Comment, int, error) {
	var total int
	if err := db.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE game_id = ?`, gameID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting comments for game %s: %w", gameID, err)
	}

	rows, err := db.q.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.game_id, c.content, c.created_at,
		       u.handle, u.display_name, u.avatar_url
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.game_id = ?
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT ? OFFSET ?`,
		gameID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing comments for game %s: %w", gameID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var (
			c      model.Comment
			author model.UserSummary
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.GameID, &c.Content, &c.CreatedAt,
			&author.Handle, &author.DisplayName, &author.AvatarURL); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning comment: %w", err)
		}
		author.ID = c.UserID
		c.Author = &author
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, total, nil
}
