package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

var _ repository.FollowRepository = (*DB)(nil)

func (db *DB) CreateFollow(ctx context.Context, follow *model.Follow) error {
	follow.CreatedAt = db.now()
	_, err := db.q.ExecContext(ctx,
		`INSERT INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)`,
		follow.FollowerID, follow.FolloweeID, follow.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflictf("Already following this user")
		}
		return fmt.Errorf("sqlite: inserting follow: %w", err)
	}
	return nil
}

func (db *DB) DeleteFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	res, err := db.q.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting follow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting follow: %w", err)
	}
	return n > 0, nil
}

// IsFollowing is a primary-key lookup.
func (db *DB) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var exists bool
	err := db.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = ? AND followee_id = ?)`,
		followerID, followeeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow: %w", err)
	}
	return exists, nil
}

func (db *DB) ListFollowers(ctx context.Context, userID string, opts repository.ListOptions) ([]model.UserSummary, int, error) {
	return db.listEdges(ctx, "followee_id", "follower_id", userID, opts)
}

func (db *DB) ListFollowing(ctx context.Context, userID string, opts repository.ListOptions) ([]model.UserSummary, int, error) {
	return db.listEdges(ctx, "follower_id", "followee_id", userID, opts)
}

// listEdges pages through the users on the other end of userID's edges,
// most recent edge first. matchCol and otherCol are fixed column names.
func (db *DB) listEdges(ctx context.Context, matchCol, otherCol, userID string, opts repository.ListOptions) ([]model.UserSummary, int, error) {
	var total int
	if err := db.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE `+matchCol+` = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting follows: %w", err)
	}

	rows, err := db.q.QueryContext(ctx, `
		SELECT u.id, u.handle, u.display_name, u.avatar_url, u.bio
		FROM follows f JOIN users u ON u.id = f.`+otherCol+`
		WHERE f.`+matchCol+` = ?
		ORDER BY f.created_at DESC, u.id DESC
		LIMIT ? OFFSET ?`,
		userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing follows: %w", err)
	}
	defer rows.Close()

	users := []model.UserSummary{}
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Handle, &u.DisplayName, &u.AvatarURL, &u.Bio); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning follow: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating follows: %w", err)
	}
	return users, total, nil
}

func (db *DB) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT followee_id FROM follows WHERE follower_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading following set: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning followee: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
