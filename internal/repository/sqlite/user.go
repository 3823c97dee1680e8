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

var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, handle, email, password_hash, github_id, display_name, avatar_url, bio, created_at, updated_at`

// CreateUser inserts a new user, filling in ID and timestamps.
// A taken handle, email or GitHub id is reported as ErrConflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := db.now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	var githubID sql.NullInt64
	if user.GitHubID != nil {
		githubID = sql.NullInt64{Int64: *user.GitHubID, Valid: true}
	}

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Handle, user.Email, user.PasswordHash, githubID,
		user.DisplayName, user.AvatarURL, user.Bio, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflictf("handle or email is already registered")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Handle, err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

func (db *DB) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	u, err := scanUser(db.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE handle = ? OR email = ? LIMIT 1`, login, login))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFoundf("no user with handle or email %s", login)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by login: %w", err)
	}
	return u, nil
}

// UpsertGitHubUser keeps the internal ID stable across logins: an existing
// row matched by github_id gets its avatar and display name refreshed, a new
// GitHub account gets a fresh row.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return fmt.Errorf("sqlite: upserting github user: missing github id")
	}

	existing, err := scanUser(db.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, *user.GitHubID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return db.CreateUser(ctx, user)
	case err != nil:
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", *user.GitHubID, err)
	}

	existing.AvatarURL = user.AvatarURL
	if user.DisplayName != "" {
		existing.DisplayName = user.DisplayName
	}
	existing.UpdatedAt = db.now()
	if _, err := db.q.ExecContext(ctx,
		`UPDATE users SET avatar_url = ?, display_name = ?, updated_at = ? WHERE id = ?`,
		existing.AvatarURL, existing.DisplayName, existing.UpdatedAt, existing.ID,
	); err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", existing.ID, err)
	}
	*user = *existing
	return nil
}

func (db *DB) GetUserCounts(ctx context.Context, id string) (*repository.UserCounts, error) {
	var c repository.UserCounts
	err := db.q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE followee_id = ?),
			(SELECT COUNT(*) FROM follows WHERE follower_id = ?),
			(SELECT COUNT(*) FROM library_entries WHERE user_id = ?),
			(SELECT COALESCE(SUM(s.duration_minutes), 0)
			   FROM play_sessions s JOIN library_entries e ON e.id = s.entry_id
			  WHERE e.user_id = ?)`,
		id, id, id, id,
	).Scan(&c.Followers, &c.Following, &c.Library, &c.SessionMinutes)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting stats for user %s: %w", id, err)
	}
	return &c, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Handle, &u.Email, &u.PasswordHash, &githubID,
		&u.DisplayName, &u.AvatarURL, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if githubID.Valid {
		id := githubID.Int64
		u.GitHubID = &id
	}
	return &u, nil
}
