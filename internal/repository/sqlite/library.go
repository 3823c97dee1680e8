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

var _ repository.LibraryRepository = (*DB)(nil)

const entryColumns = `e.id, e.user_id, e.game_id, e.status, e.rating, e.review, e.favorite, e.hours_played,
	e.session_count, e.started_at, e.completed_at, e.created_at, e.updated_at`

func (db *DB) GetEntry(ctx context.Context, userID, gameID string) (*model.LibraryEntry, error) {
	row := db.q.QueryRowContext(ctx, `
		SELECT `+entryColumns+`, g.title, g.cover_image, g.genres, g.avg_rating
		FROM library_entries e JOIN games g ON g.id = e.game_id
		WHERE e.user_id = ? AND e.game_id = ?`, userID, gameID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFoundf("game %s is not in the library of user %s", gameID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting library entry (%s, %s): %w", userID, gameID, err)
	}
	return entry, nil
}

// CreateEntry inserts a new (user, game) row. A concurrent insert of the
// same pair surfaces as ErrConflict so the caller can fall back to update.
func (db *DB) CreateEntry(ctx context.Context, entry *model.LibraryEntry) error {
	now := db.now()
	entry.ID = xid.New().String()
	entry.CreatedAt = now
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}

	_, err := db.q.ExecContext(ctx, `
		INSERT INTO library_entries (id, user_id, game_id, status, rating, review, favorite, hours_played,
			session_count, started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.GameID, entry.Status, nullInt(entry.Rating), nullString(entry.Review),
		boolInt(entry.Favorite), entry.HoursPlayed, entry.SessionCount,
		nullTime(entry.StartedAt), nullTime(entry.CompletedAt), entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflictf("game %s is already in the library", entry.GameID)
		}
		return fmt.Errorf("sqlite: inserting library entry: %w", err)
	}
	return nil
}

// UpdateEntry writes the user-editable fields. Hours and session count are
// only ever changed by AddSession.
func (db *DB) UpdateEntry(ctx context.Context, entry *model.LibraryEntry) error {
	res, err := db.q.ExecContext(ctx, `
		UPDATE library_entries
		SET status = ?, rating = ?, review = ?, favorite = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`,
		entry.Status, nullInt(entry.Rating), nullString(entry.Review), boolInt(entry.Favorite),
		nullTime(entry.StartedAt), nullTime(entry.CompletedAt), entry.UpdatedAt, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating library entry %s: %w", entry.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("library entry", entry.ID)
	}
	return nil
}

func (db *DB) ListEntries(ctx context.Context, userID string, status *model.LibraryStatus, opts repository.ListOptions) ([]model.LibraryEntry, int, error) {
	where := `e.user_id = ?`
	args := []any{userID}
	if status != nil {
		where += ` AND e.status = ?`
		args = append(args, *status)
	}

	var total int
	if err := db.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM library_entries e WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting library entries: %w", err)
	}

	rows, err := db.q.QueryContext(ctx, `
		SELECT `+entryColumns+`, g.title, g.cover_image, g.genres, g.avg_rating
		FROM library_entries e JOIN games g ON g.id = e.game_id
		WHERE `+where+`
		ORDER BY e.updated_at DESC, e.id DESC
		LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing library entries: %w", err)
	}
	defer rows.Close()

	entries := []model.LibraryEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning library entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating library entries: %w", err)
	}
	return entries, total, nil
}

func (db *DB) AddSession(ctx context.Context, session *model.PlaySession) error {
	session.ID = xid.New().String()
	if session.PlayedAt.IsZero() {
		session.PlayedAt = db.now()
	}

	res, err := db.q.ExecContext(ctx, `
		UPDATE library_entries
		SET hours_played = hours_played + ? / 60.0, session_count = session_count + 1, updated_at = ?
		WHERE id = ?`,
		session.DurationMinutes, session.PlayedAt, session.EntryID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating hours for entry %s: %w", session.EntryID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("library entry", session.EntryID)
	}

	if _, err := db.q.ExecContext(ctx, `
		INSERT INTO play_sessions (id, entry_id, duration_minutes, platform, note, played_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID, session.EntryID, session.DurationMinutes, session.Platform,
		nullString(session.Note), session.PlayedAt,
	); err != nil {
		return fmt.Errorf("sqlite: inserting play session: %w", err)
	}
	return nil
}

func (db *DB) CountByStatus(ctx context.Context, userID string) (map[model.LibraryStatus]int, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM library_entries WHERE user_id = ? GROUP BY status`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting statuses: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.LibraryStatus]int)
	for rows.Next() {
		var (
			status model.LibraryStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (db *DB) RatingSummary(ctx context.Context, userID string) (*float64, int, error) {
	var (
		avg   sql.NullFloat64
		count int
	)
	err := db.q.QueryRowContext(ctx,
		`SELECT AVG(rating), COUNT(rating) FROM library_entries WHERE user_id = ?`, userID,
	).Scan(&avg, &count)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: summarizing ratings: %w", err)
	}
	if !avg.Valid {
		return nil, count, nil
	}
	return &avg.Float64, count, nil
}

// GenreCounts explodes each entry's game genres with json_each and counts
// entries per genre, most common first.
func (db *DB) GenreCounts(ctx context.Context, userID string) ([]model.GenreCount, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT j.value, COUNT(*) AS n
		FROM library_entries e
		JOIN games g ON g.id = e.game_id, json_each(g.genres) j
		WHERE e.user_id = ?
		GROUP BY j.value
		ORDER BY n DESC, j.value ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting genres: %w", err)
	}
	defer rows.Close()

	out := []model.GenreCount{}
	for rows.Next() {
		var gc model.GenreCount
		if err := rows.Scan(&gc.Genre, &gc.GameCount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning genre count: %w", err)
		}
		out = append(out, gc)
	}
	return out, rows.Err()
}

// scanEntry reads entryColumns followed by the joined game summary columns.
func scanEntry(row interface{ Scan(...any) error }) (*model.LibraryEntry, error) {
	var (
		e                  model.LibraryEntry
		rating             sql.NullInt64
		review             sql.NullString
		favorite           int
		started, completed sql.NullTime
		gs                 model.GameSummary
		genres             string
	)
	dest := []any{&e.ID, &e.UserID, &e.GameID, &e.Status, &rating, &review, &favorite, &e.HoursPlayed,
		&e.SessionCount, &started, &completed, &e.CreatedAt, &e.UpdatedAt,
		&gs.Title, &gs.CoverImage, &genres, &gs.AvgRating}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.Rating = intPtr(rating)
	e.Review = stringPtr(review)
	e.Favorite = favorite != 0
	e.StartedAt = timePtr(started)
	e.CompletedAt = timePtr(completed)
	gs.ID = e.GameID
	gs.Genres = decodeStrings(genres)
	e.Game = &gs
	return &e, nil
}
