package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/rs/xid"
	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

var _ repository.ReviewRepository = (*DB)(nil)

const reviewColumns = `r.id, r.user_id, r.game_id, r.content, r.likes, r.created_at, r.updated_at`

func (db *DB) GetReviewByID(ctx context.Context, id string) (*model.Review, error) {
	r, err := scanReview(db.q.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews r WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("review", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting review %s: %w", id, err)
	}
	return r, nil
}

func (db *DB) GetReviewByUserGame(ctx context.Context, userID, gameID string) (*model.Review, error) {
	r, err := scanReview(db.q.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews r WHERE r.user_id = ? AND r.game_id = ?`, userID, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFoundf("user %s has not reviewed game %s", userID, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting review (%s, %s): %w", userID, gameID, err)
	}
	return r, nil
}

func (db *DB) CreateReview(ctx context.Context, review *model.Review) error {
	now := db.now()
	review.ID = xid.New().String()
	review.Likes = 0
	review.CreatedAt = now
	review.UpdatedAt = now

	_, err := db.q.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, game_id, content, likes, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		review.ID, review.UserID, review.GameID, review.Content, review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflictf("user has already reviewed game %s", review.GameID)
		}
		return fmt.Errorf("sqlite: inserting review: %w", err)
	}
	return nil
}

// UpdateReview rewrites the content and bumps updated_at. Likes are left alone.
func (db *DB) UpdateReview(ctx context.Context, review *model.Review) error {
	review.UpdatedAt = db.now()
	res, err := db.q.ExecContext(ctx,
		`UPDATE reviews SET content = ?, updated_at = ? WHERE id = ?`,
		review.Content, review.UpdatedAt, review.ID)
	if err != nil {
		return fmt.Errorf("sqlite: updating review %s: %w", review.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("review", review.ID)
	}
	return nil
}

// IncrementLikes adds one like in a single statement and returns the new count.
func (db *DB) IncrementLikes(ctx context.Context, id string) (int, error) {
	var likes int
	err := db.q.QueryRowContext(ctx,
		`UPDATE reviews SET likes = likes + 1 WHERE id = ? RETURNING likes`, id,
	).Scan(&likes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperror.NotFound("review", id)
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite: liking review %s: %w", id, err)
	}
	return likes, nil
}

// ListReviewsByGame joins each review's author and the author's current
// library rating for the game.
func (db *DB) ListReviewsByGame(ctx context.Context, gameID string, sort model.ReviewSort, opts repository.ListOptions) ([]model.Review, int, error) {
	var total int
	if err := db.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE game_id = ?`, gameID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting reviews for game %s: %w", gameID, err)
	}

	order := `r.created_at DESC, r.id DESC`
	if sort == model.SortLikes {
		order = `r.likes DESC, r.created_at DESC, r.id DESC`
	}

	rows, err := db.q.QueryContext(ctx, `
		SELECT `+reviewColumns+`, u.handle, u.display_name, u.avatar_url, e.rating
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		LEFT JOIN library_entries e ON e.user_id = r.user_id AND e.game_id = r.game_id
		WHERE r.game_id = ?
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`,
		gameID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing reviews for game %s: %w", gameID, err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var (
			r      model.Review
			author model.UserSummary
			rating sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.GameID, &r.Content, &r.Likes, &r.CreatedAt, &r.UpdatedAt,
			&author.Handle, &author.DisplayName, &author.AvatarURL, &rating); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning review: %w", err)
		}
		author.ID = r.UserID
		r.Author = &author
		r.Rating = intPtr(rating)
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating reviews: %w", err)
	}
	return reviews, total, nil
}

// ListReviewsByUser joins the reviewed game's summary, newest first.
func (db *DB) ListReviewsByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Review, int, error) {
	var total int
	if err := db.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting reviews by user %s: %w", userID, err)
	}

	rows, err := db.q.QueryContext(ctx, `
		SELECT `+reviewColumns+`, g.title, g.cover_image, g.avg_rating, e.rating
		FROM reviews r
		JOIN games g ON g.id = r.game_id
		LEFT JOIN library_entries e ON e.user_id = r.user_id AND e.game_id = r.game_id
		WHERE r.user_id = ?
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ? OFFSET ?`,
		userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing reviews by user %s: %w", userID, err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var (
			r      model.Review
			game   model.GameSummary
			rating sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.GameID, &r.Content, &r.Likes, &r.CreatedAt, &r.UpdatedAt,
			&game.Title, &game.CoverImage, &game.AvgRating, &rating); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning review: %w", err)
		}
		game.ID = r.GameID
		r.Game = &game
		r.Rating = intPtr(rating)
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating reviews: %w", err)
	}
	return reviews, total, nil
}

// GetReviewStats aggregates library ratings and review rows for a game.
// The average is rounded to one decimal.
func (db *DB) GetReviewStats(ctx context.Context, gameID string) (*model.ReviewStats, error) {
	var (
		stats model.ReviewStats
		avg   sql.NullFloat64
	)
	err := db.q.QueryRowContext(ctx, `
		SELECT
			(SELECT AVG(rating) FROM library_entries WHERE game_id = ? AND rating IS NOT NULL),
			(SELECT COUNT(rating) FROM library_entries WHERE game_id = ?),
			(SELECT COUNT(*) FROM reviews WHERE game_id = ?)`,
		gameID, gameID, gameID,
	).Scan(&avg, &stats.TotalRatings, &stats.TotalReviews)
	if err != nil {
		return nil, fmt.Errorf("sqlite: review stats for game %s: %w", gameID, err)
	}
	if avg.Valid {
		rounded := math.Round(avg.Float64*10) / 10
		stats.AverageRating = &rounded
	}

	rows, err := db.q.QueryContext(ctx, `
		SELECT rating, COUNT(*) FROM library_entries
		WHERE game_id = ? AND rating IS NOT NULL
		GROUP BY rating ORDER BY rating ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: rating distribution for game %s: %w", gameID, err)
	}
	defer rows.Close()

	stats.Distribution = []model.RatingBucket{}
	for rows.Next() {
		var b model.RatingBucket
		if err := rows.Scan(&b.Rating, &b.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning rating bucket: %w", err)
		}
		stats.Distribution = append(stats.Distribution, b)
	}
	return &stats, rows.Err()
}

func scanReview(row *sql.Row) (*model.Review, error) {
	var r model.Review
	if err := row.Scan(&r.ID, &r.UserID, &r.GameID, &r.Content, &r.Likes, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
