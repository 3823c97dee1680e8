package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

// ReviewService is the Review & Rating Engine.
//
// There is at most one review per (user, game). Submitting again edits the
// existing review in place. A rating submitted with a review lands on the
// author's library entry, which is where the game's rating aggregate is
// computed from, so review ratings and library ratings can never disagree.
type ReviewService struct {
	db     repository.Database
	ledger *ActivityLedger
	logger *slog.Logger
}

func NewReviewService(db repository.Database, ledger *ActivityLedger, logger *slog.Logger) *ReviewService {
	return &ReviewService{db: db, ledger: ledger, logger: logger}
}

func validateReview(in model.ReviewInput) (model.ReviewInput, error) {
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return in, apperror.ValidationFailed("content", "review content is required")
	}
	if len(in.Content) > MaxReviewLength {
		return in, apperror.ValidationFailed("content", fmt.Sprintf("review must be at most %d characters", MaxReviewLength))
	}
	if in.Rating != nil && !model.ValidRating(*in.Rating) {
		return in, apperror.ValidationFailed("rating", fmt.Sprintf("rating must be between %d and %d", model.MinRating, model.MaxRating))
	}
	return in, nil
}

// SubmitReview creates or updates the user's review of gameID. The review
// write, the REVIEW event for a new review, and the optional rating sync
// all commit together.
func (s *ReviewService) SubmitReview(ctx context.Context, userID, gameID string, in model.ReviewInput) (*model.Review, error) {
	in, err := validateReview(in)
	if err != nil {
		return nil, err
	}

	var (
		review  *model.Review
		created bool
	)
	err = s.db.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetGameByID(ctx, gameID); err != nil {
			return err
		}

		existing, err := tx.GetReviewByUserGame(ctx, userID, gameID)
		switch {
		case err == nil:
			existing.Content = in.Content
			if err := tx.UpdateReview(ctx, existing); err != nil {
				return err
			}
			review = existing
		case isNotFound(err):
			review = &model.Review{UserID: userID, GameID: gameID, Content: in.Content}
			if err := tx.CreateReview(ctx, review); err != nil {
				return err
			}
			created = true
			if _, err := s.ledger.Append(ctx, tx, userID, model.ActivityReview, model.ActivityInput{
				GameID:   gameID,
				EntityID: review.ID,
			}); err != nil {
				return err
			}
		default:
			return err
		}

		if in.Rating == nil {
			if entry, err := tx.GetEntry(ctx, userID, gameID); err == nil {
				review.Rating = entry.Rating
			} else if !isNotFound(err) {
				return err
			}
		} else {
			entry, err := upsertEntryTx(ctx, tx, userID, gameID, model.LibraryPatch{Rating: in.Rating}, model.StatusPlaying)
			if err != nil {
				return err
			}
			if err := tx.RecomputeGameRating(ctx, gameID); err != nil {
				return err
			}
			review.Rating = entry.Rating
		}

		author, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		summary := author.Summary()
		review.Author = &summary
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submitting review: %w", err)
	}

	s.logger.Info("review submitted",
		slog.String("userID", userID),
		slog.String("gameID", gameID),
		slog.Bool("created", created),
	)
	return review, nil
}

// LikeReview adds one like and returns the new total. Likes are not tracked
// per user, so repeated likes all count.
func (s *ReviewService) LikeReview(ctx context.Context, reviewID string) (int, error) {
	likes, err := s.db.IncrementLikes(ctx, reviewID)
	if err != nil {
		return 0, fmt.Errorf("liking review: %w", err)
	}
	return likes, nil
}

// ListGameReviews pages through a game's reviews, newest first or most
// liked first.
func (s *ReviewService) ListGameReviews(ctx context.Context, gameID string, sort model.ReviewSort, page model.PageRequest) (*model.Page[model.Review], error) {
	switch sort {
	case "":
		sort = model.SortRecent
	case model.SortRecent, model.SortLikes:
	default:
		return nil, apperror.ValidationFailed("sortBy", fmt.Sprintf("unknown sort %q", sort))
	}
	if _, err := s.db.GetGameByID(ctx, gameID); err != nil {
		return nil, err
	}
	return listPage(page, func(opts repository.ListOptions) ([]model.Review, int, error) {
		return s.db.ListReviewsByGame(ctx, gameID, sort, opts)
	})
}

// ListUserReviews pages through one user's reviews, newest first.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID string, page model.PageRequest) (*model.Page[model.Review], error) {
	if err := ensureUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	return listPage(page, func(opts repository.ListOptions) ([]model.Review, int, error) {
		return s.db.ListReviewsByUser(ctx, userID, opts)
	})
}

// GetReviewStats computes the rating summary for a game from current rows.
func (s *ReviewService) GetReviewStats(ctx context.Context, gameID string) (*model.ReviewStats, error) {
	if _, err := s.db.GetGameByID(ctx, gameID); err != nil {
		return nil, err
	}
	stats, err := s.db.GetReviewStats(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}
	return stats, nil
}
