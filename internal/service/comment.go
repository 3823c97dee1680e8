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

// CommentService handles the discussion thread under a game page. Comments
// are append-only and each one emits a COMMENT event.
type CommentService struct {
	db     repository.Database
	ledger *ActivityLedger
	logger *slog.Logger
}

func NewCommentService(db repository.Database, ledger *ActivityLedger, logger *slog.Logger) *CommentService {
	return &CommentService{db: db, ledger: ledger, logger: logger}
}

// AddComment stores the comment and its COMMENT event in one transaction.
func (s *CommentService) AddComment(ctx context.Context, userID, gameID string, in model.CommentInput) (*model.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment content is required")
	}
	if len(content) > MaxCommentLength {
		return nil, apperror.ValidationFailed("content", fmt.Sprintf("comment must be at most %d characters", MaxCommentLength))
	}

	var comment *model.Comment
	err := s.db.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetGameByID(ctx, gameID); err != nil {
			return err
		}
		author, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			if isNotFound(err) {
				return apperror.Unauthenticated("account no longer exists")
			}
			return err
		}

		comment = &model.Comment{UserID: userID, GameID: gameID, Content: content}
		if err := tx.CreateComment(ctx, comment); err != nil {
			return err
		}
		if _, err := s.ledger.Append(ctx, tx, userID, model.ActivityComment, model.ActivityInput{
			GameID:   gameID,
			EntityID: comment.ID,
		}); err != nil {
			return err
		}

		summary := author.Summary()
		comment.Author = &summary
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("adding comment: %w", err)
	}

	s.logger.Info("comment added",
		slog.String("userID", userID),
		slog.String("gameID", gameID),
		slog.String("commentID", comment.ID),
	)
	return comment, nil
}

// ListGameComments pages through a game's comments, newest first.
func (s *CommentService) ListGameComments(ctx context.Context, gameID string, page model.PageRequest) (*model.Page[model.Comment], error) {
	if _, err := s.db.GetGameByID(ctx, gameID); err != nil {
		return nil, err
	}
	return listPage(page, func(opts repository.ListOptions) ([]model.Comment, int, error) {
		return s.db.ListCommentsByGame(ctx, gameID, opts)
	})
}
