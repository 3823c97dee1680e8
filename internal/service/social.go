package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

// SocialService is the follow graph plus the public profile built on it.
type SocialService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewSocialService(store repository.Store, logger *slog.Logger) *SocialService {
	return &SocialService{store: store, logger: logger}
}

// Follow adds the edge follower → followee. Following yourself is invalid
// and following twice is a Conflict.
func (s *SocialService) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return apperror.ValidationFailed("userId", "cannot follow yourself")
	}
	// A valid token can outlive its account.
	if _, err := s.store.GetUserByID(ctx, followerID); err != nil {
		if isNotFound(err) {
			return apperror.Unauthenticated("account no longer exists")
		}
		return fmt.Errorf("loading follower %s: %w", followerID, err)
	}
	if _, err := s.store.GetUserByID(ctx, followeeID); err != nil {
		return err
	}

	if err := s.store.CreateFollow(ctx, &model.Follow{FollowerID: followerID, FolloweeID: followeeID}); err != nil {
		if isConflict(err) {
			return err
		}
		return fmt.Errorf("following user %s: %w", followeeID, err)
	}

	s.logger.Info("user followed",
		slog.String("followerID", followerID),
		slog.String("followeeID", followeeID),
	)
	return nil
}

// Unfollow removes the edge; a missing edge is NotFound.
func (s *SocialService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	removed, err := s.store.DeleteFollow(ctx, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("unfollowing user %s: %w", followeeID, err)
	}
	if !removed {
		return apperror.NotFoundf("Not following this user")
	}

	s.logger.Info("user unfollowed",
		slog.String("followerID", followerID),
		slog.String("followeeID", followeeID),
	)
	return nil
}

func (s *SocialService) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	return s.store.IsFollowing(ctx, followerID, followeeID)
}

// ListFollowers pages through the users following userID, newest edge first.
func (s *SocialService) ListFollowers(ctx context.Context, userID string, page model.PageRequest) (*model.Page[model.UserSummary], error) {
	if err := ensureUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	return listPage(page, func(opts repository.ListOptions) ([]model.UserSummary, int, error) {
		return s.store.ListFollowers(ctx, userID, opts)
	})
}

// ListFollowing pages through the users userID follows, newest edge first.
func (s *SocialService) ListFollowing(ctx context.Context, userID string, page model.PageRequest) (*model.Page[model.UserSummary], error) {
	if err := ensureUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	return listPage(page, func(opts repository.ListOptions) ([]model.UserSummary, int, error) {
		return s.store.ListFollowing(ctx, userID, opts)
	})
}

// GetProfile returns the public profile of userID. viewerID may be empty
// for anonymous requests; IsFollowing is only filled in for a signed-in
// viewer looking at someone else.
func (s *SocialService) GetProfile(ctx context.Context, userID, viewerID string) (*model.UserProfile, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.GetUserCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile counts: %w", err)
	}

	profile := &model.UserProfile{
		UserSummary:    user.Summary(),
		CreatedAt:      user.CreatedAt,
		FollowerCount:  counts.Followers,
		FollowingCount: counts.Following,
		LibraryCount:   counts.Library,
		TotalHours:     int(math.Round(float64(counts.SessionMinutes) / 60)),
	}

	if viewerID != "" && viewerID != userID {
		following, err := s.store.IsFollowing(ctx, viewerID, userID)
		if err != nil {
			return nil, fmt.Errorf("loading follow state: %w", err)
		}
		profile.IsFollowing = &following
	}
	return profile, nil
}

// ListUserActivity is one user's own ledger, newest first, as shown on
// their profile.
func (s *SocialService) ListUserActivity(ctx context.Context, userID string, page model.PageRequest) (*model.Page[model.FeedItem], error) {
	if err := ensureUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	return listPage(page, func(opts repository.ListOptions) ([]model.FeedItem, int, error) {
		return s.store.ListActivitiesForUsers(ctx, []string{userID}, opts)
	})
}
