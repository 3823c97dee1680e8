package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/playtrack/internal/metrics"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

// maxEnrichers bounds the concurrent lookups made while enriching one page.
const maxEnrichers = 8

// FeedService builds a user's social feed at read time.
//
// FAN-OUT ON READ:
// Nothing is precomputed per follower. A feed request resolves the complete
// following set, reads the ledger for those authors, then decorates REVIEW
// events with the review text and the author's rating. The two reads are
// not done under one lock: a follow racing with a feed read may or may not
// show up in it.
type FeedService struct {
	store   repository.Store
	ledger  *ActivityLedger
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewFeedService(store repository.Store, ledger *ActivityLedger, m *metrics.Metrics, logger *slog.Logger) *FeedService {
	return &FeedService{store: store, ledger: ledger, metrics: m, logger: logger}
}

func (s *FeedService) GetSocialFeed(ctx context.Context, userID string, page model.PageRequest) (*model.Feed, error) {
	page = page.Normalize()

	following, err := s.store.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolving following set: %w", err)
	}
	s.metrics.FeedResolved(len(following))

	if len(following) == 0 {
		return &model.Feed{
			Activities: []model.FeedItem{},
			Pagination: model.NewPagination(page, 0),
		}, nil
	}

	events, err := s.ledger.ListForUsers(ctx, following, page)
	if err != nil {
		return nil, fmt.Errorf("reading activity ledger: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxEnrichers)
	for i := range events.Items {
		item := &events.Items[i]
		if item.Kind != model.ActivityReview {
			continue
		}
		g.Go(func() error {
			return s.enrichReview(gctx, item)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enriching feed: %w", err)
	}

	return &model.Feed{Activities: events.Items, Pagination: events.Pagination}, nil
}

// enrichReview fills in the review text and the author's rating. Either
// may be gone by now; a miss leaves the field nil.
func (s *FeedService) enrichReview(ctx context.Context, item *model.FeedItem) error {
	if item.EntityID != nil {
		review, err := s.store.GetReviewByID(ctx, *item.EntityID)
		switch {
		case err == nil:
			item.ReviewContent = &review.Content
		case !isNotFound(err):
			return err
		}
	}

	if item.GameID != nil {
		entry, err := s.store.GetEntry(ctx, item.UserID, *item.GameID)
		switch {
		case err == nil:
			item.ReviewRating = entry.Rating
		case !isNotFound(err):
			return err
		}
	}
	return nil
}
