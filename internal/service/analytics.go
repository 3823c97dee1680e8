package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

// AnalyticsService computes read-only rollups over a user's library. It has
// no state and caches nothing.
type AnalyticsService struct {
	library repository.LibraryRepository
}

func NewAnalyticsService(library repository.LibraryRepository) *AnalyticsService {
	return &AnalyticsService{library: library}
}

// GetGameStats returns the status histogram, completion rate and rating
// summary. StatusCounts only contains statuses the user actually has.
func (s *AnalyticsService) GetGameStats(ctx context.Context, userID string) (*model.GameStats, error) {
	counts, err := s.library.CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("game stats: %w", err)
	}
	avg, rated, err := s.library.RatingSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("game stats: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	stats := &model.GameStats{
		TotalGames:      total,
		StatusCounts:    counts,
		RatedGamesCount: rated,
	}
	if total > 0 {
		stats.CompletionRate = int(math.Round(100 * float64(counts[model.StatusCompleted]) / float64(total)))
	}
	if avg != nil {
		r := roundTo1(*avg)
		stats.AverageRating = &r
	}
	return stats, nil
}

// GetGenreBreakdown counts library entries per genre, most common first.
// Ties are broken alphabetically.
func (s *AnalyticsService) GetGenreBreakdown(ctx context.Context, userID string) ([]model.GenreCount, error) {
	genres, err := s.library.GenreCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("genre breakdown: %w", err)
	}
	sort.SliceStable(genres, func(i, j int) bool {
		if genres[i].GameCount != genres[j].GameCount {
			return genres[i].GameCount > genres[j].GameCount
		}
		return genres[i].Genre < genres[j].Genre
	})
	return genres, nil
}

// GetOverview fetches both rollups concurrently.
func (s *AnalyticsService) GetOverview(ctx context.Context, userID string) (*model.AnalyticsOverview, error) {
	var (
		stats  *model.GameStats
		genres []model.GenreCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.GetGameStats(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		genres, err = s.GetGenreBreakdown(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &model.AnalyticsOverview{Games: *stats, Genres: genres}, nil
}
