package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sakif/playtrack/internal/metrics"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

// ActivityLedger is the append-only log of user actions. Library, review and
// list operations write to it; only the feed reads from it.
type ActivityLedger struct {
	repo    repository.ActivityRepository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewActivityLedger(repo repository.ActivityRepository, m *metrics.Metrics, logger *slog.Logger) *ActivityLedger {
	return &ActivityLedger{repo: repo, metrics: m, logger: logger}
}

// Append inserts one event. Pass the tx Store when the append belongs to a
// larger unit of work; nil uses the ledger's own repository. Only store
// failures are returned.
func (l *ActivityLedger) Append(ctx context.Context, tx repository.ActivityRepository, userID string, kind model.ActivityKind, in model.ActivityInput) (*model.Activity, error) {
	if tx == nil {
		tx = l.repo
	}

	a := &model.Activity{UserID: userID, Kind: kind}
	if in.GameID != "" {
		a.GameID = &in.GameID
	}
	if in.EntityID != "" {
		a.EntityID = &in.EntityID
	}
	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encoding %s metadata: %w", kind, err)
		}
		a.Metadata = raw
	}

	if err := tx.AppendActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("appending %s activity: %w", kind, err)
	}
	l.metrics.ActivityAppended(string(kind))
	l.logger.Debug("activity appended",
		slog.String("userID", userID),
		slog.String("kind", string(kind)),
	)
	return a, nil
}

// ListForUsers returns events authored by any of userIDs, newest first.
func (l *ActivityLedger) ListForUsers(ctx context.Context, userIDs []string, page model.PageRequest) (*model.Page[model.FeedItem], error) {
	return listPage(page, func(opts repository.ListOptions) ([]model.FeedItem, int, error) {
		return l.repo.ListActivitiesForUsers(ctx, userIDs, opts)
	})
}
