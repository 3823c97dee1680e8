package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

// LibraryService is the Library State Manager: each user's per-game status,
// rating, review and hours, plus the game rating aggregate those ratings
// feed.
//
// UPSERT FLOW:
//
//  1. Resolve the game (may call the catalog; no transaction is open yet)
//  2. In one transaction: create-or-update the entry, recompute the game's
//     avgRating/ratingCount from the ratings now in the table, append one
//     activity event
//
// A concurrent create for the same (user, game) pair surfaces as a unique
// violation and is turned into an update, so callers never see it.
type LibraryService struct {
	db     repository.Database
	games  *GameService
	ledger *ActivityLedger
	logger *slog.Logger
}

func NewLibraryService(db repository.Database, games *GameService, ledger *ActivityLedger, logger *slog.Logger) *LibraryService {
	return &LibraryService{db: db, games: games, ledger: ledger, logger: logger}
}

// UpsertEntry adds gameRef to the user's library or applies patch to the
// existing entry. gameRef is a local game id or an external catalog id.
func (s *LibraryService) UpsertEntry(ctx context.Context, userID, gameRef string, patch model.LibraryPatch) (*model.LibraryEntry, error) {
	if err := patch.Validate(); err != nil {
		return nil, patchError(patch, err)
	}

	game, err := s.games.ResolveGame(ctx, gameRef)
	if err != nil {
		return nil, err
	}

	var entry *model.LibraryEntry
	err = s.db.WithinTx(ctx, func(tx repository.Store) error {
		e, err := upsertEntryTx(ctx, tx, userID, game.ID, patch, model.StatusBacklog)
		if err != nil {
			return err
		}
		if err := tx.RecomputeGameRating(ctx, game.ID); err != nil {
			return err
		}
		// reload so the response carries the recomputed aggregate
		if game, err = tx.GetGameByID(ctx, game.ID); err != nil {
			return err
		}
		_, err = s.ledger.Append(ctx, tx, userID, activityForStatus(e.Status), model.ActivityInput{
			GameID:   game.ID,
			EntityID: e.ID,
			Metadata: map[string]any{"status": e.Status},
		})
		entry = e
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upserting library entry: %w", err)
	}

	summary := game.Summary()
	entry.Game = &summary

	s.logger.Info("library entry upserted",
		slog.String("userID", userID),
		slog.String("gameID", game.ID),
		slog.String("status", string(entry.Status)),
	)
	return entry, nil
}

// upsertEntryTx creates or updates the (user, game) entry inside tx. A new
// entry starts at defaultStatus unless patch says otherwise. Both the
// library and review flows go through here.
func upsertEntryTx(ctx context.Context, tx repository.Store, userID, gameID string, patch model.LibraryPatch, defaultStatus model.LibraryStatus) (*model.LibraryEntry, error) {
	now := time.Now().UTC()

	existing, err := tx.GetEntry(ctx, userID, gameID)
	switch {
	case err == nil:
		patch.Apply(existing, now)
		if err := tx.UpdateEntry(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case !isNotFound(err):
		return nil, err
	}

	if patch.Status == nil {
		patch.Status = &defaultStatus
	}
	entry := &model.LibraryEntry{UserID: userID, GameID: gameID}
	patch.Apply(entry, now)

	err = tx.CreateEntry(ctx, entry)
	if isConflict(err) {
		existing, err := tx.GetEntry(ctx, userID, gameID)
		if err != nil {
			return nil, err
		}
		patch.Apply(existing, now)
		if err := tx.UpdateEntry(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// activityForStatus picks the ledger kind for a library write.
func activityForStatus(status model.LibraryStatus) model.ActivityKind {
	switch status {
	case model.StatusCompleted:
		return model.ActivityCompleted
	case model.StatusPlaying:
		return model.ActivityStarted
	default:
		return model.ActivityGameAdded
	}
}

func patchError(p model.LibraryPatch, err error) error {
	field := "status"
	if p.Rating != nil && !model.ValidRating(*p.Rating) {
		field = "rating"
	}
	return apperror.ValidationFailed(field, err.Error())
}

// LogSession records a play session against an existing entry and appends
// a SESSION event.
func (s *LibraryService) LogSession(ctx context.Context, userID, gameID string, in model.SessionInput) (*model.PlaySession, error) {
	if in.DurationMinutes <= 0 {
		return nil, apperror.ValidationFailed("durationMinutes", "duration must be a positive number of minutes")
	}
	in.Platform = strings.TrimSpace(in.Platform)
	if in.Platform == "" {
		return nil, apperror.ValidationFailed("platform", "platform is required")
	}
	if in.Note != nil && len(*in.Note) > MaxNoteLength {
		return nil, apperror.ValidationFailed("note", fmt.Sprintf("note must be at most %d characters", MaxNoteLength))
	}

	var session *model.PlaySession
	err := s.db.WithinTx(ctx, func(tx repository.Store) error {
		entry, err := tx.GetEntry(ctx, userID, gameID)
		if err != nil {
			return err
		}
		session = &model.PlaySession{
			EntryID:         entry.ID,
			DurationMinutes: in.DurationMinutes,
			Platform:        in.Platform,
			Note:            in.Note,
		}
		if err := tx.AddSession(ctx, session); err != nil {
			return err
		}
		_, err = s.ledger.Append(ctx, tx, userID, model.ActivitySession, model.ActivityInput{
			GameID:   gameID,
			EntityID: session.ID,
			Metadata: map[string]any{
				"durationMinutes": in.DurationMinutes,
				"platform":        in.Platform,
			},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("logging play session: %w", err)
	}

	s.logger.Info("play session logged",
		slog.String("userID", userID),
		slog.String("gameID", gameID),
		slog.Int("minutes", in.DurationMinutes),
	)
	return session, nil
}

func (s *LibraryService) GetEntry(ctx context.Context, userID, gameID string) (*model.LibraryEntry, error) {
	entry, err := s.db.GetEntry(ctx, userID, gameID)
	if err != nil {
		return nil, fmt.Errorf("getting library entry: %w", err)
	}
	return entry, nil
}

// ListLibrary pages through a user's entries, optionally filtered by status.
func (s *LibraryService) ListLibrary(ctx context.Context, userID string, status *model.LibraryStatus, page model.PageRequest) (*model.Page[model.LibraryEntry], error) {
	if status != nil && !status.Valid() {
		return nil, apperror.ValidationFailed("status", fmt.Sprintf("unknown status %q", *status))
	}
	return listPage(page, func(opts repository.ListOptions) ([]model.LibraryEntry, int, error) {
		return s.db.ListEntries(ctx, userID, status, opts)
	})
}

// ListUserLibrary is ListLibrary for someone else's profile. Unlike the
// signed-in variant it reports an unknown user as not found.
func (s *LibraryService) ListUserLibrary(ctx context.Context, userID string, status *model.LibraryStatus, page model.PageRequest) (*model.Page[model.LibraryEntry], error) {
	if err := ensureUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	return s.ListLibrary(ctx, userID, status, page)
}

// SetFavorite toggles the favorite flag on an existing entry. It does not
// touch the rating aggregate or the ledger.
func (s *LibraryService) SetFavorite(ctx context.Context, userID, gameID string, favorite bool) (*model.LibraryEntry, error) {
	var entry *model.LibraryEntry
	err := s.db.WithinTx(ctx, func(tx repository.Store) error {
		e, err := tx.GetEntry(ctx, userID, gameID)
		if err != nil {
			return err
		}
		model.LibraryPatch{Favorite: &favorite}.Apply(e, time.Now().UTC())
		entry = e
		return tx.UpdateEntry(ctx, e)
	})
	if err != nil {
		return nil, fmt.Errorf("setting favorite: %w", err)
	}
	return entry, nil
}
