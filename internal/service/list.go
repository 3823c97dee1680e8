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

// ListService is the List Manager: user-curated, ordered game lists.
//
// Item positions in a list are always exactly 0..n-1. Adding appends at
// max+1, removing closes the gap in the same transaction, and a reorder
// must be a full permutation of the current items.
type ListService struct {
	db     repository.Database
	ledger *ActivityLedger
	logger *slog.Logger
}

func NewListService(db repository.Database, ledger *ActivityLedger, logger *slog.Logger) *ListService {
	return &ListService{db: db, ledger: ledger, logger: logger}
}

// ownedList loads a list and checks that userID owns it: NotFound first,
// then Forbidden.
func ownedList(ctx context.Context, lists repository.ListRepository, listID, userID string) (*model.GameList, error) {
	list, err := lists.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if list.UserID != userID {
		return nil, apperror.Forbidden("you do not own this list")
	}
	return list, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxListTitleLength {
		return "", apperror.ValidationFailed("title", fmt.Sprintf("title must be at most %d characters", MaxListTitleLength))
	}
	return title, nil
}

// CreateList creates a list owned by userID and appends a LIST_CREATED
// event. Type defaults to CUSTOM and visibility to public.
func (s *ListService) CreateList(ctx context.Context, userID string, in model.ListInput) (*model.GameList, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	list := &model.GameList{
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		Type:        model.ListCustom,
		IsPublic:    true,
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, apperror.ValidationFailed("type", fmt.Sprintf("unknown list type %q", *in.Type))
		}
		list.Type = *in.Type
	}
	if in.IsPublic != nil {
		list.IsPublic = *in.IsPublic
	}

	err = s.db.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.CreateList(ctx, list); err != nil {
			return err
		}
		_, err := s.ledger.Append(ctx, tx, userID, model.ActivityListCreated, model.ActivityInput{
			EntityID: list.ID,
			Metadata: map[string]any{"title": list.Title},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating list: %w", err)
	}
	list.Items = []model.GameListItem{}

	s.logger.Info("list created",
		slog.String("userID", userID),
		slog.String("listID", list.ID),
	)
	return list, nil
}

// UpdateList applies patch to a list userID owns.
func (s *ListService) UpdateList(ctx context.Context, listID, userID string, patch model.ListPatch) (*model.GameList, error) {
	if err := patch.Validate(); err != nil {
		field := "title"
		if patch.Type != nil && !patch.Type.Valid() {
			field = "type"
		}
		return nil, apperror.ValidationFailed(field, err.Error())
	}
	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}

	var list *model.GameList
	err := s.db.WithinTx(ctx, func(tx repository.Store) error {
		l, err := ownedList(ctx, tx, listID, userID)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			l.Title = *patch.Title
		}
		if patch.Description != nil {
			l.Description = patch.Description
		}
		if patch.Type != nil {
			l.Type = *patch.Type
		}
		if patch.IsPublic != nil {
			l.IsPublic = *patch.IsPublic
		}
		list = l
		return tx.UpdateList(ctx, l)
	})
	if err != nil {
		return nil, fmt.Errorf("updating list: %w", err)
	}
	return list, nil
}

// DeleteList removes a list userID owns, items included.
func (s *ListService) DeleteList(ctx context.Context, listID, userID string) error {
	err := s.db.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := ownedList(ctx, tx, listID, userID); err != nil {
			return err
		}
		return tx.DeleteList(ctx, listID)
	})
	if err != nil {
		return fmt.Errorf("deleting list: %w", err)
	}
	s.logger.Info("list deleted", slog.String("userID", userID), slog.String("listID", listID))
	return nil
}

// GetUserLists pages through ownerID's lists. Anyone other than the owner
// only sees public ones, in both the page and the total.
func (s *ListService) GetUserLists(ctx context.Context, ownerID, requesterID string, page model.PageRequest) (*model.Page[model.GameList], error) {
	if err := ensureUser(ctx, s.db, ownerID); err != nil {
		return nil, err
	}
	publicOnly := requesterID != ownerID
	return listPage(page, func(opts repository.ListOptions) ([]model.GameList, int, error) {
		return s.db.ListListsByUser(ctx, ownerID, publicOnly, opts)
	})
}

// GetList returns a list with its items in position order. A private list
// is Forbidden to everyone but its owner.
func (s *ListService) GetList(ctx context.Context, listID, requesterID string) (*model.GameList, error) {
	list, err := s.db.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if !list.IsPublic && list.UserID != requesterID {
		return nil, apperror.Forbidden("this list is private")
	}
	items, err := s.db.ListItems(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("loading list items: %w", err)
	}
	list.Items = items
	return list, nil
}

// AddItem appends gameID at the end of the list and records a GAME_ADDED
// event carrying the list title.
func (s *ListService) AddItem(ctx context.Context, listID, userID, gameID string, note *string) (*model.GameListItem, error) {
	if note != nil && len(*note) > MaxNoteLength {
		return nil, apperror.ValidationFailed("note", fmt.Sprintf("note must be at most %d characters", MaxNoteLength))
	}

	var item *model.GameListItem
	err := s.db.WithinTx(ctx, func(tx repository.Store) error {
		list, err := ownedList(ctx, tx, listID, userID)
		if err != nil {
			return err
		}
		game, err := tx.GetGameByID(ctx, gameID)
		if err != nil {
			return err
		}
		next, err := tx.NextItemPosition(ctx, listID)
		if err != nil {
			return err
		}

		summary := game.Summary()
		item = &model.GameListItem{ListID: listID, GameID: gameID, Position: next, Note: note, Game: &summary}
		if err := tx.AddListItem(ctx, item); err != nil {
			return err
		}
		if err := tx.TouchList(ctx, listID); err != nil {
			return err
		}
		_, err = s.ledger.Append(ctx, tx, userID, model.ActivityGameAdded, model.ActivityInput{
			GameID:   gameID,
			EntityID: listID,
			Metadata: map[string]any{"listTitle": list.Title},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("adding list item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes gameID from the list and shifts later items down.
func (s *ListService) RemoveItem(ctx context.Context, listID, userID, gameID string) error {
	err := s.db.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := ownedList(ctx, tx, listID, userID); err != nil {
			return err
		}
		if err := tx.RemoveListItem(ctx, listID, gameID); err != nil {
			return err
		}
		return tx.TouchList(ctx, listID)
	})
	if err != nil {
		return fmt.Errorf("removing list item: %w", err)
	}
	return nil
}

// ReorderItems applies a new ordering in one transaction. The payload must
// name every item exactly once and use each position 0..n-1 exactly once;
// anything else is rejected before a single row changes.
func (s *ListService) ReorderItems(ctx context.Context, listID, userID string, order []model.ItemPosition) ([]model.GameListItem, error) {
	var items []model.GameListItem
	err := s.db.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := ownedList(ctx, tx, listID, userID); err != nil {
			return err
		}
		current, err := tx.ListItems(ctx, listID)
		if err != nil {
			return err
		}
		if err := validatePermutation(current, order); err != nil {
			return err
		}
		for _, p := range order {
			if err := tx.SetItemPosition(ctx, listID, p.GameID, p.Position); err != nil {
				return err
			}
		}
		if err := tx.TouchList(ctx, listID); err != nil {
			return err
		}
		items, err = tx.ListItems(ctx, listID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reordering list: %w", err)
	}
	return items, nil
}

func validatePermutation(current []model.GameListItem, order []model.ItemPosition) error {
	n := len(current)
	if len(order) != n {
		return apperror.ValidationFailed("items", fmt.Sprintf("expected %d items, got %d", n, len(order)))
	}

	inList := make(map[string]bool, n)
	for _, it := range current {
		inList[it.GameID] = true
	}
	seenGame := make(map[string]bool, n)
	seenPos := make([]bool, n)
	for _, p := range order {
		if !inList[p.GameID] {
			return apperror.ValidationFailed("items", fmt.Sprintf("game %s is not in this list", p.GameID))
		}
		if seenGame[p.GameID] {
			return apperror.ValidationFailed("items", fmt.Sprintf("game %s appears twice", p.GameID))
		}
		if p.Position < 0 || p.Position >= n || seenPos[p.Position] {
			return apperror.ValidationFailed("items", fmt.Sprintf("positions must be 0..%d with no repeats", n-1))
		}
		seenGame[p.GameID] = true
		seenPos[p.Position] = true
	}
	return nil
}
