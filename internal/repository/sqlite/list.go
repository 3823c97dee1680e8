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

var _ repository.ListRepository = (*DB)(nil)

const listColumns = `l.id, l.user_id, l.title, l.description, l.type, l.is_public, l.created_at, l.updated_at`

func (db *DB) CreateList(ctx context.Context, list *model.GameList) error {
	now := db.now()
	list.ID = xid.New().String()
	list.CreatedAt = now
	list.UpdatedAt = now

	_, err := db.q.ExecContext(ctx, `
		INSERT INTO game_lists (id, user_id, title, description, type, is_public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		list.ID, list.UserID, list.Title, nullString(list.Description), list.Type,
		boolInt(list.IsPublic), list.CreatedAt, list.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting list: %w", err)
	}
	return nil
}

// GetList returns the list with its owner summary and item count. Items are
// loaded separately with ListItems.
func (db *DB) GetList(ctx context.Context, id string) (*model.GameList, error) {
	row := db.q.QueryRowContext(ctx, `
		SELECT `+listColumns+`,
		       (SELECT COUNT(*) FROM game_list_items i WHERE i.list_id = l.id),
		       u.handle, u.display_name, u.avatar_url
		FROM game_lists l JOIN users u ON u.id = l.user_id
		WHERE l.id = ?`, id)
	list, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("list", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting list %s: %w", id, err)
	}
	return list, nil
}

func (db *DB) UpdateList(ctx context.Context, list *model.GameList) error {
	list.UpdatedAt = db.now()
	res, err := db.q.ExecContext(ctx, `
		UPDATE game_lists SET title = ?, description = ?, type = ?, is_public = ?, updated_at = ?
		WHERE id = ?`,
		list.Title, nullString(list.Description), list.Type, boolInt(list.IsPublic), list.UpdatedAt, list.ID)
	if err != nil {
		return fmt.Errorf("sqlite: updating list %s: %w", list.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("list", list.ID)
	}
	return nil
}

// DeleteList removes the list; its items go with it through ON DELETE CASCADE.
func (db *DB) DeleteList(ctx context.Context, id string) error {
	res, err := db.q.ExecContext(ctx, `DELETE FROM game_lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting list %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("list", id)
	}
	return nil
}

// ListListsByUser pages through a user's lists, most recently updated first.
// With publicOnly set, private lists are excluded from the page and the total.
func (db *DB) ListListsByUser(ctx context.Context, userID string, publicOnly bool, opts repository.ListOptions) ([]model.GameList, int, error) {
	where := `l.user_id = ?`
	if publicOnly {
		where += ` AND l.is_public = 1`
	}

	var total int
	if err := db.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_lists l WHERE `+where, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting lists: %w", err)
	}

	rows, err := db.q.QueryContext(ctx, `
		SELECT `+listColumns+`,
		       (SELECT COUNT(*) FROM game_list_items i WHERE i.list_id = l.id),
		       u.handle, u.display_name, u.avatar_url
		FROM game_lists l JOIN users u ON u.id = l.user_id
		WHERE `+where+`
		ORDER BY l.updated_at DESC, l.id DESC
		LIMIT ? OFFSET ?`,
		userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing lists: %w", err)
	}
	defer rows.Close()

	lists := []model.GameList{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning list: %w", err)
		}
		lists = append(lists, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating lists: %w", err)
	}
	return lists, total, nil
}

func (db *DB) ListItems(ctx context.Context, listID string) ([]model.GameListItem, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT i.id, i.list_id, i.game_id, i.position, i.note, i.added_at,
		       g.title, g.cover_image, g.genres, g.avg_rating
		FROM game_list_items i JOIN games g ON g.id = i.game_id
		WHERE i.list_id = ?
		ORDER BY i.position ASC`, listID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing items of %s: %w", listID, err)
	}
	defer rows.Close()

	items := []model.GameListItem{}
	for rows.Next() {
		var (
			it     model.GameListItem
			note   sql.NullString
			game   model.GameSummary
			genres string
		)
		if err := rows.Scan(&it.ID, &it.ListID, &it.GameID, &it.Position, &note, &it.AddedAt,
			&game.Title, &game.CoverImage, &genres, &game.AvgRating); err != nil {
			return nil, fmt.Errorf("sqlite: scanning list item: %w", err)
		}
		it.Note = stringPtr(note)
		game.ID = it.GameID
		game.Genres = decodeStrings(genres)
		it.Game = &game
		items = append(items, it)
	}
	return items, rows.Err()
}

func (db *DB) NextItemPosition(ctx context.Context, listID string) (int, error) {
	var next int
	err := db.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM game_list_items WHERE list_id = ?`, listID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("sqlite: next position in %s: %w", listID, err)
	}
	return next, nil
}

func (db *DB) AddListItem(ctx context.Context, item *model.GameListItem) error {
	item.ID = xid.New().String()
	item.AddedAt = db.now()
	_, err := db.q.ExecContext(ctx, `
		INSERT INTO game_list_items (id, list_id, game_id, position, note, added_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.ListID, item.GameID, item.Position, nullString(item.Note), item.AddedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflictf("game %s is already in this list", item.GameID)
		}
		return fmt.Errorf("sqlite: inserting list item: %w", err)
	}
	return nil
}

// RemoveListItem deletes the item and shifts every later item down by one.
// Run it inside WithinTx so both statements land together.
func (db *DB) RemoveListItem(ctx context.Context, listID, gameID string) error {
	var position int
	err := db.q.QueryRowContext(ctx,
		`DELETE FROM game_list_items WHERE list_id = ? AND game_id = ? RETURNING position`,
		listID, gameID,
	).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFoundf("game %s is not in list %s", gameID, listID)
	}
	if err != nil {
		return fmt.Errorf("sqlite: deleting item %s from %s: %w", gameID, listID, err)
	}

	if _, err := db.q.ExecContext(ctx,
		`UPDATE game_list_items SET position = position - 1 WHERE list_id = ? AND position > ?`,
		listID, position,
	); err != nil {
		return fmt.Errorf("sqlite: closing gap in %s: %w", listID, err)
	}
	return nil
}

func (db *DB) SetItemPosition(ctx context.Context, listID, gameID string, position int) error {
	res, err := db.q.ExecContext(ctx,
		`UPDATE game_list_items SET position = ? WHERE list_id = ? AND game_id = ?`,
		position, listID, gameID)
	if err != nil {
		return fmt.Errorf("sqlite: moving item %s in %s: %w", gameID, listID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFoundf("game %s is not in list %s", gameID, listID)
	}
	return nil
}

func (db *DB) TouchList(ctx context.Context, listID string) error {
	if _, err := db.q.ExecContext(ctx,
		`UPDATE game_lists SET updated_at = ? WHERE id = ?`, db.now(), listID,
	); err != nil {
		return fmt.Errorf("sqlite: touching list %s: %w", listID, err)
	}
	return nil
}

func scanList(row interface{ Scan(...any) error }) (*model.GameList, error) {
	var (
		l        model.GameList
		desc     sql.NullString
		isPublic int
		owner    model.UserSummary
	)
	if err := row.Scan(&l.ID, &l.UserID, &l.Title, &desc, &l.Type, &isPublic, &l.CreatedAt, &l.UpdatedAt,
		&l.ItemCount, &owner.Handle, &owner.DisplayName, &owner.AvatarURL); err != nil {
		return nil, err
	}
	l.Description = stringPtr(desc)
	l.IsPublic = isPublic != 0
	owner.ID = l.UserID
	l.Owner = &owner
	return &l, nil
}
