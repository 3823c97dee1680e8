package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

func createTestList(t *testing.T, db *DB, userID, title string, public bool) *model.GameList {
	t.Helper()
	l := &model.GameList{UserID: userID, Title: title, Type: model.ListCustom, IsPublic: public}
	require.NoError(t, db.CreateList(context.Background(), l))
	return l
}

func addTestItems(t *testing.T, db *DB, listID string, games ...*model.Game) {
	t.Helper()
	ctx := context.Background()
	for _, g := range games {
		pos, err := db.NextItemPosition(ctx, listID)
		require.NoError(t, err)
		require.NoError(t, db.AddListItem(ctx, &model.GameListItem{ListID: listID, GameID: g.ID, Position: pos}))
	}
}

func positions(t *testing.T, db *DB, listID string) map[string]int {
	t.Helper()
	items, err := db.ListItems(context.Background(), listID)
	require.NoError(t, err)
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.GameID] = it.Position
	}
	return out
}

func TestRemoveListItem_ClosesGap(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	x, y, z := createTestGame(t, db, "x"), createTestGame(t, db, "y"), createTestGame(t, db, "z")
	l := createTestList(t, db, u.ID, "favs", true)
	addTestItems(t, db, l.ID, x, y, z)

	require.NoError(t, db.RemoveListItem(ctx, l.ID, y.ID))

	assert.Equal(t, map[string]int{x.ID: 0, z.ID: 1}, positions(t, db, l.ID))
	err := db.RemoveListItem(ctx, l.ID, y.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestNextItemPosition(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "alice")
	l := createTestList(t, db, u.ID, "favs", true)

	pos, err := db.NextItemPosition(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)

	addTestItems(t, db, l.ID, createTestGame(t, db, "1"), createTestGame(t, db, "2"))
	pos, err = db.NextItemPosition(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
}

func TestAddListItem_Duplicate(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "alice")
	g := createTestGame(t, db, "1")
	l := createTestList(t, db, u.ID, "favs", true)
	addTestItems(t, db, l.ID, g)

	err := db.AddListItem(context.Background(), &model.GameListItem{ListID: l.ID, GameID: g.ID, Position: 1})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestListListsByUser_PublicOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	pub := createTestList(t, db, u.ID, "public", true)
	createTestList(t, db, u.ID, "private", false)
	addTestItems(t, db, pub.ID, createTestGame(t, db, "1"))

	all, total, err := db.ListListsByUser(ctx, u.ID, false, repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	visible, total, err := db.ListListsByUser(ctx, u.ID, true, repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, visible, 1)
	assert.Equal(t, pub.ID, visible[0].ID)
	assert.Equal(t, 1, visible[0].ItemCount)
	assert.Equal(t, "alice", visible[0].Owner.Handle)
}

func TestDeleteList_CascadesItems(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	l := createTestList(t, db, u.ID, "favs", true)
	addTestItems(t, db, l.ID, createTestGame(t, db, "1"))

	require.NoError(t, db.DeleteList(ctx, l.ID))
	_, err := db.GetList(ctx, l.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	items, err := db.ListItems(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
