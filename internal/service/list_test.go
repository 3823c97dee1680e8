package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
)

// listWith creates a list owned by userID holding the given games in order.
func (e *testEnv) listWith(t *testing.T, userID string, games ...*model.Game) *model.GameList {
	t.Helper()
	ctx := context.Background()
	list, err := e.lists.CreateList(ctx, userID, model.ListInput{Title: "Favourites"})
	require.NoError(t, err)
	for _, g := range games {
		_, err := e.lists.AddItem(ctx, list.ID, userID, g.ID, nil)
		require.NoError(t, err)
	}
	return list
}

func itemOrder(t *testing.T, env *testEnv, listID, requester string) map[string]int {
	t.Helper()
	list, err := env.lists.GetList(context.Background(), listID, requester)
	require.NoError(t, err)
	out := make(map[string]int, len(list.Items))
	for i, it := range list.Items {
		assert.Equal(t, i, it.Position, "positions are contiguous from 0")
		out[it.GameID] = it.Position
	}
	return out
}

func TestCreateList_DefaultsAndActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "u")

	list, err := env.lists.CreateList(ctx, u.ID, model.ListInput{Title: " Top 10 "})
	require.NoError(t, err)
	assert.Equal(t, "Top 10", list.Title)
	assert.Equal(t, model.ListCustom, list.Type)
	assert.True(t, list.IsPublic)

	events := env.activities(t, u.ID)
	require.Len(t, events, 1)
	assert.Equal(t, model.ActivityListCreated, events[0].Kind)
	assert.Equal(t, list.ID, *events[0].EntityID)

	_, err = env.lists.CreateList(ctx, u.ID, model.ListInput{Title: ""})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	bad := model.ListType("WISHLIST")
	_, err = env.lists.CreateList(ctx, u.ID, model.ListInput{Title: "x", Type: &bad})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAddItem_AppendsAtEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "u")
	x, y := env.localGame(t, "x"), env.localGame(t, "y")
	list := env.listWith(t, u.ID)

	first, err := env.lists.AddItem(ctx, list.ID, u.ID, x.ID, strp("start here"))
	require.NoError(t, err)
	assert.Equal(t, 0, first.Position)
	second, err := env.lists.AddItem(ctx, list.ID, u.ID, y.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Position)

	_, err = env.lists.AddItem(ctx, list.ID, u.ID, x.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	_, err = env.lists.AddItem(ctx, list.ID, u.ID, "no-such-game", nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	events := env.activities(t, u.ID)
	require.Len(t, events, 3, "LIST_CREATED plus one GAME_ADDED per item")
	assert.Equal(t, model.ActivityGameAdded, events[0].Kind)
	var meta map[string]string
	require.NoError(t, json.Unmarshal(events[0].Metadata, &meta))
	assert.Equal(t, "Favourites", meta["listTitle"])
}

func TestRemoveItem_ClosesGap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "u")
	x, y, z := env.localGame(t, "x"), env.localGame(t, "y"), env.localGame(t, "z")
	list := env.listWith(t, u.ID, x, y, z)

	require.NoError(t, env.lists.RemoveItem(ctx, list.ID, u.ID, y.ID))
	assert.Equal(t, map[string]int{x.ID: 0, z.ID: 1}, itemOrder(t, env, list.ID, u.ID))

	err := env.lists.RemoveItem(ctx, list.ID, u.ID, y.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestReorderItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "u")
	x, y, z := env.localGame(t, "x"), env.localGame(t, "y"), env.localGame(t, "z")
	list := env.listWith(t, u.ID, x, y, z)

	items, err := env.lists.ReorderItems(ctx, list.ID, u.ID, []model.ItemPosition{
		{GameID: z.ID, Position: 0},
		{GameID: x.ID, Position: 1},
		{GameID: y.ID, Position: 2},
	})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, z.ID, items[0].GameID)
	assert.Equal(t, map[string]int{z.ID: 0, x.ID: 1, y.ID: 2}, itemOrder(t, env, list.ID, u.ID))

	invalid := map[string][]model.ItemPosition{
		"partial":        {{GameID: x.ID, Position: 0}, {GameID: y.ID, Position: 1}},
		"duplicate pos":  {{GameID: x.ID, Position: 0}, {GameID: y.ID, Position: 0}, {GameID: z.ID, Position: 2}},
		"out of range":   {{GameID: x.ID, Position: 0}, {GameID: y.ID, Position: 1}, {GameID: z.ID, Position: 5}},
		"duplicate game": {{GameID: x.ID, Position: 0}, {GameID: x.ID, Position: 1}, {GameID: z.ID, Position: 2}},
		"foreign game":   {{GameID: x.ID, Position: 0}, {GameID: y.ID, Position: 1}, {GameID: "other", Position: 2}},
	}
	for name, order := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := env.lists.ReorderItems(ctx, list.ID, u.ID, order)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, map[string]int{z.ID: 0, x.ID: 1, y.ID: 2}, itemOrder(t, env, list.ID, u.ID))
		})
	}
}

func TestListOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner, other := env.user(t, "owner"), env.user(t, "other")
	x := env.localGame(t, "x")
	list := env.listWith(t, owner.ID, x)

	_, err := env.lists.AddItem(ctx, list.ID, other.ID, x.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.ErrorIs(t, env.lists.RemoveItem(ctx, list.ID, other.ID, x.ID), apperror.ErrForbidden)
	_, err = env.lists.ReorderItems(ctx, list.ID, other.ID, []model.ItemPosition{{GameID: x.ID, Position: 0}})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = env.lists.UpdateList(ctx, list.ID, other.ID, model.ListPatch{Title: strp("mine now")})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.ErrorIs(t, env.lists.DeleteList(ctx, list.ID, other.ID), apperror.ErrForbidden)

	_, err = env.lists.AddItem(ctx, "missing", owner.ID, x.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound, "a missing list is 404 before 403")
	assert.ErrorIs(t, env.lists.DeleteList(ctx, "missing", other.ID), apperror.ErrNotFound)
}

func TestUpdateAndDeleteList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "u")
	list := env.listWith(t, u.ID, env.localGame(t, "x"))

	yearEnd := model.ListYearEnd
	updated, err := env.lists.UpdateList(ctx, list.ID, u.ID, model.ListPatch{
		Title:    strp("2026"),
		Type:     &yearEnd,
		IsPublic: boolp(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "2026", updated.Title)
	assert.Equal(t, model.ListYearEnd, updated.Type)
	assert.False(t, updated.IsPublic)

	_, err = env.lists.UpdateList(ctx, list.ID, u.ID, model.ListPatch{Title: strp("  ")})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, env.lists.DeleteList(ctx, list.ID, u.ID))
	_, err = env.lists.GetList(ctx, list.ID, u.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner, other := env.user(t, "owner"), env.user(t, "other")

	public, err := env.lists.CreateList(ctx, owner.ID, model.ListInput{Title: "Public"})
	require.NoError(t, err)
	private, err := env.lists.CreateList(ctx, owner.ID, model.ListInput{Title: "Secret", IsPublic: boolp(false)})
	require.NoError(t, err)

	_, err = env.lists.GetList(ctx, private.ID, other.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = env.lists.GetList(ctx, private.ID, "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	got, err := env.lists.GetList(ctx, private.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Secret", got.Title)
	got, err = env.lists.GetList(ctx, public.ID, other.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Items)

	mine, err := env.lists.GetUserLists(ctx, owner.ID, owner.ID, model.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, mine.Pagination.Total)

	theirs, err := env.lists.GetUserLists(ctx, owner.ID, other.ID, model.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, theirs.Pagination.Total, "private lists are excluded from the total too")
	require.Len(t, theirs.Items, 1)
	assert.Equal(t, public.ID, theirs.Items[0].ID)
}
