package model

import (
	"fmt"
	"time"
)

// ListType classifies a curated list.
type ListType string

const (
	ListCustom          ListType = "CUSTOM"
	ListFavorites       ListType = "FAVORITES"
	ListRecommendations ListType = "RECOMMENDATIONS"
	ListYearEnd         ListType = "YEAR_END"
)

func (t ListType) Valid() bool {
	switch t {
	case ListCustom, ListFavorites, ListRecommendations, ListYearEnd:
		return true
	}
	return false
}

// GameList is a user-curated, ordered collection of games.
type GameList struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Type        ListType  `json:"type"`
	IsPublic    bool      `json:"isPublic"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	ItemCount int            `json:"itemCount"`
	Owner     *UserSummary   `json:"user,omitempty"`
	Items     []GameListItem `json:"items,omitempty"`
}

// GameListItem places one game at a position in a list. Positions in a list
// are always exactly 0..n-1.
type GameListItem struct {
	ID       string       `json:"id"`
	ListID   string       `json:"listId"`
	GameID   string       `json:"gameId"`
	Position int          `json:"position"`
	Note     *string      `json:"note"`
	AddedAt  time.Time    `json:"addedAt"`
	Game     *GameSummary `json:"game,omitempty"`
}

// ListInput creates a list. Type defaults to CUSTOM and IsPublic to true.
type ListInput struct {
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Type        *ListType `json:"type"`
	IsPublic    *bool     `json:"isPublic"`
}

// ListPatch updates a list; nil fields are left unchanged.
type ListPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Type        *ListType `json:"type"`
	IsPublic    *bool     `json:"isPublic"`
}

func (p ListPatch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if p.Type != nil && !p.Type.Valid() {
		return fmt.Errorf("unknown list type %q", *p.Type)
	}
	return nil
}

// ItemPosition is one entry of a reorder request.
type ItemPosition struct {
	GameID   string `json:"gameId"`
	Position int    `json:"position"`
}
