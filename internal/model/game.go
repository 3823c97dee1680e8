package model

import "time"

// Game is a catalog entry materialized locally the first time any user
// references its external catalog id.
//
// AvgRating and RatingCount are a denormalized aggregate over the non-null
// LibraryEntry ratings for this game. Only the store's recompute path writes
// them.
type Game struct {
	ID          string     `json:"id"`
	ExternalID  string     `json:"externalId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CoverImage  string     `json:"coverImage"`
	ReleaseDate *time.Time `json:"releaseDate"`
	Genres      []string   `json:"genres"`
	Platforms   []string   `json:"platforms"`
	Developer   string     `json:"developer"`
	Publisher   string     `json:"publisher"`
	AvgRating   float64    `json:"avgRating"`
	RatingCount int        `json:"ratingCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// GameSummary is the minimal embedded form used inside list items, feed
// entries and user review listings.
type GameSummary struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	CoverImage string   `json:"coverImage"`
	Genres     []string `json:"genres,omitempty"`
	AvgRating  float64  `json:"avgRating"`
}

func (g *Game) Summary() GameSummary {
	return GameSummary{
		ID:         g.ID,
		Title:      g.Title,
		CoverImage: g.CoverImage,
		Genres:     g.Genres,
		AvgRating:  g.AvgRating,
	}
}

// Screenshot is one image from the enrichment provider.
type Screenshot struct {
	URL    string `json:"url"`
	URLHD  string `json:"urlHD"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// GameEnrichment is optional, live-fetched detail that is never persisted.
type GameEnrichment struct {
	Storyline   string       `json:"storyline,omitempty"`
	Summary     string       `json:"summary,omitempty"`
	Screenshots []Screenshot `json:"screenshots"`
	Themes      []string     `json:"themes"`
	GameModes   []string     `json:"gameModes"`
}

// GameDetail is a Game plus whatever enrichment could be fetched.
type GameDetail struct {
	Game
	GameEnrichment
}
