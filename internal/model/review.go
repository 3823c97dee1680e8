package model

import "time"

// Review is a user's written review of a game. At most one exists per
// (user, game) pair; resubmitting edits it in place.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	GameID    string    `json:"gameId"`
	Content   string    `json:"content"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Joined on read. Author is set for game listings and submit results,
	// Game for a user's own listing.
	Author *UserSummary `json:"user,omitempty"`
	Game   *GameSummary `json:"game,omitempty"`
	// Rating is the author's current library rating for the game, if any.
	Rating *int `json:"rating,omitempty"`
}

// ReviewInput is what a caller submits.
type ReviewInput struct {
	Content string `json:"content"`
	Rating  *int   `json:"rating"`
}

// ReviewSort selects the listing order for a game's reviews.
type ReviewSort string

const (
	SortRecent ReviewSort = "createdAt"
	SortLikes  ReviewSort = "likes"
)

// RatingBucket is one bar of the rating histogram.
type RatingBucket struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// ReviewStats is computed fresh from current rows on every call.
type ReviewStats struct {
	AverageRating *float64       `json:"averageRating"`
	TotalRatings  int            `json:"totalRatings"`
	TotalReviews  int            `json:"totalReviews"`
	Distribution  []RatingBucket `json:"distribution"`
}
