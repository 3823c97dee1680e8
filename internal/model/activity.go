package model

import (
	"encoding/json"
	"time"
)

// ActivityKind names what happened.
type ActivityKind string

const (
	ActivityGameAdded   ActivityKind = "GAME_ADDED"
	ActivityStarted     ActivityKind = "STARTED"
	ActivitySession     ActivityKind = "SESSION"
	ActivityCompleted   ActivityKind = "COMPLETED"
	ActivityReview      ActivityKind = "REVIEW"
	ActivityComment     ActivityKind = "COMMENT"
	ActivityListCreated ActivityKind = "LIST_CREATED"
)

// Activity is one append-only ledger row. EntityID points at whatever caused
// it (a review id, a list id, a library entry id).
type Activity struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	GameID    *string         `json:"gameId"`
	Kind      ActivityKind    `json:"type"`
	EntityID  *string         `json:"entityId"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ActivityInput carries the optional references for a ledger append.
type ActivityInput struct {
	GameID   string
	EntityID string
	Metadata map[string]any
}

// FeedItem is an Activity as seen in a follower's feed: the actor and game
// are joined in, and REVIEW items carry the review text and the author's
// rating. Either may be nil when the referenced row is gone.
type FeedItem struct {
	Activity
	User          *UserSummary `json:"user,omitempty"`
	Game          *GameSummary `json:"game,omitempty"`
	ReviewContent *string      `json:"reviewContent,omitempty"`
	ReviewRating  *int         `json:"reviewRating,omitempty"`
}

// Feed is one page of a user's social feed.
type Feed struct {
	Activities []FeedItem `json:"activities"`
	Pagination Pagination `json:"pagination"`
}
