package model

import "time"

// Comment is a free-form remark on a game page. Unlike reviews a user may
// leave any number of them.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	GameID    string    `json:"gameId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`

	Author *UserSummary `json:"user,omitempty"`
}

type CommentInput struct {
	Content string `json:"content"`
}
