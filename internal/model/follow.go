package model

import "time"

// Follow is a directed edge: FollowerID follows FolloweeID.
type Follow struct {
	FollowerID string    `json:"followerId"`
	FolloweeID string    `json:"followeeId"`
	CreatedAt  time.Time `json:"createdAt"`
}
