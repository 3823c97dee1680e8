package model

import (
	"fmt"
	"time"
)

// LibraryStatus is where a game sits in a user's library.
type LibraryStatus string

const (
	StatusBacklog   LibraryStatus = "BACKLOG"
	StatusPlaying   LibraryStatus = "PLAYING"
	StatusCompleted LibraryStatus = "COMPLETED"
	StatusDropped   LibraryStatus = "DROPPED"
	StatusPaused    LibraryStatus = "PAUSED"
)

// AllStatuses lists every status in display order.
var AllStatuses = []LibraryStatus{
	StatusBacklog, StatusPlaying, StatusCompleted, StatusDropped, StatusPaused,
}

func (s LibraryStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// InProgress reports whether the status counts as "currently playing".
func (s LibraryStatus) InProgress() bool {
	return s == StatusPlaying
}

// Rating scale bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 10
)

// ValidRating reports whether r is on the rating scale.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// LibraryEntry is a user's tracked relationship to one game. There is at most
// one per (user, game) pair.
type LibraryEntry struct {
	ID           string        `json:"id"`
	UserID       string        `json:"userId"`
	GameID       string        `json:"gameId"`
	Status       LibraryStatus `json:"status"`
	Rating       *int          `json:"rating"`
	Review       *string       `json:"review"`
	Favorite     bool          `json:"favorite"`
	HoursPlayed  float64       `json:"hoursPlayed"`
	SessionCount int           `json:"sessionCount"`
	StartedAt    *time.Time    `json:"startedAt"`
	CompletedAt  *time.Time    `json:"completedAt"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`

	Game *GameSummary `json:"game,omitempty"`
}

// LibraryPatch is a partial update: a nil field means "leave unchanged".
type LibraryPatch struct {
	Status   *LibraryStatus `json:"status"`
	Rating   *int           `json:"rating"`
	Review   *string        `json:"review"`
	Favorite *bool          `json:"favorite"`
}

// Validate checks the supplied fields only.
func (p LibraryPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("unknown status %q", *p.Status)
	}
	if p.Rating != nil && !ValidRating(*p.Rating) {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

// Apply merges the supplied fields into e and stamps the lifecycle
// timestamps: StartedAt the first time the entry becomes PLAYING and
// CompletedAt each time it becomes COMPLETED. UpdatedAt always moves.
func (p LibraryPatch) Apply(e *LibraryEntry, now time.Time) {
	if p.Status != nil {
		e.Status = *p.Status
		switch *p.Status {
		case StatusPlaying:
			if e.StartedAt == nil {
				e.StartedAt = &now
			}
		case StatusCompleted:
			e.CompletedAt = &now
		}
	}
	if p.Rating != nil {
		r := *p.Rating
		e.Rating = &r
	}
	if p.Review != nil {
		rv := *p.Review
		e.Review = &rv
	}
	if p.Favorite != nil {
		e.Favorite = *p.Favorite
	}
	e.UpdatedAt = now
}

// PlaySession is one logged stretch of play. Append-only.
type PlaySession struct {
	ID              string    `json:"id"`
	EntryID         string    `json:"entryId"`
	DurationMinutes int       `json:"durationMinutes"`
	Platform        string    `json:"platform"`
	Note            *string   `json:"note"`
	PlayedAt        time.Time `json:"playedAt"`
}

// SessionInput is the caller-supplied part of a PlaySession.
type SessionInput struct {
	DurationMinutes int     `json:"durationMinutes"`
	Platform        string  `json:"platform"`
	Note            *string `json:"note"`
}
