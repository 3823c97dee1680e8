// Package repository declares the storage capabilities the services depend on.
//
// Services only ever see these interfaces. The concrete implementation lives
// in repository/sqlite; tests can substitute their own.
//
// TRANSACTIONS:
// Database.WithinTx hands the callback a Store bound to a single transaction.
// Everything done through that Store commits or rolls back together. Inside
// the callback only the tx Store may be used.
package repository

import (
	"context"

	"github.com/sakif/playtrack/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// FromPage converts a normalized page request into limit/offset.
func FromPage(p model.PageRequest) ListOptions {
	return ListOptions{Limit: p.Limit, Offset: p.Offset()}
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUserByLogin matches either the handle or the email.
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	// UpsertGitHubUser creates the user on first login and refreshes the
	// avatar and display name afterwards. user.GitHubID must be set.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
	GetUserCounts(ctx context.Context, id string) (*UserCounts, error)
}

// UserCounts backs the profile page.
type UserCounts struct {
	Followers      int
	Following      int
	Library        int
	SessionMinutes int
}

type GameRepository interface {
	// CreateGame fails with apperror.ErrConflict when the external id is taken.
	CreateGame(ctx context.Context, game *model.Game) error
	GetGameByID(ctx context.Context, id string) (*model.Game, error)
	GetGameByExternalID(ctx context.Context, externalID string) (*model.Game, error)
	// RecomputeGameRating rewrites avg_rating and rating_count from the
	// current non-null library ratings for the game.
	RecomputeGameRating(ctx context.Context, gameID string) error
}

type LibraryRepository interface {
	GetEntry(ctx context.Context, userID, gameID string) (*model.LibraryEntry, error)
	// CreateEntry fails with apperror.ErrConflict when (user, game) exists.
	CreateEntry(ctx context.Context, entry *model.LibraryEntry) error
	UpdateEntry(ctx context.Context, entry *model.LibraryEntry) error
	ListEntries(ctx context.Context, userID string, status *model.LibraryStatus, opts ListOptions) ([]model.LibraryEntry, int, error)
	// AddSession inserts the session and bumps hours_played and
	// session_count on its entry.
	AddSession(ctx context.Context, session *model.PlaySession) error

	CountByStatus(ctx context.Context, userID string) (map[model.LibraryStatus]int, error)
	// RatingSummary returns the raw mean (nil when nothing is rated) and the
	// number of rated entries for a user.
	RatingSummary(ctx context.Context, userID string) (*float64, int, error)
	GenreCounts(ctx context.Context, userID string) ([]model.GenreCount, error)
}

type ReviewRepository interface {
	GetReviewByID(ctx context.Context, id string) (*model.Review, error)
	GetReviewByUserGame(ctx context.Context, userID, gameID string) (*model.Review, error)
	CreateReview(ctx context.Context, review *model.Review) error
	UpdateReview(ctx context.Context, review *model.Review) error
	IncrementLikes(ctx context.Context, id string) (int, error)
	ListReviewsByGame(ctx context.Context, gameID string, sort model.ReviewSort, opts ListOptions) ([]model.Review, int, error)
	ListReviewsByUser(ctx context.Context, userID string, opts ListOptions) ([]model.Review, int, error)
	GetReviewStats(ctx context.Context, gameID string) (*model.ReviewStats, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	// ListCommentsByGame returns newest first with each author joined in.
	ListCommentsByGame(ctx context.Context, gameID string, opts ListOptions) ([]model.Comment, int, error)
}

type FollowRepository interface {
	// CreateFollow fails with apperror.ErrConflict on a duplicate edge.
	CreateFollow(ctx context.Context, follow *model.Follow) error
	// DeleteFollow reports whether an edge was removed.
	DeleteFollow(ctx context.Context, followerID, followeeID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	ListFollowers(ctx context.Context, userID string, opts ListOptions) ([]model.UserSummary, int, error)
	ListFollowing(ctx context.Context, userID string, opts ListOptions) ([]model.UserSummary, int, error)
	// FollowingIDs returns the complete following set, unpaginated.
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
}

type ActivityRepository interface {
	AppendActivity(ctx context.Context, activity *model.Activity) error
	// ListActivitiesForUsers returns events authored by any of userIDs,
	// newest first, with the actor and game summaries joined in.
	ListActivitiesForUsers(ctx context.Context, userIDs []string, opts ListOptions) ([]model.FeedItem, int, error)
}

type ListRepository interface {
	CreateList(ctx context.Context, list *model.GameList) error
	GetList(ctx context.Context, id string) (*model.GameList, error)
	UpdateList(ctx context.Context, list *model.GameList) error
	DeleteList(ctx context.Context, id string) error
	ListListsByUser(ctx context.Context, userID string, publicOnly bool, opts ListOptions) ([]model.GameList, int, error)

	ListItems(ctx context.Context, listID string) ([]model.GameListItem, error)
	// NextItemPosition is max(position)+1, or 0 for an empty list.
	NextItemPosition(ctx context.Context, listID string) (int, error)
	// AddListItem fails with apperror.ErrConflict if the game is already listed.
	AddListItem(ctx context.Context, item *model.GameListItem) error
	// RemoveListItem deletes the item and closes the gap it leaves.
	RemoveListItem(ctx context.Context, listID, gameID string) error
	SetItemPosition(ctx context.Context, listID, gameID string, position int) error
	TouchList(ctx context.Context, listID string) error
}

// Store is every repository at once, bound either to the pool or to one
// transaction.
type Store interface {
	UserRepository
	GameRepository
	LibraryRepository
	ReviewRepository
	CommentRepository
	FollowRepository
	ActivityRepository
	ListRepository
}

// Database is a Store that can also open transactions.
type Database interface {
	Store
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
