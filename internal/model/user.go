// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// A user signs up either with handle/email/password or through GitHub. For
// GitHub logins GitHubID carries the provider's numeric id; it is nil for
// password-only accounts. The UNIQUE constraint on github_id keeps one GitHub
// account mapped to exactly one user.
//
// WHY PasswordHash HAS json:"-"?
// The struct is returned from services and may end up in a handler response.
// The "-" tag guarantees the bcrypt hash never leaves the process.
type User struct {
	ID           string    `json:"id"          db:"id"`
	Handle       string    `json:"handle"      db:"handle"`
	Email        string    `json:"email"       db:"email"`
	PasswordHash string    `json:"-"           db:"password_hash"`
	GitHubID     *int64    `json:"githubId"    db:"github_id"`
	DisplayName  string    `json:"displayName" db:"display_name"`
	AvatarURL    string    `json:"avatarUrl"   db:"avatar_url"`
	Bio          string    `json:"bio"         db:"bio"`
	CreatedAt    time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"   db:"updated_at"`
}

// UserSummary is the public-safe projection of a User: no email, no
// credentials. Follower lists, review authors and feed actors all use it.
type UserSummary struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
	Bio         string `json:"bio,omitempty"`
}

// Summary projects the user down to its public fields.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Bio:         u.Bio,
	}
}

// UserProfile is what GET /api/users/{id} returns.
type UserProfile struct {
	UserSummary
	CreatedAt      time.Time `json:"createdAt"`
	FollowerCount  int       `json:"followerCount"`
	FollowingCount int       `json:"followingCount"`
	LibraryCount   int       `json:"libraryCount"`
	TotalHours     int       `json:"totalHours"`
	// IsFollowing is set only when the viewer is authenticated and not the profile owner.
	IsFollowing *bool `json:"isFollowing,omitempty"`
}
