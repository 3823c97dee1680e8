package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/service"
)

// UserHandler serves public profiles, what hangs off them, and the follow
// graph.
type UserHandler struct {
	social  *service.SocialService
	library *service.LibraryService
	reviews *service.ReviewService
	lists   *service.ListService
	logger  *slog.Logger
}

func NewUserHandler(social *service.SocialService, library *service.LibraryService, reviews *service.ReviewService, lists *service.ListService, logger *slog.Logger) *UserHandler {
	return &UserHandler{social: social, library: library, reviews: reviews, lists: lists, logger: logger}
}

// HandleProfile returns a profile with counts. isFollowing is filled in
// when an authenticated viewer looks at someone else's profile.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.social.GetProfile(r.Context(), chi.URLParam(r, "id"), currentUser(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleLibrary is the public view of someone's library.
//
// HTTP: GET /api/users/{id}/library?status=&page=&limit=
func (h *UserHandler) HandleLibrary(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.library.ListUserLibrary(r.Context(), chi.URLParam(r, "id"), statusFromQuery(r), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": res.Items, "pagination": res.Pagination})
}

// HTTP: GET /api/users/{id}/activity
func (h *UserHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.social.ListUserActivity(r.Context(), chi.URLParam(r, "id"), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Feed{Activities: res.Items, Pagination: res.Pagination})
}

// HTTP: GET /api/users/{id}/reviews
func (h *UserHandler) HandleReviews(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.reviews.ListUserReviews(r.Context(), chi.URLParam(r, "id"), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": res.Items, "pagination": res.Pagination})
}

// HandleLists returns a user's lists. Anyone but the owner sees only the
// public ones.
//
// HTTP: GET /api/users/{id}/lists
func (h *UserHandler) HandleLists(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.lists.GetUserLists(r.Context(), chi.URLParam(r, "id"), currentUser(r), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": res.Items, "pagination": res.Pagination})
}

// HTTP: GET /api/users/{id}/followers
func (h *UserHandler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.social.ListFollowers(r.Context(), chi.URLParam(r, "id"), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": res.Items, "pagination": res.Pagination})
}

// HTTP: GET /api/users/{id}/following
func (h *UserHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.social.ListFollowing(r.Context(), chi.URLParam(r, "id"), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": res.Items, "pagination": res.Pagination})
}

// HTTP: POST /api/users/{id}/follow
func (h *UserHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.social.Follow(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"following": true})
}

// HTTP: DELETE /api/users/{id}/follow
func (h *UserHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.social.Unfollow(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"following": false})
}
