package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/service"
)

// GameHandler serves game pages and everything hanging off a game: its
// reviews, its rating stats and review likes.
type GameHandler struct {
	games   *service.GameService
	reviews *service.ReviewService
	logger  *slog.Logger
}

func NewGameHandler(games *service.GameService, reviews *service.ReviewService, logger *slog.Logger) *GameHandler {
	return &GameHandler{games: games, reviews: reviews, logger: logger}
}

// HandleGet returns a game by local or catalog id, materializing it on
// first reference.
//
// HTTP: GET /api/games/{ref}
func (h *GameHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.games.GetGame(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleListReviews pages through a game's reviews.
//
// HTTP: GET /api/games/{ref}/reviews?sortBy=createdAt|likes&page=&limit=
func (h *GameHandler) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	sort := model.ReviewSort(r.URL.Query().Get("sortBy"))

	res, err := h.reviews.ListGameReviews(r.Context(), chi.URLParam(r, "ref"), sort, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": res.Items, "pagination": res.Pagination})
}

// HandleReviewStats returns the rating histogram for a game.
//
// HTTP: GET /api/games/{ref}/reviews/stats
func (h *GameHandler) HandleReviewStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reviews.GetReviewStats(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleSubmitReview creates or updates the caller's review of a game.
//
// HTTP: POST /api/games/{ref}/reviews
func (h *GameHandler) HandleSubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var in model.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	review, err := h.reviews.SubmitReview(r.Context(), userID, chi.URLParam(r, "ref"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// HandleLikeReview adds one like.
//
// HTTP: POST /api/reviews/{id}/like
func (h *GameHandler) HandleLikeReview(w http.ResponseWriter, r *http.Request) {
	likes, err := h.reviews.LikeReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"likes": likes})
}
