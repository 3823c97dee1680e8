package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/service"
)

// CommentHandler serves the comment thread under a game page.
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

// HTTP: GET /api/comments/game/{gameId}?page=&limit=
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.comments.ListGameComments(r.Context(), chi.URLParam(r, "gameId"), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": res.Items, "pagination": res.Pagination})
}

// HandleAdd posts a comment as the caller.
//
// HTTP: POST /api/comments/game/{gameId}
func (h *CommentHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var in model.CommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	comment, err := h.comments.AddComment(r.Context(), userID, chi.URLParam(r, "gameId"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
