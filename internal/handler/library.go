package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/service"
)

// LibraryHandler serves the signed-in user's own library. Every route here
// sits behind RequireAuth.
type LibraryHandler struct {
	library *service.LibraryService
	logger  *slog.Logger
}

func NewLibraryHandler(library *service.LibraryService, logger *slog.Logger) *LibraryHandler {
	return &LibraryHandler{library: library, logger: logger}
}

// HandleList pages through the library, optionally filtered by ?status=.
//
// HTTP: GET /api/library
func (h *LibraryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.library.ListLibrary(r.Context(), userID, statusFromQuery(r), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": res.Items, "pagination": res.Pagination})
}

// statusFromQuery reads the optional ?status= filter. Unknown values are
// rejected by the service.
func statusFromQuery(r *http.Request) *model.LibraryStatus {
	s := r.URL.Query().Get("status")
	if s == "" {
		return nil
	}
	st := model.LibraryStatus(s)
	return &st
}

// HandleUpsert adds a game (local or catalog id) or updates its entry.
//
// HTTP: PUT /api/library/{gameId}
func (h *LibraryHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var patch model.LibraryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entry, err := h.library.UpsertEntry(r.Context(), userID, chi.URLParam(r, "gameId"), patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HTTP: GET /api/library/{gameId}
func (h *LibraryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	entry, err := h.library.GetEntry(r.Context(), userID, chi.URLParam(r, "gameId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleLogSession records a play session.
//
// HTTP: POST /api/library/{gameId}/sessions
func (h *LibraryHandler) HandleLogSession(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var in model.SessionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	session, err := h.library.LogSession(r.Context(), userID, chi.URLParam(r, "gameId"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

type favoriteRequest struct {
	Favorite *bool `json:"favorite"`
}

// HTTP: PUT /api/library/{gameId}/favorite
func (h *LibraryHandler) HandleSetFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req favoriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.Favorite == nil {
		writeError(w, r, h.logger, apperror.ValidationFailed("favorite", "favorite is required"))
		return
	}

	entry, err := h.library.SetFavorite(r.Context(), userID, chi.URLParam(r, "gameId"), *req.Favorite)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
