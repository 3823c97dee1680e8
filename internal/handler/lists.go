package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/service"
)

// ListHandler serves curated game lists. Reads go through OptionalAuth so
// owners can see their private lists; writes require a user.
type ListHandler struct {
	lists  *service.ListService
	logger *slog.Logger
}

func NewListHandler(lists *service.ListService, logger *slog.Logger) *ListHandler {
	return &ListHandler{lists: lists, logger: logger}
}

// HTTP: POST /api/lists
func (h *ListHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var in model.ListInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.lists.CreateList(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// HTTP: GET /api/lists/{id}
func (h *ListHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	list, err := h.lists.GetList(r.Context(), chi.URLParam(r, "id"), currentUser(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HTTP: PUT /api/lists/{id}
func (h *ListHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var patch model.ListPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.lists.UpdateList(r.Context(), chi.URLParam(r, "id"), userID, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HTTP: DELETE /api/lists/{id}
func (h *ListHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.lists.DeleteList(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addItemRequest struct {
	GameID string  `json:"gameId"`
	Note   *string `json:"note"`
}

// HandleAddItem appends a game to the end of the list.
//
// HTTP: POST /api/lists/{id}/items
func (h *ListHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.GameID == "" {
		writeError(w, r, h.logger, apperror.ValidationFailed("gameId", "gameId is required"))
		return
	}

	item, err := h.lists.AddItem(r.Context(), chi.URLParam(r, "id"), userID, req.GameID, req.Note)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// HTTP: DELETE /api/lists/{id}/items/{gameId}
func (h *ListHandler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	err = h.lists.RemoveItem(r.Context(), chi.URLParam(r, "id"), userID, chi.URLParam(r, "gameId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	Items []model.ItemPosition `json:"items"`
}

// HandleReorder applies a complete new ordering. A request that is not a
// permutation of the current items is rejected as a whole.
//
// HTTP: PUT /api/lists/{id}/items/order
func (h *ListHandler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	items, err := h.lists.ReorderItems(r.Context(), chi.URLParam(r, "id"), userID, req.Items)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
