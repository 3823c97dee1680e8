package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/playtrack/internal/service"
)

type FeedHandler struct {
	feed   *service.FeedService
	logger *slog.Logger
}

func NewFeedHandler(feed *service.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, logger: logger}
}

// HandleFeed returns activities from the users the caller follows, newest
// first.
//
// HTTP: GET /api/feed?page=&limit=
func (h *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
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

	feed, err := h.feed.GetSocialFeed(r.Context(), userID, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}
