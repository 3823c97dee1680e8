package handler

// RESPONSE HELPERS:
// These functions standardise how we read requests and send responses.
//
//	writeJSON(w, http.StatusOK, data)
//	writeError(w, r, h.logger, err)
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//
//	{"error": "NotFound", "message": "list not found with id abc123"}
//
// plus "field" when a validation error names one.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/auth"
	"github.com/sakif/playtrack/internal/model"
)

// maxBodyBytes caps JSON request bodies. Reviews are the largest payload.
const maxBodyBytes = 64 << 10

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON sends a JSON response with the given status code. Headers and
// status go out before the body; nothing can be changed after Encode.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorStatus maps an error kind to its HTTP status and wire name.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "InvalidInput"
	case errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthenticated"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "NotFound"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, apperror.ErrCatalogUnavailable):
		return http.StatusBadGateway, "CatalogUnavailable"
	}
	return http.StatusInternalServerError, "InternalError"
}

// writeError is the only place an error kind becomes an HTTP status.
// Untyped errors become a generic 500 and are logged; their text may hold
// SQL or file paths and never reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, kind := errorStatus(err)

	var appErr *apperror.AppError
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "InternalError",
			Message: "An internal error occurred",
		})
		return
	}
	if status == http.StatusBadGateway {
		logger.Warn("catalog unavailable", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	}

	writeJSON(w, status, ErrorResponse{Error: kind, Message: appErr.Message, Field: appErr.Field})
}

// decodeJSON reads a JSON body into dst. Unknown fields are rejected so
// typos in optional fields do not silently become "leave unchanged".
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is required")
		}
		return apperror.ValidationFailed("body", fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// pageFromQuery reads ?page=&limit=. Missing values take the defaults;
// garbage is a 400.
func pageFromQuery(r *http.Request) (model.PageRequest, error) {
	var p model.PageRequest
	for _, q := range []struct {
		name string
		dst  *int
	}{{"page", &p.Page}, {"limit", &p.Limit}} {
		raw := r.URL.Query().Get(q.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, apperror.ValidationFailed(q.name, q.name+" must be a positive integer")
		}
		*q.dst = n
	}
	return p.Normalize(), nil
}

// currentUser returns the authenticated user id, or "" for anonymous
// requests on OptionalAuth routes.
func currentUser(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// requireUser is currentUser for routes that must be authenticated. The
// RequireAuth middleware normally guarantees it.
func requireUser(r *http.Request) (string, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok || id == "" {
		return "", apperror.Unauthenticated("valid authentication required")
	}
	return id, nil
}
