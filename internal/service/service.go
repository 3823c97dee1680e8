// Package service contains the business logic of the application.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)     → parses requests, writes responses
//	Service (business) → validates, enforces ownership, orchestrates
//	Repository (data)  → reads/writes the store
//
// Services never see HTTP. They take plain ids and inputs, return domain
// structs, and report failures as apperror kinds. The handler layer is the
// only place a kind becomes a status code.
//
// TRANSACTIONS:
// Any operation that writes more than one related row runs inside
// repository.Database.WithinTx, and every read or write in that unit goes
// through the tx Store passed to the callback. External catalog calls
// always happen before a transaction is opened, never inside one.
package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

// Field length limits.
const (
	MaxReviewLength    = 10000
	MaxListTitleLength = 120
	MaxNoteLength      = 1000
	MaxBioLength       = 500
	MaxCommentLength   = 2000
)

// roundTo1 rounds to one decimal place.
func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}

func isConflict(err error) bool {
	return errors.Is(err, apperror.ErrConflict)
}

func requireID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	return id, nil
}

// listPage runs a paged repository query and wraps the result.
func listPage[T any](req model.PageRequest, query func(repository.ListOptions) ([]T, int, error)) (*model.Page[T], error) {
	req = req.Normalize()
	items, total, err := query(repository.FromPage(req))
	if err != nil {
		return nil, err
	}
	return &model.Page[T]{Items: items, Pagination: model.NewPagination(req, total)}, nil
}

// ensureUser turns a missing user into ErrNotFound before a listing runs,
// so "no such user" and "user with nothing" are distinguishable.
func ensureUser(ctx context.Context, users repository.UserRepository, id string) error {
	_, err := users.GetUserByID(ctx, id)
	return err
}
