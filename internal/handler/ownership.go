package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/heritage-ledger/internal/auth"
)

func actorFrom(r *http.Request) (uuid.UUID, *AppError) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, ErrMissingToken
	}
	return userID, nil
}

// idFromPath parses a uuid path parameter. A malformed id is reported as not
// found so probing ids reveals nothing.
func idFromPath(r *http.Request, name string) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	return id, nil
}
