// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"
)

// InvalidateDependencies defines the interface for cache invalidation.
type InvalidateDependencies interface {
	InvalidateUser(ctx context.Context, id string) (int, error)
}

// InvalidateHandler handles cache invalidation requests.
type InvalidateHandler struct {
	deps InvalidateDependencies
}

// NewInvalidateHandler creates a new invalidate handler.
func NewInvalidateHandler(deps InvalidateDependencies) *InvalidateHandler {
	return &InvalidateHandler{deps: deps}
}

type invalidateResponse struct {
	UserID  string `json:"user_id"`
	Evicted int    `json:"evicted"`
}

// HandleInvalidate handles POST /invalidate/{user_id} requests.
func (h *InvalidateHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /invalidate/
	userID := strings.TrimPrefix(r.URL.Path, "/invalidate/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	evicted, err := h.deps.InvalidateUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, invalidateResponse{UserID: userID, Evicted: evicted})
}
