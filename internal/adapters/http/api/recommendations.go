// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	service "github.com/teamforge/crew/internal/app"
)

// RecommendationsDependencies defines the interface for recommendation reads.
type RecommendationsDependencies interface {
	Recommendations(ctx context.Context, requesterID string, req RecommendationRequest) ([]RankedCandidate, error)
}

// RecommendationsHandler handles teammate recommendation requests.
type RecommendationsHandler struct {
	deps RecommendationsDependencies
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(deps RecommendationsDependencies) *RecommendationsHandler {
	return &RecommendationsHandler{deps: deps}
}

type recommendationsResponse struct {
	UserID          string            `json:"user_id"`
	Mode            string            `json:"mode"`
	ContestID       string            `json:"contest_id,omitempty"`
	Recommendations []RankedCandidate `json:"recommendations"`
}

// HandleGetRecommendations handles
// GET /recommendations/{user_id}?contest_id&mode&exclude&limit&skip_cache.
func (h *RecommendationsHandler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /recommendations/
	userID := strings.TrimPrefix(r.URL.Path, "/recommendations/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	req, err := parseRecommendationQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	ranked, err := h.deps.Recommendations(r.Context(), userID, req)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if ranked == nil {
		ranked = []RankedCandidate{}
	}

	mode := req.Mode
	if mode != service.ModeTwoWay {
		mode = service.ModeOneWay
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{
		UserID:          userID,
		Mode:            string(mode),
		ContestID:       req.ContestID,
		Recommendations: ranked,
	})
}

func parseRecommendationQuery(r *http.Request) (RecommendationRequest, error) {
	q := r.URL.Query()
	req := RecommendationRequest{
		ContestID: q.Get("contest_id"),
	}

	switch mode := q.Get("mode"); mode {
	case "", string(service.ModeOneWay):
		req.Mode = service.ModeOneWay
	case string(service.ModeTwoWay):
		req.Mode = service.ModeTwoWay
	default:
		return req, ErrBadRequest
	}

	// exclude accepts repeated params and comma-separated lists.
	for _, raw := range q["exclude"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.ExcludeIDs = append(req.ExcludeIDs, id)
			}
		}
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return req, ErrBadRequest
		}
		req.Limit = limit
	}

	if raw := q.Get("skip_cache"); raw != "" {
		skip, err := strconv.ParseBool(raw)
		if err != nil {
			return req, ErrBadRequest
		}
		req.SkipCache = skip
	}
	return req, nil
}
