package repository

import (
	"strings"

	"github.com/teamforge/crew/internal/domain/profile"
)

// MaxCandidateFetch caps how many candidates a single query may return,
// whatever limit the caller asks for.
const MaxCandidateFetch = 200

// candidateFields is the projection applied to candidate queries. Scoring
// needs matching data, contest preferences and consent flags; display needs
// the name and avatar. Everything else stays in the store.
var candidateFields = []string{
	"display_name",
	"avatar_url",
	"matching",
	"contest_preferences",
	"consents",
}

// CandidateQuery describes one staged candidate lookup:
// filter -> project -> limit.
type CandidateQuery struct {
	ExcludeIDs            map[string]struct{}
	RequireOpenToNewTeams bool
	RequireAllowMatching  bool
	InterestsAny          []string
	Fields                []string
	Limit                 int
}

// BuildCandidateQuery assembles the standard candidate query for a
// recommendation run. The requester is always excluded, consent filters are
// always on, and the limit is clamped to MaxCandidateFetch.
func BuildCandidateQuery(requesterID string, contestTags, excludeIDs []string, limit int) CandidateQuery {
	exclude := make(map[string]struct{}, len(excludeIDs)+1)
	exclude[requesterID] = struct{}{}
	for _, id := range excludeIDs {
		if id != "" {
			exclude[id] = struct{}{}
		}
	}

	if limit <= 0 || limit > MaxCandidateFetch {
		limit = MaxCandidateFetch
	}

	return CandidateQuery{
		ExcludeIDs:            exclude,
		RequireOpenToNewTeams: true,
		RequireAllowMatching:  true,
		InterestsAny:          contestTags,
		Fields:                candidateFields,
		Limit:                 limit,
	}
}

// Matches reports whether a profile passes the query's filter stage.
// When InterestsAny is set the candidate must share at least one contest
// interest with it.
func (q CandidateQuery) Matches(p *profile.Profile) bool {
	if p == nil || p.ID == "" {
		return false
	}
	if _, excluded := q.ExcludeIDs[p.ID]; excluded {
		return false
	}
	if q.RequireAllowMatching && (p.Consents == nil || !p.Consents.AllowMatching) {
		return false
	}
	if q.RequireOpenToNewTeams && !p.Matching.OpenToNewTeams {
		return false
	}
	if len(q.InterestsAny) > 0 && !interestOverlap(p.Contest.Interests, q.InterestsAny) {
		return false
	}
	return true
}

// interestOverlap reports whether any candidate interest appears in the
// wanted set. Comparison is case-insensitive.
func interestOverlap(interests, wanted []string) bool {
	if len(interests) == 0 {
		return false
	}
	want := make(map[string]struct{}, len(wanted))
	for _, w := range wanted {
		want[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	for _, in := range interests {
		if _, ok := want[strings.ToLower(strings.TrimSpace(in))]; ok {
			return true
		}
	}
	return false
}

// wantsField reports whether the projection includes the named field.
// An empty projection means all fields.
func (q CandidateQuery) wantsField(name string) bool {
	if len(q.Fields) == 0 {
		return true
	}
	for _, f := range q.Fields {
		if f == name {
			return true
		}
	}
	return false
}
