package matching

import (
	"math"

	"github.com/teamforge/crew/internal/domain/profile"
)

// MutualScore is a bidirectional compatibility result. Total is the
// geometric mean of the two one-way totals, so a lopsided 90/10 pair scores
// below a balanced 55/55 pair; "both must want to team up" semantics.
type MutualScore struct {
	Total           float64   `json:"total"`
	UserToCandidate float64   `json:"user_to_candidate"`
	CandidateToUser float64   `json:"candidate_to_user"`
	Breakdown       Breakdown `json:"breakdown"` // forward direction
}

// MutualScore computes the compatibility in both directions and combines
// them via geometric mean. Symmetric in a and b up to the reported
// breakdown direction.
func (s *Scorer) MutualScore(a, b *profile.Profile, sctx Context) MutualScore {
	forward := s.Score(a, b, sctx)
	backward := s.Score(b, a, sctx)
	return MutualScore{
		Total:           math.Sqrt(forward.Total * backward.Total),
		UserToCandidate: forward.Total,
		CandidateToUser: backward.Total,
		Breakdown:       forward.Breakdown,
	}
}
