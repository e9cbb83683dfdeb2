// Package selection picks a diverse team from scored candidates.
//
// The selector is a greedy approximation: each round it re-scans the
// remaining candidates and takes the best match-score-plus-diversity-bonus
// pick, folding the winner's role, category and skills into the running
// team state. O(limit × n); acceptable because the candidate pipeline
// bounds n before selection.
package selection

import (
	"strings"

	"github.com/teamforge/crew/internal/domain/matching"
	"github.com/teamforge/crew/internal/domain/profile"
)

// Diversity bonus constants.
const (
	newCategoryBonus = 15.0
	newRoleBonus     = 10.0
	perNewSkillBonus = 2.0
	newSkillBonusCap = 10.0
)

// Candidate is a scored profile under consideration for a team.
type Candidate struct {
	Profile    *profile.Profile
	MatchScore float64
	Breakdown  matching.Breakdown
	Mutual     *matching.MutualScore // set when scored bidirectionally
}

// teamState tracks what the team already covers. Discarded after one run.
type teamState struct {
	roles      map[string]struct{}
	categories map[profile.Category]struct{}
	skills     map[string]struct{}
	considered map[string]struct{}
}

func newTeamState(requester *profile.Profile) *teamState {
	st := &teamState{
		roles:      make(map[string]struct{}),
		categories: make(map[profile.Category]struct{}),
		skills:     make(map[string]struct{}),
		considered: make(map[string]struct{}),
	}
	if requester != nil {
		st.fold(requester)
		st.considered[requester.ID] = struct{}{}
	}
	return st
}

// fold absorbs a member's role, category and skills into the team state.
func (st *teamState) fold(p *profile.Profile) {
	if role := normalizeRole(p.Matching.PrimaryRole); role != "" {
		st.roles[role] = struct{}{}
	}
	if cat := p.RoleCategory(); cat != profile.CategoryUnknown {
		st.categories[cat] = struct{}{}
	}
	for skill := range p.MergedSkills() {
		st.skills[skill] = struct{}{}
	}
}

// diversityBonus rewards what the candidate adds beyond the current team.
func (st *teamState) diversityBonus(p *profile.Profile) float64 {
	var bonus float64

	if cat := p.RoleCategory(); cat != profile.CategoryUnknown {
		if _, ok := st.categories[cat]; !ok {
			bonus += newCategoryBonus
		}
	}
	if role := normalizeRole(p.Matching.PrimaryRole); role != "" {
		if _, ok := st.roles[role]; !ok {
			bonus += newRoleBonus
		}
	}

	newSkills := 0
	for skill := range p.MergedSkills() {
		if _, ok := st.skills[skill]; !ok {
			newSkills++
		}
	}
	skillBonus := perNewSkillBonus * float64(newSkills)
	if skillBonus > newSkillBonusCap {
		skillBonus = newSkillBonusCap
	}
	bonus += skillBonus

	return bonus
}

// Selector runs greedy diversity-aware team selection.
type Selector struct{}

// NewSelector creates a team selector.
func NewSelector() *Selector {
	return &Selector{}
}

// SelectTeam returns up to limit candidates ordered by pick sequence.
// The requester never appears in the result, nor do duplicates.
func (s *Selector) SelectTeam(requester *profile.Profile, candidates []Candidate, limit int) []Candidate {
	if limit <= 0 || len(candidates) == 0 {
		return nil
	}

	st := newTeamState(requester)
	team := make([]Candidate, 0, limit)

	for len(team) < limit {
		bestIdx := -1
		bestScore := 0.0
		for i := range candidates {
			c := &candidates[i]
			if c.Profile == nil {
				continue
			}
			if _, done := st.considered[c.Profile.ID]; done {
				continue
			}
			adjusted := c.MatchScore + st.diversityBonus(c.Profile)
			if bestIdx == -1 || adjusted > bestScore {
				bestIdx = i
				bestScore = adjusted
			}
		}
		if bestIdx == -1 {
			break // no unconsidered candidates remain
		}

		picked := candidates[bestIdx]
		st.considered[picked.Profile.ID] = struct{}{}
		st.fold(picked.Profile)
		team = append(team, picked)
	}

	return team
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
