// Package matching computes multi-factor compatibility scores between
// profiles. Scoring is pure and deterministic: no I/O, no clocks, no
// randomness. Eight weighted factors sum to at most 100; the ceiling is
// enforced by weight design, with each factor clamped to its own weight.
package matching

import (
	"strings"

	"github.com/teamforge/crew/internal/domain/profile"
)

// Factor weights. They sum to 100.
const (
	weightRoleDiversity  = 25.0
	weightSkills         = 20.0
	weightAvailability   = 15.0
	weightExperience     = 10.0
	weightLocation       = 10.0
	weightCommunication  = 10.0
	weightContest        = 5.0
	weightCollaboration  = 5.0
)

// Role diversity scoring constants.
const (
	roleDiversityBase        = 10.0
	samePrimaryRolePenalty   = 10.0
	differentCategoryBonus   = 15.0
	roleFilledOnTeamPenalty  = 15.0
	newCategoryOnTeamBonus   = 10.0
	uniqueSecondaryRoleBonus = 2.0
)

// Skill complementarity scoring constants. Overlap in the 20-50% band is
// the sweet spot: enough shared ground to collaborate, enough difference
// to complement.
const (
	skillSweetSpotLow    = 0.2
	skillSweetSpotHigh   = 0.5
	skillSweetSpotScore  = 8.0
	skillTooSimilarScore = 6.0
	skillLowOverlapScore = 4.0
	skillNoOverlapScore  = 2.0
	skillNoveltyMax      = 8.0
	largeSkillSetSize    = 10
	hugeSkillSetSize     = 20
	skillSetSizeBonus    = 2.0
	skillNeutral         = 5.0
)

// Availability scoring tiers over the slot-overlap ratio.
const (
	availabilityNeutral = 7.0
	availabilityFloor   = 5.0
)

// Experience distance scores, indexed by distance on the ordered scale.
var experienceDistanceScores = [4]float64{10, 8, 5, 3}

const experienceNeutral = 5.0

// Location and timezone scoring constants.
const (
	sameLocationScore     = 5.0
	closeTimezoneScore    = 5.0
	farTimezonePartial    = 2.0
	timezoneProximityHrs  = 3.0
)

// Communication tool overlap tiers.
const communicationNeutral = 5.0

// Collaboration style overlap tiers.
const collaborationNeutral = 2.0

// Context carries optional scoring context: contest tags bias the contest
// factor, and team state makes the role/skill factors team-aware. All
// fields may be empty.
type Context struct {
	ContestTags    []string
	TeamRoles      []string
	TeamCategories []string
	TeamSkills     []string
}

// Breakdown holds the eight named sub-scores. They sum to Score.Total.
type Breakdown struct {
	RoleDiversity        float64 `json:"role_diversity"`
	SkillComplementarity float64 `json:"skill_complementarity"`
	Availability         float64 `json:"availability"`
	Experience           float64 `json:"experience"`
	LocationTimezone     float64 `json:"location_timezone"`
	Communication        float64 `json:"communication"`
	ContestPreferences   float64 `json:"contest_preferences"`
	CollaborationStyle   float64 `json:"collaboration_style"`
}

// Total sums the sub-scores.
func (b Breakdown) Total() float64 {
	return b.RoleDiversity + b.SkillComplementarity + b.Availability +
		b.Experience + b.LocationTimezone + b.Communication +
		b.ContestPreferences + b.CollaborationStyle
}

// Score is a one-way compatibility result in [0, 100].
type Score struct {
	Total     float64   `json:"total"`
	Breakdown Breakdown `json:"breakdown"`
}

// Scorer computes compatibility scores between two profiles.
type Scorer struct{}

// NewScorer creates a compatibility scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the requester→candidate compatibility. Missing optional
// fields on either side degrade to neutral or partial sub-scores; the
// function never fails.
func (s *Scorer) Score(requester, candidate *profile.Profile, sctx Context) Score {
	b := Breakdown{
		RoleDiversity:        scoreRoleDiversity(requester, candidate, sctx),
		SkillComplementarity: scoreSkillComplementarity(requester, candidate, sctx),
		Availability:         scoreAvailability(requester, candidate),
		Experience:           scoreExperience(requester, candidate),
		LocationTimezone:     scoreLocationTimezone(requester, candidate),
		Communication:        scoreCommunication(requester, candidate),
		ContestPreferences:   scoreContestPreferences(requester, candidate, sctx),
		CollaborationStyle:   scoreCollaborationStyle(requester, candidate),
	}
	return Score{Total: b.Total(), Breakdown: b}
}

// scoreRoleDiversity rewards candidates whose role widens the team rather
// than duplicating it.
func scoreRoleDiversity(requester, candidate *profile.Profile, sctx Context) float64 {
	score := roleDiversityBase

	reqRole := strings.ToLower(strings.TrimSpace(requester.Matching.PrimaryRole))
	candRole := strings.ToLower(strings.TrimSpace(candidate.Matching.PrimaryRole))

	if reqRole != "" && reqRole == candRole {
		score -= samePrimaryRolePenalty
	}

	reqCat := requester.RoleCategory()
	candCat := candidate.RoleCategory()
	if reqCat != profile.CategoryUnknown && candCat != profile.CategoryUnknown && reqCat != candCat {
		score += differentCategoryBonus
	}

	if candRole != "" && containsFold(sctx.TeamRoles, candRole) {
		score -= roleFilledOnTeamPenalty
	}
	if len(sctx.TeamCategories) > 0 && candCat != profile.CategoryUnknown &&
		!containsFold(sctx.TeamCategories, string(candCat)) {
		score += newCategoryOnTeamBonus
	}

	known := make(map[string]struct{}, len(requester.Matching.SecondaryRoles)+1)
	if reqRole != "" {
		known[reqRole] = struct{}{}
	}
	for _, r := range requester.Matching.SecondaryRoles {
		known[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	for _, r := range candidate.Matching.SecondaryRoles {
		role := strings.ToLower(strings.TrimSpace(r))
		if role == "" || role == candRole {
			continue
		}
		if _, dup := known[role]; !dup {
			score += uniqueSecondaryRoleBonus
		}
	}

	return clamp(score, 0, weightRoleDiversity)
}

// scoreSkillComplementarity prefers partial overlap over clones or
// complete strangers, and rewards skills the team does not have yet.
func scoreSkillComplementarity(requester, candidate *profile.Profile, sctx Context) float64 {
	mine := requester.MergedSkills()
	theirs := candidate.MergedSkills()
	if len(theirs) == 0 {
		return skillNeutral
	}

	var score float64

	overlap := 0
	for skill := range theirs {
		if _, ok := mine[skill]; ok {
			overlap++
		}
	}
	denom := len(theirs)
	if len(mine) > 0 && len(mine) < denom {
		denom = len(mine)
	}
	switch ratio := float64(overlap) / float64(denom); {
	case ratio >= skillSweetSpotLow && ratio <= skillSweetSpotHigh:
		score += skillSweetSpotScore
	case ratio > skillSweetSpotHigh:
		score += skillTooSimilarScore
	case ratio > 0:
		score += skillLowOverlapScore
	default:
		score += skillNoOverlapScore
	}

	// Novelty relative to the team; before a team exists the requester's
	// own skills stand in for it.
	teamSkills := make(map[string]struct{}, len(sctx.TeamSkills))
	for _, skill := range sctx.TeamSkills {
		teamSkills[strings.ToLower(strings.TrimSpace(skill))] = struct{}{}
	}
	if len(teamSkills) == 0 {
		teamSkills = mine
	}
	novel := 0
	for skill := range theirs {
		if _, ok := teamSkills[skill]; !ok {
			novel++
		}
	}
	score += skillNoveltyMax * float64(novel) / float64(len(theirs))

	if len(theirs) >= largeSkillSetSize {
		score += skillSetSizeBonus
	}
	if len(theirs) >= hugeSkillSetSize {
		score += skillSetSizeBonus
	}

	return clamp(score, 0, weightSkills)
}

// scoreAvailability tiers on the overlap ratio of availability slots.
func scoreAvailability(requester, candidate *profile.Profile) float64 {
	mine := requester.AvailabilitySlots()
	theirs := candidate.AvailabilitySlots()
	if len(mine) == 0 || len(theirs) == 0 {
		return availabilityNeutral
	}

	overlap := overlapCount(mine, theirs)
	denom := len(mine)
	if len(theirs) < denom {
		denom = len(theirs)
	}
	ratio := float64(overlap) / float64(denom)

	switch {
	case ratio >= 0.5:
		return weightAvailability
	case ratio >= 0.3:
		return 12
	case ratio >= 0.1:
		return 8
	default:
		return availabilityFloor
	}
}

// scoreExperience tiers on distance along the ordered seniority scale.
func scoreExperience(requester, candidate *profile.Profile) float64 {
	mine, okA := requester.Matching.ExperienceLevel.Ordinal()
	theirs, okB := candidate.Matching.ExperienceLevel.Ordinal()
	if !okA || !okB {
		return experienceNeutral
	}
	dist := mine - theirs
	if dist < 0 {
		dist = -dist
	}
	return experienceDistanceScores[dist]
}

// scoreLocationTimezone scores physical and temporal proximity in two
// independent halves.
func scoreLocationTimezone(requester, candidate *profile.Profile) float64 {
	var score float64

	locA := strings.TrimSpace(requester.Matching.Location)
	locB := strings.TrimSpace(candidate.Matching.Location)
	if locA != "" && strings.EqualFold(locA, locB) {
		score += sameLocationScore
	}

	offA, okA := ParseUTCOffset(requester.Matching.TimeZone)
	offB, okB := ParseUTCOffset(candidate.Matching.TimeZone)
	switch {
	case okA && okB && abs(offA-offB) <= timezoneProximityHrs:
		score += closeTimezoneScore
	default:
		score += farTimezonePartial
	}

	return clamp(score, 0, weightLocation)
}

// scoreCommunication tiers on shared communication tools.
func scoreCommunication(requester, candidate *profile.Profile) float64 {
	mine := lowerAll(requester.Matching.CommunicationTools)
	theirs := lowerAll(candidate.Matching.CommunicationTools)
	if len(mine) == 0 || len(theirs) == 0 {
		return communicationNeutral
	}
	switch overlap := overlapCount(mine, theirs); {
	case overlap >= 3:
		return weightCommunication
	case overlap == 2:
		return 8
	case overlap == 1:
		return 6
	default:
		return 3
	}
}

// scoreContestPreferences biases toward contest-relevant interests when
// contest tags are supplied, falling back to interest overlap with the
// requester otherwise.
func scoreContestPreferences(requester, candidate *profile.Profile, sctx Context) float64 {
	var score float64

	candInterests := lowerAll(candidate.Contest.Interests)
	if len(sctx.ContestTags) > 0 {
		if overlapCount(candInterests, lowerAll(sctx.ContestTags)) > 0 {
			score += 3
		}
	} else {
		switch overlap := overlapCount(candInterests, lowerAll(requester.Contest.Interests)); {
		case overlap >= 2:
			score += 3
		case overlap == 1:
			score += 2
		}
	}

	if overlapCount(lowerAll(requester.Contest.PreferredFormats), lowerAll(candidate.Contest.PreferredFormats)) > 0 {
		score += 2
	}

	return clamp(score, 0, weightContest)
}

// scoreCollaborationStyle tiers on shared collaboration style tokens.
func scoreCollaborationStyle(requester, candidate *profile.Profile) float64 {
	mine := requester.CollaborationTokens()
	theirs := candidate.CollaborationTokens()
	if len(mine) == 0 || len(theirs) == 0 {
		return collaborationNeutral
	}
	switch overlap := overlapCount(mine, theirs); {
	case overlap >= 2:
		return weightCollaboration
	case overlap == 1:
		return 3
	default:
		return 1
	}
}
