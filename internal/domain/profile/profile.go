// Package profile defines the matching-relevant view of a platform member.
//
// Profiles are owned by an external store; this package only models the
// projected subset the matching engine reads. All optional-field defaulting
// happens in Normalize so the scorer never has to reason about missing data.
package profile

import "strings"

// ExperienceLevel is the ordered seniority scale used for distance scoring.
type ExperienceLevel string

// Known experience levels, ordered.
const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
	ExperienceExpert       ExperienceLevel = "expert"
)

// experienceOrder maps levels onto the ordered scale.
var experienceOrder = map[ExperienceLevel]int{
	ExperienceBeginner:     0,
	ExperienceIntermediate: 1,
	ExperienceAdvanced:     2,
	ExperienceExpert:       3,
}

// Ordinal returns the position of the level on the seniority scale and
// whether the level is a known one.
func (e ExperienceLevel) Ordinal() (int, bool) {
	ord, ok := experienceOrder[ExperienceLevel(strings.ToLower(strings.TrimSpace(string(e))))]
	return ord, ok
}

// Matching holds the fields the compatibility scorer consumes.
type Matching struct {
	PrimaryRole        string          `json:"primary_role"`
	SecondaryRoles     []string        `json:"secondary_roles"`
	ExperienceLevel    ExperienceLevel `json:"experience_level"`
	Skills             []string        `json:"skills"`
	TechStack          []string        `json:"tech_stack"`
	Availability       string          `json:"availability"` // comma-separated slot tokens
	Location           string          `json:"location"`
	TimeZone           string          `json:"time_zone"` // UTC offset string, e.g. "UTC+3"
	CommunicationTools []string        `json:"communication_tools"`
	CollaborationStyle string          `json:"collaboration_style"` // comma-separated tokens
	OpenToNewTeams     bool            `json:"open_to_new_teams"`
	OpenToMentor       bool            `json:"open_to_mentor"`
}

// ContestPreferences holds contest-related matching preferences.
type ContestPreferences struct {
	Interests         []string `json:"contest_interests"`
	PreferredFormats  []string `json:"preferred_contest_formats"`
	PreferredTeamRole string   `json:"preferred_team_role"`
	PreferredTeamSize int      `json:"preferred_team_size"`
}

// Consents holds the privacy flags relevant to matching.
type Consents struct {
	AllowMatching bool `json:"allow_matching"`
}

// Profile is the projected member record the engine reads. Consents is a
// pointer so a missing consent record is distinguishable from an explicit
// denial; both count as not consented.
type Profile struct {
	ID          string             `json:"id"`
	DisplayName string             `json:"display_name"`
	AvatarURL   string             `json:"avatar_url"`
	Matching    Matching           `json:"matching"`
	Contest     ContestPreferences `json:"contest_preferences"`
	Consents    *Consents          `json:"consents,omitempty"`
}

// Eligible reports whether the profile may appear in matching at all.
// Both the explicit consent and the open-to-new-teams flag must be set.
func (p *Profile) Eligible() bool {
	return p != nil && p.Consents != nil && p.Consents.AllowMatching && p.Matching.OpenToNewTeams
}

// Normalize returns a copy with whitespace trimmed and nil slices replaced,
// so downstream scoring never branches on missing-vs-empty.
func (p Profile) Normalize() Profile {
	p.ID = strings.TrimSpace(p.ID)
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	p.Matching.PrimaryRole = strings.TrimSpace(p.Matching.PrimaryRole)
	p.Matching.Location = strings.TrimSpace(p.Matching.Location)
	p.Matching.TimeZone = strings.TrimSpace(p.Matching.TimeZone)
	p.Matching.SecondaryRoles = trimAll(p.Matching.SecondaryRoles)
	p.Matching.Skills = trimAll(p.Matching.Skills)
	p.Matching.TechStack = trimAll(p.Matching.TechStack)
	p.Matching.CommunicationTools = trimAll(p.Matching.CommunicationTools)
	p.Contest.Interests = trimAll(p.Contest.Interests)
	p.Contest.PreferredFormats = trimAll(p.Contest.PreferredFormats)
	return p
}

// MergedSkills returns the union of skills and tech stack as a lowercase set.
func (p *Profile) MergedSkills() map[string]struct{} {
	merged := make(map[string]struct{}, len(p.Matching.Skills)+len(p.Matching.TechStack))
	for _, s := range p.Matching.Skills {
		if t := normalizeToken(s); t != "" {
			merged[t] = struct{}{}
		}
	}
	for _, s := range p.Matching.TechStack {
		if t := normalizeToken(s); t != "" {
			merged[t] = struct{}{}
		}
	}
	return merged
}

// AvailabilitySlots returns the normalized availability tokens.
func (p *Profile) AvailabilitySlots() []string {
	return SplitTokens(p.Matching.Availability)
}

// CollaborationTokens returns the normalized collaboration style tokens.
func (p *Profile) CollaborationTokens() []string {
	return SplitTokens(p.Matching.CollaborationStyle)
}

// RoleCategory returns the coarse category of the primary role.
func (p *Profile) RoleCategory() Category {
	return CategoryOf(p.Matching.PrimaryRole)
}

// SplitTokens splits a comma-separated token field into normalized tokens.
// Empty segments are dropped.
func SplitTokens(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if t := normalizeToken(part); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
