package repository

import (
	"context"
	"sync"
	"time"

	"github.com/teamforge/crew/internal/domain/profile"
	"github.com/teamforge/crew/pkg/metrics"
)

// MemStore is an in-memory ProfileStore and ContestStore. It keeps
// insertion order so candidate scans are deterministic.
type MemStore struct {
	mu           sync.RWMutex
	profiles     map[string]*profile.Profile
	profileOrder []string
	contests     map[string]*Contest
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		profiles: make(map[string]*profile.Profile),
		contests: make(map[string]*Contest),
	}
}

// PutProfile inserts or replaces a profile. The profile is normalized on
// the way in so queries never see ragged data.
func (m *MemStore) PutProfile(p *profile.Profile) {
	if p == nil || p.ID == "" {
		return
	}
	norm := p.Normalize()
	p = &norm

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.profiles[p.ID]; !exists {
		m.profileOrder = append(m.profileOrder, p.ID)
	}
	m.profiles[p.ID] = p
}

// PutContest inserts or replaces a contest.
func (m *MemStore) PutContest(c *Contest) {
	if c == nil || c.ID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contests[c.ID] = c
}

// Get implements ProfileStore.
func (m *MemStore) Get(ctx context.Context, id string) (*profile.Profile, error) {
	defer observeQuery(time.Now())

	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProfile(p), nil
}

// FindMany implements ProfileStore. Missing ids are skipped.
func (m *MemStore) FindMany(ctx context.Context, ids []string) ([]*profile.Profile, error) {
	defer observeQuery(time.Now())

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*profile.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out = append(out, cloneProfile(p))
		}
	}
	return out, nil
}

// FindCandidates implements ProfileStore. The scan walks profiles in
// insertion order, applies the filter stage, projects the requested fields
// and stops at the query limit.
func (m *MemStore) FindCandidates(ctx context.Context, q CandidateQuery) ([]*profile.Profile, error) {
	defer observeQuery(time.Now())

	limit := q.Limit
	if limit <= 0 || limit > MaxCandidateFetch {
		limit = MaxCandidateFetch
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*profile.Profile, 0, limit)
	for _, id := range m.profileOrder {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := m.profiles[id]
		if !q.Matches(p) {
			continue
		}
		out = append(out, projectProfile(p, q))
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Count implements ProfileStore.
func (m *MemStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles), nil
}

// GetContest implements ContestStore.Get under a distinct name so MemStore
// can satisfy both ports; Contests() exposes the ContestStore view.
func (m *MemStore) GetContest(ctx context.Context, id string) (*Contest, error) {
	defer observeQuery(time.Now())

	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// FindContests implements ContestStore.FindMany.
func (m *MemStore) FindContests(ctx context.Context, ids []string) (map[string]*Contest, error) {
	defer observeQuery(time.Now())

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*Contest, len(ids))
	for _, id := range ids {
		if c, ok := m.contests[id]; ok {
			cp := *c
			out[id] = &cp
		}
	}
	return out, nil
}

// Contests adapts the MemStore to the ContestStore port.
func (m *MemStore) Contests() ContestStore {
	return contestView{m}
}

type contestView struct{ m *MemStore }

func (v contestView) Get(ctx context.Context, id string) (*Contest, error) {
	return v.m.GetContest(ctx, id)
}

func (v contestView) FindMany(ctx context.Context, ids []string) (map[string]*Contest, error) {
	return v.m.FindContests(ctx, ids)
}

func observeQuery(start time.Time) {
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
}

// cloneProfile returns a full deep-enough copy; slices are reallocated so
// callers cannot mutate stored data.
func cloneProfile(p *profile.Profile) *profile.Profile {
	cp := *p
	cp.Matching.SecondaryRoles = cloneStrings(p.Matching.SecondaryRoles)
	cp.Matching.Skills = cloneStrings(p.Matching.Skills)
	cp.Matching.TechStack = cloneStrings(p.Matching.TechStack)
	cp.Matching.CommunicationTools = cloneStrings(p.Matching.CommunicationTools)
	cp.Contest.Interests = cloneStrings(p.Contest.Interests)
	cp.Contest.PreferredFormats = cloneStrings(p.Contest.PreferredFormats)
	if p.Consents != nil {
		c := *p.Consents
		cp.Consents = &c
	}
	return &cp
}

// projectProfile copies only the fields the query asks for. The id always
// survives projection.
func projectProfile(p *profile.Profile, q CandidateQuery) *profile.Profile {
	if len(q.Fields) == 0 {
		return cloneProfile(p)
	}

	out := &profile.Profile{ID: p.ID}
	if q.wantsField("display_name") {
		out.DisplayName = p.DisplayName
	}
	if q.wantsField("avatar_url") {
		out.AvatarURL = p.AvatarURL
	}
	if q.wantsField("matching") {
		out.Matching = p.Matching
		out.Matching.SecondaryRoles = cloneStrings(p.Matching.SecondaryRoles)
		out.Matching.Skills = cloneStrings(p.Matching.Skills)
		out.Matching.TechStack = cloneStrings(p.Matching.TechStack)
		out.Matching.CommunicationTools = cloneStrings(p.Matching.CommunicationTools)
	}
	if q.wantsField("contest_preferences") {
		out.Contest = p.Contest
		out.Contest.Interests = cloneStrings(p.Contest.Interests)
		out.Contest.PreferredFormats = cloneStrings(p.Contest.PreferredFormats)
	}
	if q.wantsField("consents") && p.Consents != nil {
		c := *p.Consents
		out.Consents = &c
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
