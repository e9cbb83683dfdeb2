// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teamforge/crew/internal/adapters/batch"
	"github.com/teamforge/crew/internal/adapters/cache"
	"github.com/teamforge/crew/internal/adapters/repository"
	"github.com/teamforge/crew/internal/domain/matching"
	"github.com/teamforge/crew/internal/domain/profile"
	"github.com/teamforge/crew/internal/domain/selection"
	"github.com/teamforge/crew/pkg/logger"
	"github.com/teamforge/crew/pkg/metrics"
)

// Mode selects the scoring direction for a recommendation run.
type Mode string

// Recommendation modes.
const (
	ModeOneWay Mode = "one-way"
	ModeTwoWay Mode = "two-way"
)

// Response shaping limits. Full profiles stay behind the profile API; the
// recommendation payload carries just enough to render a card.
const (
	maxExcerptSkills         = 8
	maxExcerptSecondaryRoles = 3
)

// RecommendationRequest are the caller-controlled knobs of one run.
type RecommendationRequest struct {
	ContestID  string
	Mode       Mode
	ExcludeIDs []string
	Limit      int
	SkipCache  bool
}

// MatchDetails carries the per-direction totals of a two-way run.
type MatchDetails struct {
	UserToCandidate float64 `json:"user_to_candidate"`
	CandidateToUser float64 `json:"candidate_to_user"`
}

// ProfileExcerpt is the trimmed candidate profile embedded in results.
type ProfileExcerpt struct {
	PrimaryRole     string   `json:"primary_role,omitempty"`
	SecondaryRoles  []string `json:"secondary_roles,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	Location        string   `json:"location,omitempty"`
	TimeZone        string   `json:"time_zone,omitempty"`
}

// RankedCandidate is one entry of a recommendation result, in pick order.
type RankedCandidate struct {
	ID             string             `json:"id"`
	DisplayName    string             `json:"display_name,omitempty"`
	AvatarURL      string             `json:"avatar_url,omitempty"`
	MatchScore     int                `json:"match_score"`
	ScoreBreakdown matching.Breakdown `json:"score_breakdown"`
	MatchDetails   *MatchDetails      `json:"match_details,omitempty"`
	Profile        ProfileExcerpt     `json:"profile"`
}

// Service wires the matcher together: stores, scorer, selector, batch
// loader for contests, recommendation cache and the chunked scoring sweep.
type Service struct {
	mu sync.RWMutex

	// Core components
	profiles      repository.ProfileStore
	contests      repository.ContestStore
	scorer        *matching.Scorer
	selector      *selection.Selector
	recCache      *cache.Cache[[]RankedCandidate]
	contestLoader *batch.Loader[string, repository.Contest]
	scoreProc     *batch.Processor[*profile.Profile, selection.Candidate]
	warmProc      *batch.Processor[string, int]

	// Configuration
	fetchLimit     int
	defaultLimit   int
	maxLimit       int
	recTTL         time.Duration
	entityTTL      time.Duration
	loaderBatch    int
	loaderDebounce time.Duration
	chunkSize      int
	concurrency    int
	now            func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithProfileStore sets the profile backend.
func WithProfileStore(store repository.ProfileStore) Option {
	return func(s *Service) {
		if store != nil {
			s.profiles = store
		}
	}
}

// WithContestStore sets the contest backend.
func WithContestStore(store repository.ContestStore) Option {
	return func(s *Service) {
		if store != nil {
			s.contests = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithFetchLimit caps candidates pulled from the store per run.
func WithFetchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchLimit = n
		}
	}
}

// WithResultLimits sets the default and maximum team sizes.
func WithResultLimits(def, max int) Option {
	return func(s *Service) {
		if def > 0 && max >= def {
			s.defaultLimit = def
			s.maxLimit = max
		}
	}
}

// WithRecommendationTTL sets how long results stay cached.
func WithRecommendationTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.recTTL = d
		}
	}
}

// WithEntityTTL sets how long batch-loaded contests stay cached.
func WithEntityTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.entityTTL = d
		}
	}
}

// WithLoaderTuning sets the contest loader's batch size and debounce.
func WithLoaderTuning(batchSize int, debounce time.Duration) Option {
	return func(s *Service) {
		if batchSize > 0 {
			s.loaderBatch = batchSize
		}
		if debounce > 0 {
			s.loaderDebounce = debounce
		}
	}
}

// WithChunking sets the scoring sweep's chunk size and concurrency.
func WithChunking(chunkSize, concurrency int) Option {
	return func(s *Service) {
		if chunkSize > 0 {
			s.chunkSize = chunkSize
		}
		if concurrency > 0 {
			s.concurrency = concurrency
		}
	}
}

// WithClock overrides the time source used by the caches.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		scorer:         matching.NewScorer(),
		selector:       selection.NewSelector(),
		fetchLimit:     repository.MaxCandidateFetch,
		defaultLimit:   10,
		maxLimit:       50,
		recTTL:         cache.DefaultTTL,
		entityTTL:      batch.DefaultTTL,
		loaderBatch:    batch.DefaultBatchSize,
		loaderDebounce: batch.DefaultDebounce,
		chunkSize:      batch.DefaultChunkSize,
		concurrency:    runtime.NumCPU() * 2,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start builds the run-time components. Idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.profiles == nil {
		return fmt.Errorf("%w: profile store is required", ErrNotStarted)
	}

	s.recCache = cache.New[[]RankedCandidate](
		cache.WithTTL[[]RankedCandidate](s.recTTL),
		cache.WithClock[[]RankedCandidate](s.now),
	)

	s.contestLoader = batch.NewLoader(s.fetchContests,
		batch.WithBatchSize[string, repository.Contest](s.loaderBatch),
		batch.WithDebounce[string, repository.Contest](s.loaderDebounce),
		batch.WithTTL[string, repository.Contest](s.entityTTL),
		batch.WithClock[string, repository.Contest](s.now),
		batch.WithLogger[string, repository.Contest](s.logger.Named("contests")),
		batch.WithName[string, repository.Contest]("contests"),
	)

	s.scoreProc = batch.NewProcessor[*profile.Profile, selection.Candidate](
		batch.ChunkSize[*profile.Profile, selection.Candidate](s.chunkSize),
		batch.Concurrency[*profile.Profile, selection.Candidate](s.concurrency),
		batch.ProcessorLogger[*profile.Profile, selection.Candidate](s.logger.Named("scoring")),
	)

	s.warmProc = batch.NewProcessor[string, int](
		batch.ChunkSize[string, int](s.chunkSize),
		batch.Concurrency[string, int](s.concurrency),
		batch.ProcessorLogger[string, int](s.logger.Named("warmup")),
	)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("fetch_limit", s.fetchLimit),
		logger.Duration("recommendation_ttl", s.recTTL),
		logger.Int("chunk_size", s.chunkSize))
	return nil
}

// Stop tears the service down. Cached results are discarded.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.recCache.Clear()
	s.contestLoader.Clear()
	s.started = false
	s.logger.Info(context.Background(), "service stopped")
}

// fetchContests is the BatchFunc behind the contest loader.
func (s *Service) fetchContests(ctx context.Context, ids []string) (map[string]repository.Contest, error) {
	if s.contests == nil {
		return map[string]repository.Contest{}, nil
	}
	found, err := s.contests.FindMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("contest batch fetch: %w", err)
	}
	out := make(map[string]repository.Contest, len(found))
	for id, c := range found {
		out[id] = *c
	}
	return out, nil
}

// Recommendations runs one recommendation sweep for requesterID.
//
// A missing requester is a hard error; an ineligible requester yields an
// empty result. Contest lookup failures skip the contest bonuses instead
// of failing the run.
func (s *Service) Recommendations(ctx context.Context, requesterID string, req RecommendationRequest) ([]RankedCandidate, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	if requesterID == "" {
		return nil, ErrEmptyRequester
	}

	mode := req.Mode
	if mode != ModeTwoWay {
		mode = ModeOneWay
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	runID := uuid.NewString()
	start := time.Now()
	key := cache.Key(requesterID, req.ContestID, string(mode), req.ExcludeIDs)

	if !req.SkipCache {
		if cached, ok := s.recCache.Get(key); ok {
			s.logger.Debug(ctx, "recommendation cache hit",
				logger.String("run_id", runID),
				logger.String("requester", requesterID))
			return cached, nil
		}
	}

	requester, err := s.profiles.Get(ctx, requesterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("requester %s: %w", requesterID, err)
		}
		metrics.RecordRecommendationError()
		return nil, fmt.Errorf("load requester: %w", err)
	}
	if !requester.Eligible() {
		s.logger.Debug(ctx, "requester not eligible for matching",
			logger.String("run_id", runID),
			logger.String("requester", requesterID))
		metrics.RecordEmptyRecommendation()
		return []RankedCandidate{}, nil
	}

	var contestTags []string
	if req.ContestID != "" {
		contest, err := s.contestLoader.Load(ctx, req.ContestID)
		if err != nil {
			s.logger.Warn(ctx, "contest lookup failed, skipping contest bonuses",
				logger.String("run_id", runID),
				logger.String("contest", req.ContestID),
				logger.Error(err))
		} else {
			contestTags = contest.Tags
		}
	}

	query := repository.BuildCandidateQuery(requesterID, contestTags, req.ExcludeIDs, s.fetchLimit)
	candidates, err := s.profiles.FindCandidates(ctx, query)
	if err != nil {
		metrics.RecordRecommendationError()
		return nil, fmt.Errorf("candidate query: %w", err)
	}
	metrics.RecordCandidatesFetched(len(candidates))

	if len(candidates) == 0 {
		metrics.RecordEmptyRecommendation()
		s.cacheResult(key, []RankedCandidate{}, requesterID, nil)
		return []RankedCandidate{}, nil
	}

	sctx := matching.Context{ContestTags: contestTags}
	outcome, err := s.scoreProc.ProcessParallel(ctx, candidates, func(ctx context.Context, cand *profile.Profile) (selection.Candidate, error) {
		if !cand.Eligible() {
			return selection.Candidate{}, fmt.Errorf("candidate %s not eligible", cand.ID)
		}
		if mode == ModeTwoWay {
			ms := s.scorer.MutualScore(requester, cand, sctx)
			return selection.Candidate{
				Profile:    cand,
				MatchScore: ms.Total,
				Breakdown:  ms.Breakdown,
				Mutual:     &ms,
			}, nil
		}
		sc := s.scorer.Score(requester, cand, sctx)
		return selection.Candidate{
			Profile:    cand,
			MatchScore: sc.Total,
			Breakdown:  sc.Breakdown,
		}, nil
	})
	if err != nil {
		metrics.RecordRecommendationError()
		return nil, fmt.Errorf("scoring sweep: %w", err)
	}
	metrics.RecordCandidatesScored(outcome.Processed)

	team := s.selector.SelectTeam(requester, outcome.Results, limit)
	metrics.RecordTeamSelection()

	ranked := make([]RankedCandidate, 0, len(team))
	refs := make([]string, 0, len(team))
	for _, member := range team {
		ranked = append(ranked, formatCandidate(member, mode))
		refs = append(refs, member.Profile.ID)
	}
	if len(ranked) == 0 {
		metrics.RecordEmptyRecommendation()
	}

	s.cacheResult(key, ranked, requesterID, refs)

	elapsed := time.Since(start)
	metrics.RecordRecommendationServed(string(mode))
	metrics.RecordRecommendationLatency(float64(elapsed.Microseconds()) / 1000.0)
	s.logger.Info(ctx, "recommendations computed",
		logger.String("run_id", runID),
		logger.String("requester", requesterID),
		logger.String("mode", string(mode)),
		logger.Int("candidates", len(candidates)),
		logger.Int("selected", len(ranked)),
		logger.Duration("elapsed", elapsed))
	return ranked, nil
}

func (s *Service) cacheResult(key string, ranked []RankedCandidate, requesterID string, memberIDs []string) {
	refs := append([]string{requesterID}, memberIDs...)
	s.recCache.Set(key, ranked, refs...)
}

// InvalidateUser evicts every cached result the user appears in, as
// requester or as recommended candidate. Returns the eviction count.
func (s *Service) InvalidateUser(ctx context.Context, id string) (int, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return 0, ErrNotStarted
	}
	if id == "" {
		return 0, ErrEmptyRequester
	}

	n := s.recCache.InvalidateUser(id)
	s.logger.Info(ctx, "cache invalidated for user",
		logger.String("user", id),
		logger.Int("evicted", n))
	return n, nil
}

// WarmCache precomputes default recommendation lists for a stream of user
// ids. Individual failures are logged and skipped.
func (s *Service) WarmCache(ctx context.Context, ids <-chan string) (int, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return 0, ErrNotStarted
	}

	outcome, err := s.warmProc.ProcessStream(ctx, ids, func(ctx context.Context, id string) (int, error) {
		ranked, err := s.Recommendations(ctx, id, RecommendationRequest{})
		if err != nil {
			return 0, err
		}
		return len(ranked), nil
	}, batch.StreamHandlers[string, int]{
		OnError: func(id string, err error) {
			s.logger.Warn(ctx, "cache warmup skipped user",
				logger.String("user", id),
				logger.Error(err))
		},
	})
	if err != nil {
		return outcome.Processed, err
	}
	s.logger.Info(ctx, "cache warmup finished",
		logger.Int("warmed", outcome.Processed),
		logger.Int("skipped", outcome.Failed))
	return outcome.Processed, nil
}

// GetStats returns service statistics for the stats endpoint.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": s.started,
	}
	if !s.started {
		return stats
	}

	stats["cached_recommendations"] = s.recCache.Len()
	loaderStats := s.contestLoader.Stats()
	stats["contest_loader"] = map[string]interface{}{
		"cached_entries": loaderStats.CachedEntries,
		"pending_keys":   loaderStats.PendingKeys,
	}
	if count, err := s.profiles.Count(context.Background()); err == nil {
		stats["profiles"] = count
	}
	return stats
}

// formatCandidate shapes one picked candidate for the API payload.
func formatCandidate(member selection.Candidate, mode Mode) RankedCandidate {
	p := member.Profile

	rc := RankedCandidate{
		ID:             p.ID,
		DisplayName:    p.DisplayName,
		AvatarURL:      p.AvatarURL,
		MatchScore:     int(math.Round(member.MatchScore)),
		ScoreBreakdown: member.Breakdown,
		Profile: ProfileExcerpt{
			PrimaryRole:     p.Matching.PrimaryRole,
			SecondaryRoles:  capStrings(p.Matching.SecondaryRoles, maxExcerptSecondaryRoles),
			ExperienceLevel: string(p.Matching.ExperienceLevel),
			Skills:          excerptSkills(p, maxExcerptSkills),
			Location:        p.Matching.Location,
			TimeZone:        p.Matching.TimeZone,
		},
	}
	if mode == ModeTwoWay && member.Mutual != nil {
		rc.MatchDetails = &MatchDetails{
			UserToCandidate: member.Mutual.UserToCandidate,
			CandidateToUser: member.Mutual.CandidateToUser,
		}
	}
	return rc
}

func capStrings(in []string, max int) []string {
	if len(in) <= max {
		return in
	}
	return in[:max]
}

// excerptSkills merges skills and tech stack for the card, keeping order
// and dropping case-insensitive duplicates.
func excerptSkills(p *profile.Profile, max int) []string {
	out := make([]string, 0, max)
	seen := make(map[string]struct{}, max)
	for _, list := range [][]string{p.Matching.Skills, p.Matching.TechStack} {
		for _, s := range list {
			key := strings.ToLower(strings.TrimSpace(s))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, s)
			if len(out) == max {
				return out
			}
		}
	}
	return out
}
