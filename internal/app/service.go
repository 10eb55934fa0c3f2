// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	resultqueue "namearena/internal/adapters/mq/queue"
	workerpool "namearena/internal/adapters/mq/worker"
	"namearena/internal/adapters/repository"
	"namearena/internal/domain/blend"
	"namearena/internal/domain/dedupe"
	"namearena/internal/domain/model"
	"namearena/internal/domain/rating"
	"namearena/pkg/logger"
	"namearena/pkg/metrics"
)

// Service implements the API dependencies for the tournament system. It
// owns the live sessions, the dedupe cache, and the archive pipeline that
// folds finished tournaments into the rating store.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	deduper     dedupe.Deduper
	resultQueue resultqueue.Queue
	workerPool  *workerpool.Pool
	sessions    map[string]*Session

	// Domain engines shared by all sessions
	model   *rating.Model
	blender *blend.Blender

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	maxItems        int
	maxLeaderboard  int
	initialRating   float64
	blendMaxMatches int

	// State
	started   bool
	completed int

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the rating store. Defaults to the in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of archive worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the result queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the vote deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxTournamentItems caps how many names one tournament may hold.
func WithMaxTournamentItems(n int) Option {
	return func(s *Service) {
		if n >= 2 {
			s.maxItems = n
		}
	}
}

// WithMaxLeaderboardLimit caps the leaderboard page size.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLeaderboard = n
		}
	}
}

// WithServiceInitialRating sets the rating unseen names start from.
func WithServiceInitialRating(r float64) Option {
	return func(s *Service) {
		if r > 0 {
			s.initialRating = r
		}
	}
}

// WithServiceRatingModel sets the rating model shared by all sessions.
func WithServiceRatingModel(m *rating.Model) Option {
	return func(s *Service) {
		if m != nil {
			s.model = m
		}
	}
}

// WithServiceBlender sets the blender shared by all sessions.
func WithServiceBlender(b *blend.Blender) Option {
	return func(s *Service) {
		if b != nil {
			s.blender = b
		}
	}
}

// WithServiceBlendMaxMatches sets the full-schedule match count for blending.
func WithServiceBlendMaxMatches(n int) Option {
	return func(s *Service) {
		s.blendMaxMatches = n
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:       make(map[string]*Session),
		model:          rating.NewModel(),
		blender:        blend.NewBlender(),
		workerCount:    runtime.NumCPU(),
		queueSize:      1024,
		dedupeSize:     50_000,
		maxItems:       64,
		maxLeaderboard: 100,
		initialRating:  1500,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting tournament service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory rating store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.resultQueue = resultqueue.NewInMemoryQueue(
		resultqueue.WithCapacity(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.resultQueue, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "tournament service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop gracefully shuts down the service: the queue is closed, workers
// drain, and the store handle is released.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping tournament service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "tournament service stopped")
}

// CreateTournament starts a session over the given names and returns its
// view of the first matchup. Names carry their stored rating into the
// session; unseen names start at the initial rating.
func (s *Service) CreateTournament(ctx context.Context, names []string) (MatchView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return MatchView{}, ErrNotStarted
	}
	if len(names) > s.maxItems {
		return MatchView{}, fmt.Errorf("%w: %d names, limit %d", ErrTooManyItems, len(names), s.maxItems)
	}

	seeded := make(map[string]model.ItemState, len(names))
	for _, name := range names {
		entry, err := s.store.Rank(ctx, name)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return MatchView{}, fmt.Errorf("seed rating for %q: %w", name, err)
		}
		seeded[name] = model.ItemState{Rating: entry.Rating}
	}

	sess, err := NewSession(uuid.NewString(), names,
		WithRatingModel(s.model),
		WithBlender(s.blender),
		WithInitialRating(s.initialRating),
		WithSeededStates(seeded),
		WithBlendMaxMatches(s.blendMaxMatches),
	)
	if err != nil {
		return MatchView{}, err
	}
	s.sessions[sess.ID()] = sess

	metrics.RecordSessionStarted()
	metrics.UpdateSessionsActive(s.activeLocked())
	s.logger.Info(ctx, "tournament created",
		logger.String("sessionID", sess.ID()),
		logger.Int("names", len(names)),
		logger.Int("pairs", sess.sorter.PairCount()),
	)

	mv, _ := sess.CurrentMatch()
	return mv, nil
}

// NextMatch returns the pair currently awaiting judgment for a session.
// The second return is false once the session is complete.
func (s *Service) NextMatch(ctx context.Context, sessionID string) (MatchView, bool, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return MatchView{}, false, err
	}
	mv, ok := sess.CurrentMatch()
	return mv, ok, nil
}

// VoteResult reports what a vote submission did.
type VoteResult struct {
	Duplicate bool       `json:"duplicate"`
	Finished  bool       `json:"finished"`
	Next      *MatchView `json:"next,omitempty"`
}

// SubmitVote applies an outcome to a session's current pair. voteID makes
// retries idempotent: a repeated ID reports Duplicate without applying
// anything. Completing the final pair finalizes the session and hands the
// result to the archive pipeline.
func (s *Service) SubmitVote(ctx context.Context, sessionID, voteID string, outcome model.Outcome) (VoteResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return VoteResult{}, err
	}

	if voteID != "" && s.deduper.SeenAndRecord(ctx, voteID) {
		metrics.RecordVoteDuplicate()
		s.logger.Debug(ctx, "duplicate vote ignored",
			logger.String("sessionID", sessionID),
			logger.String("voteID", voteID),
		)
		return VoteResult{Duplicate: true, Finished: sess.Finished()}, nil
	}

	start := time.Now()
	if err := sess.SubmitVote(outcome); err != nil {
		if voteID != "" {
			s.deduper.Unrecord(ctx, voteID)
		}
		return VoteResult{}, err
	}
	metrics.RecordVoteProcessed()
	metrics.RecordRatingLatency(float64(time.Since(start).Milliseconds()))

	if !sess.Done() {
		mv, _ := sess.CurrentMatch()
		return VoteResult{Next: &mv}, nil
	}

	res, err := sess.Finalize()
	if err != nil {
		return VoteResult{}, fmt.Errorf("finalize session %s: %w", sessionID, err)
	}
	if !s.resultQueue.Enqueue(ctx, res) {
		// The session keeps its result; only persistence is lost.
		metrics.RecordErrorByComponent("service", "enqueue_failed")
		s.logger.Error(ctx, "failed to enqueue finished tournament",
			logger.String("sessionID", sessionID),
		)
	}

	s.mu.Lock()
	s.completed++
	metrics.RecordSessionCompleted()
	metrics.UpdateSessionsActive(s.activeLocked())
	s.mu.Unlock()

	s.logger.Info(ctx, "tournament finished",
		logger.String("sessionID", sessionID),
		logger.Int("matches", len(res.Records)),
	)
	return VoteResult{Finished: true}, nil
}

// Undo reverses the most recent vote in a session and re-presents the pair.
func (s *Service) Undo(ctx context.Context, sessionID string) (MatchView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return MatchView{}, err
	}
	if err := sess.Undo(); err != nil {
		return MatchView{}, err
	}
	metrics.RecordUndo()
	mv, _ := sess.CurrentMatch()
	return mv, nil
}

// Standings returns a session's current ordering and whether it is final.
func (s *Service) Standings(ctx context.Context, sessionID string) ([]model.FinalStanding, bool, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, false, err
	}
	return sess.Standings(), sess.Finished(), nil
}

// TopN returns the top N persisted leaderboard entries. Requests beyond the
// configured page cap are clamped.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	if n > s.maxLeaderboard {
		n = s.maxLeaderboard
	}
	return s.store.TopN(ctx, n)
}

// Rank returns the persisted rank and rating for a name.
func (s *Service) Rank(ctx context.Context, name string) (repository.Entry, error) {
	if !s.isStarted() {
		return repository.Entry{}, ErrNotStarted
	}
	return s.store.Rank(ctx, name)
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if s.started {
		queueLen := s.resultQueue.Len(ctx)
		totalNames := s.store.Count(ctx)

		stats["activeSessions"] = s.activeLocked()
		stats["completedSessions"] = s.completed
		stats["queueLength"] = queueLen
		stats["totalNames"] = totalNames
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalNames(totalNames)
	}
	return stats
}

// session looks up a live session by ID.
func (s *Service) session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// activeLocked counts sessions that have not been finalized. Callers hold
// at least a read lock.
func (s *Service) activeLocked() int {
	active := 0
	for _, sess := range s.sessions {
		if !sess.Finished() {
			active++
		}
	}
	return active
}
