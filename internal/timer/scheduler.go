package timer

import (
	"context"
	"sync"
	"time"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/store"
	"github.com/dom/trivia-night/pkg/logger"
)

// ExpiryFunc reports a countdown expiry on behalf of ServerAuthority.
type ExpiryFunc func(ctx context.Context, gameID string, generation int64) error

type SchedulerConfig struct {
	// Buffer is added after the countdown reaches zero before expiry fires,
	// so clients that lag slightly still see the last second.
	Buffer time.Duration
	// DedupWindow suppresses a second fire of the same generation.
	DedupWindow time.Duration
	// ExpiryTimeout bounds a single expiry call.
	ExpiryTimeout time.Duration
}

type armedTimer struct {
	generation int64
	deadline   time.Time
	timer      *time.Timer
}

type firedMark struct {
	generation int64
	at         time.Time
}

// Scheduler fires expiry for server-managed countdowns. It follows the timer
// document of every watched game and keeps one time.AfterFunc per game.
type Scheduler struct {
	store     store.Store
	onExpired ExpiryFunc
	cfg       SchedulerConfig

	mu      sync.Mutex
	armed   map[string]*armedTimer
	watched map[string]func()
	fired   map[string]firedMark
	stopped bool
}

func NewScheduler(st store.Store, onExpired ExpiryFunc, cfg SchedulerConfig) *Scheduler {
	if cfg.ExpiryTimeout <= 0 {
		cfg.ExpiryTimeout = 10 * time.Second
	}
	return &Scheduler{
		store:     st,
		onExpired: onExpired,
		cfg:       cfg,
		armed:     make(map[string]*armedTimer),
		watched:   make(map[string]func()),
		fired:     make(map[string]firedMark),
	}
}

// Watch starts following the timer of gameID. Watching twice is a no-op.
func (s *Scheduler) Watch(ctx context.Context, gameID string) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	if _, ok := s.watched[gameID]; ok {
		s.mu.Unlock()
		return nil
	}
	// Reserve the slot so a concurrent Watch does not subscribe twice.
	s.watched[gameID] = func() {}
	s.mu.Unlock()

	cancel, err := s.store.Subscribe(ctx, domain.TimerKey(gameID), func(snap store.Snapshot) {
		s.observe(gameID, snap)
	})
	if err != nil {
		s.mu.Lock()
		delete(s.watched, gameID)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.watched[gameID] = cancel
	s.mu.Unlock()
	return nil
}

// Unwatch stops following gameID and disarms its countdown.
func (s *Scheduler) Unwatch(gameID string) {
	s.mu.Lock()
	cancel := s.watched[gameID]
	delete(s.watched, gameID)
	s.disarmLocked(gameID)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *Scheduler) observe(gameID string, snap store.Snapshot) {
	if !snap.Exists {
		return
	}
	var t domain.TimerState
	if err := snap.Decode(&t); err != nil {
		logger.Error("scheduler: decode timer", "game_id", gameID, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if t.Status != domain.TimerStatusStart || t.ManagedBy != ServerAuthority {
		s.disarmLocked(gameID)
		return
	}

	deadline := t.Timestamp.Add(time.Duration(t.DurationSeconds)*time.Second + s.cfg.Buffer)
	if cur, ok := s.armed[gameID]; ok && cur.generation == t.Generation && cur.deadline.Equal(deadline) {
		return
	}
	s.disarmLocked(gameID)

	generation := t.Generation
	s.armed[gameID] = &armedTimer{
		generation: generation,
		deadline:   deadline,
		timer: time.AfterFunc(time.Until(deadline), func() {
			s.Fire(gameID, generation)
		}),
	}
}

func (s *Scheduler) disarmLocked(gameID string) {
	if cur, ok := s.armed[gameID]; ok {
		cur.timer.Stop()
		delete(s.armed, gameID)
	}
}

// Fire reports expiry of generation unless the same generation already fired
// within the dedup window. It returns whether the report was sent.
func (s *Scheduler) Fire(gameID string, generation int64) bool {
	now := time.Now()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	if last, ok := s.fired[gameID]; ok && last.generation == generation && now.Sub(last.at) < s.cfg.DedupWindow {
		s.mu.Unlock()
		return false
	}
	s.fired[gameID] = firedMark{generation: generation, at: now}
	if cur, ok := s.armed[gameID]; ok && cur.generation == generation {
		delete(s.armed, gameID)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ExpiryTimeout)
	defer cancel()

	if err := s.onExpired(ctx, gameID, generation); err != nil {
		logger.Error("scheduler: countdown expiry failed", "game_id", gameID, "generation", generation, "error", err)
	}
	return true
}

// Armed reports whether a countdown of gameID is scheduled.
func (s *Scheduler) Armed(gameID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.armed[gameID]
	return ok
}

// Stop disarms everything and drops all subscriptions.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancels := make([]func(), 0, len(s.watched))
	for gameID, cancel := range s.watched {
		cancels = append(cancels, cancel)
		s.disarmLocked(gameID)
	}
	s.watched = make(map[string]func())
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
