package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dom/trivia-night/internal/chooser"
	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/question"
	"github.com/dom/trivia-night/internal/session"
	"github.com/dom/trivia-night/internal/store"
	"github.com/dom/trivia-night/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Watcher follows the countdown of a game once it has been touched.
type Watcher interface {
	Watch(ctx context.Context, gameID string) error
}

// globalRand uses the goroutine-safe top-level functions of math/rand/v2.
type globalRand struct{}

func (globalRand) IntN(n int) int    { return rand.IntN(n) }
func (globalRand) Perm(n int) []int { return rand.Perm(n) }

// Engine runs every game command as one store transaction.
type Engine struct {
	store        store.Store
	deps         question.Deps
	now          func() time.Time
	serverTimers bool
	watcher      Watcher
	tracer       trace.Tracer
	metrics      *Metrics
}

type EngineOption func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithDeps overrides the chooser rotation and randomness.
func WithDeps(deps question.Deps) EngineOption {
	return func(e *Engine) { e.deps = deps }
}

// WithServerTimers makes the server the countdown authority. w is told about
// every game a command touched so it can schedule expiry.
func WithServerTimers(w Watcher) EngineOption {
	return func(e *Engine) {
		e.serverTimers = true
		e.watcher = w
	}
}

func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) { e.tracer = t }
}

func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(st store.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store: st,
		deps: question.Deps{
			Rotation: chooser.New(nil),
			Rand:     globalRand{},
		},
		now:    time.Now,
		tracer: noop.NewTracerProvider().Tracer("trivia"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Store() store.Store { return e.store }

// Read decodes the committed document under key.
func (e *Engine) Read(ctx context.Context, key string, dst any) error {
	return e.store.Read(ctx, key, dst)
}

// run executes fn in a transaction over the documents of gameID and commits
// what it saved. fn may run several times.
func (e *Engine) run(ctx context.Context, op, gameID string, fn func(s *session.Session) error) (err error) {
	if gameID == "" {
		return domain.Precondition("%s: game id is required", op)
	}

	ctx, span := e.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("game_id", gameID),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", op, r)
			logger.Error("recovered panic", "op", op, "game_id", gameID, "error", err)
		}
		e.metrics.observe(op, err, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	err = e.store.Transact(ctx, func(ctx context.Context, tx store.Txn) error {
		s := session.New(ctx, tx, gameID, e.now())
		s.ServerTimers = e.serverTimers
		if err := fn(s); err != nil {
			return err
		}
		return s.Flush()
	})
	if err != nil {
		if isDomainError(err) {
			logger.Debug("command rejected", "op", op, "game_id", gameID, "error", err)
		} else {
			logger.Error("command failed", "op", op, "game_id", gameID, "error", err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if e.watcher != nil {
		if werr := e.watcher.Watch(context.Background(), gameID); werr != nil {
			logger.Warn("failed to watch countdown", "game_id", gameID, "error", werr)
		}
	}
	return nil
}

// requireOrganizer loads the game and checks that caller runs it.
func requireOrganizer(s *session.Session, caller domain.Caller) (*domain.Game, error) {
	g, err := s.Game()
	if err != nil {
		return nil, err
	}
	if caller.UserID == "" || caller.UserID != g.OrganizerID {
		return nil, domain.InvalidAction("only the organizer of game %s may do this", g.ID)
	}
	return g, nil
}

// requirePlayer checks that caller plays in gameID.
func requirePlayer(caller domain.Caller, gameID string) error {
	if !caller.IsPlayer() {
		return domain.InvalidAction("only players may do this")
	}
	if caller.GameID != gameID {
		return domain.InvalidAction("player %s does not play in game %s", caller.UserID, gameID)
	}
	return nil
}
