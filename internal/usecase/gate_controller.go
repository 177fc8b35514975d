package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/metrics"
)

// ErrGateStopped is returned when an event is posted after Stop.
var ErrGateStopped = errors.New("gate controller stopped")

type gateEventKind int

const (
	evSessionChanged gateEventKind = iota
	evStatusResolved
	evQuizFinished
)

type gateEvent struct {
	kind gateEventKind

	session    domain.Session
	generation uint64
	userID     string
	completed  bool
	err        error
	reply      chan error
}

// GateController decides which top-level screen stack is mounted. All state is
// owned by a single event loop goroutine; session changes, completion reads and
// quiz-finished notifications are serialized through its channel.
type GateController struct {
	sessions   domain.SessionProvider
	onboarding domain.OnboardingUsecase
	log        *slog.Logger

	events   chan gateEvent
	done     chan struct{}
	loopDone chan struct{}

	// Owned by the loop goroutine.
	state      domain.GateState
	session    domain.Session
	generation uint64

	mu       sync.RWMutex
	snapshot domain.GateSnapshot
	changed  chan struct{}

	lifeMu      sync.Mutex
	started     bool
	stopped     bool
	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc

	staleReads atomic.Uint64
}

func NewGateController(sessions domain.SessionProvider, onboarding domain.OnboardingUsecase, log *slog.Logger) *GateController {
	return &GateController{
		sessions:   sessions,
		onboarding: onboarding,
		log:        log,
		events:     make(chan gateEvent, 64),
		done:       make(chan struct{}),
		loopDone:   make(chan struct{}),
		state:      domain.GateLoading,
		snapshot:   domain.GateSnapshot{State: domain.GateLoading},
		changed:    make(chan struct{}),
	}
}

// Start runs the event loop and subscribes to the session provider. Calling it
// again, or after Stop, does nothing.
func (g *GateController) Start(ctx context.Context) {
	g.lifeMu.Lock()
	defer g.lifeMu.Unlock()

	if g.started || g.stopped {
		return
	}
	g.started = true
	g.ctx, g.cancel = context.WithCancel(ctx)

	go g.run()

	g.unsubscribe = g.sessions.Subscribe(func(s domain.Session) {
		g.post(gateEvent{kind: evSessionChanged, session: s})
	})
}

// Stop releases the session subscription, abandons outstanding reads and waits
// for the loop to exit. Safe to call more than once and before Start.
func (g *GateController) Stop() {
	g.lifeMu.Lock()
	if g.stopped {
		g.lifeMu.Unlock()
		return
	}
	g.stopped = true
	started := g.started
	unsubscribe := g.unsubscribe
	g.lifeMu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	close(g.done)
	if !started {
		return
	}
	g.cancel()
	<-g.loopDone
}

// Snapshot returns the current decision.
func (g *GateController) Snapshot() domain.GateSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshot
}

// AwaitSettled blocks until a screen stack is mounted.
func (g *GateController) AwaitSettled(ctx context.Context) (domain.GateSnapshot, error) {
	for {
		g.mu.RLock()
		snap, changed := g.snapshot, g.changed
		g.mu.RUnlock()

		if snap.State.Settled() {
			return snap, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-g.done:
			return snap, ErrGateStopped
		}
	}
}

// QuizFinished moves ShowQuiz to ShowMain for userID. The caller must already
// have persisted completion; the store is not consulted again.
func (g *GateController) QuizFinished(ctx context.Context, userID string) error {
	reply := make(chan error, 1)
	if !g.post(gateEvent{kind: evQuizFinished, userID: userID, reply: reply}) {
		return ErrGateStopped
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-g.done:
		return ErrGateStopped
	}
}

// StaleReads returns how many completion reads were discarded.
func (g *GateController) StaleReads() uint64 {
	return g.staleReads.Load()
}

func (g *GateController) post(ev gateEvent) bool {
	select {
	case <-g.done:
		return false
	default:
	}

	select {
	case g.events <- ev:
		return true
	case <-g.done:
		return false
	}
}

func (g *GateController) run() {
	defer close(g.loopDone)

	for {
		select {
		case <-g.done:
			return
		case ev := <-g.events:
			switch ev.kind {
			case evSessionChanged:
				g.handleSessionChanged(ev.session)
			case evStatusResolved:
				g.handleStatusResolved(ev)
			case evQuizFinished:
				ev.reply <- g.handleQuizFinished(ev.userID)
			}
		}
	}
}

func (g *GateController) handleSessionChanged(s domain.Session) {
	s = s.Normalize()
	g.generation++
	g.session = s

	if !s.IsAuthenticated() {
		g.transition(domain.GateShowAuth)
		return
	}

	g.transition(domain.GateLoading)

	gen, userID, ctx := g.generation, s.UserID, g.ctx
	go func() {
		ev := gateEvent{kind: evStatusResolved, generation: gen, userID: userID}
		status, err := g.onboarding.GetOnboardingStatus(ctx, userID)
		if err != nil {
			ev.err = err
		} else if status != nil {
			ev.completed = status.Completed
		}
		g.post(ev)
	}()
}

func (g *GateController) handleStatusResolved(ev gateEvent) {
	if ev.generation != g.generation {
		g.staleReads.Add(1)
		metrics.RecordStaleRead()
		g.log.Debug("Discarding stale completion read",
			"user_id", ev.userID, "generation", ev.generation, "current", g.generation)
		return
	}

	if ev.err != nil {
		metrics.RecordStoreError("get")
		g.log.Warn("Completion status read failed, continuing to quiz",
			"user_id", ev.userID, "error", ev.err)
		g.transition(domain.GateShowQuiz)
		return
	}

	if ev.completed {
		g.transition(domain.GateShowMain)
	} else {
		g.transition(domain.GateShowQuiz)
	}
}

func (g *GateController) handleQuizFinished(userID string) error {
	if g.state != domain.GateShowQuiz || g.session.UserID != userID {
		return domain.ErrGateNotInQuiz
	}
	g.transition(domain.GateShowMain)
	return nil
}

func (g *GateController) transition(to domain.GateState) {
	from := g.state
	g.state = to

	g.mu.Lock()
	g.snapshot = domain.GateSnapshot{State: to, Session: g.session, Generation: g.generation}
	close(g.changed)
	g.changed = make(chan struct{})
	g.mu.Unlock()

	metrics.RecordGateTransition(string(to))
	g.log.Info("Gate transition",
		"from", from, "to", to, "user_id", g.session.UserID, "generation", g.generation)
}
