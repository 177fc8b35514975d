package domain

import "context"

// GateState selects the top-level screen stack.
type GateState string

const (
	GateLoading  GateState = "loading"
	GateShowAuth GateState = "show_auth"
	GateShowQuiz GateState = "show_quiz"
	GateShowMain GateState = "show_main"
)

// ValidGateStates returns all gate states
func ValidGateStates() []GateState {
	return []GateState{GateLoading, GateShowAuth, GateShowQuiz, GateShowMain}
}

// Settled reports whether a screen stack is mounted.
func (s GateState) Settled() bool {
	return s != GateLoading
}

// GateSnapshot is an immutable view of the gating controller.
type GateSnapshot struct {
	State      GateState `json:"state"`
	Session    Session   `json:"session"`
	Generation uint64    `json:"generation"`
}

type GateController interface {
	Snapshot() GateSnapshot
	// AwaitSettled blocks until the state is not Loading or ctx is done.
	AwaitSettled(ctx context.Context) (GateSnapshot, error)
	// QuizFinished moves ShowQuiz to ShowMain for userID without re-reading the store.
	QuizFinished(ctx context.Context, userID string) error
}
