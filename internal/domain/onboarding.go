package domain

import (
	"context"
	"time"
)

// ============================================================================
// Completion Store
// ============================================================================

// QuizDoneKeyPrefix prefixes the per-user completion key.
const QuizDoneKeyPrefix = "quizDone_"

// QuizDoneValue is the only stored value that means completed.
const QuizDoneValue = "true"

// QuizDoneKey returns the completion store key for userID.
func QuizDoneKey(userID string) string {
	return QuizDoneKeyPrefix + userID
}

// CompletionStore is a namespaced key-value persistence service.
type CompletionStore interface {
	// Get returns found=false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
}

// ============================================================================
// Onboarding Status
// ============================================================================

// OnboardingStatus represents the onboarding quiz completion status
type OnboardingStatus struct {
	UserID    string    `json:"user_id"`
	Completed bool      `json:"completed"`
	CheckedAt time.Time `json:"checked_at"`
}

// ============================================================================
// Usecase Interface
// ============================================================================

type OnboardingUsecase interface {
	// Check if user has completed the onboarding quiz
	GetOnboardingStatus(ctx context.Context, userID string) (*OnboardingStatus, error)

	// Persist completion for userID
	CompleteOnboarding(ctx context.Context, userID string) error
}
