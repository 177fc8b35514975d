package usecase

import (
	"context"
	"strings"
	"time"

	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/apperror"
)

type onboardingUsecase struct {
	store domain.CompletionStore
	now   func() time.Time
}

// NewOnboardingUsecase adapts a CompletionStore to the per-user quiz completion
// convention: key "quizDone_<userID>", value "true".
func NewOnboardingUsecase(store domain.CompletionStore) domain.OnboardingUsecase {
	return &onboardingUsecase{
		store: store,
		now:   time.Now,
	}
}

// ============================================================================
// Onboarding Status
// ============================================================================

func (u *onboardingUsecase) GetOnboardingStatus(ctx context.Context, userID string) (*domain.OnboardingStatus, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.BadRequest("User ID is required")
	}

	key := domain.QuizDoneKey(userID)
	value, found, err := u.store.Get(ctx, key)
	if err != nil {
		return nil, &domain.StoreError{Op: "get", Key: key, Err: err}
	}

	return &domain.OnboardingStatus{
		UserID:    userID,
		Completed: found && value == domain.QuizDoneValue,
		CheckedAt: u.now(),
	}, nil
}

// ============================================================================
// Complete Onboarding
// ============================================================================

func (u *onboardingUsecase) CompleteOnboarding(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperror.BadRequest("User ID is required")
	}

	key := domain.QuizDoneKey(userID)
	if err := u.store.Set(ctx, key, domain.QuizDoneValue); err != nil {
		return &domain.StoreError{Op: "set", Key: key, Err: err}
	}

	return nil
}
