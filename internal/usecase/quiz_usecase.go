package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/metrics"
)

const quizSaveWarning = "Your quiz result could not be saved. You may be asked to take the quiz again next time."

type quizUsecase struct {
	mu sync.Mutex

	bank       *domain.QuestionBank
	onboarding domain.OnboardingUsecase
	gate       domain.GateController
	log        *slog.Logger

	// generation of the gate evaluation this run belongs to
	generation uint64
	progress   domain.QuizProgress
	result     *domain.QuizResult
}

func NewQuizUsecase(bank *domain.QuestionBank, onboarding domain.OnboardingUsecase, gate domain.GateController, log *slog.Logger) domain.QuizUsecase {
	return &quizUsecase{
		bank:       bank,
		onboarding: onboarding,
		gate:       gate,
		log:        log,
	}
}

// Start resets progress. It also happens implicitly whenever the gate enters a
// new evaluation, so every visit to the quiz starts from the first question.
func (u *quizUsecase) Start() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.resetLocked(u.gate.Snapshot().Generation)
}

func (u *quizUsecase) View() domain.QuizView {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.syncLocked()
	return u.viewLocked()
}

func (u *quizUsecase) SelectOption(option string) (domain.QuizView, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.syncLocked()

	if u.result != nil {
		return u.viewLocked(), domain.ErrQuizFinished
	}
	if !u.bank.HasOption(u.progress.QuestionIndex, option) {
		return u.viewLocked(), domain.ErrUnknownOption
	}

	u.progress.SelectedOption = option
	return u.viewLocked(), nil
}

func (u *quizUsecase) Advance() (domain.QuizView, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.syncLocked()

	if u.result != nil {
		return u.viewLocked(), domain.ErrQuizFinished
	}
	if u.progress.SelectedOption == "" {
		return u.viewLocked(), domain.ErrNoSelection
	}

	if u.bank.IsCorrect(u.progress.QuestionIndex, u.progress.SelectedOption) {
		u.progress.Score++
	}

	if u.progress.QuestionIndex == u.bank.Len()-1 {
		u.progress.SelectedOption = ""
		result := domain.NewQuizResult(u.progress.Score, u.bank.Len())
		u.result = &result
		return u.viewLocked(), nil
	}

	u.progress.QuestionIndex++
	u.progress.SelectedOption = ""
	return u.viewLocked(), nil
}

// Confirm persists completion for the signed-in user and tells the gate. A
// persistence failure is reported as a warning on the result; the gate still
// moves on. Confirming twice returns the first result unchanged.
func (u *quizUsecase) Confirm(ctx context.Context) (domain.QuizResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.syncLocked()

	if u.result == nil {
		return domain.QuizResult{}, domain.ErrQuizNotFinished
	}
	if u.result.Confirmed {
		return *u.result, nil
	}

	session := u.gate.Snapshot().Session
	if !session.IsAuthenticated() {
		return *u.result, domain.ErrNotSignedIn
	}

	result := *u.result
	if err := u.onboarding.CompleteOnboarding(ctx, session.UserID); err != nil {
		metrics.RecordStoreError("set")
		u.log.Warn("Failed to save quiz completion", "user_id", session.UserID, "error", err)
		result.Warning = quizSaveWarning
	}

	if err := u.gate.QuizFinished(ctx, session.UserID); err != nil {
		if !errors.Is(err, domain.ErrGateNotInQuiz) {
			return *u.result, err
		}
		// Gate already moved on (e.g. re-evaluated from the store); nothing to raise.
		u.log.Info("Quiz confirmed while gate was not showing the quiz", "user_id", session.UserID)
	}

	result.Confirmed = true
	u.result = &result
	u.log.Info("Quiz completed", "user_id", session.UserID, "score", result.Score, "total", result.Total)
	return result, nil
}

// syncLocked restarts the run when the gate has started a new evaluation.
func (u *quizUsecase) syncLocked() {
	if gen := u.gate.Snapshot().Generation; gen != u.generation {
		u.resetLocked(gen)
	}
}

func (u *quizUsecase) resetLocked(generation uint64) {
	u.generation = generation
	u.progress = domain.QuizProgress{}
	u.result = nil
}

func (u *quizUsecase) viewLocked() domain.QuizView {
	view := domain.QuizView{
		QuestionIndex:  u.progress.QuestionIndex,
		Total:          u.bank.Len(),
		SelectedOption: u.progress.SelectedOption,
		Score:          u.progress.Score,
	}

	if u.result != nil {
		result := *u.result
		view.Finished = true
		view.Result = &result
		return view
	}

	q := u.bank.At(u.progress.QuestionIndex)
	view.Prompt = q.Prompt
	view.Options = q.Options
	view.CanAdvance = u.progress.SelectedOption != ""
	return view
}
