package usecase_test

import (
	"context"
	"errors"
	"testing"

	"food-expose-backend/internal/domain"
	"food-expose-backend/internal/usecase"
	"food-expose-backend/pkg/logger"
	"food-expose-backend/pkg/quizbank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	rightAnswers = []string{"Calcium", "Vitamin C", "Body Mass Index", "0.8g per kg body weight", "Salmon"}
	wrongAnswers = []string{"Fat", "Vitamin D", "Basic Medical Info", "10g per kg body weight", "Bread"}
)

func newQuiz(t *testing.T, store domain.CompletionStore, gate domain.GateController) domain.QuizUsecase {
	t.Helper()
	bank, err := quizbank.Default()
	require.NoError(t, err)
	return usecase.NewQuizUsecase(bank, usecase.NewOnboardingUsecase(store), gate, logger.Discard())
}

func answerAll(t *testing.T, quiz domain.QuizUsecase, answers []string) domain.QuizView {
	t.Helper()
	var view domain.QuizView
	for _, answer := range answers {
		_, err := quiz.SelectOption(answer)
		require.NoError(t, err)
		view, err = quiz.Advance()
		require.NoError(t, err)
	}
	return view
}

func TestQuiz_AllCorrect(t *testing.T) {
	store := newScriptedStore()
	gate := newFakeGate(domain.GateShowQuiz, "u1")
	quiz := newQuiz(t, store, gate)

	view := answerAll(t, quiz, rightAnswers)
	require.True(t, view.Finished)
	assert.Equal(t, 5, view.Result.Score)
	assert.Equal(t, 100, view.Result.Percent)
	assert.False(t, view.Result.Confirmed)

	result, err := quiz.Confirm(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Confirmed)
	assert.Empty(t, result.Warning)

	assert.Equal(t, "true", store.values["quizDone_u1"])
	assert.Equal(t, []string{"u1"}, gate.Finished())
}

func TestQuiz_AllWrong(t *testing.T) {
	quiz := newQuiz(t, newScriptedStore(), newFakeGate(domain.GateShowQuiz, "u1"))

	view := answerAll(t, quiz, wrongAnswers)
	require.True(t, view.Finished)
	assert.Equal(t, 0, view.Result.Score)
	assert.Equal(t, 5, view.Result.Total)
	assert.Equal(t, 0, view.Result.Percent)
}

func TestQuiz_FirstQuestion(t *testing.T) {
	quiz := newQuiz(t, newScriptedStore(), newFakeGate(domain.GateShowQuiz, "u1"))

	view := quiz.View()
	assert.Equal(t, 0, view.QuestionIndex)
	assert.Equal(t, 5, view.Total)
	assert.Equal(t, "What is the most important nutrient for bone health?", view.Prompt)
	assert.Equal(t, []string{"Calcium", "Protein", "Carbohydrates", "Fat"}, view.Options)
	assert.False(t, view.CanAdvance)
}

func TestQuiz_AdvanceRequiresSelection(t *testing.T) {
	quiz := newQuiz(t, newScriptedStore(), newFakeGate(domain.GateShowQuiz, "u1"))

	view, err := quiz.Advance()
	assert.ErrorIs(t, err, domain.ErrNoSelection)
	assert.Equal(t, 0, view.QuestionIndex)
	assert.Equal(t, 0, view.Score)
}

func TestQuiz_SelectionRules(t *testing.T) {
	quiz := newQuiz(t, newScriptedStore(), newFakeGate(domain.GateShowQuiz, "u1"))

	_, err := quiz.SelectOption("Vitamin C")
	assert.ErrorIs(t, err, domain.ErrUnknownOption)

	_, err = quiz.SelectOption("calcium")
	assert.ErrorIs(t, err, domain.ErrUnknownOption, "matching is case-sensitive")

	_, err = quiz.SelectOption("Protein")
	require.NoError(t, err)
	view, err := quiz.SelectOption("Calcium")
	require.NoError(t, err)
	assert.Equal(t, "Calcium", view.SelectedOption)
	assert.True(t, view.CanAdvance)

	view, err = quiz.Advance()
	require.NoError(t, err)
	assert.Equal(t, 1, view.QuestionIndex)
	assert.Equal(t, 1, view.Score)
	assert.Empty(t, view.SelectedOption)
}

func TestQuiz_FinishedRejectsFurtherInput(t *testing.T) {
	quiz := newQuiz(t, newScriptedStore(), newFakeGate(domain.GateShowQuiz, "u1"))
	answerAll(t, quiz, rightAnswers)

	_, err := quiz.SelectOption("Calcium")
	assert.ErrorIs(t, err, domain.ErrQuizFinished)
	_, err = quiz.Advance()
	assert.ErrorIs(t, err, domain.ErrQuizFinished)
}

func TestQuiz_ConfirmBeforeFinish(t *testing.T) {
	quiz := newQuiz(t, newScriptedStore(), newFakeGate(domain.GateShowQuiz, "u1"))

	_, err := quiz.Confirm(context.Background())
	assert.ErrorIs(t, err, domain.ErrQuizNotFinished)
}

func TestQuiz_ConfirmIsIdempotent(t *testing.T) {
	store := new(MockCompletionStore)
	store.On("Set", mock.Anything, "quizDone_u1", "true").Return(nil).Once()

	gate := newFakeGate(domain.GateShowQuiz, "u1")
	quiz := newQuiz(t, store, gate)
	answerAll(t, quiz, rightAnswers)

	first, err := quiz.Confirm(context.Background())
	require.NoError(t, err)
	second, err := quiz.Confirm(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, gate.Finished(), 1)
	store.AssertExpectations(t)
}

func TestQuiz_PersistenceFailureStillReachesMain(t *testing.T) {
	store := new(MockCompletionStore)
	store.On("Set", mock.Anything, "quizDone_u1", "true").Return(errors.New("quota exceeded"))

	gate := newFakeGate(domain.GateShowQuiz, "u1")
	quiz := newQuiz(t, store, gate)
	answerAll(t, quiz, wrongAnswers)

	result, err := quiz.Confirm(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Confirmed)
	assert.NotEmpty(t, result.Warning)
	assert.Equal(t, domain.GateShowMain, gate.Snapshot().State)
}

func TestQuiz_ConfirmWhenGateMovedOn(t *testing.T) {
	gate := newFakeGate(domain.GateShowQuiz, "u1")
	gate.finishErr = domain.ErrGateNotInQuiz
	quiz := newQuiz(t, newScriptedStore(), gate)
	answerAll(t, quiz, rightAnswers)

	result, err := quiz.Confirm(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Confirmed)
}

func TestQuiz_ConfirmRequiresSession(t *testing.T) {
	gate := newFakeGate(domain.GateShowQuiz, "")
	store := newScriptedStore()
	quiz := newQuiz(t, store, gate)
	answerAll(t, quiz, rightAnswers)

	_, err := quiz.Confirm(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotSignedIn)
	assert.Empty(t, store.values)
}

func TestQuiz_NewGateEvaluationRestarts(t *testing.T) {
	gate := newFakeGate(domain.GateShowQuiz, "u1")
	quiz := newQuiz(t, newScriptedStore(), gate)

	answerAll(t, quiz, rightAnswers[:3])
	assert.Equal(t, 3, quiz.View().QuestionIndex)

	gate.NewEvaluation(domain.GateShowQuiz, "u2")

	view := quiz.View()
	assert.Equal(t, 0, view.QuestionIndex)
	assert.Equal(t, 0, view.Score)
}

func TestQuiz_StartResets(t *testing.T) {
	quiz := newQuiz(t, newScriptedStore(), newFakeGate(domain.GateShowQuiz, "u1"))
	answerAll(t, quiz, rightAnswers[:2])

	quiz.Start()
	assert.Equal(t, 0, quiz.View().QuestionIndex)
}
