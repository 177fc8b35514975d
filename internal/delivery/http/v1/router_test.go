package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"food-expose-backend/config"
	"food-expose-backend/internal/delivery/http/response"
	"food-expose-backend/internal/domain"
	"food-expose-backend/internal/repository/memory"
	"food-expose-backend/internal/usecase"
	"food-expose-backend/pkg/logger"
	"food-expose-backend/pkg/quizbank"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGate struct {
	mu   sync.Mutex
	snap domain.GateSnapshot
}

func (g *stubGate) Snapshot() domain.GateSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap
}

func (g *stubGate) AwaitSettled(ctx context.Context) (domain.GateSnapshot, error) {
	return g.Snapshot(), nil
}

func (g *stubGate) QuizFinished(ctx context.Context, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.snap.State != domain.GateShowQuiz || g.snap.Session.UserID != userID {
		return domain.ErrGateNotInQuiz
	}
	g.snap.State = domain.GateShowMain
	return nil
}

type stubSessions struct{}

func (stubSessions) Subscribe(onChange func(domain.Session)) func() { return func() {} }

func (stubSessions) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	if password != "secret1" {
		return domain.Anonymous(), &domain.AuthError{Kind: domain.AuthInvalidCredentials, Message: "Invalid login credentials"}
	}
	return domain.Session{UserID: "u1", Email: email}, nil
}

func (stubSessions) SignUp(ctx context.Context, email, password string) (domain.Session, error) {
	return domain.Anonymous(), &domain.AuthError{Kind: domain.AuthConfirmationRequired, Message: "Email not confirmed"}
}

func (stubSessions) SignOut(ctx context.Context) error { return nil }

type stubLookup struct{}

func (stubLookup) Lookup(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	if barcode != "3017620422003" {
		return nil, domain.ErrProductNotFound
	}
	return &domain.ProductRecord{Barcode: barcode, Name: "Nutella", Brand: "Ferrero", CaloriesKcal: 539}, nil
}

func (stubLookup) FetchImage(ctx context.Context, url string) ([]byte, error) {
	return nil, context.DeadlineExceeded
}

type testEnv struct {
	router *gin.Engine
	gate   *stubGate
}

func newTestEnv(t *testing.T, state domain.GateState) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gate := &stubGate{snap: domain.GateSnapshot{
		State:      state,
		Session:    domain.Session{UserID: "u1", Email: "u1@example.com"},
		Generation: 1,
	}}
	store := memory.NewCompletionStore("test")
	history := memory.NewScanHistoryRepository()
	onboarding := usecase.NewOnboardingUsecase(store)
	bank, err := quizbank.Default()
	require.NoError(t, err)

	cfg := &config.Config{
		FrontendURL:              "http://localhost:8081",
		RateLimitWindowSeconds:   60,
		RateLimitAuthThreshold:   1000,
		RateLimitGlobalThreshold: 1000,
		HistoryLimit:             50,
		MetricsEnabled:           true,
	}

	router := NewRouter(RouterDeps{
		AuthUC:    usecase.NewAuthUsecase(stubSessions{}, validator.New(), nil, logger.Discard()),
		QuizUC:    usecase.NewQuizUsecase(bank, onboarding, gate, logger.Discard()),
		ScanUC:    usecase.NewScanUsecase(stubLookup{}, stubLookup{}, history, gate, logger.Discard()),
		ProfileUC: usecase.NewProfileUsecase(gate, onboarding, history, cfg.HistoryLimit, logger.Discard()),
		HealthUC:  usecase.NewHealthUsecase(store, history, gate),
		Gate:      gate,
		Config:    cfg,
	})

	return &testEnv{router: router, gate: gate}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp response.Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func dataMap(t *testing.T, resp response.Response) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func TestHealthAndGate(t *testing.T) {
	env := newTestEnv(t, domain.GateShowQuiz)

	w, resp := env.do(t, http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", dataMap(t, resp)["completion_store"])
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, w.Header().Get("X-Request-ID"))

	w, resp = env.do(t, http.MethodGet, "/v1/gate?wait=true", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "show_quiz", dataMap(t, resp)["state"])

	w, _ = env.do(t, http.MethodGet, "/v1/gate?wait=true&timeout=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGateRequirement(t *testing.T) {
	env := newTestEnv(t, domain.GateShowMain)

	w, resp := env.do(t, http.MethodGet, "/v1/quiz", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, resp.Success)

	errBody, ok := resp.Error.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "show_main", errBody["gate"])
	assert.Equal(t, "show_quiz", errBody["required"])

	env = newTestEnv(t, domain.GateShowQuiz)
	w, _ = env.do(t, http.MethodGet, "/v1/scan", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestQuizFlow(t *testing.T) {
	env := newTestEnv(t, domain.GateShowQuiz)

	w, resp := env.do(t, http.MethodGet, "/v1/quiz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "What is the most important nutrient for bone health?", dataMap(t, resp)["prompt"])

	w, _ = env.do(t, http.MethodPost, "/v1/quiz/advance", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/v1/quiz/select", `{"option":"Pizza"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/v1/quiz/confirm", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	for _, answer := range []string{"Calcium", "Vitamin C", "Body Mass Index", "0.8g per kg body weight", "Salmon"} {
		w, _ = env.do(t, http.MethodPost, "/v1/quiz/select", `{"option":"`+answer+`"}`)
		require.Equal(t, http.StatusOK, w.Code)
		w, resp = env.do(t, http.MethodPost, "/v1/quiz/advance", "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	result := dataMap(t, resp)["result"].(map[string]interface{})
	assert.Equal(t, float64(5), result["score"])

	w, resp = env.do(t, http.MethodPost, "/v1/quiz/confirm", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, dataMap(t, resp)["confirmed"])
	assert.Equal(t, domain.GateShowMain, env.gate.Snapshot().State)

	// The quiz stack is gone once the gate moved on.
	w, _ = env.do(t, http.MethodGet, "/v1/quiz", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestScanFlow(t *testing.T) {
	env := newTestEnv(t, domain.GateShowMain)

	w, _ := env.do(t, http.MethodPost, "/v1/scan/barcode", `{"barcode":"not-a-code"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := env.do(t, http.MethodPost, "/v1/scan/barcode", `{"barcode":"12345678"}`)
	require.Equal(t, http.StatusOK, w.Code)
	view := dataMap(t, resp)["view"].(map[string]interface{})
	assert.Equal(t, "scanning", view["state"])
	assert.Equal(t, "not_found", view["notice"].(map[string]interface{})["kind"])

	w, resp = env.do(t, http.MethodPost, "/v1/scan/barcode", `{"barcode":"3017620422003"}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, resp)
	assert.Equal(t, true, data["accepted"])
	view = data["view"].(map[string]interface{})
	assert.Equal(t, "show_result", view["state"])
	assert.Equal(t, "539 kcal", view["display"].(map[string]interface{})["calories"])

	w, _ = env.do(t, http.MethodGet, "/v1/scan/result/thumbnail", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = env.do(t, http.MethodPost, "/v1/scan/another", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "scanning", dataMap(t, resp)["state"])
}

func TestProfileExport(t *testing.T) {
	env := newTestEnv(t, domain.GateShowMain)
	env.do(t, http.MethodPost, "/v1/scan/barcode", `{"barcode":"3017620422003"}`)

	w, resp := env.do(t, http.MethodGet, "/v1/profile", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), dataMap(t, resp)["scan_count"])

	w, _ = env.do(t, http.MethodGet, "/v1/profile/history?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/v1/profile/history/export?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=\"scan_history_")
	assert.Contains(t, w.Body.String(), "Nutella")
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t, domain.GateShowAuth)

	w, _ := env.do(t, http.MethodPost, "/v1/auth/signin", `{"email":"a@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := env.do(t, http.MethodPost, "/v1/auth/signin", `{"email":"a@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid login credentials", resp.Message)

	w, resp = env.do(t, http.MethodPost, "/v1/auth/signin", `{"email":"a@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", dataMap(t, resp)["user_id"])

	w, resp = env.do(t, http.MethodPost, "/v1/auth/signup", `{"email":"a@example.com","password":"secret1","confirm_password":"secret1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Email not confirmed", resp.Message)
}

func TestMetricsAndCORS(t *testing.T) {
	env := newTestEnv(t, domain.GateShowAuth)
	env.do(t, http.MethodGet, "/v1/health", "")

	w, _ := env.do(t, http.MethodGet, "/v1/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "food_expose_http_requests_total")

	req := httptest.NewRequest(http.MethodOptions, "/v1/gate", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:8081", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/v1/gate", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
