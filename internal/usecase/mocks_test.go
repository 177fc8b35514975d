package usecase_test

import (
	"context"
	"sync"
	"time"

	"food-expose-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

// ============================================================================
// Session provider
// ============================================================================

// fakeSessions delivers sessions to the single subscriber synchronously.
type fakeSessions struct {
	mu           sync.Mutex
	current      domain.Session
	listener     func(domain.Session)
	subscribed   int
	unsubscribed int
}

func (f *fakeSessions) Subscribe(onChange func(domain.Session)) func() {
	f.mu.Lock()
	f.listener = onChange
	f.subscribed++
	current := f.current
	f.mu.Unlock()

	onChange(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.listener = nil
			f.unsubscribed++
			f.mu.Unlock()
		})
	}
}

func (f *fakeSessions) Emit(s domain.Session) {
	f.mu.Lock()
	f.current = s
	listener := f.listener
	f.mu.Unlock()

	if listener != nil {
		listener(s)
	}
}

func (f *fakeSessions) Unsubscribed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribed
}

func (f *fakeSessions) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	return domain.Anonymous(), nil
}

func (f *fakeSessions) SignUp(ctx context.Context, email, password string) (domain.Session, error) {
	return domain.Anonymous(), nil
}

func (f *fakeSessions) SignOut(ctx context.Context) error {
	f.Emit(domain.Anonymous())
	return nil
}

type MockSessionProvider struct {
	mock.Mock
}

func (m *MockSessionProvider) Subscribe(onChange func(domain.Session)) func() {
	return func() {}
}

func (m *MockSessionProvider) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *MockSessionProvider) SignUp(ctx context.Context, email, password string) (domain.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *MockSessionProvider) SignOut(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// ============================================================================
// Completion store
// ============================================================================

// scriptedStore answers from a map. Keys listed in holds block their reads
// until the hold channel is closed.
type scriptedStore struct {
	mu     sync.Mutex
	values map[string]string
	errs   map[string]error
	holds  map[string]chan struct{}
	gets   int
	setErr error
}

func newScriptedStore() *scriptedStore {
	return &scriptedStore{
		values: make(map[string]string),
		errs:   make(map[string]error),
		holds:  make(map[string]chan struct{}),
	}
}

func (s *scriptedStore) Hold(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.holds[key] = ch
	return ch
}

func (s *scriptedStore) Gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func (s *scriptedStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	s.gets++
	hold := s.holds[key]
	s.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs[key]; err != nil {
		return "", false, err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *scriptedStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	return nil
}

func (s *scriptedStore) Ping(ctx context.Context) error {
	return nil
}

type MockCompletionStore struct {
	mock.Mock
}

func (m *MockCompletionStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCompletionStore) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockCompletionStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// ============================================================================
// Gate
// ============================================================================

// fakeGate is a settable gate for the quiz, scan and profile flows.
type fakeGate struct {
	mu        sync.Mutex
	snap      domain.GateSnapshot
	finished  []string
	finishErr error
}

func newFakeGate(state domain.GateState, userID string) *fakeGate {
	return &fakeGate{snap: domain.GateSnapshot{
		State:      state,
		Session:    domain.Session{UserID: userID, Email: userID + "@example.com"},
		Generation: 1,
	}}
}

func (g *fakeGate) Snapshot() domain.GateSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap
}

func (g *fakeGate) AwaitSettled(ctx context.Context) (domain.GateSnapshot, error) {
	return g.Snapshot(), nil
}

func (g *fakeGate) QuizFinished(ctx context.Context, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.finished = append(g.finished, userID)
	if g.finishErr != nil {
		return g.finishErr
	}
	g.snap.State = domain.GateShowMain
	return nil
}

func (g *fakeGate) Finished() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.finished...)
}

func (g *fakeGate) NewEvaluation(state domain.GateState, userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.snap.State = state
	g.snap.Session = domain.Session{UserID: userID}
	g.snap.Generation++
}

// ============================================================================
// Nutrition lookup
// ============================================================================

type lookupFunc func(ctx context.Context, barcode string) (*domain.ProductRecord, error)

func (f lookupFunc) Lookup(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	return f(ctx, barcode)
}

type imageFunc func(ctx context.Context, url string) ([]byte, error)

func (f imageFunc) FetchImage(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

func nutella() *domain.ProductRecord {
	img := "https://images.openfoodfacts.org/images/products/301/762/042/2003/front_en.jpg"
	return &domain.ProductRecord{
		Barcode:      "3017620422003",
		Name:         "Nutella",
		Brand:        "Ferrero",
		CaloriesKcal: 539,
		ProteinG:     6.3,
		CarbsG:       57.5,
		FatG:         30.9,
		SugarG:       56.3,
		SaltG:        0.107,
		ImageURL:     &img,
	}
}

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond
