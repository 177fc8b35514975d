package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/auth"
)

// Config holds the Supabase Auth endpoint and public API key.
type Config struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

// SessionProvider talks to Supabase Auth (GoTrue) and keeps the single current
// session of this app instance. Listeners see every change in order.
type SessionProvider struct {
	url      string
	anonKey  string
	client   *http.Client
	verifier *auth.Verifier
	log      *slog.Logger

	// stateMu serializes session changes and their notifications.
	stateMu sync.Mutex
	current domain.Session

	listenersMu sync.Mutex
	listeners   map[int]func(domain.Session)
	nextID      int
}

// NewSessionProvider builds a provider. verifier may be nil, in which case the
// user id from the token response is trusted as is.
func NewSessionProvider(cfg Config, verifier *auth.Verifier, log *slog.Logger) *SessionProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SessionProvider{
		url:       cfg.URL,
		anonKey:   cfg.AnonKey,
		client:    &http.Client{Timeout: timeout},
		verifier:  verifier,
		log:       log,
		listeners: make(map[int]func(domain.Session)),
	}
}

var _ domain.SessionProvider = (*SessionProvider)(nil)

// Current returns the session as last reported to listeners.
func (p *SessionProvider) Current() domain.Session {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.current
}

func (p *SessionProvider) Subscribe(onChange func(domain.Session)) func() {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	p.listenersMu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = onChange
	p.listenersMu.Unlock()

	onChange(p.current)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.listenersMu.Lock()
			delete(p.listeners, id)
			p.listenersMu.Unlock()
		})
	}
}

// ============================================================================
// Sign In / Sign Up / Sign Out
// ============================================================================

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (p *SessionProvider) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	body, err := p.post(ctx, "/auth/v1/token?grant_type=password", credentials{email, password}, "")
	if err != nil {
		return domain.Anonymous(), err
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return domain.Anonymous(), &domain.AuthError{Kind: domain.AuthNetwork, Message: "Unexpected response from sign-in service", Err: err}
	}

	return p.establish(tr)
}

// SignUp creates the account. When the project requires email confirmation no
// session comes back and the caller gets an AuthError asking to confirm.
func (p *SessionProvider) SignUp(ctx context.Context, email, password string) (domain.Session, error) {
	body, err := p.post(ctx, "/auth/v1/signup", credentials{email, password}, "")
	if err != nil {
		return domain.Anonymous(), err
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return domain.Anonymous(), &domain.AuthError{Kind: domain.AuthNetwork, Message: "Unexpected response from sign-up service", Err: err}
	}

	if tr.AccessToken == "" {
		return domain.Anonymous(), &domain.AuthError{
			Kind:    domain.AuthConfirmationRequired,
			Message: "Email not confirmed. Check your inbox to finish signing up.",
		}
	}

	return p.establish(tr)
}

// SignOut always ends the local session. A failed remote logout only leaves the
// refresh token alive upstream, so it is logged and not returned.
func (p *SessionProvider) SignOut(ctx context.Context) error {
	previous := p.Current()

	if previous.AccessToken != "" {
		if _, err := p.post(ctx, "/auth/v1/logout", nil, previous.AccessToken); err != nil {
			p.log.Warn("Remote sign-out failed", "user_id", previous.UserID, "error", err)
		}
	}

	p.setSession(domain.Anonymous())
	return nil
}

// establish turns a token response into the current session.
func (p *SessionProvider) establish(tr tokenResponse) (domain.Session, error) {
	session := domain.Session{
		UserID:       tr.User.ID,
		Email:        tr.User.Email,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}
	switch {
	case tr.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(tr.ExpiresAt, 0).UTC()
	case tr.ExpiresIn > 0:
		session.ExpiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second).UTC()
	}

	if p.verifier != nil {
		claims, err := p.verifier.Verify(tr.AccessToken)
		if err != nil {
			p.setSession(domain.Anonymous())
			return domain.Anonymous(), &domain.AuthError{Kind: domain.AuthInvalidToken, Message: "Could not verify the session token", Err: err}
		}
		session.UserID = claims.Subject
		if claims.Email != "" {
			session.Email = claims.Email
		}
		if !claims.ExpiresAt.IsZero() {
			session.ExpiresAt = claims.ExpiresAt
		}
	}

	session = session.Normalize()
	p.setSession(session)
	return session, nil
}

func (p *SessionProvider) setSession(s domain.Session) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	p.current = s

	p.listenersMu.Lock()
	listeners := make([]func(domain.Session), 0, len(p.listeners))
	for _, l := range p.listeners {
		listeners = append(listeners, l)
	}
	p.listenersMu.Unlock()

	for _, l := range listeners {
		l(s)
	}
}

// ============================================================================
// HTTP
// ============================================================================

func (p *SessionProvider) post(ctx context.Context, path string, payload interface{}, bearer string) ([]byte, error) {
	var reqBody io.Reader = http.NoBody
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+path, reqBody)
	if err != nil {
		return nil, &domain.AuthError{Kind: domain.AuthNetwork, Message: "Authentication service unavailable", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.anonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &domain.AuthError{Kind: domain.AuthNetwork, Message: "Authentication service unavailable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &domain.AuthError{Kind: domain.AuthNetwork, Message: "Authentication service unavailable", Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, authErrorFrom(resp.StatusCode, body)
	}
	return body, nil
}

func authErrorFrom(status int, body []byte) *domain.AuthError {
	var er errorResponse
	_ = json.Unmarshal(body, &er)

	msg := firstNonEmpty(er.Msg, er.ErrorDescription, er.Message, er.Error)
	cause := fmt.Errorf("supabase auth: status %d", status)

	if status >= 500 {
		if msg == "" {
			msg = "Authentication service unavailable"
		}
		return &domain.AuthError{Kind: domain.AuthNetwork, Message: msg, Err: cause}
	}

	if er.ErrorCode == "email_not_confirmed" {
		if msg == "" {
			msg = "Email not confirmed"
		}
		return &domain.AuthError{Kind: domain.AuthConfirmationRequired, Message: msg, Err: cause}
	}

	if msg == "" {
		msg = "Authentication failed"
	}
	return &domain.AuthError{Kind: domain.AuthInvalidCredentials, Message: msg, Err: cause}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
