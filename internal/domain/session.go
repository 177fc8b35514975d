package domain

import (
	"context"
	"strings"
	"time"
)

// Session is the current authentication identity. The zero value is Anonymous.
type Session struct {
	UserID       string    `json:"user_id,omitempty"`
	Email        string    `json:"email,omitempty"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Anonymous returns the session that carries no identity.
func Anonymous() Session {
	return Session{}
}

// IsAuthenticated reports whether the session names a user. A blank user id is
// a malformed session and counts as anonymous.
func (s Session) IsAuthenticated() bool {
	return strings.TrimSpace(s.UserID) != ""
}

// Normalize collapses malformed sessions to Anonymous.
func (s Session) Normalize() Session {
	if !s.IsAuthenticated() {
		return Anonymous()
	}
	return s
}

// SessionProvider is the identity provider boundary.
type SessionProvider interface {
	// Subscribe registers onChange and immediately delivers the current session.
	// The returned function releases the subscription; calling it twice is a no-op.
	Subscribe(onChange func(Session)) (unsubscribe func())
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context) error
}

// SignInRequest is the payload of the sign-in screen
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpRequest is the payload of the sign-up screen
type SignUpRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// SignInGuard locks an email out after repeated failed sign-ins.
type SignInGuard interface {
	Blocked(ctx context.Context, email string) (remaining time.Duration, blocked bool, err error)
	RecordFailure(ctx context.Context, email string) (blocked bool, err error)
	Reset(ctx context.Context, email string) error
}

type AuthUsecase interface {
	SignIn(ctx context.Context, req *SignInRequest) (Session, error)
	SignUp(ctx context.Context, req *SignUpRequest) (Session, error)
	SignOut(ctx context.Context) error
}
