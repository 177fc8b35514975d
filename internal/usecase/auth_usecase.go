package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/apperror"
	"food-expose-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type authUsecase struct {
	sessions domain.SessionProvider
	validate *validator.Validate
	guard    domain.SignInGuard
	log      *slog.Logger
}

// NewAuthUsecase builds the sign-in flow. guard may be nil, which disables lockout.
func NewAuthUsecase(sessions domain.SessionProvider, validate *validator.Validate, guard domain.SignInGuard, log *slog.Logger) domain.AuthUsecase {
	return &authUsecase{
		sessions: sessions,
		validate: validate,
		guard:    guard,
		log:      log,
	}
}

// SignIn does not touch the gate; the provider's session-change notification does.
func (u *authUsecase) SignIn(ctx context.Context, req *domain.SignInRequest) (domain.Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := u.validate.Struct(req); err != nil {
		return domain.Anonymous(), validationError(err)
	}

	if u.guard != nil {
		remaining, blocked, err := u.guard.Blocked(ctx, req.Email)
		if err != nil {
			// Lockout is best effort; the provider has its own limits.
			u.log.Warn("Sign-in guard unavailable", "error", err)
		} else if blocked {
			return domain.Anonymous(), blockedError(remaining)
		}
	}

	session, err := u.sessions.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		var authErr *domain.AuthError
		if u.guard != nil && errors.As(err, &authErr) && authErr.Kind == domain.AuthInvalidCredentials {
			if _, gErr := u.guard.RecordFailure(ctx, req.Email); gErr != nil {
				u.log.Warn("Failed to record sign-in failure", "error", gErr)
			}
		}
		return domain.Anonymous(), authAppError(err)
	}

	if u.guard != nil {
		if err := u.guard.Reset(ctx, req.Email); err != nil {
			u.log.Warn("Failed to reset sign-in failures", "error", err)
		}
	}
	return session, nil
}

func (u *authUsecase) SignUp(ctx context.Context, req *domain.SignUpRequest) (domain.Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := u.validate.Struct(req); err != nil {
		return domain.Anonymous(), validationError(err)
	}

	session, err := u.sessions.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return domain.Anonymous(), authAppError(err)
	}
	return session, nil
}

func (u *authUsecase) SignOut(ctx context.Context) error {
	if err := u.sessions.SignOut(ctx); err != nil {
		return authAppError(err)
	}
	return nil
}

func validationError(err error) error {
	msgs := validation.FormatValidationErrors(err)
	return apperror.BadRequest(strings.Join(msgs, "; ")).WithDetails(msgs)
}

func blockedError(remaining time.Duration) error {
	minutes := int(math.Ceil(remaining.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return apperror.New(http.StatusTooManyRequests,
		fmt.Sprintf("Too many failed sign-in attempts. Try again in %d minute(s).", minutes), nil)
}

// authAppError surfaces provider messages verbatim.
func authAppError(err error) error {
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		return apperror.Internal(err)
	}

	switch authErr.Kind {
	case domain.AuthNetwork:
		return apperror.New(http.StatusBadGateway, authErr.Message, err)
	case domain.AuthConfirmationRequired:
		return apperror.New(http.StatusForbidden, authErr.Message, err)
	default:
		return apperror.New(http.StatusUnauthorized, authErr.Message, err)
	}
}
