package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNoSelection     = errors.New("no option selected")
	ErrUnknownOption   = errors.New("option is not part of the current question")
	ErrQuizFinished    = errors.New("quiz already finished")
	ErrQuizNotFinished = errors.New("quiz not finished")
	ErrGateNotInQuiz   = errors.New("gate is not showing the quiz for this user")
	ErrNotSignedIn     = errors.New("no authenticated session")
)

// AuthErrorKind classifies identity provider failures.
type AuthErrorKind string

const (
	AuthInvalidCredentials   AuthErrorKind = "invalid_credentials"
	AuthConfirmationRequired AuthErrorKind = "confirmation_required"
	AuthInvalidToken         AuthErrorKind = "invalid_token"
	AuthNetwork              AuthErrorKind = "network"
)

// AuthError is shown to the user verbatim as a blocking notice.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// StoreError is a completion store read/write failure. Always fail-open.
type StoreError struct {
	Op  string // "get" or "set"
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("completion store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// TransportError is a nutrition lookup network or parse failure.
type TransportError struct {
	Barcode    string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("nutrition lookup %s: status %d: %v", e.Barcode, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("nutrition lookup %s: %v", e.Barcode, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
