package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("not logged in. Please run `fintrack login` first")
	ErrHistoryClosed    = errors.New("history view is not open")
	ErrNoFileSelected   = &ValidationError{Field: "file", Message: "please select a CSV file first"}
	ErrTokenExpired     = &AuthError{Message: "session expired. Please log in again"}
	ErrInvalidLimit     = &ValidationError{Field: "limit", Message: "must be one of All, 10, 50, 100"}
)

// AuthError indica credenciais inválidas ou token ausente/expirado.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("unauthorized: %v", e.Err)
	}
	return "unauthorized"
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NetworkError indicates a transport failure, a timeout, or an open circuit breaker.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error [%s]: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError é uma resposta não-2xx do servidor, com a mensagem que ele devolveu.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// ValidationError indicates bad input detected before anything was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}
