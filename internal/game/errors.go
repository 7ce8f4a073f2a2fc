package game

import "errors"

// Sentinel errors for the engine operations. Handlers branch on these with
// errors.Is to pick the HTTP status; the wrapped message carries the
// specific, user-visible reason.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
)
