package services

import (
	"errors"

	"motoinvest/internal/store"
)

var (
	ErrAccessDenied     = errors.New("access denied")
	ErrChatBusy         = errors.New("a chat turn is already in progress")
	ErrNoSession        = errors.New("no active session")
	ErrOnboarding       = errors.New("profile not created yet")
	ErrAlreadyOnboarded = errors.New("profile already exists")
	ErrNothingToClose   = errors.New("earning and expense are both zero")
	ErrEmptyPrompt      = errors.New("empty prompt")

	// ErrWriteFailed marks a store write that was not acknowledged. The
	// cached collections are left as they were.
	ErrWriteFailed = errors.New("write failed")
)

func errorsIsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
