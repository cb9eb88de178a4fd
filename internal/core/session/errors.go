package session

import "errors"

var (
	// Session validation errors
	ErrInvalidKey     = errors.New("invalid session key")
	ErrNilGraph       = errors.New("session graph cannot be nil")
	ErrNotFound       = errors.New("session not found")
	ErrAlreadyExists  = errors.New("session already exists")
	ErrEmptyGraphText = errors.New("record graph text cannot be empty")

	// Filter validation errors
	ErrInvalidLimit  = errors.New("limit cannot be negative")
	ErrInvalidOffset = errors.New("offset cannot be negative")

	// Persistence errors
	ErrSaveFailed   = errors.New("failed to save session record")
	ErrLoadFailed   = errors.New("failed to load session record")
	ErrDeleteFailed = errors.New("failed to delete session record")
)
