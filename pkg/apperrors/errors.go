package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
	ErrLookupFailure     = errors.New("ownership lookup failed")
	ErrInvalidTransition = errors.New("invalid verification status transition")
)
