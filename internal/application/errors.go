package application

import "errors"

// Error kinds returned by the quote and settlement services. Callers match
// them with errors.Is; the wrapped message carries request-level detail.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNegativeAmount = errors.New("negative amount")
	ErrUpstream       = errors.New("rate source unavailable")
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrQuoteExpired   = errors.New("quote expired")
	ErrLimitExceeded  = errors.New("daily limit exceeded")
	ErrAlreadySettled = errors.New("quote already settled")
	ErrConflict       = errors.New("conflict")
	ErrConfiguration  = errors.New("configuration error")
	ErrInternal       = errors.New("internal error")
)
