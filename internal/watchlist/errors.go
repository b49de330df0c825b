package watchlist

import "errors"

// Error taxonomy for the engine. Everything here is recoverable at the API
// boundary; storage failures and sharecode.ErrExhausted are not and get
// logged as server faults.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrAlreadyExists    = errors.New("already exists")
	ErrQuotaExceeded    = errors.New("quota exceeded")
)
