package seed

import "errors"

// Sentinel errors.
var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrVerification     = errors.New("verification failed")
	ErrInvalidConfig    = errors.New("invalid seed config")
)
