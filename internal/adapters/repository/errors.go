package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadySubmitted  = errors.New("response already submitted")
	ErrUnsupportedDriver = errors.New("unsupported store driver")
	ErrInvalidRecord     = errors.New("invalid record")
)
