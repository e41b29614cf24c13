package profile

import "errors"

// Sentinel kinds for profile errors.
var (
	ErrNoResponse = errors.New("no response submitted")
)
