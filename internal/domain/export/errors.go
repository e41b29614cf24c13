package export

import "errors"

// ErrUnknownColumn is returned for a column that is neither built in nor a
// declared custom field.
var ErrUnknownColumn = errors.New("unknown export column")
