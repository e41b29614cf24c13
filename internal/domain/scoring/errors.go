package scoring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/perfil/internal/domain/model"
)

// Sentinel kinds for scoring errors. These allow errors.Is from callers.
var (
	ErrValidation         = errors.New("response validation failed")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrUnknownInstrument  = errors.New("unknown instrument")
	ErrInstrumentMismatch = errors.New("instrument mismatch")
	ErrInvalidAnswer      = errors.New("invalid answer")
)

// ValidationError reports required answers that are missing or unusable.
// Callers treat it as an incomplete instrument rather than a failure.
type ValidationError struct {
	Instrument model.Instrument
	Missing    []string
	Invalid    []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", ErrValidation, e.Instrument)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing %s", strings.Join(e.Missing, ","))
	}
	if len(e.Invalid) > 0 {
		fmt.Fprintf(&b, "; invalid %s", strings.Join(e.Invalid, ","))
	}
	return b.String()
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnknownCategoryError reports an answer or table entry outside the
// instrument's fixed category set. It is never absorbed.
type UnknownCategoryError struct {
	Instrument model.Instrument
	Question   string
	Value      string
}

func (e *UnknownCategoryError) Error() string {
	if e.Question == "" {
		return fmt.Sprintf("%s: %s %q", ErrUnknownCategory, e.Instrument, e.Value)
	}
	return fmt.Sprintf("%s: %s %s=%q", ErrUnknownCategory, e.Instrument, e.Question, e.Value)
}

// Is matches ErrUnknownCategory.
func (e *UnknownCategoryError) Is(target error) bool { return target == ErrUnknownCategory }
