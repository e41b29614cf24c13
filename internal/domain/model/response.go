// Package model contains domain records passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Instrument identifies one of the psychometric questionnaires.
type Instrument string

// Supported instruments.
const (
	VARK     Instrument = "vark"
	DISC     Instrument = "disc"
	Jungian  Instrument = "jungian"
	Schwartz Instrument = "schwartz"
)

// Instruments lists every instrument in canonical order.
var Instruments = []Instrument{VARK, DISC, Jungian, Schwartz}

// Valid reports whether i is a known instrument.
func (i Instrument) Valid() bool {
	switch i {
	case VARK, DISC, Jungian, Schwartz:
		return true
	}
	return false
}

// Answer is a selected option. Survey clients send either option keys
// ("a", "Visual") or Likert ratings (4); both are kept in string form.
type Answer string

// UnmarshalJSON accepts a JSON string or number.
func (a *Answer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Answer(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("answer must be a string or number: %w", err)
	}
	*a = Answer(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// RawResponse is one student's submitted answers for one instrument.
// It is immutable once stored.
type RawResponse struct {
	StudentID   string            `json:"student_id"`
	Instrument  Instrument        `json:"instrument"`
	Answers     map[string]Answer `json:"answers"`
	SubmittedAt time.Time         `json:"submitted_at"`
}
