// Package profile combines the four instrument scores of a student into
// a single UnifiedProfile.
package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/scoring"
)

// Status marks whether an instrument could be scored.
type Status string

// Dimension states.
const (
	StatusComplete   Status = "complete"
	StatusIncomplete Status = "incomplete"
)

// Dimension is one instrument's outcome inside a profile.
type Dimension struct {
	Instrument model.Instrument `json:"instrument"`
	Status     Status           `json:"status"`
	// Result is only meaningful when Status is complete.
	Result scoring.Result `json:"result"`
	// Reason carries the validation message for incomplete dimensions.
	Reason string `json:"reason,omitempty"`
}

// Complete reports whether the dimension was scored.
func (d Dimension) Complete() bool { return d.Status == StatusComplete }

// UnifiedProfile is the recomputed synthesis of one student's responses.
type UnifiedProfile struct {
	StudentID   string    `json:"student_id"`
	VARK        Dimension `json:"vark"`
	DISC        Dimension `json:"disc"`
	Jungian     Dimension `json:"jungian"`
	Schwartz    Dimension `json:"schwartz"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Dimension returns the dimension for inst.
func (p UnifiedProfile) Dimension(inst model.Instrument) Dimension {
	switch inst {
	case model.VARK:
		return p.VARK
	case model.DISC:
		return p.DISC
	case model.Jungian:
		return p.Jungian
	case model.Schwartz:
		return p.Schwartz
	}
	return Dimension{Instrument: inst, Status: StatusIncomplete, Reason: "unknown instrument"}
}

// Dimensions returns the four dimensions in canonical order.
func (p UnifiedProfile) Dimensions() []Dimension {
	return []Dimension{p.VARK, p.DISC, p.Jungian, p.Schwartz}
}

// Complete reports whether every instrument was scored.
func (p UnifiedProfile) Complete() bool {
	for _, d := range p.Dimensions() {
		if !d.Complete() {
			return false
		}
	}
	return true
}

// Incomplete lists the instruments that could not be scored.
func (p UnifiedProfile) Incomplete() []model.Instrument {
	var out []model.Instrument
	for _, d := range p.Dimensions() {
		if !d.Complete() {
			out = append(out, d.Instrument)
		}
	}
	return out
}

// Responses holds at most one raw response per instrument.
type Responses map[model.Instrument]model.RawResponse

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithClock sets the time source used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithScorer sets the instrument scorer.
func WithScorer(s scoring.Scorer) Option {
	return func(a *Aggregator) {
		if s != nil {
			a.scorer = s
		}
	}
}

// Aggregator builds UnifiedProfiles. It holds no mutable state and is safe
// for concurrent use.
type Aggregator struct {
	scorer scoring.Scorer
	now    func() time.Time
}

// NewAggregator creates an aggregator over the built-in scoring tables.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		scorer: scoring.NewTableScorer(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Now returns the time the aggregator stamps on profiles.
func (a *Aggregator) Now() time.Time { return a.now() }

// Aggregate scores each instrument independently. Validation failures mark
// that instrument incomplete; unknown categories abort with an error.
func (a *Aggregator) Aggregate(studentID string, rs Responses) (UnifiedProfile, error) {
	p := UnifiedProfile{StudentID: studentID}
	for _, inst := range model.Instruments {
		d, err := a.dimension(inst, rs)
		if err != nil {
			return UnifiedProfile{}, fmt.Errorf("aggregate %s: %w", studentID, err)
		}
		switch inst {
		case model.VARK:
			p.VARK = d
		case model.DISC:
			p.DISC = d
		case model.Jungian:
			p.Jungian = d
		case model.Schwartz:
			p.Schwartz = d
		}
	}
	p.GeneratedAt = a.now()
	return p, nil
}

func (a *Aggregator) dimension(inst model.Instrument, rs Responses) (Dimension, error) {
	raw, ok := rs[inst]
	if !ok {
		return Dimension{Instrument: inst, Status: StatusIncomplete, Reason: ErrNoResponse.Error()}, nil
	}
	res, err := a.scorer.Score(inst, raw)
	if err != nil {
		if errors.Is(err, scoring.ErrValidation) {
			return Dimension{Instrument: inst, Status: StatusIncomplete, Reason: err.Error()}, nil
		}
		return Dimension{}, err
	}
	return Dimension{Instrument: inst, Status: StatusComplete, Result: res}, nil
}
