// Package scoring turns a raw questionnaire response into a weighted
// category vector and its dominant classification.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/perfil/internal/domain/model"
)

// Category is one class of an instrument's fixed category set.
type Category string

// Weights maps categories to accumulated weight.
type Weights map[Category]float64

// Result is the scored form of one instrument response.
type Result struct {
	Instrument model.Instrument `json:"instrument"`
	Scores     Weights          `json:"scores"`
	// Dominant holds a single category for VARK and DISC, the four winning
	// poles for Jungian and the top two values for Schwartz.
	Dominant []Category `json:"dominant"`
}

// Primary returns the first dominant category, or "" when none.
func (r Result) Primary() Category {
	if len(r.Dominant) == 0 {
		return ""
	}
	return r.Dominant[0]
}

// Label renders the dominant classification as display text. Jungian
// poles are concatenated into a type code, the others are joined.
func (r Result) Label() string {
	parts := make([]string, len(r.Dominant))
	for i, c := range r.Dominant {
		parts[i] = string(c)
	}
	if r.Instrument == model.Jungian {
		return strings.Join(parts, "")
	}
	return strings.Join(parts, "+")
}

// Scaled returns min-max scaled weights in [0,1]. It exists for chart
// rendering only and never feeds dominance.
func (r Result) Scaled() Weights {
	out := make(Weights, len(r.Scores))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range r.Scores {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for c, v := range r.Scores {
		if hi == lo {
			out[c] = 0
			continue
		}
		out[c] = (v - lo) / (hi - lo)
	}
	return out
}

// Scorer scores one instrument response.
type Scorer interface {
	Score(inst model.Instrument, raw model.RawResponse) (Result, error)
}

// Option applies a configuration option to the TableScorer.
type Option func(*TableScorer)

// WithTable replaces the table used for one instrument.
func WithTable(t *Table) Option {
	return func(s *TableScorer) {
		if t != nil {
			s.tables[t.Instrument] = t
		}
	}
}

// TableScorer implements Scorer over compiled-in scoring tables.
type TableScorer struct {
	tables map[model.Instrument]*Table
}

// NewTableScorer creates a scorer backed by the built-in tables.
func NewTableScorer(opts ...Option) *TableScorer {
	s := &TableScorer{tables: make(map[model.Instrument]*Table, len(builtin))}
	for inst, t := range builtin {
		s.tables[inst] = t
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultScorer = NewTableScorer()

// Score scores raw with the built-in tables.
func Score(inst model.Instrument, raw model.RawResponse) (Result, error) {
	return defaultScorer.Score(inst, raw)
}

// TableFor returns the built-in table for inst.
func TableFor(inst model.Instrument) (*Table, bool) {
	t, ok := builtin[inst]
	return t, ok
}

// Score computes the weight vector and dominant categories for raw.
// Every required question must be answered; answers to unknown question
// ids are ignored.
func (s *TableScorer) Score(inst model.Instrument, raw model.RawResponse) (Result, error) {
	t, ok := s.tables[inst]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, inst)
	}
	if raw.Instrument != "" && raw.Instrument != inst {
		return Result{}, fmt.Errorf("%w: response for %s scored as %s", ErrInstrumentMismatch, raw.Instrument, inst)
	}

	w := t.zero()
	var missing, invalid []string
	for _, q := range t.Questions {
		ans, ok := raw.Answers[q.ID]
		if !ok || strings.TrimSpace(string(ans)) == "" {
			missing = append(missing, q.ID)
			continue
		}
		contrib, err := t.resolve(q, ans)
		if err != nil {
			if errors.Is(err, ErrUnknownCategory) {
				return Result{}, err
			}
			invalid = append(invalid, q.ID)
			continue
		}
		for c, v := range contrib {
			w[c] += v
		}
	}
	if len(missing) > 0 || len(invalid) > 0 {
		return Result{}, &ValidationError{Instrument: inst, Missing: missing, Invalid: invalid}
	}

	return Result{Instrument: inst, Scores: w, Dominant: t.dominant(w)}, nil
}

// Dominant derives the dominant categories of inst from a weight vector
// using the instrument's priority order for ties.
func Dominant(inst model.Instrument, w Weights) ([]Category, error) {
	t, ok := builtin[inst]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstrument, inst)
	}
	for c := range w {
		if !t.has(c) {
			return nil, &UnknownCategoryError{Instrument: inst, Value: string(c)}
		}
	}
	return t.dominant(w), nil
}

// Rank orders categories by weight descending, breaking ties with the
// priority order of cats.
func Rank(cats []Category, w Weights) []Category {
	out := make([]Category, len(cats))
	copy(out, cats)
	sort.SliceStable(out, func(i, j int) bool {
		return w[out[i]] > w[out[j]]
	})
	return out
}

// resolve maps one answer to its weight contribution.
func (t *Table) resolve(q Question, ans model.Answer) (Weights, error) {
	val := strings.TrimSpace(string(ans))
	if q.Likert != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || math.IsNaN(f) || f < t.LikertMin || f > t.LikertMax {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidAnswer, q.ID, val)
		}
		return Weights{q.Likert: f}, nil
	}
	if w, ok := q.Options[strings.ToLower(val)]; ok {
		return w, nil
	}
	for _, c := range t.Categories {
		if strings.EqualFold(string(c), val) {
			return Weights{c: 1}, nil
		}
	}
	return nil, &UnknownCategoryError{Instrument: t.Instrument, Question: q.ID, Value: val}
}
