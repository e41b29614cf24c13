// Package profiletest builds complete raw responses and profiles with
// chosen dominant traits.
package profiletest

import (
	"time"

	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/profile"
	"github.com/okian/perfil/internal/domain/scoring"
)

// Epoch is the fixed clock used by Build.
var Epoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// Traits selects the dominant outcome of each instrument.
type Traits struct {
	VARK        scoring.Category
	DISC        scoring.Category
	Type        string
	Values      [2]scoring.Category
	Skip        []model.Instrument
	SubmittedAt time.Time
}

// Default returns a fully specified trait set.
func Default() Traits {
	return Traits{
		VARK:   scoring.Visual,
		DISC:   scoring.Influence,
		Type:   "ENFP",
		Values: [2]scoring.Category{scoring.Benevolence, scoring.SelfDirection},
	}
}

// Responses composes raw responses for studentID that score to t.
func Responses(studentID string, t Traits) (profile.Responses, error) {
	skip := make(map[model.Instrument]bool, len(t.Skip))
	for _, inst := range t.Skip {
		skip[inst] = true
	}
	rs := profile.Responses{}

	if !skip[model.VARK] {
		a, err := scoring.ComposeChoice(model.VARK, spread(t.VARK, []scoring.Category{
			scoring.Visual, scoring.Auditivo, scoring.LeituraEscrita, scoring.Cinestesico,
		}, 6, 2))
		if err != nil {
			return nil, err
		}
		rs[model.VARK] = raw(studentID, model.VARK, a, t.SubmittedAt)
	}
	if !skip[model.DISC] {
		a, err := scoring.ComposeChoice(model.DISC, spread(t.DISC, []scoring.Category{
			scoring.Dominance, scoring.Influence, scoring.Steadiness, scoring.Compliance,
		}, 4, 2))
		if err != nil {
			return nil, err
		}
		rs[model.DISC] = raw(studentID, model.DISC, a, t.SubmittedAt)
	}
	if !skip[model.Jungian] {
		a, err := scoring.ComposeType(t.Type)
		if err != nil {
			return nil, err
		}
		rs[model.Jungian] = raw(studentID, model.Jungian, a, t.SubmittedAt)
	}
	if !skip[model.Schwartz] {
		a := scoring.ComposeRatings(map[scoring.Category]float64{t.Values[0]: 6, t.Values[1]: 5}, 2)
		rs[model.Schwartz] = raw(studentID, model.Schwartz, a, t.SubmittedAt)
	}
	return rs, nil
}

// Build aggregates a profile for t at Epoch. It panics on invalid traits.
func Build(studentID string, t Traits) profile.UnifiedProfile {
	rs, err := Responses(studentID, t)
	if err != nil {
		panic(err)
	}
	agg := profile.NewAggregator(profile.WithClock(func() time.Time { return Epoch }))
	p, err := agg.Aggregate(studentID, rs)
	if err != nil {
		panic(err)
	}
	return p
}

func spread(top scoring.Category, cats []scoring.Category, high, low int) map[scoring.Category]int {
	out := make(map[scoring.Category]int, len(cats))
	for _, c := range cats {
		out[c] = low
	}
	out[top] = high
	return out
}

func raw(studentID string, inst model.Instrument, a map[string]model.Answer, at time.Time) model.RawResponse {
	return model.RawResponse{StudentID: studentID, Instrument: inst, Answers: a, SubmittedAt: at}
}
