// Package classroom folds many profiles into class-level histograms and
// team suggestions.
package classroom

import (
	"github.com/okian/perfil/internal/domain/insight"
	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/profile"
	"github.com/okian/perfil/internal/domain/scoring"
)

// Bucket is one histogram entry.
type Bucket struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Histogram is an ordered list of buckets. Bucket order is the category
// priority order of the instrument and never depends on the counts.
type Histogram []Bucket

// Count returns the count of cat, or zero.
func (h Histogram) Count(cat string) int {
	for _, b := range h {
		if b.Category == cat {
			return b.Count
		}
	}
	return 0
}

// Total sums all buckets.
func (h Histogram) Total() int {
	n := 0
	for _, b := range h {
		n += b.Count
	}
	return n
}

// Top returns the bucket with the highest count, the earliest on ties. It
// returns false when the histogram is empty or all zero.
func (h Histogram) Top() (Bucket, bool) {
	var top Bucket
	for _, b := range h {
		if b.Count > top.Count {
			top = b
		}
	}
	return top, top.Count > 0
}

// Ranked returns the non-zero buckets sorted by count, descending, keeping
// bucket order on ties.
func (h Histogram) Ranked() Histogram {
	out := make(Histogram, 0, len(h))
	for _, b := range h {
		if b.Count == 0 {
			continue
		}
		i := len(out)
		for i > 0 && out[i-1].Count < b.Count {
			i--
		}
		out = append(out, Bucket{})
		copy(out[i+1:], out[i:])
		out[i] = b
	}
	return out
}

func (h Histogram) add(cat string) {
	for i := range h {
		if h[i].Category == cat {
			h[i].Count++
			return
		}
	}
}

func newHistogram[T ~string](cats []T) Histogram {
	h := make(Histogram, len(cats))
	for i, c := range cats {
		h[i] = Bucket{Category: string(c)}
	}
	return h
}

// Team is a suggested group of students with complementary traits.
type Team struct {
	Pairing string   `json:"pairing"`
	Label   string   `json:"label"`
	Members []string `json:"members"`
}

// ClassAggregate summarizes the profiles of one class. It is derived data
// and never persisted.
type ClassAggregate struct {
	Size          int                      `json:"size"`
	VARK          Histogram                `json:"vark"`
	DISC          Histogram                `json:"disc"`
	Jungian       Histogram                `json:"jungian"`
	Schwartz      Histogram                `json:"schwartz"`
	ValueMentions Histogram                `json:"value_mentions"`
	Incomplete    map[model.Instrument]int `json:"incomplete"`
	Teams         []Team                   `json:"teams"`
	Unassigned    []string                 `json:"unassigned"`
}

// Histogram returns the histogram of inst.
func (a ClassAggregate) Histogram(inst model.Instrument) Histogram {
	switch inst {
	case model.VARK:
		return a.VARK
	case model.DISC:
		return a.DISC
	case model.Jungian:
		return a.Jungian
	case model.Schwartz:
		return a.Schwartz
	}
	return nil
}

// Option applies a configuration option to an aggregation pass.
type Option func(*options)

type options struct {
	pairings []Pairing
}

// WithPairings replaces the compatibility table used for team formation.
func WithPairings(p []Pairing) Option {
	return func(o *options) {
		if p != nil {
			o.pairings = p
		}
	}
}

// Aggregate builds the class aggregate of profiles. Profiles are processed
// in input order; an empty input gives all-zero histograms and no teams.
func Aggregate(profiles []profile.UnifiedProfile, opts ...Option) ClassAggregate {
	o := options{pairings: pairings}
	for _, opt := range opts {
		opt(&o)
	}

	agg := ClassAggregate{
		Size:          len(profiles),
		VARK:          newHistogram(categories(model.VARK)),
		DISC:          newHistogram(categories(model.DISC)),
		Jungian:       newHistogram(JungianTypes()),
		Schwartz:      newHistogram(categories(model.Schwartz)),
		ValueMentions: newHistogram(categories(model.Schwartz)),
		Incomplete:    make(map[model.Instrument]int, len(model.Instruments)),
		Teams:         []Team{},
		Unassigned:    []string{},
	}
	for _, inst := range model.Instruments {
		agg.Incomplete[inst] = 0
	}

	for _, p := range profiles {
		for _, d := range p.Dimensions() {
			if !d.Complete() {
				agg.Incomplete[d.Instrument]++
				continue
			}
			switch d.Instrument {
			case model.Jungian:
				agg.Jungian.add(d.Result.Label())
			case model.Schwartz:
				agg.Schwartz.add(string(d.Result.Primary()))
				for _, v := range d.Result.Dominant {
					agg.ValueMentions.add(string(v))
				}
			default:
				agg.Histogram(d.Instrument).add(string(d.Result.Primary()))
			}
		}
	}

	agg.Teams, agg.Unassigned = formTeams(profiles, o.pairings)
	return agg
}

func categories(inst model.Instrument) []scoring.Category {
	t, ok := scoring.TableFor(inst)
	if !ok {
		return nil
	}
	return t.Categories
}

// JungianTypes lists the sixteen type codes in axis priority order,
// starting with ESTJ.
func JungianTypes() []string {
	t, ok := scoring.TableFor(model.Jungian)
	if !ok {
		return nil
	}
	codes := []string{""}
	for _, axis := range t.Axes {
		next := make([]string, 0, len(codes)*2)
		for _, c := range codes {
			next = append(next, c+string(axis[0]), c+string(axis[1]))
		}
		codes = next
	}
	return codes
}

// traits returns the pairing traits of p, keyed by dimension.
func traits(p profile.UnifiedProfile) map[Dimension]string {
	out := make(map[Dimension]string, 3)
	if p.VARK.Complete() {
		out[ByVARK] = string(p.VARK.Result.Primary())
	}
	if p.DISC.Complete() {
		out[ByDISC] = string(p.DISC.Result.Primary())
	}
	if p.Jungian.Complete() {
		out[ByTemperament] = string(insight.TemperamentOf(p.Jungian.Result.Dominant))
	}
	return out
}
