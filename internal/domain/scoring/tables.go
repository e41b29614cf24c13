package scoring

import (
	"fmt"

	"github.com/okian/perfil/internal/domain/model"
)

// VARK categories in tie-break priority order.
const (
	Visual         Category = "Visual"
	Auditivo       Category = "Auditivo"
	LeituraEscrita Category = "LeituraEscrita"
	Cinestesico    Category = "Cinestesico"
)

// DISC categories in tie-break priority order.
const (
	Dominance  Category = "Dominance"
	Influence  Category = "Influence"
	Steadiness Category = "Steadiness"
	Compliance Category = "Compliance"
)

// Jungian poles. Each axis lists its tie winner first.
const (
	Extraversion Category = "E"
	Introversion Category = "I"
	Sensing      Category = "S"
	Intuition    Category = "N"
	Thinking     Category = "T"
	Feeling      Category = "F"
	Judging      Category = "J"
	Perceiving   Category = "P"
)

// Schwartz basic values in tie-break priority order.
const (
	SelfDirection Category = "SelfDirection"
	Stimulation   Category = "Stimulation"
	Hedonism      Category = "Hedonism"
	Achievement   Category = "Achievement"
	Power         Category = "Power"
	Security      Category = "Security"
	Conformity    Category = "Conformity"
	Tradition     Category = "Tradition"
	Benevolence   Category = "Benevolence"
	Universalism  Category = "Universalism"
)

// Question is one scored item. Choice items map option keys to weights;
// Likert items add the numeric rating to a single category.
type Question struct {
	ID      string
	Options map[string]Weights
	Likert  Category
}

// Table is the compiled-in scoring definition of one instrument.
type Table struct {
	Instrument model.Instrument
	// Categories is the fixed category set in tie-break priority order.
	Categories []Category
	Questions  []Question
	// Axes, when set, makes dominance per-axis (Jungian).
	Axes [][2]Category
	// Top is the number of dominant categories for ranked instruments.
	Top int
	// LikertMin and LikertMax bound Likert ratings.
	LikertMin float64
	LikertMax float64
}

// Validate checks that every weight in the table targets a category of
// the instrument's set.
func (t *Table) Validate() error {
	for _, q := range t.Questions {
		if q.Likert != "" && !t.has(q.Likert) {
			return &UnknownCategoryError{Instrument: t.Instrument, Question: q.ID, Value: string(q.Likert)}
		}
		for key, w := range q.Options {
			for c := range w {
				if !t.has(c) {
					return &UnknownCategoryError{Instrument: t.Instrument, Question: q.ID + "/" + key, Value: string(c)}
				}
			}
		}
	}
	for _, ax := range t.Axes {
		if !t.has(ax[0]) || !t.has(ax[1]) {
			return &UnknownCategoryError{Instrument: t.Instrument, Value: string(ax[0]) + string(ax[1])}
		}
	}
	return nil
}

// RequiredQuestions returns the ids every response must answer.
func (t *Table) RequiredQuestions() []string {
	ids := make([]string, len(t.Questions))
	for i, q := range t.Questions {
		ids[i] = q.ID
	}
	return ids
}

func (t *Table) has(c Category) bool {
	for _, x := range t.Categories {
		if x == c {
			return true
		}
	}
	return false
}

// zero returns a weight vector holding exactly the category set.
func (t *Table) zero() Weights {
	w := make(Weights, len(t.Categories))
	for _, c := range t.Categories {
		w[c] = 0
	}
	return w
}

func (t *Table) dominant(w Weights) []Category {
	if len(t.Axes) > 0 {
		out := make([]Category, len(t.Axes))
		for i, ax := range t.Axes {
			out[i] = ax[0]
			if w[ax[1]] > w[ax[0]] {
				out[i] = ax[1]
			}
		}
		return out
	}
	n := t.Top
	if n < 1 {
		n = 1
	}
	return Rank(t.Categories, w)[:n]
}

func one(c Category) Weights { return Weights{c: 1} }

func split(a, b Category) Weights { return Weights{a: 0.5, b: 0.5} }

// choice builds a four-option item answered with a..d.
func choice(id string, a, b, c, d Category) Question {
	return Question{ID: id, Options: map[string]Weights{
		"a": one(a), "b": one(b), "c": one(c), "d": one(d),
	}}
}

// with adds an extra option to a choice item.
func (q Question) with(key string, w Weights) Question {
	q.Options[key] = w
	return q
}

// pair builds a forced-choice item between two poles.
func pair(id string, a, b Category) Question {
	return Question{ID: id, Options: map[string]Weights{"a": one(a), "b": one(b)}}
}

func likert(id string, c Category) Question { return Question{ID: id, Likert: c} }

var varkTable = &Table{
	Instrument: model.VARK,
	Categories: []Category{Visual, Auditivo, LeituraEscrita, Cinestesico},
	Top:        1,
	Questions: []Question{
		// directions to a place
		choice("vark_q1", Visual, Auditivo, LeituraEscrita, Cinestesico),
		// learning a new board game
		choice("vark_q2", Auditivo, Visual, Cinestesico, LeituraEscrita),
		// assembling furniture
		choice("vark_q3", LeituraEscrita, Cinestesico, Visual, Auditivo).with("e", split(Visual, Cinestesico)),
		// choosing a trip
		choice("vark_q4", Cinestesico, LeituraEscrita, Auditivo, Visual),
		// studying for a test
		choice("vark_q5", Visual, LeituraEscrita, Cinestesico, Auditivo),
		// feedback preference
		choice("vark_q6", Auditivo, Cinestesico, Visual, LeituraEscrita).with("e", split(Auditivo, LeituraEscrita)),
		// new software
		choice("vark_q7", LeituraEscrita, Visual, Auditivo, Cinestesico),
		// cooking a new dish
		choice("vark_q8", Cinestesico, Auditivo, LeituraEscrita, Visual),
		// explaining a process
		choice("vark_q9", Visual, Cinestesico, Auditivo, LeituraEscrita),
		// remembering a phone number
		choice("vark_q10", Auditivo, LeituraEscrita, Cinestesico, Visual),
		// reading a website
		choice("vark_q11", LeituraEscrita, Auditivo, Visual, Cinestesico).with("e", split(Visual, LeituraEscrita)),
		// picking a course
		choice("vark_q12", Cinestesico, Visual, LeituraEscrita, Auditivo),
	},
}

var discTable = &Table{
	Instrument: model.DISC,
	Categories: []Category{Dominance, Influence, Steadiness, Compliance},
	Top:        1,
	Questions: []Question{
		choice("disc_q1", Dominance, Influence, Steadiness, Compliance),
		choice("disc_q2", Influence, Steadiness, Compliance, Dominance),
		choice("disc_q3", Steadiness, Compliance, Dominance, Influence),
		choice("disc_q4", Compliance, Dominance, Influence, Steadiness),
		choice("disc_q5", Dominance, Steadiness, Influence, Compliance),
		choice("disc_q6", Influence, Compliance, Dominance, Steadiness),
		choice("disc_q7", Steadiness, Dominance, Compliance, Influence),
		choice("disc_q8", Compliance, Influence, Steadiness, Dominance),
		choice("disc_q9", Dominance, Compliance, Influence, Steadiness),
		choice("disc_q10", Influence, Dominance, Steadiness, Compliance),
	},
}

var jungianTable = &Table{
	Instrument: model.Jungian,
	Categories: []Category{Extraversion, Introversion, Sensing, Intuition, Thinking, Feeling, Judging, Perceiving},
	Axes: [][2]Category{
		{Extraversion, Introversion},
		{Sensing, Intuition},
		{Thinking, Feeling},
		{Judging, Perceiving},
	},
	Questions: []Question{
		pair("jung_q1", Extraversion, Introversion),
		pair("jung_q2", Sensing, Intuition),
		pair("jung_q3", Thinking, Feeling),
		pair("jung_q4", Judging, Perceiving),
		pair("jung_q5", Introversion, Extraversion),
		pair("jung_q6", Intuition, Sensing),
		pair("jung_q7", Feeling, Thinking),
		pair("jung_q8", Perceiving, Judging),
		pair("jung_q9", Extraversion, Introversion),
		pair("jung_q10", Sensing, Intuition),
		pair("jung_q11", Thinking, Feeling),
		pair("jung_q12", Judging, Perceiving),
	},
}

var schwartzValues = []Category{
	SelfDirection, Stimulation, Hedonism, Achievement, Power,
	Security, Conformity, Tradition, Benevolence, Universalism,
}

var schwartzTable = func() *Table {
	t := &Table{
		Instrument: model.Schwartz,
		Categories: schwartzValues,
		Top:        2,
		LikertMin:  1,
		LikertMax:  6,
	}
	// Two items per value; the second block repeats the value order.
	for i := 0; i < 2*len(schwartzValues); i++ {
		t.Questions = append(t.Questions, likert(fmt.Sprintf("sch_q%d", i+1), schwartzValues[i%len(schwartzValues)]))
	}
	return t
}()

var builtin = mustValidate(varkTable, discTable, jungianTable, schwartzTable)

func mustValidate(tables ...*Table) map[model.Instrument]*Table {
	out := make(map[model.Instrument]*Table, len(tables))
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			panic(err)
		}
		out[t.Instrument] = t
	}
	return out
}
