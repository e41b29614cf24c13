package scoring

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/perfil/internal/domain/model"
)

// ComposeChoice builds a complete answer set for a choice instrument in
// which category c is selected counts[c] times. Counts must add up to the
// number of questions.
func ComposeChoice(inst model.Instrument, counts map[Category]int) (map[string]model.Answer, error) {
	t, ok := builtin[inst]
	if !ok || len(t.Questions) == 0 || t.Questions[0].Likert != "" {
		return nil, fmt.Errorf("%w: %q is not a choice instrument", ErrUnknownInstrument, inst)
	}
	total := 0
	remaining := make(map[Category]int, len(counts))
	for c, n := range counts {
		if !t.has(c) {
			return nil, &UnknownCategoryError{Instrument: inst, Value: string(c)}
		}
		remaining[c] = n
		total += n
	}
	if total != len(t.Questions) {
		return nil, fmt.Errorf("%w: counts add up to %d, want %d", ErrInvalidAnswer, total, len(t.Questions))
	}

	answers := make(map[string]model.Answer, len(t.Questions))
	for _, q := range t.Questions {
		key, c := pickOption(t, q, remaining)
		if key == "" {
			return nil, fmt.Errorf("%w: no option left for %s", ErrInvalidAnswer, q.ID)
		}
		remaining[c]--
		answers[q.ID] = model.Answer(key)
	}
	return answers, nil
}

func pickOption(t *Table, q Question, remaining map[Category]int) (string, Category) {
	keys := make([]string, 0, len(q.Options))
	for k := range q.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, c := range t.Categories {
		if remaining[c] <= 0 {
			continue
		}
		for _, k := range keys {
			w := q.Options[k]
			if len(w) == 1 && w[c] == 1 {
				return k, c
			}
		}
	}
	return "", ""
}

// ComposeType builds Jungian answers that resolve to the given four-letter
// type code, e.g. "ENFP".
func ComposeType(code string) (map[string]model.Answer, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	t := jungianTable
	if len(code) != len(t.Axes) {
		return nil, &UnknownCategoryError{Instrument: model.Jungian, Value: code}
	}
	want := make(map[Category]bool, len(code))
	for i, r := range code {
		c := Category(string(r))
		if c != t.Axes[i][0] && c != t.Axes[i][1] {
			return nil, &UnknownCategoryError{Instrument: model.Jungian, Value: code}
		}
		want[c] = true
	}
	answers := make(map[string]model.Answer, len(t.Questions))
	for _, q := range t.Questions {
		for k, w := range q.Options {
			for c := range w {
				if want[c] {
					answers[q.ID] = model.Answer(k)
				}
			}
		}
	}
	return answers, nil
}

// ComposeRatings builds Schwartz answers giving every item of value v the
// rating ratings[v]; unlisted values receive base.
func ComposeRatings(ratings map[Category]float64, base float64) map[string]model.Answer {
	answers := make(map[string]model.Answer, len(schwartzTable.Questions))
	for _, q := range schwartzTable.Questions {
		r, ok := ratings[q.Likert]
		if !ok {
			r = base
		}
		answers[q.ID] = model.Answer(strconv.FormatFloat(r, 'f', -1, 64))
	}
	return answers
}
