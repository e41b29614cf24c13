package export

import (
	"fmt"
	"strings"

	"github.com/okian/perfil/internal/domain/classroom"
	"github.com/okian/perfil/internal/domain/model"
)

// EmptyClassSummary is the summary of a class without profiles.
const EmptyClassSummary = "No student profiles are available for this class."

var summaryLabels = []struct {
	inst  model.Instrument
	label string
}{
	{model.VARK, "Learning style"},
	{model.DISC, "Behavioral style"},
	{model.Jungian, "Cognitive type"},
	{model.Schwartz, "Primary value"},
}

// ClassSummary renders a compact English description of agg. The output is
// byte-stable for equal aggregates.
func ClassSummary(agg classroom.ClassAggregate) string {
	if agg.Size == 0 {
		return EmptyClassSummary
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Class of %d %s.", agg.Size, plural(agg.Size, "student", "students"))

	for _, s := range summaryLabels {
		h := agg.Histogram(s.inst)
		total := h.Total()
		fmt.Fprintf(&b, " %s: ", s.label)
		if top, ok := h.Top(); ok {
			fmt.Fprintf(&b, "mostly %s (%d of %d)", strings.Join(tied(h, top.Count), " and "), top.Count, total)
		} else {
			b.WriteString("no complete responses")
		}
		if n := agg.Incomplete[s.inst]; n > 0 {
			fmt.Fprintf(&b, ", %d incomplete", n)
		}
		b.WriteString(".")
	}

	if ranked := agg.ValueMentions.Ranked(); len(ranked) > 0 {
		if len(ranked) > 3 {
			ranked = ranked[:3]
		}
		parts := make([]string, len(ranked))
		for i, bk := range ranked {
			parts[i] = fmt.Sprintf("%s (%d)", bk.Category, bk.Count)
		}
		fmt.Fprintf(&b, " Top values: %s.", strings.Join(parts, ", "))
	}
	if len(agg.Teams) > 0 {
		fmt.Fprintf(&b, " Suggested pairs: %d, %d unpaired.", len(agg.Teams), len(agg.Unassigned))
	}
	return b.String()
}

func tied(h classroom.Histogram, count int) []string {
	var out []string
	for _, bk := range h {
		if bk.Count == count {
			out = append(out, bk.Category)
		}
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
