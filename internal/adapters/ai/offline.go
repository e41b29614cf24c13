package ai

import (
	"context"
	"strings"
)

// cue maps a phrase of the class summary to an adaptation.
type cue struct {
	phrase string
	advice string
}

var cues = []cue{
	{"Learning style: mostly Visual", "Open with a diagram or concept map and keep it visible during the lesson."},
	{"Learning style: mostly Auditivo", "Plan a short discussion round and read key instructions aloud."},
	{"Learning style: mostly LeituraEscrita", "Hand out written instructions and ask for a one-paragraph summary at the end."},
	{"Learning style: mostly Cinestesico", "Add a hands-on activity or movement break before the main exercise."},
	{"Behavioral style: mostly Dominance", "Offer a challenge task with a clear goal and let students choose their approach."},
	{"Behavioral style: mostly Influence", "Use group work with a presentation moment so students can share ideas."},
	{"Behavioral style: mostly Steadiness", "Announce the lesson structure up front and avoid abrupt changes of activity."},
	{"Behavioral style: mostly Compliance", "State the assessment criteria explicitly and provide a worked example."},
	{"Primary value: mostly Achievement", "Make progress visible with small milestones."},
	{"Primary value: mostly Benevolence", "Build in peer support such as pair checks."},
	{"Primary value: mostly SelfDirection", "Leave room for choice in topic or format."},
	{"Primary value: mostly Security", "Keep routines predictable and recap what comes next."},
	{"Primary value: mostly Stimulation", "Introduce one novel element such as a puzzle or surprise question."},
	{"Primary value: mostly Universalism", "Connect the topic to a wider social or environmental question."},
}

const genericAdvice = "Alternate explanation, practice and feedback in short blocks."

// Offline is a deterministic TextService that needs no network access.
// It picks canned adaptations from the phrases of the class summary.
type Offline struct{}

// NewOffline creates the offline service.
func NewOffline() *Offline { return &Offline{} }

// Provider implements TextService.
func (o *Offline) Provider() string { return ProviderOffline }

// Suggest implements TextService.
func (o *Offline) Suggest(ctx context.Context, classSummary, plan string) (string, error) {
	if err := checkPlan(plan); err != nil {
		return "", err
	}
	return instrument(OpSuggest, ProviderOffline, func() (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		var b strings.Builder
		b.WriteString("Suggestions for this class (")
		b.WriteString(classSummary)
		b.WriteString("):")
		for _, a := range adviceFor(classSummary) {
			b.WriteString("\n- ")
			b.WriteString(a)
		}
		return b.String(), nil
	})
}

// Rewrite implements TextService. The plan is kept as is and followed by
// an adaptations section.
func (o *Offline) Rewrite(ctx context.Context, classSummary, plan string) (string, error) {
	if err := checkPlan(plan); err != nil {
		return "", err
	}
	return instrument(OpRewrite, ProviderOffline, func() (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		var b strings.Builder
		b.WriteString(strings.TrimSpace(plan))
		b.WriteString("\n\nAdaptations for this class:")
		for _, a := range adviceFor(classSummary) {
			b.WriteString("\n- ")
			b.WriteString(a)
		}
		return b.String(), nil
	})
}

func adviceFor(summary string) []string {
	var out []string
	for _, c := range cues {
		if strings.Contains(summary, c.phrase) {
			out = append(out, c.advice)
		}
	}
	return append(out, genericAdvice)
}
