// Package insight turns a UnifiedProfile into narrative text blocks and
// actionable tips for teachers.
//
// Narratives come from a rule table. Each rule targets one slot and
// matches a combination of dominant traits; empty match fields are
// wildcards and fields of incomplete instruments never match. For every
// slot the most specific matching rule wins (three traits, then two, then
// a single-instrument generic template), ties going to declaration order.
// When nothing matches, the slot's insufficient-data fragment is used, so
// every profile yields text for all four slots. When a fallback template
// renders a slot whose own instrument is incomplete, a per-dimension
// insufficient-data sentence is appended and the trace id gets a
// "+missing.<instrument>" suffix.
package insight

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/profile"
	"github.com/okian/perfil/internal/domain/scoring"
)

// Tip count bounds.
const (
	minTips = 2
	maxTips = 5
)

// Slot names a narrative block.
type Slot string

// Narrative slots.
const (
	SlotMind        Slot = "mind"
	SlotSuperpowers Slot = "superpowers"
	SlotMotivation  Slot = "motivation"
	SlotManual      Slot = "manual"
)

// Slots lists the narrative slots in display order.
var Slots = []Slot{SlotMind, SlotSuperpowers, SlotMotivation, SlotManual}

// InsightSet is the narrative rendering of one profile.
type InsightSet struct {
	Mind        string   `json:"mind"`
	Superpowers string   `json:"superpowers"`
	Motivation  string   `json:"motivation"`
	Manual      string   `json:"manual"`
	Tips        []string `json:"tips"`
	Trace       Trace    `json:"trace"`
}

// Trace records which template produced each slot.
type Trace struct {
	Mind        string   `json:"mind"`
	Superpowers string   `json:"superpowers"`
	Motivation  string   `json:"motivation"`
	Manual      string   `json:"manual"`
	Tips        []string `json:"tips"`
}

// Temperament groups Jungian types for narrative keys.
type Temperament string

// Temperaments.
const (
	Rational Temperament = "NT"
	Idealist Temperament = "NF"
	Guardian Temperament = "SJ"
	Artisan  Temperament = "SP"
)

// TemperamentOf derives the temperament of a four-pole Jungian dominant.
func TemperamentOf(poles []scoring.Category) Temperament {
	if len(poles) != 4 {
		return ""
	}
	if poles[1] == scoring.Intuition {
		return Temperament("N" + string(poles[2]))
	}
	return Temperament("S" + string(poles[3]))
}

// Key is the instrument combination key of a profile. Fields of incomplete
// instruments are empty.
type Key struct {
	VARK        scoring.Category
	DISC        scoring.Category
	Type        string
	Temperament Temperament
	Value       scoring.Category
	Second      scoring.Category
}

// KeyOf extracts the combination key of p.
func KeyOf(p profile.UnifiedProfile) Key {
	var k Key
	if p.VARK.Complete() {
		k.VARK = p.VARK.Result.Primary()
	}
	if p.DISC.Complete() {
		k.DISC = p.DISC.Result.Primary()
	}
	if p.Jungian.Complete() {
		k.Type = p.Jungian.Result.Label()
		k.Temperament = TemperamentOf(p.Jungian.Result.Dominant)
	}
	if p.Schwartz.Complete() && len(p.Schwartz.Result.Dominant) == 2 {
		k.Value = p.Schwartz.Result.Dominant[0]
		k.Second = p.Schwartz.Result.Dominant[1]
	}
	return k
}

func (k Key) has(inst model.Instrument) bool {
	switch inst {
	case model.VARK:
		return k.VARK != ""
	case model.DISC:
		return k.DISC != ""
	case model.Jungian:
		return k.Type != ""
	case model.Schwartz:
		return k.Value != ""
	}
	return false
}

// Option applies a configuration option to the Narrator.
type Option func(*Narrator)

// WithRules replaces the narrative rule table.
func WithRules(rules []Rule) Option {
	return func(n *Narrator) {
		if len(rules) > 0 {
			n.rules = rules
		}
	}
}

// Narrator renders InsightSets. It never caches output.
type Narrator struct {
	rules []Rule
}

// NewNarrator creates a narrator over the built-in rule table.
func NewNarrator(opts ...Option) *Narrator {
	n := &Narrator{rules: rules}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Narrate renders p for the given student metadata.
func (n *Narrator) Narrate(p profile.UnifiedProfile, meta model.StudentMeta) InsightSet {
	k := KeyOf(p)
	r := replacer(meta, k)

	pick := func(slot Slot) (string, string) {
		rule := n.Resolve(slot, k)
		text, id := sentence(r.Replace(rule.Template)), rule.ID
		if rule.ID == insufficient[slot].ID {
			return text, id
		}
		for _, inst := range slotInstruments[slot] {
			if k.has(inst) {
				continue
			}
			text += " " + sentence(r.Replace(missingDimension[inst]))
			id += "+missing." + string(inst)
		}
		return text, id
	}

	var set InsightSet
	set.Mind, set.Trace.Mind = pick(SlotMind)
	set.Superpowers, set.Trace.Superpowers = pick(SlotSuperpowers)
	set.Motivation, set.Trace.Motivation = pick(SlotMotivation)
	set.Manual, set.Trace.Manual = pick(SlotManual)

	for _, t := range assembleTips(k, len(p.Incomplete()) > 0) {
		set.Tips = append(set.Tips, sentence(r.Replace(t.Text)))
		set.Trace.Tips = append(set.Trace.Tips, t.Key)
	}
	return set
}

// Resolve returns the rule that renders slot for k.
func (n *Narrator) Resolve(slot Slot, k Key) Rule {
	best, bestSpec := -1, 0
	for i, rule := range n.rules {
		if rule.Slot != slot || !rule.Match.matches(k) {
			continue
		}
		if s := rule.Match.specificity(); best < 0 || s > bestSpec {
			best, bestSpec = i, s
		}
	}
	if best < 0 {
		return insufficient[slot]
	}
	return n.rules[best]
}

var defaultNarrator = NewNarrator()

// Narrate renders p with the built-in rule table.
func Narrate(p profile.UnifiedProfile, meta model.StudentMeta) InsightSet {
	return defaultNarrator.Narrate(p, meta)
}

func replacer(meta model.StudentMeta, k Key) *strings.Replacer {
	name := strings.TrimSpace(meta.Name)
	if name == "" {
		name = "the student"
	}
	typ := k.Type
	if typ == "" {
		typ = "unknown type"
	}
	return strings.NewReplacer(
		"{name}", name,
		"{ageBand}", meta.AgeBand.Phrase(),
		"{type}", typ,
	)
}

// sentence upper-cases the first letter of s.
func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func assembleTips(k Key, incomplete bool) []Tip {
	var candidates []Tip
	add := func(t Tip, ok bool) {
		if ok {
			candidates = append(candidates, t)
		}
	}
	if k.VARK != "" {
		t, ok := varkTips[k.VARK]
		add(t, ok)
	}
	if k.DISC != "" {
		t, ok := discTips[k.DISC]
		add(t, ok)
	}
	if k.Temperament != "" {
		t, ok := temperamentTips[k.Temperament]
		add(t, ok)
	}
	for _, v := range []scoring.Category{k.Value, k.Second} {
		if v != "" {
			t, ok := valueTips[v]
			add(t, ok)
		}
	}
	if incomplete {
		candidates = append(candidates, completeSurveyTip)
	}

	seen := make(map[string]bool, maxTips)
	out := make([]Tip, 0, maxTips)
	push := func(t Tip) {
		if len(out) < maxTips && !seen[t.Key] {
			seen[t.Key] = true
			out = append(out, t)
		}
	}
	for _, t := range candidates {
		push(t)
	}
	for _, t := range generalTips {
		if len(out) >= minTips {
			break
		}
		push(t)
	}
	return out
}
