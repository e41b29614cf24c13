package insight

import (
	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/scoring"
)

// Match selects the trait combination a rule applies to. Empty fields are
// wildcards.
type Match struct {
	VARK        scoring.Category
	DISC        scoring.Category
	Temperament Temperament
	Value       scoring.Category
	Second      scoring.Category
}

func (m Match) specificity() int {
	n := 0
	for _, set := range []bool{m.VARK != "", m.DISC != "", m.Temperament != "", m.Value != "", m.Second != ""} {
		if set {
			n++
		}
	}
	return n
}

func (m Match) matches(k Key) bool {
	if m.specificity() == 0 {
		return false
	}
	return (m.VARK == "" || m.VARK == k.VARK) &&
		(m.DISC == "" || m.DISC == k.DISC) &&
		(m.Temperament == "" || m.Temperament == k.Temperament) &&
		(m.Value == "" || m.Value == k.Value) &&
		(m.Second == "" || m.Second == k.Second)
}

// Rule maps a trait combination to a slot template.
type Rule struct {
	ID       string
	Slot     Slot
	Match    Match
	Template string
}

// Rules returns a copy of the built-in rule table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Tip is an advice fragment. Tips sharing a Key give the same advice.
type Tip struct {
	Key  string
	Text string
}

// slotInstruments lists the instruments each slot is primarily about.
var slotInstruments = map[Slot][]model.Instrument{
	SlotMind:        {model.VARK},
	SlotSuperpowers: {model.DISC},
	SlotMotivation:  {model.Schwartz},
	SlotManual:      {model.DISC, model.VARK},
}

// missingDimension is appended when a slot is rendered without its own
// instrument.
var missingDimension = map[model.Instrument]string{
	model.VARK:     "There is insufficient data on {name}'s learning style until that questionnaire is completed.",
	model.DISC:     "There is insufficient data on {name}'s behavioral style until that questionnaire is completed.",
	model.Jungian:  "There is insufficient data on {name}'s cognitive type until that questionnaire is completed.",
	model.Schwartz: "There is insufficient data on {name}'s personal values until that questionnaire is completed.",
}

var insufficient = map[Slot]Rule{
	SlotMind: {ID: "insufficient.mind", Slot: SlotMind,
		Template: "There is not enough data yet to describe how {name} prefers to learn: the learning-style and cognitive-type questionnaires are incomplete."},
	SlotSuperpowers: {ID: "insufficient.superpowers", Slot: SlotSuperpowers,
		Template: "There is not enough data yet to describe {name}'s strengths: the behavioral-style and cognitive-type questionnaires are incomplete."},
	SlotMotivation: {ID: "insufficient.motivation", Slot: SlotMotivation,
		Template: "There is not enough data yet to describe what motivates {name}: the values and behavioral-style questionnaires are incomplete."},
	SlotManual: {ID: "insufficient.manual", Slot: SlotManual,
		Template: "There is not enough data yet to suggest how to work with {name}: the behavioral-style and learning-style questionnaires are incomplete."},
}

// rules is ordered: combined rules first, then generic templates of the
// slot's primary instrument, then generic templates of its fallback.
var rules = []Rule{
	// mind: combined
	{ID: "mind.visual-dominance-nt", Slot: SlotMind, Match: Match{VARK: scoring.Visual, DISC: scoring.Dominance, Temperament: Rational},
		Template: "{name} builds mental models fast and wants to see the whole system at once. As a {ageBand} with a {type} profile, a single well-structured diagram is worth more than pages of explanation, and they will quickly move from understanding to deciding."},
	{ID: "mind.visual-nt", Slot: SlotMind, Match: Match{VARK: scoring.Visual, Temperament: Rational},
		Template: "{name} thinks in systems and pictures. Concept maps, flowcharts and models help this {ageBand} connect ideas logically and spot patterns others miss."},
	{ID: "mind.auditivo-nf", Slot: SlotMind, Match: Match{VARK: scoring.Auditivo, Temperament: Idealist},
		Template: "{name} learns through conversation and meaning. Stories, debates and explaining ideas to others help this {ageBand} turn content into something personal."},
	{ID: "mind.leitura-sj", Slot: SlotMind, Match: Match{VARK: scoring.LeituraEscrita, Temperament: Guardian},
		Template: "{name} learns best from well-organized written material. Clear notes, checklists and step-by-step texts give this {ageBand} the structure they need to master content thoroughly."},
	{ID: "mind.leitura-nt", Slot: SlotMind, Match: Match{VARK: scoring.LeituraEscrita, Temperament: Rational},
		Template: "{name} reads to understand how things work. Definitions, written arguments and independent research let this {ageBand} build precise, logical knowledge."},
	{ID: "mind.cinestesico-sp", Slot: SlotMind, Match: Match{VARK: scoring.Cinestesico, Temperament: Artisan},
		Template: "{name} understands by doing. Experiments, prototypes and real-world challenges keep this {ageBand} engaged and make learning stick."},
	{ID: "mind.visual-nf", Slot: SlotMind, Match: Match{VARK: scoring.Visual, Temperament: Idealist},
		Template: "{name} learns through images that carry meaning. Illustrations, visual stories and creative mapping help this {ageBand} connect content to people and purpose."},

	// mind: generic by learning style
	{ID: "mind.visual", Slot: SlotMind, Match: Match{VARK: scoring.Visual},
		Template: "{name} is a visual learner. Diagrams, charts, colors and spatial layouts help this {ageBand} understand and remember new content."},
	{ID: "mind.auditivo", Slot: SlotMind, Match: Match{VARK: scoring.Auditivo},
		Template: "{name} is an auditory learner. Listening, discussing and explaining out loud help this {ageBand} process and retain new ideas."},
	{ID: "mind.leitura", Slot: SlotMind, Match: Match{VARK: scoring.LeituraEscrita},
		Template: "{name} learns best through reading and writing. Texts, lists and written summaries help this {ageBand} organize what they learn."},
	{ID: "mind.cinestesico", Slot: SlotMind, Match: Match{VARK: scoring.Cinestesico},
		Template: "{name} is a kinesthetic learner. Practice, movement and concrete examples help this {ageBand} turn ideas into understanding."},

	// mind: generic by temperament
	{ID: "mind.nt", Slot: SlotMind, Match: Match{Temperament: Rational},
		Template: "{name} ({type}) approaches learning analytically and enjoys understanding why things work the way they do."},
	{ID: "mind.nf", Slot: SlotMind, Match: Match{Temperament: Idealist},
		Template: "{name} ({type}) learns best when content connects to people, values and a bigger purpose."},
	{ID: "mind.sj", Slot: SlotMind, Match: Match{Temperament: Guardian},
		Template: "{name} ({type}) learns best with clear structure, concrete facts and a well-defined sequence."},
	{ID: "mind.sp", Slot: SlotMind, Match: Match{Temperament: Artisan},
		Template: "{name} ({type}) learns best through action, variety and immediate, practical results."},

	// superpowers: combined
	{ID: "superpowers.influence-nf-benevolence", Slot: SlotSuperpowers, Match: Match{DISC: scoring.Influence, Temperament: Idealist, Value: scoring.Benevolence},
		Template: "{name} is the heart of a group. They read how classmates feel, lift the mood and genuinely want everyone to succeed, which makes them a natural peer mentor."},
	{ID: "superpowers.dominance-nt", Slot: SlotSuperpowers, Match: Match{DISC: scoring.Dominance, Temperament: Rational},
		Template: "{name} combines strategic thinking with the drive to act. They see what needs to be done, set direction and push a team to results."},
	{ID: "superpowers.influence-nf", Slot: SlotSuperpowers, Match: Match{DISC: scoring.Influence, Temperament: Idealist},
		Template: "{name} inspires others. Enthusiasm and empathy let them rally classmates around an idea and keep energy high."},
	{ID: "superpowers.steadiness-sj", Slot: SlotSuperpowers, Match: Match{DISC: scoring.Steadiness, Temperament: Guardian},
		Template: "{name} is the reliable core of any team. Patient, consistent and organized, they make sure work gets finished well."},
	{ID: "superpowers.compliance-nt", Slot: SlotSuperpowers, Match: Match{DISC: scoring.Compliance, Temperament: Rational},
		Template: "{name} is a precise analyst. They catch errors, question assumptions and raise the quality of everything they review."},
	{ID: "superpowers.influence-sp", Slot: SlotSuperpowers, Match: Match{DISC: scoring.Influence, Temperament: Artisan},
		Template: "{name} brings energy and improvisation. They think on their feet, persuade easily and turn activities into experiences."},
	{ID: "superpowers.steadiness-nf", Slot: SlotSuperpowers, Match: Match{DISC: scoring.Steadiness, Temperament: Idealist},
		Template: "{name} is a calm, supportive presence. They listen deeply and help groups stay together through disagreements."},

	// superpowers: generic by behavioral style
	{ID: "superpowers.dominance", Slot: SlotSuperpowers, Match: Match{DISC: scoring.Dominance},
		Template: "{name} is decisive and results-oriented. They take initiative, accept challenges and like to lead."},
	{ID: "superpowers.influence", Slot: SlotSuperpowers, Match: Match{DISC: scoring.Influence},
		Template: "{name} is communicative and optimistic. They connect with people easily and energize group work."},
	{ID: "superpowers.steadiness", Slot: SlotSuperpowers, Match: Match{DISC: scoring.Steadiness},
		Template: "{name} is patient and dependable. They cooperate well and bring stability to the group."},
	{ID: "superpowers.compliance", Slot: SlotSuperpowers, Match: Match{DISC: scoring.Compliance},
		Template: "{name} is careful and accurate. They value quality, follow criteria closely and notice details."},

	// superpowers: generic by temperament
	{ID: "superpowers.nt", Slot: SlotSuperpowers, Match: Match{Temperament: Rational},
		Template: "{name} ({type}) brings strategic, independent thinking and enjoys solving complex problems."},
	{ID: "superpowers.nf", Slot: SlotSuperpowers, Match: Match{Temperament: Idealist},
		Template: "{name} ({type}) brings empathy and imagination and helps others find meaning in their work."},
	{ID: "superpowers.sj", Slot: SlotSuperpowers, Match: Match{Temperament: Guardian},
		Template: "{name} ({type}) brings responsibility and organization and keeps commitments."},
	{ID: "superpowers.sp", Slot: SlotSuperpowers, Match: Match{Temperament: Artisan},
		Template: "{name} ({type}) brings adaptability and practical skill and shines in hands-on challenges."},

	// motivation: value pairs
	{ID: "motivation.achievement-power", Slot: SlotMotivation, Match: Match{Value: scoring.Achievement, Second: scoring.Power},
		Template: "{name} is driven by success and recognition. Visible goals, rankings of their own progress and responsibility over results keep them motivated."},
	{ID: "motivation.benevolence-universalism", Slot: SlotMotivation, Match: Match{Value: scoring.Benevolence, Second: scoring.Universalism},
		Template: "{name} is moved by caring for others and for the world. Projects with a social or environmental purpose bring out their best effort."},
	{ID: "motivation.selfdirection-stimulation", Slot: SlotMotivation, Match: Match{Value: scoring.SelfDirection, Second: scoring.Stimulation},
		Template: "{name} wants freedom and novelty. Open-ended challenges and the chance to explore their own ideas keep them engaged."},
	{ID: "motivation.security-conformity", Slot: SlotMotivation, Match: Match{Value: scoring.Security, Second: scoring.Conformity},
		Template: "{name} is motivated by a safe, orderly environment. Clear rules, fair treatment and predictable routines help them commit fully."},
	{ID: "motivation.tradition-conformity", Slot: SlotMotivation, Match: Match{Value: scoring.Tradition, Second: scoring.Conformity},
		Template: "{name} values belonging and respect for shared customs. Connecting lessons to family, community and heritage motivates them."},

	// motivation: value combined with behavioral style
	{ID: "motivation.dominance-achievement", Slot: SlotMotivation, Match: Match{DISC: scoring.Dominance, Value: scoring.Achievement},
		Template: "{name} wants to win. Ambitious targets and the freedom to choose how to reach them turn effort into results."},
	{ID: "motivation.influence-stimulation", Slot: SlotMotivation, Match: Match{DISC: scoring.Influence, Value: scoring.Stimulation},
		Template: "{name} thrives on excitement shared with others. Novel group activities and a chance to present keep their motivation high."},
	{ID: "motivation.steadiness-benevolence", Slot: SlotMotivation, Match: Match{DISC: scoring.Steadiness, Value: scoring.Benevolence},
		Template: "{name} is motivated by helping the people around them. Cooperative tasks and appreciation for their support matter a lot."},
	{ID: "motivation.compliance-security", Slot: SlotMotivation, Match: Match{DISC: scoring.Compliance, Value: scoring.Security},
		Template: "{name} is motivated by doing things right in a stable setting. Clear criteria and consistent feedback build their confidence."},

	// motivation: generic by primary value
	{ID: "motivation.selfdirection", Slot: SlotMotivation, Match: Match{Value: scoring.SelfDirection},
		Template: "{name} is motivated by autonomy. Choosing topics, methods or formats makes them take ownership of learning."},
	{ID: "motivation.stimulation", Slot: SlotMotivation, Match: Match{Value: scoring.Stimulation},
		Template: "{name} is motivated by novelty and challenge. Variety and surprise keep them interested."},
	{ID: "motivation.hedonism", Slot: SlotMotivation, Match: Match{Value: scoring.Hedonism},
		Template: "{name} is motivated by enjoyment. Playful, pleasant activities make them invest more energy."},
	{ID: "motivation.achievement", Slot: SlotMotivation, Match: Match{Value: scoring.Achievement},
		Template: "{name} is motivated by accomplishment. Clear goals and visible progress keep them working hard."},
	{ID: "motivation.power", Slot: SlotMotivation, Match: Match{Value: scoring.Power},
		Template: "{name} is motivated by influence and status. Roles with responsibility and recognition bring out their effort."},
	{ID: "motivation.security", Slot: SlotMotivation, Match: Match{Value: scoring.Security},
		Template: "{name} is motivated by stability. Predictable routines and a safe environment help them perform."},
	{ID: "motivation.conformity", Slot: SlotMotivation, Match: Match{Value: scoring.Conformity},
		Template: "{name} is motivated by meeting expectations. Explicit rules and criteria give them confidence."},
	{ID: "motivation.tradition", Slot: SlotMotivation, Match: Match{Value: scoring.Tradition},
		Template: "{name} is motivated by continuity and shared customs. Links to family and community make content meaningful."},
	{ID: "motivation.benevolence", Slot: SlotMotivation, Match: Match{Value: scoring.Benevolence},
		Template: "{name} is motivated by caring for people close to them. Helping classmates gives their work purpose."},
	{ID: "motivation.universalism", Slot: SlotMotivation, Match: Match{Value: scoring.Universalism},
		Template: "{name} is motivated by fairness and the wider world. Social and environmental themes engage them deeply."},

	// motivation: generic by behavioral style
	{ID: "motivation.disc-dominance", Slot: SlotMotivation, Match: Match{DISC: scoring.Dominance},
		Template: "{name} is motivated by challenges and the chance to lead."},
	{ID: "motivation.disc-influence", Slot: SlotMotivation, Match: Match{DISC: scoring.Influence},
		Template: "{name} is motivated by social recognition and working with others."},
	{ID: "motivation.disc-steadiness", Slot: SlotMotivation, Match: Match{DISC: scoring.Steadiness},
		Template: "{name} is motivated by harmony, security and being useful to the group."},
	{ID: "motivation.disc-compliance", Slot: SlotMotivation, Match: Match{DISC: scoring.Compliance},
		Template: "{name} is motivated by quality, accuracy and clear standards."},

	// manual: combined
	{ID: "manual.compliance-leitura-sj", Slot: SlotManual, Match: Match{DISC: scoring.Compliance, VARK: scoring.LeituraEscrita, Temperament: Guardian},
		Template: "Give {name} written instructions, a rubric and a timeline before the task starts. Avoid last-minute changes, answer questions precisely and recognize careful work."},
	{ID: "manual.dominance-cinestesico", Slot: SlotManual, Match: Match{DISC: scoring.Dominance, VARK: scoring.Cinestesico},
		Template: "Be direct with {name} and get to action quickly. Give a concrete challenge, a goal and room to try it their own way."},
	{ID: "manual.influence-auditivo", Slot: SlotManual, Match: Match{DISC: scoring.Influence, VARK: scoring.Auditivo},
		Template: "Talk with {name} rather than at them. Let them discuss, ask and present; a quick verbal check-in works better than a long written note."},
	{ID: "manual.steadiness-visual", Slot: SlotManual, Match: Match{DISC: scoring.Steadiness, VARK: scoring.Visual},
		Template: "Show {name} the plan visually and in advance. A calm tone, a visible schedule and time to adjust help them feel secure."},
	{ID: "manual.compliance-leitura", Slot: SlotManual, Match: Match{DISC: scoring.Compliance, VARK: scoring.LeituraEscrita},
		Template: "Give {name} detailed written criteria and time to review. Precise, factual feedback is the most useful kind for them."},

	// manual: generic by behavioral style
	{ID: "manual.dominance", Slot: SlotManual, Match: Match{DISC: scoring.Dominance},
		Template: "Be brief and direct with {name}. State the goal, give autonomy and discuss results rather than details."},
	{ID: "manual.influence", Slot: SlotManual, Match: Match{DISC: scoring.Influence},
		Template: "Keep things friendly and interactive with {name}. Offer praise in public and give space to share ideas."},
	{ID: "manual.steadiness", Slot: SlotManual, Match: Match{DISC: scoring.Steadiness},
		Template: "Give {name} time and predictability. Explain changes in advance and show appreciation for their consistency."},
	{ID: "manual.compliance", Slot: SlotManual, Match: Match{DISC: scoring.Compliance},
		Template: "Be clear and precise with {name}. Share criteria up front and back feedback with facts."},

	// manual: generic by learning style
	{ID: "manual.visual", Slot: SlotManual, Match: Match{VARK: scoring.Visual},
		Template: "When working with {name}, show rather than tell: use the board, visual summaries and examples."},
	{ID: "manual.auditivo", Slot: SlotManual, Match: Match{VARK: scoring.Auditivo},
		Template: "When working with {name}, explain out loud and let them talk the task through before starting."},
	{ID: "manual.leitura", Slot: SlotManual, Match: Match{VARK: scoring.LeituraEscrita},
		Template: "When working with {name}, put instructions in writing and let them take notes."},
	{ID: "manual.cinestesico", Slot: SlotManual, Match: Match{VARK: scoring.Cinestesico},
		Template: "When working with {name}, start with something practical and let them move and experiment."},
}

var varkTips = map[scoring.Category]Tip{
	scoring.Visual:         {Key: "visual-organizers", Text: "Use diagrams, mind maps and color-coded notes when introducing new content to {name}."},
	scoring.Auditivo:       {Key: "talk-it-through", Text: "Let {name} explain ideas out loud or discuss them in pairs before writing."},
	scoring.LeituraEscrita: {Key: "written-instructions", Text: "Provide written instructions and reading material ahead of activities."},
	scoring.Cinestesico:    {Key: "hands-on", Text: "Include hands-on practice, experiments or movement in each lesson."},
}

var discTips = map[scoring.Category]Tip{
	scoring.Dominance:  {Key: "give-ownership", Text: "Offer {name} leadership roles and clear goals with room for autonomy."},
	scoring.Influence:  {Key: "collaborate", Text: "Plan group work and let {name} present results to peers."},
	scoring.Steadiness: {Key: "predictable-routine", Text: "Announce changes in advance and keep a predictable routine."},
	scoring.Compliance: {Key: "written-instructions", Text: "Share detailed criteria and rubrics in writing."},
}

var temperamentTips = map[Temperament]Tip{
	Rational: {Key: "open-problems", Text: "Pose open problems that ask {name} to explain the reasoning behind a solution."},
	Idealist: {Key: "meaningful-context", Text: "Connect content to real people and causes {name} cares about."},
	Guardian: {Key: "predictable-routine", Text: "Break projects into scheduled steps with clear checkpoints."},
	Artisan:  {Key: "hands-on", Text: "Use games, challenges and short active tasks."},
}

var valueTips = map[scoring.Category]Tip{
	scoring.SelfDirection: {Key: "offer-choice", Text: "Give {name} choices of topic or format for assignments."},
	scoring.Stimulation:   {Key: "novelty", Text: "Vary activities and introduce surprising examples to keep interest high."},
	scoring.Hedonism:      {Key: "enjoyment", Text: "Make tasks enjoyable with playful elements and positive moments."},
	scoring.Achievement:   {Key: "goal-tracking", Text: "Set measurable goals with {name} and make progress visible."},
	scoring.Power:         {Key: "give-ownership", Text: "Give {name} visible responsibilities within group work."},
	scoring.Security:      {Key: "predictable-routine", Text: "Keep expectations stable and explain any change in advance."},
	scoring.Conformity:    {Key: "clear-rules", Text: "Make rules and expectations explicit from the start."},
	scoring.Tradition:     {Key: "connect-heritage", Text: "Relate lessons to family, community and cultural traditions."},
	scoring.Benevolence:   {Key: "peer-support", Text: "Let {name} support classmates, for example as a study buddy."},
	scoring.Universalism:  {Key: "meaningful-context", Text: "Bring in social and environmental themes related to the content."},
}

var completeSurveyTip = Tip{Key: "complete-survey", Text: "Ask {name} to finish the remaining questionnaires for more tailored advice."}

var generalTips = []Tip{
	{Key: "check-in", Text: "Check in regularly to see how {name} is feeling about the class."},
	{Key: "timely-feedback", Text: "Give specific, timely feedback on progress."},
}
