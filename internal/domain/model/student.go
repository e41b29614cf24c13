package model

// QuizStatus tracks how far a student got through the survey flow.
type QuizStatus string

// Quiz completion states.
const (
	QuizNotStarted QuizStatus = "not_started"
	QuizPartial    QuizStatus = "partial"
	QuizCompleted  QuizStatus = "completed"
)

// Student is the externally owned learner record. The engine only reads it.
type Student struct {
	ID           string            `json:"id"`
	OrgID        string            `json:"org_id"`
	ClassID      string            `json:"class_id"`
	Name         string            `json:"name"`
	Age          int               `json:"age"`
	Gender       string            `json:"gender"`
	Generation   string            `json:"generation"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
	QuizStatus   QuizStatus        `json:"quiz_status"`
}

// Meta returns the subset of the record the narrator is allowed to see.
func (s Student) Meta() StudentMeta {
	return StudentMeta{Name: s.Name, AgeBand: AgeBandOf(s.Age)}
}

// StudentMeta is the minimal metadata used for narrative interpolation.
type StudentMeta struct {
	Name    string
	AgeBand AgeBand
}

// AgeBand buckets ages for narrative phrasing.
type AgeBand string

// Age bands.
const (
	AgeUnknown AgeBand = "unknown"
	AgeChild   AgeBand = "child"
	AgePreteen AgeBand = "preteen"
	AgeTeen    AgeBand = "teen"
	AgeAdult   AgeBand = "adult"
)

// AgeBandOf maps an age in years to its band. Non-positive ages are unknown.
func AgeBandOf(age int) AgeBand {
	switch {
	case age <= 0:
		return AgeUnknown
	case age <= 10:
		return AgeChild
	case age <= 13:
		return AgePreteen
	case age <= 17:
		return AgeTeen
	default:
		return AgeAdult
	}
}

// Phrase renders the band for use inside a sentence.
func (b AgeBand) Phrase() string {
	switch b {
	case AgeChild:
		return "young learner"
	case AgePreteen:
		return "pre-teen learner"
	case AgeTeen:
		return "teenage learner"
	case AgeAdult:
		return "adult learner"
	default:
		return "learner"
	}
}

// FieldType is the declared type of a custom field.
type FieldType string

// Custom field types.
const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
	FieldSelect FieldType = "select"
	FieldBool   FieldType = "bool"
)

// CustomFieldDef describes an organization-defined student attribute.
type CustomFieldDef struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Type    FieldType `json:"type"`
	Options []string  `json:"options,omitempty"`
}
