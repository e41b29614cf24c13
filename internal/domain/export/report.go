package export

import (
	"time"

	"github.com/okian/perfil/internal/domain/insight"
	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/profile"
	"github.com/okian/perfil/internal/domain/scoring"
)

// Report is the payload handed to the PDF renderer.
type Report struct {
	Student     ReportStudent      `json:"student"`
	Dimensions  []ReportDimension  `json:"dimensions"`
	Insights    insight.InsightSet `json:"insights"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// ReportStudent is the student block of a report.
type ReportStudent struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ClassID      string            `json:"class_id"`
	AgeBand      model.AgeBand     `json:"age_band"`
	Gender       string            `json:"gender,omitempty"`
	Generation   string            `json:"generation,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

// ReportDimension is one instrument block of a report.
type ReportDimension struct {
	Instrument model.Instrument `json:"instrument"`
	Status     profile.Status   `json:"status"`
	Label      string           `json:"label,omitempty"`
	Dominant   []string         `json:"dominant,omitempty"`
	Scores     scoring.Weights  `json:"scores,omitempty"`
	Scaled     scoring.Weights  `json:"scaled,omitempty"`
	Reason     string           `json:"reason,omitempty"`
}

// ReportPayload builds the report of s with narratives from n. A nil
// narrator uses the built-in rule table.
func ReportPayload(n *insight.Narrator, s model.Student, p profile.UnifiedProfile) Report {
	if n == nil {
		n = insight.NewNarrator()
	}
	r := Report{
		Student: ReportStudent{
			ID:           s.ID,
			Name:         s.Name,
			ClassID:      s.ClassID,
			AgeBand:      model.AgeBandOf(s.Age),
			Gender:       s.Gender,
			Generation:   s.Generation,
			CustomFields: s.CustomFields,
		},
		Dimensions:  make([]ReportDimension, 0, len(model.Instruments)),
		Insights:    n.Narrate(p, s.Meta()),
		GeneratedAt: p.GeneratedAt,
	}
	for _, d := range p.Dimensions() {
		rd := ReportDimension{Instrument: d.Instrument, Status: d.Status, Reason: d.Reason}
		if d.Complete() {
			rd.Label = d.Result.Label()
			rd.Dominant = make([]string, len(d.Result.Dominant))
			for i, c := range d.Result.Dominant {
				rd.Dominant[i] = string(c)
			}
			rd.Scores = d.Result.Scores
			rd.Scaled = d.Result.Scaled()
		}
		r.Dimensions = append(r.Dimensions, rd)
	}
	return r
}
