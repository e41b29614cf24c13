package classroom

import (
	"github.com/okian/perfil/internal/domain/insight"
	"github.com/okian/perfil/internal/domain/profile"
	"github.com/okian/perfil/internal/domain/scoring"
)

// Dimension is the trait a pairing compares.
type Dimension string

// Pairing dimensions.
const (
	ByVARK        Dimension = "vark"
	ByDISC        Dimension = "disc"
	ByTemperament Dimension = "temperament"
)

// Pairing pairs a student whose trait is A with one whose trait is B.
type Pairing struct {
	ID    string
	Label string
	By    Dimension
	A, B  string
}

func (p Pairing) partner(trait string) (string, bool) {
	switch trait {
	case p.A:
		return p.B, true
	case p.B:
		return p.A, true
	}
	return "", false
}

// Pairings returns a copy of the built-in compatibility table.
func Pairings() []Pairing {
	out := make([]Pairing, len(pairings))
	copy(out, pairings)
	return out
}

var pairings = []Pairing{
	{ID: "disc.dominance-influence", Label: "Driver and energizer", By: ByDISC,
		A: string(scoring.Dominance), B: string(scoring.Influence)},
	{ID: "disc.compliance-steadiness", Label: "Analyst and supporter", By: ByDISC,
		A: string(scoring.Compliance), B: string(scoring.Steadiness)},
	{ID: "disc.dominance-steadiness", Label: "Driver and supporter", By: ByDISC,
		A: string(scoring.Dominance), B: string(scoring.Steadiness)},
	{ID: "disc.influence-compliance", Label: "Energizer and analyst", By: ByDISC,
		A: string(scoring.Influence), B: string(scoring.Compliance)},
	{ID: "vark.visual-cinestesico", Label: "Show and build", By: ByVARK,
		A: string(scoring.Visual), B: string(scoring.Cinestesico)},
	{ID: "vark.auditivo-leitura", Label: "Talk and write", By: ByVARK,
		A: string(scoring.Auditivo), B: string(scoring.LeituraEscrita)},
	{ID: "temperament.nt-nf", Label: "Strategist and mentor", By: ByTemperament,
		A: string(insight.Rational), B: string(insight.Idealist)},
	{ID: "temperament.sj-sp", Label: "Organizer and improviser", By: ByTemperament,
		A: string(insight.Guardian), B: string(insight.Artisan)},
}

// formTeams pairs students first-fit: each unassigned student, in input
// order, tries the pairings in table order and takes the earliest later
// unassigned student with the complementary trait. A student joins at most
// one team.
func formTeams(profiles []profile.UnifiedProfile, table []Pairing) ([]Team, []string) {
	ts := make([]map[Dimension]string, len(profiles))
	for i, p := range profiles {
		ts[i] = traits(p)
	}
	assigned := make([]bool, len(profiles))
	teams := []Team{}

	for i := range profiles {
		if assigned[i] {
			continue
		}
	pairing:
		for _, pr := range table {
			want, ok := pr.partner(ts[i][pr.By])
			if !ok {
				continue
			}
			for j := i + 1; j < len(profiles); j++ {
				if assigned[j] || ts[j][pr.By] != want {
					continue
				}
				assigned[i], assigned[j] = true, true
				teams = append(teams, Team{
					Pairing: pr.ID,
					Label:   pr.Label,
					Members: []string{profiles[i].StudentID, profiles[j].StudentID},
				})
				break pairing
			}
		}
	}

	unassigned := []string{}
	for i, p := range profiles {
		if !assigned[i] {
			unassigned = append(unassigned, p.StudentID)
		}
	}
	return teams, unassigned
}
