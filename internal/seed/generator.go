package seed

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/perfil/internal/domain/classroom"
	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/profile/profiletest"
	"github.com/okian/perfil/internal/domain/scoring"
)

// Age range of generated students.
const (
	minAge   = 10
	ageRange = 9
)

var clubs = []string{"chess", "robotics", "choir", "football", "theatre"}

// Generate builds cfg.Students students spread round-robin over
// cfg.Classes classes. Traits depend only on cfg.Seed; ids are random.
func Generate(cfg Config) []Student {
	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	vark := categories(model.VARK)
	disc := categories(model.DISC)
	values := categories(model.Schwartz)
	types := classroom.JungianTypes()

	out := make([]Student, cfg.Students)
	for i := range out {
		first := r.IntN(len(values))
		second := r.IntN(len(values) - 1)
		if second >= first {
			second++
		}

		t := profiletest.Traits{
			VARK:   vark[r.IntN(len(vark))],
			DISC:   disc[r.IntN(len(disc))],
			Type:   types[r.IntN(len(types))],
			Values: [2]scoring.Category{values[first], values[second]},
		}
		for _, inst := range model.Instruments {
			if r.Float64() < cfg.SkipRate {
				t.Skip = append(t.Skip, inst)
			}
		}

		out[i] = Student{
			ID:      uuid.NewString(),
			ClassID: classID(i % cfg.Classes),
			Name:    fmt.Sprintf("Student %03d", i+1),
			Age:     minAge + r.IntN(ageRange),
			Club:    clubs[r.IntN(len(clubs))],
			Traits:  t,
		}
	}
	return out
}

func classID(n int) string {
	return fmt.Sprintf("class-%d", n+1)
}

func categories(inst model.Instrument) []scoring.Category {
	t, ok := scoring.TableFor(inst)
	if !ok {
		return nil
	}
	return t.Categories
}

// answered reports whether s has a response for inst.
func (s Student) answered(inst model.Instrument) bool {
	for _, skip := range s.Traits.Skip {
		if skip == inst {
			return false
		}
	}
	return true
}

// expected returns the dominant category s contributes to the class
// histogram of inst, or "" when the instrument is unanswered.
func (s Student) expected(inst model.Instrument) string {
	if !s.answered(inst) {
		return ""
	}
	switch inst {
	case model.VARK:
		return string(s.Traits.VARK)
	case model.DISC:
		return string(s.Traits.DISC)
	case model.Jungian:
		return s.Traits.Type
	case model.Schwartz:
		return string(s.Traits.Values[0])
	}
	return ""
}
