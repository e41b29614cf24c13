package classroom_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/perfil/internal/domain/classroom"
	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/profile"
	"github.com/okian/perfil/internal/domain/profile/profiletest"
	"github.com/okian/perfil/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func build(id string, mutate func(*profiletest.Traits)) profile.UnifiedProfile {
	t := profiletest.Default()
	if mutate != nil {
		mutate(&t)
	}
	return profiletest.Build(id, t)
}

func TestAggregate(t *testing.T) {
	Convey("Given an empty class", t, func() {
		agg := classroom.Aggregate(nil)

		Convey("Then histograms are all zero and there are no teams", func() {
			So(agg.Size, ShouldEqual, 0)
			for _, inst := range model.Instruments {
				h := agg.Histogram(inst)
				So(h, ShouldNotBeEmpty)
				So(h.Total(), ShouldEqual, 0)
				So(agg.Incomplete[inst], ShouldEqual, 0)
			}
			So(agg.Jungian, ShouldHaveLength, 16)
			So(agg.Teams, ShouldBeEmpty)
			So(agg.Unassigned, ShouldBeEmpty)
		})
	})

	Convey("Given three Visual students and one Auditivo student", t, func() {
		profiles := []profile.UnifiedProfile{
			build("s1", nil),
			build("s2", nil),
			build("s3", nil),
			build("s4", func(t *profiletest.Traits) { t.VARK = scoring.Auditivo }),
		}

		Convey("When aggregating", func() {
			agg := classroom.Aggregate(profiles)

			Convey("Then the learning-style histogram counts each dominant", func() {
				So(agg.VARK, ShouldResemble, classroom.Histogram{
					{Category: "Visual", Count: 3},
					{Category: "Auditivo", Count: 1},
					{Category: "LeituraEscrita", Count: 0},
					{Category: "Cinestesico", Count: 0},
				})
			})

			Convey("And every histogram conserves the class size", func() {
				for _, inst := range model.Instruments {
					So(agg.Histogram(inst).Total(), ShouldEqual, 4)
				}
				So(agg.Jungian.Count("ENFP"), ShouldEqual, 4)
				So(agg.Schwartz.Count(string(scoring.Benevolence)), ShouldEqual, 4)
				So(agg.ValueMentions.Total(), ShouldEqual, 8)
			})
		})
	})

	Convey("Given a class where some students skipped instruments", t, func() {
		profiles := []profile.UnifiedProfile{
			build("s1", nil),
			build("s2", func(t *profiletest.Traits) { t.Skip = []model.Instrument{model.DISC} }),
			build("s3", func(t *profiletest.Traits) { t.Skip = []model.Instrument{model.DISC, model.Schwartz} }),
		}
		agg := classroom.Aggregate(profiles)

		Convey("Then they are excluded only from the affected histograms", func() {
			So(agg.Size, ShouldEqual, 3)
			So(agg.DISC.Total(), ShouldEqual, 1)
			So(agg.Incomplete[model.DISC], ShouldEqual, 2)
			So(agg.Schwartz.Total(), ShouldEqual, 2)
			So(agg.Incomplete[model.Schwartz], ShouldEqual, 1)
			So(agg.VARK.Total(), ShouldEqual, 3)
			for _, inst := range model.Instruments {
				So(agg.Histogram(inst).Total()+agg.Incomplete[inst], ShouldEqual, agg.Size)
			}
		})
	})
}

func TestAggregate_Teams(t *testing.T) {
	Convey("Given students with complementary behavioral styles", t, func() {
		disc := func(c scoring.Category) func(*profiletest.Traits) {
			return func(t *profiletest.Traits) { t.DISC = c }
		}
		profiles := []profile.UnifiedProfile{
			build("a", disc(scoring.Dominance)),
			build("b", disc(scoring.Steadiness)),
			build("c", disc(scoring.Influence)),
			build("d", disc(scoring.Compliance)),
			build("e", disc(scoring.Dominance)),
		}

		Convey("When forming teams", func() {
			agg := classroom.Aggregate(profiles)

			Convey("Then pairing is first-fit in input order", func() {
				So(agg.Teams, ShouldResemble, []classroom.Team{
					{Pairing: "disc.dominance-influence", Label: "Driver and energizer", Members: []string{"a", "c"}},
					{Pairing: "disc.compliance-steadiness", Label: "Analyst and supporter", Members: []string{"b", "d"}},
				})
				So(agg.Unassigned, ShouldResemble, []string{"e"})
			})

			Convey("And no student appears in two teams", func() {
				seen := map[string]bool{}
				for _, tm := range agg.Teams {
					for _, m := range tm.Members {
						So(seen[m], ShouldBeFalse)
						seen[m] = true
					}
				}
			})

			Convey("And re-running on the same order gives identical teams", func() {
				So(cmp.Diff(agg, classroom.Aggregate(profiles)), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a student with no complete pairing dimension", t, func() {
		profiles := []profile.UnifiedProfile{
			build("x", func(t *profiletest.Traits) { t.Skip = model.Instruments }),
			build("y", nil),
		}

		Convey("Then they stay unassigned", func() {
			agg := classroom.Aggregate(profiles)
			So(agg.Teams, ShouldBeEmpty)
			So(agg.Unassigned, ShouldResemble, []string{"x", "y"})
		})
	})

	Convey("Given a custom compatibility table", t, func() {
		profiles := []profile.UnifiedProfile{
			build("p", nil),
			build("q", func(t *profiletest.Traits) { t.VARK = scoring.Cinestesico }),
		}
		agg := classroom.Aggregate(profiles, classroom.WithPairings([]classroom.Pairing{
			{ID: "only", Label: "Only", By: classroom.ByVARK, A: "Cinestesico", B: "Visual"},
		}))

		Convey("Then it replaces the built-in one", func() {
			So(agg.Teams, ShouldHaveLength, 1)
			So(agg.Teams[0].Members, ShouldResemble, []string{"p", "q"})
		})
	})
}

func TestHistogram(t *testing.T) {
	Convey("Given a histogram with a tie", t, func() {
		h := classroom.Histogram{{"Visual", 2}, {"Auditivo", 3}, {"LeituraEscrita", 3}, {"Cinestesico", 0}}

		Convey("Then Top keeps bucket order on ties", func() {
			top, ok := h.Top()
			So(ok, ShouldBeTrue)
			So(top.Category, ShouldEqual, "Auditivo")
		})

		Convey("And Ranked drops zeros and sorts stably", func() {
			So(h.Ranked(), ShouldResemble, classroom.Histogram{{"Auditivo", 3}, {"LeituraEscrita", 3}, {"Visual", 2}})
		})
	})

	Convey("The Jungian types start with the first pole of every axis", t, func() {
		types := classroom.JungianTypes()
		So(types, ShouldHaveLength, 16)
		So(types[0], ShouldEqual, "ESTJ")
		So(types[15], ShouldEqual, "INFP")
	})
}
