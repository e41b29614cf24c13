package profile_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/profile"
	"github.com/okian/perfil/internal/domain/profile/profiletest"
	"github.com/okian/perfil/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func fixedClock() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }

func TestAggregator_Aggregate(t *testing.T) {
	Convey("Given complete responses for all four instruments", t, func() {
		rs, err := profiletest.Responses("stu-1", profiletest.Default())
		So(err, ShouldBeNil)
		agg := profile.NewAggregator(profile.WithClock(fixedClock))

		Convey("When aggregating", func() {
			p, err := agg.Aggregate("stu-1", rs)

			Convey("Then every dimension is complete with the expected dominants", func() {
				So(err, ShouldBeNil)
				So(p.Complete(), ShouldBeTrue)
				So(p.Incomplete(), ShouldBeEmpty)
				So(p.VARK.Result.Primary(), ShouldEqual, scoring.Visual)
				So(p.DISC.Result.Primary(), ShouldEqual, scoring.Influence)
				So(p.Jungian.Result.Label(), ShouldEqual, "ENFP")
				So(p.Schwartz.Result.Dominant, ShouldResemble, []scoring.Category{scoring.Benevolence, scoring.SelfDirection})
			})

			Convey("And GeneratedAt is the aggregation timestamp", func() {
				So(p.GeneratedAt, ShouldEqual, fixedClock())
				So(p.StudentID, ShouldEqual, "stu-1")
			})

			Convey("And a second aggregation is byte-identical", func() {
				again, err := agg.Aggregate("stu-1", rs)
				So(err, ShouldBeNil)
				a, _ := json.Marshal(p)
				b, _ := json.Marshal(again)
				So(string(a), ShouldEqual, string(b))
			})
		})
	})

	Convey("Given a student who skipped DISC and left a VARK answer blank", t, func() {
		traits := profiletest.Default()
		traits.Skip = []model.Instrument{model.DISC}
		rs, err := profiletest.Responses("stu-2", traits)
		So(err, ShouldBeNil)
		vark := rs[model.VARK]
		delete(vark.Answers, "vark_q5")

		Convey("When aggregating", func() {
			p, err := profile.NewAggregator(profile.WithClock(fixedClock)).Aggregate("stu-2", rs)

			Convey("Then only the affected instruments are incomplete", func() {
				So(err, ShouldBeNil)
				So(p.Incomplete(), ShouldResemble, []model.Instrument{model.VARK, model.DISC})
				So(p.VARK.Reason, ShouldContainSubstring, "vark_q5")
				So(p.DISC.Reason, ShouldEqual, profile.ErrNoResponse.Error())
				So(p.Jungian.Complete(), ShouldBeTrue)
				So(p.Schwartz.Complete(), ShouldBeTrue)
			})
		})
	})

	Convey("Given a response with an unknown category", t, func() {
		rs, err := profiletest.Responses("stu-3", profiletest.Default())
		So(err, ShouldBeNil)
		rs[model.DISC].Answers["disc_q1"] = "Charisma"

		Convey("Then aggregation fails instead of marking it incomplete", func() {
			_, err := profile.NewAggregator().Aggregate("stu-3", rs)
			So(errors.Is(err, scoring.ErrUnknownCategory), ShouldBeTrue)
		})
	})

	Convey("Given no responses at all", t, func() {
		p, err := profile.NewAggregator().Aggregate("stu-4", nil)

		Convey("Then the profile has four incomplete dimensions", func() {
			So(err, ShouldBeNil)
			So(p.Incomplete(), ShouldHaveLength, 4)
			So(p.Dimension(model.Jungian).Instrument, ShouldEqual, model.Jungian)
		})
	})
}

func TestFingerprint(t *testing.T) {
	Convey("Given two identical response sets", t, func() {
		a, _ := profiletest.Responses("stu-1", profiletest.Default())
		b, _ := profiletest.Responses("stu-1", profiletest.Default())

		Convey("Then their fingerprints match", func() {
			So(profile.Fingerprint("stu-1", a), ShouldEqual, profile.Fingerprint("stu-1", b))
		})

		Convey("And submission time does not matter", func() {
			traits := profiletest.Default()
			traits.SubmittedAt = time.Now()
			c, _ := profiletest.Responses("stu-1", traits)
			So(profile.Fingerprint("stu-1", c), ShouldEqual, profile.Fingerprint("stu-1", a))
		})

		Convey("And a changed answer changes it", func() {
			b[model.VARK].Answers["vark_q1"] = "d"
			So(profile.Fingerprint("stu-1", b), ShouldNotEqual, profile.Fingerprint("stu-1", a))
		})

		Convey("And another student id changes it", func() {
			So(profile.Fingerprint("stu-2", a), ShouldNotEqual, profile.Fingerprint("stu-1", a))
		})
	})
}
