package seed

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/perfil/internal/domain/classroom"
	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/profile/profiletest"
	"github.com/okian/perfil/pkg/logger"
)

// Aggregate fetches the aggregate of classID.
func (c *Client) Aggregate(ctx context.Context, classID string) (classroom.ClassAggregate, error) {
	var agg classroom.ClassAggregate
	err := c.do(ctx, http.MethodGet, "/classes/"+classID+"/aggregate", nil, &agg, http.StatusOK)
	return agg, err
}

// verifyClasses checks every class aggregate against the generated traits.
func verifyClasses(ctx context.Context, c *Client, students []Student, stats *Stats) error {
	log := logger.Get().Named("seed")

	byClass := make(map[string][]Student)
	var order []string
	for _, s := range students {
		if _, ok := byClass[s.ClassID]; !ok {
			order = append(order, s.ClassID)
		}
		byClass[s.ClassID] = append(byClass[s.ClassID], s)
	}

	var problems []string
	for _, id := range order {
		agg, err := c.Aggregate(ctx, id)
		if err != nil {
			return err
		}
		if p := checkClass(id, agg, byClass[id]); len(p) > 0 {
			problems = append(problems, p...)
			continue
		}
		stats.ClassesVerified++
		log.Debug(ctx, "class verified", logger.String("class", id), logger.Int("size", agg.Size))
	}

	if err := checkImmutable(ctx, c, students, stats); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrVerification, strings.Join(problems, "\n  "))
	}
	log.Info(ctx, "verification completed", logger.Int("classes", stats.ClassesVerified))
	return nil
}

// checkClass compares agg with the histograms the students should produce.
// Every student lands in a bucket or in the incomplete count of each
// instrument.
func checkClass(classID string, agg classroom.ClassAggregate, students []Student) []string {
	var problems []string
	if agg.Size != len(students) {
		problems = append(problems, fmt.Sprintf("%s: size %d, want %d", classID, agg.Size, len(students)))
	}

	for _, inst := range model.Instruments {
		h := agg.Histogram(inst)
		if got := h.Total() + agg.Incomplete[inst]; got != agg.Size {
			problems = append(problems, fmt.Sprintf("%s/%s: %d counted plus %d incomplete, want %d",
				classID, inst, h.Total(), agg.Incomplete[inst], agg.Size))
		}

		want := make(map[string]int)
		for _, s := range students {
			if cat := s.expected(inst); cat != "" {
				want[cat]++
			}
		}
		for _, b := range h {
			if b.Count != want[b.Category] {
				problems = append(problems, fmt.Sprintf("%s/%s: %s has %d, want %d",
					classID, inst, b.Category, b.Count, want[b.Category]))
			}
		}
	}
	return problems
}

// checkImmutable resubmits the first stored response and expects the
// service to refuse it.
func checkImmutable(ctx context.Context, c *Client, students []Student, stats *Stats) error {
	for _, s := range students {
		rs, err := profiletest.Responses(s.ID, s.Traits)
		if err != nil {
			return err
		}
		for _, inst := range model.Instruments {
			r, ok := rs[inst]
			if !ok {
				continue
			}
			if err := c.PostResponse(ctx, r, http.StatusConflict); err != nil {
				return fmt.Errorf("resubmitted response was not rejected: %w", err)
			}
			stats.DuplicatesRejected++
			return nil
		}
	}
	return nil
}
