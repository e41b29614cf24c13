package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/perfil/pkg/logger"
)

// Run seeds the service at cfg.BaseURL and, when cfg.Verify is set, checks
// the class aggregates it serves.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	stats := Stats{StartTime: time.Now()}
	log := logger.Get().Named("seed")

	if err := cfg.validate(); err != nil {
		return stats, err
	}

	log.Info(ctx, "starting perfil seed",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("org", cfg.OrgID),
		logger.Int("students", cfg.Students),
		logger.Int("classes", cfg.Classes),
		logger.Int("workers", cfg.Workers),
		logger.Float64("skipRate", cfg.SkipRate))

	c := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := c.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	if err := c.DeclareClub(ctx, cfg.OrgID); err != nil {
		return stats, fmt.Errorf("custom field declaration failed: %w", err)
	}

	students := Generate(cfg)
	stats.StudentsGenerated = len(students)

	submitStudents(ctx, cfg, c, students, &stats)
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if stats.StudentsFailed > 0 || stats.ResponsesFailed > 0 {
		return stats, fmt.Errorf("%w: %d students and %d responses were not stored",
			ErrUnexpectedStatus, stats.StudentsFailed, stats.ResponsesFailed)
	}

	if cfg.Verify {
		if err := verifyClasses(ctx, c, students, &stats); err != nil {
			return stats, err
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func (c Config) validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.OrgID == "":
		return fmt.Errorf("%w: org is required", ErrInvalidConfig)
	case c.Students <= 0:
		return fmt.Errorf("%w: students must be positive", ErrInvalidConfig)
	case c.Classes <= 0:
		return fmt.Errorf("%w: classes must be positive", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.SkipRate < 0 || c.SkipRate > 1:
		return fmt.Errorf("%w: skip rate must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}

func displayFinalStats(ctx context.Context, stats Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.ResponsesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Named("seed").Info(ctx, "final statistics",
		logger.Int("studentsGenerated", stats.StudentsGenerated),
		logger.Int("studentsCreated", stats.StudentsCreated),
		logger.Int("responsesSubmitted", stats.ResponsesSubmitted),
		logger.Int("classesVerified", stats.ClassesVerified),
		logger.Int("duplicatesRejected", stats.DuplicatesRejected),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("responsesPerSecond", perSecond))
}
