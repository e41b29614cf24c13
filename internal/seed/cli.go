package seed

import (
	"os"
	"runtime"
	"time"

	"github.com/okian/perfil/pkg/logger"
	"github.com/spf13/cobra"
)

// Flag defaults.
const (
	defaultStudents = 60
	defaultClasses  = 3
	defaultTimeout  = 30 * time.Second
	defaultSkipRate = 0.1
	defaultWorkers  = 2 // multiplier for runtime.NumCPU()
)

// NewCommand returns the perfil-seed root command.
func NewCommand() *cobra.Command {
	cfg := Config{Verify: true}
	var verbose bool

	cmd := &cobra.Command{
		Use:   "perfil-seed",
		Short: "Seed a perfil service with generated students and verify its class views",
		Long: `perfil-seed creates students spread over classes, submits questionnaire
responses whose dominant traits are known in advance, and then checks that
every class aggregate counts each student exactly once per instrument.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				_ = logger.SetLevelString("debug")
			}
			_, err := Run(cmd.Context(), cfg)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.BaseURL, "url", "u", defaultURL(), "Base URL of the service")
	f.StringVar(&cfg.OrgID, "org", "demo-org", "Organisation id of the generated students")
	f.IntVarP(&cfg.Students, "students", "n", defaultStudents, "Number of students to generate")
	f.IntVarP(&cfg.Classes, "classes", "c", defaultClasses, "Number of classes")
	f.IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.Float64Var(&cfg.SkipRate, "skip-rate", defaultSkipRate, "Probability of leaving an instrument unanswered")
	f.Uint64Var(&cfg.Seed, "seed", uint64(time.Now().UnixNano()), "Random seed")
	f.BoolVar(&cfg.Verify, "verify", true, "Verify class aggregates after seeding")
	f.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}

func defaultURL() string {
	if u := os.Getenv("PERFIL_URL"); u != "" {
		return u
	}
	return "http://localhost:9080"
}
