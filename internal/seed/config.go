// Package seed populates a running perfil service with generated students
// and questionnaire responses, then checks the class views it serves.
package seed

import (
	"time"

	"github.com/okian/perfil/internal/domain/profile/profiletest"
)

// Config holds the settings of one seeding run.
type Config struct {
	BaseURL  string        // Base URL of the service
	OrgID    string        // Organisation the students belong to
	Students int           // Number of students to generate
	Classes  int           // Number of classes to spread them over
	Workers  int           // Number of concurrent submitters
	Timeout  time.Duration // HTTP request timeout
	SkipRate float64       // Probability of leaving an instrument unanswered
	Seed     uint64        // Random seed; equal seeds generate equal traits
	Verify   bool          // Check class aggregates after seeding
}

// Student is a generated student and the traits its responses encode.
type Student struct {
	ID      string
	ClassID string
	Name    string
	Age     int
	Club    string
	Traits  profiletest.Traits
}

// Stats holds run statistics.
type Stats struct {
	StudentsGenerated  int
	StudentsCreated    int
	StudentsFailed     int
	ResponsesSubmitted int
	ResponsesFailed    int
	ClassesVerified    int
	DuplicatesRejected int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
