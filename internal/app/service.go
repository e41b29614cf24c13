// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
//
// Profiles are never stored: every read recomputes them from the raw
// responses in the store, optionally memoized by a content hash of those
// responses.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/perfil/internal/adapters/ai"
	"github.com/okian/perfil/internal/adapters/mail"
	"github.com/okian/perfil/internal/adapters/mq/queue"
	"github.com/okian/perfil/internal/adapters/mq/worker"
	"github.com/okian/perfil/internal/adapters/repository"
	"github.com/okian/perfil/internal/domain/classroom"
	"github.com/okian/perfil/internal/domain/export"
	"github.com/okian/perfil/internal/domain/insight"
	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/profile"
	"github.com/okian/perfil/internal/domain/profilecache"
	"github.com/okian/perfil/internal/domain/scoring"
	"github.com/okian/perfil/pkg/logger"
	"github.com/okian/perfil/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// Service implements the API dependencies for the profiling engine.
type Service struct {
	mu       sync.RWMutex
	statusMu sync.Mutex

	// Core components
	store      repository.Store
	ownsStore  bool
	scorer     scoring.Scorer
	aggregator *profile.Aggregator
	narrator   *insight.Narrator
	cache      profilecache.Cache
	queue      *queue.InMemoryQueue
	pool       *worker.Pool
	sink       mail.Sink
	text       ai.TextService

	// Configuration
	workerCount          int
	queueSize            int
	cacheSize            int
	aggregateConcurrency int
	storeDriver          string
	storeDSN             string
	aggregatorOpts       []profile.Option
	classOpts            []classroom.Option
	workerOpts           []worker.Option

	// State
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:          runtime.NumCPU(),
		queueSize:            1000,
		cacheSize:            1024,
		aggregateConcurrency: runtime.NumCPU() * 2,
		storeDriver:          repository.DriverMemory,
		scorer:               scoring.NewTableScorer(),
		narrator:             insight.NewNarrator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.aggregator = profile.NewAggregator(append([]profile.Option{profile.WithScorer(s.scorer)}, s.aggregatorOpts...)...)
	return s
}

// Start opens the store and starts the delivery workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting profiling service...")

	if s.store == nil || s.ownsStore {
		store, err := repository.Open(ctx, s.storeDriver, s.storeDSN)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}
	if s.cacheSize > 0 {
		s.cache = profilecache.NewInMemoryCache(profilecache.WithMaxSize(s.cacheSize))
	}
	if s.sink == nil {
		s.sink = mail.NewConsoleSink(logger.Get().Named("mail"))
	}
	if s.text == nil {
		s.text = ai.NewOffline()
	}

	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	s.pool = worker.NewPool(s.workerCount, s.queue, s, s.sink, s.workerOpts...)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "profiling service started",
		logger.String("store", s.storeDriver),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("cacheSize", s.cacheSize),
		logger.String("ai", s.text.Provider()),
	)
	return nil
}

// Stop drains pending deliveries and closes the store if the service
// opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping profiling service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "delivery workers did not drain", logger.Error(err))
	}
	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "error closing store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "profiling service stopped")
}

func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// UpsertStudent inserts or replaces a student record. Custom field values
// must be declared by the student's organization.
func (s *Service) UpsertStudent(ctx context.Context, st model.Student) (model.Student, error) {
	if err := s.running(); err != nil {
		return model.Student{}, err
	}
	if strings.TrimSpace(st.ID) == "" {
		return model.Student{}, fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}
	if len(st.CustomFields) > 0 {
		defs, err := s.store.CustomFields(ctx, st.OrgID)
		if err != nil {
			return model.Student{}, err
		}
		declared := make(map[string]bool, len(defs))
		for _, d := range defs {
			declared[d.Key] = true
		}
		for k := range st.CustomFields {
			if !declared[k] {
				return model.Student{}, fmt.Errorf("%w: custom field %q is not declared", ErrInvalidInput, k)
			}
		}
	}

	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	rs, err := s.store.FetchRawResponses(ctx, st.ID)
	if err != nil {
		return model.Student{}, err
	}
	st.QuizStatus = quizStatus(len(rs))
	if err := s.store.SaveStudent(ctx, st); err != nil {
		return model.Student{}, err
	}
	return st, nil
}

// SaveCustomFields replaces the custom field definitions of an organization.
func (s *Service) SaveCustomFields(ctx context.Context, orgID string, defs []model.CustomFieldDef) error {
	if err := s.running(); err != nil {
		return err
	}
	if strings.TrimSpace(orgID) == "" {
		return fmt.Errorf("%w: org id is required", ErrInvalidInput)
	}
	return s.store.SaveCustomFields(ctx, orgID, defs)
}

// SubmitResponse stores an immutable response. Responses naming categories
// outside the instrument's table are rejected; responses with missing
// answers are kept and score as incomplete.
func (s *Service) SubmitResponse(ctx context.Context, r model.RawResponse) error {
	if err := s.running(); err != nil {
		return err
	}
	if !r.Instrument.Valid() {
		return fmt.Errorf("%w: unknown instrument %q", ErrInvalidInput, r.Instrument)
	}
	if _, err := s.store.FetchStudent(ctx, r.StudentID); err != nil {
		return err
	}
	if _, err := s.scorer.Score(r.Instrument, r); err != nil && !errors.Is(err, scoring.ErrValidation) {
		metrics.RecordScoringError()
		return err
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}

	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if err := s.store.SaveRawResponse(ctx, r); err != nil {
		if errors.Is(err, repository.ErrAlreadySubmitted) {
			metrics.RecordResponseDuplicate()
		}
		return err
	}
	metrics.RecordResponseStored()

	st, err := s.store.FetchStudent(ctx, r.StudentID)
	if err != nil {
		return err
	}
	rs, err := s.store.FetchRawResponses(ctx, r.StudentID)
	if err != nil {
		return err
	}
	st.QuizStatus = quizStatus(len(rs))
	return s.store.SaveStudent(ctx, st)
}

func quizStatus(answered int) model.QuizStatus {
	switch {
	case answered == 0:
		return model.QuizNotStarted
	case answered < len(model.Instruments):
		return model.QuizPartial
	default:
		return model.QuizCompleted
	}
}

// Student returns the stored student record.
func (s *Service) Student(ctx context.Context, id string) (model.Student, error) {
	if err := s.running(); err != nil {
		return model.Student{}, err
	}
	return s.store.FetchStudent(ctx, id)
}

// Profile recomputes the unified profile of a student.
func (s *Service) Profile(ctx context.Context, studentID string) (profile.UnifiedProfile, error) {
	if err := s.running(); err != nil {
		return profile.UnifiedProfile{}, err
	}
	if _, err := s.store.FetchStudent(ctx, studentID); err != nil {
		return profile.UnifiedProfile{}, err
	}
	return s.profileOf(ctx, studentID)
}

func (s *Service) profileOf(ctx context.Context, studentID string) (profile.UnifiedProfile, error) {
	rs, err := s.store.FetchRawResponses(ctx, studentID)
	if err != nil {
		return profile.UnifiedProfile{}, err
	}

	var key uint64
	if s.cache != nil {
		key = profile.Fingerprint(studentID, rs)
		if p, ok := s.cache.Get(ctx, key); ok {
			// Same inputs, same scores; only the stamp is refreshed.
			p.GeneratedAt = s.aggregator.Now()
			return p, nil
		}
	}

	start := time.Now()
	p, err := s.aggregator.Aggregate(studentID, rs)
	metrics.RecordAggregationLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordScoringError()
		metrics.RecordErrorByComponent("service", "aggregate")
		return profile.UnifiedProfile{}, err
	}
	metrics.RecordProfileAggregated()
	for _, inst := range p.Incomplete() {
		metrics.RecordIncompleteInstrument(string(inst))
	}

	if s.cache != nil {
		s.cache.Put(ctx, key, p)
	}
	return p, nil
}

// Insights narrates the profile of a student. Narratives are not cached.
func (s *Service) Insights(ctx context.Context, studentID string) (insight.InsightSet, error) {
	st, p, err := s.studentProfile(ctx, studentID)
	if err != nil {
		return insight.InsightSet{}, err
	}
	metrics.RecordNarration()
	return s.narrator.Narrate(p, st.Meta()), nil
}

// Report builds the report payload of a student.
func (s *Service) Report(ctx context.Context, studentID string) (export.Report, error) {
	if err := s.running(); err != nil {
		return export.Report{}, err
	}
	return s.report(ctx, studentID)
}

// report skips the started check; workers call it while Stop holds the lock.
func (s *Service) report(ctx context.Context, studentID string) (export.Report, error) {
	st, p, err := s.loadProfile(ctx, studentID)
	if err != nil {
		return export.Report{}, err
	}
	metrics.RecordNarration()
	metrics.RecordExport("report")
	return export.ReportPayload(s.narrator, st, p), nil
}

func (s *Service) studentProfile(ctx context.Context, studentID string) (model.Student, profile.UnifiedProfile, error) {
	if err := s.running(); err != nil {
		return model.Student{}, profile.UnifiedProfile{}, err
	}
	return s.loadProfile(ctx, studentID)
}

func (s *Service) loadProfile(ctx context.Context, studentID string) (model.Student, profile.UnifiedProfile, error) {
	st, err := s.store.FetchStudent(ctx, studentID)
	if err != nil {
		return model.Student{}, profile.UnifiedProfile{}, err
	}
	p, err := s.profileOf(ctx, studentID)
	if err != nil {
		return model.Student{}, profile.UnifiedProfile{}, err
	}
	return st, p, nil
}

// classProfiles computes the profiles of a class in parallel. Both slices
// are ordered by student id.
func (s *Service) classProfiles(ctx context.Context, classID string) ([]model.Student, []profile.UnifiedProfile, error) {
	if err := s.running(); err != nil {
		return nil, nil, err
	}
	students, err := s.store.ListByClass(ctx, classID)
	if err != nil {
		return nil, nil, err
	}

	profiles := make([]profile.UnifiedProfile, len(students))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.aggregateConcurrency)
	for i := range students {
		g.Go(func() error {
			p, err := s.profileOf(gctx, students[i].ID)
			if err != nil {
				return err
			}
			profiles[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return students, profiles, nil
}

// ClassAggregate builds histograms and suggested teams for a class. An
// empty class yields zero histograms.
func (s *Service) ClassAggregate(ctx context.Context, classID string) (classroom.ClassAggregate, error) {
	start := time.Now()
	_, profiles, err := s.classProfiles(ctx, classID)
	if err != nil {
		return classroom.ClassAggregate{}, err
	}
	agg := classroom.Aggregate(profiles, s.classOpts...)
	metrics.RecordClassAggregation()
	metrics.RecordClassAggregationLatency(float64(time.Since(start).Milliseconds()))
	return agg, nil
}

// ClassSummary renders the compact text description of a class.
func (s *Service) ClassSummary(ctx context.Context, classID string) (string, error) {
	agg, err := s.ClassAggregate(ctx, classID)
	if err != nil {
		return "", err
	}
	return export.ClassSummary(agg), nil
}

// ExportCSV writes the class roster with the requested columns. Custom
// columns resolve against the organization of the class.
func (s *Service) ExportCSV(ctx context.Context, classID string, columns []string, w io.Writer) error {
	students, profiles, err := s.classProfiles(ctx, classID)
	if err != nil {
		return err
	}
	var defs []model.CustomFieldDef
	if len(students) > 0 {
		if defs, err = s.store.CustomFields(ctx, students[0].OrgID); err != nil {
			return err
		}
	}
	f, err := export.NewFormatter(columns, defs)
	if err != nil {
		return err
	}
	records := make([]export.Record, len(students))
	for i := range students {
		records[i] = export.Record{Student: students[i], Profile: profiles[i]}
	}
	if err := f.WriteCSV(w, records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	metrics.RecordExport("csv")
	return nil
}

// Advice asks the text service for lesson plan suggestions. The class
// summary is embedded verbatim.
func (s *Service) Advice(ctx context.Context, classID, plan string) (string, error) {
	summary, err := s.ClassSummary(ctx, classID)
	if err != nil {
		return "", err
	}
	return s.text.Suggest(ctx, summary, plan)
}

// Rewrite asks the text service for a version of plan adapted to the class.
func (s *Service) Rewrite(ctx context.Context, classID, plan string) (string, error) {
	summary, err := s.ClassSummary(ctx, classID)
	if err != nil {
		return "", err
	}
	return s.text.Rewrite(ctx, summary, plan)
}

// EmailReport queues delivery of a student's report to an address.
func (s *Service) EmailReport(ctx context.Context, studentID, to string) (queue.Job, error) {
	if err := s.running(); err != nil {
		return queue.Job{}, err
	}
	if strings.TrimSpace(to) == "" {
		return queue.Job{}, fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}
	if _, err := s.store.FetchStudent(ctx, studentID); err != nil {
		return queue.Job{}, err
	}
	job := queue.NewJob(studentID, to)
	if !s.queue.Enqueue(ctx, job) {
		return queue.Job{}, ErrBackpressure
	}
	s.logger.Debug(ctx, "report delivery queued",
		logger.String("job", job.ID),
		logger.String("student", studentID),
	)
	return job, nil
}

// Compose renders the report email of a delivery job.
func (s *Service) Compose(ctx context.Context, job queue.Job) (mail.Message, error) {
	r, err := s.report(ctx, job.StudentID)
	if err != nil {
		return mail.Message{}, err
	}
	return mail.Message{
		To:      job.To,
		Subject: "Profile report: " + r.Student.Name,
		Text:    renderReport(r),
	}, nil
}

func renderReport(r export.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile report for %s\n", r.Student.Name)
	for _, d := range r.Dimensions {
		if d.Label != "" {
			fmt.Fprintf(&b, "%s: %s\n", d.Instrument, d.Label)
		} else {
			fmt.Fprintf(&b, "%s: %s\n", d.Instrument, d.Status)
		}
	}
	sections := []struct{ title, text string }{
		{"How they think", r.Insights.Mind},
		{"Superpowers", r.Insights.Superpowers},
		{"What drives them", r.Insights.Motivation},
		{"Working with them", r.Insights.Manual},
	}
	for _, sec := range sections {
		fmt.Fprintf(&b, "\n%s\n%s\n", sec.title, sec.text)
	}
	b.WriteString("\nTips\n")
	for _, t := range r.Insights.Tips {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	return b.String()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"cacheSize":   s.cacheSize,
		"store":       s.storeDriver,
	}
	if !s.started {
		return stats
	}

	stats["queueLength"] = s.queue.Len(ctx)
	stats["deliveriesProcessed"] = s.pool.Processed()
	stats["aiProvider"] = s.text.Provider()
	if s.cache != nil {
		stats["cachedProfiles"] = s.cache.Size()
	}
	students, responses, err := s.store.Counts(ctx)
	if err != nil {
		s.logger.Warn(ctx, "failed to count records", logger.Error(err))
		return stats
	}
	stats["students"] = students
	stats["responses"] = responses

	metrics.UpdateRepositoryRecords("students", students)
	metrics.UpdateRepositoryRecords("responses", responses)
	metrics.UpdateWorkerCount(s.pool.Size())
	return stats
}
