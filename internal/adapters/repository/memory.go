package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/pkg/metrics"
)

type responseKey struct {
	studentID  string
	instrument model.Instrument
}

// MemoryStore keeps every record in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	students  map[string]model.Student
	responses map[responseKey]model.RawResponse
	fields    map[string][]model.CustomFieldDef

	updater
}

// NewMemoryStore constructs an in-memory store and starts its metrics
// updater, which stops with ctx or Close.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &MemoryStore{
		students:  make(map[string]model.Student),
		responses: make(map[responseKey]model.RawResponse),
		fields:    make(map[string][]model.CustomFieldDef),
	}
	s.updater.start(ctx, o.metricsUpdateInterval, s.Counts)
	return s
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.updater.stop()
	return nil
}

func (s *MemoryStore) SaveStudent(ctx context.Context, st model.Student) error {
	defer observe(time.Now(), metrics.RecordRepositoryUpdateLatency)
	if st.ID == "" {
		return fmt.Errorf("%w: student id is required", ErrInvalidRecord)
	}
	st.CustomFields = copyFields(st.CustomFields)
	s.mu.Lock()
	s.students[st.ID] = st
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) FetchStudent(ctx context.Context, id string) (model.Student, error) {
	defer observe(time.Now(), metrics.RecordRepositoryQueryLatency)
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Student{}, ErrNotFound
	}
	st.CustomFields = copyFields(st.CustomFields)
	return st, nil
}

func (s *MemoryStore) ListByClass(ctx context.Context, classID string) ([]model.Student, error) {
	return s.list(func(st model.Student) bool { return st.ClassID == classID }), nil
}

func (s *MemoryStore) ListByOrg(ctx context.Context, orgID string) ([]model.Student, error) {
	return s.list(func(st model.Student) bool { return st.OrgID == orgID }), nil
}

func (s *MemoryStore) list(keep func(model.Student) bool) []model.Student {
	defer observe(time.Now(), metrics.RecordRepositoryQueryLatency)
	s.mu.RLock()
	out := make([]model.Student, 0)
	for _, st := range s.students {
		if keep(st) {
			st.CustomFields = copyFields(st.CustomFields)
			out = append(out, st)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) SaveRawResponse(ctx context.Context, r model.RawResponse) error {
	defer observe(time.Now(), metrics.RecordRepositoryUpdateLatency)
	if r.StudentID == "" || !r.Instrument.Valid() {
		return fmt.Errorf("%w: response needs a student id and a known instrument", ErrInvalidRecord)
	}
	k := responseKey{r.StudentID, r.Instrument}
	r.Answers = copyAnswers(r.Answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.responses[k]; ok {
		return ErrAlreadySubmitted
	}
	s.responses[k] = r
	return nil
}

func (s *MemoryStore) FetchRawResponse(ctx context.Context, studentID string, inst model.Instrument) (model.RawResponse, error) {
	defer observe(time.Now(), metrics.RecordRepositoryQueryLatency)
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.responses[responseKey{studentID, inst}]
	if !ok {
		return model.RawResponse{}, ErrNotFound
	}
	r.Answers = copyAnswers(r.Answers)
	return r, nil
}

func (s *MemoryStore) FetchRawResponses(ctx context.Context, studentID string) (map[model.Instrument]model.RawResponse, error) {
	defer observe(time.Now(), metrics.RecordRepositoryQueryLatency)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.Instrument]model.RawResponse, len(model.Instruments))
	for _, inst := range model.Instruments {
		if r, ok := s.responses[responseKey{studentID, inst}]; ok {
			r.Answers = copyAnswers(r.Answers)
			out[inst] = r
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveCustomFields(ctx context.Context, orgID string, defs []model.CustomFieldDef) error {
	defer observe(time.Now(), metrics.RecordRepositoryUpdateLatency)
	if err := validateDefs(defs); err != nil {
		return err
	}
	cp := make([]model.CustomFieldDef, len(defs))
	copy(cp, defs)
	s.mu.Lock()
	s.fields[orgID] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) CustomFields(ctx context.Context, orgID string) ([]model.CustomFieldDef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CustomFieldDef, len(s.fields[orgID]))
	copy(out, s.fields[orgID])
	return out, nil
}

func (s *MemoryStore) Counts(ctx context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students), len(s.responses), nil
}

func copyFields(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyAnswers(m map[string]model.Answer) map[string]model.Answer {
	out := make(map[string]model.Answer, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func validateDefs(defs []model.CustomFieldDef) error {
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if d.Key == "" {
			return fmt.Errorf("%w: custom field key is required", ErrInvalidRecord)
		}
		if seen[d.Key] {
			return fmt.Errorf("%w: duplicate custom field %q", ErrInvalidRecord, d.Key)
		}
		seen[d.Key] = true
	}
	return nil
}

func observe(start time.Time, record func(float64)) {
	record(float64(time.Since(start).Microseconds()) / 1000)
}
