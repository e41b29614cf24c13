package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/pkg/metrics"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		class_id TEXT NOT NULL,
		name TEXT NOT NULL,
		age INTEGER NOT NULL DEFAULT 0,
		gender TEXT NOT NULL DEFAULT '',
		generation TEXT NOT NULL DEFAULT '',
		quiz_status TEXT NOT NULL DEFAULT '',
		custom_fields TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_students_class ON students(class_id)`,
	`CREATE INDEX IF NOT EXISTS idx_students_org ON students(org_id)`,
	`CREATE TABLE IF NOT EXISTS raw_responses (
		student_id TEXT NOT NULL,
		instrument TEXT NOT NULL,
		answers TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		PRIMARY KEY (student_id, instrument)
	)`,
	`CREATE TABLE IF NOT EXISTS custom_field_defs (
		org_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		field_key TEXT NOT NULL,
		label TEXT NOT NULL,
		field_type TEXT NOT NULL,
		options TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (org_id, field_key)
	)`,
}

type studentRow struct {
	ID           string `db:"id"`
	OrgID        string `db:"org_id"`
	ClassID      string `db:"class_id"`
	Name         string `db:"name"`
	Age          int    `db:"age"`
	Gender       string `db:"gender"`
	Generation   string `db:"generation"`
	QuizStatus   string `db:"quiz_status"`
	CustomFields string `db:"custom_fields"`
}

func (r studentRow) student() (model.Student, error) {
	s := model.Student{
		ID: r.ID, OrgID: r.OrgID, ClassID: r.ClassID, Name: r.Name, Age: r.Age,
		Gender: r.Gender, Generation: r.Generation, QuizStatus: model.QuizStatus(r.QuizStatus),
	}
	if err := json.Unmarshal([]byte(r.CustomFields), &s.CustomFields); err != nil {
		return model.Student{}, fmt.Errorf("decode custom fields of %s: %w", r.ID, err)
	}
	if len(s.CustomFields) == 0 {
		s.CustomFields = nil
	}
	return s, nil
}

type responseRow struct {
	StudentID   string `db:"student_id"`
	Instrument  string `db:"instrument"`
	Answers     string `db:"answers"`
	SubmittedAt string `db:"submitted_at"`
}

func (r responseRow) response() (model.RawResponse, error) {
	out := model.RawResponse{StudentID: r.StudentID, Instrument: model.Instrument(r.Instrument)}
	if err := json.Unmarshal([]byte(r.Answers), &out.Answers); err != nil {
		return model.RawResponse{}, fmt.Errorf("decode answers of %s/%s: %w", r.StudentID, r.Instrument, err)
	}
	at, err := time.Parse(time.RFC3339Nano, r.SubmittedAt)
	if err != nil {
		return model.RawResponse{}, fmt.Errorf("decode submitted_at of %s/%s: %w", r.StudentID, r.Instrument, err)
	}
	out.SubmittedAt = at
	return out, nil
}

type fieldRow struct {
	Key     string `db:"field_key"`
	Label   string `db:"label"`
	Type    string `db:"field_type"`
	Options string `db:"options"`
}

// SQLStore persists records through database/sql. Queries are written with
// '?' placeholders and rebound for the driver.
type SQLStore struct {
	db *sqlx.DB

	updater
}

// OpenSQLStore connects to dsn with driver ("sqlite" or "pgx"), creates
// the schema and starts the metrics updater.
func OpenSQLStore(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(o.maxOpenConns)
	if driver == DriverSQLite {
		// every connection to ":memory:" is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	s := &SQLStore{db: db}
	s.updater.start(ctx, o.metricsUpdateInterval, s.Counts)
	return s, nil
}

// Close stops the metrics updater and closes the pool.
func (s *SQLStore) Close() error {
	s.updater.stop()
	return s.db.Close()
}

func (s *SQLStore) SaveStudent(ctx context.Context, st model.Student) error {
	defer observe(time.Now(), metrics.RecordRepositoryUpdateLatency)
	if st.ID == "" {
		return fmt.Errorf("%w: student id is required", ErrInvalidRecord)
	}
	fields := st.CustomFields
	if fields == nil {
		fields = map[string]string{}
	}
	cf, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode custom fields: %w", err)
	}
	q := s.db.Rebind(`INSERT INTO students
		(id, org_id, class_id, name, age, gender, generation, quiz_status, custom_fields)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			org_id = excluded.org_id, class_id = excluded.class_id, name = excluded.name,
			age = excluded.age, gender = excluded.gender, generation = excluded.generation,
			quiz_status = excluded.quiz_status, custom_fields = excluded.custom_fields`)
	if _, err := s.db.ExecContext(ctx, q, st.ID, st.OrgID, st.ClassID, st.Name, st.Age,
		st.Gender, st.Generation, string(st.QuizStatus), string(cf)); err != nil {
		metrics.RecordErrorByComponent("repository", "write")
		return fmt.Errorf("save student %s: %w", st.ID, err)
	}
	return nil
}

func (s *SQLStore) FetchStudent(ctx context.Context, id string) (model.Student, error) {
	defer observe(time.Now(), metrics.RecordRepositoryQueryLatency)
	var row studentRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM students WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Student{}, ErrNotFound
	}
	if err != nil {
		return model.Student{}, fmt.Errorf("fetch student %s: %w", id, err)
	}
	return row.student()
}

func (s *SQLStore) ListByClass(ctx context.Context, classID string) ([]model.Student, error) {
	return s.list(ctx, "class_id", classID)
}

func (s *SQLStore) ListByOrg(ctx context.Context, orgID string) ([]model.Student, error) {
	return s.list(ctx, "org_id", orgID)
}

func (s *SQLStore) list(ctx context.Context, column, value string) ([]model.Student, error) {
	defer observe(time.Now(), metrics.RecordRepositoryQueryLatency)
	var rows []studentRow
	q := s.db.Rebind(`SELECT * FROM students WHERE ` + column + ` = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &rows, q, value); err != nil {
		return nil, fmt.Errorf("list students by %s: %w", column, err)
	}
	out := make([]model.Student, 0, len(rows))
	for _, r := range rows {
		st, err := r.student()
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *SQLStore) SaveRawResponse(ctx context.Context, r model.RawResponse) error {
	defer observe(time.Now(), metrics.RecordRepositoryUpdateLatency)
	if r.StudentID == "" || !r.Instrument.Valid() {
		return fmt.Errorf("%w: response needs a student id and a known instrument", ErrInvalidRecord)
	}
	answers := r.Answers
	if answers == nil {
		answers = map[string]model.Answer{}
	}
	enc, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	q := s.db.Rebind(`INSERT INTO raw_responses (student_id, instrument, answers, submitted_at)
		VALUES (?, ?, ?, ?) ON CONFLICT (student_id, instrument) DO NOTHING`)
	res, err := s.db.ExecContext(ctx, q, r.StudentID, string(r.Instrument), string(enc),
		r.SubmittedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		metrics.RecordErrorByComponent("repository", "write")
		return fmt.Errorf("save response %s/%s: %w", r.StudentID, r.Instrument, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save response %s/%s: %w", r.StudentID, r.Instrument, err)
	}
	if n == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}

func (s *SQLStore) FetchRawResponse(ctx context.Context, studentID string, inst model.Instrument) (model.RawResponse, error) {
	defer observe(time.Now(), metrics.RecordRepositoryQueryLatency)
	var row responseRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind(`SELECT * FROM raw_responses WHERE student_id = ? AND instrument = ?`), studentID, string(inst))
	if errors.Is(err, sql.ErrNoRows) {
		return model.RawResponse{}, ErrNotFound
	}
	if err != nil {
		return model.RawResponse{}, fmt.Errorf("fetch response %s/%s: %w", studentID, inst, err)
	}
	return row.response()
}

func (s *SQLStore) FetchRawResponses(ctx context.Context, studentID string) (map[model.Instrument]model.RawResponse, error) {
	defer observe(time.Now(), metrics.RecordRepositoryQueryLatency)
	var rows []responseRow
	if err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind(`SELECT * FROM raw_responses WHERE student_id = ?`), studentID); err != nil {
		return nil, fmt.Errorf("fetch responses of %s: %w", studentID, err)
	}
	out := make(map[model.Instrument]model.RawResponse, len(rows))
	for _, row := range rows {
		r, err := row.response()
		if err != nil {
			return nil, err
		}
		out[r.Instrument] = r
	}
	return out, nil
}

func (s *SQLStore) SaveCustomFields(ctx context.Context, orgID string, defs []model.CustomFieldDef) error {
	defer observe(time.Now(), metrics.RecordRepositoryUpdateLatency)
	if err := validateDefs(defs); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM custom_field_defs WHERE org_id = ?`), orgID); err != nil {
		return fmt.Errorf("clear custom fields of %s: %w", orgID, err)
	}
	ins := tx.Rebind(`INSERT INTO custom_field_defs (org_id, position, field_key, label, field_type, options)
		VALUES (?, ?, ?, ?, ?, ?)`)
	for i, d := range defs {
		opts := d.Options
		if opts == nil {
			opts = []string{}
		}
		enc, err := json.Marshal(opts)
		if err != nil {
			return fmt.Errorf("encode options: %w", err)
		}
		if _, err := tx.ExecContext(ctx, ins, orgID, i, d.Key, d.Label, string(d.Type), string(enc)); err != nil {
			return fmt.Errorf("insert custom field %s: %w", d.Key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) CustomFields(ctx context.Context, orgID string) ([]model.CustomFieldDef, error) {
	var rows []fieldRow
	q := s.db.Rebind(`SELECT field_key, label, field_type, options FROM custom_field_defs
		WHERE org_id = ? ORDER BY position`)
	if err := s.db.SelectContext(ctx, &rows, q, orgID); err != nil {
		return nil, fmt.Errorf("custom fields of %s: %w", orgID, err)
	}
	out := make([]model.CustomFieldDef, 0, len(rows))
	for _, r := range rows {
		d := model.CustomFieldDef{Key: r.Key, Label: r.Label, Type: model.FieldType(r.Type)}
		if err := json.Unmarshal([]byte(r.Options), &d.Options); err != nil {
			return nil, fmt.Errorf("decode options of %s: %w", r.Key, err)
		}
		if len(d.Options) == 0 {
			d.Options = nil
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *SQLStore) Counts(ctx context.Context) (int, int, error) {
	var students, responses int
	if err := s.db.GetContext(ctx, &students, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, 0, fmt.Errorf("count students: %w", err)
	}
	if err := s.db.GetContext(ctx, &responses, `SELECT COUNT(*) FROM raw_responses`); err != nil {
		return 0, 0, fmt.Errorf("count responses: %w", err)
	}
	return students, responses, nil
}

// Open returns the store selected by driver: "memory", "sqlite" or "pgx".
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	switch strings.ToLower(driver) {
	case "", DriverMemory:
		return NewMemoryStore(ctx, opts...), nil
	case DriverSQLite, DriverPostgres:
		return OpenSQLStore(ctx, strings.ToLower(driver), dsn, opts...)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
}
