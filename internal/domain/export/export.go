// Package export flattens profiles into CSV rows, report payloads and the
// class summary used as AI prompt context.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/profile"
	"github.com/okian/perfil/internal/domain/scoring"
)

// CustomPrefix prefixes custom field columns.
const CustomPrefix = "custom:"

// Built-in columns.
const (
	ColID          = "id"
	ColName        = "name"
	ColAge         = "age"
	ColGender      = "gender"
	ColGeneration  = "generation"
	ColQuizStatus  = "quiz_status"
	ColVARK        = "vark"
	ColDISC        = "disc"
	ColJungian     = "jungian"
	ColSchwartz    = "schwartz"
	ColSchwartzTop = "schwartz_top2"
	ColGeneratedAt = "generated_at"
)

// BuiltinColumns lists the built-in columns in default order.
var BuiltinColumns = []string{
	ColID, ColName, ColAge, ColGender, ColGeneration, ColQuizStatus,
	ColVARK, ColDISC, ColJungian, ColSchwartz, ColSchwartzTop, ColGeneratedAt,
}

var builtinLabels = map[string]string{
	ColID:          "ID",
	ColName:        "Name",
	ColAge:         "Age",
	ColGender:      "Gender",
	ColGeneration:  "Generation",
	ColQuizStatus:  "Quiz status",
	ColVARK:        "Learning style",
	ColDISC:        "Behavioral style",
	ColJungian:     "Cognitive type",
	ColSchwartz:    "Primary value",
	ColSchwartzTop: "Top values",
	ColGeneratedAt: "Generated at",
}

// Record is one exported student.
type Record struct {
	Student model.Student
	Profile profile.UnifiedProfile
}

// Formatter renders rows for a fixed, caller-chosen column list.
type Formatter struct {
	columns []string
	custom  map[string]model.CustomFieldDef
}

// NewFormatter validates columns against the built-ins and defs. An empty
// column list selects every built-in column followed by every custom field.
func NewFormatter(columns []string, defs []model.CustomFieldDef) (*Formatter, error) {
	f := &Formatter{custom: make(map[string]model.CustomFieldDef, len(defs))}
	for _, d := range defs {
		f.custom[d.Key] = d
	}
	if len(columns) == 0 {
		columns = append([]string(nil), BuiltinColumns...)
		for _, d := range defs {
			columns = append(columns, CustomPrefix+d.Key)
		}
	}
	for _, c := range columns {
		if _, ok := builtinLabels[c]; ok {
			continue
		}
		if key, ok := strings.CutPrefix(c, CustomPrefix); ok {
			if _, ok := f.custom[key]; ok {
				continue
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
	}
	f.columns = append([]string(nil), columns...)
	return f, nil
}

// Columns returns the selected column names.
func (f *Formatter) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Header returns the display labels of the selected columns.
func (f *Formatter) Header() []string {
	out := make([]string, len(f.columns))
	for i, c := range f.columns {
		if l, ok := builtinLabels[c]; ok {
			out[i] = l
			continue
		}
		d := f.custom[strings.TrimPrefix(c, CustomPrefix)]
		out[i] = d.Label
		if out[i] == "" {
			out[i] = d.Key
		}
	}
	return out
}

// Row flattens one student into the selected columns. Missing values are
// empty strings.
func (f *Formatter) Row(s model.Student, p profile.UnifiedProfile) []string {
	out := make([]string, len(f.columns))
	for i, c := range f.columns {
		out[i] = f.value(c, s, p)
	}
	return out
}

func (f *Formatter) value(col string, s model.Student, p profile.UnifiedProfile) string {
	switch col {
	case ColID:
		return s.ID
	case ColName:
		return s.Name
	case ColAge:
		if s.Age <= 0 {
			return ""
		}
		return strconv.Itoa(s.Age)
	case ColGender:
		return s.Gender
	case ColGeneration:
		return s.Generation
	case ColQuizStatus:
		return string(s.QuizStatus)
	case ColVARK:
		return primary(p.VARK)
	case ColDISC:
		return primary(p.DISC)
	case ColJungian:
		if !p.Jungian.Complete() {
			return ""
		}
		return p.Jungian.Result.Label()
	case ColSchwartz:
		return primary(p.Schwartz)
	case ColSchwartzTop:
		if !p.Schwartz.Complete() {
			return ""
		}
		return join(p.Schwartz.Result.Dominant, ";")
	case ColGeneratedAt:
		if p.GeneratedAt.IsZero() {
			return ""
		}
		return p.GeneratedAt.UTC().Format(time.RFC3339)
	}
	return s.CustomFields[strings.TrimPrefix(col, CustomPrefix)]
}

// WriteCSV writes the header and one row per record.
func (f *Formatter) WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(f.Row(r.Student, r.Profile)); err != nil {
			return fmt.Errorf("write row %s: %w", r.Student.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeRow renders fields as a single CSV line without the trailing
// newline. Fields with delimiters, quotes or line breaks are quoted.
func EncodeRow(fields []string) (string, error) {
	var b strings.Builder
	cw := csv.NewWriter(&b)
	if err := cw.Write(fields); err != nil {
		return "", err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// csv.Reader folds CRLF into LF even inside quoted fields, so carriage
// returns are escaped around it. \x00 is the escape byte.
var (
	crEscape   = strings.NewReplacer("\x00", "\x00\x00", "\r", "\x00r")
	crUnescape = strings.NewReplacer("\x00\x00", "\x00", "\x00r", "\r")
)

// DecodeRow parses a line produced by EncodeRow back into its fields,
// keeping carriage returns inside values.
func DecodeRow(line string) ([]string, error) {
	rows, err := ReadCSV(strings.NewReader(line))
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("decode row: got %d records", len(rows))
	}
	return rows[0], nil
}

// ReadCSV reads every record written by WriteCSV. Unlike a bare
// csv.Reader it returns values byte for byte, CRLF line breaks included.
func ReadCSV(r io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	cr := csv.NewReader(strings.NewReader(crEscape.Replace(string(raw))))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	for _, row := range rows {
		for i, v := range row {
			row[i] = crUnescape.Replace(v)
		}
	}
	return rows, nil
}

func primary(d profile.Dimension) string {
	if !d.Complete() {
		return ""
	}
	return string(d.Result.Primary())
}

func join(cats []scoring.Category, sep string) string {
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, sep)
}
