// Package repository stores students, raw responses and custom field
// definitions. Records are reachable by id, organization id and class id.
package repository

import (
	"context"

	"github.com/okian/perfil/internal/domain/model"
)

// Store provides read/write access to the source records the engine
// recomputes profiles from.
type Store interface {
	// SaveStudent inserts or replaces a student record.
	SaveStudent(ctx context.Context, s model.Student) error
	// FetchStudent returns ErrNotFound for unknown ids.
	FetchStudent(ctx context.Context, id string) (model.Student, error)
	// ListByClass returns the students of a class ordered by id.
	ListByClass(ctx context.Context, classID string) ([]model.Student, error)
	// ListByOrg returns the students of an organization ordered by id.
	ListByOrg(ctx context.Context, orgID string) ([]model.Student, error)

	// SaveRawResponse stores an immutable response. A second response for
	// the same student and instrument fails with ErrAlreadySubmitted.
	SaveRawResponse(ctx context.Context, r model.RawResponse) error
	// FetchRawResponse returns ErrNotFound when the student has not
	// answered inst.
	FetchRawResponse(ctx context.Context, studentID string, inst model.Instrument) (model.RawResponse, error)
	// FetchRawResponses returns every stored response of the student.
	FetchRawResponses(ctx context.Context, studentID string) (map[model.Instrument]model.RawResponse, error)

	// SaveCustomFields replaces the custom field definitions of an org.
	SaveCustomFields(ctx context.Context, orgID string, defs []model.CustomFieldDef) error
	// CustomFields returns the definitions of an org in declaration order.
	CustomFields(ctx context.Context, orgID string) ([]model.CustomFieldDef, error)

	// Counts returns the number of stored students and responses.
	Counts(ctx context.Context) (students, responses int, err error)

	Close() error
}
