package api

import (
	"net/http"
	"time"

	"github.com/okian/perfil/internal/domain/model"
)

type studentRequest struct {
	ID           string            `json:"id" validate:"required,max=64"`
	OrgID        string            `json:"org_id" validate:"required,max=64"`
	ClassID      string            `json:"class_id" validate:"required,max=64"`
	Name         string            `json:"name" validate:"required,max=200"`
	Age          int               `json:"age" validate:"gte=0,lte=120"`
	Gender       string            `json:"gender" validate:"max=32"`
	Generation   string            `json:"generation" validate:"max=32"`
	CustomFields map[string]string `json:"custom_fields"`
}

type responseRequest struct {
	StudentID   string                  `json:"student_id" validate:"required"`
	Instrument  string                  `json:"instrument" validate:"required,oneof=vark disc jungian schwartz"`
	Answers     map[string]model.Answer `json:"answers" validate:"required"`
	SubmittedAt *time.Time              `json:"submitted_at"`
}

type customFieldRequest struct {
	Key     string   `json:"key" validate:"required,max=64"`
	Label   string   `json:"label" validate:"max=200"`
	Type    string   `json:"type" validate:"omitempty,oneof=text number select bool"`
	Options []string `json:"options"`
}

type customFieldsRequest struct {
	Fields []customFieldRequest `json:"fields" validate:"dive"`
}

type ackResponse struct {
	Status string `json:"status"`
}

// StudentHandler handles student records and survey submissions.
type StudentHandler struct {
	deps StudentDependencies
}

// NewStudentHandler creates a new student handler.
func NewStudentHandler(deps StudentDependencies) *StudentHandler {
	return &StudentHandler{deps: deps}
}

// HandlePutStudent handles POST /students requests.
func (h *StudentHandler) HandlePutStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	st, err := h.deps.UpsertStudent(r.Context(), model.Student{
		ID:           req.ID,
		OrgID:        req.OrgID,
		ClassID:      req.ClassID,
		Name:         req.Name,
		Age:          req.Age,
		Gender:       req.Gender,
		Generation:   req.Generation,
		CustomFields: req.CustomFields,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleGetStudent handles GET /students/{id} requests.
func (h *StudentHandler) HandleGetStudent(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.Student(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandlePostResponse handles POST /responses requests.
func (h *StudentHandler) HandlePostResponse(w http.ResponseWriter, r *http.Request) {
	var req responseRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	raw := model.RawResponse{
		StudentID:  req.StudentID,
		Instrument: model.Instrument(req.Instrument),
		Answers:    req.Answers,
	}
	if req.SubmittedAt != nil {
		raw.SubmittedAt = req.SubmittedAt.UTC()
	}
	if err := h.deps.SubmitResponse(r.Context(), raw); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "stored"})
}

// HandlePutCustomFields handles PUT /orgs/{id}/custom-fields requests.
func (h *StudentHandler) HandlePutCustomFields(w http.ResponseWriter, r *http.Request) {
	var req customFieldsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	defs := make([]model.CustomFieldDef, len(req.Fields))
	for i, f := range req.Fields {
		typ := model.FieldType(f.Type)
		if typ == "" {
			typ = model.FieldText
		}
		defs[i] = model.CustomFieldDef{Key: f.Key, Label: f.Label, Type: typ, Options: f.Options}
	}
	if err := h.deps.SaveCustomFields(r.Context(), r.PathValue("id"), defs); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "stored"})
}
