// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/perfil/internal/adapters/mq/queue"
	"github.com/okian/perfil/internal/domain/classroom"
	"github.com/okian/perfil/internal/domain/export"
	"github.com/okian/perfil/internal/domain/insight"
	"github.com/okian/perfil/internal/domain/model"
	"github.com/okian/perfil/internal/domain/profile"
)

// StudentDependencies covers student records and their responses.
type StudentDependencies interface {
	UpsertStudent(ctx context.Context, s model.Student) (model.Student, error)
	Student(ctx context.Context, id string) (model.Student, error)
	SubmitResponse(ctx context.Context, r model.RawResponse) error
	SaveCustomFields(ctx context.Context, orgID string, defs []model.CustomFieldDef) error
}

// ProfileDependencies covers per-student derived views.
type ProfileDependencies interface {
	Profile(ctx context.Context, studentID string) (profile.UnifiedProfile, error)
	Insights(ctx context.Context, studentID string) (insight.InsightSet, error)
	Report(ctx context.Context, studentID string) (export.Report, error)
	EmailReport(ctx context.Context, studentID, to string) (queue.Job, error)
}

// ClassDependencies covers class-level views.
type ClassDependencies interface {
	ClassAggregate(ctx context.Context, classID string) (classroom.ClassAggregate, error)
	ClassSummary(ctx context.Context, classID string) (string, error)
	ExportCSV(ctx context.Context, classID string, columns []string, w io.Writer) error
	Advice(ctx context.Context, classID, plan string) (string, error)
	Rewrite(ctx context.Context, classID, plan string) (string, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StudentDependencies
	ProfileDependencies
	ClassDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	studentHandler *StudentHandler
	profileHandler *ProfileHandler
	classHandler   *ClassHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		studentHandler: NewStudentHandler(deps),
		profileHandler: NewProfileHandler(deps),
		classHandler:   NewClassHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleHealth, "metrics"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /students", MetricsMiddleware(s.studentHandler.HandlePutStudent, "students"))
	mux.HandleFunc("GET /students/{id}", MetricsMiddleware(s.studentHandler.HandleGetStudent, "student"))
	mux.HandleFunc("POST /responses", MetricsMiddleware(s.studentHandler.HandlePostResponse, "responses"))
	mux.HandleFunc("PUT /orgs/{id}/custom-fields", MetricsMiddleware(s.studentHandler.HandlePutCustomFields, "custom_fields"))

	mux.HandleFunc("GET /students/{id}/profile", MetricsMiddleware(s.profileHandler.HandleGetProfile, "profile"))
	mux.HandleFunc("GET /students/{id}/insights", MetricsMiddleware(s.profileHandler.HandleGetInsights, "insights"))
	mux.HandleFunc("GET /students/{id}/report", MetricsMiddleware(s.profileHandler.HandleGetReport, "report"))
	mux.HandleFunc("POST /students/{id}/report/email", MetricsMiddleware(s.profileHandler.HandleEmailReport, "report_email"))

	mux.HandleFunc("GET /classes/{id}/aggregate", MetricsMiddleware(s.classHandler.HandleGetAggregate, "class_aggregate"))
	mux.HandleFunc("GET /classes/{id}/summary", MetricsMiddleware(s.classHandler.HandleGetSummary, "class_summary"))
	mux.HandleFunc("GET /classes/{id}/export.csv", MetricsMiddleware(s.classHandler.HandleExportCSV, "class_export"))
	mux.HandleFunc("POST /classes/{id}/advice", MetricsMiddleware(s.classHandler.HandleAdvice, "class_advice"))
	mux.HandleFunc("POST /classes/{id}/rewrite", MetricsMiddleware(s.classHandler.HandleRewrite, "class_rewrite"))
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var fe *fieldErrors
	if errors.As(err, &fe) {
		resp.Fields = fe.fields
	}
	writeJSON(w, status, resp)
}

// writeFailure maps a dependency error to its status code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
