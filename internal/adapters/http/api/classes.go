package api

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"strings"

	"github.com/okian/perfil/internal/domain/classroom"
)

type planRequest struct {
	Plan string `json:"plan" validate:"required,max=20000"`
}

type summaryResponse struct {
	ClassID string `json:"class_id"`
	Summary string `json:"summary"`
}

type textResponse struct {
	ClassID string `json:"class_id"`
	Text    string `json:"text"`
}

type aggregateResponse struct {
	ClassID string `json:"class_id"`
	classroom.ClassAggregate
}

// ClassHandler serves class-level views.
type ClassHandler struct {
	deps ClassDependencies
}

// NewClassHandler creates a new class handler.
func NewClassHandler(deps ClassDependencies) *ClassHandler {
	return &ClassHandler{deps: deps}
}

// HandleGetAggregate handles GET /classes/{id}/aggregate requests.
func (h *ClassHandler) HandleGetAggregate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	agg, err := h.deps.ClassAggregate(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregateResponse{ClassID: id, ClassAggregate: agg})
}

// HandleGetSummary handles GET /classes/{id}/summary requests.
func (h *ClassHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	summary, err := h.deps.ClassSummary(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{ClassID: id, Summary: summary})
}

// HandleExportCSV handles GET /classes/{id}/export.csv requests. The
// optional columns query parameter is a comma separated column list.
func (h *ClassHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	var columns []string
	if q := strings.TrimSpace(r.URL.Query().Get("columns")); q != "" {
		for _, c := range strings.Split(q, ",") {
			if c = strings.TrimSpace(c); c != "" {
				columns = append(columns, c)
			}
		}
	}
	// Buffer so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.deps.ExportCSV(r.Context(), r.PathValue("id"), columns, &buf); err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": r.PathValue("id") + ".csv"}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// HandleAdvice handles POST /classes/{id}/advice requests.
func (h *ClassHandler) HandleAdvice(w http.ResponseWriter, r *http.Request) {
	h.handleText(w, r, h.deps.Advice)
}

// HandleRewrite handles POST /classes/{id}/rewrite requests.
func (h *ClassHandler) HandleRewrite(w http.ResponseWriter, r *http.Request) {
	h.handleText(w, r, h.deps.Rewrite)
}

func (h *ClassHandler) handleText(w http.ResponseWriter, r *http.Request, gen func(ctx context.Context, classID, plan string) (string, error)) {
	var req planRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	id := r.PathValue("id")
	text, err := gen(r.Context(), id, req.Plan)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, textResponse{ClassID: id, Text: text})
}
