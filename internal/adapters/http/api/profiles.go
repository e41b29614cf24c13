package api

import (
	"net/http"
)

type emailRequest struct {
	To string `json:"to" validate:"required,email"`
}

type emailResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

// ProfileHandler serves the derived views of one student.
type ProfileHandler struct {
	deps ProfileDependencies
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileDependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

// HandleGetProfile handles GET /students/{id}/profile requests.
func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Profile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleGetInsights handles GET /students/{id}/insights requests.
func (h *ProfileHandler) HandleGetInsights(w http.ResponseWriter, r *http.Request) {
	set, err := h.deps.Insights(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// HandleGetReport handles GET /students/{id}/report requests.
func (h *ProfileHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.deps.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleEmailReport handles POST /students/{id}/report/email requests.
func (h *ProfileHandler) HandleEmailReport(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	job, err := h.deps.EmailReport(r.Context(), r.PathValue("id"), req.To)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, emailResponse{Status: "queued", JobID: job.ID})
}
