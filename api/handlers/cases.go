package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/police-records-api/api"
	"github.com/linesmerrill/police-records-api/engine"
	"github.com/linesmerrill/police-records-api/models"
)

// Case exported for testing purposes
type Case struct {
	Intake *engine.CaseIntakeWorkflow
	Audit  *engine.AuditTrail
}

type caseRequestRequest struct {
	ReportID    string `json:"reportId"`
	ReportTitle string `json:"reportTitle"`
	Note        string `json:"note"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RequestCaseHandler files a case request for a report
func (c Case) RequestCaseHandler(w http.ResponseWriter, r *http.Request) {
	var req caseRequestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cr, err := c.Intake.RequestCase(r.Context(), req.ReportID, req.ReportTitle, req.Note, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to request case", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cr)
}

// CaseRequestsHandler lists case requests, optionally by status
func (c Case) CaseRequestsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	reqs, err := c.Intake.ListRequests(ctx, models.CaseRequestStatus(r.URL.Query().Get("status")))
	if err != nil {
		engineError("failed to get case requests", w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// CaseRequestByIDHandler returns one case request
func (c Case) CaseRequestByIDHandler(w http.ResponseWriter, r *http.Request) {
	cr, err := c.Intake.GetRequest(r.Context(), mux.Vars(r)["request_id"])
	if err != nil {
		engineError("failed to get case request", w, err)
		return
	}
	writeJSON(w, http.StatusOK, cr)
}

// ApproveCaseRequestHandler approves a request and opens its case
func (c Case) ApproveCaseRequestHandler(w http.ResponseWriter, r *http.Request) {
	approval, err := c.Intake.Approve(r.Context(), mux.Vars(r)["request_id"], api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to approve case request", w, err)
		return
	}
	writeJSON(w, http.StatusOK, approval)
}

// RejectCaseRequestHandler rejects a request
func (c Case) RejectCaseRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}
	cr, err := c.Intake.Reject(r.Context(), mux.Vars(r)["request_id"], req.Reason, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to reject case request", w, err)
		return
	}
	writeJSON(w, http.StatusOK, cr)
}

// CreateCaseHandler opens a case directly
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	var req engine.NewCase
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := c.Intake.CreateCase(r.Context(), req, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to create case", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// CasesHandler returns every case
func (c Case) CasesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	cases, err := c.Intake.ListCases(ctx)
	if err != nil {
		engineError("failed to get cases", w, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

// CaseByIDHandler returns one case
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	found, err := c.Intake.GetCase(r.Context(), mux.Vars(r)["case_id"])
	if err != nil {
		engineError("failed to get case", w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// CloseCaseHandler closes a case
func (c Case) CloseCaseHandler(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}
	closed, err := c.Intake.CloseCase(r.Context(), mux.Vars(r)["case_id"], req.Note, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to close case", w, err)
		return
	}
	writeJSON(w, http.StatusOK, closed)
}

// AuditHandler returns the audit history of any aggregate
func (c Case) AuditHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	entries, err := c.Audit.History(ctx, vars["entity_type"], vars["entity_id"])
	if err != nil {
		engineError("failed to get audit history", w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
