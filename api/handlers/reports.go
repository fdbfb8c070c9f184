package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/police-records-api/api"
	"github.com/linesmerrill/police-records-api/engine"
	"github.com/linesmerrill/police-records-api/models"
)

// Report exported for testing purposes
type Report struct {
	Reports *engine.ReportRegistry
}

type tagCatalogRequest struct {
	Tags []string `json:"tags"`
}

// TagCatalogHandler returns the allowed report tags
func (rp Report) TagCatalogHandler(w http.ResponseWriter, r *http.Request) {
	catalog, err := rp.Reports.GetTagCatalog(r.Context())
	if err != nil {
		engineError("failed to get tag catalog", w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// SetTagCatalogHandler replaces the allowed report tags
func (rp Report) SetTagCatalogHandler(w http.ResponseWriter, r *http.Request) {
	var req tagCatalogRequest
	if !decodeBody(w, r, &req) {
		return
	}
	catalog, err := rp.Reports.SetTagCatalog(r.Context(), req.Tags, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to set tag catalog", w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// CreateReportHandler creates a draft report
func (rp Report) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	var req engine.NewReport
	if !decodeBody(w, r, &req) {
		return
	}
	report, err := rp.Reports.CreateReport(r.Context(), req, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to create report", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// ReportsHandler lists reports filtered by the query, tag, type and limit
// query parameters
func (rp Report) ReportsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	q := r.URL.Query()
	reports, err := rp.Reports.ListReports(ctx, engine.ReportQuery{
		Query: q.Get("query"),
		Tag:   q.Get("tag"),
		Type:  models.ReportType(q.Get("type")),
		Limit: queryInt(r, "limit", engine.DefaultFeedLimit),
	})
	if err != nil {
		engineError("failed to get reports", w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// ReportByIDHandler returns one report
func (rp Report) ReportByIDHandler(w http.ResponseWriter, r *http.Request) {
	report, err := rp.Reports.GetReport(r.Context(), mux.Vars(r)["report_id"])
	if err != nil {
		engineError("failed to get report", w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// UpdateReportHandler edits a draft report
func (rp Report) UpdateReportHandler(w http.ResponseWriter, r *http.Request) {
	var req engine.ReportUpdate
	if !decodeBody(w, r, &req) {
		return
	}
	report, err := rp.Reports.UpdateReport(r.Context(), mux.Vars(r)["report_id"], req, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to update report", w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SubmitReportHandler locks a draft report
func (rp Report) SubmitReportHandler(w http.ResponseWriter, r *http.Request) {
	report, err := rp.Reports.SubmitReport(r.Context(), mux.Vars(r)["report_id"], api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to submit report", w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
