package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/police-records-api/api"
	"github.com/linesmerrill/police-records-api/engine"
)

// Evidence exported for testing purposes
type Evidence struct {
	Ledger *engine.EvidenceLedger
}

type transferRequest struct {
	Holder string `json:"holder"`
	Note   string `json:"note"`
}

type linkRequest struct {
	ReportID string `json:"reportId"`
}

// CreateEvidenceHandler logs a new evidence item
func (e Evidence) CreateEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	var req engine.NewEvidence
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := e.Ledger.CreateEvidence(r.Context(), req, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to create evidence", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// EvidenceListHandler lists evidence, optionally for one reportId
func (e Evidence) EvidenceListHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	items, err := e.Ledger.ListEvidence(ctx, r.URL.Query().Get("reportId"))
	if err != nil {
		engineError("failed to get evidence", w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// EvidenceByIDHandler returns one evidence item
func (e Evidence) EvidenceByIDHandler(w http.ResponseWriter, r *http.Request) {
	item, err := e.Ledger.GetEvidence(r.Context(), mux.Vars(r)["evidence_id"])
	if err != nil {
		engineError("failed to get evidence", w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// AddEvidenceNoteHandler appends a custody note
func (e Evidence) AddEvidenceNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := e.Ledger.AddNote(r.Context(), mux.Vars(r)["evidence_id"], req.Note, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to add evidence note", w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// TransferEvidenceHandler hands evidence to a new holder
func (e Evidence) TransferEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := e.Ledger.TransferHolder(r.Context(), mux.Vars(r)["evidence_id"], req.Holder, req.Note, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to transfer evidence", w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// SealEvidenceHandler seals an evidence item
func (e Evidence) SealEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	item, err := e.Ledger.Seal(r.Context(), mux.Vars(r)["evidence_id"], api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to seal evidence", w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// LinkEvidenceHandler links evidence to a report
func (e Evidence) LinkEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := e.Ledger.LinkToReport(r.Context(), mux.Vars(r)["evidence_id"], req.ReportID, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to link evidence", w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// UnlinkEvidenceHandler clears the report link of evidence
func (e Evidence) UnlinkEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	item, err := e.Ledger.UnlinkFromReport(r.Context(), mux.Vars(r)["evidence_id"], api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to unlink evidence", w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
