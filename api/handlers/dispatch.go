package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/police-records-api/api"
	"github.com/linesmerrill/police-records-api/engine"
	"github.com/linesmerrill/police-records-api/models"
)

// Call exported for testing purposes
type Call struct {
	Dispatch *engine.DispatchEngine
}

type acceptCallRequest struct {
	UnitID string `json:"unitId"`
}

type callStatusRequest struct {
	Status models.CallStatus `json:"status"`
	Note   string            `json:"note"`
}

type noteRequest struct {
	Note string `json:"note"`
}

type closeCallRequest struct {
	ReportText string `json:"reportText"`
}

// DispatchFeedHandler returns the most recent calls
func (c Call) DispatchFeedHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	calls, err := c.Dispatch.GetDispatchFeed(ctx, queryInt(r, "limit", engine.DefaultFeedLimit))
	if err != nil {
		engineError("failed to get dispatch feed", w, err)
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

// CreateCallHandler opens a call from manual intake
func (c Call) CreateCallHandler(w http.ResponseWriter, r *http.Request) {
	var req engine.NewCall
	if !decodeBody(w, r, &req) {
		return
	}
	call, err := c.Dispatch.CreateCall(r.Context(), req, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to create call", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, call)
}

// TestDispatchHandler seeds a synthetic call. The body is optional.
func (c Call) TestDispatchHandler(w http.ResponseWriter, r *http.Request) {
	var req engine.NewCall
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}
	call, err := c.Dispatch.TestDispatch(r.Context(), req, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to create test dispatch", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, call)
}

// CallByIDHandler returns one call
func (c Call) CallByIDHandler(w http.ResponseWriter, r *http.Request) {
	call, err := c.Dispatch.GetCall(r.Context(), mux.Vars(r)["call_id"])
	if err != nil {
		engineError("failed to get call", w, err)
		return
	}
	writeJSON(w, http.StatusOK, call)
}

// AcceptCallHandler assigns a call to a unit
func (c Call) AcceptCallHandler(w http.ResponseWriter, r *http.Request) {
	var req acceptCallRequest
	if !decodeBody(w, r, &req) {
		return
	}
	call, err := c.Dispatch.AcceptCall(r.Context(), mux.Vars(r)["call_id"], req.UnitID, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to accept call", w, err)
		return
	}
	writeJSON(w, http.StatusOK, call)
}

// UpdateCallStatusHandler moves a call to EnRoute or OnScene
func (c Call) UpdateCallStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req callStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	call, err := c.Dispatch.UpdateStatus(r.Context(), mux.Vars(r)["call_id"], req.Status, req.Note, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to update call status", w, err)
		return
	}
	writeJSON(w, http.StatusOK, call)
}

// AddCallNoteHandler appends a note to a call
func (c Call) AddCallNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	call, err := c.Dispatch.AddNote(r.Context(), mux.Vars(r)["call_id"], req.Note, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to add call note", w, err)
		return
	}
	writeJSON(w, http.StatusOK, call)
}

// CloseCallHandler closes a call and drafts its report
func (c Call) CloseCallHandler(w http.ResponseWriter, r *http.Request) {
	var req closeCallRequest
	if !decodeBody(w, r, &req) {
		return
	}
	call, err := c.Dispatch.CloseCall(r.Context(), mux.Vars(r)["call_id"], req.ReportText, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to close call", w, err)
		return
	}
	writeJSON(w, http.StatusOK, call)
}
