package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/police-records-api/api"
	"github.com/linesmerrill/police-records-api/engine"
	"github.com/linesmerrill/police-records-api/models"
)

// Unit exported for testing purposes
type Unit struct {
	Roster *engine.UnitRoster
}

type requestUnitRequest struct {
	Callsign string `json:"callsign"`
	Label    string `json:"label"`
}

type memberRequest struct {
	CID int `json:"cid"`
}

type unitStatusRequest struct {
	Status models.UnitStatus `json:"status"`
}

type officerRequest struct {
	Name string `json:"name"`
}

type dutyRequest struct {
	OnDuty bool `json:"onDuty"`
}

// RequestUnitHandler creates a unit with a unique callsign
func (u Unit) RequestUnitHandler(w http.ResponseWriter, r *http.Request) {
	var req requestUnitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	unit, err := u.Roster.RequestUnit(r.Context(), req.Callsign, req.Label, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to request unit", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, unit)
}

// UnitsHandler returns every unit
func (u Unit) UnitsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	units, err := u.Roster.GetUnits(ctx)
	if err != nil {
		engineError("failed to get units", w, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

// UnitByIDHandler returns one unit
func (u Unit) UnitByIDHandler(w http.ResponseWriter, r *http.Request) {
	unit, err := u.Roster.GetUnit(r.Context(), mux.Vars(r)["unit_id"])
	if err != nil {
		engineError("failed to get unit", w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

// AddMemberHandler moves an officer into a unit
func (u Unit) AddMemberHandler(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	unit, err := u.Roster.AddMember(r.Context(), mux.Vars(r)["unit_id"], req.CID, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to add unit member", w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

// RemoveMemberHandler takes an officer out of a unit
func (u Unit) RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	cid, ok := intParam(w, "cid", vars["cid"])
	if !ok {
		return
	}
	unit, err := u.Roster.RemoveMember(r.Context(), vars["unit_id"], cid, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to remove unit member", w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

// SetStatusHandler sets the availability of a unit
func (u Unit) SetStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req unitStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	unit, err := u.Roster.SetStatus(r.Context(), mux.Vars(r)["unit_id"], req.Status, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to set unit status", w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

// RosterHandler returns every officer and unit
func (u Unit) RosterHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	roster, err := u.Roster.GetRoster(ctx)
	if err != nil {
		engineError("failed to get roster", w, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

// RegisterOfficerHandler creates or renames an officer
func (u Unit) RegisterOfficerHandler(w http.ResponseWriter, r *http.Request) {
	cid, ok := intParam(w, "cid", mux.Vars(r)["cid"])
	if !ok {
		return
	}
	var req officerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	officer, err := u.Roster.RegisterOfficer(r.Context(), cid, req.Name, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to register officer", w, err)
		return
	}
	writeJSON(w, http.StatusOK, officer)
}

// SetDutyHandler toggles the duty flag of an officer
func (u Unit) SetDutyHandler(w http.ResponseWriter, r *http.Request) {
	cid, ok := intParam(w, "cid", mux.Vars(r)["cid"])
	if !ok {
		return
	}
	var req dutyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	officer, err := u.Roster.SetDuty(r.Context(), cid, req.OnDuty, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to set officer duty", w, err)
		return
	}
	writeJSON(w, http.StatusOK, officer)
}
