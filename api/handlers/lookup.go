package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/police-records-api/api"
	"github.com/linesmerrill/police-records-api/engine"
)

// Lookup exported for testing purposes
type Lookup struct {
	Lookup *engine.Lookup
}

// SearchPersonHandler searches persons by cid or name
func (l Lookup) SearchPersonHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	persons, err := l.Lookup.SearchPerson(ctx, r.URL.Query().Get("query"))
	if err != nil {
		engineError("failed to search persons", w, err)
		return
	}
	writeJSON(w, http.StatusOK, persons)
}

// PersonHandler returns the records referencing a cid
func (l Lookup) PersonHandler(w http.ResponseWriter, r *http.Request) {
	cid, ok := intParam(w, "cid", mux.Vars(r)["cid"])
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	person, err := l.Lookup.GetPerson(ctx, cid)
	if err != nil {
		engineError("failed to get person", w, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// SearchVehicleHandler searches plates
func (l Lookup) SearchVehicleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	vehicles, err := l.Lookup.SearchVehicle(ctx, r.URL.Query().Get("query"))
	if err != nil {
		engineError("failed to search vehicles", w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// VehicleHandler returns the records referencing a plate
func (l Lookup) VehicleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	vehicle, err := l.Lookup.GetVehicle(ctx, mux.Vars(r)["plate"])
	if err != nil {
		engineError("failed to get vehicle", w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}
