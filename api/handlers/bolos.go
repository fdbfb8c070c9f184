package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/police-records-api/api"
	"github.com/linesmerrill/police-records-api/engine"
	"github.com/linesmerrill/police-records-api/models"
)

// Bolo exported for testing purposes
type Bolo struct {
	Bolos *engine.BoloRegistry
}

type boloStatusRequest struct {
	Status models.BoloStatus `json:"status"`
}

// BolosHandler lists bolos filtered by the status, type, priority, query and
// activeOnly query parameters
func (b Bolo) BolosHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	q := r.URL.Query()
	activeOnly, _ := strconv.ParseBool(q.Get("activeOnly"))
	bolos, err := b.Bolos.GetBolos(ctx, engine.BoloFilter{
		Status:     models.BoloStatus(q.Get("status")),
		Type:       models.BoloType(q.Get("type")),
		Priority:   models.Priority(q.Get("priority")),
		Query:      q.Get("query"),
		ActiveOnly: activeOnly,
	})
	if err != nil {
		engineError("failed to get bolos", w, err)
		return
	}
	writeJSON(w, http.StatusOK, bolos)
}

// BoloByIDHandler returns one bolo
func (b Bolo) BoloByIDHandler(w http.ResponseWriter, r *http.Request) {
	bolo, err := b.Bolos.GetBolo(r.Context(), mux.Vars(r)["bolo_id"])
	if err != nil {
		engineError("failed to get bolo", w, err)
		return
	}
	writeJSON(w, http.StatusOK, bolo)
}

// CreateBoloHandler creates an Active bolo
func (b Bolo) CreateBoloHandler(w http.ResponseWriter, r *http.Request) {
	var req engine.NewBolo
	if !decodeBody(w, r, &req) {
		return
	}
	bolo, err := b.Bolos.CreateBolo(r.Context(), req, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to create bolo", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bolo)
}

// UpdateBoloStatusHandler changes the status of a bolo
func (b Bolo) UpdateBoloStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req boloStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	bolo, err := b.Bolos.UpdateStatus(r.Context(), mux.Vars(r)["bolo_id"], req.Status, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to update bolo", w, err)
		return
	}
	writeJSON(w, http.StatusOK, bolo)
}

// BoloSightingHandler records a sighting
func (b Bolo) BoloSightingHandler(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	bolo, err := b.Bolos.RecordSighting(r.Context(), mux.Vars(r)["bolo_id"], req.Note, api.ActorFromContext(r.Context()))
	if err != nil {
		engineError("failed to record sighting", w, err)
		return
	}
	writeJSON(w, http.StatusOK, bolo)
}
