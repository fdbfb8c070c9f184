package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/police-records-api/api"
	"github.com/linesmerrill/police-records-api/config"
	"github.com/linesmerrill/police-records-api/models"
)

const testSecret = "test-secret"

var (
	dispatcher = models.Actor{CID: 100, Name: "Dispatch Ortiz"}
	officer    = models.Actor{CID: 201, Name: "Ofc. Reyes"}
)

// newTestApp builds an App on the in-memory store
func newTestApp(t *testing.T) *App {
	t.Helper()
	a := &App{Config: config.Config{
		Store:            "memory",
		JWTSecret:        testSecret,
		CaseNumberPrefix: "case",
		RequestTimeout:   time.Minute,
	}}
	require.NoError(t, a.Initialize(context.Background()))
	return a
}

func token(t *testing.T, actor models.Actor) string {
	t.Helper()
	tok, err := api.SignActor(testSecret, actor, time.Hour)
	require.NoError(t, err)
	return tok
}

func executeRequest(a *App, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

// call sends an authenticated request and decodes a 2xx body into out
func call(t *testing.T, a *App, actor models.Actor, method, path string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+token(t, actor))
	rr := executeRequest(a, req)
	if out != nil && rr.Code < 300 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
	}
	return rr
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) models.MessageError {
	t.Helper()
	var resp models.ErrorMessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp.Response
}

func TestUnknownRoute(t *testing.T) {
	a := newTestApp(t)
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	a := newTestApp(t)
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusOK, response.Code)

	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	a := newTestApp(t)
	req, _ := http.NewRequest("GET", "/metrics", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusOK, response.Code)
}

func TestApp_Unauthorized(t *testing.T) {
	a := newTestApp(t)
	req, _ := http.NewRequest("GET", "/api/v1/units", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
	assert.Equal(t, "unauthorized", errorOf(t, response).Message)
}

func TestApp_InvalidBody(t *testing.T) {
	a := newTestApp(t)
	req := httptest.NewRequest("POST", "/api/v1/units", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+token(t, dispatcher))
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusBadRequest, response.Code)
}

func TestApp_InvalidPathInt(t *testing.T) {
	a := newTestApp(t)
	rr := call(t, a, dispatcher, "PUT", "/api/v1/officers/abc", map[string]string{"name": "x"}, nil)
	checkResponseCode(t, http.StatusBadRequest, rr.Code)
}

func TestApp_ErrorStatusMapping(t *testing.T) {
	a := newTestApp(t)

	var unit models.Unit
	rr := call(t, a, dispatcher, "POST", "/api/v1/units", map[string]string{"callsign": "L-20"}, &unit)
	checkResponseCode(t, http.StatusCreated, rr.Code)

	// validation
	rr = call(t, a, dispatcher, "POST", "/api/v1/units", map[string]string{"callsign": " "}, nil)
	checkResponseCode(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "ValidationError", errorOf(t, rr).Kind)

	// not found
	rr = call(t, a, dispatcher, "GET", "/api/v1/units/missing", nil, nil)
	checkResponseCode(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NotFoundError", errorOf(t, rr).Kind)

	// conflict
	rr = call(t, a, dispatcher, "POST", "/api/v1/units", map[string]string{"callsign": "l-20"}, nil)
	checkResponseCode(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "DUPLICATE_CALLSIGN", errorOf(t, rr).Code)

	// capacity
	for cid := 1; cid <= 5; cid++ {
		rr = call(t, a, dispatcher, "PUT", fmt.Sprintf("/api/v1/officers/%d", cid), map[string]string{"name": "Officer"}, nil)
		checkResponseCode(t, http.StatusOK, rr.Code)
		rr = call(t, a, dispatcher, "POST", "/api/v1/units/"+unit.ID+"/members", map[string]int{"cid": cid}, nil)
	}
	checkResponseCode(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "SQUAD_FULL", errorOf(t, rr).Code)

	rr = call(t, a, dispatcher, "DELETE", "/api/v1/units/"+unit.ID+"/members/1", nil, &unit)
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int{2, 3, 4}, unit.Members)
}

func TestApp_DispatchToCaseFlow(t *testing.T) {
	a := newTestApp(t)

	var unit models.Unit
	checkResponseCode(t, http.StatusCreated, call(t, a, dispatcher, "POST", "/api/v1/units", map[string]string{"callsign": "adam-12"}, &unit).Code)
	checkResponseCode(t, http.StatusOK, call(t, a, dispatcher, "PUT", "/api/v1/officers/201", map[string]string{"name": officer.Name}, nil).Code)
	checkResponseCode(t, http.StatusOK, call(t, a, officer, "PUT", "/api/v1/officers/201/duty", map[string]bool{"onDuty": true}, nil).Code)
	checkResponseCode(t, http.StatusOK, call(t, a, dispatcher, "POST", "/api/v1/units/"+unit.ID+"/members", map[string]int{"cid": 201}, nil).Code)

	var roster models.Roster
	checkResponseCode(t, http.StatusOK, call(t, a, dispatcher, "GET", "/api/v1/roster", nil, &roster).Code)
	require.Len(t, roster.Officers, 1)
	assert.True(t, roster.Officers[0].OnDuty)
	assert.Equal(t, unit.ID, roster.Officers[0].UnitID)

	var c models.Call
	rr := call(t, a, dispatcher, "POST", "/api/v1/calls", map[string]string{"code": "10-38", "title": "Traffic stop", "location": "Route 68"}, &c)
	checkResponseCode(t, http.StatusCreated, rr.Code)

	rr = call(t, a, officer, "POST", "/api/v1/calls/"+c.ID+"/accept", map[string]string{"unitId": unit.ID}, &c)
	checkResponseCode(t, http.StatusOK, rr.Code)
	rr = call(t, a, officer, "POST", "/api/v1/calls/"+c.ID+"/accept", map[string]string{"unitId": unit.ID}, nil)
	checkResponseCode(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "CALL_ASSIGNED", errorOf(t, rr).Code)

	rr = call(t, a, officer, "PUT", "/api/v1/calls/"+c.ID+"/status", map[string]string{"status": "OnScene"}, &c)
	checkResponseCode(t, http.StatusOK, rr.Code)
	rr = call(t, a, officer, "POST", "/api/v1/calls/"+c.ID+"/notes", map[string]string{"note": "driver cooperative"}, &c)
	checkResponseCode(t, http.StatusOK, rr.Code)
	rr = call(t, a, officer, "POST", "/api/v1/calls/"+c.ID+"/close", map[string]string{"reportText": "Citation issued"}, &c)
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.CallClosed, c.Status)
	require.NotEmpty(t, c.ReportID)

	var feed []models.Call
	checkResponseCode(t, http.StatusOK, call(t, a, dispatcher, "GET", "/api/v1/calls?limit=10", nil, &feed).Code)
	require.Len(t, feed, 1)

	var report models.Report
	rr = call(t, a, officer, "PATCH", "/api/v1/reports/"+c.ReportID, map[string]interface{}{
		"tags":     []string{"traffic", "bogus"},
		"vehicles": []string{"abc 123"},
		"involved": []models.InvolvedParty{{CID: 55, Name: "J. Doe", Role: "Driver"}},
	}, &report)
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"Traffic"}, report.Tags)

	rr = call(t, a, officer, "POST", "/api/v1/reports/"+c.ReportID+"/submit", nil, &report)
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.ReportSubmitted, report.Status)
	rr = call(t, a, officer, "PATCH", "/api/v1/reports/"+c.ReportID, map[string]interface{}{"title": "changed"}, nil)
	checkResponseCode(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "REPORT_LOCKED", errorOf(t, rr).Code)

	var reports []models.Report
	checkResponseCode(t, http.StatusOK, call(t, a, officer, "GET", "/api/v1/reports?tag=Traffic", nil, &reports).Code)
	assert.Len(t, reports, 1)

	var vehicle models.Vehicle
	checkResponseCode(t, http.StatusOK, call(t, a, officer, "GET", "/api/v1/vehicles/ABC123", nil, &vehicle).Code)
	assert.Equal(t, 1, vehicle.ReportCount)
	var person models.Person
	checkResponseCode(t, http.StatusOK, call(t, a, officer, "GET", "/api/v1/persons/55", nil, &person).Code)
	assert.Equal(t, "J. Doe", person.Name)

	var req models.CaseRequest
	rr = call(t, a, officer, "POST", "/api/v1/case-requests", map[string]string{"reportId": c.ReportID, "note": "repeat offender"}, &req)
	checkResponseCode(t, http.StatusCreated, rr.Code)

	var approval models.CaseApproval
	rr = call(t, a, dispatcher, "POST", "/api/v1/case-requests/"+req.ID+"/approve", nil, &approval)
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.Equal(t, fmt.Sprintf("CASE-%d-000001", approval.Case.CreatedAt.Year()), approval.Case.CaseNumber)
	assert.Equal(t, []string{"Traffic"}, approval.Case.Tags)

	rr = call(t, a, dispatcher, "POST", "/api/v1/case-requests/"+req.ID+"/reject", map[string]string{"reason": "late"}, nil)
	checkResponseCode(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "REQUEST_DECIDED", errorOf(t, rr).Code)

	var history []models.AuditEntry
	checkResponseCode(t, http.StatusOK, call(t, a, dispatcher, "GET", "/api/v1/audit/calls/"+c.ID, nil, &history).Code)
	assert.Len(t, history, len(c.Timeline))
}

func TestApp_BolosAndEvidence(t *testing.T) {
	a := newTestApp(t)

	var bolo models.BoloView
	rr := call(t, a, dispatcher, "POST", "/api/v1/bolos", map[string]interface{}{
		"type": "Vehicle", "title": "Stolen sedan", "description": "Blue", "vehicles": []string{"stl 9"},
	}, &bolo)
	checkResponseCode(t, http.StatusCreated, rr.Code)
	rr = call(t, a, officer, "POST", "/api/v1/bolos/"+bolo.ID+"/sightings", map[string]string{"note": "Vespucci Blvd"}, &bolo)
	checkResponseCode(t, http.StatusOK, rr.Code)
	rr = call(t, a, dispatcher, "PUT", "/api/v1/bolos/"+bolo.ID+"/status", map[string]string{"status": "Closed"}, &bolo)
	checkResponseCode(t, http.StatusOK, rr.Code)
	rr = call(t, a, dispatcher, "PUT", "/api/v1/bolos/"+bolo.ID+"/status", map[string]string{"status": "Active"}, nil)
	checkResponseCode(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "BOLO_CLOSED", errorOf(t, rr).Code)

	var active []models.BoloView
	checkResponseCode(t, http.StatusOK, call(t, a, dispatcher, "GET", "/api/v1/bolos?activeOnly=true", nil, &active).Code)
	assert.Empty(t, active)

	var item models.Evidence
	rr = call(t, a, officer, "POST", "/api/v1/evidence", map[string]string{"label": "Knife", "holder": "Ofc. Reyes", "reportId": "r1"}, &item)
	checkResponseCode(t, http.StatusCreated, rr.Code)
	rr = call(t, a, officer, "POST", "/api/v1/evidence/"+item.ID+"/transfer", map[string]string{"holder": "Locker 4"}, &item)
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Locker 4", item.Holder)
	rr = call(t, a, officer, "POST", "/api/v1/evidence/"+item.ID+"/seal", nil, &item)
	checkResponseCode(t, http.StatusOK, rr.Code)
	rr = call(t, a, officer, "DELETE", "/api/v1/evidence/"+item.ID+"/report", nil, nil)
	checkResponseCode(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "SEALED", errorOf(t, rr).Code)
	rr = call(t, a, officer, "POST", "/api/v1/evidence/"+item.ID+"/notes", map[string]string{"note": "photographed"}, &item)
	checkResponseCode(t, http.StatusOK, rr.Code)

	var items []models.Evidence
	checkResponseCode(t, http.StatusOK, call(t, a, officer, "GET", "/api/v1/evidence?reportId=r1", nil, &items).Code)
	assert.Len(t, items, 1)
}
