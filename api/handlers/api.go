package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-records-api/api"
	"github.com/linesmerrill/police-records-api/config"
	"github.com/linesmerrill/police-records-api/databases"
	"github.com/linesmerrill/police-records-api/engine"
	"github.com/linesmerrill/police-records-api/models"
)

// App stores the router and engine, so it can be reused
type App struct {
	Router *mux.Router
	Config config.Config
	Engine *engine.Engine
	Hub    *Hub
	client databases.ClientHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)

	u := Unit{Roster: a.Engine.Roster}
	call := Call{Dispatch: a.Engine.Dispatch}
	report := Report{Reports: a.Engine.Reports}
	lookup := Lookup{Lookup: a.Engine.Lookup}
	bolo := Bolo{Bolos: a.Engine.Bolos}
	ev := Evidence{Ledger: a.Engine.Evidence}
	c := Case{Intake: a.Engine.Intake, Audit: a.Engine.Audit}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.Handle("/metrics", api.MetricsHandler())

	auth := api.Middleware(a.Config.JWTSecret)
	timeout := api.TimeoutMiddleware(a.Config.RequestTimeout)
	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(timeout, auth)

	apiCreate.HandleFunc("/units", u.UnitsHandler).Methods("GET")
	apiCreate.HandleFunc("/units", u.RequestUnitHandler).Methods("POST")
	apiCreate.HandleFunc("/units/{unit_id}", u.UnitByIDHandler).Methods("GET")
	apiCreate.HandleFunc("/units/{unit_id}/members", u.AddMemberHandler).Methods("POST")
	apiCreate.HandleFunc("/units/{unit_id}/members/{cid}", u.RemoveMemberHandler).Methods("DELETE")
	apiCreate.HandleFunc("/units/{unit_id}/status", u.SetStatusHandler).Methods("PUT")
	apiCreate.HandleFunc("/roster", u.RosterHandler).Methods("GET")
	apiCreate.HandleFunc("/officers/{cid}", u.RegisterOfficerHandler).Methods("PUT")
	apiCreate.HandleFunc("/officers/{cid}/duty", u.SetDutyHandler).Methods("PUT")

	apiCreate.HandleFunc("/calls", call.DispatchFeedHandler).Methods("GET")
	apiCreate.HandleFunc("/calls", call.CreateCallHandler).Methods("POST")
	apiCreate.HandleFunc("/calls/test", call.TestDispatchHandler).Methods("POST")
	apiCreate.HandleFunc("/calls/{call_id}", call.CallByIDHandler).Methods("GET")
	apiCreate.HandleFunc("/calls/{call_id}/accept", call.AcceptCallHandler).Methods("POST")
	apiCreate.HandleFunc("/calls/{call_id}/status", call.UpdateCallStatusHandler).Methods("PUT")
	apiCreate.HandleFunc("/calls/{call_id}/notes", call.AddCallNoteHandler).Methods("POST")
	apiCreate.HandleFunc("/calls/{call_id}/close", call.CloseCallHandler).Methods("POST")

	apiCreate.HandleFunc("/tags", report.TagCatalogHandler).Methods("GET")
	apiCreate.HandleFunc("/tags", report.SetTagCatalogHandler).Methods("PUT")
	apiCreate.HandleFunc("/reports", report.ReportsHandler).Methods("GET")
	apiCreate.HandleFunc("/reports", report.CreateReportHandler).Methods("POST")
	apiCreate.HandleFunc("/reports/{report_id}", report.ReportByIDHandler).Methods("GET")
	apiCreate.HandleFunc("/reports/{report_id}", report.UpdateReportHandler).Methods("PATCH")
	apiCreate.HandleFunc("/reports/{report_id}/submit", report.SubmitReportHandler).Methods("POST")

	apiCreate.HandleFunc("/persons", lookup.SearchPersonHandler).Methods("GET")
	apiCreate.HandleFunc("/persons/{cid}", lookup.PersonHandler).Methods("GET")
	apiCreate.HandleFunc("/vehicles", lookup.SearchVehicleHandler).Methods("GET")
	apiCreate.HandleFunc("/vehicles/{plate}", lookup.VehicleHandler).Methods("GET")

	apiCreate.HandleFunc("/bolos", bolo.BolosHandler).Methods("GET")
	apiCreate.HandleFunc("/bolos", bolo.CreateBoloHandler).Methods("POST")
	apiCreate.HandleFunc("/bolos/{bolo_id}", bolo.BoloByIDHandler).Methods("GET")
	apiCreate.HandleFunc("/bolos/{bolo_id}/status", bolo.UpdateBoloStatusHandler).Methods("PUT")
	apiCreate.HandleFunc("/bolos/{bolo_id}/sightings", bolo.BoloSightingHandler).Methods("POST")

	apiCreate.HandleFunc("/evidence", ev.EvidenceListHandler).Methods("GET")
	apiCreate.HandleFunc("/evidence", ev.CreateEvidenceHandler).Methods("POST")
	apiCreate.HandleFunc("/evidence/{evidence_id}", ev.EvidenceByIDHandler).Methods("GET")
	apiCreate.HandleFunc("/evidence/{evidence_id}/notes", ev.AddEvidenceNoteHandler).Methods("POST")
	apiCreate.HandleFunc("/evidence/{evidence_id}/transfer", ev.TransferEvidenceHandler).Methods("POST")
	apiCreate.HandleFunc("/evidence/{evidence_id}/seal", ev.SealEvidenceHandler).Methods("POST")
	apiCreate.HandleFunc("/evidence/{evidence_id}/report", ev.LinkEvidenceHandler).Methods("PUT")
	apiCreate.HandleFunc("/evidence/{evidence_id}/report", ev.UnlinkEvidenceHandler).Methods("DELETE")

	apiCreate.HandleFunc("/case-requests", c.CaseRequestsHandler).Methods("GET")
	apiCreate.HandleFunc("/case-requests", c.RequestCaseHandler).Methods("POST")
	apiCreate.HandleFunc("/case-requests/{request_id}", c.CaseRequestByIDHandler).Methods("GET")
	apiCreate.HandleFunc("/case-requests/{request_id}/approve", c.ApproveCaseRequestHandler).Methods("POST")
	apiCreate.HandleFunc("/case-requests/{request_id}/reject", c.RejectCaseRequestHandler).Methods("POST")
	apiCreate.HandleFunc("/cases", c.CasesHandler).Methods("GET")
	apiCreate.HandleFunc("/cases", c.CreateCaseHandler).Methods("POST")
	apiCreate.HandleFunc("/cases/{case_id}", c.CaseByIDHandler).Methods("GET")
	apiCreate.HandleFunc("/cases/{case_id}/close", c.CloseCaseHandler).Methods("POST")
	apiCreate.HandleFunc("/audit/{entity_type}/{entity_id}", c.AuditHandler).Methods("GET")

	if a.Hub != nil {
		apiCreate.HandleFunc("/events", a.Hub.EventsHandler).Methods("GET")
	}

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to open the configured store, build the
// engine and create a router
func (a *App) Initialize(ctx context.Context) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if a.Hub == nil {
		a.Hub = NewHub()
	}
	a.Engine = engine.New(store, engine.Options{
		CaseNumberPrefix: a.Config.CaseNumberPrefix,
		Notifier:         a.Hub,
	})

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Close releases the database connection, if any
func (a *App) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

func (a *App) openStore(ctx context.Context) (databases.Store, error) {
	if a.Config.Store == "memory" {
		zap.S().Warn("using the in-memory store, state is lost on restart")
		return databases.NewMemoryStore(), nil
	}

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return nil, err
	}
	if err = client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return nil, err
	}
	a.client = client
	zap.S().Info("police-records-api has connected to the database")
	return databases.NewMongoStore(databases.NewDatabase(&a.Config, client)), nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
