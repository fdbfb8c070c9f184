package engine

import (
	"context"
	"math/rand"
	"sort"
	"strings"

	"github.com/linesmerrill/police-records-api/databases"
	"github.com/linesmerrill/police-records-api/models"
)

// DefaultFeedLimit is the number of calls returned when no limit is given
const DefaultFeedLimit = 50

// NewCall holds the intake fields of a dispatch call
type NewCall struct {
	Code       string             `json:"code"`
	Title      string             `json:"title"`
	Location   string             `json:"location"`
	Coordinate *models.Coordinate `json:"originCoordinate,omitempty"`
}

// DispatchEngine owns dispatch calls and their assignment to units. Calls
// move New -> Accepted -> EnRoute/OnScene -> Closed; closing a call writes a
// draft report through the ReportRegistry.
type DispatchEngine struct {
	core    *core
	reports *ReportRegistry
}

var testDispatchPool = []NewCall{
	{Code: "10-38", Title: "Traffic stop", Location: "Route 68 / Senora Fwy"},
	{Code: "10-31", Title: "Crime in progress", Location: "Vinewood Blvd 24/7"},
	{Code: "10-50", Title: "Vehicle collision", Location: "Alta St / Power St"},
	{Code: "10-16", Title: "Domestic disturbance", Location: "Grove St 12"},
	{Code: "10-90", Title: "Alarm activation", Location: "Pacific Standard Bank"},
	{Code: "10-66", Title: "Suspicious person", Location: "Del Perro Pier"},
}

// CreateCall opens a New call from manual intake
func (d *DispatchEngine) CreateCall(ctx context.Context, in NewCall, actor models.Actor) (models.Call, error) {
	if err := validActor(actor); err != nil {
		return models.Call{}, err
	}
	in.Code = strings.TrimSpace(in.Code)
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	if in.Code == "" || in.Title == "" {
		return models.Call{}, validationf("call code and title are required")
	}

	now := d.core.clock()
	call := models.Call{
		ID:               d.core.newID(),
		Code:             in.Code,
		Title:            in.Title,
		Location:         in.Location,
		OriginCoordinate: in.Coordinate,
		CreatedAt:        now,
		UpdatedAt:        now,
		Status:           models.CallNew,
	}
	err := d.core.mutate(ctx, []string{lockKey(databases.CallCollection, call.ID)}, func(ctx context.Context, tx *txn) error {
		var err error
		if call.Timeline, err = tx.record(ctx, databases.CallCollection, call.ID, nil, actor, models.ActionCreated, call.Code); err != nil {
			return err
		}
		return tx.Save(ctx, databases.CallCollection, call.ID, call)
	})
	if err != nil {
		return models.Call{}, err
	}
	return call, nil
}

// TestDispatch seeds a synthetic New call for operational testing. Fields
// left empty in overrides are drawn from a fixed pool.
func (d *DispatchEngine) TestDispatch(ctx context.Context, overrides NewCall, actor models.Actor) (models.Call, error) {
	seed := testDispatchPool[rand.Intn(len(testDispatchPool))]
	if strings.TrimSpace(overrides.Code) == "" {
		overrides.Code = seed.Code
	}
	if strings.TrimSpace(overrides.Title) == "" {
		overrides.Title = seed.Title
	}
	if strings.TrimSpace(overrides.Location) == "" {
		overrides.Location = seed.Location
	}
	return d.CreateCall(ctx, overrides, actor)
}

// AcceptCall assigns a New call to a unit. Unit availability is not checked;
// a unit may hold several calls.
func (d *DispatchEngine) AcceptCall(ctx context.Context, callID, unitID string, actor models.Actor) (models.Call, error) {
	if err := validActor(actor); err != nil {
		return models.Call{}, err
	}

	var call models.Call
	err := d.core.mutate(ctx, []string{lockKey(databases.CallCollection, callID)}, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.CallCollection, "call", callID, &call); err != nil {
			return err
		}
		if call.Status == models.CallClosed {
			return conflictf(CodeCallClosed, "call %s is closed", callID)
		}
		if call.AssignedUnitID != "" {
			return conflictf(CodeCallAssigned, "call %s is already assigned to unit %s", callID, call.AssignedUnitID)
		}
		var unit models.Unit
		if err := load(ctx, tx, databases.UnitCollection, "unit", unitID, &unit); err != nil {
			return err
		}

		call.AssignedUnitID = unit.ID
		call.Status = models.CallAccepted
		call.UpdatedAt = d.core.clock()
		var err error
		if call.Timeline, err = tx.record(ctx, databases.CallCollection, call.ID, call.Timeline, actor, models.ActionAccepted, unit.Callsign); err != nil {
			return err
		}
		return tx.Save(ctx, databases.CallCollection, call.ID, call)
	})
	if err != nil {
		return models.Call{}, err
	}
	return call, nil
}

// UpdateStatus moves an assigned call to EnRoute or OnScene. Officers may
// skip steps or go back and forth between the two.
func (d *DispatchEngine) UpdateStatus(ctx context.Context, callID string, status models.CallStatus, note string, actor models.Actor) (models.Call, error) {
	if err := validActor(actor); err != nil {
		return models.Call{}, err
	}
	if status != models.CallEnRoute && status != models.CallOnScene {
		return models.Call{}, validationf("call status can only be set to %s or %s, got %q", models.CallEnRoute, models.CallOnScene, status)
	}

	var call models.Call
	err := d.core.mutate(ctx, []string{lockKey(databases.CallCollection, callID)}, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.CallCollection, "call", callID, &call); err != nil {
			return err
		}
		if call.Status == models.CallClosed {
			return conflictf(CodeCallClosed, "call %s is closed", callID)
		}
		if call.AssignedUnitID == "" {
			return conflictf(CodeCallUnassigned, "call %s has no assigned unit", callID)
		}

		call.Status = status
		call.UpdatedAt = d.core.clock()
		var err error
		if call.Timeline, err = tx.record(ctx, databases.CallCollection, call.ID, call.Timeline, actor, string(status), strings.TrimSpace(note)); err != nil {
			return err
		}
		return tx.Save(ctx, databases.CallCollection, call.ID, call)
	})
	if err != nil {
		return models.Call{}, err
	}
	return call, nil
}

// AddNote appends a note to the timeline of an open call
func (d *DispatchEngine) AddNote(ctx context.Context, callID, note string, actor models.Actor) (models.Call, error) {
	if err := validActor(actor); err != nil {
		return models.Call{}, err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return models.Call{}, validationf("note is required")
	}

	var call models.Call
	err := d.core.mutate(ctx, []string{lockKey(databases.CallCollection, callID)}, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.CallCollection, "call", callID, &call); err != nil {
			return err
		}
		if call.Status == models.CallClosed {
			return conflictf(CodeCallClosed, "call %s is closed", callID)
		}
		call.UpdatedAt = d.core.clock()
		var err error
		if call.Timeline, err = tx.record(ctx, databases.CallCollection, call.ID, call.Timeline, actor, models.ActionNote, note); err != nil {
			return err
		}
		return tx.Save(ctx, databases.CallCollection, call.ID, call)
	})
	if err != nil {
		return models.Call{}, err
	}
	return call, nil
}

// CloseCall closes an assigned call and creates a draft report seeded with
// reportText. The report, the call and both audit entries commit together.
func (d *DispatchEngine) CloseCall(ctx context.Context, callID, reportText string, actor models.Actor) (models.Call, error) {
	if err := validActor(actor); err != nil {
		return models.Call{}, err
	}
	reportText = strings.TrimSpace(reportText)
	if reportText == "" {
		return models.Call{}, validationf("report text is required to close a call")
	}

	var call models.Call
	err := d.core.mutate(ctx, []string{lockKey(databases.CallCollection, callID)}, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.CallCollection, "call", callID, &call); err != nil {
			return err
		}
		if call.Status == models.CallClosed {
			return conflictf(CodeCallClosed, "call %s is already closed", callID)
		}
		if call.AssignedUnitID == "" {
			return conflictf(CodeCallUnassigned, "call %s has no assigned unit", callID)
		}

		report, err := d.reports.create(ctx, tx, NewReport{
			Type:     models.ReportTypeIncident,
			Title:    call.Code + " " + call.Title,
			Location: call.Location,
			FullText: reportText,
		}, actor, "call "+call.ID)
		if err != nil {
			return err
		}

		call.Status = models.CallClosed
		call.ReportSummary = reportText
		call.ReportID = report.ID
		call.UpdatedAt = d.core.clock()
		if call.Timeline, err = tx.record(ctx, databases.CallCollection, call.ID, call.Timeline, actor, models.ActionClosed, report.ID); err != nil {
			return err
		}
		return tx.Save(ctx, databases.CallCollection, call.ID, call)
	})
	if err != nil {
		return models.Call{}, err
	}
	return call, nil
}

// GetCall returns one call
func (d *DispatchEngine) GetCall(ctx context.Context, callID string) (models.Call, error) {
	var call models.Call
	err := load(ctx, d.core.store, databases.CallCollection, "call", callID, &call)
	return call, err
}

// GetDispatchFeed returns the most recent calls first
func (d *DispatchEngine) GetDispatchFeed(ctx context.Context, limit int) ([]models.Call, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	calls := []models.Call{}
	if err := d.core.store.FindAll(ctx, databases.CallCollection, &calls); err != nil {
		return nil, err
	}
	sort.SliceStable(calls, func(i, j int) bool { return calls[i].CreatedAt.After(calls[j].CreatedAt) })
	if len(calls) > limit {
		calls = calls[:limit]
	}
	return calls, nil
}
