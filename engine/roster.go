package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/linesmerrill/police-records-api/databases"
	"github.com/linesmerrill/police-records-api/models"
)

// callsignsKey guards callsign uniqueness across all units.
const callsignsKey = "units/callsigns"

// errStaleOfficer signals that an officer moved units between the unlocked
// read and the locked transaction.
var errStaleOfficer = errors.New("officer unit changed concurrently")

// UnitRoster tracks officers, their duty state and their membership of
// capacity bounded units. An officer belongs to at most one unit.
type UnitRoster struct {
	core *core
}

func normalizeCallsign(callsign string) string {
	return strings.ToUpper(strings.TrimSpace(callsign))
}

// RequestUnit creates a new Available unit with a unique callsign
func (r *UnitRoster) RequestUnit(ctx context.Context, callsign, label string, actor models.Actor) (models.Unit, error) {
	if err := validActor(actor); err != nil {
		return models.Unit{}, err
	}
	cs := normalizeCallsign(callsign)
	if cs == "" {
		return models.Unit{}, validationf("callsign is required")
	}

	var unit models.Unit
	err := r.core.mutate(ctx, []string{callsignsKey}, func(ctx context.Context, tx *txn) error {
		var units []models.Unit
		if err := tx.FindAll(ctx, databases.UnitCollection, &units); err != nil {
			return err
		}
		for _, u := range units {
			if normalizeCallsign(u.Callsign) == cs {
				return conflictf(CodeDuplicateCallsign, "callsign %s is already in use", cs)
			}
		}

		now := r.core.clock()
		unit = models.Unit{
			ID:            r.core.newID(),
			Callsign:      cs,
			Label:         strings.TrimSpace(label),
			Members:       []int{},
			Status:        models.UnitAvailable,
			UpdatedByCID:  actor.CID,
			UpdatedByName: actor.Name,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		timeline, err := tx.record(ctx, databases.UnitCollection, unit.ID, nil, actor, models.ActionCreated, cs)
		if err != nil {
			return err
		}
		unit.Timeline = timeline
		return tx.Save(ctx, databases.UnitCollection, unit.ID, unit)
	})
	if err != nil {
		return models.Unit{}, err
	}
	return unit, nil
}

// AddMember moves the officer cid into the unit, leaving any previous unit
func (r *UnitRoster) AddMember(ctx context.Context, unitID string, cid int, actor models.Actor) (models.Unit, error) {
	if err := validActor(actor); err != nil {
		return models.Unit{}, err
	}
	if cid <= 0 {
		return models.Unit{}, validationf("cid must be positive, got %d", cid)
	}

	for {
		var observed models.Officer
		if err := load(ctx, r.core.store, databases.OfficerCollection, "officer", cid, &observed); err != nil {
			return models.Unit{}, err
		}
		unit, err := r.addMember(ctx, unitID, cid, observed.UnitID, actor)
		if errors.Is(err, errStaleOfficer) {
			continue
		}
		return unit, err
	}
}

func (r *UnitRoster) addMember(ctx context.Context, unitID string, cid int, priorUnitID string, actor models.Actor) (models.Unit, error) {
	keys := []string{
		lockKey(databases.OfficerCollection, cid),
		lockKey(databases.UnitCollection, unitID),
	}
	if priorUnitID != "" {
		keys = append(keys, lockKey(databases.UnitCollection, priorUnitID))
	}

	var unit models.Unit
	err := r.core.mutate(ctx, keys, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.UnitCollection, "unit", unitID, &unit); err != nil {
			return err
		}
		var officer models.Officer
		if err := load(ctx, tx, databases.OfficerCollection, "officer", cid, &officer); err != nil {
			return err
		}
		if officer.UnitID != priorUnitID {
			return errStaleOfficer
		}
		if unit.HasMember(cid) {
			return nil
		}
		if len(unit.Members) >= models.MaxUnitMembers {
			return capacityf(CodeSquadFull, "unit %s already has %d members", unit.Callsign, models.MaxUnitMembers)
		}

		now := r.core.clock()
		if officer.UnitID != "" && officer.UnitID != unitID {
			var prior models.Unit
			err := load(ctx, tx, databases.UnitCollection, "unit", officer.UnitID, &prior)
			switch {
			case err == nil:
				prior.Members = removeInt(prior.Members, cid)
				prior.UpdatedAt = now
				prior.UpdatedByCID, prior.UpdatedByName = actor.CID, actor.Name
				if prior.Timeline, err = tx.record(ctx, databases.UnitCollection, prior.ID, prior.Timeline, actor, models.ActionMemberRemoved, fmt.Sprint(cid)); err != nil {
					return err
				}
				if err := tx.Save(ctx, databases.UnitCollection, prior.ID, prior); err != nil {
					return err
				}
			case KindOf(err) != KindNotFound:
				return err
			}
		}

		unit.Members = append(unit.Members, cid)
		unit.UpdatedAt = now
		unit.UpdatedByCID, unit.UpdatedByName = actor.CID, actor.Name
		var err error
		if unit.Timeline, err = tx.record(ctx, databases.UnitCollection, unit.ID, unit.Timeline, actor, models.ActionMemberAdded, fmt.Sprint(cid)); err != nil {
			return err
		}
		if err := tx.Save(ctx, databases.UnitCollection, unit.ID, unit); err != nil {
			return err
		}

		officer.UnitID = unit.ID
		officer.UpdatedAt = now
		if officer.Timeline, err = tx.record(ctx, databases.OfficerCollection, docID(cid), officer.Timeline, actor, models.ActionMemberAdded, unit.Callsign); err != nil {
			return err
		}
		return tx.Save(ctx, databases.OfficerCollection, cid, officer)
	})
	if err != nil {
		return models.Unit{}, err
	}
	return unit, nil
}

// RemoveMember takes the officer cid out of the unit
func (r *UnitRoster) RemoveMember(ctx context.Context, unitID string, cid int, actor models.Actor) (models.Unit, error) {
	if err := validActor(actor); err != nil {
		return models.Unit{}, err
	}
	keys := []string{
		lockKey(databases.OfficerCollection, cid),
		lockKey(databases.UnitCollection, unitID),
	}

	var unit models.Unit
	err := r.core.mutate(ctx, keys, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.UnitCollection, "unit", unitID, &unit); err != nil {
			return err
		}
		if !unit.HasMember(cid) {
			return notFound(fmt.Sprintf("member of unit %s", unit.Callsign), cid)
		}
		now := r.core.clock()
		unit.Members = removeInt(unit.Members, cid)
		unit.UpdatedAt = now
		unit.UpdatedByCID, unit.UpdatedByName = actor.CID, actor.Name
		var err error
		if unit.Timeline, err = tx.record(ctx, databases.UnitCollection, unit.ID, unit.Timeline, actor, models.ActionMemberRemoved, fmt.Sprint(cid)); err != nil {
			return err
		}
		if err := tx.Save(ctx, databases.UnitCollection, unit.ID, unit); err != nil {
			return err
		}

		var officer models.Officer
		err = load(ctx, tx, databases.OfficerCollection, "officer", cid, &officer)
		if KindOf(err) == KindNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if officer.UnitID != unit.ID {
			return nil
		}
		officer.UnitID = ""
		officer.UpdatedAt = now
		if officer.Timeline, err = tx.record(ctx, databases.OfficerCollection, docID(cid), officer.Timeline, actor, models.ActionMemberRemoved, unit.Callsign); err != nil {
			return err
		}
		return tx.Save(ctx, databases.OfficerCollection, cid, officer)
	})
	if err != nil {
		return models.Unit{}, err
	}
	return unit, nil
}

// SetStatus sets the availability of a unit. Any status change is legal.
func (r *UnitRoster) SetStatus(ctx context.Context, unitID string, status models.UnitStatus, actor models.Actor) (models.Unit, error) {
	if err := validActor(actor); err != nil {
		return models.Unit{}, err
	}
	if !status.IsValid() {
		return models.Unit{}, validationf("invalid unit status %q", status)
	}

	var unit models.Unit
	err := r.core.mutate(ctx, []string{lockKey(databases.UnitCollection, unitID)}, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.UnitCollection, "unit", unitID, &unit); err != nil {
			return err
		}
		unit.Status = status
		unit.UpdatedAt = r.core.clock()
		unit.UpdatedByCID, unit.UpdatedByName = actor.CID, actor.Name
		var err error
		if unit.Timeline, err = tx.record(ctx, databases.UnitCollection, unit.ID, unit.Timeline, actor, models.ActionStatusChanged, string(status)); err != nil {
			return err
		}
		return tx.Save(ctx, databases.UnitCollection, unit.ID, unit)
	})
	if err != nil {
		return models.Unit{}, err
	}
	return unit, nil
}

// RegisterOfficer creates the officer or updates its display name
func (r *UnitRoster) RegisterOfficer(ctx context.Context, cid int, name string, actor models.Actor) (models.Officer, error) {
	if err := validActor(actor); err != nil {
		return models.Officer{}, err
	}
	if cid <= 0 {
		return models.Officer{}, validationf("cid must be positive, got %d", cid)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Officer{}, validationf("officer name is required")
	}

	var officer models.Officer
	err := r.core.mutate(ctx, []string{lockKey(databases.OfficerCollection, cid)}, func(ctx context.Context, tx *txn) error {
		err := load(ctx, tx, databases.OfficerCollection, "officer", cid, &officer)
		action := models.ActionSaved
		switch {
		case KindOf(err) == KindNotFound:
			officer = models.Officer{CID: cid}
			action = models.ActionCreated
		case err != nil:
			return err
		case officer.Name == name:
			return nil
		}
		officer.Name = name
		officer.UpdatedAt = r.core.clock()
		if officer.Timeline, err = tx.record(ctx, databases.OfficerCollection, docID(cid), officer.Timeline, actor, action, name); err != nil {
			return err
		}
		return tx.Save(ctx, databases.OfficerCollection, cid, officer)
	})
	if err != nil {
		return models.Officer{}, err
	}
	return officer, nil
}

// SetDuty marks the officer on or off duty
func (r *UnitRoster) SetDuty(ctx context.Context, cid int, onDuty bool, actor models.Actor) (models.Officer, error) {
	if err := validActor(actor); err != nil {
		return models.Officer{}, err
	}

	var officer models.Officer
	err := r.core.mutate(ctx, []string{lockKey(databases.OfficerCollection, cid)}, func(ctx context.Context, tx *txn) error {
		if err := load(ctx, tx, databases.OfficerCollection, "officer", cid, &officer); err != nil {
			return err
		}
		if officer.OnDuty == onDuty {
			return nil
		}
		officer.OnDuty = onDuty
		officer.UpdatedAt = r.core.clock()
		note := "off"
		if onDuty {
			note = "on"
		}
		var err error
		if officer.Timeline, err = tx.record(ctx, databases.OfficerCollection, docID(cid), officer.Timeline, actor, models.ActionDutyChanged, note); err != nil {
			return err
		}
		return tx.Save(ctx, databases.OfficerCollection, cid, officer)
	})
	if err != nil {
		return models.Officer{}, err
	}
	return officer, nil
}

// GetUnit returns one unit
func (r *UnitRoster) GetUnit(ctx context.Context, unitID string) (models.Unit, error) {
	var unit models.Unit
	err := load(ctx, r.core.store, databases.UnitCollection, "unit", unitID, &unit)
	return unit, err
}

// GetUnits returns all units ordered by callsign
func (r *UnitRoster) GetUnits(ctx context.Context) ([]models.Unit, error) {
	units := []models.Unit{}
	if err := r.core.store.FindAll(ctx, databases.UnitCollection, &units); err != nil {
		return nil, err
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Callsign < units[j].Callsign })
	return units, nil
}

// GetRoster returns every officer ordered by cid together with all units
func (r *UnitRoster) GetRoster(ctx context.Context) (models.Roster, error) {
	officers := []models.Officer{}
	if err := r.core.store.FindAll(ctx, databases.OfficerCollection, &officers); err != nil {
		return models.Roster{}, err
	}
	sort.Slice(officers, func(i, j int) bool { return officers[i].CID < officers[j].CID })
	units, err := r.GetUnits(ctx)
	if err != nil {
		return models.Roster{}, err
	}
	return models.Roster{Officers: officers, Units: units}, nil
}

func removeInt(values []int, v int) []int {
	out := make([]int, 0, len(values))
	for _, x := range values {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
