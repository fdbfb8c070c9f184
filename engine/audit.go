package engine

import (
	"context"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/linesmerrill/police-records-api/databases"
	"github.com/linesmerrill/police-records-api/models"
)

var transitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "records",
	Subsystem: "engine",
	Name:      "transitions_total",
	Help:      "Committed state changes by aggregate type and action.",
}, []string{"entity", "action"})

// AuditTrail is the append-only per-entity log of actor actions. Entries are
// written in the same transaction as the aggregate they describe and are
// never rewritten.
type AuditTrail struct {
	store databases.Store
	now   func() time.Time
	newID func() string
}

func (a *AuditTrail) append(ctx context.Context, tx databases.Store, entityType, entityID string, timeline []models.Event, actor models.Actor, action, note string) ([]models.Event, models.AuditEntry, error) {
	at := a.now()
	if n := len(timeline); n > 0 && at.Before(timeline[n-1].At) {
		at = timeline[n-1].At
	}
	ev := models.Event{
		Seq:       len(timeline) + 1,
		At:        at,
		Action:    action,
		ActorCID:  actor.CID,
		ActorName: actor.Name,
		Note:      note,
	}
	entry := models.AuditEntry{
		ID:         a.newID(),
		EntityType: entityType,
		EntityID:   entityID,
		Seq:        ev.Seq,
		At:         ev.At,
		Action:     ev.Action,
		ActorCID:   ev.ActorCID,
		ActorName:  ev.ActorName,
		Note:       ev.Note,
	}
	if err := tx.Save(ctx, databases.AuditCollection, entry.ID, entry); err != nil {
		return nil, models.AuditEntry{}, err
	}
	out := make([]models.Event, len(timeline), len(timeline)+1)
	copy(out, timeline)
	return append(out, ev), entry, nil
}

// History returns the audit entries of one entity in timeline order
func (a *AuditTrail) History(ctx context.Context, entityType, entityID string) ([]models.AuditEntry, error) {
	entries := []models.AuditEntry{}
	filter := map[string]string{"entityType": entityType, "entityId": entityID}
	if err := a.store.FindWhere(ctx, databases.AuditCollection, filter, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	return entries, nil
}
