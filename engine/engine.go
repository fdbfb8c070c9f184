// Package engine is the workflow and state engine of the records system. It
// owns every aggregate lifecycle: unit roster capacity, dispatch call
// assignment, report draft/submit locking, BOLO status, evidence custody and
// case intake. Each operation serializes on the aggregates it touches and
// commits its aggregate and audit writes in one store transaction.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/linesmerrill/police-records-api/databases"
	"github.com/linesmerrill/police-records-api/models"
)

// Notifier receives committed changes, typically the websocket change feed
type Notifier interface {
	Publish(change models.Change)
}

// Options configures an Engine
type Options struct {
	// CaseNumberPrefix is the leading segment of generated case numbers.
	CaseNumberPrefix string
	// Clock overrides time.Now, mainly for tests.
	Clock func() time.Time
	// NewID overrides the uuid id generator.
	NewID func() string
	// Notifier is told about every committed change. May be nil.
	Notifier Notifier
}

// Engine bundles the components sharing one store
type Engine struct {
	Audit    *AuditTrail
	Roster   *UnitRoster
	Dispatch *DispatchEngine
	Reports  *ReportRegistry
	Lookup   *Lookup
	Bolos    *BoloRegistry
	Evidence *EvidenceLedger
	Intake   *CaseIntakeWorkflow
}

// New wires every component against store
func New(store databases.Store, opts Options) *Engine {
	c := newCore(store, opts)
	reports := &ReportRegistry{core: c}
	bolos := &BoloRegistry{core: c}
	prefix := strings.ToUpper(strings.TrimSpace(opts.CaseNumberPrefix))
	if prefix == "" {
		prefix = "CASE"
	}
	return &Engine{
		Audit:    c.audit,
		Roster:   &UnitRoster{core: c},
		Dispatch: &DispatchEngine{core: c, reports: reports},
		Reports:  reports,
		Lookup:   &Lookup{reports: reports, bolos: bolos},
		Bolos:    bolos,
		Evidence: &EvidenceLedger{core: c},
		Intake:   &CaseIntakeWorkflow{core: c, prefix: strings.ToUpper(prefix)},
	}
}

type core struct {
	store  databases.Store
	locks  *keyLocker
	now    func() time.Time
	newID  func() string
	audit  *AuditTrail
	notify Notifier
}

func newCore(store databases.Store, opts Options) *core {
	c := &core{
		store:  store,
		locks:  newKeyLocker(),
		now:    opts.Clock,
		newID:  opts.NewID,
		notify: opts.Notifier,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = func() string { return uuid.New().String() }
	}
	c.audit = &AuditTrail{store: store, now: c.clock, newID: c.newID}
	return c
}

// clock returns the current time at the precision the store persists.
func (c *core) clock() time.Time {
	return c.now().UTC().Truncate(time.Millisecond)
}

// txn is the store view handed to a mutation along with the changes it
// records for publishing after commit.
type txn struct {
	databases.Store
	audit   *AuditTrail
	changes []models.Change
}

// record appends the action to the aggregate timeline and mirrors it into
// the audit collection.
func (t *txn) record(ctx context.Context, entityType, entityID string, timeline []models.Event, actor models.Actor, action, note string) ([]models.Event, error) {
	timeline, entry, err := t.audit.append(ctx, t.Store, entityType, entityID, timeline, actor, action, note)
	if err != nil {
		return nil, err
	}
	t.changes = append(t.changes, models.Change{
		Type:   entityType,
		ID:     entityID,
		Action: action,
		At:     entry.At,
		Actor:  actor,
	})
	return timeline, nil
}

// mutate runs fn holding the locks of keys inside one store transaction and
// publishes the recorded changes once the transaction has committed.
func (c *core) mutate(ctx context.Context, keys []string, fn func(ctx context.Context, tx *txn) error) error {
	release := c.locks.Lock(keys...)
	defer release()

	t := &txn{audit: c.audit}
	err := c.store.WithTransaction(ctx, func(ctx context.Context, tx databases.Store) error {
		t.Store = tx
		t.changes = t.changes[:0]
		return fn(ctx, t)
	})
	if err != nil {
		return err
	}
	for _, ch := range t.changes {
		transitions.WithLabelValues(ch.Type, ch.Action).Inc()
		if c.notify != nil {
			c.notify.Publish(ch)
		}
	}
	return nil
}

// load decodes the aggregate id of collection into out, mapping a missing
// document to a NotFoundError named what.
func load(ctx context.Context, s databases.Store, collection, what string, id interface{}, out interface{}) error {
	err := s.FindByID(ctx, collection, id, out)
	if errors.Is(err, databases.ErrNotFound) {
		return notFound(what, id)
	}
	return err
}

func docID(id interface{}) string {
	return fmt.Sprint(id)
}

func validActor(actor models.Actor) error {
	if actor.CID <= 0 {
		return validationf("actor cid must be positive, got %d", actor.CID)
	}
	return nil
}
