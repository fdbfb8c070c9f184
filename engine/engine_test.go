package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linesmerrill/police-records-api/databases"
	"github.com/linesmerrill/police-records-api/engine"
	"github.com/linesmerrill/police-records-api/models"
)

var (
	dispatcher = models.Actor{CID: 100, Name: "Dispatch Ortiz"}
	officer    = models.Actor{CID: 201, Name: "Ofc. Reyes"}
	sergeant   = models.Actor{CID: 300, Name: "Sgt. Kline"}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder collects every published change
type recorder struct {
	mu      sync.Mutex
	changes []models.Change
}

func (r *recorder) Publish(change models.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
}

func (r *recorder) Changes() []models.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Change{}, r.changes...)
}

var errInjected = errors.New("injected store failure")

// failingStore fails every Save to one collection, inside transactions too
type failingStore struct {
	databases.Store
	sw *failSwitch
}

type failSwitch struct {
	mu         sync.Mutex
	collection string
}

func newFailingStore(store databases.Store) *failingStore {
	return &failingStore{Store: store, sw: &failSwitch{}}
}

func (f *failingStore) FailOn(collection string) {
	f.sw.mu.Lock()
	defer f.sw.mu.Unlock()
	f.sw.collection = collection
}

func (f *failingStore) failing(collection string) bool {
	f.sw.mu.Lock()
	defer f.sw.mu.Unlock()
	return f.sw.collection != "" && f.sw.collection == collection
}

func (f *failingStore) Save(ctx context.Context, collection string, id interface{}, doc interface{}) error {
	if f.failing(collection) {
		return errInjected
	}
	return f.Store.Save(ctx, collection, id, doc)
}

func (f *failingStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx databases.Store) error) error {
	return f.Store.WithTransaction(ctx, func(ctx context.Context, tx databases.Store) error {
		return fn(ctx, &failingStore{Store: tx, sw: f.sw})
	})
}

var errTransient = errors.New("transient transaction error")

// retryingStore runs every transaction callback twice, discarding the first
// attempt, the way a driver retries on a transient transaction error
type retryingStore struct {
	databases.Store
}

func (r *retryingStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx databases.Store) error) error {
	err := r.Store.WithTransaction(ctx, func(ctx context.Context, tx databases.Store) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		return err
	}
	return r.Store.WithTransaction(ctx, fn)
}

type fixture struct {
	engine *engine.Engine
	store  databases.Store
	clock  *fakeClock
	feed   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, databases.NewMemoryStore())
}

func newFixtureWithStore(t *testing.T, store databases.Store) *fixture {
	t.Helper()
	f := &fixture{
		store: store,
		clock: newFakeClock(time.Date(2024, time.March, 9, 14, 30, 0, 0, time.UTC)),
		feed:  &recorder{},
	}
	var seq int64
	f.engine = engine.New(store, engine.Options{
		Clock:    f.clock.Now,
		NewID:    func() string { return fmt.Sprintf("id-%d", atomic.AddInt64(&seq, 1)) },
		Notifier: f.feed,
	})
	return f
}

// onDutyUnit registers the officers and puts them into a fresh unit
func (f *fixture) onDutyUnit(t *testing.T, callsign string, cids ...int) models.Unit {
	t.Helper()
	ctx := context.Background()
	unit, err := f.engine.Roster.RequestUnit(ctx, callsign, "", dispatcher)
	if err != nil {
		t.Fatalf("request unit %s: %v", callsign, err)
	}
	for _, cid := range cids {
		if _, err := f.engine.Roster.RegisterOfficer(ctx, cid, "Officer", dispatcher); err != nil {
			t.Fatalf("register officer %d: %v", cid, err)
		}
		if unit, err = f.engine.Roster.AddMember(ctx, unit.ID, cid, dispatcher); err != nil {
			t.Fatalf("add member %d: %v", cid, err)
		}
	}
	return unit
}
