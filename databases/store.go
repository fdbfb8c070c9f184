package databases

import (
	"context"
	"errors"
)

// Collection names of the persisted state layout
const (
	OfficerCollection     = "officers"
	UnitCollection        = "units"
	CallCollection        = "calls"
	ReportCollection      = "reports"
	BoloCollection        = "bolos"
	EvidenceCollection    = "evidence"
	CaseRequestCollection = "caseRequests"
	CaseCollection        = "cases"
	AuditCollection       = "audit"
	SettingsCollection    = "settings"
	CounterCollection     = "counters"
)

// ErrNotFound is returned by FindByID when no document has the given id
var ErrNotFound = errors.New("document not found")

// Store is the keyed document store the records engine is written against.
// Each collection is addressable by document id; sequences are named
// monotonically increasing counters.
type Store interface {
	// FindByID decodes the document with the given id into out.
	FindByID(ctx context.Context, collection string, id interface{}, out interface{}) error
	// FindAll decodes every document of the collection into out, which must
	// be a pointer to a slice.
	FindAll(ctx context.Context, collection string, out interface{}) error
	// FindWhere decodes the documents whose string fields equal every
	// value in filter into out, which must be a pointer to a slice.
	FindWhere(ctx context.Context, collection string, filter map[string]string, out interface{}) error
	// Save inserts or replaces the document with the given id.
	Save(ctx context.Context, collection string, id interface{}, doc interface{}) error
	// NextSequence increments and returns the named counter. The first value
	// of a fresh counter is 1.
	NextSequence(ctx context.Context, name string) (int64, error)
	// WithTransaction runs fn so that all of its writes are committed
	// together or not at all.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
