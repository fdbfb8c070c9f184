package databases

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// Compile-time check that MemoryStore satisfies Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store used by tests and single-node
// deployments. Documents are held bson-encoded, so every read returns a copy.
// Transactions run one at a time across all collections, so on this backend
// writers to different aggregates also wait for each other.
type MemoryStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	docs map[string]map[string][]byte
	seqs map[string]int64
}

// NewMemoryStore returns an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string][]byte),
		seqs: make(map[string]int64),
	}
}

func docKey(id interface{}) string {
	return fmt.Sprint(id)
}

// FindByID decodes the document with the given id into out
func (m *MemoryStore) FindByID(ctx context.Context, collection string, id interface{}, out interface{}) error {
	m.mu.RLock()
	raw, ok := m.docs[collection][docKey(id)]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return errors.Wrapf(bson.Unmarshal(raw, out), "failed to decode %s document", collection)
}

// FindAll decodes every document of the collection into out
func (m *MemoryStore) FindAll(ctx context.Context, collection string, out interface{}) error {
	m.mu.RLock()
	raws := make(map[string][]byte, len(m.docs[collection]))
	for k, v := range m.docs[collection] {
		raws[k] = v
	}
	m.mu.RUnlock()
	return decodeAll(collection, raws, out)
}

// FindWhere decodes the documents matching every field of filter into out
func (m *MemoryStore) FindWhere(ctx context.Context, collection string, filter map[string]string, out interface{}) error {
	m.mu.RLock()
	raws := make(map[string][]byte)
	for k, v := range m.docs[collection] {
		if matches(v, filter) {
			raws[k] = v
		}
	}
	m.mu.RUnlock()
	return decodeAll(collection, raws, out)
}

// Save inserts or replaces the document with the given id
func (m *MemoryStore) Save(ctx context.Context, collection string, id interface{}, doc interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s document", collection)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, docKey(id), raw)
	return nil
}

// NextSequence increments and returns the named counter
func (m *MemoryStore) NextSequence(ctx context.Context, name string) (int64, error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqs[name]++
	return m.seqs[name], nil
}

// WithTransaction runs fn against a buffered view of the store and applies
// its writes only when fn succeeds. Transactions are serialized.
func (m *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memoryTx{
		parent: m,
		writes: make(map[string]map[string][]byte),
		seqs:   make(map[string]int64),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (m *MemoryStore) put(collection, key string, raw []byte) {
	coll, ok := m.docs[collection]
	if !ok {
		coll = make(map[string][]byte)
		m.docs[collection] = coll
	}
	coll[key] = raw
}

type memoryTx struct {
	parent *MemoryStore
	writes map[string]map[string][]byte
	seqs   map[string]int64
}

func (t *memoryTx) FindByID(ctx context.Context, collection string, id interface{}, out interface{}) error {
	if raw, ok := t.writes[collection][docKey(id)]; ok {
		return errors.Wrapf(bson.Unmarshal(raw, out), "failed to decode %s document", collection)
	}
	return t.parent.FindByID(ctx, collection, id, out)
}

func (t *memoryTx) FindAll(ctx context.Context, collection string, out interface{}) error {
	t.parent.mu.RLock()
	raws := make(map[string][]byte, len(t.parent.docs[collection]))
	for k, v := range t.parent.docs[collection] {
		raws[k] = v
	}
	t.parent.mu.RUnlock()
	for k, v := range t.writes[collection] {
		raws[k] = v
	}
	return decodeAll(collection, raws, out)
}

func (t *memoryTx) FindWhere(ctx context.Context, collection string, filter map[string]string, out interface{}) error {
	t.parent.mu.RLock()
	raws := make(map[string][]byte)
	for k, v := range t.parent.docs[collection] {
		raws[k] = v
	}
	t.parent.mu.RUnlock()
	for k, v := range t.writes[collection] {
		raws[k] = v
	}
	for k, v := range raws {
		if !matches(v, filter) {
			delete(raws, k)
		}
	}
	return decodeAll(collection, raws, out)
}

func (t *memoryTx) Save(ctx context.Context, collection string, id interface{}, doc interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s document", collection)
	}
	coll, ok := t.writes[collection]
	if !ok {
		coll = make(map[string][]byte)
		t.writes[collection] = coll
	}
	coll[docKey(id)] = raw
	return nil
}

func (t *memoryTx) NextSequence(ctx context.Context, name string) (int64, error) {
	t.parent.mu.RLock()
	base := t.parent.seqs[name]
	t.parent.mu.RUnlock()
	t.seqs[name]++
	return base + t.seqs[name], nil
}

// WithTransaction joins the enclosing transaction.
func (t *memoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, t)
}

func (t *memoryTx) commit() {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	for collection, docs := range t.writes {
		for k, raw := range docs {
			t.parent.put(collection, k, raw)
		}
	}
	for name, n := range t.seqs {
		t.parent.seqs[name] += n
	}
}

func matches(raw []byte, filter map[string]string) bool {
	for field, want := range filter {
		got, ok := bson.Raw(raw).Lookup(field).StringValueOK()
		if !ok || got != want {
			return false
		}
	}
	return true
}

func decodeAll(collection string, raws map[string][]byte, out interface{}) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return errors.Errorf("FindAll on %s needs a pointer to a slice, got %T", collection, out)
	}
	keys := make([]string, 0, len(raws))
	for k := range raws {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := rv.Elem()
	elemType := slice.Type().Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(keys))
	for _, k := range keys {
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(raws[k], elem.Interface()); err != nil {
			return errors.Wrapf(err, "failed to decode %s document %s", collection, k)
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Set(result)
	return nil
}
