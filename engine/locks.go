package engine

import (
	"sort"
	"sync"
)

// keyLocker serializes mutations per aggregate key. Entries are reference
// counted and dropped once no goroutine holds or waits on them.
type keyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocker() *keyLocker {
	return &keyLocker{locks: make(map[string]*keyLock)}
}

// Lock acquires every key in sorted order and returns the release func.
// Duplicate keys are acquired once.
func (l *keyLocker) Lock(keys ...string) func() {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			sorted = append(sorted, k)
		}
	}
	sort.Strings(sorted)

	held := make([]*keyLock, 0, len(sorted))
	for _, k := range sorted {
		l.mu.Lock()
		kl, ok := l.locks[k]
		if !ok {
			kl = &keyLock{}
			l.locks[k] = kl
		}
		kl.refs++
		l.mu.Unlock()

		kl.mu.Lock()
		held = append(held, kl)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.locks, sorted[i])
			}
			l.mu.Unlock()
		}
	}
}

func lockKey(collection string, id interface{}) string {
	return collection + "/" + docID(id)
}
