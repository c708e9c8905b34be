package downtime

import (
	"slices"
	"sync"
)

// book is an ID-ordered collection. IDs are handed out in increasing order,
// so appending keeps items sorted.
type book[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	items  []T
	byID   map[uint64]T
	idOf   func(T) uint64
}

func newBook[T any](startID uint64, idOf func(T) uint64) *book[T] {
	return &book[T]{nextID: startID, byID: make(map[uint64]T), idOf: idOf}
}

// add assigns the next ID through setID and stores obj.
func (b *book[T]) add(obj T, setID func(uint64)) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	setID(id)
	b.items = append(b.items, obj)
	b.byID[id] = obj
	return id
}

func (b *book[T]) get(id uint64) (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.byID[id]
	return obj, ok
}

func (b *book[T]) remove(id uint64) (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.byID[id]
	if ok {
		delete(b.byID, id)
		b.items = slices.DeleteFunc(b.items, func(x T) bool { return b.idOf(x) == id })
	}
	return obj, ok
}

func (b *book[T]) removeWhere(match func(T) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = slices.DeleteFunc(b.items, func(x T) bool {
		if match(x) {
			delete(b.byID, b.idOf(x))
			return true
		}
		return false
	})
}

// filter returns the matching items in ID order.
func (b *book[T]) filter(match func(T) bool) []T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]T, 0, len(b.items))
	for _, x := range b.items {
		if match(x) {
			result = append(result, x)
		}
	}
	return result
}

// attached reports whether an entry on (host, svc) belongs to the object
// named by wantHost and wantSvc. An empty wantSvc names the host itself.
func attached(isService bool, host, svc, wantHost, wantSvc string) bool {
	if host != wantHost {
		return false
	}
	if wantSvc == "" {
		return !isService
	}
	return isService && svc == wantSvc
}
