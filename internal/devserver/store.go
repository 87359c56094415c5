package devserver

import (
	"sort"
	"sync"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

// table is an auto-increment id → row map. Callers hold the store lock.
type table[T any] struct {
	rows map[int64]T
	next int64
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int64]T)}
}

func (t *table[T]) insert(build func(id int64) T) T {
	t.next++
	row := build(t.next)
	t.rows[t.next] = row
	return row
}

func (t *table[T]) get(id int64) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) put(id int64, row T) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	t.rows[id] = row
	return true
}

func (t *table[T]) remove(id int64) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

// filter returns matching rows ordered by id.
func (t *table[T]) filter(keep func(T) bool) []T {
	ids := make([]int64, 0, len(t.rows))
	for id, row := range t.rows {
		if keep == nil || keep(row) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) any(match func(T) bool) bool {
	for _, row := range t.rows {
		if match(row) {
			return true
		}
	}
	return false
}

type tenantRow struct {
	ID         int64
	UserID     int64
	FlatID     int64
	LeaseStart string
	LeaseEnd   string
	Phone      string
}

type documentRow struct {
	doc  domain.Document
	data []byte
}

// store holds every table behind one lock.
type store struct {
	mu         sync.RWMutex
	users      *table[account]
	apartments *table[domain.Apartment]
	flats      *table[domain.Flat]
	tenants    *table[tenantRow]
	payments   *table[domain.Payment]
	complaints *table[domain.Complaint]
	documents  *table[documentRow]
}

func newStore() *store {
	return &store{
		users:      newTable[account](),
		apartments: newTable[domain.Apartment](),
		flats:      newTable[domain.Flat](),
		tenants:    newTable[tenantRow](),
		payments:   newTable[domain.Payment](),
		complaints: newTable[domain.Complaint](),
		documents:  newTable[documentRow](),
	}
}
