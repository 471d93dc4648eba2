// Package memory provides an in-memory record store implementing the
// distinct.Store contract. It serves tests and light embedded uses; matches
// are returned in insertion order.
package memory

import (
	"context"
	"sync"

	"github.com/spolu/distinct"
	"github.com/spolu/distinct/lib/errors"
)

// Store is a mutex-guarded in-memory record store.
type Store struct {
	mu      sync.RWMutex
	records map[string][]distinct.Record
}

// New returns an empty store.
func New() *Store {
	return &Store{
		records: map[string][]distinct.Record{},
	}
}

// Insert adds a record to the store under its type name.
func (s *Store) Insert(
	record distinct.Record,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := record.Type().Name()
	s.records[name] = append(s.records[name], record)
}

// Delete removes the record with the provided primary key from the store.
func (s *Store) Delete(
	record distinct.Record,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := record.Type().Name()
	kept := make([]distinct.Record, 0, len(s.records[name]))
	for _, r := range s.records[name] {
		if !r.PrimaryKey().Equal(record.PrimaryKey()) {
			kept = append(kept, r)
		}
	}
	s.records[name] = kept
}

// Select constructs an unfiltered query over the provided record type.
func (s *Store) Select(
	typ distinct.Type,
) distinct.Query {
	return &query{
		store: s,
		typ:   typ,
	}
}

var _ distinct.Store = (*Store)(nil)

type query struct {
	store *Store
	typ   distinct.Type
	conds distinct.Conds
}

func (q *query) Where(
	conds distinct.Conds,
) distinct.Query {
	nq := *q
	nq.conds = append(append(distinct.Conds{}, q.conds...), conds...)
	return &nq
}

func (q *query) Exists(
	ctx context.Context,
) (bool, error) {
	records, err := q.FetchUpTo(ctx, 1)
	if err != nil {
		return false, errors.Trace(err)
	}
	return len(records) > 0, nil
}

func (q *query) FetchUpTo(
	ctx context.Context,
	n int,
) ([]distinct.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}

	q.store.mu.RLock()
	defer q.store.mu.RUnlock()

	var records []distinct.Record
	for _, record := range q.store.records[q.typ.Name()] {
		match := true
		for _, cond := range q.conds {
			value, err := record.Field(cond.Column)
			if err != nil {
				match = false
				break
			}
			if distinct.NormalizeValue(value) !=
				distinct.NormalizeValue(cond.Value) {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		records = append(records, record)
		if len(records) == n {
			break
		}
	}
	return records, nil
}
