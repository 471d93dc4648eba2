package memory

import (
	"github.com/spolu/distinct"
	"github.com/spolu/distinct/lib/errors"
)

// Record is a map-backed distinct.Record, convenient for tests and for
// candidates assembled from request parameters rather than a model layer.
type Record struct {
	typ     distinct.Type
	fields  map[string]interface{}
	isNew   bool
	prevKey distinct.Key
}

// NewRecord returns an unpersisted record of the provided type holding the
// provided field values.
func NewRecord(
	typ distinct.Type,
	fields map[string]interface{},
) *Record {
	return &Record{
		typ:    typ,
		fields: fields,
		isNew:  true,
	}
}

// Persist marks the record as persisted under its current primary key and
// returns it.
func (r *Record) Persist() *Record {
	r.isNew = false
	r.prevKey = r.PrimaryKey()
	return r
}

// Set updates a field value in memory. Not safe to call concurrently with
// checks against a store holding the record; the store's lock guards its
// record lists, not the records themselves.
func (r *Record) Set(
	name string,
	value interface{},
) {
	r.fields[name] = value
}

// Type returns the record's type.
func (r *Record) Type() distinct.Type {
	return r.typ
}

// Field returns the record's current value for the named field.
func (r *Record) Field(
	name string,
) (interface{}, error) {
	value, ok := r.fields[name]
	if !ok {
		return nil, errors.Trace(errors.Newf(
			"%s has no field %q", r.typ.Name(), name))
	}
	return value, nil
}

// IsNew returns true if the record was not persisted yet.
func (r *Record) IsNew() bool {
	return r.isNew
}

// PrimaryKey returns the record's current primary key.
func (r *Record) PrimaryKey() distinct.Key {
	key := distinct.Key{}
	for _, column := range r.typ.PrimaryKeyColumns() {
		key[column] = r.fields[column]
	}
	return key
}

// PreviousPrimaryKey returns the primary key the record was persisted under.
func (r *Record) PreviousPrimaryKey() distinct.Key {
	return r.prevKey
}

var _ distinct.Record = (*Record)(nil)
