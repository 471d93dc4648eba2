// Package sqlstore provides a SQL-backed record store implementing the
// distinct.Store contract on top of sqlx. The DB (or transaction) is read
// from the context the way the model layer does, so checks participate in
// whatever transaction the caller has begun.
package sqlstore

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/spolu/distinct"
	"github.com/spolu/distinct/lib/db"
	"github.com/spolu/distinct/lib/errors"
)

// identifierRegexp validates table and column names before they get
// interpolated in a statement.
var identifierRegexp = regexp.MustCompile("^[a-zA-Z_][a-zA-Z0-9_]*$")

// Store is a record store backed by the contextual sqlx DB.
type Store struct{}

// New returns a new Store.
func New() *Store {
	return &Store{}
}

// Select constructs an unfiltered query over the provided record type.
func (s *Store) Select(
	typ distinct.Type,
) distinct.Query {
	return &query{
		typ: typ,
	}
}

var _ distinct.Store = (*Store)(nil)

type query struct {
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

// sql renders the query as a positional-placeholder statement, to be rebound
// for the underlying driver.
func (q *query) sql(
	limit int,
) (string, []interface{}, error) {
	if !identifierRegexp.MatchString(q.typ.Name()) {
		return "", nil, errors.Newf(
			"Invalid table name: %s", q.typ.Name())
	}

	where := make([]string, 0, len(q.conds))
	args := make([]interface{}, 0, len(q.conds))
	for _, cond := range q.conds {
		if !identifierRegexp.MatchString(cond.Column) {
			return "", nil, errors.Newf(
				"Invalid column name: %s", cond.Column)
		}
		if cond.Value == nil {
			where = append(where, cond.Column+" IS NULL")
		} else {
			where = append(where, cond.Column+" = ?")
			args = append(args, cond.Value)
		}
	}

	statement := fmt.Sprintf("SELECT * FROM %s", q.typ.Name())
	if len(where) > 0 {
		statement += " WHERE " + strings.Join(where, " AND ")
	}
	statement += fmt.Sprintf(" LIMIT %d", limit)

	return statement, args, nil
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
	ext := db.Ext(ctx)
	if ext == nil {
		return nil, errors.Trace(errors.Newf("No DB in context"))
	}

	statement, args, err := q.sql(n)
	if err != nil {
		return nil, errors.Trace(err)
	}

	rows, err := ext.Queryx(ext.Rebind(statement), args...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rows.Close()

	var records []distinct.Record
	for rows.Next() {
		fields := map[string]interface{}{}
		if err := rows.MapScan(fields); err != nil {
			return nil, errors.Trace(err)
		}
		records = append(records, &row{
			typ:    q.typ,
			fields: fields,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Trace(err)
	}

	return records, nil
}

// row is a stored record scanned from a result set.
type row struct {
	typ    distinct.Type
	fields map[string]interface{}
}

func (r *row) Type() distinct.Type {
	return r.typ
}

func (r *row) Field(
	name string,
) (interface{}, error) {
	value, ok := r.fields[name]
	if !ok {
		return nil, errors.Trace(errors.Newf(
			"%s has no column %q", r.typ.Name(), name))
	}
	return value, nil
}

func (r *row) IsNew() bool {
	return false
}

func (r *row) PrimaryKey() distinct.Key {
	key := distinct.Key{}
	for _, column := range r.typ.PrimaryKeyColumns() {
		key[column] = r.fields[column]
	}
	return key
}

func (r *row) PreviousPrimaryKey() distinct.Key {
	return r.PrimaryKey()
}
