package distinct

import "context"

// Cond is a single equality condition on a store column.
type Cond struct {
	Column string
	Value  interface{}
}

// Conds is an ordered list of equality conditions, AND-combined.
type Conds []Cond

// Columns returns the columns covered by the conditions, in order.
func (c Conds) Columns() []string {
	columns := make([]string, 0, len(c))
	for _, cond := range c {
		columns = append(columns, cond.Column)
	}
	return columns
}

// Query is an equality-filtered lookup over a record type ready to be
// executed against a store. Queries are immutable; Where returns a narrowed
// copy.
type Query interface {
	// Where returns a copy of the query with the conditions AND-appended.
	Where(conds Conds) Query

	// Exists returns true if any record matches the query.
	Exists(ctx context.Context) (bool, error)

	// FetchUpTo returns at most n matching records.
	FetchUpTo(ctx context.Context, n int) ([]Record, error)
}

// Store is the external record store a Checker performs lookups against.
type Store interface {
	// Select constructs an unfiltered query over the provided record type.
	Select(typ Type) Query
}

// Filter carries an optional extra predicate for a uniqueness lookup, as
// either a static condition list (AND-appended to the lookup) or a callback
// transforming the query. Mutate takes precedence when both are set.
type Filter struct {
	Conds  Conds
	Mutate func(Query) Query
}

func (f *Filter) apply(
	q Query,
) Query {
	if f == nil {
		return q
	}
	if f.Mutate != nil {
		return f.Mutate(q)
	}
	if len(f.Conds) > 0 {
		return q.Where(f.Conds)
	}
	return q
}
