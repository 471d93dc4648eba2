package distinct

import (
	"context"
	"reflect"
	"sort"
	"strings"

	"github.com/spolu/distinct/lib/errors"
	"golang.org/x/text/language"
)

// Attribute pairs an attribute of the candidate record with the store column
// its value is looked up under. Target defaults to Source when empty.
type Attribute struct {
	Source string
	Target string
}

// FieldError is a validation error attached to a candidate attribute.
type FieldError struct {
	Attribute string `json:"attribute"`
	Message   string `json:"message"`
}

// Decision is the outcome of a uniqueness check.
type Decision struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// Valid returns true if the check found no conflict and no invalid
// attribute value.
func (d *Decision) Valid() bool {
	return len(d.Errors) == 0
}

// Checker validates that a candidate record's attribute values are not
// already taken by another record in the store.
type Checker struct {
	// Store is the record store lookups are performed against.
	Store Store

	// TargetType is the type the lookup runs over. Defaults to the
	// candidate's own type.
	TargetType Type

	// Attributes are the attributes validated jointly for uniqueness. At
	// least one is required.
	Attributes []Attribute

	// Filter is an optional extra predicate applied to the lookup.
	Filter *Filter

	// Catalog resolves conflict messages. Defaults to the built-in English
	// catalog.
	Catalog *Catalog

	// Locale selects the message locale.
	Locale language.Tag

	// MessageKey, ComboMessageKey and InvalidKey override the catalog keys
	// used for single-attribute conflicts, combined conflicts and invalid
	// attribute values.
	MessageKey      string
	ComboMessageKey string
	InvalidKey      string
}

// Check runs the uniqueness check for the candidate record. It returns a
// Decision carrying per-attribute errors on conflict or invalid input, and a
// non-nil error only when the store lookup itself fails.
func (c *Checker) Check(
	ctx context.Context,
	candidate Record,
) (*Decision, error) {
	if candidate == nil {
		return nil, errors.Trace(errors.ErrUnexpectedArgumentType{
			Expected: "distinct.Record",
			Value:    nil,
		})
	}
	if c.Store == nil {
		return nil, errors.Trace(errors.Newf("Checker has no store"))
	}
	if len(c.Attributes) == 0 {
		return nil, errors.Trace(errors.Newf(
			"Checker has no target attribute"))
	}

	typ := c.TargetType
	if typ == nil {
		typ = candidate.Type()
	}

	conds := make(Conds, 0, len(c.Attributes))
	for _, attribute := range c.Attributes {
		target := attribute.Target
		if target == "" {
			target = attribute.Source
		}
		value, err := candidate.Field(attribute.Source)
		if err != nil {
			return nil, errors.Trace(err)
		}
		// Composite values can't be used in an equality lookup; fail on the
		// attribute before any store call.
		if isComposite(value) {
			return &Decision{
				Errors: []FieldError{
					FieldError{
						Attribute: attribute.Source,
						Message: c.resolve(KeyValueInvalid,
							map[string]string{
								"attribute": attribute.Source,
							}),
					},
				},
			}, nil
		}
		conds = append(conds, Cond{Column: target, Value: value})
	}

	q := c.Store.Select(typ).Where(conds)
	q = c.Filter.apply(q)

	conflict := false
	if typ.Name() != candidate.Type().Name() || candidate.IsNew() {
		// The candidate holds no persisted identity under the lookup target,
		// so any matching row is a genuine conflict.
		exists, err := q.Exists(ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		conflict = exists
	} else {
		rows, err := q.FetchUpTo(ctx, 2)
		if err != nil {
			return nil, errors.Trace(err)
		}
		switch len(rows) {
		case 0:
		case 1:
			if condsMatchPrimaryKey(conds, typ) {
				// The uniqueness check runs on the primary key itself: the
				// single match is a conflict only if the candidate changed
				// its own primary key to one already taken.
				conflict = !candidate.PreviousPrimaryKey().Equal(
					candidate.PrimaryKey())
			} else {
				// The single match is assumed to be the candidate itself
				// when keys agree. When two other rows share the combo,
				// which row gets compared here depends on store ordering; a
				// second matching row would be caught by the 2-row fetch.
				conflict = !rows[0].PrimaryKey().Equal(
					candidate.PreviousPrimaryKey())
			}
		default:
			conflict = true
		}
	}

	if !conflict {
		return &Decision{}, nil
	}

	return c.conflictDecision(conds), nil
}

// conflictDecision builds the Decision for a detected conflict, using the
// combined-attributes message when more than one attribute participates.
func (c *Checker) conflictDecision(
	conds Conds,
) *Decision {
	if len(c.Attributes) > 1 {
		names := make([]string, 0, len(c.Attributes))
		values := make([]string, 0, len(conds))
		for i, attribute := range c.Attributes {
			names = append(names, attribute.Source)
			values = append(values,
				`"`+NormalizeValue(conds[i].Value)+`"`)
		}
		message := c.resolve(KeyUniqueComboTaken, map[string]string{
			"attributes": strings.Join(names, ", "),
			"values":     strings.Join(values, "-"),
		})

		decision := &Decision{}
		for _, attribute := range c.Attributes {
			decision.Errors = append(decision.Errors, FieldError{
				Attribute: attribute.Source,
				Message:   message,
			})
		}
		return decision
	}

	attribute := c.Attributes[0].Source
	return &Decision{
		Errors: []FieldError{
			FieldError{
				Attribute: attribute,
				Message: c.resolve(KeyUniqueTaken, map[string]string{
					"attribute": attribute,
					"value":     NormalizeValue(conds[0].Value),
				}),
			},
		},
	}
}

func (c *Checker) resolve(
	key string,
	params map[string]string,
) string {
	switch key {
	case KeyUniqueTaken:
		if c.MessageKey != "" {
			key = c.MessageKey
		}
	case KeyUniqueComboTaken:
		if c.ComboMessageKey != "" {
			key = c.ComboMessageKey
		}
	case KeyValueInvalid:
		if c.InvalidKey != "" {
			key = c.InvalidKey
		}
	}

	catalog := c.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return catalog.Resolve(c.Locale, key, params)
}

// isComposite returns true for slice, array and map values, which can't
// serve as equality lookup values. []byte is treated as a scalar since store
// drivers surface strings as byte slices.
func isComposite(
	value interface{},
) bool {
	if value == nil {
		return false
	}
	if _, ok := value.([]byte); ok {
		return false
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	default:
		return false
	}
}

// condsMatchPrimaryKey returns true if the lookup columns are exactly the
// target type's primary key columns.
func condsMatchPrimaryKey(
	conds Conds,
	typ Type,
) bool {
	primaryKey := typ.PrimaryKeyColumns()
	if len(conds) != len(primaryKey) {
		return false
	}

	columns := append([]string{}, conds.Columns()...)
	keys := append([]string{}, primaryKey...)
	sort.Strings(columns)
	sort.Strings(keys)
	for i := range columns {
		if columns[i] != keys[i] {
			return false
		}
	}
	return true
}
