// Package distinct implements best-effort attribute-uniqueness validation
// for records held in an external store. A Checker builds an equality lookup
// from a candidate record's attribute values, asks a Store whether any other
// stored record matches, and reports per-attribute conflict messages.
//
// The check reads and decides, it does not lock. Two concurrent validations
// racing two inserts can both pass; enforcing uniqueness under concurrent
// writes is the store's job (typically a unique constraint).
package distinct

import "fmt"

// Key is the (possibly composite) primary key of a record, keyed by column
// name.
type Key map[string]interface{}

// Equal returns true if both keys cover the same columns with the same
// values. Values are compared after normalization since store drivers
// surface scan results with varying concrete types.
func (k Key) Equal(
	other Key,
) bool {
	if len(k) != len(other) {
		return false
	}
	for column, value := range k {
		otherValue, ok := other[column]
		if !ok {
			return false
		}
		if NormalizeValue(value) != NormalizeValue(otherValue) {
			return false
		}
	}
	return true
}

// NormalizeValue renders a field value to its canonical string form, used
// for key and condition comparisons across store backends.
func NormalizeValue(
	value interface{},
) string {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", value)
}

// Type describes a record type as known to a store: its name (generally the
// table name) and its primary key columns.
type Type interface {
	Name() string
	PrimaryKeyColumns() []string
}

// Record is the interface candidate and stored records need to implement to
// be checked for uniqueness.
type Record interface {
	// Type returns the record's type.
	Type() Type

	// Field returns the record's current value for the named field.
	Field(name string) (interface{}, error)

	// IsNew returns true if the record has no persisted identity yet.
	IsNew() bool

	// PrimaryKey returns the record's current primary key.
	PrimaryKey() Key

	// PreviousPrimaryKey returns the primary key the record was last
	// persisted under. Only meaningful when IsNew is false.
	PreviousPrimaryKey() Key
}

type recordType struct {
	name              string
	primaryKeyColumns []string
}

func (t *recordType) Name() string {
	return t.name
}

func (t *recordType) PrimaryKeyColumns() []string {
	return t.primaryKeyColumns
}

// NewType returns a Type with the provided name and primary key columns.
func NewType(
	name string,
	primaryKeyColumns ...string,
) Type {
	return &recordType{
		name:              name,
		primaryKeyColumns: primaryKeyColumns,
	}
}
