package errors

import (
	"fmt"
	"reflect"
)

// ErrUnexpectedArgumentType is returned when a caller passes an argument of
// the wrong type to an API boundary. It carries the offending value along
// with a descriptor of the expected type and is meant to be returned (or
// panicked) by the caller to fail fast.
type ErrUnexpectedArgumentType struct {
	Expected string
	Value    interface{}
}

func (e ErrUnexpectedArgumentType) Error() string {
	return fmt.Sprintf(
		"Expected argument of type %s, %s given",
		e.Expected, TypeName(e.Value))
}

// TypeName returns the runtime type name of the provided value, using the
// concrete type name for structured values and `nil` for untyped nils.
func TypeName(value interface{}) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}
