package errors

import (
	"fmt"
	"strings"
)

// Newf creates a new raw error and traces it.
func Newf(format string, args ...interface{}) error {
	err := &wrap{
		previous: fmt.Errorf(format, args...),
	}
	err.setLocation(1)
	return err
}

// Trace attaches a location to the error. It should be called each time an
// error is returned. If the error is nil, it returns nil.
func Trace(other error) error {
	if other == nil {
		return nil
	}
	err := &wrap{
		previous: other,
	}
	err.setLocation(1)
	return err
}

// Tracef attaches a location and an annotation to the error. If the error is
// nil it returns nil.
func Tracef(other error, format string, args ...interface{}) error {
	if other == nil {
		return nil
	}
	err := &wrap{
		traceMessage: fmt.Sprintf(format, args...),
		previous:     other,
	}
	err.setLocation(1)
	return err
}

// NewUserError marks this error as a UserError and attaches a consumable
// status, error code and message to it.
func NewUserError(
	other error,
	status int,
	code string,
	message string,
) error {
	err := &wrap{
		errStatus:  status,
		errCode:    code,
		errMessage: message,
		previous:   other,
	}
	err.setLocation(1)
	return err
}

// NewUserErrorf marks this error as a UserError and attaches a consumable
// status, error code and formatted message to it.
func NewUserErrorf(
	other error,
	status int,
	code string,
	format string,
	args ...interface{},
) error {
	err := &wrap{
		errStatus:  status,
		errCode:    code,
		errMessage: fmt.Sprintf(format, args...),
		previous:   other,
	}
	err.setLocation(1)
	return err
}

// ExtractUserError extracts the UserError attached to this error if any.
func ExtractUserError(err error) UserError {
	if err == nil {
		return nil
	}
	if e, ok := err.(UserError); ok {
		if e.Status() != 0 {
			return e
		}
	}
	return nil
}

// Cause returns the underlying raw error if not nil.
func Cause(err error) (ret error) {
	if err, ok := err.(*wrap); ok {
		ret = err.Cause()
		return
	}
	ret = err
	return
}

// ErrorStack returns the full stack of information attached to this error.
func ErrorStack(err error) []string {
	if err == nil {
		return []string{}
	}

	var lines []string
	for {
		var buff []byte
		if e, ok := err.(*wrap); ok {
			file, line := e.location()
			if file != "" {
				buff = append(buff, " "...)
				buff = append(buff, fmt.Sprintf("%s:%d", file, line)...)
				buff = append(buff, ": "...)
			}

			if e.errStatus != 0 {
				buff = append(buff,
					fmt.Sprintf("[%d] {%s} %s",
						e.errStatus, e.errCode, e.errMessage)...)
			} else {
				buff = append(buff,
					fmt.Sprintf("[trace] %s", e.traceMessage)...)
			}

			err = e.previous
		} else {
			buff = append(buff, err.Error()...)
			err = nil
		}
		lines = append(lines, string(buff))
		if err == nil {
			break
		}
	}

	// Reverse the lines to get the original error, which was at the end of
	// the list, back to the start.
	var result []string
	for i := len(lines); i > 0; i-- {
		result = append(result, lines[i-1])
	}
	return result
}

// Details returns a formatted ErrorStack string.
func Details(err error) string {
	return strings.Join(ErrorStack(err), "\n")
}
