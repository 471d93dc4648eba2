package model

import (
	"fmt"

	"github.com/spolu/distinct"
)

// ErrUniqueConstraintViolation is returned when an object insertion violates
// a unique constraint, which catches the write races the pre-insert
// uniqueness check can't see.
type ErrUniqueConstraintViolation struct {
	Err error
}

func (e ErrUniqueConstraintViolation) Error() string {
	return fmt.Sprintf(
		"Unique constraint violation in %s", e.Err.Error())
}

// ErrUserExists is returned when a user write fails the pre-write uniqueness
// check.
type ErrUserExists struct {
	Errors []distinct.FieldError
}

func (e ErrUserExists) Error() string {
	if len(e.Errors) == 0 {
		return "User already exists"
	}
	return fmt.Sprintf(
		"User already exists: %s", e.Errors[0].Message)
}
