// Package logging provides the contextual logging used across the codebase.
package logging

import (
	"context"
	"log"
)

func init() {
	log.SetFlags(0)
}

// Log logs a message.
func Log(
	ctx context.Context,
	message string,
) {
	log.Print(message)
}

// Logf logs a formatted message.
func Logf(
	ctx context.Context,
	format string,
	v ...interface{},
) {
	log.Printf(format, v...)
}
