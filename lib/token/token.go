// Package token provides the object tokens used to identify stored objects.
package token

import (
	"strings"

	"github.com/google/uuid"
)

// New generates a new token of the form `prefix_<32 hex characters>`.
func New(
	prefix string,
) string {
	return prefix + "_" +
		strings.Replace(uuid.New().String(), "-", "", -1)
}
