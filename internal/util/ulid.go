package util

import (
	"github.com/oklog/ulid/v2"
)

// NewULID generates a new ULID string. ulid.Make is safe for concurrent use
// and monotonic within the process.
func NewULID() string {
	return ulid.Make().String()
}

// IsULID reports whether s is a canonical ULID string.
func IsULID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
