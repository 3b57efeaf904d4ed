// Package uuid issues time-ordered identifiers for request correlation and
// token ids.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string. Version 7 ids sort by creation time, which
// keeps request ids in log order.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// Normalize returns the canonical form of s when it is a valid UUID.
func Normalize(s string) (string, bool) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// Version reports the UUID version of s, or 0 when s is not a UUID.
func Version(s string) int {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return 0
	}
	return int(parsed.Version())
}
