// Package uuid issues time-ordered identifiers for persisted records.
// UUIDv7 sorts by creation time, which keeps the invocation log index tidy.
package uuid

import guuid "github.com/google/uuid"

// NewV7 returns a UUIDv7 in canonical string form. If the v7 generator fails
// it falls back to a random v4 so callers always get an id.
func NewV7() string {
	id, err := guuid.NewV7()
	if err != nil {
		return guuid.NewString()
	}
	return id.String()
}

// Version reports the version number of a canonical UUID string.
func Version(s string) (int, error) {
	id, err := guuid.Parse(s)
	if err != nil {
		return 0, err
	}
	return int(id.Version()), nil
}
