package util

import (
	"github.com/oklog/ulid/v2"
)

// NewULID generates a new ULID string.
// ulid.Make is safe for concurrent use and monotonic within a millisecond,
// so ids minted back to back still sort in creation order.
func NewULID() string {
	return ulid.Make().String()
}
