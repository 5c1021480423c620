package envfilter

import "strings"

// Arena abstracts storage acquisition for filtered environments.
//
// Every string and every vector that ends up inside an Environment is
// obtained through an Arena, which gives the builder a single choke point
// for allocation failure: if any acquisition fails, the whole build is
// abandoned and nothing half-built escapes. The default arena never fails;
// tests substitute failing arenas to exercise the fail-closed path at each
// allocation step.
type Arena interface {
	// CloneString returns a copy of s with independent storage.
	CloneString(s string) (string, error)

	// NewVector returns an empty entry vector with capacity for n entries.
	NewVector(n int) ([]string, error)
}

// SystemArena acquires storage from the Go heap. It never reports failure.
type SystemArena struct{}

// CloneString implements Arena.
func (SystemArena) CloneString(s string) (string, error) {
	return strings.Clone(s), nil
}

// NewVector implements Arena.
func (SystemArena) NewVector(n int) ([]string, error) {
	return make([]string, 0, n), nil
}
