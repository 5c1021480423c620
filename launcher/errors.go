package launcher

import (
	"errors"
	"fmt"
)

// Sentinel errors for launch failures.
var (
	// ErrNoProfiles indicates a profile configuration with no profiles.
	ErrNoProfiles = errors.New("no profiles defined")

	// ErrUnknownProfile indicates the requested profile does not exist.
	ErrUnknownProfile = errors.New("unknown profile")
)

// LaunchError provides detailed launch failure information.
type LaunchError struct {
	// Op is the operation that failed.
	Op string

	// Profile is the profile in use.
	Profile string

	// Target is the program being launched.
	Target string

	// Err is the underlying error.
	Err error
}

// Error returns the error message.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("%s: %s (profile %s): %v", e.Op, e.Target, e.Profile, e.Err)
}

// Unwrap returns the underlying error.
func (e *LaunchError) Unwrap() error {
	return e.Err
}
