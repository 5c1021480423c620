// Package liveenv treats the process-wide environment as a single mutable
// slot with a scoped swap/restore lifecycle.
//
// Ambient-mode exec interceptors swap the slot to a filtered vector for the
// duration of their invoke step and restore it on the failure exit path
// only (on success the process image is replaced and the slot is gone with
// it). The slot is shared, mutable, and touched without synchronization:
// exec calls racing across threads of one process are already hazardous at
// the platform level, and this package does not try to fix that. The
// contract is single-call correctness.
//
// Installation goes through the platform's per-name set call, which cannot
// represent everything a raw vector can: duplicate names collapse to the
// last occurrence and a bare NAME entry comes back as NAME=. Only the
// ambient exec variants pass through this representation; the explicit-envp
// variants hand their vector to the exec call untouched.
package liveenv

import (
	"os"
	"strings"
)

// Snapshot returns the current live environment vector.
func Snapshot() []string {
	return os.Environ()
}

// Swap replaces the live environment with entries and returns the previous
// vector for a later Restore. If installation fails partway, the previous
// environment is reinstated before the error is reported, so the slot is
// never left half-written.
func Swap(entries []string) ([]string, error) {
	prev := os.Environ()
	if err := install(entries); err != nil {
		// Best effort: the original entries were all installable a
		// moment ago.
		_ = install(prev)
		return nil, err
	}
	return prev, nil
}

// Restore reinstates a vector previously returned by Swap.
func Restore(prev []string) error {
	return install(prev)
}

// install replaces the live environment wholesale. An entry without '=' is
// installed with an empty value; an entry with an empty name is dropped,
// since the platform cannot represent it.
func install(entries []string) error {
	os.Clearenv()
	for _, entry := range entries {
		name, value, _ := strings.Cut(entry, "=")
		if name == "" {
			continue
		}
		if err := os.Setenv(name, value); err != nil {
			return err
		}
	}
	return nil
}
