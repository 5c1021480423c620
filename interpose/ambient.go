package interpose

import (
	"golang.org/x/sys/unix"

	"github.com/victoralfred/childenv/internal/liveenv"
)

// Execvp replaces the process image with file located via PATH search,
// using a filtered copy of the live environment.
//
// The real searching call reads the live environment itself, so the
// interceptor swaps the live slot to the filtered copy for the duration of
// the invoke. On failure the slot is restored to its pre-call value before
// the copy is released; the live environment must never reference a
// released vector.
func Execvp(file string, argv []string) error {
	real := table.execvp()
	return ambientInvoke(func() error {
		return real(file, argv)
	})
}

// Execv replaces the process image with path using a filtered copy of the
// live environment. Same swap/restore discipline as Execvp.
func Execv(path string, argv []string) error {
	real := table.execv()
	return ambientInvoke(func() error {
		return real(path, argv)
	})
}

// ambientInvoke runs one ambient-mode Build → Swap → Invoke → Restore →
// Release sequence around invoke.
func ambientInvoke(invoke func() error) error {
	env, err := builder.Build(liveenv.Snapshot())
	if err != nil {
		return unix.ENOMEM
	}

	prev, err := liveenv.Swap(env.Entries())
	if err != nil {
		// Installing the filtered vector is part of constructing the
		// child's view; fail closed like any other build failure.
		env.Release()
		return unix.ENOMEM
	}

	err = invoke()

	// Failure path only. Restore first, release second.
	_ = liveenv.Restore(prev)
	env.Release()
	return err
}
