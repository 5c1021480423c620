// Package interpose provides the intercepted exec family: process
// replacement entry points that rebuild the environment handed to the new
// program image from the rules in CHILD_ENV_RULES.
//
// Every interceptor follows the same three-state protocol: Build a
// filtered, self-owned environment; Invoke the real underlying call with
// it; then either Release it (the call failed and returned) or abandon it
// (the call succeeded, the process image and that memory with it no
// longer exist, so the cleanup below the invoke is unreachable by
// construction).
//
// Construction failure is fail-closed: if the filter cannot be built, the
// child must not run with an unfiltered environment, so the real call is
// never made and the interceptor reports unix.ENOMEM, indistinguishable
// from the platform itself running out of memory.
//
// The live-environment slot and the per-symbol binding cache are the only
// shared mutable state. Neither is synchronized: exec calls racing across
// threads of one process are hazardous at the platform level already, and
// the contract here is single-call correctness.
package interpose

import (
	"golang.org/x/sys/unix"

	"github.com/victoralfred/childenv/envfilter"
)

// builder constructs filtered environments for every interceptor, reading
// the rule string fresh from the live environment on each call. Replaced
// only by tests.
var builder = envfilter.NewBuilder()

// Execve replaces the process image with path, handing it argv and a
// filtered copy of envp. On failure the filtered copy is released and the
// underlying error is returned unchanged.
func Execve(path string, argv, envp []string) error {
	real := table.execve()

	env, err := builder.Build(envp)
	if err != nil {
		return unix.ENOMEM
	}

	err = real(path, argv, env.Entries())

	// Reached only when the exec itself failed.
	env.Release()
	return err
}

// Execvpe is Execve with PATH search semantics for file.
func Execvpe(file string, argv, envp []string) error {
	real := table.execvpe()

	env, err := builder.Build(envp)
	if err != nil {
		return unix.ENOMEM
	}

	err = real(file, argv, env.Entries())

	env.Release()
	return err
}
