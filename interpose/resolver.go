package interpose

import "sync"

// execveFunc replaces the process image using an explicit environment
// vector. On success it never returns.
type execveFunc func(path string, argv, envp []string) error

// ambientExecFunc replaces the process image using the live process
// environment. On success it never returns.
type ambientExecFunc func(path string, argv []string) error

// symbols is the resolved-binding table for the real, non-intercepted exec
// operations. Each binding is resolved lazily on first use, at most once
// for the life of the process, and is assumed stable afterwards. There is
// no invalidation.
type symbols struct {
	execve  func() execveFunc
	execvpe func() execveFunc
	execvp  func() ambientExecFunc
	execv   func() ambientExecFunc
}

// table is shared process-wide state, written only by tests. See the
// package comment for the concurrency contract.
var table = defaultSymbols()

// defaultSymbols binds each symbol to the underlying system
// implementation, deferred behind a once-per-symbol resolution.
func defaultSymbols() symbols {
	return symbols{
		execve:  sync.OnceValue(resolveExecve),
		execvpe: sync.OnceValue(resolveExecvpe),
		execvp:  sync.OnceValue(resolveExecvp),
		execv:   sync.OnceValue(resolveExecv),
	}
}

// swapSymbols replaces the binding table and returns a restore function.
// Test seam only.
func swapSymbols(s symbols) (restore func()) {
	prev := table
	table = s
	return func() { table = prev }
}
