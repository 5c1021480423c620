// Package childenv keeps parent-process configuration out of child
// processes.
//
// A parent often receives configuration through its environment (an
// alternate memory allocator activated via the dynamic linker's preload
// list being the canonical example) that must not propagate to every
// process the parent launches. childenv intercepts the exec family and
// rebuilds the environment vector handed to the new program image from a
// rule string held in one designated variable, CHILD_ENV_RULES.
//
// # Rule Grammar
//
// CHILD_ENV_RULES is a comma-separated list of rules, each either a bare
// variable name (remove that variable) or name=value (set or overwrite
// it). The string is read fresh on every intercepted call, so rules may
// change between successive launches. An absent or empty rule string means
// no filtering: the child still receives an independently allocated copy
// of its environment.
//
//	CHILD_ENV_RULES="LD_PRELOAD,MALLOC_CONF,CHILD_ENV_RULES" ./parent
//
// # Interception
//
// Programs route process replacement through this module's exec entry
// points instead of calling the system directly:
//
//	err := childenv.Execvp("git", []string{"git", "status"})
//	// err is non-nil only when the exec failed; on success the
//	// process image has been replaced.
//
// Construction failure is fail-closed: if the filtered environment cannot
// be built, the real exec is never invoked and the call reports the
// platform's out-of-memory errno.
//
// # Package Structure
//
//   - childenv: main entry point and convenience functions
//   - rules: CHILD_ENV_RULES grammar
//   - envfilter: environment reconstruction (the core)
//   - interpose: intercepted exec family and symbol resolution
//   - launcher: profile-driven configure-then-exec utility
//   - procscan: verification of a running process's maps and environ
//   - observability: OpenTelemetry metrics and launch audit logging
//   - config: configuration management for the tooling
//
// # File I/O
//
// All file operations in this library use
// github.com/victoralfred/gowritter/safepath for secure path handling.
package childenv
