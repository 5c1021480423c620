//go:build unix

// Package pathsearch implements the PATH-searching half of the real
// execvp/execvpe bindings. It belongs to the underlying exec
// implementation, not to the environment filter: by the time a search
// runs, the environment vector it is handed has already been rebuilt.
package pathsearch

import (
	"errors"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// defaultPath is consulted when PATH is absent from the live environment,
// mirroring the platform's confstr fallback.
const defaultPath = "/bin:/usr/bin"

// shell runs script candidates that the kernel refuses with ENOEXEC.
const shell = "/bin/sh"

// ExecFunc is the image-replacing call a search attempts per candidate.
// On success it never returns.
type ExecFunc func(path string, argv, envp []string) error

// Exec locates file and replaces the process image via execFn.
//
// A file containing a slash bypasses the search entirely. Otherwise every
// directory of the live PATH is tried in order; ENOENT and ENOTDIR keep
// the search going, EACCES is remembered and reported only if nothing else
// works, ENOEXEC retries the candidate through the shell, and any other
// errno is terminal. PATH is read from the live environment; for the
// ambient exec variants that is the swapped, filtered vector, which is
// exactly the environment the search should honor.
func Exec(file string, argv, envp []string, execFn ExecFunc) error {
	if file == "" {
		return unix.ENOENT
	}

	if strings.ContainsRune(file, '/') {
		err := execFn(file, argv, envp)
		if errors.Is(err, unix.ENOEXEC) {
			return shellFallback(file, argv, envp, execFn)
		}
		return err
	}

	path := os.Getenv("PATH")
	if path == "" {
		path = defaultPath
	}

	sawEACCES := false
	for _, dir := range strings.Split(path, ":") {
		if dir == "" {
			// An empty PATH element means the current directory.
			dir = "."
		}
		candidate := dir + "/" + file

		err := execFn(candidate, argv, envp)
		if err == nil {
			// Unreachable when execFn really replaces the image;
			// kept for test doubles that return instead.
			return nil
		}
		switch {
		case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENOTDIR):
			continue
		case errors.Is(err, unix.EACCES):
			sawEACCES = true
			continue
		case errors.Is(err, unix.ENOEXEC):
			return shellFallback(candidate, argv, envp, execFn)
		default:
			return err
		}
	}

	if sawEACCES {
		return unix.EACCES
	}
	return unix.ENOENT
}

// shellFallback re-runs an ENOEXEC candidate as a shell script, the way
// the platform's searching exec variants do.
func shellFallback(candidate string, argv, envp []string, execFn ExecFunc) error {
	shArgv := make([]string, 0, len(argv)+1)
	shArgv = append(shArgv, shell, candidate)
	if len(argv) > 1 {
		shArgv = append(shArgv, argv[1:]...)
	}
	return execFn(shell, shArgv, envp)
}
