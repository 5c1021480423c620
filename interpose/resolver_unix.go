//go:build unix

package interpose

import (
	"golang.org/x/sys/unix"

	"github.com/victoralfred/childenv/internal/liveenv"
	"github.com/victoralfred/childenv/internal/pathsearch"
)

// resolveExecve binds the direct-environment image replacement.
func resolveExecve() execveFunc {
	return func(path string, argv, envp []string) error {
		return unix.Exec(path, argv, envp)
	}
}

// resolveExecvpe binds the PATH-searching variant taking an explicit
// environment.
func resolveExecvpe() execveFunc {
	return func(file string, argv, envp []string) error {
		return pathsearch.Exec(file, argv, envp, unix.Exec)
	}
}

// resolveExecvp binds the PATH-searching variant that reads the live
// environment at call time.
func resolveExecvp() ambientExecFunc {
	return func(file string, argv []string) error {
		return pathsearch.Exec(file, argv, liveenv.Snapshot(), unix.Exec)
	}
}

// resolveExecv binds the simple variant that reads the live environment at
// call time.
func resolveExecv() ambientExecFunc {
	return func(path string, argv []string) error {
		return unix.Exec(path, argv, liveenv.Snapshot())
	}
}
