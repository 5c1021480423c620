//go:build linux

package procscan

import (
	"fmt"
	"strings"
)

// Environ returns the environment vector pid was started with. The kernel
// exposes the initial environment only; a process that rewrites its own
// environment afterwards is not visible here.
func Environ(pid int) ([]string, error) {
	sp, err := procDir(pid)
	if err != nil {
		return nil, err
	}
	data, err := sp.ReadFile("environ")
	if err != nil {
		return nil, fmt.Errorf("reading environ for pid %d: %w", pid, err)
	}
	return parseEnviron(data), nil
}

// parseEnviron splits the NUL-separated environ format.
func parseEnviron(data []byte) []string {
	var out []string
	for _, entry := range strings.Split(string(data), "\x00") {
		if entry == "" {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Leaked returns which of names are present in pid's initial environment.
// An empty result means the filter scrubbed everything it was asked to.
func Leaked(pid int, names []string) ([]string, error) {
	env, err := Environ(pid)
	if err != nil {
		return nil, err
	}
	return leakedFrom(env, names), nil
}

func leakedFrom(env, names []string) []string {
	present := make(map[string]bool, len(env))
	for _, entry := range env {
		name, _, _ := strings.Cut(entry, "=")
		present[name] = true
	}

	var leaked []string
	for _, name := range names {
		if present[name] {
			leaked = append(leaked, name)
		}
	}
	return leaked
}
