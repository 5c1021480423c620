//go:build linux

// Package procscan inspects a running process from the outside: which
// shared objects the dynamic linker mapped into it, and which environment
// variables it was started with. It consumes nothing from the filter core;
// it exists to verify, through the platform's process-introspection
// facilities, that preloading and filtering took effect.
package procscan

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/victoralfred/gowritter/safepath"
)

// Mapping is one line of a process's memory map.
type Mapping struct {
	Start  uint64
	End    uint64
	Perms  string
	Offset uint64
	Device string
	Inode  uint64
	Path   string
}

// procDir opens the introspection directory of pid.
func procDir(pid int) (*safepath.SafePath, error) {
	sp, err := safepath.New("/proc/" + strconv.Itoa(pid))
	if err != nil {
		return nil, fmt.Errorf("opening proc entry for pid %d: %w", pid, err)
	}
	return sp, nil
}

// Maps returns the memory mappings of pid.
func Maps(pid int) ([]Mapping, error) {
	sp, err := procDir(pid)
	if err != nil {
		return nil, err
	}
	data, err := sp.ReadFile("maps")
	if err != nil {
		return nil, fmt.Errorf("reading maps for pid %d: %w", pid, err)
	}
	return ParseMaps(bytes.NewReader(data))
}

// ParseMaps parses the maps format: address range, permissions, offset,
// device, inode, and an optional pathname.
func ParseMaps(r io.Reader) ([]Mapping, error) {
	var out []Mapping

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		m, err := parseMapLine(line)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseMapLine(line string) (Mapping, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Mapping{}, fmt.Errorf("malformed maps line %q", line)
	}

	startStr, endStr, found := strings.Cut(fields[0], "-")
	if !found {
		return Mapping{}, fmt.Errorf("malformed maps address %q", fields[0])
	}
	start, err := strconv.ParseUint(startStr, 16, 64)
	if err != nil {
		return Mapping{}, fmt.Errorf("malformed maps address %q", fields[0])
	}
	end, err := strconv.ParseUint(endStr, 16, 64)
	if err != nil {
		return Mapping{}, fmt.Errorf("malformed maps address %q", fields[0])
	}

	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return Mapping{}, fmt.Errorf("malformed maps offset %q", fields[2])
	}
	inode, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return Mapping{}, fmt.Errorf("malformed maps inode %q", fields[4])
	}

	m := Mapping{
		Start:  start,
		End:    end,
		Perms:  fields[1],
		Offset: offset,
		Device: fields[3],
		Inode:  inode,
	}
	if len(fields) >= 6 {
		m.Path = strings.Join(fields[5:], " ")
	}
	return m, nil
}

// Libraries returns the shared objects mapped into pid, in first-seen
// order, one entry per path.
func Libraries(pid int) ([]string, error) {
	mappings, err := Maps(pid)
	if err != nil {
		return nil, err
	}
	return sharedObjects(mappings), nil
}

// sharedObjects filters mappings down to unique shared-object paths.
func sharedObjects(mappings []Mapping) []string {
	var libs []string
	seen := make(map[string]bool)
	for _, m := range mappings {
		if m.Path == "" || strings.HasPrefix(m.Path, "[") {
			continue
		}
		if !isSharedObject(m.Path) {
			continue
		}
		if !seen[m.Path] {
			seen[m.Path] = true
			libs = append(libs, m.Path)
		}
	}
	return libs
}

// isSharedObject recognizes ".so" and versioned ".so.N" names.
func isSharedObject(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".so") || strings.Contains(base, ".so.")
}

// HasLibrary reports whether a library is mapped into pid. A library
// matches on its full path, its base name, or a base-name prefix, so
// "libjemalloc" finds "/usr/lib/libjemalloc.so.2".
func HasLibrary(pid int, library string) (bool, error) {
	libs, err := Libraries(pid)
	if err != nil {
		return false, err
	}
	return matchLibrary(libs, library), nil
}

func matchLibrary(libs []string, library string) bool {
	for _, lib := range libs {
		if lib == library {
			return true
		}
		base := filepath.Base(lib)
		if base == library || strings.HasPrefix(base, library) {
			return true
		}
	}
	return false
}
