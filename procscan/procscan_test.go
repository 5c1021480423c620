//go:build linux

package procscan

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

const mapsSample = `560a1c200000-560a1c201000 r--p 00000000 103:02 1234567 /usr/bin/cat
7f3b40000000-7f3b40021000 rw-p 00000000 00:00 0
7f3b40200000-7f3b40228000 r--p 00000000 103:02 2345678 /usr/lib/x86_64-linux-gnu/libc.so.6
7f3b40228000-7f3b40250000 r-xp 00028000 103:02 2345678 /usr/lib/x86_64-linux-gnu/libc.so.6
7f3b40400000-7f3b40402000 r--p 00000000 103:02 3456789 /usr/lib/libjemalloc.so.2
7f3b40500000-7f3b40501000 r--p 00000000 103:02 4567890 /opt/odd name/libweird.so
7ffc5a000000-7ffc5a021000 rw-p 00000000 00:00 0 [stack]
7ffc5a0fe000-7ffc5a100000 r-xp 00000000 00:00 0 [vdso]
`

func TestParseMaps(t *testing.T) {
	mappings, err := ParseMaps(strings.NewReader(mapsSample))
	if err != nil {
		t.Fatalf("ParseMaps() error = %v", err)
	}
	if len(mappings) != 8 {
		t.Fatalf("ParseMaps() returned %d mappings, want 8", len(mappings))
	}

	first := mappings[0]
	want := Mapping{
		Start:  0x560a1c200000,
		End:    0x560a1c201000,
		Perms:  "r--p",
		Offset: 0,
		Device: "103:02",
		Inode:  1234567,
		Path:   "/usr/bin/cat",
	}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("first mapping = %+v, want %+v", first, want)
	}

	if anon := mappings[1]; anon.Path != "" {
		t.Errorf("anonymous mapping has path %q", anon.Path)
	}
	if spaced := mappings[5]; spaced.Path != "/opt/odd name/libweird.so" {
		t.Errorf("path with spaces parsed as %q", spaced.Path)
	}
	if stack := mappings[6]; stack.Path != "[stack]" {
		t.Errorf("stack mapping path = %q", stack.Path)
	}
}

func TestParseMapsMalformed(t *testing.T) {
	for _, line := range []string{
		"not-an-address r--p 00000000 103:02 123 /x",
		"560a1c200000 r--p 00000000 103:02 123 /x",
		"0-1 r--p nothex 103:02 123 /x",
		"0-1 r--p 00000000 103:02 notanum /x",
		"0-1 r--p",
	} {
		if _, err := ParseMaps(strings.NewReader(line + "\n")); err == nil {
			t.Errorf("ParseMaps(%q) = nil error", line)
		}
	}
}

func TestParseMapsSkipsBlankLines(t *testing.T) {
	mappings, err := ParseMaps(strings.NewReader("\n\n"))
	if err != nil {
		t.Fatalf("ParseMaps() error = %v", err)
	}
	if len(mappings) != 0 {
		t.Errorf("ParseMaps() = %v, want none", mappings)
	}
}

func TestSharedObjects(t *testing.T) {
	mappings, err := ParseMaps(strings.NewReader(mapsSample))
	if err != nil {
		t.Fatalf("ParseMaps() error = %v", err)
	}

	got := sharedObjects(mappings)
	want := []string{
		"/usr/lib/x86_64-linux-gnu/libc.so.6",
		"/usr/lib/libjemalloc.so.2",
		"/opt/odd name/libweird.so",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sharedObjects() = %v, want %v", got, want)
	}
}

func TestIsSharedObject(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/usr/lib/libc.so.6", true},
		{"/usr/lib/libx.so", true},
		{"/usr/bin/cat", false},
		{"/etc/ld.so.cache", true},
		{"/tmp/data.txt", false},
	}
	for _, tt := range tests {
		if got := isSharedObject(tt.path); got != tt.want {
			t.Errorf("isSharedObject(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestMatchLibrary(t *testing.T) {
	libs := []string{
		"/usr/lib/x86_64-linux-gnu/libc.so.6",
		"/usr/lib/libjemalloc.so.2",
	}

	tests := []struct {
		query string
		want  bool
	}{
		{"/usr/lib/libjemalloc.so.2", true},
		{"libjemalloc.so.2", true},
		{"libjemalloc", true},
		{"libc.so.6", true},
		{"libasan", false},
		{"jemalloc", false},
	}
	for _, tt := range tests {
		if got := matchLibrary(libs, tt.query); got != tt.want {
			t.Errorf("matchLibrary(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestParseEnviron(t *testing.T) {
	data := []byte("PATH=/bin\x00FOO=1\x00\x00BARE\x00")
	got := parseEnviron(data)
	want := []string{"PATH=/bin", "FOO=1", "BARE"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseEnviron() = %v, want %v", got, want)
	}

	if got := parseEnviron(nil); got != nil {
		t.Errorf("parseEnviron(nil) = %v, want nil", got)
	}
}

func TestLeakedFrom(t *testing.T) {
	env := []string{"PATH=/bin", "SECRET=x", "LD_PRELOAD=/a.so"}

	got := leakedFrom(env, []string{"SECRET", "GONE", "LD_PRELOAD"})
	want := []string{"SECRET", "LD_PRELOAD"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("leakedFrom() = %v, want %v", got, want)
	}

	if got := leakedFrom(env, []string{"GONE"}); got != nil {
		t.Errorf("leakedFrom() = %v, want nil for fully scrubbed names", got)
	}
}

func TestSelfInspection(t *testing.T) {
	// The test process is as good a subject as any.
	pid := os.Getpid()

	env, err := Environ(pid)
	if err != nil {
		t.Fatalf("Environ(self) error = %v", err)
	}
	if len(env) == 0 {
		t.Error("Environ(self) returned an empty initial environment")
	}

	if _, err := Libraries(pid); err != nil {
		t.Errorf("Libraries(self) error = %v", err)
	}
}

func TestPollerContextCancellation(t *testing.T) {
	p := NewPoller(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// The test process never maps this library, so only the deadline can
	// end the wait. The limiter reports that either as the context error
	// or as its own would-exceed-deadline error.
	err := p.WaitLibrary(ctx, os.Getpid(), "libdoesnotexist")
	if err == nil {
		t.Fatal("WaitLibrary() = nil for a library that is never mapped")
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("WaitLibrary() error = %v, want a deadline-driven error", err)
	}
}

func TestPollerWaitScrubbedSettles(t *testing.T) {
	p := NewPoller(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.WaitScrubbed(ctx, os.Getpid(), []string{"CHILDENV_NEVER_SET"}); err != nil {
		t.Errorf("WaitScrubbed() error = %v", err)
	}
}
