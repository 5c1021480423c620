// Package envfilter rebuilds child-process environment vectors from the
// rules held in the CHILD_ENV_RULES variable.
//
// The builder produces a fully self-owned copy of its source: every entry
// is duplicated, no string or slice cell is shared with the source, the
// live process environment, or a previous build. That independence is the
// central invariant: a filtered environment can be released (or the live
// environment swapped onto it and later away from it) without any risk of
// aliasing into storage the builder does not own.
//
// Construction is fail-closed. Any allocation failure aborts the whole
// build, releases everything acquired so far for that call, and reports
// ErrOutOfMemory; a partially filtered environment is never returned.
package envfilter

import (
	"errors"
	"fmt"
	"os"

	"github.com/victoralfred/childenv/rules"
)

// ErrOutOfMemory indicates storage acquisition failed during a build.
// Interceptors translate it into the platform's resource-exhaustion errno
// so callers cannot distinguish filter construction failure from the real
// call running out of memory.
var ErrOutOfMemory = errors.New("out of memory")

// Environment is a self-owned environment vector produced by a Builder.
//
// It is exclusively owned by the caller that requested it: either the
// process image is replaced while it is in use (and ownership becomes
// moot), or the caller must Release it before returning. Environment
// values are only ever constructed from freshly acquired storage, so
// Release never touches memory owned by anyone else.
type Environment struct {
	entries []string
}

// Entries returns a borrowed view of the entry vector. The view is valid
// until Release is called.
func (e *Environment) Entries() []string {
	if e == nil {
		return nil
	}
	return e.entries
}

// Len returns the number of entries.
func (e *Environment) Len() int {
	if e == nil {
		return 0
	}
	return len(e.entries)
}

// Release frees every entry and the vector itself. A nil receiver is a
// no-op. After Release the Environment is empty and must not be handed to
// an exec call.
func (e *Environment) Release() {
	if e == nil {
		return
	}
	releaseVector(e.entries)
	e.entries = nil
}

// releaseVector drops every entry so the storage is unreachable even if
// the slice header leaks somewhere.
func releaseVector(vec []string) {
	for i := range vec {
		vec[i] = ""
	}
}

// RuleSource supplies the current rule string, reporting absence the same
// way os.LookupEnv does.
type RuleSource func() (string, bool)

// Builder constructs filtered environment vectors.
type Builder struct {
	arena       Arena
	lookupRules RuleSource
}

// Option configures a Builder.
type Option func(*Builder)

// WithArena substitutes the storage arena.
func WithArena(a Arena) Option {
	return func(b *Builder) {
		b.arena = a
	}
}

// WithRuleSource substitutes where the rule string is read from. The
// default reads rules.Variable from the live process environment, fresh on
// every build.
func WithRuleSource(src RuleSource) Option {
	return func(b *Builder) {
		b.lookupRules = src
	}
}

// NewBuilder creates a builder with the system arena and the live
// environment as the rule source.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		arena: SystemArena{},
		lookupRules: func() (string, bool) {
			return os.LookupEnv(rules.Variable)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces a filtered, self-owned copy of source.
//
// With no rule string present, or with an empty source, the result is a
// verbatim deep copy; the "no rules" case still yields self-owned
// storage, so callers never branch on provenance. Otherwise the source is
// scanned once: entries whose name matches a rule (first match wins) are
// suppressed, everything else is copied in original order, and then each
// set rule is appended in rule order. An appended entry after a suppressed
// one is what implements overwrite; an appended entry nothing suppressed
// is an addition. Duplicate set rules each contribute an entry.
func (b *Builder) Build(source []string) (*Environment, error) {
	var ruleset []rules.Rule
	if s, ok := b.lookupRules(); ok {
		ruleset = rules.Parse(s)
	}

	if len(ruleset) == 0 || len(source) == 0 {
		return b.copyVerbatim(source)
	}

	// Output size is bounded by every source entry surviving plus every
	// rule appending one entry.
	vec, err := b.arena.NewVector(len(source) + len(ruleset))
	if err != nil {
		return nil, fmt.Errorf("entry vector: %w", ErrOutOfMemory)
	}

	for _, entry := range source {
		if ruled(ruleset, entry) {
			continue
		}
		dup, err := b.arena.CloneString(entry)
		if err != nil {
			releaseVector(vec)
			return nil, fmt.Errorf("copying entry: %w", ErrOutOfMemory)
		}
		vec = append(vec, dup)
	}

	for _, r := range ruleset {
		if !r.Set {
			continue
		}
		dup, err := b.arena.CloneString(r.Entry())
		if err != nil {
			releaseVector(vec)
			return nil, fmt.Errorf("building entry: %w", ErrOutOfMemory)
		}
		vec = append(vec, dup)
	}

	return &Environment{entries: vec}, nil
}

// copyVerbatim deep-copies source entry for entry.
func (b *Builder) copyVerbatim(source []string) (*Environment, error) {
	vec, err := b.arena.NewVector(len(source))
	if err != nil {
		return nil, fmt.Errorf("entry vector: %w", ErrOutOfMemory)
	}
	for _, entry := range source {
		dup, err := b.arena.CloneString(entry)
		if err != nil {
			releaseVector(vec)
			return nil, fmt.Errorf("copying entry: %w", ErrOutOfMemory)
		}
		vec = append(vec, dup)
	}
	return &Environment{entries: vec}, nil
}

// ruled reports whether entry matches any rule. Matching stops at the
// first rule that names the entry's variable.
func ruled(ruleset []rules.Rule, entry string) bool {
	for _, r := range ruleset {
		if r.Matches(entry) {
			return true
		}
	}
	return false
}
