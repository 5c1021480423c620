package envfilter

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/victoralfred/childenv/rules"
)

// staticRules returns a rule source pinned to a fixed string.
func staticRules(s string) RuleSource {
	return func() (string, bool) { return s, true }
}

// noRules reports the rule variable as absent.
func noRules() (string, bool) { return "", false }

func build(t *testing.T, ruleStr string, source []string) []string {
	t.Helper()
	b := NewBuilder(WithRuleSource(staticRules(ruleStr)))
	env, err := b.Build(source)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return env.Entries()
}

func TestBuildRemovalOnly(t *testing.T) {
	source := []string{"PATH=/bin", "LD_PRELOAD=libx.so", "FOO=1", "BAR=2"}

	got := build(t, "LD_PRELOAD,BAR", source)
	want := []string{"PATH=/bin", "FOO=1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Build() = %v, want %v", got, want)
	}
}

func TestBuildOverwrite(t *testing.T) {
	// The old entry is suppressed during the scan and the new one
	// appended after all surviving originals.
	source := []string{"FOO=1", "PATH=/bin"}

	got := build(t, "FOO=2", source)
	want := []string{"PATH=/bin", "FOO=2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Build() = %v, want %v", got, want)
	}
}

func TestBuildAddition(t *testing.T) {
	source := []string{"A=1", "B=2"}

	got := build(t, "C=3", source)
	want := []string{"A=1", "B=2", "C=3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Build() = %v, want %v", got, want)
	}
}

func TestBuildRemoveAndOverwriteTogether(t *testing.T) {
	source := []string{"PATH=/bin", "LD_PRELOAD=libx.so", "FOO=1"}

	got := build(t, "LD_PRELOAD,FOO=2", source)
	want := []string{"PATH=/bin", "FOO=2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Build() = %v, want %v", got, want)
	}
}

func TestBuildEmptyRuleString(t *testing.T) {
	source := []string{"A=1"}

	got := build(t, "", source)
	if !reflect.DeepEqual(got, source) {
		t.Errorf("Build() = %v, want %v", got, source)
	}
}

func TestBuildNoRuleVariable(t *testing.T) {
	source := []string{"A=1", "B=2"}
	b := NewBuilder(WithRuleSource(noRules))

	env, err := b.Build(source)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !reflect.DeepEqual(env.Entries(), source) {
		t.Errorf("Build() = %v, want %v", env.Entries(), source)
	}
}

func TestBuildCopyIsIndependent(t *testing.T) {
	source := []string{"A=1", "B=2"}
	b := NewBuilder(WithRuleSource(noRules))

	env, err := b.Build(source)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	got := env.Entries()
	got[0] = "MUTATED=yes"
	if source[0] != "A=1" {
		t.Error("mutating the filtered copy changed the source")
	}

	source[1] = "MUTATED=yes"
	if got[1] != "B=2" {
		t.Error("mutating the source changed the filtered copy")
	}
}

func TestBuildEmptySource(t *testing.T) {
	b := NewBuilder(WithRuleSource(staticRules("FOO=1,BAR")))

	env, err := b.Build(nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// An absent source yields an (owned) empty vector; rules are not
	// applied to nothing.
	if env.Len() != 0 {
		t.Errorf("Build(nil) has %d entries, want 0", env.Len())
	}
}

func TestBuildDuplicateSetRules(t *testing.T) {
	// Duplicate set rules are not deduplicated; each contributes an
	// output entry.
	source := []string{"FOO=1"}

	got := build(t, "FOO=2,FOO=3", source)
	want := []string{"FOO=2", "FOO=3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Build() = %v, want %v", got, want)
	}
}

func TestBuildFirstRuleWins(t *testing.T) {
	// A removal ahead of a set for the same name still suppresses the
	// original, and the set still appends.
	source := []string{"FOO=1", "BAR=2"}

	got := build(t, "FOO,FOO=9", source)
	want := []string{"BAR=2", "FOO=9"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Build() = %v, want %v", got, want)
	}
}

func TestBuildEntryWithoutEquals(t *testing.T) {
	// A source entry with no '=' is matched on its whole text.
	source := []string{"WEIRD", "A=1"}

	got := build(t, "WEIRD", source)
	want := []string{"A=1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Build() = %v, want %v", got, want)
	}
}

func TestBuildIdempotent(t *testing.T) {
	source := []string{"PATH=/bin", "LD_PRELOAD=libx.so", "FOO=1", "BAR=2"}
	ruleStr := "LD_PRELOAD,FOO=2,NEW=3"

	once := build(t, ruleStr, source)
	twice := build(t, ruleStr, once)

	if !reflect.DeepEqual(asMap(t, once), asMap(t, twice)) {
		t.Errorf("second filter changed the entry set: %v vs %v", once, twice)
	}
}

func asMap(t *testing.T, env []string) map[string]string {
	t.Helper()
	m := make(map[string]string, len(env))
	for _, entry := range env {
		name, value, _ := strings.Cut(entry, "=")
		m[name] = value
	}
	return m
}

func TestBuildRuleStringReadPerCall(t *testing.T) {
	current := "FOO"
	b := NewBuilder(WithRuleSource(func() (string, bool) { return current, true }))
	source := []string{"FOO=1", "BAR=2"}

	env, err := b.Build(source)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if env.Len() != 1 {
		t.Fatalf("first build has %d entries, want 1", env.Len())
	}

	current = "BAR"
	env, err = b.Build(source)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := env.Entries(); !reflect.DeepEqual(got, []string{"FOO=1"}) {
		t.Errorf("rule change between calls not honored: %v", got)
	}
}

func TestEnvironmentRelease(t *testing.T) {
	env, err := NewBuilder(WithRuleSource(noRules)).Build([]string{"A=1"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	env.Release()
	if env.Entries() != nil {
		t.Error("Entries() non-nil after Release")
	}
	if env.Len() != 0 {
		t.Error("Len() non-zero after Release")
	}

	// Released and nil environments are no-ops.
	env.Release()
	var nilEnv *Environment
	nilEnv.Release()
	if nilEnv.Entries() != nil {
		t.Error("nil Environment has entries")
	}
}

// failingArena fails the nth storage acquisition.
type failingArena struct {
	calls  int
	failAt int
}

func (a *failingArena) CloneString(s string) (string, error) {
	a.calls++
	if a.calls >= a.failAt {
		return "", errors.New("injected failure")
	}
	return strings.Clone(s), nil
}

func (a *failingArena) NewVector(n int) ([]string, error) {
	a.calls++
	if a.calls >= a.failAt {
		return nil, errors.New("injected failure")
	}
	return make([]string, 0, n), nil
}

func TestBuildAllocationFailureAtEveryStep(t *testing.T) {
	source := []string{"PATH=/bin", "LD_PRELOAD=libx.so", "FOO=1"}
	ruleStr := "LD_PRELOAD,FOO=2,NEW=3"

	// Count the acquisitions of a clean run, then fail each one in turn.
	counter := &failingArena{failAt: 1 << 30}
	b := NewBuilder(WithArena(counter), WithRuleSource(staticRules(ruleStr)))
	if _, err := b.Build(source); err != nil {
		t.Fatalf("counting Build() error = %v", err)
	}
	total := counter.calls
	if total == 0 {
		t.Fatal("no acquisitions recorded")
	}

	for failAt := 1; failAt <= total; failAt++ {
		t.Run(fmt.Sprintf("fail_at_%d", failAt), func(t *testing.T) {
			arena := &failingArena{failAt: failAt}
			b := NewBuilder(WithArena(arena), WithRuleSource(staticRules(ruleStr)))

			env, err := b.Build(source)
			if err == nil {
				t.Fatal("Build() succeeded with failing arena")
			}
			if !errors.Is(err, ErrOutOfMemory) {
				t.Errorf("Build() error = %v, want ErrOutOfMemory", err)
			}
			if env != nil {
				t.Errorf("Build() returned partial output %v", env.Entries())
			}
		})
	}
}

func TestBuildVerbatimCopyAllocationFailure(t *testing.T) {
	b := NewBuilder(
		WithArena(&failingArena{failAt: 2}),
		WithRuleSource(noRules),
	)

	env, err := b.Build([]string{"A=1", "B=2"})
	if !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("Build() error = %v, want ErrOutOfMemory", err)
	}
	if env != nil {
		t.Errorf("Build() returned partial output %v", env.Entries())
	}
}

func TestDefaultRuleSourceReadsLiveEnvironment(t *testing.T) {
	t.Setenv(rules.Variable, "SECRET")

	env, err := NewBuilder().Build([]string{"SECRET=x", "KEEP=1"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := env.Entries(); !reflect.DeepEqual(got, []string{"KEEP=1"}) {
		t.Errorf("Build() = %v, want [KEEP=1]", got)
	}
}
