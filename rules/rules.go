// Package rules parses the CHILD_ENV_RULES grammar into filter directives.
//
// The grammar is flat and comma-separated:
//
//	rules := rule (',' rule)*
//	rule  := name | name '=' value
//
// A bare name removes that variable from the child environment. A
// name=value pair sets (or overwrites) it. Names are compared
// case-sensitively and exactly; there is no globbing and no escaping of
// commas inside names or values. A value may contain further '='
// characters; only the first one in a token splits name from value.
package rules

import (
	"fmt"
	"strings"
)

// Variable is the designated environment variable holding the rule string.
// It is read fresh on every environment construction, so a parent can
// change rules between successive child launches.
const Variable = "CHILD_ENV_RULES"

// Rule is one directive parsed from the rule string.
type Rule struct {
	// Name is the environment variable the rule applies to.
	Name string

	// Value is the replacement value. Meaningful only when Set is true.
	Value string

	// Set selects set/overwrite semantics. When false the rule removes
	// the variable from the child environment.
	Set bool
}

// Parse splits a rule string into an ordered rule list.
//
// Token boundaries are literal commas. Empty tokens (consecutive commas,
// leading or trailing comma) are dropped silently. Duplicate names are
// kept as-is: matching is first-rule-wins, and every set rule contributes
// its own output entry.
func Parse(s string) []Rule {
	if s == "" {
		return nil
	}

	// Upper bound on the rule count; empty tokens make it an
	// over-allocation rather than requiring a pre-scan for exactness.
	out := make([]Rule, 0, 1+strings.Count(s, ","))

	for _, token := range strings.Split(s, ",") {
		if token == "" {
			continue
		}
		name, value, found := strings.Cut(token, "=")
		out = append(out, Rule{Name: name, Value: value, Set: found})
	}
	return out
}

// Matches reports whether entry belongs to the variable this rule names.
// The entry's name is the substring up to the first '=', or the whole
// entry if it has none.
func (r Rule) Matches(entry string) bool {
	name := entry
	if i := strings.IndexByte(entry, '='); i >= 0 {
		name = entry[:i]
	}
	return name == r.Name
}

// Entry renders a set rule as a name=value environment entry.
func (r Rule) Entry() string {
	return r.Name + "=" + r.Value
}

// String encodes the rule back into its rule-string token form.
func (r Rule) String() string {
	if r.Set {
		return r.Entry()
	}
	return r.Name
}

// Encode joins rules back into a rule string suitable for Variable.
func Encode(ruleset []Rule) string {
	if len(ruleset) == 0 {
		return ""
	}
	tokens := make([]string, 0, len(ruleset))
	for _, r := range ruleset {
		tokens = append(tokens, r.String())
	}
	return strings.Join(tokens, ",")
}

// CheckName validates a variable name for use in a rule. The grammar
// reserves '=' and ',' and the filter matches names byte-for-byte, so a
// name that would not round-trip through the rule string is rejected.
func CheckName(name string) error {
	if name == "" {
		return fmt.Errorf("rule name is empty")
	}
	if strings.ContainsAny(name, "=,") {
		return fmt.Errorf("rule name %q contains a reserved character", name)
	}
	if !isValidEnvName(name) {
		return fmt.Errorf("rule name %q is not a valid environment variable name", name)
	}
	return nil
}

// isValidEnvName checks the usual shell identifier shape: a letter or
// underscore followed by letters, digits, or underscores.
func isValidEnvName(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
