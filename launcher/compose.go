package launcher

import (
	"strings"

	"github.com/victoralfred/childenv/rules"
)

// preloadVariable is the dynamic linker's preload list.
const preloadVariable = "LD_PRELOAD"

// ComposeEnvironment builds the target environment from a snapshot of the
// parent's, returning the new vector and the rule string it carries.
//
// Preload libraries are placed ahead of any existing preload list. The
// rule string covers, in order: the profile's explicit scrub list, the
// preload variable when the profile touched it, every variable the profile
// set, and the rule variable itself unless the profile propagates it.
func ComposeEnvironment(base []string, profile Profile) ([]string, string) {
	env := make([]string, len(base))
	copy(env, base)

	if len(profile.Preload) > 0 {
		value := strings.Join(profile.Preload, ":")
		if existing, ok := getVar(env, preloadVariable); ok && existing != "" {
			value = value + ":" + existing
		}
		env = setVar(env, preloadVariable, value)
	}

	for _, a := range profile.Set {
		env = setVar(env, a.Name, a.Value)
	}

	scrub := make([]rules.Rule, 0, len(profile.Scrub)+len(profile.Set)+2)
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			scrub = append(scrub, rules.Rule{Name: name})
		}
	}
	for _, name := range profile.Scrub {
		add(name)
	}
	if len(profile.Preload) > 0 {
		add(preloadVariable)
	}
	for _, a := range profile.Set {
		add(a.Name)
	}
	if !profile.PropagateRules {
		add(rules.Variable)
	}

	ruleString := rules.Encode(scrub)
	env = setVar(env, rules.Variable, ruleString)
	return env, ruleString
}

// getVar reads a variable from an environment vector.
func getVar(env []string, name string) (string, bool) {
	prefix := name + "="
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			return entry[len(prefix):], true
		}
	}
	return "", false
}

// setVar replaces the first entry for name, or appends one.
func setVar(env []string, name, value string) []string {
	prefix := name + "="
	for i, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
