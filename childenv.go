//go:build unix

package childenv

import (
	"github.com/victoralfred/childenv/envfilter"
	"github.com/victoralfred/childenv/interpose"
	"github.com/victoralfred/childenv/rules"
)

// =============================================================================
// Core Types
// =============================================================================

// Rule is one directive parsed from the rule string.
type Rule = rules.Rule

// Environment is a self-owned filtered environment vector.
type Environment = envfilter.Environment

// Builder constructs filtered environment vectors.
type Builder = envfilter.Builder

// RuleVariable is the designated environment variable holding the rule
// string.
const RuleVariable = rules.Variable

// ErrOutOfMemory indicates storage acquisition failed during a build.
var ErrOutOfMemory = envfilter.ErrOutOfMemory

// =============================================================================
// Intercepted Exec Family
// =============================================================================

// Execve replaces the process image with path, handing it argv and a
// filtered copy of envp.
func Execve(path string, argv, envp []string) error {
	return interpose.Execve(path, argv, envp)
}

// Execvpe is Execve with PATH search semantics for file.
func Execvpe(file string, argv, envp []string) error {
	return interpose.Execvpe(file, argv, envp)
}

// Execvp replaces the process image with file located via PATH search,
// using a filtered copy of the live environment.
func Execvp(file string, argv []string) error {
	return interpose.Execvp(file, argv)
}

// Execv replaces the process image with path using a filtered copy of the
// live environment.
func Execv(path string, argv []string) error {
	return interpose.Execv(path, argv)
}

// Execl is the variadic form of Execv.
func Execl(path string, args ...string) error {
	return interpose.Execl(path, args...)
}

// Execlp is the variadic form of Execvp.
func Execlp(file string, args ...string) error {
	return interpose.Execlp(file, args...)
}

// Execle is the variadic form of Execve, taking the environment as an
// explicit leading parameter.
func Execle(path string, envp []string, args ...string) error {
	return interpose.Execle(path, envp, args...)
}

// =============================================================================
// Convenience Functions
// =============================================================================

// ParseRules parses a rule string into an ordered rule list.
func ParseRules(s string) []Rule {
	return rules.Parse(s)
}

// Filter applies the current CHILD_ENV_RULES to source and returns the
// resulting entries. For callers that want the filtered vector without
// going through an exec entry point.
func Filter(source []string) ([]string, error) {
	env, err := envfilter.NewBuilder().Build(source)
	if err != nil {
		return nil, err
	}
	return env.Entries(), nil
}

// Version returns the library version.
func Version() string {
	return "1.0.0"
}
