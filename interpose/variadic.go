package interpose

// The variadic convenience forms materialize a bounded argument vector and
// delegate to the corresponding list-form interceptor. Only the vector is
// fresh storage; the argument strings themselves are borrowed from the
// caller, never copied. The delegate consumes the vector whether it
// succeeds or fails; unlike the environment copy, the vector carries no
// ownership obligations past the delegate's return.

// Execl is the variadic form of Execv. args is the complete argument list
// of the new image, args[0] conventionally being the program name.
func Execl(path string, args ...string) error {
	return Execv(path, materializeArgv(args))
}

// Execlp is the variadic form of Execvp.
func Execlp(file string, args ...string) error {
	return Execvp(file, materializeArgv(args))
}

// Execle is the variadic form of Execve. The environment travels as an
// explicit leading parameter rather than trailing the argument list the
// way the platform's calling convention places it, and is passed through
// to the direct-environment delegate unchanged.
func Execle(path string, envp []string, args ...string) error {
	return Execve(path, materializeArgv(args), envp)
}

// materializeArgv builds the delegate's argument vector: one counted
// allocation sized from the argument cursor, one filling pass. The result
// is independent of the caller's backing storage so the delegate never
// aliases a slice the caller may still mutate.
func materializeArgv(args []string) []string {
	argv := make([]string, len(args))
	copy(argv, args)
	return argv
}
