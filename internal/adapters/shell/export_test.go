package shell

// ResolveEnvironment exports resolveEnvironment for testing.
func ResolveEnvironment(sysEnv, nixEnv []string, cmdEnv map[string]string) []string {
	return resolveEnvironment(sysEnv, nixEnv, cmdEnv)
}

// LookPath exports lookPath for testing.
func LookPath(file string, env []string) (string, error) {
	return lookPath(file, env)
}
