package debugger

import "os"

// SymbolPathEnv is the environment variable cdb reads for symbol sources.
const SymbolPathEnv = "_NT_SYMBOL_PATH"

// EnsureSymbolPath points the debugger at a local cache backed by a remote
// symbol server, unless the caller's environment already configures one.
// Returns the effective value.
func EnsureSymbolPath(cacheDir, serverURL string) (string, error) {
	if existing := os.Getenv(SymbolPathEnv); existing != "" {
		return existing, nil
	}
	value := "SRV*" + cacheDir + "*" + serverURL
	if err := os.Setenv(SymbolPathEnv, value); err != nil {
		return "", err
	}
	return value, nil
}
