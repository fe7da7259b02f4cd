package configs

import (
	"os"
	"path/filepath"
)

// Fixed key and runtime-store locations. The two identity keys are never
// generated or rotated by totara; rotation is a manual procedure.

// EvalIdentityPath returns the path of the Layer-A filter identity key,
// kept in the user's data directory outside the repository.
func EvalIdentityPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "totara", "keys", "eval.key")
}

// ActivationIdentityPath returns the path of the machine-local Layer-B
// key for the given platform.
func ActivationIdentityPath(platform string) string {
	if platform == "darwin" {
		return "/private/var/lib/totara/activation.key"
	}
	return "/var/lib/totara/activation.key"
}

// RuntimeStorePath returns the non-versioned location Layer-B secrets are
// decrypted into at activation time.
func RuntimeStorePath(platform string) string {
	if platform == "darwin" {
		return "/private/var/run/totara-secrets"
	}
	return "/run/totara-secrets"
}
