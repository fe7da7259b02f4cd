package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

// RepoConfig is the committed repository configuration, stored at
// .totara/totara.toml inside the configuration repository.
type RepoConfig struct {
	Secrets SecretsConfig `toml:"secrets"`
}

// SecretsConfig describes where the two secret layers live and how the
// content filter is named in git configuration.
type SecretsConfig struct {
	// EvalGlob matches Layer-A secrets: values needed at evaluation or
	// build time, plaintext in the working copy, ciphertext in history.
	EvalGlob string `toml:"eval_glob"`

	// ActivationGlob matches Layer-B secrets: values needed only at
	// activation, ciphertext everywhere including the working copy.
	ActivationGlob string `toml:"activation_glob"`

	// FilterName is the git filter registered for Layer-A paths.
	FilterName string `toml:"filter_name"`
}

// DefaultRepoConfig returns the configuration used when totara.toml is
// absent or leaves fields unset.
func DefaultRepoConfig() RepoConfig {
	return RepoConfig{
		Secrets: SecretsConfig{
			EvalGlob:       "secrets/eval/**",
			ActivationGlob: "secrets/activation/**",
			FilterName:     "totara-eval",
		},
	}
}

// LoadRepoConfig loads .totara/totara.toml from the repository root,
// falling back to defaults for the whole file or individual fields.
func LoadRepoConfig(repoPath string) (RepoConfig, error) {
	config := DefaultRepoConfig()

	path := filepath.Join(repoPath, ".totara", "totara.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	loaded := RepoConfig{}
	if err := LoadTOML(path, &loaded); err != nil {
		return config, fmt.Errorf("failed to load repo config: %w", err)
	}

	if loaded.Secrets.EvalGlob != "" {
		config.Secrets.EvalGlob = loaded.Secrets.EvalGlob
	}
	if loaded.Secrets.ActivationGlob != "" {
		config.Secrets.ActivationGlob = loaded.Secrets.ActivationGlob
	}
	if loaded.Secrets.FilterName != "" {
		config.Secrets.FilterName = loaded.Secrets.FilterName
	}

	return config, nil
}

// SaveRepoConfig writes the repository configuration back to totara.toml.
func SaveRepoConfig(repoPath string, config RepoConfig) error {
	path := filepath.Join(repoPath, ".totara", "totara.toml")
	if err := SaveTOML(path, config); err != nil {
		return fmt.Errorf("failed to save repo config: %w", err)
	}
	return nil
}

// HostsPath returns the path of the committed host registry.
func HostsPath(repoPath string) string {
	return filepath.Join(repoPath, ".totara", "hosts.toml")
}

// FindRepoRoot walks up from dir looking for a .totara directory and
// returns the directory containing it. Returns an empty string when no
// ancestor is a totara repository.
func FindRepoRoot(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	for {
		marker := filepath.Join(current, ".totara")
		if info, err := os.Stat(marker); err == nil && info.IsDir() {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", nil
		}
		current = parent
	}
}
