package workflows

import (
	"fmt"
	"os"
	"runtime"

	"github.com/totara-dev/totara/internal/build"
	"github.com/totara-dev/totara/internal/configs"
	"github.com/totara-dev/totara/internal/git"
	"github.com/totara-dev/totara/internal/hosts"
	logger "github.com/totara-dev/totara/internal/logging"
	"github.com/totara-dev/totara/internal/prompt"
	"github.com/totara-dev/totara/internal/secrets"
	"github.com/totara-dev/totara/internal/terrors"
)

// Env is the immutable execution context shared by one entry point's
// lifetime: repository location, configuration, host classification,
// and the injected collaborators. Constructed once at startup and
// passed through; workflows keep no ambient global state.
type Env struct {
	RepoPath string
	Platform string
	Config   configs.RepoConfig
	Registry *hosts.Registry
	Host     hosts.Classification

	Repo        *git.Repo
	Prompter    prompt.Prompter
	Builder     build.Builder
	Partitioner build.Partitioner
	Logger      logger.Logger
}

// LoadEnv builds the execution context for the current directory. The
// host name comes from the positional argument when given, otherwise
// from the machine's hostname.
func LoadEnv(hostArg string, log logger.Logger, prompter prompt.Prompter) (*Env, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	repoPath, err := configs.FindRepoRoot(wd)
	if err != nil {
		return nil, err
	}
	if repoPath == "" {
		return nil, fmt.Errorf("%w: no .totara directory above %s", terrors.ErrNotARepository, wd)
	}

	config, err := configs.LoadRepoConfig(repoPath)
	if err != nil {
		return nil, err
	}

	registry, err := hosts.LoadRegistry(configs.HostsPath(repoPath))
	if err != nil {
		return nil, err
	}

	name := hostArg
	if name == "" {
		name, err = os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to get hostname: %w", err)
		}
	}

	platform := runtime.GOOS
	repo := &git.Repo{Dir: repoPath, Logger: log}

	env := &Env{
		RepoPath:    repoPath,
		Platform:    platform,
		Config:      config,
		Registry:    registry,
		Host:        hosts.Classify(name, registry),
		Repo:        repo,
		Prompter:    prompter,
		Builder:     build.ExecBuilder{RepoPath: repoPath, Platform: platform, Logger: log},
		Partitioner: build.ExecPartitioner{RepoPath: repoPath, Logger: log},
		Logger:      log,
	}
	return env, nil
}

// Classifier returns the secret layer classifier for this repository.
func (e *Env) Classifier() secrets.Classifier {
	return secrets.Classifier{
		EvalGlob:       e.Config.Secrets.EvalGlob,
		ActivationGlob: e.Config.Secrets.ActivationGlob,
	}
}

// requireInteractive refuses to run without a controlling terminal.
// Several steps need a typed confirmation that piped input must not be
// able to satisfy.
func (e *Env) requireInteractive() error {
	if !e.Prompter.Interactive() {
		return terrors.ErrNotInteractive
	}
	return nil
}

// requireKnownHost refuses Unknown classifications and platform
// mismatches. Mismatches are fatal, never coerced.
func (e *Env) requireKnownHost() error {
	switch e.Host.Kind {
	case hosts.Unknown:
		return fmt.Errorf("%w: %s (registered: %v)", terrors.ErrUnknownHost, e.Host.Name, e.Registry.Names())
	case hosts.KnownHost:
		return hosts.ValidatePlatform(e.Host, e.Platform)
	default:
		return nil
	}
}

// requireRepo checks the directory is a git working copy.
func (e *Env) requireRepo() error {
	if !e.Repo.IsRepo() {
		return fmt.Errorf("%w: %s", terrors.ErrNotARepository, e.RepoPath)
	}
	return nil
}

// bindFilter validates the eval-layer identity and registers the
// content filter for this repository, binding it to the eval glob in
// .gitattributes. Safe to re-run.
func (e *Env) bindFilter() error {
	identity := configs.EvalIdentityPath()

	if err := secrets.ValidateIdentity(identity); err != nil {
		return err
	}
	if !secrets.IdentityPermissionsOK(identity) {
		e.Logger.WarnfAlways("identity %s has permissive file mode, consider chmod 600", identity)
	}

	if err := e.Repo.ConfigureFilter(e.Config.Secrets.FilterName, identity); err != nil {
		return fmt.Errorf("failed to register content filter: %w", err)
	}

	changed, err := e.Repo.EnsureAttributes(e.Config.Secrets.EvalGlob, e.Config.Secrets.FilterName)
	if err != nil {
		return fmt.Errorf("failed to bind filter attributes: %w", err)
	}
	if changed {
		e.Logger.Infof("bound %s to filter %s in .gitattributes", e.Config.Secrets.EvalGlob, e.Config.Secrets.FilterName)
	}
	return nil
}
