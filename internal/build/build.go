package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	logger "github.com/totara-dev/totara/internal/logging"
	"github.com/totara-dev/totara/internal/terrors"
)

// Builder evaluates and activates the declarative configuration for a
// host. The build itself is an external collaborator; workflows depend
// only on success or failure.
type Builder interface {
	// Build evaluates and builds the host's configuration without
	// activating it. Used as the commit workflow's validation gate.
	Build(ctx context.Context, target string) error

	// Activate builds and switches the running system to the host's
	// configuration.
	Activate(ctx context.Context, target string) error
}

// ExecBuilder shells out to the platform's rebuild command.
type ExecBuilder struct {
	RepoPath string
	Platform string
	Logger   logger.Logger
}

func (b ExecBuilder) command(ctx context.Context, verb, target string) *exec.Cmd {
	flake := b.RepoPath + "#" + target

	name := "nixos-rebuild"
	if b.Platform == "darwin" {
		name = "darwin-rebuild"
	}

	cmd := exec.CommandContext(ctx, name, verb, "--flake", flake)
	cmd.Dir = b.RepoPath
	return cmd
}

func (b ExecBuilder) runBuild(ctx context.Context, verb, target string) error {
	cmd := b.command(ctx, verb, target)
	b.Logger.Debugf("running %s", strings.Join(cmd.Args, " "))

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s %s: %v", terrors.ErrBuildFailed, cmd.Args[0], verb, err)
	}
	return nil
}

// Build runs the build-only target for validation.
func (b ExecBuilder) Build(ctx context.Context, target string) error {
	return b.runBuild(ctx, "build", target)
}

// Activate switches the running system to the built configuration.
func (b ExecBuilder) Activate(ctx context.Context, target string) error {
	return b.runBuild(ctx, "switch", target)
}

// Partitioner destructively formats a block device from the declarative
// disk layout, taking the volume passphrase on a stream rather than the
// argument list so it never appears in the process table.
type Partitioner interface {
	Apply(ctx context.Context, target string, passphrase []byte) error
}

// ExecPartitioner invokes the external disko partitioner.
type ExecPartitioner struct {
	RepoPath string
	Logger   logger.Logger
}

// Apply formats the device described by the host's disk layout.
func (p ExecPartitioner) Apply(ctx context.Context, target string, passphrase []byte) error {
	cmd := exec.CommandContext(ctx, "disko",
		"--mode", "destroy,format,mount",
		"--yes-wipe-all-disks",
		"--flake", p.RepoPath+"#"+target)
	cmd.Dir = p.RepoPath
	cmd.Stdin = bytes.NewReader(passphrase)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	p.Logger.Debugf("running %s", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("partitioner failed: %w", err)
	}
	return nil
}
