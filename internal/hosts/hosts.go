package hosts

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/totara-dev/totara/internal/configs"
	"github.com/totara-dev/totara/internal/terrors"
)

// InstallerName is the reserved machine name that always classifies as
// the live installer, regardless of registry contents.
const InstallerName = "installer"

// Kind discriminates host classifications.
type Kind int

const (
	// LiveInstaller is the bootstrap medium used for provisioning.
	LiveInstaller Kind = iota

	// KnownHost is a machine present in the host registry.
	KnownHost

	// Unknown is a machine absent from the registry.
	Unknown
)

func (k Kind) String() string {
	switch k {
	case LiveInstaller:
		return "live installer"
	case KnownHost:
		return "known host"
	default:
		return "unknown host"
	}
}

// Entry describes one machine in the committed host registry.
type Entry struct {
	// Platform is the OS family this host must run on ("linux", "darwin").
	Platform string `toml:"platform"`

	// Device is the block device provisioning targets, if any.
	Device string `toml:"device"`

	// BuildTarget overrides the configuration build attribute for this
	// host. Defaults to the host name.
	BuildTarget string `toml:"build_target"`
}

// Registry is the set of known machines, keyed by normalised name.
type Registry struct {
	Hosts map[string]Entry `toml:"hosts"`
}

// LoadRegistry reads the host registry from .totara/hosts.toml. A missing
// file yields an empty registry, not an error: a repository with no
// registered hosts classifies everything as Unknown.
func LoadRegistry(path string) (*Registry, error) {
	registry := &Registry{Hosts: make(map[string]Entry)}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return registry, nil
	}

	if err := configs.LoadTOML(path, registry); err != nil {
		return nil, fmt.Errorf("failed to load host registry: %w", err)
	}

	// Normalise registry keys so lookup is case-insensitive.
	normalised := make(map[string]Entry, len(registry.Hosts))
	for name, entry := range registry.Hosts {
		normalised[strings.ToLower(name)] = entry
	}
	registry.Hosts = normalised

	return registry, nil
}

// Names returns the registered host names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Hosts))
	for name := range r.Hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Classification is the result of classifying a machine name.
type Classification struct {
	Kind Kind

	// Name is the normalised machine name.
	Name string

	// Platform is the required platform for a KnownHost; empty otherwise.
	Platform string

	// Entry is the registry entry for a KnownHost.
	Entry Entry
}

// Classify determines which class of machine a reported name belongs to.
// Pure: no side effects, no environment inspection.
func Classify(name string, registry *Registry) Classification {
	normalised := strings.ToLower(strings.TrimSpace(name))

	if normalised == InstallerName {
		return Classification{Kind: LiveInstaller, Name: normalised}
	}

	if entry, ok := registry.Hosts[normalised]; ok {
		return Classification{
			Kind:     KnownHost,
			Name:     normalised,
			Platform: entry.Platform,
			Entry:    entry,
		}
	}

	return Classification{Kind: Unknown, Name: normalised}
}

// ValidatePlatform fails when a known host's required platform disagrees
// with the actual runtime platform. Callers must treat this as fatal;
// platform mismatches are never coerced.
func ValidatePlatform(c Classification, runtimePlatform string) error {
	if c.Kind != KnownHost {
		return nil
	}
	if c.Platform != runtimePlatform {
		return fmt.Errorf("%w: host %s requires %s, running on %s",
			terrors.ErrPlatformMismatch, c.Name, c.Platform, runtimePlatform)
	}
	return nil
}

// BuildTarget returns the configuration build attribute for a host.
func (c Classification) BuildTarget() string {
	if c.Entry.BuildTarget != "" {
		return c.Entry.BuildTarget
	}
	return c.Name
}
