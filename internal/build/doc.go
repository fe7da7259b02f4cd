// Package build invokes the external collaborators totara orchestrates:
// the configuration builder/activator and the declarative partitioner,
// plus the block-device inspection used before provisioning. The Builder
// and Partitioner interfaces exist so workflows can be tested without
// the external binaries.
package build
