// Package command provides CLI command definitions for worldsave.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command, global flags, settings loading
//   - inspect.go: Keyless snapshot metadata inspection
//   - verify.go: Full snapshot validation
//   - watch.go: Live snapshot watching
//   - archive.go: Snapshot archive subcommand group
//   - keygen.go: Encryption key generation
//
// Commands follow a consistent pattern of parsing flags, calling into the
// snapshot and archive packages, and formatting output.
package command
