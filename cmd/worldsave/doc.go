// Package main provides the entry point for worldsave.
//
// The CLI tool works on snapshot files and archives produced by the
// worldsave libraries:
//
//   - Snapshot inspection (keyless metadata, record listing)
//   - Snapshot verification (structure, manifest, decryption)
//   - Live watching of a snapshot path
//   - Archive management (list, show, put, restore, prune, verify, stats)
//   - Encryption key generation
//
// Usage:
//
//	worldsave [command] [flags]
//	worldsave inspect saves/world.save
//	worldsave archive --dir /var/lib/worldsave list
//
// Global settings can come from a YAML file (--config) or WORLDSAVE_*
// environment variables.
package main
