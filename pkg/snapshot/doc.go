// Package snapshot provides the snapshot codec and file store for WorldSave.
//
// A snapshot is an ordered sequence of records, each pairing a synthetic
// index with the typed component values one entity carried at save time.
// Synthetic indices are assigned in enumeration order starting at 1; they
// exist so intra-snapshot entity references can be encoded and remapped, and
// they are never live identifiers.
//
// On disk a snapshot is a versionless, human-inspectable JSON document:
//
//	{
//	  "meta": {"id": "snap-…", "created_at": …, "entities": 2, "mode": "save"},
//	  "entities": [
//	    {"index": 1, "components": [{"type": "position", "data": {…}}]},
//	    {"index": 2}
//	  ]
//	}
//
// Files are written with a write-then-rename sequence, so a crashing writer
// never leaves a partial document at the target path. Optional encryption
// wraps the plain document in an AEAD envelope (encrypt.go); the key
// derivation salt lives in the envelope meta so passphrase-derived keys can
// be reconstructed for reading.
//
// Decoding is split in two layers: ParseDocument validates structure without
// any registry (tooling can inspect unknown snapshots), and Decode
// additionally materializes every component payload through the capability
// registry, failing with *DecodeError on unknown types or rejected payloads.
package snapshot
