// Package save persists and restores world state through snapshot files.
//
// The save pipeline selects entities carrying the Persist marker (or every
// live entity, for a dump), assigns each a sequential synthetic index,
// extracts its registered components, and writes the snapshot atomically.
// Reference fields are rewritten to synthetic indices on copies at encode
// time, so a snapshot is self-contained: it never depends on the live
// identifiers of the world it came from.
//
// The load pipeline runs as one uninterrupted operation:
//
//  1. Deserialize and fully validate the snapshot. The world is untouched;
//     this is the only point a load can fail recoverably.
//  2. Despawn every live entity carrying Persist or Transient.
//  3. Spawn a fresh entity per record, in index order, attaching the
//     decoded components and re-marking each entity with Persist. Saved
//     identifiers are never reused.
//  4. Run registered remap operations with the synthetic-index → live-id
//     table, then discard the table.
//
// Save and load assume the single-threaded world access model of the host:
// neither takes locks, and a load must not interleave with other world
// mutation. The Autosaver only reads world state from its goroutine.
package save
