// Package cmap provides a concurrent map implementation for WorldSave.
//
// This package implements a sharded concurrent map used as the backing store
// for world entity and hierarchy tables:
//
//   - Sharding: Configurable shard count for parallelism
//   - Fine-grained Locking: Per-shard RWMutex for minimal contention
//   - Iteration: Safe iteration while holding read locks
//   - Ordered Enumeration: SortedKeys for deterministic snapshot order
//
// Usage:
//
//	m := cmap.New[uint64, *record]()
//	m.Set(7, rec)
//	val, ok := m.Get(7)
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Has) use RLock,
// write operations (Set, Delete) use Lock.
package cmap
