// Package world provides the reference in-memory world for WorldSave.
//
// A World is an entity-component store with the capabilities the save and
// load pipelines consume:
//
//   - entity.go: Entity identifiers and the EntityMap used for reference
//     remapping across save/load boundaries
//   - world.go: spawn/despawn, typed component attachment, stable
//     enumeration, and the parent/child hierarchy with recursive despawn
//
// Component values are stored behind pointers keyed by their concrete type,
// so a component fetched from the world can be mutated in place.
//
// Mutation is expected to be serialized by the host; reads are safe to run
// concurrently with other reads (the backing tables are sharded maps), which
// is what allows a read-only save to overlap unrelated readers.
package world
