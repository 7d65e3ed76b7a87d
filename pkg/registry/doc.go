// Package registry provides the component capability registry for WorldSave.
//
// Only component types registered here participate in save and load. A
// registration supplies the type's serialize/deserialize operations keyed by
// a stable identity: the registered name plus a 64-bit murmur3 hash of it.
// In-process dispatch keys off the component's concrete type; the hash is
// what snapshots and tooling use, so identity survives process restarts and
// binary changes.
//
// Types holding entity references opt into the reference-fixup protocol with
// RegisterRemap; the registered operation is invoked by the save pipeline
// (live identifier → synthetic index) and the load pipeline (synthetic index
// → fresh identifier) with the appropriate EntityMap.
//
// Registration is an init-time concern: identity conflicts panic, the same
// way encoding/gob treats duplicate names. Lookups are safe for concurrent
// use.
package registry
