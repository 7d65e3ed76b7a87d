package save

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/arkvale/worldsave-go/pkg/registry"
	"github.com/arkvale/worldsave-go/pkg/snapshot"
	"github.com/arkvale/worldsave-go/pkg/world"
)

// World is the capability surface the pipelines need from a host world.
// *world.World satisfies it; hosts with their own entity store implement it
// over that store. Despawn carries the host's hierarchy semantics: removing
// an entity removes its declared descendants too.
type World interface {
	// Entities returns all live entities in a stable enumeration order.
	// Snapshots are built in this order.
	Entities() []world.Entity

	// Alive reports whether e names a live entity.
	Alive(e world.Entity) bool

	// Spawn allocates a fresh entity. Identifiers are never reused.
	Spawn() world.Entity

	// Despawn removes an entity and, recursively, its declared descendants.
	Despawn(e world.Entity)

	// Attach stores a component, a non-nil *T, keyed by T.
	Attach(e world.Entity, v any)

	// Detach removes the component of the given type, if present.
	Detach(e world.Entity, t reflect.Type)

	// Component returns the stored *T for the component of the given type.
	Component(e world.Entity, t reflect.Type) (any, bool)

	// Has reports whether the entity carries a component of the given type.
	Has(e world.Entity, t reflect.Type) bool
}

// Config configures a Pipeline.
type Config struct {
	// Registry resolves component codecs and remap operations. Defaults to
	// registry.Default().
	Registry *registry.Registry

	// Encryption optionally seals snapshot files at rest.
	Encryption *snapshot.EncryptionConfig

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records pipeline observations when non-nil.
	Metrics *Metrics
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Registry: registry.Default(),
		Logger:   slog.Default(),
	}
}

// Pipeline runs saves and loads against one world.
type Pipeline struct {
	world   World
	reg     *registry.Registry
	enc     *snapshot.EncryptionConfig
	logger  *slog.Logger
	metrics *Metrics
}

// New creates a pipeline bound to a world.
func New(w World, cfg Config) (*Pipeline, error) {
	if w == nil {
		return nil, errors.New("save: world is required")
	}
	if cfg.Registry == nil {
		cfg.Registry = registry.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := cfg.Encryption.Validate(); err != nil {
		return nil, err
	}

	return &Pipeline{
		world:   w,
		reg:     cfg.Registry,
		enc:     cfg.Encryption,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// Save writes a snapshot of every live entity carrying Persist to path. The
// write is atomic: the target file is either the previous snapshot or the
// complete new one, never partial. The world is not mutated.
func (p *Pipeline) Save(path string) (*snapshot.Info, error) {
	return p.save(path, snapshot.ModeSave)
}

// Dump writes a snapshot of every live entity regardless of markers.
// Dumps are for diagnostics: loading one next to the still-live entities it
// recorded duplicates them, so a dump is not a valid load input unless the
// world it loads into no longer holds those entities.
func (p *Pipeline) Dump(path string) (*snapshot.Info, error) {
	return p.save(path, snapshot.ModeDump)
}

func (p *Pipeline) save(path, mode string) (*snapshot.Info, error) {
	start := time.Now()

	selected := p.selectEntities(mode == snapshot.ModeDump)

	// Save-side reference table: live identifier → synthetic index.
	refs := world.NewEntityMap()
	for i, e := range selected {
		refs.Put(e, world.Entity(i+1))
	}

	records, err := p.extract(selected, refs)
	if err != nil {
		p.metrics.saveFailed()
		return nil, &SaveError{Path: path, Err: err}
	}

	doc, err := snapshot.NewDocument(records, mode)
	if err != nil {
		p.metrics.saveFailed()
		return nil, &SaveError{Path: path, Err: err}
	}
	info, err := snapshot.WriteFile(path, doc, p.enc)
	if err != nil {
		p.metrics.saveFailed()
		return nil, &SaveError{Path: path, Err: err}
	}

	p.logger.Info("snapshot written",
		"id", info.ID,
		"path", path,
		"mode", mode,
		"entities", info.Entities,
		"size_bytes", info.Size,
		"encrypted", info.Encrypted,
		"elapsed", time.Since(start))
	p.metrics.saveDone(mode, info, time.Since(start))

	return info, nil
}

// selectEntities collects the save set in ascending live-identifier order,
// which Entities already guarantees.
func (p *Pipeline) selectEntities(all bool) []world.Entity {
	var selected []world.Entity
	for _, e := range p.world.Entities() {
		if all || p.world.Has(e, persistType) {
			selected = append(selected, e)
		}
	}
	return selected
}

// extract builds one record per selected entity, components in registry
// name order. Unregistered component types are invisible here, not errors.
func (p *Pipeline) extract(selected []world.Entity, refs *world.EntityMap) ([]snapshot.Record, error) {
	entries := p.reg.Entries()

	records := make([]snapshot.Record, 0, len(selected))
	for i, e := range selected {
		rec := snapshot.Record{Index: uint64(i + 1)}
		for _, entry := range entries {
			v, ok := p.world.Component(e, entry.Type())
			if !ok {
				continue
			}
			data, err := p.encodeComponent(entry, v, refs)
			if err != nil {
				return nil, fmt.Errorf("entity %d: component %q: %w", e, entry.Name(), err)
			}
			rec.Components = append(rec.Components, snapshot.Component{Type: entry.Name(), Data: data})
		}
		records = append(records, rec)
	}
	return records, nil
}

// encodeComponent serializes one live component value. A remap-registered
// type is encoded from a codec round-trip copy whose reference fields have
// been rewritten to synthetic indices; the live component is never touched.
// A reference to an entity outside the save set stays as-is, becoming a
// dangling reference the snapshot documents rather than resolves.
func (p *Pipeline) encodeComponent(entry *registry.Entry, v any, refs *world.EntityMap) ([]byte, error) {
	remap, ok := p.reg.RemapFor(entry.Type())
	if !ok {
		return entry.Encode(v)
	}

	data, err := entry.Encode(v)
	if err != nil {
		return nil, err
	}
	cp, err := entry.Decode(data)
	if err != nil {
		return nil, err
	}
	remap(cp, refs)
	return entry.Encode(cp)
}

// LoadResult summarizes a completed load.
type LoadResult struct {
	// SnapshotID is the identifier of the loaded snapshot.
	SnapshotID string

	// Despawned is the number of entities that carried Persist or Transient
	// going into the load. All of them are gone afterwards.
	Despawned int

	// Spawned is the number of entities created from the snapshot.
	Spawned int
}

// Load replaces the marked portion of the world with the snapshot at path.
//
// The snapshot is read and fully decoded first; any failure there returns a
// *LoadError and leaves the world untouched. After that point the load runs
// to completion: marked entities are despawned, a fresh entity is spawned
// per record with its components and a Persist marker attached, and
// registered remap operations rewrite reference fields from synthetic
// indices to the new live identifiers. Entities alive before the load and
// not carrying a marker are not touched, and their identifiers are never
// handed to spawned entities.
func (p *Pipeline) Load(path string) (*LoadResult, error) {
	start := time.Now()

	// Deserializing. Every record and every component payload materializes
	// here, before any world mutation, so nothing structural can fail once
	// despawning begins.
	doc, err := snapshot.ReadFile(path, p.enc)
	if err != nil {
		p.metrics.loadFailed(PhaseDeserialize)
		return nil, &LoadError{Path: path, Phase: PhaseDeserialize, Err: err}
	}
	dec, err := snapshot.DecodeRecords(doc, p.reg)
	if err != nil {
		p.metrics.loadFailed(PhaseDeserialize)
		return nil, &LoadError{Path: path, Phase: PhaseDeserialize, Err: err}
	}

	// Despawning.
	despawned := p.despawnMarked()

	// Spawning. Fresh identifiers always; the remap table carries synthetic
	// index → live identifier for the fixup stage.
	remap := world.NewEntityMap()
	spawned := make([]world.Entity, 0, len(dec.Records))
	for _, rec := range dec.Records {
		e := p.world.Spawn()
		for _, c := range rec.Components {
			p.world.Attach(e, c.Value)
		}
		p.world.Attach(e, &Persist{})
		remap.Put(world.Entity(rec.Index), e)
		spawned = append(spawned, e)
	}

	// Fixing up. All spawns precede all fixups, so forward references
	// resolve. The table dies with this call.
	p.fixup(dec, spawned, remap)

	result := &LoadResult{
		SnapshotID: dec.Meta.ID,
		Despawned:  despawned,
		Spawned:    len(spawned),
	}

	p.logger.Info("snapshot loaded",
		"id", result.SnapshotID,
		"path", path,
		"despawned", result.Despawned,
		"spawned", result.Spawned,
		"elapsed", time.Since(start))
	p.metrics.loadDone(result, time.Since(start))

	return result, nil
}

// despawnMarked removes every entity carrying a marker. Collect first, then
// despawn what is still alive: a marked child may already be gone through
// the recursive despawn of its marked parent.
func (p *Pipeline) despawnMarked() int {
	var marked []world.Entity
	for _, e := range p.world.Entities() {
		if p.world.Has(e, persistType) || p.world.Has(e, transientType) {
			marked = append(marked, e)
		}
	}
	for _, e := range marked {
		if p.world.Alive(e) {
			p.world.Despawn(e)
		}
	}
	return len(marked)
}

// fixup runs remap operations over the components of the entities this load
// spawned. Entities that predate the load are never visited.
func (p *Pipeline) fixup(dec *snapshot.Decoded, spawned []world.Entity, remap *world.EntityMap) {
	for i, rec := range dec.Records {
		e := spawned[i]
		for _, c := range rec.Components {
			fn, ok := p.reg.RemapFor(c.Entry.Type())
			if !ok {
				continue
			}
			v, ok := p.world.Component(e, c.Entry.Type())
			if !ok {
				// Spawning attached this component moments ago and nothing
				// else runs inside a load. Its absence means the world was
				// mutated mid-load, which cannot be repaired.
				panic(fmt.Sprintf("save: component %q vanished from entity %d during load",
					c.Entry.Name(), e))
			}
			fn(v, remap)
		}
	}
}
