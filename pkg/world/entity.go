package world

// Entity identifies a live world object. Identifiers are process-local and
// allocated monotonically, so an identifier is never reused while the world
// exists. They are not stable across a load: an entity spawned from a
// snapshot is not guaranteed the identifier it held when saved.
type Entity uint64

// None is the zero Entity. It never names a live entity, which also keeps
// zero-valued reference fields unambiguous inside snapshots.
const None Entity = 0

// EntityMap maps entity values across a save or load boundary. The save
// pipeline fills one with live identifier → synthetic index, the load
// pipeline with synthetic index → freshly spawned identifier. A map lives
// for exactly one save or load call and is passed to remap operations
// explicitly, never held as ambient state.
type EntityMap struct {
	m map[Entity]Entity
}

// NewEntityMap creates an empty EntityMap.
func NewEntityMap() *EntityMap {
	return &EntityMap{m: make(map[Entity]Entity)}
}

// Put records a mapping from one entity value to another.
func (em *EntityMap) Put(from, to Entity) {
	em.m[from] = to
}

// Resolve looks up the mapped value for ref.
func (em *EntityMap) Resolve(ref Entity) (Entity, bool) {
	to, ok := em.m[ref]
	return to, ok
}

// Remap rewrites *ref in place when it resolves and reports whether it did.
// An unresolvable reference is left untouched: the pipeline cannot know the
// intended fallback for a dangling reference, so that decision stays with
// the component's owner.
func (em *EntityMap) Remap(ref *Entity) bool {
	to, ok := em.m[*ref]
	if !ok {
		return false
	}
	*ref = to
	return true
}

// Len returns the number of mappings.
func (em *EntityMap) Len() int {
	return len(em.m)
}
