package world

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/arkvale/worldsave-go/pkg/cmap"
)

// World is an in-memory entity-component store with a parent/child
// hierarchy. It implements the capability surface the save and load
// pipelines consume.
type World struct {
	nextID   atomic.Uint64
	entities *cmap.Map[Entity, *record]
	children *cmap.Map[Entity, []Entity]
}

type record struct {
	components map[reflect.Type]any // *T keyed by T
	parent     Entity
}

// New creates an empty world.
func New() *World {
	return &World{
		entities: cmap.New[Entity, *record](),
		children: cmap.New[Entity, []Entity](),
	}
}

// Spawn allocates a fresh entity with no components and returns its
// identifier. Identifiers are never recycled.
func (w *World) Spawn() Entity {
	e := Entity(w.nextID.Add(1))
	w.entities.Set(e, &record{components: make(map[reflect.Type]any)})
	return e
}

// Despawn removes an entity and, recursively, every declared descendant.
// Despawning a dead entity is a no-op.
func (w *World) Despawn(e Entity) {
	rec, ok := w.entities.Pop(e)
	if !ok {
		return
	}
	if rec.parent != None {
		w.removeChild(rec.parent, e)
	}
	kids, _ := w.children.Pop(e)
	for _, k := range kids {
		w.despawnSubtree(k)
	}
}

// despawnSubtree removes a descendant whose parent entry is already gone.
func (w *World) despawnSubtree(e Entity) {
	if _, ok := w.entities.Pop(e); !ok {
		return
	}
	kids, _ := w.children.Pop(e)
	for _, k := range kids {
		w.despawnSubtree(k)
	}
}

// Alive reports whether e names a live entity.
func (w *World) Alive(e Entity) bool {
	return w.entities.Has(e)
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.entities.Count()
}

// Entities returns all live entities in ascending identifier order. This is
// the enumeration order snapshots are built in.
func (w *World) Entities() []Entity {
	return cmap.SortedKeys(w.entities)
}

// Attach stores a component on a live entity, keyed by the component's
// concrete type. v must be a non-nil pointer to the component value; the
// pointer is retained, so callers can mutate the component in place
// afterwards. Attaching a second component of the same type replaces the
// first. Attaching to a dead entity is a no-op.
func (w *World) Attach(e Entity, v any) {
	t := componentType(v)
	rec, ok := w.entities.Get(e)
	if !ok {
		return
	}
	rec.components[t] = v
}

// Detach removes the component of the given type, if present.
func (w *World) Detach(e Entity, t reflect.Type) {
	rec, ok := w.entities.Get(e)
	if !ok {
		return
	}
	delete(rec.components, t)
}

// Component returns the stored pointer for the component of the given type.
func (w *World) Component(e Entity, t reflect.Type) (any, bool) {
	rec, ok := w.entities.Get(e)
	if !ok {
		return nil, false
	}
	v, ok := rec.components[t]
	return v, ok
}

// Has reports whether the entity carries a component of the given type.
func (w *World) Has(e Entity, t reflect.Type) bool {
	_, ok := w.Component(e, t)
	return ok
}

// SetParent declares child to be part of parent's hierarchy, so despawning
// parent cascades to child. Passing None detaches the child from its current
// parent. Both entities must be alive for a new link to be made.
func (w *World) SetParent(child, parent Entity) {
	if child == parent {
		return
	}
	rec, ok := w.entities.Get(child)
	if !ok {
		return
	}
	if rec.parent == parent {
		return
	}
	if rec.parent != None {
		w.removeChild(rec.parent, child)
	}
	rec.parent = None
	if parent == None {
		return
	}
	if !w.entities.Has(parent) {
		return
	}
	rec.parent = parent
	w.children.Update(parent, func(kids []Entity, _ bool) []Entity {
		return append(kids, child)
	})
}

// Parent returns the declared parent of e, or None.
func (w *World) Parent(e Entity) Entity {
	rec, ok := w.entities.Get(e)
	if !ok {
		return None
	}
	return rec.parent
}

// Children returns the declared children of e in attachment order.
func (w *World) Children(e Entity) []Entity {
	kids, _ := w.children.Get(e)
	out := make([]Entity, len(kids))
	copy(out, kids)
	return out
}

func (w *World) removeChild(parent, child Entity) {
	w.children.Update(parent, func(kids []Entity, _ bool) []Entity {
		for i, k := range kids {
			if k == child {
				return append(kids[:i], kids[i+1:]...)
			}
		}
		return kids
	})
}

func componentType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Pointer || reflect.ValueOf(v).IsNil() {
		panic(fmt.Sprintf("world: component must be a non-nil pointer, got %T", v))
	}
	return t.Elem()
}

// SetComponent attaches a copy of v to the entity.
func SetComponent[T any](w *World, e Entity, v T) {
	w.Attach(e, &v)
}

// GetComponent returns a pointer to the entity's component of type T.
func GetComponent[T any](w *World, e Entity) (*T, bool) {
	v, ok := w.Component(e, reflect.TypeFor[T]())
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// HasComponent reports whether the entity carries a component of type T.
func HasComponent[T any](w *World, e Entity) bool {
	return w.Has(e, reflect.TypeFor[T]())
}

// RemoveComponent detaches the component of type T, if present.
func RemoveComponent[T any](w *World, e Entity) {
	w.Detach(e, reflect.TypeFor[T]())
}
