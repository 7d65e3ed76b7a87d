package registry

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/arkvale/worldsave-go/pkg/world"
)

// Entry describes one registered component type: its stable identity and
// codec operations. Entries are immutable once created.
type Entry struct {
	name   string
	id     uint64
	typ    reflect.Type
	encode func(any) ([]byte, error)
	decode func([]byte) (any, error)
}

// Name returns the registered name.
func (e *Entry) Name() string { return e.name }

// ID returns the 64-bit murmur3 hash of the registered name.
func (e *Entry) ID() uint64 { return e.id }

// Type returns the component's concrete type.
func (e *Entry) Type() reflect.Type { return e.typ }

// Encode serializes a component value. v must be a *T for the registered T.
func (e *Entry) Encode(v any) ([]byte, error) {
	return e.encode(v)
}

// Decode deserializes a component payload into a fresh *T.
func (e *Entry) Decode(data []byte) (any, error) {
	return e.decode(data)
}

// TypeID returns the stable identity hash for a component name.
func TypeID(name string) uint64 {
	return murmur3.Sum64([]byte(name))
}

// Registry maps stable component identities to their codec and remap
// operations. The zero value is not usable; call New.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Entry
	byType map[reflect.Type]*Entry
	remaps map[reflect.Type]func(any, *world.EntityMap)
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]*Entry),
		byType: make(map[reflect.Type]*Entry),
		remaps: make(map[reflect.Type]func(any, *world.EntityMap)),
	}
}

var defaultRegistry = New()

// Default returns the process-wide registry used when no explicit registry
// is passed to a pipeline.
func Default() *Registry {
	return defaultRegistry
}

// Register adds component type T under the given name with a JSON codec.
// Registering the same T under the same name twice is a no-op; any identity
// conflict (name reuse for a different type, or a second name for the same
// type) panics, since registration is an init-time programmer contract.
func Register[T any](r *Registry, name string) {
	RegisterFunc[T](r, name,
		func(v *T) ([]byte, error) { return json.Marshal(v) },
		func(data []byte) (*T, error) {
			c := new(T)
			if err := json.Unmarshal(data, c); err != nil {
				return nil, err
			}
			return c, nil
		},
	)
}

// RegisterFunc adds component type T under the given name with a custom
// codec. Conflict rules match Register.
func RegisterFunc[T any](r *Registry, name string, enc func(*T) ([]byte, error), dec func([]byte) (*T, error)) {
	if name == "" {
		panic("registry: component name must not be empty")
	}
	typ := reflect.TypeFor[T]()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[name]; ok {
		if existing.typ == typ {
			return
		}
		panic(fmt.Sprintf("registry: name %q already registered for %v", name, existing.typ))
	}
	if existing, ok := r.byType[typ]; ok {
		panic(fmt.Sprintf("registry: type %v already registered as %q", typ, existing.name))
	}

	entry := &Entry{
		name: name,
		id:   TypeID(name),
		typ:  typ,
		encode: func(v any) ([]byte, error) {
			c, ok := v.(*T)
			if !ok {
				return nil, fmt.Errorf("registry: %q: encode expects *%v, got %T", name, typ, v)
			}
			return enc(c)
		},
		decode: func(data []byte) (any, error) {
			return dec(data)
		},
	}
	r.byName[name] = entry
	r.byType[typ] = entry
}

// RegisterRemap opts component type T into the reference-fixup protocol.
// The operation receives a mutable component and the EntityMap for the
// current save or load, and rewrites any entity reference fields it owns.
// Last registration wins; T need not be registered yet.
func RegisterRemap[T any](r *Registry, fn func(*T, *world.EntityMap)) {
	typ := reflect.TypeFor[T]()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaps[typ] = func(v any, em *world.EntityMap) {
		fn(v.(*T), em)
	}
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	return e, ok
}

// LookupType returns the entry for a concrete component type.
func (r *Registry) LookupType(t reflect.Type) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byType[t]
	return e, ok
}

// IsRegistered reports whether the concrete type participates in save/load.
func (r *Registry) IsRegistered(t reflect.Type) bool {
	_, ok := r.LookupType(t)
	return ok
}

// RemapFor returns the remap operation for a concrete type, if one was
// registered.
func (r *Registry) RemapFor(t reflect.Type) (func(any, *world.EntityMap), bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.remaps[t]
	return fn, ok
}

// Entries returns all registered entries sorted by name. This is the
// deterministic iteration order the save pipeline extracts components in.
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*Entry, 0, len(r.byName))
	for _, e := range r.byName {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].name < entries[j].name
	})
	return entries
}

// Len returns the number of registered component types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
