package save

import (
	"reflect"

	"github.com/arkvale/worldsave-go/pkg/world"
)

// Persist marks an entity for inclusion in saves. Entities carrying Persist
// are written by Save and despawned before a snapshot is loaded; loaded
// entities come back carrying it, so a restored world saves again without
// caller action.
type Persist struct{}

// Transient marks an entity that is never saved but is still despawned
// before a load, so stale session state does not survive into the restored
// world.
type Transient struct{}

// Markers carry no data and are not registered component types: they are
// invisible to extraction and never appear inside snapshots.
var (
	persistType   = reflect.TypeFor[Persist]()
	transientType = reflect.TypeFor[Transient]()
)

// MarkPersist tags an entity for saving.
func MarkPersist(w World, e world.Entity) {
	w.Attach(e, &Persist{})
}

// UnmarkPersist removes the save tag.
func UnmarkPersist(w World, e world.Entity) {
	w.Detach(e, persistType)
}

// IsPersistent reports whether the entity is tagged for saving.
func IsPersistent(w World, e world.Entity) bool {
	return w.Has(e, persistType)
}

// MarkTransient tags an entity for pre-load teardown without saving it.
func MarkTransient(w World, e world.Entity) {
	w.Attach(e, &Transient{})
}

// UnmarkTransient removes the teardown tag.
func UnmarkTransient(w World, e world.Entity) {
	w.Detach(e, transientType)
}

// IsTransient reports whether the entity is tagged for teardown.
func IsTransient(w World, e world.Entity) bool {
	return w.Has(e, transientType)
}
