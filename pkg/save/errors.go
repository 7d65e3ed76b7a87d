package save

import "fmt"

// Phase names a stage of the load pipeline, for error reporting, logging,
// and metrics labels.
type Phase string

const (
	PhaseDeserialize Phase = "deserialize"
	PhaseDespawn     Phase = "despawn"
	PhaseSpawn       Phase = "spawn"
	PhaseFixup       Phase = "fixup"
)

// SaveError reports a failed save or dump: an I/O fault or a registered
// component that would not serialize. The world is never mutated by a save,
// and the previous snapshot file survives untouched.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save: %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// LoadError reports a failed load. Only PhaseDeserialize produces one: the
// snapshot is fully decoded and validated before any despawn, so every
// recoverable fault surfaces while the world is still untouched. A fault in
// a later phase is an invariant violation and panics instead.
type LoadError struct {
	Path  string
	Phase Phase
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load: %s: %s: %v", e.Path, e.Phase, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
