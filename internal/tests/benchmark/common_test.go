package benchmark

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"testing"

	"github.com/arkvale/worldsave-go/pkg/registry"
	"github.com/arkvale/worldsave-go/pkg/save"
	"github.com/arkvale/worldsave-go/pkg/world"
)

// EntityCounts defines the world sizes for benchmarking.
var EntityCounts = []int{1000, 5000, 10000, 50000, 100000}

// SmallEntityCounts for quick benchmarks.
var SmallEntityCounts = []int{1000, 5000, 10000}

type benchPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type benchVelocity struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
	DZ float64 `json:"dz"`
}

type benchHealth struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

type benchLink struct {
	Target world.Entity `json:"target"`
}

// newBenchRegistry builds a registry with the benchmark component set.
func newBenchRegistry() *registry.Registry {
	reg := registry.New()
	registry.Register[benchPosition](reg, "bench.position")
	registry.Register[benchVelocity](reg, "bench.velocity")
	registry.Register[benchHealth](reg, "bench.health")
	registry.Register[benchLink](reg, "bench.link")
	registry.RegisterRemap[benchLink](reg, func(l *benchLink, em *world.EntityMap) {
		em.Remap(&l.Target)
	})
	return reg
}

// prefillWorld spawns count persistent entities with a mixed component load.
// Every tenth entity links back to its predecessor, so saves and loads
// exercise the reference rewrite path.
func prefillWorld(w *world.World, count int) []world.Entity {
	entities := make([]world.Entity, count)
	for i := 0; i < count; i++ {
		e := w.Spawn()
		save.MarkPersist(w, e)
		world.SetComponent(w, e, benchPosition{X: float64(i), Y: float64(i * 2), Z: float64(i % 7)})
		world.SetComponent(w, e, benchVelocity{DX: 1.5, DY: -0.25})
		if i%4 == 0 {
			world.SetComponent(w, e, benchHealth{Current: 80, Max: 100})
		}
		if i%10 == 0 && i > 0 {
			world.SetComponent(w, e, benchLink{Target: entities[i-1]})
		}
		entities[i] = e
	}
	return entities
}

// newBenchPipeline creates a pipeline with logging discarded so the timed
// loop measures only save/load work.
func newBenchPipeline(b *testing.B, w *world.World) *save.Pipeline {
	b.Helper()
	p, err := save.New(w, save.Config{
		Registry: newBenchRegistry(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		b.Fatalf("Failed to create pipeline: %v", err)
	}
	return p
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// sizeLabel returns a human-readable size label.
func sizeLabel(size int) string {
	switch {
	case size >= 1024*1024:
		return fmt.Sprintf("%dMB", size/(1024*1024))
	case size >= 1024:
		return fmt.Sprintf("%dKB", size/1024)
	default:
		return fmt.Sprintf("%dB", size)
	}
}
