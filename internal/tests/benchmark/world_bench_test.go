package benchmark

import (
	"fmt"
	"testing"

	"github.com/arkvale/worldsave-go/pkg/world"
)

// BenchmarkWorldSpawn benchmarks entity creation against prefilled worlds.
func BenchmarkWorldSpawn(b *testing.B) {
	counts := SmallEntityCounts

	for _, preload := range counts {
		b.Run(fmt.Sprintf("preload_%d", preload), func(b *testing.B) {
			w := world.New()
			prefillWorld(w, preload)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				e := w.Spawn()
				world.SetComponent(w, e, benchPosition{X: float64(i)})
			}

			b.StopTimer()
			reportMemory(b, "mem")
		})
	}
}

// BenchmarkWorldComponent benchmarks component lookup at various scales.
func BenchmarkWorldComponent(b *testing.B) {
	counts := SmallEntityCounts

	for _, count := range counts {
		b.Run(fmt.Sprintf("entities_%d", count), func(b *testing.B) {
			w := world.New()
			entities := prefillWorld(w, count)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				e := entities[i%len(entities)]
				if _, ok := world.GetComponent[benchPosition](w, e); !ok {
					b.Fatalf("Component missing on entity %d", e)
				}
			}
		})
	}
}

// BenchmarkWorldEntities benchmarks live entity enumeration, the first step
// of every save.
func BenchmarkWorldEntities(b *testing.B) {
	counts := SmallEntityCounts

	for _, count := range counts {
		b.Run(fmt.Sprintf("entities_%d", count), func(b *testing.B) {
			w := world.New()
			prefillWorld(w, count)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if got := len(w.Entities()); got != count {
					b.Fatalf("Expected %d entities, got %d", count, got)
				}
			}
		})
	}
}
