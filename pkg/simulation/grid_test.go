package simulation

import (
	"math/rand/v2"
	"testing"

	"github.com/lao-tseu-is-alive/go-murmuration/pkg/geometry"
)

func TestGrid_Rebuild(t *testing.T) {
	// Cell size 100: positions map straight to cell indices.
	g := NewGrid(100)

	birds := []Bird{
		{Index: 0, Pos: geometry.Vector2D{X: 50, Y: 50}},   // cell 0,0
		{Index: 1, Pos: geometry.Vector2D{X: 150, Y: 50}},  // cell 1,0
		{Index: 2, Pos: geometry.Vector2D{X: 50, Y: 150}},  // cell 0,1
		{Index: 3, Pos: geometry.Vector2D{X: 250, Y: 250}}, // cell 2,2
	}
	g.Rebuild(birds)

	contains := func(list []int, idx int) bool {
		for _, i := range list {
			if i == idx {
				return true
			}
		}
		return false
	}

	checks := []struct {
		key  gridKey
		want int
	}{
		{gridKey{0, 0}, 0},
		{gridKey{1, 0}, 1},
		{gridKey{0, 1}, 2},
		{gridKey{2, 2}, 3},
	}
	for _, c := range checks {
		if list, ok := g.cells[c.key]; !ok || !contains(list, c.want) {
			t.Errorf("expected bird %d in cell %v, got %v", c.want, c.key, list)
		}
	}

	// Ensure no cross-contamination.
	if contains(g.cells[gridKey{0, 0}], 1) {
		t.Error("did not expect bird 1 in cell 0,0")
	}

	// Rebuilding after movement must not leave stale entries behind.
	birds[0].Pos = geometry.Vector2D{X: 350, Y: 350}
	g.Rebuild(birds)
	if contains(g.cells[gridKey{0, 0}], 0) {
		t.Error("stale entry for bird 0 in cell 0,0 after rebuild")
	}
	if !contains(g.cells[gridKey{3, 3}], 0) {
		t.Error("expected bird 0 in cell 3,3 after rebuild")
	}
}

// bruteForceNeighbors is the O(n^2) oracle the grid must agree with.
func bruteForceNeighbors(birds []Bird, center geometry.Vector2D, radius float64) map[int]bool {
	out := make(map[int]bool)
	for i := range birds {
		if birds[i].Pos.DistanceSquaredTo(center) <= radius*radius {
			out[i] = true
		}
	}
	return out
}

func TestGrid_QueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	const n = 200
	const radius = 70.0

	birds := make([]Bird, 0, n)
	for i := 0; i < n; i++ {
		birds = append(birds, Bird{
			Index: i,
			Pos:   geometry.Vector2D{X: rng.Float64() * 1000, Y: rng.Float64() * 800},
		})
	}
	// A few positions exactly on cell boundaries; the grid must not lose them.
	birds = append(birds,
		Bird{Index: n, Pos: geometry.Vector2D{X: 70, Y: 70}},
		Bird{Index: n + 1, Pos: geometry.Vector2D{X: 140, Y: 0}},
		Bird{Index: n + 2, Pos: geometry.Vector2D{X: 0, Y: 140}},
	)

	g := NewGrid(radius)
	g.Rebuild(birds)

	var buf []int
	for probe := 0; probe < 50; probe++ {
		center := geometry.Vector2D{X: rng.Float64() * 1000, Y: rng.Float64() * 800}
		want := bruteForceNeighbors(birds, center, radius)

		buf = g.QueryInto(buf[:0], center, radius)

		// 1. Superset: no false negatives among the candidates.
		got := make(map[int]bool, len(buf))
		for _, idx := range buf {
			got[idx] = true
		}
		for idx := range want {
			if !got[idx] {
				t.Fatalf("probe %d at %v: bird %d within radius but missing from candidates", probe, center, idx)
			}
		}

		// 2. After exact-distance filtering, the sets are identical.
		filtered := make(map[int]bool)
		for _, idx := range buf {
			if birds[idx].Pos.DistanceSquaredTo(center) <= radius*radius {
				filtered[idx] = true
			}
		}
		if len(filtered) != len(want) {
			t.Fatalf("probe %d: filtered count %d, brute force %d", probe, len(filtered), len(want))
		}
		for idx := range want {
			if !filtered[idx] {
				t.Fatalf("probe %d: bird %d in brute force result but not in filtered query", probe, idx)
			}
		}
	}
}

func TestGrid_ZeroRadiusQuery(t *testing.T) {
	g := NewGrid(70)
	birds := []Bird{{Index: 0, Pos: geometry.Vector2D{X: 10, Y: 10}}}
	g.Rebuild(birds)

	if got := g.QueryInto(nil, geometry.Vector2D{X: 10, Y: 10}, 0); len(got) != 0 {
		t.Errorf("zero-radius query returned %v; want empty", got)
	}
	if got := g.QueryInto(nil, geometry.Vector2D{X: 10, Y: 10}, -5); len(got) != 0 {
		t.Errorf("negative-radius query returned %v; want empty", got)
	}
}

func TestGrid_TinyCellSizeClamped(t *testing.T) {
	g := NewGrid(0.001)
	if g.cellSize < minCellSize {
		t.Errorf("cell size %g below the minimum %g", g.cellSize, minCellSize)
	}
	g.SetCellSize(-3)
	if g.cellSize < minCellSize {
		t.Errorf("SetCellSize allowed %g below the minimum", g.cellSize)
	}
}

func BenchmarkGrid_Rebuild(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 2))
	birds := make([]Bird, 1000)
	for i := range birds {
		birds[i] = Bird{Index: i, Pos: geometry.Vector2D{X: rng.Float64() * 1000, Y: rng.Float64() * 800}}
	}
	g := NewGrid(70)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Rebuild(birds)
	}
}

func BenchmarkGrid_QueryInto(b *testing.B) {
	rng := rand.New(rand.NewPCG(3, 4))
	birds := make([]Bird, 1000)
	for i := range birds {
		birds[i] = Bird{Index: i, Pos: geometry.Vector2D{X: rng.Float64() * 1000, Y: rng.Float64() * 800}}
	}
	g := NewGrid(70)
	g.Rebuild(birds)

	var buf []int
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = g.QueryInto(buf[:0], geometry.Vector2D{X: 500, Y: 400}, 70)
	}
}
