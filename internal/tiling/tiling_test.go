package tiling

import (
	"math"
	"testing"

	"ZoningHarvester/internal/domain"
)

func collect(box domain.BBox, size float64) []domain.BBox {
	var tiles []domain.BBox
	for tile := range Tiles(box, size) {
		tiles = append(tiles, tile)
	}
	return tiles
}

func TestTilesExactMultiple(t *testing.T) {
	t.Parallel()

	box := domain.BBox{MinX: 4.7, MinY: 43.2, MaxX: 4.9, MaxY: 43.4}
	tiles := collect(box, 0.1)

	if len(tiles) != 4 {
		t.Fatalf("expected 4 tiles, got %d", len(tiles))
	}
	if got := Count(box, 0.1); got != 4 {
		t.Fatalf("Count returned %d, want 4", got)
	}
}

func TestTilesCoverageAndOverlap(t *testing.T) {
	t.Parallel()

	box := domain.BBox{MinX: 0, MinY: 0, MaxX: 1, MaxY: 0.55}
	size := 0.25
	tiles := collect(box, size)

	wantCount := 4 * 3 // ceil(1/0.25) x ceil(0.55/0.25)
	if len(tiles) != wantCount {
		t.Fatalf("expected %d tiles, got %d", wantCount, len(tiles))
	}
	if got := Count(box, size); got != wantCount {
		t.Fatalf("Count returned %d, want %d", got, wantCount)
	}

	var covered float64
	for i, tile := range tiles {
		if tile.Width() <= 0 || tile.Height() <= 0 {
			t.Fatalf("tile %d is degenerate: %+v", i, tile)
		}
		if tile.Width() > size+1e-9 || tile.Height() > size+1e-9 {
			t.Fatalf("tile %d exceeds tile size: %+v", i, tile)
		}
		if tile.MinX < box.MinX || tile.MinY < box.MinY || tile.MaxX > box.MaxX || tile.MaxY > box.MaxY {
			t.Fatalf("tile %d extends past the box: %+v", i, tile)
		}
		covered += tile.Width() * tile.Height()
	}

	if want := box.Width() * box.Height(); math.Abs(covered-want) > 1e-9 {
		t.Fatalf("tiles cover %v, box area is %v", covered, want)
	}

	for i := range tiles {
		for j := i + 1; j < len(tiles); j++ {
			a, b := tiles[i], tiles[j]
			if a.MinX < b.MaxX && b.MinX < a.MaxX && a.MinY < b.MaxY && b.MinY < a.MaxY {
				t.Fatalf("tiles %d and %d overlap: %+v %+v", i, j, a, b)
			}
		}
	}
}

func TestTilesClampToFarEdge(t *testing.T) {
	t.Parallel()

	box := domain.BBox{MinX: 2.3, MinY: 48.8, MaxX: 2.55, MaxY: 48.93}
	tiles := collect(box, 0.1)

	var maxX, maxY float64
	for _, tile := range tiles {
		maxX = math.Max(maxX, tile.MaxX)
		maxY = math.Max(maxY, tile.MaxY)
	}

	if maxX != box.MaxX {
		t.Fatalf("rightmost tile edge %v, want exactly %v", maxX, box.MaxX)
	}
	if maxY != box.MaxY {
		t.Fatalf("topmost tile edge %v, want exactly %v", maxY, box.MaxY)
	}
}

func TestTilesDegenerateBox(t *testing.T) {
	t.Parallel()

	box := domain.BBox{MinX: 1, MinY: 1, MaxX: 1, MaxY: 2}
	if tiles := collect(box, 0.1); len(tiles) != 0 {
		t.Fatalf("expected no tiles for a zero-area box, got %d", len(tiles))
	}
	if got := Count(box, 0.1); got != 0 {
		t.Fatalf("Count returned %d for a zero-area box", got)
	}
}

func TestTilesRestartable(t *testing.T) {
	t.Parallel()

	box := domain.BBox{MinX: 4.7, MinY: 45.7, MaxX: 4.9, MaxY: 45.8}
	seq := Tiles(box, 0.1)

	first := make([]domain.BBox, 0)
	for tile := range seq {
		first = append(first, tile)
	}
	second := make([]domain.BBox, 0)
	for tile := range seq {
		second = append(second, tile)
	}

	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("restarted sequence has %d tiles, first pass had %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("tile %d differs between passes: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestTilesEarlyStop(t *testing.T) {
	t.Parallel()

	box := domain.BBox{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	count := 0
	for range Tiles(box, 0.1) {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Fatalf("expected iteration to stop after 3 tiles, got %d", count)
	}
}
