// Package tiling partitions a division's bounding box into a grid of
// sub-boxes no larger than the configured tile size.
package tiling

import (
	"iter"
	"math"

	"ZoningHarvester/internal/domain"
)

// epsilon absorbs float drift when a box span is an exact multiple of
// the tile size, so no sliver column or row is emitted.
const epsilon = 1e-9

// Tiles returns a lazy, restartable sequence of non-overlapping
// sub-boxes that exactly cover box. The outer loop advances the
// horizontal axis, the inner loop the vertical axis; the last tile in
// each row and column is clamped to the box's far edge. A zero-area
// box yields an empty sequence.
func Tiles(box domain.BBox, size float64) iter.Seq[domain.BBox] {
	cols, rows := steps(box, size)
	return func(yield func(domain.BBox) bool) {
		for i := 0; i < cols; i++ {
			minX := box.MinX + float64(i)*size
			maxX := box.MinX + float64(i+1)*size
			if i == cols-1 || maxX > box.MaxX {
				maxX = box.MaxX
			}
			for j := 0; j < rows; j++ {
				minY := box.MinY + float64(j)*size
				maxY := box.MinY + float64(j+1)*size
				if j == rows-1 || maxY > box.MaxY {
					maxY = box.MaxY
				}
				tile := domain.BBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
				if !yield(tile) {
					return
				}
			}
		}
	}
}

// Count returns the number of tiles Tiles will emit for box and size:
// ceil(width/size) * ceil(height/size).
func Count(box domain.BBox, size float64) int {
	cols, rows := steps(box, size)
	return cols * rows
}

func steps(box domain.BBox, size float64) (cols, rows int) {
	if size <= 0 || box.IsEmpty() {
		return 0, 0
	}
	cols = int(math.Ceil(box.Width()/size - epsilon))
	rows = int(math.Ceil(box.Height()/size - epsilon))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}
