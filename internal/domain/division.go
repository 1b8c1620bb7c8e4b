package domain

// BBox is an axis-aligned bounding box in a geographic coordinate system.
type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 {
	return b.MaxY - b.MinY
}

// IsEmpty reports whether the box covers no area.
func (b BBox) IsEmpty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// Division is a configured administrative area identified by a fixed
// two-digit code and a target bounding box. The set of divisions is
// immutable for the run.
type Division struct {
	Code   string
	Extent BBox
}
