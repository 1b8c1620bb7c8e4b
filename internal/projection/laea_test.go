package projection

import (
	"math"
	"testing"

	"github.com/twpayne/go-geom"
)

func TestProjectOrigin(t *testing.T) {
	t.Parallel()

	x, y := Project(originLonDeg, originLatDeg)
	if math.Abs(x-falseEasting) > 1e-6 {
		t.Fatalf("origin easting %v, want %v", x, falseEasting)
	}
	if math.Abs(y-falseNorthing) > 1e-6 {
		t.Fatalf("origin northing %v, want %v", y, falseNorthing)
	}
}

func TestProjectDirections(t *testing.T) {
	t.Parallel()

	if x, _ := Project(12, 52); x <= falseEasting {
		t.Fatalf("point east of origin should project east of the false easting, got %v", x)
	}
	if x, _ := Project(8, 52); x >= falseEasting {
		t.Fatalf("point west of origin should project west of the false easting, got %v", x)
	}
	if _, y := Project(10, 54); y <= falseNorthing {
		t.Fatalf("point north of origin should project north of the false northing, got %v", y)
	}
	if _, y := Project(10, 50); y >= falseNorthing {
		t.Fatalf("point south of origin should project south of the false northing, got %v", y)
	}
}

func squareAt(lon, lat, side float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{lon, lat},
		{lon + side, lat},
		{lon + side, lat + side},
		{lon, lat + side},
		{lon, lat},
	}})
}

func TestAreaKm2Polygon(t *testing.T) {
	t.Parallel()

	// 0.1 x 0.1 degrees near Marseille: roughly 8.1 km x 11.1 km.
	area, err := AreaKm2(squareAt(4.8, 43.3, 0.1))
	if err != nil {
		t.Fatalf("AreaKm2 returned error: %v", err)
	}
	if area < 85 || area > 95 {
		t.Fatalf("area %v km2 outside the plausible range [85, 95]", area)
	}
}

func TestAreaKm2MultiPolygon(t *testing.T) {
	t.Parallel()

	one := squareAt(4.8, 43.3, 0.1)
	other := squareAt(5.0, 43.3, 0.1)

	multi := geom.NewMultiPolygon(geom.XY)
	if err := multi.Push(one); err != nil {
		t.Fatalf("push polygon: %v", err)
	}
	if err := multi.Push(other); err != nil {
		t.Fatalf("push polygon: %v", err)
	}

	single, err := AreaKm2(one)
	if err != nil {
		t.Fatalf("AreaKm2 polygon: %v", err)
	}
	total, err := AreaKm2(multi)
	if err != nil {
		t.Fatalf("AreaKm2 multipolygon: %v", err)
	}

	if total < 1.5*single || total > 2.5*single {
		t.Fatalf("multipolygon area %v is not near twice the single area %v", total, single)
	}
}

func TestAreaKm2Unsupported(t *testing.T) {
	t.Parallel()

	if _, err := AreaKm2(geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{4.8, 43.3})); err == nil {
		t.Fatal("expected error for point geometry")
	}
	if _, err := AreaKm2(nil); err == nil {
		t.Fatal("expected error for nil geometry")
	}
}
