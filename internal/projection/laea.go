// Package projection reprojects geographic geometries to the European
// equal-area grid (ETRS89-LAEA, EPSG:3035) to measure areas in km².
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

// GRS80 ellipsoid and EPSG:3035 projection parameters.
const (
	semiMajor     = 6378137.0
	flattening    = 1.0 / 298.257222101
	originLonDeg  = 10.0
	originLatDeg  = 52.0
	falseEasting  = 4321000.0
	falseNorthing = 3210000.0
)

var (
	e2 = flattening * (2 - flattening)
	e  = math.Sqrt(e2)

	lon0 = originLonDeg * math.Pi / 180
	lat0 = originLatDeg * math.Pi / 180

	qPole   = authalicQ(math.Pi / 2)
	beta1   = math.Asin(authalicQ(lat0) / qPole)
	m1      = math.Cos(lat0) / math.Sqrt(1-e2*math.Sin(lat0)*math.Sin(lat0))
	radiusQ = semiMajor * math.Sqrt(qPole/2)
	scaleD  = semiMajor * m1 / (radiusQ * math.Cos(beta1))
)

// Project transforms a lon/lat position in degrees (EPSG:4326 axis
// order x=lon, y=lat) to EPSG:3035 easting/northing in metres.
func Project(lon, lat float64) (x, y float64) {
	phi := lat * math.Pi / 180
	lam := lon*math.Pi/180 - lon0

	beta := math.Asin(clamp(authalicQ(phi)/qPole, -1, 1))
	sinBeta, cosBeta := math.Sin(beta), math.Cos(beta)
	sinBeta1, cosBeta1 := math.Sin(beta1), math.Cos(beta1)
	cosLam := math.Cos(lam)

	b := radiusQ * math.Sqrt(2/(1+sinBeta1*sinBeta+cosBeta1*cosBeta*cosLam))

	x = falseEasting + b*scaleD*cosBeta*math.Sin(lam)
	y = falseNorthing + (b/scaleD)*(cosBeta1*sinBeta-sinBeta1*cosBeta*cosLam)
	return x, y
}

// AreaKm2 reprojects g to the equal-area grid and returns its planar
// area in square kilometres. Only polygonal geometries carry area.
func AreaKm2(g geom.T) (float64, error) {
	switch t := g.(type) {
	case *geom.Polygon:
		return math.Abs(reprojectPolygon(t).Area()) / 1e6, nil
	case *geom.MultiPolygon:
		return math.Abs(reprojectMultiPolygon(t).Area()) / 1e6, nil
	case nil:
		return 0, errors.New("nil geometry")
	default:
		return 0, fmt.Errorf("unsupported geometry type %T", g)
	}
}

func reprojectPolygon(p *geom.Polygon) *geom.Polygon {
	flat := reprojectFlat(p.FlatCoords(), p.Stride())
	return geom.NewPolygonFlat(geom.XY, flat, rescaleEnds(p.Ends(), p.Stride()))
}

func reprojectMultiPolygon(mp *geom.MultiPolygon) *geom.MultiPolygon {
	flat := reprojectFlat(mp.FlatCoords(), mp.Stride())
	endss := make([][]int, len(mp.Endss()))
	for i, ends := range mp.Endss() {
		endss[i] = rescaleEnds(ends, mp.Stride())
	}
	return geom.NewMultiPolygonFlat(geom.XY, flat, endss)
}

// reprojectFlat projects every coordinate pair, dropping any Z/M
// dimensions carried by the source layout.
func reprojectFlat(src []float64, stride int) []float64 {
	if stride < 2 {
		return nil
	}
	out := make([]float64, 0, len(src)/stride*2)
	for i := 0; i+1 < len(src); i += stride {
		x, y := Project(src[i], src[i+1])
		out = append(out, x, y)
	}
	return out
}

func rescaleEnds(ends []int, stride int) []int {
	out := make([]int, len(ends))
	for i, end := range ends {
		out[i] = end / stride * 2
	}
	return out
}

func authalicQ(phi float64) float64 {
	s := math.Sin(phi)
	return (1 - e2) * (s/(1-e2*s*s) - (1/(2*e))*math.Log((1-e*s)/(1+e*s)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
