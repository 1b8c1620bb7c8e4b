package domain

import (
	"time"

	"github.com/twpayne/go-geom"
)

// RawFeature is one geometry-bearing record as returned by the remote
// service, with its attribute columns untouched.
type RawFeature struct {
	Geometry   geom.T
	Properties map[string]any
}

// FeatureBatch is the parsed result of one tile query.
type FeatureBatch struct {
	Features []RawFeature
}

// Record is a cleaned zoning-document record retained for one division.
// Division always equals the first two-digit run extracted from
// Partition, and equals the division the record was retained under.
type Record struct {
	DocID     string
	Partition string
	Division  string
	AreaKm2   float64
	Geometry  geom.T
}

// Attributes returns the record's non-geometry fields keyed by their
// output column names.
func (r Record) Attributes() map[string]any {
	return map[string]any{
		"doc_id":       r.DocID,
		"partition_id": r.Partition,
		"division":     r.Division,
		"area_km2":     r.AreaKm2,
	}
}

// Dataset is the union of all surviving division results, tagged with
// the run's shared coordinate reference system.
type Dataset struct {
	CRS     string
	Records []Record
}

// DivisionStats summarizes one division present in the combined
// dataset. Rows exist only for divisions with positive total area.
type DivisionStats struct {
	Division     string
	Documents    int
	TotalAreaKm2 float64
	Density      float64
}

// TextifyTemporal returns a copy of attrs with temporal values rendered
// as text; the output sinks have no native temporal column types.
func TextifyTemporal(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for key, value := range attrs {
		switch v := value.(type) {
		case time.Time:
			out[key] = v.Format(time.RFC3339)
		case time.Duration:
			out[key] = v.String()
		default:
			out[key] = value
		}
	}
	return out
}
