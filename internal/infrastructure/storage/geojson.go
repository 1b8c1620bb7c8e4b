package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/twpayne/go-geom/encoding/geojson"

	"ZoningHarvester/internal/domain"
	"ZoningHarvester/internal/ports"
)

// GeoJSONWriter is the fallback geometry sink, used only when the
// GeoPackage write fails. There is no further fallback behind it.
type GeoJSONWriter struct {
	path   string
	logger *slog.Logger
}

var _ ports.GeometryWriter = (*GeoJSONWriter)(nil)

// NewGeoJSONWriter targets the given file path.
func NewGeoJSONWriter(path string, logger *slog.Logger) *GeoJSONWriter {
	return &GeoJSONWriter{path: path, logger: logger}
}

// Format identifies the container for progress reporting.
func (w *GeoJSONWriter) Format() string {
	return "GeoJSON"
}

// Write encodes the dataset as a GeoJSON feature collection.
func (w *GeoJSONWriter) Write(_ context.Context, dataset domain.Dataset) error {
	collection := geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(dataset.Records)),
	}
	for _, record := range dataset.Records {
		collection.Features = append(collection.Features, &geojson.Feature{
			ID:         record.DocID,
			Geometry:   record.Geometry,
			Properties: domain.TextifyTemporal(record.Attributes()),
		})
	}

	payload, err := json.Marshal(&collection)
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	if err := os.WriteFile(w.path, payload, 0o644); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}

	if w.logger != nil {
		w.logger.Debug("geojson written", "path", w.path, "records", len(dataset.Records))
	}
	return nil
}
