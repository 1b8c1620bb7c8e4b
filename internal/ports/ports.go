package ports

import (
	"context"

	"ZoningHarvester/internal/domain"
)

// FeatureSource pulls raw zoning features for one tile from the remote
// feature service.
type FeatureSource interface {
	FetchTile(ctx context.Context, tile domain.BBox) (*domain.FeatureBatch, error)
}

// RecordCleaner filters a raw batch down to cleaned records owned by
// the given division. An empty result means the tile holds no valid data.
type RecordCleaner interface {
	Clean(batch *domain.FeatureBatch, division string) []domain.Record
}

// GeometryWriter persists the combined geometry dataset in one format.
type GeometryWriter interface {
	Write(ctx context.Context, dataset domain.Dataset) error
	Format() string
}

// StatsWriter persists the per-division density statistics table.
type StatsWriter interface {
	Write(ctx context.Context, stats []domain.DivisionStats) error
}
