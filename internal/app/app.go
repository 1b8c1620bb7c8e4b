package app

import (
	"context"
	"log/slog"

	"ZoningHarvester/internal/cleaner"
	"ZoningHarvester/internal/config"
	"ZoningHarvester/internal/domain"
	"ZoningHarvester/internal/infrastructure/storage"
	"ZoningHarvester/internal/infrastructure/wfs"
	"ZoningHarvester/internal/logging"
	"ZoningHarvester/internal/usecase"
)

// Application wires configs to the harvest pipeline.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	source := wfs.New(cfg.Service, cfg.Harvest.MaxFeatures, nil, baseLogger.With("component", "wfs"))
	clean := cleaner.New(cfg.Service.DocIDField, cfg.Service.PartitionField, baseLogger.With("component", "cleaner"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:   source,
		Cleaner:  clean,
		Primary:  storage.NewGeoPackageWriter(cfg.Output.GeoPackagePath, baseLogger.With("component", "storage.gpkg")),
		Fallback: storage.NewGeoJSONWriter(cfg.Output.GeoJSONPath, baseLogger.With("component", "storage.geojson")),
		Stats:    storage.NewStatsCSVWriter(cfg.Output.StatsPath),
		Logger:   baseLogger.With("component", "pipeline"),
	}, usecase.Options{
		Divisions: toDivisions(cfg.Divisions),
		TileSize:  cfg.Harvest.TileSize,
		Workers:   cfg.Harvest.Workers,
		Pacing:    cfg.Harvest.Pacing(),
		CRS:       cfg.Service.CRS,
	})

	return &Application{cfg: cfg, pipeline: pipeline}
}

// Run performs one harvest pass; the process exits after it returns.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}
	return a.pipeline.Run(ctx)
}

func toDivisions(cfgs []config.DivisionConfig) []domain.Division {
	divisions := make([]domain.Division, 0, len(cfgs))
	for _, division := range cfgs {
		divisions = append(divisions, domain.Division{
			Code: division.Code,
			Extent: domain.BBox{
				MinX: division.BBox[0],
				MinY: division.BBox[1],
				MaxX: division.BBox[2],
				MaxY: division.BBox[3],
			},
		})
	}
	return divisions
}
