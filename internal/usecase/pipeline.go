package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ZoningHarvester/internal/domain"
	"ZoningHarvester/internal/ports"
	"ZoningHarvester/internal/tiling"
)

// PipelineDeps wires all driven adapters into the harvest pipeline.
type PipelineDeps struct {
	Source   ports.FeatureSource
	Cleaner  ports.RecordCleaner
	Primary  ports.GeometryWriter
	Fallback ports.GeometryWriter
	Stats    ports.StatsWriter
	Logger   *slog.Logger
}

// Options carries the run parameters fixed at configuration time.
type Options struct {
	Divisions []domain.Division
	TileSize  float64
	Workers   int
	Pacing    time.Duration
	CRS       string
}

// Pipeline implements the single-pass harvest workflow: tiled fetches
// per division under a bounded worker pool, cleaning, aggregation, and
// persistence with a one-level format fallback.
type Pipeline struct {
	source   ports.FeatureSource
	cleaner  ports.RecordCleaner
	primary  ports.GeometryWriter
	fallback ports.GeometryWriter
	stats    ports.StatsWriter
	logger   *slog.Logger
	opts     Options
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps, opts Options) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Pipeline{
		source:   deps.Source,
		cleaner:  deps.Cleaner,
		primary:  deps.Primary,
		fallback: deps.Fallback,
		stats:    deps.Stats,
		logger:   deps.Logger,
		opts:     opts,
	}
}

// Run executes one full harvest pass. A run where every division comes
// back empty is reported and ends cleanly before any file is written;
// only a failed fallback write or statistics write returns an error.
func (p *Pipeline) Run(ctx context.Context) error {
	dataset := p.merge(p.harvest(ctx))
	if len(dataset.Records) == 0 {
		p.logger.Warn("no valid data harvested for any division")
		return nil
	}

	stats := Aggregate(dataset)
	return p.write(ctx, dataset, stats)
}

type divisionResult struct {
	code    string
	records []domain.Record
}

// harvest runs one task per division on a bounded worker pool and
// reads results only after every task has completed.
func (p *Pipeline) harvest(ctx context.Context) map[string][]domain.Record {
	divisions := p.opts.Divisions

	workers := p.opts.Workers
	if workers > len(divisions) {
		workers = len(divisions)
	}

	jobs := make(chan domain.Division, len(divisions))
	results := make(chan divisionResult, len(divisions))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for division := range jobs {
				results <- divisionResult{
					code:    division.Code,
					records: p.processDivision(ctx, division),
				}
			}
		}()
	}

	for _, division := range divisions {
		jobs <- division
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make(map[string][]domain.Record, len(divisions))
	for result := range results {
		if len(result.records) > 0 {
			collected[result.code] = result.records
		}
	}
	return collected
}

// processDivision walks the division's tiles strictly sequentially,
// pacing requests against the shared remote service. A failed tile is
// logged and skipped; it never aborts the division.
func (p *Pipeline) processDivision(ctx context.Context, division domain.Division) []domain.Record {
	total := tiling.Count(division.Extent, p.opts.TileSize)
	p.logger.Info("processing division", "division", division.Code, "tiles", total)

	var records []domain.Record
	index := 0
	for tile := range tiling.Tiles(division.Extent, p.opts.TileSize) {
		index++
		p.logger.Debug("processing tile",
			"division", division.Code, "tile", index, "total", total,
			"minX", tile.MinX, "minY", tile.MinY, "maxX", tile.MaxX, "maxY", tile.MaxY)

		batch, err := p.source.FetchTile(ctx, tile)
		if err != nil {
			p.logger.Warn("tile fetch failed", "division", division.Code, "tile", index, "error", err)
		} else {
			records = append(records, p.cleaner.Clean(batch, division.Code)...)
		}

		if index < total && p.opts.Pacing > 0 {
			select {
			case <-ctx.Done():
				return records
			case <-time.After(p.opts.Pacing):
			}
		}
	}

	if len(records) == 0 {
		p.logger.Info("division produced no data", "division", division.Code)
	}
	return records
}

// merge concatenates division results in configured division order,
// tagging the dataset with the run's coordinate reference system.
func (p *Pipeline) merge(collected map[string][]domain.Record) domain.Dataset {
	dataset := domain.Dataset{CRS: p.opts.CRS}
	for _, division := range p.opts.Divisions {
		dataset.Records = append(dataset.Records, collected[division.Code]...)
	}
	return dataset
}

// write persists the geometry dataset, falling back to the secondary
// format once, then writes the statistics table regardless of which
// geometry format succeeded.
func (p *Pipeline) write(ctx context.Context, dataset domain.Dataset, stats []domain.DivisionStats) error {
	if err := p.primary.Write(ctx, dataset); err != nil {
		p.logger.Warn("primary geometry write failed, using fallback",
			"format", p.primary.Format(), "error", err)
		if err := p.fallback.Write(ctx, dataset); err != nil {
			return fmt.Errorf("fallback geometry write: %w", err)
		}
		p.logger.Info("geometry dataset written",
			"format", p.fallback.Format(), "records", len(dataset.Records))
	} else {
		p.logger.Info("geometry dataset written",
			"format", p.primary.Format(), "records", len(dataset.Records))
	}

	if err := p.stats.Write(ctx, stats); err != nil {
		return fmt.Errorf("write statistics: %w", err)
	}
	p.logger.Info("statistics written", "divisions", len(stats))
	return nil
}
