package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"ZoningHarvester/internal/domain"
	"ZoningHarvester/internal/ports"
)

// StatsCSVWriter persists the per-division statistics as a flat
// delimited table, independent of which geometry format succeeded.
type StatsCSVWriter struct {
	path string
}

var _ ports.StatsWriter = (*StatsCSVWriter)(nil)

// NewStatsCSVWriter targets the given file path.
func NewStatsCSVWriter(path string) *StatsCSVWriter {
	return &StatsCSVWriter{path: path}
}

// Write emits one row per division: count, total area, density.
func (w *StatsCSVWriter) Write(_ context.Context, stats []domain.DivisionStats) error {
	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create statistics file: %w", err)
	}

	writer := csv.NewWriter(file)
	rows := [][]string{{"division", "documents", "total_area_km2", "density"}}
	for _, row := range stats {
		rows = append(rows, []string{
			row.Division,
			strconv.Itoa(row.Documents),
			strconv.FormatFloat(row.TotalAreaKm2, 'f', -1, 64),
			strconv.FormatFloat(row.Density, 'f', -1, 64),
		})
	}
	if err := writer.WriteAll(rows); err != nil {
		_ = file.Close()
		return fmt.Errorf("write statistics: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close statistics file: %w", err)
	}
	return nil
}
