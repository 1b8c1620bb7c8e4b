// Package cleaner normalizes raw feature batches into division-owned
// records with equal-area surface annotations.
package cleaner

import (
	"fmt"
	"log/slog"
	"regexp"

	"ZoningHarvester/internal/domain"
	"ZoningHarvester/internal/ports"
	"ZoningHarvester/internal/projection"
)

// divisionExpr captures the first two consecutive digits of the
// partition identifier. The identifier is free text; a record whose
// identifier yields no match is dropped, never repaired.
var divisionExpr = regexp.MustCompile(`\d{2}`)

// Cleaner derives record ownership from the partition identifier and
// keeps only records belonging to the requesting division.
type Cleaner struct {
	docIDField     string
	partitionField string
	logger         *slog.Logger
}

var _ ports.RecordCleaner = (*Cleaner)(nil)

// New builds a cleaner reading the given attribute fields.
func New(docIDField, partitionField string, logger *slog.Logger) *Cleaner {
	return &Cleaner{
		docIDField:     docIDField,
		partitionField: partitionField,
		logger:         logger,
	}
}

// Clean filters batch down to records owned by division, attaching the
// projected area in km² to each survivor. It returns nil when the
// batch is absent, empty, or fully filtered out.
func (c *Cleaner) Clean(batch *domain.FeatureBatch, division string) []domain.Record {
	if batch == nil || len(batch.Features) == 0 {
		return nil
	}

	records := make([]domain.Record, 0, len(batch.Features))
	for _, feature := range batch.Features {
		props := domain.TextifyTemporal(feature.Properties)

		partition := stringValue(props[c.partitionField])
		code := divisionExpr.FindString(partition)
		if code == "" || code != division {
			continue
		}

		area, err := projection.AreaKm2(feature.Geometry)
		if err != nil {
			c.warn("skip record without measurable geometry", "division", division, "error", err)
			continue
		}

		records = append(records, domain.Record{
			DocID:     stringValue(props[c.docIDField]),
			Partition: partition,
			Division:  code,
			AreaKm2:   area,
			Geometry:  feature.Geometry,
		})
	}

	if len(records) == 0 {
		c.info("no valid data for division in this tile", "division", division)
		return nil
	}
	return records
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func (c *Cleaner) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Cleaner) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
