// Package storage persists the combined dataset and its statistics:
// GeoPackage as the primary geometry container, GeoJSON as the
// fallback, CSV for the per-division statistics table.
package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"ZoningHarvester/internal/domain"
	"ZoningHarvester/internal/ports"
)

const (
	featureTable   = "zoning_documents"
	geometryColumn = "geom"

	// "GPKG" in big-endian, the required SQLite application_id.
	gpkgApplicationID = 0x47504B47
	gpkgUserVersion   = 10300
)

var attributeColumns = []string{"doc_id", "partition_id", "division", "area_km2"}

const wgs84Definition = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433],AUTHORITY["EPSG","4326"]]`

// GeoPackageWriter persists the dataset as a single-file GeoPackage.
type GeoPackageWriter struct {
	path   string
	logger *slog.Logger
}

var _ ports.GeometryWriter = (*GeoPackageWriter)(nil)

// NewGeoPackageWriter targets the given file path; an existing file is
// replaced on write.
func NewGeoPackageWriter(path string, logger *slog.Logger) *GeoPackageWriter {
	return &GeoPackageWriter{path: path, logger: logger}
}

// Format identifies the container for progress reporting.
func (w *GeoPackageWriter) Format() string {
	return "GPKG"
}

// Write creates the GeoPackage metadata tables and inserts every record
// with its geometry encoded as a GeoPackage binary blob.
func (w *GeoPackageWriter) Write(ctx context.Context, dataset domain.Dataset) error {
	srs, err := srsID(dataset.CRS)
	if err != nil {
		return err
	}

	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale geopackage: %w", err)
	}

	db, err := sql.Open("sqlite3", w.path)
	if err != nil {
		return fmt.Errorf("open geopackage: %w", err)
	}
	defer db.Close()

	if err := w.createSchema(ctx, db, srs, dataset); err != nil {
		return err
	}
	return w.insertRecords(ctx, db, srs, dataset)
}

func (w *GeoPackageWriter) createSchema(ctx context.Context, db *sql.DB, srs int, dataset domain.Dataset) error {
	statements := []string{
		fmt.Sprintf("PRAGMA application_id = %d", gpkgApplicationID),
		fmt.Sprintf("PRAGMA user_version = %d", gpkgUserVersion),
		`CREATE TABLE gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT
		)`,
		`CREATE TABLE gpkg_contents (
			table_name TEXT NOT NULL PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
			srs_id INTEGER
		)`,
		`CREATE TABLE gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL,
			CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name)
		)`,
		fmt.Sprintf(`CREATE TABLE %s (
			fid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT,
			partition_id TEXT,
			division TEXT,
			area_km2 REAL,
			%s BLOB
		)`, featureTable, geometryColumn),
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("create geopackage schema: %w", err)
		}
	}

	srsRows := [][]any{
		{"Undefined cartesian SRS", -1, "NONE", -1, "undefined"},
		{"Undefined geographic SRS", 0, "NONE", 0, "undefined"},
		{datasetSRSName(dataset.CRS), srs, "EPSG", srs, srsDefinition(srs)},
	}
	for _, row := range srsRows {
		query, args, err := sq.Insert("gpkg_spatial_ref_sys").
			Columns("srs_name", "srs_id", "organization", "organization_coordsys_id", "definition").
			Values(row...).
			ToSql()
		if err != nil {
			return fmt.Errorf("build srs insert: %w", err)
		}
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert srs row: %w", err)
		}
	}

	minX, minY, maxX, maxY := datasetBounds(dataset)
	query, args, err := sq.Insert("gpkg_contents").
		Columns("table_name", "data_type", "identifier", "min_x", "min_y", "max_x", "max_y", "srs_id").
		Values(featureTable, "features", featureTable, minX, minY, maxX, maxY, srs).
		ToSql()
	if err != nil {
		return fmt.Errorf("build contents insert: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert contents row: %w", err)
	}

	query, args, err = sq.Insert("gpkg_geometry_columns").
		Columns("table_name", "column_name", "geometry_type_name", "srs_id", "z", "m").
		Values(featureTable, geometryColumn, "GEOMETRY", srs, 0, 0).
		ToSql()
	if err != nil {
		return fmt.Errorf("build geometry columns insert: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert geometry columns row: %w", err)
	}

	return nil
}

func (w *GeoPackageWriter) insertRecords(ctx context.Context, db *sql.DB, srs int, dataset domain.Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert transaction: %w", err)
	}

	for _, record := range dataset.Records {
		blob, err := encodeGeometry(record.Geometry, srs)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", record.DocID, err)
		}

		attrs := domain.TextifyTemporal(record.Attributes())
		values := make([]any, 0, len(attributeColumns)+1)
		for _, column := range attributeColumns {
			values = append(values, attrs[column])
		}
		values = append(values, blob)

		query, args, err := sq.Insert(featureTable).
			Columns(append(append([]string{}, attributeColumns...), geometryColumn)...).
			Values(values...).
			ToSql()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("build record insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert record %s: %w", record.DocID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit records: %w", err)
	}
	if w.logger != nil {
		w.logger.Debug("geopackage written", "path", w.path, "records", len(dataset.Records))
	}
	return nil
}

// encodeGeometry wraps little-endian WKB in the GeoPackage binary
// header (magic "GP", version 0, XY envelope).
func encodeGeometry(g geom.T, srs int) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("nil geometry")
	}

	payload, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, fmt.Errorf("encode wkb: %w", err)
	}

	bounds := g.Bounds()
	buf := new(bytes.Buffer)
	buf.WriteString("GP")
	buf.WriteByte(0)
	buf.WriteByte(0x03) // little-endian, envelope indicator 1 (XY)
	if err := binary.Write(buf, binary.LittleEndian, int32(srs)); err != nil {
		return nil, fmt.Errorf("encode srs id: %w", err)
	}
	for _, v := range []float64{bounds.Min(0), bounds.Max(0), bounds.Min(1), bounds.Max(1)} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("encode envelope: %w", err)
		}
	}
	buf.Write(payload)
	return buf.Bytes(), nil
}

func datasetBounds(dataset domain.Dataset) (minX, minY, maxX, maxY float64) {
	first := true
	for _, record := range dataset.Records {
		if record.Geometry == nil {
			continue
		}
		bounds := record.Geometry.Bounds()
		if first {
			minX, minY = bounds.Min(0), bounds.Min(1)
			maxX, maxY = bounds.Max(0), bounds.Max(1)
			first = false
			continue
		}
		minX = min(minX, bounds.Min(0))
		minY = min(minY, bounds.Min(1))
		maxX = max(maxX, bounds.Max(0))
		maxY = max(maxY, bounds.Max(1))
	}
	return minX, minY, maxX, maxY
}

// srsID extracts the numeric identifier from an authority:code CRS
// string such as "EPSG:4326".
func srsID(crs string) (int, error) {
	_, raw, ok := strings.Cut(crs, ":")
	if !ok {
		return 0, fmt.Errorf("unsupported crs %q", crs)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("unsupported crs %q: %w", crs, err)
	}
	return id, nil
}

func datasetSRSName(crs string) string {
	if crs == "" {
		return "unknown"
	}
	return crs
}

func srsDefinition(srs int) string {
	if srs == 4326 {
		return wgs84Definition
	}
	return "undefined"
}
