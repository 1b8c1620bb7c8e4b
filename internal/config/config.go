package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "ZONING_HARVESTER_CONFIG"
	endpointEnv   = "WFS_ENDPOINT"
	outputDirEnv  = "OUTPUT_DIR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig    `yaml:"logging"`
	Service   ServiceConfig    `yaml:"service"`
	Harvest   HarvestConfig    `yaml:"harvest"`
	Divisions []DivisionConfig `yaml:"divisions"`
	Output    OutputConfig     `yaml:"output"`
}

// LoggingConfig controls log verbosity and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServiceConfig describes the remote WFS endpoint and layer.
type ServiceConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Layer          string `yaml:"layer"`
	CRS            string `yaml:"crs"`
	DocIDField     string `yaml:"docIdField"`
	PartitionField string `yaml:"partitionField"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// RequestTimeout resolves the per-request timeout as a duration.
func (s ServiceConfig) RequestTimeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// HarvestConfig groups tiling and concurrency parameters.
type HarvestConfig struct {
	TileSize     float64 `yaml:"tileSize"`
	MaxFeatures  int     `yaml:"maxFeatures"`
	Workers      int     `yaml:"workers"`
	PacingMillis int     `yaml:"pacingMillis"`
}

// Pacing resolves the inter-tile delay as a duration.
func (h HarvestConfig) Pacing() time.Duration {
	if h.PacingMillis <= 0 {
		return 0
	}
	return time.Duration(h.PacingMillis) * time.Millisecond
}

// DivisionConfig defines one administrative division to harvest. BBox
// is min-x, min-y, max-x, max-y in the service coordinate system.
type DivisionConfig struct {
	Code string     `yaml:"code"`
	BBox [4]float64 `yaml:"bbox"`
}

// OutputConfig names the files written at the end of the run.
type OutputConfig struct {
	GeoPackagePath string `yaml:"geoPackagePath"`
	GeoJSONPath    string `yaml:"geoJsonPath"`
	StatsPath      string `yaml:"statsPath"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Divisions) == 0 {
		cfg.Divisions = defaultConfig().Divisions
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(endpointEnv); v != "" {
		c.Service.Endpoint = v
	}

	if dir := os.Getenv(outputDirEnv); dir != "" {
		c.Output.GeoPackagePath = filepath.Join(dir, filepath.Base(c.Output.GeoPackagePath))
		c.Output.GeoJSONPath = filepath.Join(dir, filepath.Base(c.Output.GeoJSONPath))
		c.Output.StatsPath = filepath.Join(dir, filepath.Base(c.Output.StatsPath))
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Service.Endpoint != "" {
		base.Service.Endpoint = override.Service.Endpoint
	}
	if override.Service.Layer != "" {
		base.Service.Layer = override.Service.Layer
	}
	if override.Service.CRS != "" {
		base.Service.CRS = override.Service.CRS
	}
	if override.Service.DocIDField != "" {
		base.Service.DocIDField = override.Service.DocIDField
	}
	if override.Service.PartitionField != "" {
		base.Service.PartitionField = override.Service.PartitionField
	}
	if override.Service.TimeoutSeconds > 0 {
		base.Service.TimeoutSeconds = override.Service.TimeoutSeconds
	}

	if override.Harvest.TileSize > 0 {
		base.Harvest.TileSize = override.Harvest.TileSize
	}
	if override.Harvest.MaxFeatures > 0 {
		base.Harvest.MaxFeatures = override.Harvest.MaxFeatures
	}
	if override.Harvest.Workers > 0 {
		base.Harvest.Workers = override.Harvest.Workers
	}
	if override.Harvest.PacingMillis > 0 {
		base.Harvest.PacingMillis = override.Harvest.PacingMillis
	}

	if len(override.Divisions) > 0 {
		base.Divisions = override.Divisions
	}

	if override.Output.GeoPackagePath != "" {
		base.Output.GeoPackagePath = override.Output.GeoPackagePath
	}
	if override.Output.GeoJSONPath != "" {
		base.Output.GeoJSONPath = override.Output.GeoJSONPath
	}
	if override.Output.StatsPath != "" {
		base.Output.StatsPath = override.Output.StatsPath
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Service: ServiceConfig{
			Endpoint:       "https://data.geopf.fr/wfs/ows",
			Layer:          "wfs_du:zone_urba",
			CRS:            "EPSG:4326",
			DocIDField:     "gpu_doc_id",
			PartitionField: "partition",
			TimeoutSeconds: 30,
		},
		Harvest: HarvestConfig{
			TileSize:     0.1,
			MaxFeatures:  500,
			Workers:      3,
			PacingMillis: 500,
		},
		Divisions: []DivisionConfig{
			{Code: "13", BBox: [4]float64{4.7, 43.2, 5.4, 43.5}},
			{Code: "69", BBox: [4]float64{4.7, 45.7, 4.9, 45.8}},
			{Code: "75", BBox: [4]float64{2.3, 48.8, 2.4, 48.9}},
		},
		Output: OutputConfig{
			GeoPackagePath: "documents_urbanisme.gpkg",
			GeoJSONPath:    "documents_urbanisme.geojson",
			StatsPath:      "statistiques_divisions.csv",
		},
	}
}
