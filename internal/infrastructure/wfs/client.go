// Package wfs implements the per-tile feature fetcher against a WFS
// 2.0.0 endpoint serving GeoJSON.
package wfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/twpayne/go-geom/encoding/geojson"

	"ZoningHarvester/internal/config"
	"ZoningHarvester/internal/domain"
	"ZoningHarvester/internal/ports"
)

const (
	serviceName    = "WFS"
	serviceVersion = "2.0.0"
	requestName    = "GetFeature"
	outputFormat   = "application/json"

	// maxBodyBytes bounds how much of a response is read; a capped tile
	// query stays far below this.
	maxBodyBytes = 64 << 20
)

// Client issues one bounded GetFeature query per tile. Failures are
// terminal for the tile; the caller decides whether to continue.
type Client struct {
	endpoint    string
	layer       string
	crs         string
	maxFeatures int
	client      *http.Client
	logger      *slog.Logger
}

var _ ports.FeatureSource = (*Client)(nil)

// New wires an HTTP client; a nil client gets the configured timeout.
func New(cfg config.ServiceConfig, maxFeatures int, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout()}
	}
	return &Client{
		endpoint:    cfg.Endpoint,
		layer:       cfg.Layer,
		crs:         cfg.CRS,
		maxFeatures: maxFeatures,
		client:      client,
		logger:      logger,
	}
}

// FetchTile performs one spatially filtered, count-capped feature query
// and parses the payload into a batch. Results past the cap are
// truncated by the service; that truncation is silent and accepted.
func (c *Client) FetchTile(ctx context.Context, tile domain.BBox) (*domain.FeatureBatch, error) {
	queryURL, err := c.buildQueryURL(tile)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ZoningHarvester/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request features: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service returned %s: %s", resp.Status, exceptionText(body))
	}

	var collection geojson.FeatureCollection
	if err := json.Unmarshal(body, &collection); err != nil {
		return nil, fmt.Errorf("parse features: %w", err)
	}

	batch := &domain.FeatureBatch{Features: make([]domain.RawFeature, 0, len(collection.Features))}
	for _, feature := range collection.Features {
		if feature == nil || feature.Geometry == nil {
			continue
		}
		batch.Features = append(batch.Features, domain.RawFeature{
			Geometry:   feature.Geometry,
			Properties: feature.Properties,
		})
	}

	if c.logger != nil {
		c.logger.Debug("tile fetched", "features", len(batch.Features),
			"minX", tile.MinX, "minY", tile.MinY, "maxX", tile.MaxX, "maxY", tile.MaxY)
	}
	return batch, nil
}

func (c *Client) buildQueryURL(tile domain.BBox) (string, error) {
	parsed, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %s: %w", c.endpoint, err)
	}

	query := parsed.Query()
	query.Set("service", serviceName)
	query.Set("version", serviceVersion)
	query.Set("request", requestName)
	query.Set("typeName", c.layer)
	query.Set("srsName", c.crs)
	query.Set("outputFormat", outputFormat)
	query.Set("bbox", fmt.Sprintf("%g,%g,%g,%g,%s", tile.MinX, tile.MinY, tile.MaxX, tile.MaxY, c.crs))
	query.Set("count", strconv.Itoa(c.maxFeatures))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// exceptionText pulls the ExceptionText out of a WFS exception report
// so failed tiles log the service message instead of raw XML.
func exceptionText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err == nil {
		sel := doc.Find("exceptiontext")
		if sel.Length() == 0 {
			sel = doc.Find(`ows\:exceptiontext`)
		}
		if text := strings.TrimSpace(sel.First().Text()); text != "" {
			return text
		}
	}

	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return trimmed
}
