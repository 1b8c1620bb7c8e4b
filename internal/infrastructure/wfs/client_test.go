package wfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"ZoningHarvester/internal/config"
	"ZoningHarvester/internal/domain"
)

const featurePayload = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"id": "zone.1",
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[4.7,43.2],[4.75,43.2],[4.75,43.25],[4.7,43.25],[4.7,43.2]]]
			},
			"properties": {"gpu_doc_id": "DOC-1", "partition": "DU_13055"}
		},
		{
			"type": "Feature",
			"id": "zone.2",
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[4.75,43.2],[4.8,43.2],[4.8,43.25],[4.75,43.25],[4.75,43.2]]]
			},
			"properties": {"gpu_doc_id": "DOC-2", "partition": "DU_13056"}
		}
	]
}`

func serviceConfig(endpoint string) config.ServiceConfig {
	return config.ServiceConfig{
		Endpoint:       endpoint,
		Layer:          "wfs_du:zone_urba",
		CRS:            "EPSG:4326",
		DocIDField:     "gpu_doc_id",
		PartitionField: "partition",
		TimeoutSeconds: 5,
	}
}

func TestFetchTileRequestParameters(t *testing.T) {
	t.Parallel()

	var query url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer server.Close()

	client := New(serviceConfig(server.URL), 500, server.Client(), nil)
	tile := domain.BBox{MinX: 4.7, MinY: 43.2, MaxX: 4.8, MaxY: 43.3}
	if _, err := client.FetchTile(context.Background(), tile); err != nil {
		t.Fatalf("FetchTile error: %v", err)
	}

	want := map[string]string{
		"service":      "WFS",
		"version":      "2.0.0",
		"request":      "GetFeature",
		"typeName":     "wfs_du:zone_urba",
		"srsName":      "EPSG:4326",
		"outputFormat": "application/json",
		"bbox":         "4.7,43.2,4.8,43.3,EPSG:4326",
		"count":        "500",
	}
	for key, value := range want {
		if got := query.Get(key); got != value {
			t.Fatalf("query %s = %q, want %q", key, got, value)
		}
	}
}

func TestFetchTileParsesFeatures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(featurePayload))
	}))
	defer server.Close()

	client := New(serviceConfig(server.URL), 500, server.Client(), nil)
	batch, err := client.FetchTile(context.Background(), domain.BBox{MinX: 4.7, MinY: 43.2, MaxX: 4.8, MaxY: 43.3})
	if err != nil {
		t.Fatalf("FetchTile error: %v", err)
	}

	if len(batch.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(batch.Features))
	}
	feature := batch.Features[0]
	if feature.Geometry == nil {
		t.Fatal("expected parsed geometry")
	}
	if feature.Properties["gpu_doc_id"] != "DOC-1" || feature.Properties["partition"] != "DU_13055" {
		t.Fatalf("unexpected properties: %v", feature.Properties)
	}
}

func TestFetchTileServiceException(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<ExceptionReport><Exception exceptionCode="InvalidParameterValue"><ExceptionText>bbox is out of range</ExceptionText></Exception></ExceptionReport>`))
	}))
	defer server.Close()

	client := New(serviceConfig(server.URL), 500, server.Client(), nil)
	_, err := client.FetchTile(context.Background(), domain.BBox{MinX: 4.7, MinY: 43.2, MaxX: 4.8, MaxY: 43.3})
	if err == nil {
		t.Fatal("expected error for non-success status")
	}
	if !strings.Contains(err.Error(), "bbox is out of range") {
		t.Fatalf("error should carry the service exception text, got: %v", err)
	}
}

func TestFetchTileUnparsablePayload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not geojson"))
	}))
	defer server.Close()

	client := New(serviceConfig(server.URL), 500, server.Client(), nil)
	if _, err := client.FetchTile(context.Background(), domain.BBox{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}); err == nil {
		t.Fatal("expected error for unparsable payload")
	}
}

func TestFetchTileTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := New(serviceConfig(server.URL), 500, nil, nil)
	if _, err := client.FetchTile(context.Background(), domain.BBox{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}); err == nil {
		t.Fatal("expected error for transport failure")
	}
}

func TestExceptionTextFallsBackToBody(t *testing.T) {
	t.Parallel()

	if got := exceptionText([]byte("  plain failure message  ")); got != "plain failure message" {
		t.Fatalf("unexpected fallback text: %q", got)
	}
}
