package opencitations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/dataset-discovery-service/internal/domain"
	"github.com/helixir/dataset-discovery-service/internal/sources"
)

func newTestClient(serverURL string) *Client {
	cfg := Config{
		BaseURL:    serverURL,
		Timeout:    5 * time.Second,
		RateLimit:  1000,
		BurstSize:  1000,
		MaxResults: 50,
		Enabled:    true,
	}
	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		SourceName: "OpenCitations",
	})
	return NewWithHTTPClient(cfg, httpClient)
}

func TestFind_CitationsResolved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/citations/"):
			assert.Contains(t, r.URL.Path, "10.1000/primary")
			_ = json.NewEncoder(w).Encode([]CitationRecord{
				{OCI: "1-2", Citing: "10.1000/CITING-A", Cited: "10.1000/primary"},
				{OCI: "1-3", Citing: "10.1000/citing-b", Cited: "10.1000/primary"},
				{OCI: "1-4", Citing: "10.1000/citing-a", Cited: "10.1000/primary"},
			})
		case strings.Contains(r.URL.Path, "/metadata/"):
			assert.Contains(t, r.URL.Path, "10.1000/citing-a__10.1000/citing-b")
			_ = json.NewEncoder(w).Encode([]MetadataRecord{
				{
					Author:        "Smith, John; Doe, Jane",
					Year:          "2023",
					Title:         "Follow-up analysis",
					SourceTitle:   "Bioinformatics",
					DOI:           "10.1000/citing-a",
					CitationCount: "12",
				},
				{
					Author: "Cancer Genomics Consortium",
					Year:   "2024",
					Title:  "Reanalysis study",
					DOI:    "10.1000/citing-b",
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Find(context.Background(), domain.DatasetContext{
		DatasetID:            "GSE12345",
		Title:                "Test dataset",
		PrimaryPublicationID: "doi:10.1000/primary",
	})
	require.NoError(t, err)

	require.Len(t, result.Publications, 2)
	assert.Equal(t, 2, result.StrategyCounts["citations"])

	pub := result.Publications[0]
	assert.Equal(t, "doi:10.1000/citing-a", pub.CanonicalID)
	assert.NotEqual(t, uuid.Nil, pub.ID)
	assert.Equal(t, "Follow-up analysis", pub.Title)
	assert.Equal(t, "Bioinformatics", pub.Venue)
	assert.Equal(t, 2023, pub.Year)
	assert.Equal(t, 12, pub.CitationCount)
	require.Len(t, pub.Authors, 2)
	assert.Equal(t, "John Smith", pub.Authors[0].Name)
	assert.Equal(t, "Jane Doe", pub.Authors[1].Name)

	require.Len(t, result.Publications[1].Authors, 1)
	assert.Equal(t, "Cancer Genomics Consortium", result.Publications[1].Authors[0].Name)
}

func TestFind_NoDOIPrimaryReturnsEmpty(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	for _, primary := range []string{"", "pubmed:38000001"} {
		result, err := client.Find(context.Background(), domain.DatasetContext{
			DatasetID:            "GSE12345",
			Title:                "Test dataset",
			PrimaryPublicationID: primary,
		})
		require.NoError(t, err)
		assert.Empty(t, result.Publications)
		assert.Empty(t, result.StrategyCounts)
	}
	assert.Zero(t, requests)
}

func TestFind_NoCitationsIsEmptySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/citations/")
		_ = json.NewEncoder(w).Encode([]CitationRecord{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Find(context.Background(), domain.DatasetContext{
		DatasetID:            "GSE12345",
		Title:                "Test dataset",
		PrimaryPublicationID: "doi:10.1000/primary",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Publications)
	assert.Equal(t, 0, result.StrategyCounts["citations"])
}

func TestFind_ServerErrorReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Find(context.Background(), domain.DatasetContext{
		DatasetID:            "GSE12345",
		Title:                "Test dataset",
		PrimaryPublicationID: "doi:10.1000/primary",
	})
	require.Error(t, err)
}

func TestMetadataToPublication_SkipsRecordsWithoutDOI(t *testing.T) {
	assert.Nil(t, metadataToPublication(&MetadataRecord{Title: "No DOI"}))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "John Smith", displayName("Smith, John"))
	assert.Equal(t, "Smith", displayName("Smith,"))
	assert.Equal(t, "Cancer Genomics Consortium", displayName("Cancer Genomics Consortium"))
}
