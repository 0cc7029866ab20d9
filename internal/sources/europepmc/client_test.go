package europepmc

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
		SourceName: "Europe PMC",
	})
	return NewWithHTTPClient(cfg, httpClient)
}

func TestFind_CitationsAndAccessionSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/citations"):
			assert.Contains(t, r.URL.Path, "/MED/38000001/")
			_ = json.NewEncoder(w).Encode(CitationsResponse{
				HitCount: 1,
				CitationList: CitationList{Citations: []Citation{
					{
						ID:                  "38000010",
						Source:              "MED",
						Title:               "Citing article",
						AuthorString:        "Smith J, Doe J.",
						JournalAbbreviation: "Bioinformatics",
						PubYear:             2024,
						CitedByCount:        3,
					},
				}},
			})
		case strings.Contains(r.URL.Path, "/search"):
			assert.Equal(t, `"GSE12345"`, r.URL.Query().Get("query"))
			assert.Equal(t, "core", r.URL.Query().Get("resultType"))
			_ = json.NewEncoder(w).Encode(SearchResponse{
				HitCount: 1,
				ResultList: ResultList{Results: []Result{
					{
						ID:     "PPR900001",
						Source: "PPR",
						DOI:    "10.1101/2024.01.01.573000",
						Title:  "Preprint reusing GSE12345",
						AuthorList: &AuthorList{Authors: []Author{
							{
								FullName: "Jane Doe",
								AuthorID: &AuthorID{Type: "ORCID", Value: "0000-0001-2345-6789"},
							},
						}},
						JournalInfo:          &JournalInfo{Journal: Journal{Title: "bioRxiv"}},
						PubYear:              "2024",
						FirstPublicationDate: "2024-01-05",
						AbstractText:         "We reanalyze GSE12345.",
						CitedByCount:         1,
						KeywordList:          &KeywordList{Keywords: []string{"single-cell"}},
					},
				}},
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
		PrimaryPublicationID: "pubmed:38000001",
	})
	require.NoError(t, err)

	require.Len(t, result.Publications, 2)
	assert.Equal(t, 1, result.StrategyCounts["citations"])
	assert.Equal(t, 1, result.StrategyCounts["accession_search"])

	citing := result.Publications[0]
	assert.Equal(t, "pubmed:38000010", citing.CanonicalID)
	assert.NotEqual(t, uuid.Nil, citing.ID)
	assert.Equal(t, "38000010", citing.Identifiers.PubMedID)
	require.Len(t, citing.Authors, 2)
	assert.Equal(t, "Smith J", citing.Authors[0].Name)
	assert.Equal(t, "Doe J", citing.Authors[1].Name)
	assert.Equal(t, 2024, citing.Year)

	preprint := result.Publications[1]
	assert.Equal(t, "doi:10.1101/2024.01.01.573000", preprint.CanonicalID)
	assert.Equal(t, "bioRxiv", preprint.Venue)
	require.Len(t, preprint.Authors, 1)
	assert.Equal(t, "Jane Doe", preprint.Authors[0].Name)
	assert.Equal(t, "0000-0001-2345-6789", preprint.Authors[0].ORCID)
	require.NotNil(t, preprint.PublishedDate)
	assert.Equal(t, 2024, preprint.PublishedDate.Year())
	assert.Equal(t, []string{"single-cell"}, preprint.Keywords)
}

func TestFind_SearchOnlyWithoutPMIDPrimary(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_ = json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Find(context.Background(), domain.DatasetContext{
		DatasetID:            "GSE12345",
		Title:                "Test dataset",
		PrimaryPublicationID: "doi:10.1000/primary",
	})
	require.NoError(t, err)

	require.Len(t, paths, 1)
	assert.Contains(t, paths[0], "/search")
	assert.Empty(t, result.Publications)
}

func TestFind_PartialStrategyFailureStillSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/citations") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(SearchResponse{
			HitCount: 1,
			ResultList: ResultList{Results: []Result{
				{ID: "38000012", Source: "MED", PMID: "38000012", Title: "Found via search"},
			}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Find(context.Background(), domain.DatasetContext{
		DatasetID:            "GSE12345",
		Title:                "Test dataset",
		PrimaryPublicationID: "pubmed:38000001",
	})
	require.NoError(t, err)

	require.Len(t, result.Publications, 1)
	assert.Equal(t, 1, result.StrategyCounts["accession_search"])
	assert.NotContains(t, result.StrategyCounts, "citations")
}

func TestFind_AllStrategiesFailReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Find(context.Background(), domain.DatasetContext{
		DatasetID: "GSE12345",
		Title:     "Test dataset",
	})
	require.Error(t, err)
}

func TestIdentifiersFor(t *testing.T) {
	assert.Equal(t, domain.PublicationIdentifiers{PubMedID: "123"}, identifiersFor("MED", "123"))
	assert.Equal(t, domain.PublicationIdentifiers{PMCID: "PMC123"}, identifiersFor("PMC", "PMC123"))
	assert.Equal(t, domain.PublicationIdentifiers{EuropePMCID: "PPR:PPR123"}, identifiersFor("PPR", "PPR123"))
	assert.True(t, identifiersFor("MED", "").IsEmpty())
}

func TestSplitAuthorString(t *testing.T) {
	authors := splitAuthorString("Smith J, Doe J.")
	require.Len(t, authors, 2)
	assert.Equal(t, "Smith J", authors[0].Name)
	assert.Equal(t, "Doe J", authors[1].Name)
	assert.Nil(t, splitAuthorString(""))
}
