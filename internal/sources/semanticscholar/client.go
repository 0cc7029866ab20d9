package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/dataset-discovery-service/internal/domain"
	"github.com/helixir/dataset-discovery-service/internal/sources"
)

const (
	// DefaultBaseURL is the default base URL for the Semantic Scholar API.
	// The graph and recommendations endpoints both live under it.
	DefaultBaseURL = "https://api.semanticscholar.org"

	// DefaultRateLimit is the default rate limit without an API key.
	// Unauthenticated access is heavily throttled (about 1 req/sec).
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 20 * time.Second

	// DefaultMaxResults is the default maximum results per strategy.
	DefaultMaxResults = 100

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	// paperFields is the list of fields requested for every paper payload.
	paperFields = "paperId,externalIds,title,abstract,year,publicationDate,venue,journal,authors,citationCount,fieldsOfStudy"

	// Strategy names reported in the discovery breakdown.
	strategyCitations       = "citations"
	strategyRecommendations = "recommendations"
	strategySearch          = "search"

	sourceName = "Semantic Scholar"
)

// Config contains configuration options for the Semantic Scholar client.
type Config struct {
	// BaseURL is the base URL for the API.
	BaseURL string

	// APIKey is the optional API key for authenticated requests.
	// Authenticated requests have higher rate limits.
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the maximum results per strategy.
	MaxResults int

	// Enabled indicates whether this source participates in discovery.
	Enabled bool
}

// applyDefaults applies default values to the config.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements sources.PublicationSource for Semantic Scholar.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

// Compile-time check that Client implements PublicationSource.
var _ sources.PublicationSource = (*Client)(nil)

// New creates a new Semantic Scholar client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		BurstSize:    cfg.BurstSize,
		APIKey:       cfg.APIKey,
		APIKeyHeader: apiKeyHeader,
		SourceName:   sourceName,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client, for testing
// against mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Find discovers publications related to the dataset. When the primary
// publication is known its incoming citations and paper recommendations are
// collected; independently, a relevance search for the dataset identifier
// runs. The call errors only when every applicable strategy failed.
func (c *Client) Find(ctx context.Context, dataset domain.DatasetContext) (*sources.FindResult, error) {
	result := sources.NewFindResult(domain.SourceTypeSemanticScholar)
	start := time.Now()
	var strategyErrs []error

	if dataset.HasPrimaryPublication() {
		paperID := paperPathID(dataset.PrimaryPublicationID)

		pubs, err := c.findCitations(ctx, paperID)
		if err != nil {
			strategyErrs = append(strategyErrs, fmt.Errorf("%s: %w", strategyCitations, err))
		} else {
			result.Add(strategyCitations, pubs)
		}

		pubs, err = c.findRecommendations(ctx, paperID)
		if err != nil {
			strategyErrs = append(strategyErrs, fmt.Errorf("%s: %w", strategyRecommendations, err))
		} else {
			result.Add(strategyRecommendations, pubs)
		}
	}

	pubs, err := c.search(ctx, dataset.DatasetID)
	if err != nil {
		strategyErrs = append(strategyErrs, fmt.Errorf("%s: %w", strategySearch, err))
	} else {
		result.Add(strategySearch, pubs)
	}

	result.Duration = time.Since(start)

	if len(result.StrategyCounts) == 0 && len(strategyErrs) > 0 {
		return nil, strategyErrs[0]
	}
	return result, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeSemanticScholar
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// findCitations lists papers citing the given paper.
func (c *Client) findCitations(ctx context.Context, paperID string) ([]*domain.Publication, error) {
	endpoint := fmt.Sprintf("%s/graph/v1/paper/%s/citations?fields=%s&limit=%d",
		c.config.BaseURL, url.PathEscape(paperID), url.QueryEscape(paperFields), c.config.MaxResults)

	var citationsResp CitationsResponse
	if err := c.getJSON(ctx, endpoint, &citationsResp); err != nil {
		return nil, err
	}

	pubs := make([]*domain.Publication, 0, len(citationsResp.Data))
	for i := range citationsResp.Data {
		if pub := c.paperToPublication(&citationsResp.Data[i].CitingPaper); pub != nil {
			pubs = append(pubs, pub)
		}
	}
	return pubs, nil
}

// findRecommendations lists papers the recommendation engine relates to the
// given paper.
func (c *Client) findRecommendations(ctx context.Context, paperID string) ([]*domain.Publication, error) {
	endpoint := fmt.Sprintf("%s/recommendations/v1/papers/forpaper/%s?fields=%s&limit=%d",
		c.config.BaseURL, url.PathEscape(paperID), url.QueryEscape(paperFields), c.config.MaxResults)

	var recResp RecommendationsResponse
	if err := c.getJSON(ctx, endpoint, &recResp); err != nil {
		return nil, err
	}
	return c.convertPapers(recResp.RecommendedPapers), nil
}

// search runs a relevance search for the dataset identifier.
func (c *Client) search(ctx context.Context, datasetID string) ([]*domain.Publication, error) {
	query := url.Values{}
	query.Set("query", `"`+datasetID+`"`)
	query.Set("fields", paperFields)
	query.Set("limit", strconv.Itoa(c.config.MaxResults))
	endpoint := c.config.BaseURL + "/graph/v1/paper/search?" + query.Encode()

	var searchResp SearchResponse
	if err := c.getJSON(ctx, endpoint, &searchResp); err != nil {
		return nil, err
	}
	return c.convertPapers(searchResp.Data), nil
}

// getJSON performs a GET request and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.NewNotFoundError("paper", endpoint)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "request failed", nil)
	}

	if err := json.NewDecoder(sources.LimitBody(resp.Body)).Decode(out); err != nil {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "decoding response", err)
	}
	return nil
}

// paperPathID maps canonical identifiers to the paper-ID formats the API
// accepts (DOI:..., PMID:..., or a raw Semantic Scholar SHA).
func paperPathID(id string) string {
	id = strings.TrimSpace(id)
	switch {
	case strings.HasPrefix(id, "doi:"):
		return "DOI:" + strings.TrimPrefix(id, "doi:")
	case strings.HasPrefix(id, "10."):
		return "DOI:" + id
	case strings.HasPrefix(id, "pubmed:"):
		return "PMID:" + strings.TrimPrefix(id, "pubmed:")
	case isDigits(id):
		return "PMID:" + id
	default:
		return id
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// convertPapers maps API papers to domain publications, skipping records
// without any usable identifier.
func (c *Client) convertPapers(papers []Paper) []*domain.Publication {
	pubs := make([]*domain.Publication, 0, len(papers))
	for i := range papers {
		if pub := c.paperToPublication(&papers[i]); pub != nil {
			pubs = append(pubs, pub)
		}
	}
	return pubs
}

// paperToPublication converts one API paper to a domain publication.
func (c *Client) paperToPublication(paper *Paper) *domain.Publication {
	if paper == nil || paper.PaperID == "" && paper.ExternalIDs == nil {
		return nil
	}

	ids := domain.PublicationIdentifiers{
		SemanticScholarID: paper.PaperID,
	}
	if paper.ExternalIDs != nil {
		ids.DOI = strings.ToLower(strings.TrimSpace(paper.ExternalIDs.DOI))
		ids.PubMedID = paper.ExternalIDs.PubMed
		ids.PMCID = paper.ExternalIDs.PubMedCentral
		ids.ArXivID = paper.ExternalIDs.ArXiv
	}
	canonicalID := domain.GenerateCanonicalID(ids)
	if canonicalID == "" {
		return nil
	}

	authors := make([]domain.Author, 0, len(paper.Authors))
	for _, a := range paper.Authors {
		authors = append(authors, domain.Author{Name: a.Name})
	}

	venue := paper.Venue
	if venue == "" && paper.Journal != nil {
		venue = paper.Journal.Name
	}

	var pubDate *time.Time
	if paper.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", paper.PublicationDate); err == nil {
			pubDate = &t
		}
	}

	now := time.Now().UTC()
	return &domain.Publication{
		ID:            uuid.New(),
		CanonicalID:   canonicalID,
		Identifiers:   ids,
		Title:         paper.Title,
		Abstract:      paper.Abstract,
		Authors:       authors,
		Venue:         venue,
		Year:          paper.Year,
		PublishedDate: pubDate,
		CitationCount: paper.CitationCount,
		Keywords:      append([]string(nil), paper.FieldsOfStudy...),
		Sources:       []domain.SourceType{domain.SourceTypeSemanticScholar},
		RawMetadata: map[string]interface{}{
			"paper_id": paper.PaperID,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
