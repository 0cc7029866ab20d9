package opencitations

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
	// DefaultBaseURL is the base URL for the COCI REST API.
	DefaultBaseURL = "https://opencitations.net/index/coci/api/v1"

	// DefaultRateLimit is the default rate limit for the API.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 20 * time.Second

	// DefaultMaxResults is the default maximum results per strategy.
	DefaultMaxResults = 100

	// metadataBatchSize bounds the DOIs packed into one metadata request,
	// keeping the URL within what the API accepts.
	metadataBatchSize = 25

	// accessTokenHeader is the header name for the OpenCitations access token.
	accessTokenHeader = "authorization"

	// strategyCitations is the strategy name reported in the discovery breakdown.
	strategyCitations = "citations"

	sourceName = "OpenCitations"
)

// Config contains configuration options for the OpenCitations client.
type Config struct {
	// BaseURL is the base URL for the COCI API.
	BaseURL string

	// AccessToken is the optional OpenCitations access token. Requests work
	// without one; tokens help the project track usage.
	AccessToken string

	// Timeout is the request timeout.
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

// Client implements sources.PublicationSource for OpenCitations COCI.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

// Compile-time check that Client implements PublicationSource.
var _ sources.PublicationSource = (*Client)(nil)

// New creates a new OpenCitations client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		BurstSize:    cfg.BurstSize,
		APIKey:       cfg.AccessToken,
		APIKeyHeader: accessTokenHeader,
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

// Find lists the citations pointing at the dataset's primary publication and
// resolves the citing DOIs to publication metadata. When the primary
// publication has no DOI the source has nothing to traverse and returns an
// empty result.
func (c *Client) Find(ctx context.Context, dataset domain.DatasetContext) (*sources.FindResult, error) {
	result := sources.NewFindResult(domain.SourceTypeOpenCitations)
	start := time.Now()

	doi := primaryDOI(dataset.PrimaryPublicationID)
	if doi == "" {
		result.Duration = time.Since(start)
		return result, nil
	}

	pubs, err := c.findCitations(ctx, doi)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", strategyCitations, err)
	}
	result.Add(strategyCitations, pubs)

	result.Duration = time.Since(start)
	return result, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeOpenCitations
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// primaryDOI extracts a DOI from the primary publication identifier, or
// returns empty when the identifier is not a DOI.
func primaryDOI(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "doi:") {
		return strings.ToLower(strings.TrimPrefix(id, "doi:"))
	}
	if strings.HasPrefix(id, "10.") {
		return strings.ToLower(id)
	}
	return ""
}

// findCitations lists the citing DOIs for the given DOI and resolves them in
// metadata batches.
func (c *Client) findCitations(ctx context.Context, doi string) ([]*domain.Publication, error) {
	endpoint := c.config.BaseURL + "/citations/" + url.PathEscape(doi)

	var citations []CitationRecord
	if err := c.getJSON(ctx, endpoint, &citations); err != nil {
		return nil, fmt.Errorf("citations lookup failed: %w", err)
	}

	dois := citingDOIs(citations)
	if len(dois) > c.config.MaxResults {
		dois = dois[:c.config.MaxResults]
	}

	pubs := make([]*domain.Publication, 0, len(dois))
	for start := 0; start < len(dois); start += metadataBatchSize {
		end := start + metadataBatchSize
		if end > len(dois) {
			end = len(dois)
		}
		batch, err := c.fetchMetadata(ctx, dois[start:end])
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, batch...)
	}
	return pubs, nil
}

// fetchMetadata resolves a batch of DOIs through the metadata endpoint.
// The endpoint takes DOIs joined by a double underscore.
func (c *Client) fetchMetadata(ctx context.Context, dois []string) ([]*domain.Publication, error) {
	endpoint := c.config.BaseURL + "/metadata/" + url.PathEscape(strings.Join(dois, "__"))

	var records []MetadataRecord
	if err := c.getJSON(ctx, endpoint, &records); err != nil {
		return nil, fmt.Errorf("metadata lookup failed: %w", err)
	}

	pubs := make([]*domain.Publication, 0, len(records))
	for i := range records {
		if pub := metadataToPublication(&records[i]); pub != nil {
			pubs = append(pubs, pub)
		}
	}
	return pubs, nil
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

	if resp.StatusCode != http.StatusOK {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "request failed", nil)
	}

	if err := json.NewDecoder(sources.LimitBody(resp.Body)).Decode(out); err != nil {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "decoding response", err)
	}
	return nil
}

// citingDOIs extracts the citing DOIs from citation edges, deduplicated in
// first-seen order.
func citingDOIs(citations []CitationRecord) []string {
	seen := make(map[string]struct{}, len(citations))
	dois := make([]string, 0, len(citations))
	for _, c := range citations {
		doi := strings.ToLower(strings.TrimSpace(c.Citing))
		if doi == "" {
			continue
		}
		if _, ok := seen[doi]; ok {
			continue
		}
		seen[doi] = struct{}{}
		dois = append(dois, doi)
	}
	return dois
}

// metadataToPublication converts one metadata record to a domain publication.
func metadataToPublication(record *MetadataRecord) *domain.Publication {
	doi := strings.ToLower(strings.TrimSpace(record.DOI))
	if doi == "" {
		return nil
	}

	ids := domain.PublicationIdentifiers{DOI: doi}

	year := 0
	if record.Year != "" {
		if y, err := strconv.Atoi(record.Year); err == nil {
			year = y
		}
	}

	citationCount := 0
	if record.CitationCount != "" {
		if n, err := strconv.Atoi(record.CitationCount); err == nil {
			citationCount = n
		}
	}

	now := time.Now().UTC()
	return &domain.Publication{
		ID:            uuid.New(),
		CanonicalID:   domain.GenerateCanonicalID(ids),
		Identifiers:   ids,
		Title:         strings.TrimSpace(record.Title),
		Authors:       parseAuthors(record.Author),
		Venue:         strings.TrimSpace(record.SourceTitle),
		Year:          year,
		CitationCount: citationCount,
		Sources:       []domain.SourceType{domain.SourceTypeOpenCitations},
		RawMetadata: map[string]interface{}{
			"oa_link": record.OALink,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// parseAuthors splits a packed COCI author string ("Last, First; Last,
// First") into display-name authors.
func parseAuthors(packed string) []domain.Author {
	if strings.TrimSpace(packed) == "" {
		return nil
	}

	parts := strings.Split(packed, ";")
	authors := make([]domain.Author, 0, len(parts))
	for _, part := range parts {
		name := displayName(part)
		if name == "" {
			continue
		}
		authors = append(authors, domain.Author{Name: name})
	}
	return authors
}

// displayName turns "Last, First" into "First Last"; names without a comma
// pass through as-is.
func displayName(name string) string {
	name = strings.TrimSpace(name)
	last, first, found := strings.Cut(name, ",")
	if !found {
		return name
	}
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" {
		return last
	}
	return first + " " + last
}
