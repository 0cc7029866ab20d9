package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/dataset-discovery-service/internal/domain"
	"github.com/helixir/dataset-discovery-service/internal/sources"
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit is the polite-pool request rate (requests per second).
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 20 * time.Second

	// DefaultMaxResults is the default maximum results per strategy.
	DefaultMaxResults = 100

	// doiPrefix is the URL prefix that OpenAlex uses for DOIs.
	doiPrefix = "https://doi.org/"

	// openAlexIDPrefix is the URL prefix for OpenAlex IDs.
	openAlexIDPrefix = "https://openalex.org/"

	// Strategy names reported in the discovery breakdown.
	strategyCitedBy = "cited_by"
	strategySearch  = "fulltext_search"

	sourceName = "OpenAlex"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the OpenAlex API base URL.
	// Defaults to https://api.openalex.org
	BaseURL string

	// Email is the contact email for the polite pool. Providing an email
	// grants access to higher rate limits.
	Email string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the maximum results per strategy (OpenAlex caps pages at 200).
	MaxResults int

	// Enabled indicates whether this source participates in discovery.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
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
	if c.MaxResults > 200 {
		c.MaxResults = 200
	}
}

// Client implements sources.PublicationSource for OpenAlex.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

// Compile-time check that Client implements PublicationSource.
var _ sources.PublicationSource = (*Client)(nil)

// New creates a new OpenAlex client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		UserAgent:  "Helixir-DatasetDiscovery/1.0 (mailto:" + cfg.Email + ")",
		SourceName: sourceName,
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

// Find discovers publications related to the dataset. When the dataset's
// primary publication is known it is resolved to an OpenAlex work and its
// incoming citations are collected; independently, works whose full text
// mentions the dataset identifier are searched. Strategy failures degrade:
// the call errors only when every applicable strategy failed.
func (c *Client) Find(ctx context.Context, dataset domain.DatasetContext) (*sources.FindResult, error) {
	result := sources.NewFindResult(domain.SourceTypeOpenAlex)
	start := time.Now()
	var strategyErrs []error

	if dataset.HasPrimaryPublication() {
		pubs, err := c.findCiting(ctx, dataset.PrimaryPublicationID)
		if err != nil {
			strategyErrs = append(strategyErrs, fmt.Errorf("%s: %w", strategyCitedBy, err))
		} else {
			result.Add(strategyCitedBy, pubs)
		}
	}

	pubs, err := c.searchFullText(ctx, dataset.DatasetID)
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
	return domain.SourceTypeOpenAlex
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// findCiting resolves the primary publication and lists works citing it.
func (c *Client) findCiting(ctx context.Context, primaryID string) ([]*domain.Publication, error) {
	work, err := c.getWork(ctx, primaryID)
	if err != nil {
		return nil, fmt.Errorf("resolving primary publication: %w", err)
	}

	openAlexID := normalizeOpenAlexID(work.ID)
	if openAlexID == "" {
		return nil, domain.NewNotFoundError("work", primaryID)
	}

	query := url.Values{}
	query.Set("filter", "cites:"+openAlexID)
	query.Set("per_page", strconv.Itoa(c.config.MaxResults))

	resp, err := c.listWorks(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.convertWorks(resp.Results), nil
}

// searchFullText lists works whose indexed full text mentions the dataset ID.
func (c *Client) searchFullText(ctx context.Context, datasetID string) ([]*domain.Publication, error) {
	query := url.Values{}
	query.Set("filter", `fulltext.search:"`+datasetID+`"`)
	query.Set("per_page", strconv.Itoa(c.config.MaxResults))

	resp, err := c.listWorks(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.convertWorks(resp.Results), nil
}

// listWorks performs a GET against /works with the given query.
func (c *Client) listWorks(ctx context.Context, query url.Values) (*WorksResponse, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	// Append rather than assign so a base URL with a path prefix (a gateway
	// or proxy) keeps it. DOI path segments carry "//" that url cleaning
	// would mangle, so JoinPath is out.
	baseURL.Path = strings.TrimSuffix(baseURL.Path, "/") + "/works"
	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}
	baseURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, "works listing failed", nil)
	}

	var worksResp WorksResponse
	if err := json.NewDecoder(sources.LimitBody(resp.Body)).Decode(&worksResp); err != nil {
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, "decoding works response", err)
	}
	return &worksResp, nil
}

// getWork fetches a single work by an external identifier (DOI, PMID, or
// OpenAlex ID).
func (c *Client) getWork(ctx context.Context, id string) (*Work, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimSuffix(baseURL.Path, "/") + "/works/" + workPathID(id)

	if c.config.Email != "" {
		query := url.Values{}
		query.Set("mailto", c.config.Email)
		baseURL.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewNotFoundError("work", id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, "work lookup failed", nil)
	}

	var work Work
	if err := json.NewDecoder(sources.LimitBody(resp.Body)).Decode(&work); err != nil {
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, "decoding work response", err)
	}
	return &work, nil
}

// workPathID maps the identifier formats discovery deals in to the path
// segment OpenAlex expects. OpenAlex accepts OpenAlex IDs, DOI URLs, and
// pmid: prefixed PubMed IDs.
func workPathID(id string) string {
	id = strings.TrimSpace(id)
	switch {
	case strings.HasPrefix(id, openAlexIDPrefix):
		return strings.TrimPrefix(id, openAlexIDPrefix)
	case strings.HasPrefix(id, "W"):
		return id
	case strings.HasPrefix(id, doiPrefix):
		return id
	case strings.HasPrefix(id, "doi:"):
		return doiPrefix + strings.TrimPrefix(id, "doi:")
	case strings.HasPrefix(id, "10."):
		return doiPrefix + id
	case strings.HasPrefix(id, "pubmed:"):
		return "pmid:" + strings.TrimPrefix(id, "pubmed:")
	case isDigits(id):
		return "pmid:" + id
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

// convertWorks maps OpenAlex works to domain publications, skipping records
// without any usable identifier.
func (c *Client) convertWorks(works []Work) []*domain.Publication {
	pubs := make([]*domain.Publication, 0, len(works))
	for i := range works {
		if pub := c.workToPublication(&works[i]); pub != nil {
			pubs = append(pubs, pub)
		}
	}
	return pubs
}

// workToPublication converts one OpenAlex work to a domain publication.
// Returns nil for works with no identifier at all.
func (c *Client) workToPublication(work *Work) *domain.Publication {
	if work == nil {
		return nil
	}

	doi := normalizeDOI(work.DOI)
	if doi == "" {
		doi = normalizeDOI(work.IDs.DOI)
	}
	openAlexID := normalizeOpenAlexID(work.ID)
	if openAlexID == "" {
		openAlexID = normalizeOpenAlexID(work.IDs.OpenAlex)
	}

	ids := domain.PublicationIdentifiers{
		DOI:        doi,
		PubMedID:   normalizePMID(work.IDs.PMID),
		PMCID:      work.IDs.PMCID,
		OpenAlexID: openAlexID,
	}
	canonicalID := domain.GenerateCanonicalID(ids)
	if canonicalID == "" {
		return nil
	}

	title := work.DisplayName
	if title == "" {
		title = work.Title
	}

	authors := make([]domain.Author, 0, len(work.Authorships))
	for _, authorship := range work.Authorships {
		author := domain.Author{
			Name:  authorship.Author.DisplayName,
			ORCID: normalizeORCID(authorship.Author.Orcid),
		}
		if len(authorship.Institutions) > 0 {
			author.Affiliation = authorship.Institutions[0].DisplayName
		}
		authors = append(authors, author)
	}

	var venue string
	if work.PrimaryLocation != nil && work.PrimaryLocation.Source != nil {
		venue = work.PrimaryLocation.Source.DisplayName
	}

	var pubDate *time.Time
	if work.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", work.PublicationDate); err == nil {
			pubDate = &t
		}
	}

	keywords := make([]string, 0, len(work.Keywords))
	for _, kw := range work.Keywords {
		if kw.DisplayName != "" {
			keywords = append(keywords, kw.DisplayName)
		}
	}

	now := time.Now().UTC()
	return &domain.Publication{
		ID:            uuid.New(),
		CanonicalID:   canonicalID,
		Identifiers:   ids,
		Title:         title,
		Abstract:      reconstructAbstract(work.AbstractInvertedIndex),
		Authors:       authors,
		Venue:         venue,
		Year:          work.PublicationYear,
		PublishedDate: pubDate,
		CitationCount: work.CitedByCount,
		Keywords:      keywords,
		Sources:       []domain.SourceType{domain.SourceTypeOpenAlex},
		RawMetadata: map[string]interface{}{
			"openalex_id": openAlexID,
			"type":        work.Type,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// normalizeDOI strips URL and scheme prefixes from DOIs and lowercases them.
func normalizeDOI(doi string) string {
	if doi == "" {
		return ""
	}
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, doiPrefix)
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(strings.TrimSpace(doi))
}

// normalizeOpenAlexID extracts the short ID from full OpenAlex URLs.
func normalizeOpenAlexID(id string) string {
	if id == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(id, openAlexIDPrefix))
}

// normalizePMID strips any URL prefixes from PubMed IDs.
func normalizePMID(pmid string) string {
	if pmid == "" {
		return ""
	}
	pmid = strings.TrimPrefix(pmid, "https://pubmed.ncbi.nlm.nih.gov/")
	return strings.TrimSuffix(strings.TrimSpace(pmid), "/")
}

// normalizeORCID strips any URL prefixes from ORCID identifiers.
func normalizeORCID(orcid string) string {
	if orcid == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(orcid, "https://orcid.org/"))
}

// reconstructAbstract rebuilds the abstract text from OpenAlex's inverted
// index format, which maps each word to its positions in the text.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	const maxAbstractWords = 100_000
	totalPairs := 0
	for _, positions := range invertedIndex {
		totalPairs += len(positions)
	}
	// Guard against payloads with excessive position entries.
	if totalPairs > maxAbstractWords {
		return ""
	}

	pairs := make([]posWord, 0, totalPairs)
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	var builder strings.Builder
	builder.Grow(totalPairs * 7)
	for i, pair := range pairs {
		if i > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(pair.word)
	}
	return builder.String()
}
