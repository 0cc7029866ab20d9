package europepmc

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
	// DefaultBaseURL is the base URL for the Europe PMC REST API.
	DefaultBaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

	// DefaultRateLimit is the default rate limit for the API.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 20 * time.Second

	// DefaultMaxResults is the default maximum results per strategy.
	DefaultMaxResults = 100

	// Strategy names reported in the discovery breakdown.
	strategyCitations       = "citations"
	strategyAccessionSearch = "accession_search"

	sourceName = "Europe PMC"
)

// Config contains configuration options for the Europe PMC client.
type Config struct {
	// BaseURL is the base URL for the REST API.
	BaseURL string

	// Email identifies the caller to the API. Optional but polite.
	Email string

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

// Client implements sources.PublicationSource for Europe PMC.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

// Compile-time check that Client implements PublicationSource.
var _ sources.PublicationSource = (*Client)(nil)

// New creates a new Europe PMC client with the given configuration.
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

// Find discovers publications related to the dataset. When the primary
// publication has a PMID the citations endpoint lists the citing articles;
// independently, a full-text search for the dataset accession collects
// articles mentioning it. The call errors only when every applicable
// strategy failed.
func (c *Client) Find(ctx context.Context, dataset domain.DatasetContext) (*sources.FindResult, error) {
	result := sources.NewFindResult(domain.SourceTypeEuropePMC)
	start := time.Now()
	var strategyErrs []error

	if pmid := primaryPMID(dataset.PrimaryPublicationID); pmid != "" {
		pubs, err := c.findCitations(ctx, pmid)
		if err != nil {
			strategyErrs = append(strategyErrs, fmt.Errorf("%s: %w", strategyCitations, err))
		} else {
			result.Add(strategyCitations, pubs)
		}
	}

	pubs, err := c.searchAccession(ctx, dataset.DatasetID)
	if err != nil {
		strategyErrs = append(strategyErrs, fmt.Errorf("%s: %w", strategyAccessionSearch, err))
	} else {
		result.Add(strategyAccessionSearch, pubs)
	}

	result.Duration = time.Since(start)

	if len(result.StrategyCounts) == 0 && len(strategyErrs) > 0 {
		return nil, strategyErrs[0]
	}
	return result, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeEuropePMC
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// primaryPMID extracts a PMID from the primary publication identifier.
// The citations endpoint is addressed by source and external ID, and MED
// records are keyed by PMID.
func primaryPMID(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "pubmed:") {
		return strings.TrimPrefix(id, "pubmed:")
	}
	if id != "" && isDigits(id) {
		return id
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// findCitations lists the articles citing the given PMID.
func (c *Client) findCitations(ctx context.Context, pmid string) ([]*domain.Publication, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("pageSize", strconv.Itoa(c.config.MaxResults))
	endpoint := fmt.Sprintf("%s/MED/%s/citations?%s", c.config.BaseURL, url.PathEscape(pmid), q.Encode())

	var citationsResp CitationsResponse
	if err := c.getJSON(ctx, endpoint, &citationsResp); err != nil {
		return nil, fmt.Errorf("citations lookup failed: %w", err)
	}

	pubs := make([]*domain.Publication, 0, len(citationsResp.CitationList.Citations))
	for i := range citationsResp.CitationList.Citations {
		if pub := citationToPublication(&citationsResp.CitationList.Citations[i]); pub != nil {
			pubs = append(pubs, pub)
		}
	}
	return pubs, nil
}

// searchAccession searches the full-text corpus for the dataset accession.
func (c *Client) searchAccession(ctx context.Context, datasetID string) ([]*domain.Publication, error) {
	q := url.Values{}
	q.Set("query", `"`+datasetID+`"`)
	q.Set("format", "json")
	q.Set("resultType", "core")
	q.Set("pageSize", strconv.Itoa(c.config.MaxResults))
	endpoint := c.config.BaseURL + "/search?" + q.Encode()

	var searchResp SearchResponse
	if err := c.getJSON(ctx, endpoint, &searchResp); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	pubs := make([]*domain.Publication, 0, len(searchResp.ResultList.Results))
	for i := range searchResp.ResultList.Results {
		if pub := resultToPublication(&searchResp.ResultList.Results[i]); pub != nil {
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

// resultToPublication converts one core search result to a domain
// publication.
func resultToPublication(result *Result) *domain.Publication {
	ids := identifiersFor(result.Source, result.ID)
	ids.DOI = strings.ToLower(strings.TrimSpace(result.DOI))
	if result.PMID != "" {
		ids.PubMedID = result.PMID
	}
	if result.PMCID != "" {
		ids.PMCID = result.PMCID
	}

	canonicalID := domain.GenerateCanonicalID(ids)
	if canonicalID == "" {
		return nil
	}

	var authors []domain.Author
	if result.AuthorList != nil {
		authors = make([]domain.Author, 0, len(result.AuthorList.Authors))
		for _, a := range result.AuthorList.Authors {
			author := domain.Author{Name: structuredAuthorName(a)}
			if author.Name == "" {
				continue
			}
			if a.AuthorID != nil && a.AuthorID.Type == "ORCID" {
				author.ORCID = a.AuthorID.Value
			}
			if a.Affiliation != "" {
				author.Affiliation = a.Affiliation
			} else if len(a.AffDetails) > 0 {
				author.Affiliation = a.AffDetails[0].Affiliation
			}
			authors = append(authors, author)
		}
	} else {
		authors = splitAuthorString(result.AuthorString)
	}

	var venue string
	if result.JournalInfo != nil {
		venue = result.JournalInfo.Journal.Title
	}

	year := 0
	if result.PubYear != "" {
		if y, err := strconv.Atoi(result.PubYear); err == nil {
			year = y
		}
	}

	var pubDate *time.Time
	if result.FirstPublicationDate != "" {
		if t, err := time.Parse("2006-01-02", result.FirstPublicationDate); err == nil {
			pubDate = &t
		}
	}

	var keywords []string
	if result.KeywordList != nil {
		keywords = append(keywords, result.KeywordList.Keywords...)
	}

	now := time.Now().UTC()
	return &domain.Publication{
		ID:            uuid.New(),
		CanonicalID:   canonicalID,
		Identifiers:   ids,
		Title:         strings.TrimSpace(result.Title),
		Abstract:      result.AbstractText,
		Authors:       authors,
		Venue:         venue,
		Year:          year,
		PublishedDate: pubDate,
		CitationCount: result.CitedByCount,
		Keywords:      keywords,
		Sources:       []domain.SourceType{domain.SourceTypeEuropePMC},
		RawMetadata: map[string]interface{}{
			"europepmc_source": result.Source,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// citationToPublication converts one citation record to a domain
// publication. Citation records carry less metadata than search results;
// deduplication merges in richer copies from other strategies and sources.
func citationToPublication(citation *Citation) *domain.Publication {
	ids := identifiersFor(citation.Source, citation.ID)

	canonicalID := domain.GenerateCanonicalID(ids)
	if canonicalID == "" {
		return nil
	}

	now := time.Now().UTC()
	return &domain.Publication{
		ID:            uuid.New(),
		CanonicalID:   canonicalID,
		Identifiers:   ids,
		Title:         strings.TrimSpace(citation.Title),
		Authors:       splitAuthorString(citation.AuthorString),
		Venue:         citation.JournalAbbreviation,
		Year:          citation.PubYear,
		CitationCount: citation.CitedByCount,
		Sources:       []domain.SourceType{domain.SourceTypeEuropePMC},
		RawMetadata: map[string]interface{}{
			"europepmc_source": citation.Source,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// identifiersFor maps a Europe PMC record key (source + external ID) to
// publication identifiers. MED IDs are PMIDs and PMC IDs are PMCIDs; other
// sources (preprints, Agricola) keep a Europe PMC-scoped identifier.
func identifiersFor(source, id string) domain.PublicationIdentifiers {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.PublicationIdentifiers{}
	}
	switch source {
	case "MED":
		return domain.PublicationIdentifiers{PubMedID: id}
	case "PMC":
		return domain.PublicationIdentifiers{PMCID: id}
	default:
		return domain.PublicationIdentifiers{EuropePMCID: source + ":" + id}
	}
}

// structuredAuthorName assembles a display name from a structured author
// record.
func structuredAuthorName(a Author) string {
	if a.FullName != "" {
		return strings.TrimSpace(a.FullName)
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// splitAuthorString splits a packed author string ("Smith J, Doe J.") into
// display-name authors.
func splitAuthorString(packed string) []domain.Author {
	packed = strings.TrimSuffix(strings.TrimSpace(packed), ".")
	if packed == "" {
		return nil
	}

	parts := strings.Split(packed, ",")
	authors := make([]domain.Author, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		authors = append(authors, domain.Author{Name: name})
	}
	return authors
}
