package pubmed

import (
	"context"
	"encoding/xml"
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
	// DefaultBaseURL is the base URL for NCBI E-utilities.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the rate limit without an API key
	// (NCBI allows 3 requests/second; 10 with an API key).
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 20 * time.Second

	// DefaultMaxResults is the default maximum results per strategy.
	DefaultMaxResults = 100

	// citedInLinkName is the eLink link name for incoming citations.
	citedInLinkName = "pubmed_pubmed_citedin"

	// Strategy names reported in the discovery breakdown.
	strategyCitedIn    = "cited_in"
	strategyTermSearch = "term_search"

	sourceName = "PubMed"
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	BaseURL string

	// APIKey is the NCBI API key for higher rate limits.
	// Optional but recommended for production use.
	APIKey string

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

// Client implements sources.PublicationSource for PubMed.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

// Compile-time check that Client implements PublicationSource.
var _ sources.PublicationSource = (*Client)(nil)

// New creates a new PubMed client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		UserAgent:  "Helixir-DatasetDiscovery/1.0 (mailto:support@helixir.io)",
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
// publication has a PMID, eLink's cited-in traversal collects the citing
// articles; independently, an eSearch for the dataset accession collects
// articles mentioning it. Both PMID lists are resolved through eFetch.
func (c *Client) Find(ctx context.Context, dataset domain.DatasetContext) (*sources.FindResult, error) {
	result := sources.NewFindResult(domain.SourceTypePubMed)
	start := time.Now()
	var strategyErrs []error

	if pmid := primaryPMID(dataset.PrimaryPublicationID); pmid != "" {
		pubs, err := c.findCitedIn(ctx, pmid)
		if err != nil {
			strategyErrs = append(strategyErrs, fmt.Errorf("%s: %w", strategyCitedIn, err))
		} else {
			result.Add(strategyCitedIn, pubs)
		}
	}

	pubs, err := c.searchTerm(ctx, dataset.DatasetID)
	if err != nil {
		strategyErrs = append(strategyErrs, fmt.Errorf("%s: %w", strategyTermSearch, err))
	} else {
		result.Add(strategyTermSearch, pubs)
	}

	result.Duration = time.Since(start)

	if len(result.StrategyCounts) == 0 && len(strategyErrs) > 0 {
		return nil, strategyErrs[0]
	}
	return result, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypePubMed
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// primaryPMID extracts a PMID from the primary publication identifier, or
// returns empty when the identifier is not a PMID (PubMed cannot traverse
// citations from a bare DOI).
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

// findCitedIn traverses the cited-in link of the given PMID and fetches the
// citing articles.
func (c *Client) findCitedIn(ctx context.Context, pmid string) ([]*domain.Publication, error) {
	q := url.Values{}
	q.Set("dbfrom", "pubmed")
	q.Set("db", "pubmed")
	q.Set("linkname", citedInLinkName)
	q.Set("id", pmid)
	q.Set("retmode", "xml")

	var linkResult ELinkResult
	if err := c.getXML(ctx, "/elink.fcgi", q, &linkResult); err != nil {
		return nil, fmt.Errorf("elink failed: %w", err)
	}

	pmids := citedInPMIDs(&linkResult)
	if len(pmids) == 0 {
		return []*domain.Publication{}, nil
	}
	if len(pmids) > c.config.MaxResults {
		pmids = pmids[:c.config.MaxResults]
	}
	return c.efetch(ctx, pmids)
}

// searchTerm searches PubMed for articles mentioning the dataset accession
// and fetches them.
func (c *Client) searchTerm(ctx context.Context, datasetID string) ([]*domain.Publication, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", datasetID)
	q.Set("retmode", "xml")
	q.Set("retmax", strconv.Itoa(c.config.MaxResults))

	var searchResult ESearchResult
	if err := c.getXML(ctx, "/esearch.fcgi", q, &searchResult); err != nil {
		return nil, fmt.Errorf("esearch failed: %w", err)
	}

	// A phrase-not-found response means zero matches, not an error.
	if searchResult.ErrorList != nil && len(searchResult.ErrorList.PhraseNotFound) > 0 {
		return []*domain.Publication{}, nil
	}
	if len(searchResult.IDList.IDs) == 0 {
		return []*domain.Publication{}, nil
	}
	return c.efetch(ctx, searchResult.IDList.IDs)
}

// efetch retrieves full article metadata for the given PMIDs and converts
// them to domain publications.
func (c *Client) efetch(ctx context.Context, pmids []string) ([]*domain.Publication, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(pmids, ","))
	q.Set("retmode", "xml")

	var articleSet PubmedArticleSet
	if err := c.getXML(ctx, "/efetch.fcgi", q, &articleSet); err != nil {
		return nil, fmt.Errorf("efetch failed: %w", err)
	}

	pubs := make([]*domain.Publication, 0, len(articleSet.Articles))
	for i := range articleSet.Articles {
		if pub := articleToPublication(&articleSet.Articles[i]); pub != nil {
			pubs = append(pubs, pub)
		}
	}
	return pubs, nil
}

// getXML performs a GET against the given E-utilities endpoint and decodes
// the XML response into out.
func (c *Client) getXML(ctx context.Context, endpoint string, q url.Values, out interface{}) error {
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+endpoint+"?"+q.Encode(), nil)
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

	if err := xml.NewDecoder(sources.LimitBody(resp.Body)).Decode(out); err != nil {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "decoding response", err)
	}
	return nil
}

// citedInPMIDs extracts the citing PMIDs from an eLink result.
func citedInPMIDs(result *ELinkResult) []string {
	var pmids []string
	for _, linkSet := range result.LinkSets {
		for _, db := range linkSet.LinkSetDBs {
			if db.LinkName != citedInLinkName {
				continue
			}
			for _, link := range db.Links {
				if link.ID != "" {
					pmids = append(pmids, link.ID)
				}
			}
		}
	}
	return pmids
}

// articleToPublication converts one PubMed article to a domain publication.
func articleToPublication(article *PubmedArticle) *domain.Publication {
	pmid := strings.TrimSpace(article.MedlineCitation.PMID.Value)
	if pmid == "" {
		return nil
	}

	ids := domain.PublicationIdentifiers{PubMedID: pmid}
	for _, articleID := range article.PubmedData.ArticleIdList.ArticleIds {
		switch articleID.IdType {
		case "doi":
			ids.DOI = strings.ToLower(strings.TrimSpace(articleID.Value))
		case "pmc":
			ids.PMCID = strings.TrimSpace(articleID.Value)
		}
	}
	// ELocationID is the fallback DOI source for older records.
	if ids.DOI == "" {
		for _, eloc := range article.MedlineCitation.Article.ELocationID {
			if eloc.EIdType == "doi" {
				ids.DOI = strings.ToLower(strings.TrimSpace(eloc.Value))
			}
		}
	}

	art := article.MedlineCitation.Article

	var abstract string
	if art.Abstract != nil {
		parts := make([]string, 0, len(art.Abstract.AbstractTexts))
		for _, section := range art.Abstract.AbstractTexts {
			text := strings.TrimSpace(section.Value)
			if text == "" {
				continue
			}
			if section.Label != "" {
				text = section.Label + ": " + text
			}
			parts = append(parts, text)
		}
		abstract = strings.Join(parts, " ")
	}

	var authors []domain.Author
	if art.AuthorList != nil {
		authors = make([]domain.Author, 0, len(art.AuthorList.Authors))
		for _, a := range art.AuthorList.Authors {
			author := domain.Author{Name: authorName(a)}
			if author.Name == "" {
				continue
			}
			for _, ident := range a.Identifiers {
				if ident.Source == "ORCID" {
					author.ORCID = strings.TrimPrefix(strings.TrimSpace(ident.Value), "https://orcid.org/")
				}
			}
			if len(a.AffiliationInfo) > 0 {
				author.Affiliation = a.AffiliationInfo[0].Affiliation
			}
			authors = append(authors, author)
		}
	}

	var keywords []string
	if article.MedlineCitation.KeywordList != nil {
		for _, kw := range article.MedlineCitation.KeywordList.Keywords {
			if v := strings.TrimSpace(kw.Value); v != "" {
				keywords = append(keywords, v)
			}
		}
	}

	now := time.Now().UTC()
	return &domain.Publication{
		ID:          uuid.New(),
		CanonicalID: domain.GenerateCanonicalID(ids),
		Identifiers: ids,
		Title:       strings.TrimSpace(art.ArticleTitle),
		Abstract:    abstract,
		Authors:     authors,
		Venue:       art.Journal.Title,
		Year:        pubYear(art.Journal.JournalIssue.PubDate),
		Keywords:    keywords,
		Sources:     []domain.SourceType{domain.SourceTypePubMed},
		RawMetadata: map[string]interface{}{
			"pmid": pmid,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// authorName assembles a display name from PubMed name parts.
func authorName(a Author) string {
	if a.CollectiveName != "" {
		return strings.TrimSpace(a.CollectiveName)
	}
	fore := a.ForeName
	if fore == "" {
		fore = a.Initials
	}
	return strings.TrimSpace(fore + " " + a.LastName)
}

// pubYear parses the year from a PubMed publication date, falling back to
// the leading year of a MedlineDate range like "2023 Nov-Dec".
func pubYear(d PubDate) int {
	if d.Year != "" {
		if year, err := strconv.Atoi(d.Year); err == nil {
			return year
		}
	}
	if len(d.MedlineDate) >= 4 {
		if year, err := strconv.Atoi(d.MedlineDate[:4]); err == nil {
			return year
		}
	}
	return 0
}
