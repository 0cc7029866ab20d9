package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PublicationIdentifiers holds all external identifiers known for a publication.
// A publication discovered through several providers accumulates identifiers
// from each of them; none are ever discarded during merging.
type PublicationIdentifiers struct {
	DOI               string `json:"doi,omitempty"`
	PubMedID          string `json:"pubmed_id,omitempty"`
	PMCID             string `json:"pmcid,omitempty"`
	ArXivID           string `json:"arxiv_id,omitempty"`
	SemanticScholarID string `json:"semantic_scholar_id,omitempty"`
	OpenAlexID        string `json:"openalex_id,omitempty"`
	EuropePMCID       string `json:"europepmc_id,omitempty"`
}

// IsEmpty returns true if no identifier is set.
func (ids PublicationIdentifiers) IsEmpty() bool {
	return ids == PublicationIdentifiers{}
}

// GenerateCanonicalID generates a canonical identifier from publication identifiers.
// Priority order: DOI > PubMed > PMC > ArXiv > SemanticScholar > OpenAlex > EuropePMC.
// Returns empty string if no identifiers are available.
func GenerateCanonicalID(ids PublicationIdentifiers) string {
	if doi := strings.TrimSpace(ids.DOI); doi != "" {
		// DOIs are case-insensitive, normalize to lowercase
		return "doi:" + strings.ToLower(doi)
	}

	if pmid := strings.TrimSpace(ids.PubMedID); pmid != "" {
		return "pubmed:" + pmid
	}

	if pmcid := strings.TrimSpace(ids.PMCID); pmcid != "" {
		return "pmc:" + pmcid
	}

	if arxiv := strings.TrimSpace(ids.ArXivID); arxiv != "" {
		return "arxiv:" + arxiv
	}

	if s2 := strings.TrimSpace(ids.SemanticScholarID); s2 != "" {
		return "s2:" + s2
	}

	if openalex := strings.TrimSpace(ids.OpenAlexID); openalex != "" {
		return "openalex:" + openalex
	}

	if epmc := strings.TrimSpace(ids.EuropePMCID); epmc != "" {
		return "europepmc:" + epmc
	}

	return ""
}

// Author represents a publication author with optional affiliation and ORCID.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	ORCID       string `json:"orcid,omitempty"`
}

// String returns a formatted string representation of the author.
func (a Author) String() string {
	var sb strings.Builder
	sb.WriteString(a.Name)

	if a.Affiliation != "" {
		sb.WriteString(" (")
		sb.WriteString(a.Affiliation)
		sb.WriteString(")")
	}

	if a.ORCID != "" {
		sb.WriteString(" [")
		sb.WriteString(a.ORCID)
		sb.WriteString("]")
	}

	return sb.String()
}

// Publication represents a candidate related work discovered for a dataset.
// Publications are created by source clients, mutated only by the deduplicator
// (merge), and annotated by the relevance scorer and quality validator.
type Publication struct {
	ID            uuid.UUID              `json:"id"`
	CanonicalID   string                 `json:"canonical_id"`
	Identifiers   PublicationIdentifiers `json:"identifiers"`
	Title         string                 `json:"title"`
	Abstract      string                 `json:"abstract,omitempty"`
	Authors       []Author               `json:"authors,omitempty"`
	Venue         string                 `json:"venue,omitempty"`
	Year          int                    `json:"year,omitempty"`
	PublishedDate *time.Time             `json:"published_date,omitempty"`
	CitationCount int                    `json:"citation_count"`
	Keywords      []string               `json:"keywords,omitempty"`
	Sources       []SourceType           `json:"sources"`
	RawMetadata   map[string]interface{} `json:"raw_metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// HasIdentifier returns true if the publication has at least one identifier.
func (p *Publication) HasIdentifier() bool {
	return p.CanonicalID != ""
}

// HasSource returns true if the given source already appears in provenance.
func (p *Publication) HasSource(source SourceType) bool {
	for _, s := range p.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// AddSource appends a provenance tag, preserving first-seen order and skipping
// duplicates.
func (p *Publication) AddSource(source SourceType) {
	if !p.HasSource(source) {
		p.Sources = append(p.Sources, source)
	}
}

// AuthorNames returns the plain author names in list order.
func (p *Publication) AuthorNames() []string {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		names = append(names, a.Name)
	}
	return names
}
