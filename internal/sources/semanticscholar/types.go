// Package semanticscholar provides the Semantic Scholar source client.
//
// Semantic Scholar exposes a citation graph with recommendation support.
// This package implements sources.PublicationSource: it walks the incoming
// citations of the dataset's primary publication, pulls paper
// recommendations seeded by it, and searches for papers mentioning the
// dataset identifier.
//
// API documentation: https://api.semanticscholar.org/api-docs/
package semanticscholar

// SearchResponse is the response of the paper relevance-search endpoint.
type SearchResponse struct {
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Next   int     `json:"next"`
	Data   []Paper `json:"data"`
}

// CitationsResponse is the response of the paper citations endpoint. Each
// entry wraps the citing paper.
type CitationsResponse struct {
	Offset int        `json:"offset"`
	Next   int        `json:"next"`
	Data   []Citation `json:"data"`
}

// Citation wraps one citing paper.
type Citation struct {
	CitingPaper Paper `json:"citingPaper"`
}

// RecommendationsResponse is the response of the recommendations endpoint.
type RecommendationsResponse struct {
	RecommendedPapers []Paper `json:"recommendedPapers"`
}

// Paper represents one paper in Semantic Scholar API responses.
type Paper struct {
	PaperID         string       `json:"paperId"`
	Title           string       `json:"title"`
	Abstract        string       `json:"abstract"`
	Year            int          `json:"year"`
	PublicationDate string       `json:"publicationDate"`
	Venue           string       `json:"venue"`
	Journal         *Journal     `json:"journal,omitempty"`
	Authors         []Author     `json:"authors"`
	CitationCount   int          `json:"citationCount"`
	ExternalIDs     *ExternalIDs `json:"externalIds,omitempty"`
	FieldsOfStudy   []string     `json:"fieldsOfStudy,omitempty"`
}

// ExternalIDs contains external identifiers for a paper.
type ExternalIDs struct {
	DOI           string `json:"DOI,omitempty"`
	ArXiv         string `json:"ArXiv,omitempty"`
	PubMed        string `json:"PubMed,omitempty"`
	PubMedCentral string `json:"PubMedCentral,omitempty"`
}

// Journal contains journal-specific information.
type Journal struct {
	Name   string `json:"name,omitempty"`
	Volume string `json:"volume,omitempty"`
	Pages  string `json:"pages,omitempty"`
}

// Author represents a paper author.
type Author struct {
	AuthorID string `json:"authorId,omitempty"`
	Name     string `json:"name"`
}
